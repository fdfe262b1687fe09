package handlers

import (
	"context"
	"encoding/json/v2"
	"log"
	"net/http"

	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/responses"
)

type createSignatureRequest struct {
	Name    string `json:"name"`
	DataURL string `json:"data_url"`
}

// signatureView decorates a signature row with a browser-usable image URL.
type signatureView struct {
	*models.Signature
	DisplayURL string `json:"display_url"`
}

// CreateSignature handles POST /api/signatures.
func (h *Handlers) CreateSignature(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in createSignatureRequest
	if err := json.UnmarshalRead(r.Body, &in); err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "malformed request body")
		return
	}
	sig, err := h.Signatures.Create(ctx, user, in.Name, in.DataURL)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusCreated, h.newSignatureView(ctx, sig))
}

// ListSignatures handles GET /api/signatures.
func (h *Handlers) ListSignatures(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	sigs, err := h.Signatures.ListForUser(ctx, user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	views := make([]signatureView, 0, len(sigs))
	for _, sig := range sigs {
		views = append(views, h.newSignatureView(ctx, sig))
	}
	responses.EncodeWriteJSON(w, http.StatusOK, views)
}

// SetDefaultSignature handles POST /api/signatures/{id}/default.
func (h *Handlers) SetDefaultSignature(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Signatures.SetDefault(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, responses.Message{Type: "ok", Message: "default updated"})
}

// DeleteSignature handles DELETE /api/signatures/{id}.
func (h *Handlers) DeleteSignature(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Signatures.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, responses.Message{Type: "ok", Message: "deleted"})
}

func (h *Handlers) newSignatureView(ctx context.Context, sig *models.Signature) signatureView {
	url, err := h.Signatures.DisplayURL(ctx, sig)
	if err != nil {
		// row data is still useful without a resolvable image URL
		log.Printf("[WARN] signature %s display URL: %v", sig.ID, err)
	}
	return signatureView{Signature: sig, DisplayURL: url}
}
