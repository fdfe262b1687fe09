package handlers

import (
	"encoding/json/v2"
	"net/http"

	"github.com/libresign/libresign/fields"
	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/responses"
	"github.com/libresign/libresign/web/session"
)

type placeFieldRequest struct {
	FieldType     string  `json:"field_type"`
	Page          int     `json:"page"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	W             float64 `json:"w"`
	H             float64 `json:"h"`
	AssigneeEmail string  `json:"assignee_email"`
}

// PlaceField handles POST /api/documents/{id}/fields.
func (h *Handlers) PlaceField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	doc, err := h.Documents.Get(ctx, r.PathValue("id"), user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	var in placeFieldRequest
	if err = json.UnmarshalRead(r.Body, &in); err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "malformed request body")
		return
	}
	// the signed-in user is the fallback assignee
	sessionUser, _ := session.UserFromContext(ctx)
	field, err := h.Fields.Place(ctx, doc, sessionUser, fields.PlaceInput{
		FieldType:     models.FieldType(in.FieldType),
		Page:          in.Page,
		X:             in.X,
		Y:             in.Y,
		W:             in.W,
		H:             in.H,
		AssigneeEmail: in.AssigneeEmail,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusCreated, field)
}

// ListFields handles GET /api/documents/{id}/fields.
func (h *Handlers) ListFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	doc, err := h.Documents.Get(ctx, r.PathValue("id"), user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	coll, err := h.Fields.ListForDocument(ctx, doc.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, coll)
}

// RemoveField handles DELETE /api/documents/{id}/fields/{fieldID}.
func (h *Handlers) RemoveField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	doc, err := h.Documents.Get(ctx, r.PathValue("id"), user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if err = h.Fields.Remove(ctx, doc, r.PathValue("fieldID")); err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, responses.Message{Type: "ok", Message: "removed"})
}
