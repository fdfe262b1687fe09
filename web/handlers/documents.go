package handlers

import (
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/libresign/libresign/responses"
	"github.com/libresign/libresign/rw"
	"github.com/libresign/libresign/storage"
)

// DocumentSignedURLTTL is the lifetime of the signed URL behind
// /documents/{id}/file.
const DocumentSignedURLTTL = time.Hour

const uploadMaxMemory = 16 << 20 // multipart in-memory threshold

// UploadDocument handles POST /api/documents (multipart: file, title).
func (h *Handlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, storage.DocumentsSizeLimit+uploadMaxMemory)
	if err := r.ParseMultipartForm(uploadMaxMemory); err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "malformed multipart request")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	if err != nil {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	doc, err := h.Documents.Upload(ctx, user,
		r.FormValue("title"), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusCreated, doc)
}

// ListDocuments handles GET /api/documents.
func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	docs, err := h.Documents.ListForOwner(r.Context(), user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, docs)
}

// GetDocument handles GET /api/documents/{id}.
func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	doc, err := h.Documents.Get(r.Context(), r.PathValue("id"), user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}.
func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := h.Documents.Delete(r.Context(), r.PathValue("id"), user.ID); err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, responses.Message{Type: "ok", Message: "deleted"})
}

// SendDocument handles POST /api/documents/{id}/send.
func (h *Handlers) SendDocument(w http.ResponseWriter, r *http.Request) {
	h.transitionDocument(w, r, h.Documents.Send)
}

// CompleteDocument handles POST /api/documents/{id}/complete.
func (h *Handlers) CompleteDocument(w http.ResponseWriter, r *http.Request) {
	h.transitionDocument(w, r, h.Documents.Complete)
}

func (h *Handlers) transitionDocument(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id, ownerID string) error) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := op(r.Context(), id, user.ID); err != nil {
		writeStoreError(w, err)
		return
	}
	doc, err := h.Documents.Get(r.Context(), id, user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, doc)
}

// DocumentFile handles GET /documents/{id}/file by redirecting to a
// short-lived signed URL, keeping blob bytes off this server.
func (h *Handlers) DocumentFile(w http.ResponseWriter, r *http.Request) {
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
	signedURL, err := h.Documents.SignedAccessURL(ctx, doc, DocumentSignedURLTTL)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	responses.Redirect302(w, r, signedURL)
}

// DownloadDocument handles GET /documents/{id}/download by proxying the
// blob through this server with attachment headers.
func (h *Handlers) DownloadDocument(w http.ResponseWriter, r *http.Request) {
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
	blob, _, err := h.Documents.OpenBlob(ctx, doc)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	defer func() { _ = blob.Close() }()

	responses.WritePDFResponseHeaders(w, storage.SanitizeFilename(doc.Title)+".pdf")
	cw := rw.NewCountWriter(w)
	if _, err = io.Copy(cw, blob); err != nil {
		log.Printf("[WARN] document %s download interrupted after %d bytes: %v", doc.ID, cw.BytesWritten(), err)
		return
	}
	log.Printf("[INFO] document %s downloaded (%d bytes)", doc.ID, cw.BytesWritten())
}
