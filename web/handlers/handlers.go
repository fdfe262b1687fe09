// Package handlers holds the HTTP handlers for pages and the JSON API.
// Auth state comes from the request context, put there by the gate/loader
// wrappers; handlers never read cookies themselves.
package handlers

import (
	"errors"
	"net/http"

	"github.com/libresign/libresign/documents"
	"github.com/libresign/libresign/fields"
	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/platform"
	"github.com/libresign/libresign/responses"
	"github.com/libresign/libresign/signatures"
	"github.com/libresign/libresign/storage"
	"github.com/libresign/libresign/tpl"
	"github.com/libresign/libresign/web/session"
)

type Handlers struct {
	AppName    string
	Sessions   *session.Manager
	Platform   *platform.Client
	Storage    *storage.Client
	Documents  *documents.Store
	Fields     *fields.Store
	Signatures *signatures.Store
	Templates  *tpl.HTMLTemplateStore
}

// requireUser resolves the session user or writes a 401. API routes only;
// page routes are guarded by the gate and never reach this unauthenticated.
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := session.UserFromContext(r.Context())
	if !ok {
		responses.WriteSimpleErrorJSON(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return user, true
}

// writeStoreError maps store sentinel errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, documents.ErrNotFound),
		errors.Is(err, fields.ErrNotFound),
		errors.Is(err, signatures.ErrNotFound):
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, documents.ErrNotPDF),
		errors.Is(err, fields.ErrBadFieldType),
		errors.Is(err, fields.ErrPageOutOfRange),
		errors.Is(err, fields.ErrBadGeometry),
		errors.Is(err, fields.ErrAssigneeUnresolved),
		errors.Is(err, signatures.ErrBadDataURL),
		errors.Is(err, signatures.ErrBadImageType):
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, documents.ErrTooLarge),
		errors.Is(err, signatures.ErrTooLarge):
		responses.WriteSimpleErrorJSON(w, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, documents.ErrBadTransition),
		errors.Is(err, fields.ErrDocumentNotEditable),
		errors.Is(err, signatures.ErrBusy):
		responses.WriteSimpleErrorJSON(w, http.StatusConflict, err.Error())
	default:
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}
