package handlers

import (
	"log"
	"net/http"

	"github.com/libresign/libresign/models"
	"github.com/libresign/libresign/responses"
	"github.com/libresign/libresign/web/session"
)

type pageData struct {
	AppName string
	User    *models.User
	Error   string
	Notice  string
	Data    any
}

func (h *Handlers) newPageData(r *http.Request, data any) pageData {
	user, _ := session.UserFromContext(r.Context())
	return pageData{
		AppName: h.AppName,
		User:    user,
		Error:   r.URL.Query().Get("error"),
		Notice:  r.URL.Query().Get("notice"),
		Data:    data,
	}
}

// Home handles GET /. Signed-in visitors go straight to the dashboard.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, "not found")
		return
	}
	if _, ok := session.UserFromContext(r.Context()); ok {
		responses.Redirect302(w, r, "/dashboard")
		return
	}
	h.Templates.Render(w, "home", h.newPageData(r, nil))
}

func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.Templates.Render(w, "login", h.newPageData(r, nil))
}

func (h *Handlers) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.Templates.Render(w, "signup", h.newPageData(r, nil))
}

// Dashboard handles GET /dashboard with the owner's documents.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := session.UserFromContext(r.Context())
	docs, err := h.Documents.ListForOwner(r.Context(), user.ID)
	if err != nil {
		log.Printf("[ERROR] dashboard document list: %v", err)
	}
	h.Templates.Render(w, "dashboard", h.newPageData(r, docs))
}

func (h *Handlers) DocumentNewPage(w http.ResponseWriter, r *http.Request) {
	h.Templates.Render(w, "document_new", h.newPageData(r, nil))
}

type documentPageView struct {
	Document *models.Document
	Fields   any
}

func (h *Handlers) documentPage(w http.ResponseWriter, r *http.Request, tplKey string) {
	ctx := r.Context()
	user, _ := session.UserFromContext(ctx)
	doc, err := h.Documents.Get(ctx, r.PathValue("id"), user.ID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	fieldColl, err := h.Fields.ListForDocument(ctx, doc.ID)
	if err != nil {
		log.Printf("[ERROR] document %s field list: %v", doc.ID, err)
	}
	h.Templates.Render(w, tplKey, h.newPageData(r, documentPageView{Document: doc, Fields: fieldColl}))
}

// DocumentViewPage handles GET /documents/{id}.
func (h *Handlers) DocumentViewPage(w http.ResponseWriter, r *http.Request) {
	h.documentPage(w, r, "document_view")
}

// DocumentEditPage handles GET /documents/{id}/edit, the field editor.
func (h *Handlers) DocumentEditPage(w http.ResponseWriter, r *http.Request) {
	h.documentPage(w, r, "document_edit")
}

// SignaturesPage handles GET /signatures.
func (h *Handlers) SignaturesPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := session.UserFromContext(ctx)
	sigs, err := h.Signatures.ListForUser(ctx, user.ID)
	if err != nil {
		log.Printf("[ERROR] signature list: %v", err)
	}
	views := make([]signatureView, 0, len(sigs))
	for _, sig := range sigs {
		views = append(views, h.newSignatureView(ctx, sig))
	}
	h.Templates.Render(w, "signatures", h.newPageData(r, views))
}
