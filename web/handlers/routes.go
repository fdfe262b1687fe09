package handlers

import (
	"net/http"
	"path/filepath"

	"github.com/libresign/libresign/responses"
	"github.com/libresign/libresign/routing"
)

// RouterDeps carries the cross-cutting wrappers the route table needs.
type RouterDeps struct {
	Gate           routing.HandlerWrapper // page auth: redirects to login
	Loader         routing.HandlerWrapper // api auth: attaches user if present
	AuthThrottle   routing.HandlerWrapper
	UploadThrottle routing.HandlerWrapper
	StaticRoot     string // filesystem dir served under /static/
	EchoAPI        bool
}

// BuildRouter registers every route of the application.
func (h *Handlers) BuildRouter(deps RouterDeps) http.Handler {
	r := routing.NewBaseRouter()
	recoverW := routing.WrapperFunc(routing.RecoverWrapper)

	// Pages, guarded by the gate
	r.Group("", func(g *routing.RouteGroup) {
		g.HandleFunc("GET /", h.Home)
		g.HandleFunc("GET /login", h.LoginPage)
		g.HandleFunc("GET /signup", h.SignupPage)
		g.HandleFunc("GET /dashboard", h.Dashboard)
		g.HandleFunc("GET /documents/new", h.DocumentNewPage)
		g.HandleFunc("GET /documents/{id}", h.DocumentViewPage)
		g.HandleFunc("GET /documents/{id}/edit", h.DocumentEditPage)
		g.HandleFunc("GET /documents/{id}/file", h.DocumentFile)
		g.HandleFunc("GET /documents/{id}/download", h.DownloadDocument)
		g.HandleFunc("GET /signatures", h.SignaturesPage)
	}, recoverW, deps.Gate)

	// Platform auth flow
	r.HandleFunc("GET /auth/callback", h.AuthCallback, recoverW, deps.AuthThrottle)
	r.HandleFunc("/auth/logout", h.Logout, recoverW, deps.Loader)

	// JSON API
	r.Group("/api", func(g *routing.RouteGroup) {
		g.HandleFunc("POST /auth/login", h.APILogin, deps.AuthThrottle)
		g.HandleFunc("POST /auth/signup", h.APISignup, deps.AuthThrottle)

		g.HandleFunc("POST /documents", h.UploadDocument, deps.UploadThrottle)
		g.HandleFunc("GET /documents", h.ListDocuments)
		g.HandleFunc("GET /documents/{id}", h.GetDocument)
		g.HandleFunc("DELETE /documents/{id}", h.DeleteDocument)
		g.HandleFunc("POST /documents/{id}/send", h.SendDocument)
		g.HandleFunc("POST /documents/{id}/complete", h.CompleteDocument)

		g.HandleFunc("POST /documents/{id}/fields", h.PlaceField)
		g.HandleFunc("GET /documents/{id}/fields", h.ListFields)
		g.HandleFunc("DELETE /documents/{id}/fields/{fieldID}", h.RemoveField)

		g.HandleFunc("POST /signatures", h.CreateSignature, deps.UploadThrottle)
		g.HandleFunc("GET /signatures", h.ListSignatures)
		g.HandleFunc("POST /signatures/{id}/default", h.SetDefaultSignature)
		g.HandleFunc("DELETE /signatures/{id}", h.DeleteSignature)

		g.HandleFunc("GET /storage-test", h.StorageTest)

		if deps.EchoAPI {
			g.Handle("/echo", &responses.EchoHandler{MaxMemoryMB: 16})
		}
	}, recoverW, deps.Loader)

	// Static assets
	if deps.StaticRoot != "" {
		fileServer := http.FileServer(http.Dir(filepath.Clean(deps.StaticRoot)))
		r.Handle("GET /static/", http.StripPrefix("/static/", fileServer), recoverW)
	}

	return r
}
