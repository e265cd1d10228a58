package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docfill/internal/docfill"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docfill.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Templates.
	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/{name}", h.GetTemplate)
	r.Put("/templates/{name}", h.PutTemplate)
	r.Delete("/templates/{name}", h.DeleteTemplate)
	r.Get("/templates/{name}/fields", h.Fields)

	// Search.
	r.Get("/search", h.Search)

	// Analysis and filling.
	r.Post("/analyze", h.Analyze)
	r.Post("/prepare", h.Prepare)
	r.Post("/fill", h.Fill)

	// Export.
	r.Post("/export", h.Export)
	r.Get("/exports", h.ListExports)
	r.Get("/exports/{file}", h.DownloadExport)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
