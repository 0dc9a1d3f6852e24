package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/pdfmcr/internal/pageservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *pageservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Pages.
	r.Get("/pages", h.ListPages)
	r.Post("/page", h.UploadPage)
	r.Get("/page/{n}", h.GetPage)
	r.Get("/page/{n}/image", h.GetImage)
	r.Get("/page/{n}/thumbnail", h.GetThumbnail)

	// Annotations.
	r.Get("/page/{n}/annotations", h.GetAnnotations)
	r.Post("/page/{n}/annotations", h.SaveAnnotations)

	// Export.
	r.Get("/export.pdf", h.ExportPDF)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
