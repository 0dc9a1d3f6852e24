package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/pdfmcr/internal/apperr"
	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/pageservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *pageservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *pageservice.Service) *Handler {
	return &Handler{svc: svc}
}

// pageIndex extracts the page index from the URL. Anything that is not a
// non-negative integer names no page.
func pageIndex(r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// serviceError writes the response for a failed service call.
func serviceError(w http.ResponseWriter, r *http.Request, op string, n int, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrInvalidAnnotations), errors.Is(err, apperr.ErrInvalidImage):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		slog.Error(op+" failed", slog.Int("page", n), slog.String("request_id", middleware.GetReqID(r.Context())), slog.String("error", err.Error()))
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

// ListPages handles GET /api/pages.
//
//	@Summary		List pages in document order
//	@Tags			pages
//	@Produce		json
//	@Success		200	{object}	PageListResponse
//	@Security		BearerAuth
//	@Router			/pages [get]
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListPages(r.Context())
	if err != nil {
		slog.Error("list pages failed", slog.String("error", err.Error()))
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []PageSummary{}
	}
	writeJSON(w, http.StatusOK, PageListResponse{Pages: items, Count: len(items)})
}

// GetPage handles GET /api/page/{n}.
//
//	@Summary		Get a page with its size and annotations
//	@Tags			pages
//	@Produce		json
//	@Param			n	path		int	true	"Page index"
//	@Success		200	{object}	PageDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/{n} [get]
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	n, ok := pageIndex(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	page, err := h.svc.GetPage(r.Context(), n)
	if err != nil {
		serviceError(w, r, "get page", n, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// GetImage handles GET /api/page/{n}/image.
//
//	@Summary		Get the scanned background image of a page
//	@Tags			pages
//	@Produce		jpeg
//	@Param			n	path	int	true	"Page index"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/{n}/image [get]
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	n, ok := pageIndex(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	path, err := h.svc.ImageFile(r.Context(), n)
	if err != nil {
		serviceError(w, r, "get image", n, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

// GetThumbnail handles GET /api/page/{n}/thumbnail.
//
//	@Summary		Get a scaled-down page image
//	@Tags			pages
//	@Produce		jpeg
//	@Param			n		path	int	true	"Page index"
//	@Param			width	query	int	false	"Thumbnail width in pixels"
//	@Success		200
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/{n}/thumbnail [get]
func (h *Handler) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	n, ok := pageIndex(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	width := 0
	if s := r.URL.Query().Get("width"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			writeError(w, r, http.StatusBadRequest, "width must be a positive integer")
			return
		}
		width = v
	}
	data, err := h.svc.Thumbnail(r.Context(), n, width)
	if err != nil {
		serviceError(w, r, "thumbnail", n, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GetAnnotations handles GET /api/page/{n}/annotations.
//
//	@Summary		Get the annotations of a page
//	@Tags			annotations
//	@Produce		json
//	@Param			n	path		int	true	"Page index"
//	@Success		200	{object}	PageAnnotations
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/{n}/annotations [get]
func (h *Handler) GetAnnotations(w http.ResponseWriter, r *http.Request) {
	n, ok := pageIndex(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	p, err := h.svc.Annotations(r.Context(), n)
	if err != nil {
		serviceError(w, r, "get annotations", n, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SaveAnnotations handles POST /api/page/{n}/annotations.
//
//	@Summary		Replace the annotations of a page
//	@Tags			annotations
//	@Accept			json
//	@Param			n		path	int				true	"Page index"
//	@Param			body	body	PageAnnotations	true	"Annotations and artifacts"
//	@Success		204		"Annotations saved"
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page/{n}/annotations [post]
func (h *Handler) SaveAnnotations(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	n, ok := pageIndex(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read body")
		return
	}
	p, err := model.Decode(body)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.svc.SaveAnnotations(r.Context(), n, p); err != nil {
		serviceError(w, r, "save annotations", n, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportPDF handles GET /api/export.pdf.
//
//	@Summary		Export every page with its annotations as a PDF
//	@Tags			export
//	@Produce		application/pdf
//	@Success		200	{file}		binary
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export.pdf [get]
func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.svc.ExportPDF(r.Context(), &buf); err != nil {
		serviceError(w, r, "export pdf", -1, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="document.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
