package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/pdfmcr/internal/apperr"
)

const (
	uploadField    = "background-image"
	maxUploadBytes = 50 << 20 // 50 MB
)

// UploadPage handles POST /page (multipart/form-data, field
// "background-image"). On success it redirects to the new page.
//
//	@Summary		Append a page with a scanned JPEG background
//	@Tags			pages
//	@Accept			multipart/form-data
//	@Param			background-image	formData	file	true	"JFIF JPEG with pixel density"
//	@Success		303
//	@Failure		400	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/page [post]
func (h *Handler) UploadPage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "file too large or invalid multipart")
		return
	}

	file, _, err := r.FormFile(uploadField)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing '"+uploadField+"' field in multipart form")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "failed to read file")
		return
	}

	n, err := h.svc.Upload(r.Context(), data)
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidImage) {
			writeError(w, r, http.StatusBadRequest, err.Error())
		} else {
			slog.Error("upload page failed", slog.String("error", err.Error()))
			writeError(w, r, http.StatusInternalServerError, "internal error")
		}
		return
	}

	http.Redirect(w, r, fmt.Sprintf("%s/%d", strings.TrimSuffix(r.URL.Path, "/"), n), http.StatusSeeOther)
}
