// Package pageservice coordinates the image directory, the page store and
// the thumbnail cache behind the HTTP and MCP surfaces.
package pageservice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/starford/pdfmcr/internal/apperr"
	"github.com/starford/pdfmcr/internal/cache"
	"github.com/starford/pdfmcr/internal/checksum"
	"github.com/starford/pdfmcr/internal/jpeg"
	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/pagestore"
	"github.com/starford/pdfmcr/internal/pdfexport"
	"github.com/starford/pdfmcr/internal/sse"
	"github.com/starford/pdfmcr/internal/storage"
)

// DefaultThumbnailWidth is used when a thumbnail request names no width.
const DefaultThumbnailWidth = 200

// PageSummary is a lightweight item in a page listing.
type PageSummary struct {
	Index       int       `json:"index"`
	ImagePath   string    `json:"image_path"`
	WidthPt     float64   `json:"width_pt"`
	HeightPt    float64   `json:"height_pt"`
	Annotations int       `json:"annotations"`
	Artifacts   int       `json:"artifacts"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PageDetail is the full representation of a page, as loaded by an editor.
type PageDetail struct {
	Index           int                   `json:"index"`
	Count           int                   `json:"count"`
	ImagePath       string                `json:"image_path"`
	Image           jpeg.Info             `json:"image"`
	WidthPt         float64               `json:"width_pt"`
	HeightPt        float64               `json:"height_pt"`
	DefaultLanguage string                `json:"default_language,omitempty"`
	Annotations     model.PageAnnotations `json:"annotations"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Publisher receives page change events.
type Publisher interface {
	PublishPageEvent(kind string, ev sse.PageEvent)
}

// Options configures a Service.
type Options struct {
	ThumbnailWidth  int
	DefaultLanguage string
	Thumbnails      *cache.Thumbnails
	Publisher       Publisher
	Logger          *slog.Logger
}

// Service coordinates storage, page store and thumbnail operations.
type Service struct {
	store storage.Provider
	db    pagestore.PageIndex
	opts  Options
	log   *slog.Logger
}

// NewService creates a new page service.
func NewService(store storage.Provider, db pagestore.PageIndex, opts Options) *Service {
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = DefaultThumbnailWidth
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, db: db, opts: opts, log: log}
}

func (s *Service) publish(kind string, page int, imagePath string) {
	if s.opts.Publisher != nil {
		s.opts.Publisher.PublishPageEvent(kind, sse.PageEvent{Page: page, ImagePath: imagePath})
	}
}

// ListPages returns every page in document order.
func (s *Service) ListPages(_ context.Context) ([]PageSummary, error) {
	rows, err := s.db.List()
	if err != nil {
		return nil, err
	}
	items := make([]PageSummary, len(rows))
	for i, r := range rows {
		w, h := r.Image.SizePoints()
		items[i] = PageSummary{
			Index:       r.Index,
			ImagePath:   r.ImagePath,
			WidthPt:     w,
			HeightPt:    h,
			Annotations: len(r.Annotations.Annotations),
			Artifacts:   len(r.Annotations.Artifacts),
			UpdatedAt:   r.UpdatedAt,
		}
	}
	return items, nil
}

// GetPage returns page n with its size in points and annotations.
func (s *Service) GetPage(_ context.Context, n int) (*PageDetail, error) {
	r, err := s.db.Get(n)
	if err != nil {
		return nil, err
	}
	count, err := s.db.Count()
	if err != nil {
		return nil, err
	}
	w, h := r.Image.SizePoints()
	return &PageDetail{
		Index:           r.Index,
		Count:           count,
		ImagePath:       r.ImagePath,
		Image:           r.Image,
		WidthPt:         w,
		HeightPt:        h,
		DefaultLanguage: s.opts.DefaultLanguage,
		Annotations:     r.Annotations,
		UpdatedAt:       r.UpdatedAt,
	}, nil
}

// Upload stores a scanned JPEG under its content-addressed name and
// appends it as a page. Uploading the same image twice returns the
// existing page.
func (s *Service) Upload(_ context.Context, data []byte) (int, error) {
	info, err := jpeg.Parse(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrInvalidImage, err)
	}
	if err := info.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", apperr.ErrInvalidImage, err)
	}

	name := checksum.ImageName(data)
	if !s.store.Exists(name) {
		if err := s.store.Write(name, data); err != nil {
			return 0, err
		}
	}
	n, err := pagestore.ImportImage(s.db, name, data)
	if err != nil {
		return 0, err
	}
	s.log.Info("page added", slog.Int("page", n), slog.String("image", name))
	s.publish(sse.PageCreated, n, name)
	return n, nil
}

// ImageFile returns the file-system path of page n's image.
func (s *Service) ImageFile(_ context.Context, n int) (string, error) {
	r, err := s.db.Get(n)
	if err != nil {
		return "", err
	}
	if !s.store.Exists(r.ImagePath) {
		return "", fmt.Errorf("pageservice: image %s: %w", r.ImagePath, apperr.ErrNotFound)
	}
	return s.store.OSPath(r.ImagePath)
}

// Thumbnail returns page n's image scaled to width. Width 0 selects the
// configured default.
func (s *Service) Thumbnail(_ context.Context, n, width int) ([]byte, error) {
	if width <= 0 {
		width = s.opts.ThumbnailWidth
	}
	r, err := s.db.Get(n)
	if err != nil {
		return nil, err
	}
	if s.opts.Thumbnails != nil {
		if data, ok := s.opts.Thumbnails.Get(r.ImagePath, width); ok {
			return data, nil
		}
	}
	src, err := s.store.Read(r.ImagePath)
	if err != nil {
		if storage.IsNotExist(err) {
			return nil, fmt.Errorf("pageservice: image %s: %w", r.ImagePath, apperr.ErrNotFound)
		}
		return nil, err
	}
	data, err := jpeg.Thumbnail(src, width)
	if err != nil {
		return nil, err
	}
	if s.opts.Thumbnails != nil {
		s.opts.Thumbnails.Set(r.ImagePath, width, data)
	}
	return data, nil
}

// Annotations returns the annotations of page n.
func (s *Service) Annotations(_ context.Context, n int) (model.PageAnnotations, error) {
	r, err := s.db.Get(n)
	if err != nil {
		return model.PageAnnotations{}, err
	}
	return r.Annotations, nil
}

// SaveAnnotations validates p and replaces the annotations of page n.
func (s *Service) SaveAnnotations(_ context.Context, n int, p model.PageAnnotations) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidAnnotations, err)
	}
	if err := s.db.SetAnnotations(n, p); err != nil {
		return err
	}
	s.log.Info("annotations saved", slog.Int("page", n),
		slog.Int("annotations", len(p.Annotations)), slog.Int("artifacts", len(p.Artifacts)))
	s.publish(sse.AnnotationsUpdated, n, "")
	return nil
}

// ExportPDF writes every page with its annotations as one PDF document.
func (s *Service) ExportPDF(_ context.Context, w io.Writer) error {
	rows, err := s.db.List()
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("pageservice: export: %w", apperr.ErrNotFound)
	}
	doc := pdfexport.Document{
		Language: s.opts.DefaultLanguage,
		Pages:    make([]pdfexport.Page, 0, len(rows)),
	}
	for _, r := range rows {
		data, err := s.store.Read(r.ImagePath)
		if err != nil {
			if storage.IsNotExist(err) {
				return fmt.Errorf("pageservice: image %s: %w", r.ImagePath, apperr.ErrNotFound)
			}
			return err
		}
		doc.Pages = append(doc.Pages, pdfexport.Page{
			Image:       data,
			Info:        r.Image,
			Annotations: r.Annotations,
		})
	}
	if err := pdfexport.Write(w, doc); err != nil {
		return err
	}
	s.log.Info("pdf exported", slog.Int("pages", len(rows)))
	return nil
}

// OnWatcherEvent publishes page events for images picked up by the image
// directory watcher.
func (s *Service) OnWatcherEvent(kind, imagePath string) {
	n, err := s.db.IndexOf(imagePath)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			s.log.Warn("watcher event: lookup failed", slog.String("path", imagePath), slog.String("error", err.Error()))
		}
		return
	}
	switch kind {
	case pagestore.EventCreated:
		s.publish(sse.PageCreated, n, imagePath)
	case pagestore.EventRelinked:
		s.publish(sse.PageRelinked, n, imagePath)
	}
}
