// Package editor ties the scene, viewport and chunk editor of one page
// together and drives the save round trip.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"seehuhn.de/go/geom/vec"

	"github.com/starford/pdfmcr/internal/chunkedit"
	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/scene"
	"github.com/starford/pdfmcr/internal/serialize"
	"github.com/starford/pdfmcr/internal/viewport"
)

// ErrSaveInProgress is returned by Save while an earlier save is
// outstanding.
var ErrSaveInProgress = errors.New("editor: save already in progress")

// Status messages shown after a save.
const (
	StatusSaved       = "Saved."
	StatusSaveFailed  = "Saving failed: "
	StatusSaveRunning = "Saving..."
)

// Saver persists the annotations of one page.
type Saver interface {
	SaveAnnotations(ctx context.Context, page int, p model.PageAnnotations) error
}

// Session is the editing state of one page. It is driven from a single
// event loop; only Save may be called while another call is in flight.
type Session struct {
	Page    int
	Scene   *scene.Scene
	View    *viewport.Controller
	Manager *scene.Manager
	Chunks  *chunkedit.Coordinator

	saver Saver
	log   *slog.Logger

	mu          sync.Mutex
	saving      bool
	saved       bool
	status      string
	lastSkipped []serialize.Skip
}

// New builds an empty session for page.
func New(page int, saver Saver, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	root := scene.New(0, logger)
	view := viewport.New(root, logger)
	mgr := scene.NewManager(root, view, logger)
	chunks := chunkedit.New(logger)
	mgr.SetObserver(chunks)
	return &Session{
		Page:    page,
		Scene:   root,
		View:    view,
		Manager: mgr,
		Chunks:  chunks,
		saver:   saver,
		log:     logger.With(slog.Int("page", page)),
	}
}

// Load replaces the scene content with p on a page of the given height in
// points. The view is reset.
func (s *Session) Load(p model.PageAnnotations, pageHeightPt float64) {
	// Acquiring cancels any drag or pan still running.
	s.Scene.Acquire(scene.Listeners{})()
	s.Manager.Deselect()
	s.Scene.Clear()
	s.Scene.PageHeight = pageHeightPt
	s.View.ResetView()
	p.Normalize()
	groups := serialize.FromModel(p, pageHeightPt, s.Manager)
	s.log.Debug("editor: page loaded", slog.Int("groups", len(groups)))
}

// AddLabel creates a default label at a screen position. A nil kind
// creates a plain annotation.
func (s *Session) AddLabel(kind *model.ArtifactKind, screen vec.Vec2) *scene.Group {
	return s.Manager.AddLabel(kind, screen, s.View.Transform())
}

// RemoveSelected deletes the selected group, if any.
func (s *Session) RemoveSelected() bool {
	g := s.Manager.Selected()
	if g == nil {
		return false
	}
	return s.Manager.Remove(g)
}

// Snapshot serializes the scene without saving it.
func (s *Session) Snapshot() model.PageAnnotations {
	p, _ := serialize.ToModel(s.Scene)
	return p
}

// SaveEnabled reports whether the save control accepts input.
func (s *Session) SaveEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.saving
}

// Saved reports whether the last save succeeded.
func (s *Session) Saved() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// Status returns the user-visible message of the last save.
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Skipped returns the elements left out by the last save.
func (s *Session) Skipped() []serialize.Skip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSkipped
}

// Save serializes the scene and hands it to the saver. The save control is
// disabled until the saver returns, on both the success and the failure
// path. A failed save leaves the editing state untouched so it can be
// retried.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.saving {
		s.mu.Unlock()
		return ErrSaveInProgress
	}
	s.saving = true
	s.status = StatusSaveRunning
	s.mu.Unlock()

	// Re-enable the control even if the saver panics.
	settled := false
	defer func() {
		if settled {
			return
		}
		s.mu.Lock()
		s.saving = false
		s.saved = false
		s.status = StatusSaveFailed + "save aborted"
		s.mu.Unlock()
	}()

	p, skips := serialize.ToModel(s.Scene)
	for _, sk := range skips {
		s.log.Warn("serialize: skipped element", slog.String("element", sk.String()))
	}

	err := s.saver.SaveAnnotations(ctx, s.Page, p)

	s.mu.Lock()
	defer s.mu.Unlock()
	settled = true
	s.saving = false
	s.lastSkipped = skips
	if err != nil {
		s.saved = false
		s.status = StatusSaveFailed + err.Error()
		s.log.Error("editor: save failed", slog.String("error", err.Error()))
		return err
	}
	s.saved = true
	s.status = StatusSaved
	return nil
}
