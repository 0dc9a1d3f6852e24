package scene

import (
	"fmt"
	"log/slog"

	"seehuhn.de/go/geom/vec"

	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/parser"
	"github.com/starford/pdfmcr/internal/units"
)

// ScaleSource reports the current view scale.
type ScaleSource interface {
	Scale() float64
}

// SelectionObserver is told about selection changes. The previous group is
// always deselected before a new one is selected.
type SelectionObserver interface {
	SelectText(g *Group)
	Deselect()
}

// Default label used by AddLabel.
const (
	DefaultFontSize = 12
	DefaultText     = "lorem ipsum"
)

type groupDrag struct {
	group   *Group
	anchor  vec.Vec2
	start   vec.Vec2
	release func()
}

// Manager creates, positions and drags the groups of a scene.
type Manager struct {
	scene    *Scene
	view     ScaleSource
	observer SelectionObserver
	selected *Group
	drag     *groupDrag
	log      *slog.Logger
}

// NewManager returns a manager for s. view may be nil, in which case a
// scale of 1 is assumed.
func NewManager(s *Scene, view ScaleSource, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scene: s, view: view, log: logger}
}

// SetObserver installs the selection observer.
func (m *Manager) SetObserver(o SelectionObserver) {
	m.observer = o
}

// Scene returns the managed scene.
func (m *Manager) Scene() *Scene {
	return m.scene
}

func (m *Manager) scale() float64 {
	if m.view == nil {
		return 1
	}
	if s := m.view.Scale(); s > 0 {
		return s
	}
	return 1
}

// Instantiate adds a group for a. The model's bottom-left origin is flipped
// against pageHeightPt to the scene's top-left origin. Extra tags are added
// to the group; with none, it is tagged as a plain annotation.
func (m *Manager) Instantiate(a model.Annotation, pageHeightPt float64, tags ...string) *Group {
	if len(tags) == 0 {
		tags = []string{TagAnnotation}
	}
	g := m.scene.NewGroup(tags...)
	x := units.PointsToPixels(a.Left)
	y := units.PointsToPixels(pageHeightPt - a.Bottom)
	g.Transform = []units.Op{units.Translate(x, y)}

	run := NewTextRun()
	run.SetAttr(AttrFontSize, units.FormatPoints(a.FontSize))
	run.SetAttr(AttrLineHeight, units.FormatPoints(a.FontSize+a.Leading))
	for _, c := range a.Elements {
		run.Append(spanFromChunk(c))
	}
	g.Runs = []*TextRun{run}
	return g
}

// InstantiateArtifact adds a group for an artifact.
func (m *Manager) InstantiateArtifact(a model.Artifact, pageHeightPt float64) *Group {
	return m.Instantiate(a.Annotation, pageHeightPt, TagArtifact, ArtifactTag(a.Kind))
}

func spanFromChunk(c model.TextChunk) *Span {
	sp := NewSpan(c.Text)
	sp.SetVariant(c.FontVariant)
	sp.SetAttr(AttrLetterSpacing, units.FormatPoints(c.CharacterSpacing))
	sp.SetAttr(AttrWordSpacing, units.FormatPoints(c.WordSpacing))
	sp.SetOptional(AttrLang, c.Language)
	sp.SetOptional(AttrAlternateText, c.AlternateText)
	sp.SetOptional(AttrActualText, c.ActualText)
	sp.SetOptional(AttrExpansion, c.Expansion)
	return sp
}

// ChunkSpan builds a span for c with the same attributes Instantiate uses.
func ChunkSpan(c model.TextChunk) *Span {
	return spanFromChunk(c)
}

// AddLabel creates a default one-chunk label at a screen position. A nil
// kind creates a plain annotation.
func (m *Manager) AddLabel(kind *model.ArtifactKind, screen vec.Vec2, viewTransform []units.Op) *Group {
	local := ScreenToLocal(screen, viewTransform)
	a := model.Annotation{
		FontSize: DefaultFontSize,
		Elements: []model.TextChunk{{Text: DefaultText, FontVariant: model.Regular}},
	}
	var g *Group
	if kind == nil {
		g = m.Instantiate(a, m.scene.PageHeight)
	} else {
		g = m.InstantiateArtifact(model.Artifact{Kind: *kind, Annotation: a}, m.scene.PageHeight)
	}
	g.Transform = []units.Op{units.Translate(local.X, local.Y)}
	return g
}

// ScreenToLocal maps a screen position into page-local pixels through the
// inverse of the view transform. A degenerate transform maps to the screen
// position unchanged.
func ScreenToLocal(screen vec.Vec2, viewTransform []units.Op) vec.Vec2 {
	mtx := units.Compose(viewTransform)
	det := mtx[0]*mtx[3] - mtx[1]*mtx[2]
	if det == 0 {
		return screen
	}
	x := screen.X - mtx[4]
	y := screen.Y - mtx[5]
	return vec.Vec2{
		X: (x*mtx[3] - y*mtx[2]) / det,
		Y: (y*mtx[0] - x*mtx[1]) / det,
	}
}

// SetTransformAttr replaces g's transform from an SVG transform-list
// attribute.
func (m *Manager) SetTransformAttr(g *Group, attr string) error {
	ops, err := parser.ParseTransform(attr)
	if err != nil {
		return fmt.Errorf("scene: group %d: %w", g.ID(), err)
	}
	g.Transform = ops
	return nil
}

// Position returns g's page-local pixel offset, if its transform is a pure
// translation.
func Position(g *Group) (vec.Vec2, bool) {
	return units.ExtractTranslation(g.Transform)
}

// Selected returns the selected group, or nil.
func (m *Manager) Selected() *Group {
	return m.selected
}

// Select makes g the only selected group. The previous selection is
// cleared first, including in the observer.
func (m *Manager) Select(g *Group) {
	if g == m.selected {
		if g != nil && m.observer != nil {
			m.observer.SelectText(g)
		}
		return
	}
	m.Deselect()
	if g == nil {
		return
	}
	g.AddTag(TagSelected)
	m.selected = g
	if m.observer != nil {
		m.observer.SelectText(g)
	}
}

// Deselect clears the selection.
func (m *Manager) Deselect() {
	if m.selected == nil {
		return
	}
	m.selected.RemoveTag(TagSelected)
	m.selected = nil
	if m.observer != nil {
		m.observer.Deselect()
	}
}

// Remove deletes g from the scene, ending any drag on it and clearing the
// selection if it was selected.
func (m *Manager) Remove(g *Group) bool {
	if m.drag != nil && m.drag.group == g {
		m.drag.release()
		m.drag = nil
	}
	if m.selected == g {
		m.Deselect()
	}
	return m.scene.Remove(g)
}

// Dragging returns the group being dragged, or nil.
func (m *Manager) Dragging() *Group {
	if m.drag == nil {
		return nil
	}
	return m.drag.group
}

// BeginDrag starts dragging g with a primary-button press and selects it.
// Other buttons are ignored. Groups whose transform is not a pure
// translation cannot be dragged. Any other drag or pan is torn down first.
func (m *Manager) BeginDrag(g *Group, ev PointerEvent) bool {
	if ev.Button != ButtonPrimary || g == nil {
		return false
	}
	start, ok := Position(g)
	if !ok {
		m.log.Debug("scene: drag ignored, transform is not a translation", slog.Int("group", g.ID()))
		return false
	}
	if m.drag != nil {
		m.drag.release()
		m.drag = nil
	}
	m.Select(g)

	d := &groupDrag{group: g, anchor: ev.Pos, start: start}
	d.release = m.scene.Acquire(Listeners{
		Move: m.UpdateDrag,
		Up:   m.EndDrag,
		Cancel: func() {
			if m.drag == d {
				m.drag = nil
			}
		},
	})
	m.drag = d
	return true
}

// UpdateDrag moves the dragged group so it tracks the pointer. The pixel
// delta is divided by the view scale to land in page-local pixels.
func (m *Manager) UpdateDrag(ev PointerEvent) {
	if m.drag == nil {
		return
	}
	m.moveTo(ev.Pos)
}

// EndDrag finishes the drag on a primary-button release. Releasing other
// buttons leaves the drag running.
func (m *Manager) EndDrag(ev PointerEvent) {
	if m.drag == nil || ev.Button != ButtonPrimary {
		return
	}
	m.moveTo(ev.Pos)
	d := m.drag
	m.drag = nil
	d.release()
}

func (m *Manager) moveTo(pos vec.Vec2) {
	d := m.drag
	delta := pos.Sub(d.anchor).Mul(1 / m.scale())
	p := d.start.Add(delta)
	d.group.Transform = []units.Op{units.Translate(p.X, p.Y)}
}
