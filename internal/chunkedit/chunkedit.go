// Package chunkedit binds the text chunks of the selected annotation to an
// edit form.
package chunkedit

import (
	"log/slog"
	"slices"

	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/scene"
	"github.com/starford/pdfmcr/internal/units"
)

// PlaceholderText is the text of a newly added chunk.
const PlaceholderText = scene.DefaultText

// State of the coordinator.
type State int

const (
	NoSelection State = iota
	RunSelected
)

func (s State) String() string {
	if s == RunSelected {
		return "RunSelected"
	}
	return "NoSelection"
}

// Optional is a nullable form field: the value is only written back when
// Enabled is set.
type Optional struct {
	Enabled bool
	Value   string
}

func (o Optional) ptr() *string {
	if !o.Enabled {
		return nil
	}
	return model.Str(o.Value)
}

func optionalOf(v *string) Optional {
	if v == nil {
		return Optional{}
	}
	return Optional{Enabled: true, Value: *v}
}

// Form mirrors the fields of the chunk edit surface. Lengths are in points.
type Form struct {
	Visible bool

	Text             string
	FontSize         float64
	Leading          float64
	Bold             bool
	Italic           bool
	CharacterSpacing float64
	WordSpacing      float64

	Language      Optional
	AlternateText Optional
	ActualText    Optional
	Expansion     Optional
}

// Coordinator is a two-state machine: NoSelection, or RunSelected with the
// first text run of a group bound to Form. It implements
// scene.SelectionObserver.
type Coordinator struct {
	Form Form

	group  *scene.Group
	run    *scene.TextRun
	chunks []*scene.Span
	index  int
	log    *slog.Logger
}

var _ scene.SelectionObserver = (*Coordinator)(nil)

// New returns a coordinator with nothing selected.
func New(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{index: -1, log: logger}
}

// State reports the current state.
func (c *Coordinator) State() State {
	if c.run == nil {
		return NoSelection
	}
	return RunSelected
}

// Group returns the selected group, or nil.
func (c *Coordinator) Group() *scene.Group { return c.group }

// Index returns the active chunk index, or -1.
func (c *Coordinator) Index() int { return c.index }

// Choices returns the texts of the selectable chunks, in order.
func (c *Coordinator) Choices() []string {
	out := make([]string, len(c.chunks))
	for i, sp := range c.chunks {
		out[i] = sp.Text
	}
	return out
}

func (c *Coordinator) active() *scene.Span {
	if c.index < 0 || c.index >= len(c.chunks) {
		return nil
	}
	return c.chunks[c.index]
}

// SelectText binds the first text run of g and activates its first chunk.
// A group without runs leaves the coordinator deselected.
func (c *Coordinator) SelectText(g *scene.Group) {
	if g == nil {
		c.Deselect()
		return
	}
	run := g.FirstRun()
	if run == nil {
		c.log.Debug("chunkedit: group has no text run", slog.Int("group", g.ID()))
		c.Deselect()
		return
	}
	c.group = g
	c.run = run
	c.chunks = slices.Clone(run.Spans)
	c.Form = Form{Visible: true}
	c.loadRun()
	c.SelectChunk(0)
}

// Deselect unbinds the run and hides the form.
func (c *Coordinator) Deselect() {
	c.group = nil
	c.run = nil
	c.chunks = nil
	c.index = -1
	c.Form.Visible = false
}

// SelectChunk activates the chunk at i. An out-of-range index clears the
// active chunk.
func (c *Coordinator) SelectChunk(i int) {
	if c.run == nil {
		return
	}
	if i < 0 || i >= len(c.chunks) {
		c.index = -1
		return
	}
	c.index = i
	c.loadChunk(c.chunks[i])
}

// AddChunk appends a chunk to the run and activates it. The active chunk,
// if any, is the template for its attributes; otherwise a Regular chunk
// with zero spacings and no optional fields is used.
func (c *Coordinator) AddChunk() {
	if c.run == nil {
		return
	}
	var sp *scene.Span
	if cur := c.active(); cur != nil {
		sp = cur.Clone(PlaceholderText)
	} else {
		sp = scene.ChunkSpan(model.TextChunk{Text: PlaceholderText, FontVariant: model.Regular})
	}
	c.run.Append(sp)
	c.chunks = append(c.chunks, sp)
	c.SelectChunk(len(c.chunks) - 1)
}

// RemoveChunk deletes the active chunk from the run and from the choices.
// Nothing happens without an active chunk or when it is no longer part of
// the run.
func (c *Coordinator) RemoveChunk() {
	sp := c.active()
	if sp == nil {
		return
	}
	if !c.run.RemoveSpan(sp) {
		c.log.Debug("chunkedit: stale chunk index", slog.Int("index", c.index))
		return
	}
	c.chunks = slices.Delete(c.chunks, c.index, c.index+1)
	c.index = -1
}

// CommitChunk writes the form back to the active chunk and sets the run's
// font size and line height. It reports whether anything was written.
func (c *Coordinator) CommitChunk() bool {
	sp := c.active()
	if sp == nil {
		return false
	}
	f := c.Form
	sp.Text = f.Text
	sp.SetVariant(model.FontVariantFromFlags(f.Bold, f.Italic))
	sp.SetAttr(scene.AttrLetterSpacing, units.FormatPoints(f.CharacterSpacing))
	sp.SetAttr(scene.AttrWordSpacing, units.FormatPoints(f.WordSpacing))
	sp.SetOptional(scene.AttrLang, f.Language.ptr())
	sp.SetOptional(scene.AttrAlternateText, f.AlternateText.ptr())
	sp.SetOptional(scene.AttrActualText, f.ActualText.ptr())
	sp.SetOptional(scene.AttrExpansion, f.Expansion.ptr())

	c.run.SetAttr(scene.AttrFontSize, units.FormatPoints(f.FontSize))
	c.run.SetAttr(scene.AttrLineHeight, units.FormatPoints(f.FontSize+f.Leading))
	return true
}

func (c *Coordinator) loadRun() {
	v, _ := c.run.Attr(scene.AttrFontSize)
	size, _ := units.ToPoints(v)
	v, _ = c.run.Attr(scene.AttrLineHeight)
	lineHeight, ok := units.ToPoints(v)
	if !ok {
		lineHeight = size
	}
	c.Form.FontSize = size
	c.Form.Leading = lineHeight - size
}

func (c *Coordinator) loadChunk(sp *scene.Span) {
	c.Form.Text = sp.Text
	c.Form.Bold, c.Form.Italic = sp.Variant().Flags()
	c.Form.CharacterSpacing = spacing(sp, scene.AttrLetterSpacing)
	c.Form.WordSpacing = spacing(sp, scene.AttrWordSpacing)
	c.Form.Language = optionalOf(sp.Optional(scene.AttrLang))
	c.Form.AlternateText = optionalOf(sp.Optional(scene.AttrAlternateText))
	c.Form.ActualText = optionalOf(sp.Optional(scene.AttrActualText))
	c.Form.Expansion = optionalOf(sp.Optional(scene.AttrExpansion))
}

func spacing(sp *scene.Span, name string) float64 {
	v, _ := sp.Attr(name)
	pt, _ := units.ToPoints(v)
	return pt
}
