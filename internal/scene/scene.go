// Package scene holds the live, mutable representation of a page being
// annotated: a root carrying the view transform, and one group per
// annotation or artifact with its text runs.
//
// Coordinates inside the scene are CSS pixels with a top-left origin.
// Lengths on text runs and spans carry explicit unit suffixes, the same way
// an SVG document would store them.
package scene

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/units"
)

// Group tags.
const (
	TagAnnotation = "annotation"
	TagArtifact   = "artifact"
	TagSelected   = "selected"
)

// Attribute names on text runs and spans.
const (
	AttrFontSize      = "font-size"
	AttrLineHeight    = "line-height"
	AttrFontWeight    = "font-weight"
	AttrFontStyle     = "font-style"
	AttrLetterSpacing = "letter-spacing"
	AttrWordSpacing   = "word-spacing"
	AttrLang          = "xml:lang"
	AttrAlternateText = "data-alternate-text"
	AttrActualText    = "data-actual-text"
	AttrExpansion     = "data-expansion"
)

// ArtifactTag returns the tag that marks an artifact of the given kind.
func ArtifactTag(kind model.ArtifactKind) string {
	return TagArtifact + "-" + strings.ToLower(string(kind))
}

// Scene is the root of a page's visual tree.
type Scene struct {
	// PageHeight is the height of the page image in points.
	PageHeight float64

	transform []units.Op
	groups    []*Group
	nextID    int
	session   *session
	log       *slog.Logger
}

// New creates an empty scene for a page of the given height in points.
func New(pageHeightPt float64, logger *slog.Logger) *Scene {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scene{PageHeight: pageHeightPt, log: logger}
}

// Transform returns the view transform applied to the whole page.
func (s *Scene) Transform() []units.Op {
	return slices.Clone(s.transform)
}

// SetTransform replaces the view transform.
func (s *Scene) SetTransform(ops []units.Op) {
	s.transform = slices.Clone(ops)
}

// Groups returns the top-level groups in scene order.
func (s *Scene) Groups() []*Group {
	return slices.Clone(s.groups)
}

// Group looks up a group by id.
func (s *Scene) Group(id int) *Group {
	for _, g := range s.groups {
		if g.id == id {
			return g
		}
	}
	return nil
}

// NewGroup appends an empty group with the given tags.
func (s *Scene) NewGroup(tags ...string) *Group {
	s.nextID++
	g := &Group{id: s.nextID, tags: make(map[string]struct{}, len(tags))}
	for _, t := range tags {
		g.tags[t] = struct{}{}
	}
	s.groups = append(s.groups, g)
	return g
}

// Remove detaches g from the scene. It reports whether g was present.
func (s *Scene) Remove(g *Group) bool {
	i := slices.Index(s.groups, g)
	if i < 0 {
		return false
	}
	s.groups = slices.Delete(s.groups, i, i+1)
	return true
}

// Clear removes every group.
func (s *Scene) Clear() {
	s.groups = nil
}

// Group is one annotation or artifact on the page.
type Group struct {
	id        int
	tags      map[string]struct{}
	Transform []units.Op
	Runs      []*TextRun
}

// ID returns the scene-unique id of g.
func (g *Group) ID() int { return g.id }

// Has reports whether g carries tag.
func (g *Group) Has(tag string) bool {
	_, ok := g.tags[tag]
	return ok
}

// AddTag adds tag to g.
func (g *Group) AddTag(tag string) { g.tags[tag] = struct{}{} }

// RemoveTag removes tag from g.
func (g *Group) RemoveTag(tag string) { delete(g.tags, tag) }

// Tags returns the sorted tag set.
func (g *Group) Tags() []string {
	out := make([]string, 0, len(g.tags))
	for t := range g.tags {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// FirstRun returns the first text run, or nil.
func (g *Group) FirstRun() *TextRun {
	if len(g.Runs) == 0 {
		return nil
	}
	return g.Runs[0]
}

// TextRun is one text element: a line of spans sharing a font size and
// line height.
type TextRun struct {
	attrs map[string]string
	Spans []*Span
}

// NewTextRun returns a run with no attributes.
func NewTextRun() *TextRun {
	return &TextRun{attrs: make(map[string]string)}
}

// Attr returns the attribute value and whether it is present.
func (r *TextRun) Attr(name string) (string, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// SetAttr sets an attribute.
func (r *TextRun) SetAttr(name, value string) {
	if r.attrs == nil {
		r.attrs = make(map[string]string)
	}
	r.attrs[name] = value
}

// Append adds a span at the end of the run.
func (r *TextRun) Append(sp *Span) {
	r.Spans = append(r.Spans, sp)
}

// RemoveSpan deletes sp from the run and reports whether it was present.
func (r *TextRun) RemoveSpan(sp *Span) bool {
	i := slices.Index(r.Spans, sp)
	if i < 0 {
		return false
	}
	r.Spans = slices.Delete(r.Spans, i, i+1)
	return true
}

// Span is one styled chunk of text. It holds exactly one text node.
type Span struct {
	Text  string
	attrs map[string]string
}

// NewSpan returns a span with the given text and no attributes.
func NewSpan(text string) *Span {
	return &Span{Text: text, attrs: make(map[string]string)}
}

// Attr returns the attribute value and whether it is present.
func (sp *Span) Attr(name string) (string, bool) {
	v, ok := sp.attrs[name]
	return v, ok
}

// SetAttr sets an attribute.
func (sp *Span) SetAttr(name, value string) {
	if sp.attrs == nil {
		sp.attrs = make(map[string]string)
	}
	sp.attrs[name] = value
}

// RemoveAttr deletes an attribute.
func (sp *Span) RemoveAttr(name string) {
	delete(sp.attrs, name)
}

// SetOptional sets the attribute when v is non-nil and removes it
// otherwise.
func (sp *Span) SetOptional(name string, v *string) {
	if v == nil {
		sp.RemoveAttr(name)
		return
	}
	sp.SetAttr(name, *v)
}

// Optional returns the attribute as a nullable string.
func (sp *Span) Optional(name string) *string {
	v, ok := sp.attrs[name]
	if !ok {
		return nil
	}
	return &v
}

// Clone returns a deep copy of sp with the given text.
func (sp *Span) Clone(text string) *Span {
	c := NewSpan(text)
	for k, v := range sp.attrs {
		c.attrs[k] = v
	}
	return c
}

// Variant reads the font variant from the weight and style attributes.
func (sp *Span) Variant() model.FontVariant {
	w, _ := sp.Attr(AttrFontWeight)
	st, _ := sp.Attr(AttrFontStyle)
	return model.FontVariantFromFlags(w == "bold", st == "italic")
}

// SetVariant writes the weight and style attributes for v.
func (sp *Span) SetVariant(v model.FontVariant) {
	bold, italic := v.Flags()
	sp.SetAttr(AttrFontWeight, "normal")
	if bold {
		sp.SetAttr(AttrFontWeight, "bold")
	}
	sp.SetAttr(AttrFontStyle, "normal")
	if italic {
		sp.SetAttr(AttrFontStyle, "italic")
	}
}
