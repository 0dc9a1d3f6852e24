// Package serialize converts between a live scene and the persisted
// annotation model.
//
// ToModel never fails as a whole. Elements whose geometry or lengths do not
// have the expected shape, or that would break a model invariant, are left
// out and reported as Skip values, so the result always passes Validate.
package serialize

import (
	"fmt"

	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/scene"
	"github.com/starford/pdfmcr/internal/units"
)

// Skip records one scene element that was left out of the model.
type Skip struct {
	// Group is the scene id of the group the element belongs to.
	Group int
	// Run and Span locate the element inside the group; -1 when the whole
	// group (or run) was skipped.
	Run    int
	Span   int
	Reason string
}

func (s Skip) String() string {
	switch {
	case s.Run < 0:
		return fmt.Sprintf("group %d: %s", s.Group, s.Reason)
	case s.Span < 0:
		return fmt.Sprintf("group %d run %d: %s", s.Group, s.Run, s.Reason)
	default:
		return fmt.Sprintf("group %d run %d span %d: %s", s.Group, s.Run, s.Span, s.Reason)
	}
}

func groupSkip(g *scene.Group, reason string) Skip {
	return Skip{Group: g.ID(), Run: -1, Span: -1, Reason: reason}
}

// ToModel walks the top-level groups of s in scene order and rebuilds the
// page's annotations and artifacts. Positions and lengths are rounded to
// whole points.
func ToModel(s *scene.Scene) (model.PageAnnotations, []Skip) {
	out := model.Empty()
	var skips []Skip
	for _, g := range s.Groups() {
		kind, isArtifact, ok := classify(g)
		if !ok {
			skips = append(skips, groupSkip(g, "no annotation or artifact tag"))
			continue
		}
		a, gs, ok := annotation(g, s.PageHeight)
		skips = append(skips, gs...)
		if !ok {
			continue
		}
		if isArtifact {
			out.Artifacts = append(out.Artifacts, model.Artifact{Kind: kind, Annotation: a})
		} else {
			out.Annotations = append(out.Annotations, a)
		}
	}
	return out, skips
}

// classify reports the artifact kind of g, or that it is a plain
// annotation. An artifact must carry exactly one kind tag.
func classify(g *scene.Group) (kind model.ArtifactKind, isArtifact, ok bool) {
	if g.Has(scene.TagArtifact) {
		n := 0
		for _, k := range model.ArtifactKinds {
			if g.Has(scene.ArtifactTag(k)) {
				kind = k
				n++
			}
		}
		return kind, true, n == 1
	}
	return "", false, g.Has(scene.TagAnnotation)
}

func annotation(g *scene.Group, pageHeightPt float64) (model.Annotation, []Skip, bool) {
	pos, ok := units.ExtractTranslation(g.Transform)
	if !ok {
		return model.Annotation{}, []Skip{groupSkip(g, "transform is not a pure translation")}, false
	}
	a := model.Annotation{
		Left:     round(units.PixelsToPoints(pos.X)),
		Bottom:   round(pageHeightPt - units.PixelsToPoints(pos.Y)),
		Elements: []model.TextChunk{},
	}

	var skips []Skip
	usable := false
	for i, run := range g.Runs {
		size, lineHeight, reason := runMetrics(run)
		if reason != "" {
			skips = append(skips, Skip{Group: g.ID(), Run: i, Span: -1, Reason: reason})
			continue
		}
		if !usable {
			a.FontSize = round(size)
			a.Leading = round(lineHeight - size)
			usable = true
		}
		for j, sp := range run.Spans {
			c, reason := chunk(sp)
			if reason != "" {
				skips = append(skips, Skip{Group: g.ID(), Run: i, Span: j, Reason: reason})
				continue
			}
			a.Elements = append(a.Elements, c)
		}
	}
	if !usable {
		skips = append(skips, groupSkip(g, "no usable text run"))
		return model.Annotation{}, skips, false
	}
	return a, skips, true
}

func runMetrics(run *scene.TextRun) (size, lineHeight float64, reason string) {
	v, _ := run.Attr(scene.AttrFontSize)
	size, ok := units.ToPoints(v)
	if !ok {
		return 0, 0, fmt.Sprintf("font-size %q is not a point length", v)
	}
	if !model.ValidFontSize(round(size)) {
		return 0, 0, fmt.Sprintf("font-size %q rounds to %g", v, round(size))
	}
	v, _ = run.Attr(scene.AttrLineHeight)
	lineHeight, ok = units.ToPoints(v)
	if !ok {
		return 0, 0, fmt.Sprintf("line-height %q is not a point length", v)
	}
	return size, lineHeight, ""
}

func chunk(sp *scene.Span) (model.TextChunk, string) {
	c := model.TextChunk{
		Text:        sp.Text,
		FontVariant: sp.Variant(),
	}
	var ok bool
	if c.CharacterSpacing, ok = spacing(sp, scene.AttrLetterSpacing); !ok {
		return c, "letter-spacing is not a point length"
	}
	if c.WordSpacing, ok = spacing(sp, scene.AttrWordSpacing); !ok {
		return c, "word-spacing is not a point length"
	}
	c.Language = optional(sp, scene.AttrLang)
	if c.Language != nil && !model.ValidLanguage(*c.Language) {
		return c, fmt.Sprintf("language %q is not a BCP 47 tag", *c.Language)
	}
	c.AlternateText = optional(sp, scene.AttrAlternateText)
	c.ActualText = optional(sp, scene.AttrActualText)
	c.Expansion = optional(sp, scene.AttrExpansion)
	return c, ""
}

// spacing reads a span length. An absent attribute is zero.
func spacing(sp *scene.Span, name string) (float64, bool) {
	v, present := sp.Attr(name)
	if !present {
		return 0, true
	}
	pt, ok := units.ToPoints(v)
	if !ok {
		return 0, false
	}
	return round(pt), true
}

// optional reads a nullable attribute. Only presence survives a round
// trip, so an empty value reads back as absent.
func optional(sp *scene.Span, name string) *string {
	v := sp.Optional(name)
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func round(v float64) float64 {
	return float64(units.RoundPoints(v))
}

// FromModel instantiates every annotation and then every artifact of page
// through m, in order. It returns the created groups.
func FromModel(page model.PageAnnotations, pageHeightPt float64, m *scene.Manager) []*scene.Group {
	groups := make([]*scene.Group, 0, len(page.Annotations)+len(page.Artifacts))
	for _, a := range page.Annotations {
		groups = append(groups, m.Instantiate(a, pageHeightPt))
	}
	for _, a := range page.Artifacts {
		groups = append(groups, m.InstantiateArtifact(a, pageHeightPt))
	}
	return groups
}
