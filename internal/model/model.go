// Package model defines the persisted annotation types of a page.
//
// The JSON encoding of these types is the wire format shared with the
// tagging pipeline: nullable strings are always emitted, as null when
// absent, and sequences are never omitted.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FontVariant is the typeface style of a TextChunk.
type FontVariant string

// Font variants.
const (
	Regular    FontVariant = "Regular"
	Italic     FontVariant = "Italic"
	Bold       FontVariant = "Bold"
	BoldItalic FontVariant = "BoldItalic"
)

// FontVariants lists every variant in declaration order.
var FontVariants = []FontVariant{Regular, Italic, Bold, BoldItalic}

// FontVariantFromFlags maps independent bold and italic flags to a variant.
func FontVariantFromFlags(bold, italic bool) FontVariant {
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	default:
		return Regular
	}
}

// Flags is the inverse of FontVariantFromFlags. Unknown variants report
// both flags unset.
func (v FontVariant) Flags() (bold, italic bool) {
	switch v {
	case Bold:
		return true, false
	case Italic:
		return false, true
	case BoldItalic:
		return true, true
	}
	return false, false
}

// Valid reports whether v is one of the four known variants.
func (v FontVariant) Valid() bool {
	switch v {
	case Regular, Italic, Bold, BoldItalic:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown variant names.
func (v *FontVariant) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	fv := FontVariant(s)
	if !fv.Valid() {
		return fmt.Errorf("model: unknown font variant %q", s)
	}
	*v = fv
	return nil
}

// ArtifactKind is the structural role of an Artifact.
type ArtifactKind string

// Artifact kinds.
const (
	// Pagination covers running heads, folios and Bates numbering.
	Pagination ArtifactKind = "Pagination"
	// Page covers cut marks and colour bars.
	Page ArtifactKind = "Page"
	// Layout covers footnote rules and decorative ornaments.
	Layout ArtifactKind = "Layout"
	// Background covers elements repeated on every page.
	Background ArtifactKind = "Background"
)

// ArtifactKinds lists every kind in declaration order.
var ArtifactKinds = []ArtifactKind{Pagination, Page, Layout, Background}

// Valid reports whether k is one of the four known kinds.
func (k ArtifactKind) Valid() bool {
	switch k {
	case Pagination, Page, Layout, Background:
		return true
	}
	return false
}

// UnmarshalJSON rejects unknown artifact kinds.
func (k *ArtifactKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ak := ArtifactKind(s)
	if !ak.Valid() {
		return fmt.Errorf("model: unknown artifact kind %q", s)
	}
	*k = ak
	return nil
}

// TextChunk is one styled run of text within an annotation.
type TextChunk struct {
	Text             string      `json:"text"`
	FontVariant      FontVariant `json:"font_variant"`
	CharacterSpacing float64     `json:"character_spacing"`
	WordSpacing      float64     `json:"word_spacing"`
	Language         *string     `json:"language"`
	AlternateText    *string     `json:"alternate_text"`
	ActualText       *string     `json:"actual_text"`
	Expansion        *string     `json:"expansion"`
}

// Annotation is a positioned, possibly multi-run text label. Left and
// Bottom are measured in points from the bottom-left corner of the page.
// Values produced by the serializer are always whole points.
type Annotation struct {
	Left     float64     `json:"left"`
	Bottom   float64     `json:"bottom"`
	FontSize float64     `json:"font_size"`
	Leading  float64     `json:"leading"`
	Elements []TextChunk `json:"elements"`
}

// Artifact is an annotation tagged with a structural role.
type Artifact struct {
	Kind       ArtifactKind `json:"kind"`
	Annotation Annotation   `json:"annotation"`
}

// PageAnnotations is the full persisted payload of one page.
type PageAnnotations struct {
	Annotations []Annotation `json:"annotations"`
	Artifacts   []Artifact   `json:"artifacts"`
}

// Empty returns a payload that encodes as two empty arrays.
func Empty() PageAnnotations {
	return PageAnnotations{
		Annotations: []Annotation{},
		Artifacts:   []Artifact{},
	}
}

// Normalize replaces nil sequences with empty ones so the encoding never
// contains null arrays.
func (p *PageAnnotations) Normalize() {
	if p.Annotations == nil {
		p.Annotations = []Annotation{}
	}
	if p.Artifacts == nil {
		p.Artifacts = []Artifact{}
	}
	for i := range p.Annotations {
		p.Annotations[i].normalize()
	}
	for i := range p.Artifacts {
		p.Artifacts[i].Annotation.normalize()
	}
}

func (a *Annotation) normalize() {
	if a.Elements == nil {
		a.Elements = []TextChunk{}
	}
}

// Decode parses a JSON payload. A missing or null payload yields Empty.
func Decode(data []byte) (PageAnnotations, error) {
	p := Empty()
	if len(data) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return PageAnnotations{}, fmt.Errorf("model: decode annotations: %w", err)
	}
	p.Normalize()
	return p, nil
}

// Encode renders p in the persisted JSON shape. Text is written as is,
// without HTML escaping.
func Encode(p PageAnnotations) ([]byte, error) {
	p.Normalize()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("model: encode annotations: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Str returns a pointer to s, for filling optional fields.
func Str(s string) *string {
	return &s
}
