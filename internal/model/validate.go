package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"golang.org/x/text/language"
)

var (
	fontVariantIn = validation.In(Regular, Italic, Bold, BoldItalic).
			Error("must be one of Regular, Italic, Bold, BoldItalic")
	artifactKindIn = validation.In(Pagination, Page, Layout, Background).
			Error("must be one of Pagination, Page, Layout, Background")
)

// ValidLanguage reports whether s is a well-formed BCP 47 tag.
func ValidLanguage(s string) bool {
	_, err := language.Parse(s)
	return err == nil
}

// ValidFontSize reports whether v is a usable label font size.
func ValidFontSize(v float64) bool {
	return v > 0
}

// languageTag accepts nil and well-formed BCP 47 tags.
var languageTag = validation.By(func(value interface{}) error {
	s, ok := value.(*string)
	if !ok || s == nil {
		return nil
	}
	if !ValidLanguage(*s) {
		return errors.New("must be a BCP 47 language tag")
	}
	return nil
})

var fontSize = validation.By(func(value interface{}) error {
	v, _ := value.(float64)
	if !ValidFontSize(v) {
		return errors.New("must be greater than 0")
	}
	return nil
})

// Validate checks a chunk's enum and language tag.
func (c TextChunk) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.FontVariant, validation.Required, fontVariantIn),
		validation.Field(&c.Language, languageTag),
	)
}

// Validate checks the label's font size and every chunk.
func (a Annotation) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.FontSize, fontSize),
		validation.Field(&a.Elements),
	)
}

// Validate checks the kind and the embedded annotation.
func (a Artifact) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Kind, validation.Required, artifactKindIn),
		validation.Field(&a.Annotation),
	)
}

// Validate checks every annotation and artifact.
func (p PageAnnotations) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Annotations),
		validation.Field(&p.Artifacts),
	)
}
