// Package pdfexport renders annotated pages as a PDF: each page shows its
// scanned JPEG at print size, with the labels laid over it as marked
// content in the standard Times fonts.
package pdfexport

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
	"seehuhn.de/go/pdf"

	"github.com/starford/pdfmcr/internal/jpeg"
	"github.com/starford/pdfmcr/internal/model"
)

// Page is one page of the exported document.
type Page struct {
	Image       []byte
	Info        jpeg.Info
	Annotations model.PageAnnotations
}

// Document is the input of Write.
type Document struct {
	// Language is the BCP 47 tag stored as the catalog's /Lang. Empty
	// leaves it unset.
	Language string
	Pages    []Page
}

// Resource names used in every page's content stream.
const imageName = "Im0"

var fontNames = map[model.FontVariant]pdf.Name{
	model.Regular:    "F0",
	model.Italic:     "F1",
	model.Bold:       "F2",
	model.BoldItalic: "F3",
}

var baseFonts = map[model.FontVariant]pdf.Name{
	model.Regular:    "Times-Roman",
	model.Italic:     "Times-Italic",
	model.Bold:       "Times-Bold",
	model.BoldItalic: "Times-BoldItalic",
}

var colorSpaces = map[jpeg.ColorSpace]pdf.Name{
	jpeg.Grayscale: "DeviceGray",
	jpeg.RGB:       "DeviceRGB",
	jpeg.CMYK:      "DeviceCMYK",
}

// ErrNoPages is returned for a document without pages.
var ErrNoPages = errors.New("pdfexport: document has no pages")

// Write renders doc to w.
func Write(w io.Writer, doc Document) error {
	if len(doc.Pages) == 0 {
		return ErrNoPages
	}

	out := pdf.NewData(pdf.V1_7)
	meta := out.GetMeta()
	if doc.Language != "" {
		tag, err := language.Parse(doc.Language)
		if err != nil {
			return fmt.Errorf("pdfexport: language %q: %w", doc.Language, err)
		}
		meta.Catalog.Lang = tag
	}

	pagesRef := out.Alloc()

	fonts := pdf.Dict{}
	for _, v := range model.FontVariants {
		ref := out.Alloc()
		if err := out.Put(ref, pdf.Dict{
			"Type":     pdf.Name("Font"),
			"Subtype":  pdf.Name("Type1"),
			"BaseFont": baseFonts[v],
			"Encoding": pdf.Name("WinAnsiEncoding"),
		}); err != nil {
			return err
		}
		fonts[fontNames[v]] = ref
	}

	kids := make(pdf.Array, 0, len(doc.Pages))
	for i, p := range doc.Pages {
		ref, err := writePage(out, pagesRef, fonts, p)
		if err != nil {
			return fmt.Errorf("pdfexport: page %d: %w", i, err)
		}
		kids = append(kids, ref)
	}

	if err := out.Put(pagesRef, pdf.Dict{
		"Type":  pdf.Name("Pages"),
		"Kids":  kids,
		"Count": pdf.Integer(len(kids)),
	}); err != nil {
		return err
	}
	meta.Catalog.Pages = pagesRef

	if err := out.Write(w); err != nil {
		return fmt.Errorf("pdfexport: write: %w", err)
	}
	return nil
}

func writePage(out *pdf.Data, parent pdf.Reference, fonts pdf.Dict, p Page) (pdf.Reference, error) {
	cs, ok := colorSpaces[p.Info.ColorSpace]
	if !ok {
		return 0, fmt.Errorf("unsupported colour space %q", p.Info.ColorSpace)
	}
	width, height := p.Info.SizePoints()
	if width <= 0 || height <= 0 {
		return 0, errors.New("image has no print size")
	}

	imageRef := out.Alloc()
	img, err := out.OpenStream(imageRef, pdf.Dict{
		"Type":             pdf.Name("XObject"),
		"Subtype":          pdf.Name("Image"),
		"Width":            pdf.Integer(p.Info.Width),
		"Height":           pdf.Integer(p.Info.Height),
		"ColorSpace":       cs,
		"BitsPerComponent": pdf.Integer(p.Info.BitDepth),
		"Interpolate":      pdf.Bool(true),
		"Filter":           pdf.Name("DCTDecode"),
	})
	if err != nil {
		return 0, err
	}
	if _, err := img.Write(p.Image); err != nil {
		return 0, err
	}
	if err := img.Close(); err != nil {
		return 0, err
	}

	content, err := Content(width, height, p.Annotations)
	if err != nil {
		return 0, err
	}
	contentRef := out.Alloc()
	stm, err := out.OpenStream(contentRef, nil)
	if err != nil {
		return 0, err
	}
	if _, err := stm.Write(content); err != nil {
		return 0, err
	}
	if err := stm.Close(); err != nil {
		return 0, err
	}

	pageRef := out.Alloc()
	err = out.Put(pageRef, pdf.Dict{
		"Type":     pdf.Name("Page"),
		"Parent":   parent,
		"MediaBox": pdf.Array{pdf.Integer(0), pdf.Integer(0), pdf.Real(width), pdf.Real(height)},
		"Resources": pdf.Dict{
			"Font":    fonts,
			"XObject": pdf.Dict{imageName: imageRef},
		},
		"Contents": contentRef,
	})
	return pageRef, err
}

// Content returns the content stream of one page: the background image
// scaled to the page, then every annotation, then every artifact.
func Content(width, height float64, p model.PageAnnotations) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "q %s 0 0 %s 0 0 cm /%s Do Q\n", num(width), num(height), imageName)
	for _, a := range p.Annotations {
		if err := writeLabel(&buf, a); err != nil {
			return nil, err
		}
	}
	for _, a := range p.Artifacts {
		buf.WriteString("/Artifact ")
		if err := (pdf.Dict{"Type": pdf.Name(a.Kind)}).PDF(&buf); err != nil {
			return nil, err
		}
		buf.WriteString(" BDC\n")
		if err := writeLabel(&buf, a.Annotation); err != nil {
			return nil, err
		}
		buf.WriteString("EMC\n")
	}
	return buf.Bytes(), nil
}

// writeLabel places the chunks of a one line text run with its baseline
// origin at (left, bottom).
func writeLabel(buf *bytes.Buffer, a model.Annotation) error {
	fmt.Fprintf(buf, "BT\n%s TL\n1 0 0 1 %s %s Tm\n", num(a.FontSize+a.Leading), num(a.Left), num(a.Bottom))
	for _, c := range a.Elements {
		name, ok := fontNames[c.FontVariant]
		if !ok {
			return fmt.Errorf("unknown font variant %q", c.FontVariant)
		}
		props := chunkProperties(c)
		if props != nil {
			buf.WriteString("/Span ")
			if err := props.PDF(buf); err != nil {
				return err
			}
			buf.WriteString(" BDC\n")
		}
		fmt.Fprintf(buf, "/%s %s Tf %s Tc %s Tw\n", name, num(a.FontSize), num(c.CharacterSpacing), num(c.WordSpacing))
		if err := pdf.String(winAnsi(c.Text)).PDF(buf); err != nil {
			return err
		}
		buf.WriteString(" Tj\n")
		if props != nil {
			buf.WriteString("EMC\n")
		}
	}
	buf.WriteString("ET\n")
	return nil
}

// chunkProperties returns the marked-content property list carrying the
// chunk's accessibility fields, or nil when it has none.
func chunkProperties(c model.TextChunk) pdf.Dict {
	d := pdf.Dict{}
	set := func(key pdf.Name, v *string) {
		if v != nil {
			d[key] = pdf.TextString(*v)
		}
	}
	set("Lang", c.Language)
	set("Alt", c.AlternateText)
	set("ActualText", c.ActualText)
	set("E", c.Expansion)
	if len(d) == 0 {
		return nil
	}
	return d
}

// winAnsi encodes s for the standard fonts. Characters outside the
// encoding become '?'.
func winAnsi(s string) []byte {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return out
}

func num(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
