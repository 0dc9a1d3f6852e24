package pdfexport

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/starford/pdfmcr/internal/jpeg"
	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/testutil"
)

func onePage(t *testing.T) Page {
	t.Helper()
	data := testutil.JPEG(t, 144, 288, testutil.UnitDPI, 72, 72)
	info, err := jpeg.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return Page{
		Image: data,
		Info:  info,
		Annotations: model.PageAnnotations{
			Annotations: []model.Annotation{{
				Left: 10, Bottom: 20, FontSize: 12, Leading: 2,
				Elements: []model.TextChunk{
					{Text: "Hi", FontVariant: model.Bold, CharacterSpacing: 1},
					{Text: "Mr", FontVariant: model.Italic, Expansion: model.Str("Mister")},
				},
			}},
			Artifacts: []model.Artifact{{
				Kind: model.Pagination,
				Annotation: model.Annotation{
					Left: 72, Bottom: 18, FontSize: 9,
					Elements: []model.TextChunk{{Text: "7", FontVariant: model.Regular}},
				},
			}},
		},
	}
}

func TestContentPlacesLabels(t *testing.T) {
	p := onePage(t)
	content, err := Content(144, 288, p.Annotations)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	s := string(content)
	for _, want := range []string{
		"q 144 0 0 288 0 0 cm /Im0 Do Q\n",
		"BT\n14 TL\n1 0 0 1 10 20 Tm\n/F2 12 Tf 1 Tc 0 Tw\n(Hi) Tj\n",
		"/F1 12 Tf 0 Tc 0 Tw\n(Mr) Tj\nEMC\n",
		"1 0 0 1 72 18 Tm\n/F0 9 Tf 0 Tc 0 Tw\n(7) Tj\nET\nEMC\n",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("content missing %q:\n%s", want, s)
		}
	}
	if !strings.Contains(s, "/Span") || !strings.Contains(s, "Mister") {
		t.Errorf("expansion not marked:\n%s", s)
	}
	if !strings.Contains(s, "/Artifact") || !strings.Contains(s, "Pagination") {
		t.Errorf("artifact not marked:\n%s", s)
	}
	// Annotations come before artifacts.
	if strings.Index(s, "(Hi)") > strings.Index(s, "(7)") {
		t.Error("artifact drawn before annotation")
	}
}

func TestWriteDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, Document{Language: "en-GB", Pages: []Page{onePage(t)}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "%PDF-1.7") {
		t.Errorf("header = %q", out[:min(len(out), 12)])
	}
	for _, want := range []string{
		"1 0 0 1 10 20 Tm",
		"Times-Roman", "Times-BoldItalic",
		"DCTDecode", "DeviceGray",
		"en-GB",
		"%%EOF",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("PDF missing %q", want)
		}
	}
}

func TestWriteRejects(t *testing.T) {
	if err := Write(&bytes.Buffer{}, Document{}); !errors.Is(err, ErrNoPages) {
		t.Errorf("empty document = %v, want ErrNoPages", err)
	}
	if err := Write(&bytes.Buffer{}, Document{Language: "not a tag!", Pages: []Page{onePage(t)}}); err == nil {
		t.Error("bad language accepted")
	}
	p := onePage(t)
	p.Info.DensityX = 0
	if err := Write(&bytes.Buffer{}, Document{Pages: []Page{p}}); err == nil {
		t.Error("page without print size accepted")
	}
}

func TestWinAnsiFallback(t *testing.T) {
	if got := string(winAnsi("Straße €5 ✓")); got != "Stra\xdfe \x805 ?" {
		t.Errorf("winAnsi = %q", got)
	}
}
