package serialize

import (
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/scene"
	"github.com/starford/pdfmcr/internal/units"
	"github.com/starford/pdfmcr/internal/viewport"
)

const pageHeight = 100

func newManager() *scene.Manager {
	return scene.NewManager(scene.New(pageHeight, nil), nil, nil)
}

func roundTrip(t *testing.T, in model.PageAnnotations) (model.PageAnnotations, []Skip) {
	t.Helper()
	m := newManager()
	FromModel(in, pageHeight, m)
	return ToModel(m.Scene())
}

func TestEndToEndScenario(t *testing.T) {
	const payload = `{"annotations":[{"left":10,"bottom":20,"font_size":12,"leading":0,"elements":[{"text":"Hi","font_variant":"Regular","character_spacing":0,"word_spacing":0,"language":null,"alternate_text":null,"actual_text":null,"expansion":null}]}],"artifacts":[]}`

	in, err := model.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, skips := roundTrip(t, in)
	if len(skips) != 0 {
		t.Errorf("skips = %v", skips)
	}
	got, err := model.Encode(out)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if string(got) != payload {
		t.Errorf("encoded = %s\nwant      %s", got, payload)
	}
}

func TestRoundTrip(t *testing.T) {
	in := model.PageAnnotations{
		Annotations: []model.Annotation{
			{
				Left: 0, Bottom: 0, FontSize: 9, Leading: -3,
				Elements: []model.TextChunk{
					{Text: "", FontVariant: model.Regular},
					{Text: "ABC", FontVariant: model.BoldItalic, CharacterSpacing: -1, WordSpacing: 4, Language: model.Str("de-CH")},
				},
			},
			{
				Left: 612, Bottom: 100, FontSize: 24, Leading: 6,
				Elements: []model.TextChunk{
					{Text: "§ 12", FontVariant: model.Italic, ActualText: model.Str("Section 12"), Expansion: model.Str("section")},
				},
			},
		},
		Artifacts: []model.Artifact{
			{Kind: model.Pagination, Annotation: model.Annotation{
				Left: 300, Bottom: 36, FontSize: 10,
				Elements: []model.TextChunk{{Text: "7", FontVariant: model.Bold, AlternateText: model.Str("page seven")}},
			}},
			{Kind: model.Background, Annotation: model.Annotation{
				Left: 1, Bottom: 99, FontSize: 8, Leading: 2,
				Elements: []model.TextChunk{},
			}},
		},
	}
	out, skips := roundTrip(t, in)
	if len(skips) != 0 {
		t.Errorf("skips = %v", skips)
	}
	if d := cmp.Diff(in, out); d != "" {
		t.Errorf("round trip (-want +got):\n%s", d)
	}
}

func TestNonIntegerValuesAreRounded(t *testing.T) {
	in := model.PageAnnotations{Annotations: []model.Annotation{{
		Left: 10.4, Bottom: 20.7, FontSize: 12.6, Leading: 0.3,
		Elements: []model.TextChunk{{Text: "x", FontVariant: model.Regular, CharacterSpacing: 1.6, WordSpacing: -0.2}},
	}}}
	out, _ := roundTrip(t, in)
	want := model.PageAnnotations{
		Annotations: []model.Annotation{{
			Left: 10, Bottom: 21, FontSize: 13, Leading: 0,
			Elements: []model.TextChunk{{Text: "x", FontVariant: model.Regular, CharacterSpacing: 2, WordSpacing: 0}},
		}},
		Artifacts: []model.Artifact{},
	}
	if d := cmp.Diff(want, out); d != "" {
		t.Errorf("rounded (-want +got):\n%s", d)
	}
	enc, _ := model.Encode(out)
	if strings.Contains(string(enc), "-0") {
		t.Errorf("negative zero leaked into %s", enc)
	}
}

func TestEmptyOptionalBecomesNull(t *testing.T) {
	in := model.PageAnnotations{Annotations: []model.Annotation{{
		FontSize: 12,
		Elements: []model.TextChunk{{Text: "x", FontVariant: model.Regular, Language: model.Str(""), Expansion: model.Str("e")}},
	}}}
	out, _ := roundTrip(t, in)
	c := out.Annotations[0].Elements[0]
	if c.Language != nil {
		t.Errorf("language = %q, want nil", *c.Language)
	}
	if c.Expansion == nil || *c.Expansion != "e" {
		t.Errorf("expansion = %v, want \"e\"", c.Expansion)
	}
}

func TestSkippedElements(t *testing.T) {
	m := newManager()
	s := m.Scene()
	base := model.Annotation{Left: 5, Bottom: 5, FontSize: 12, Elements: []model.TextChunk{{Text: "ok", FontVariant: model.Regular}}}

	keep := m.Instantiate(base, pageHeight)

	rotated := m.Instantiate(base, pageHeight)
	rotated.Transform = append(rotated.Transform, units.Rotate(30))

	noRuns := m.Instantiate(base, pageHeight)
	noRuns.Runs = nil

	emSize := m.Instantiate(base, pageHeight)
	emSize.FirstRun().SetAttr(scene.AttrFontSize, "1em")

	untagged := s.NewGroup()
	untagged.Transform = keep.Transform

	twoKinds := m.InstantiateArtifact(model.Artifact{Kind: model.Page, Annotation: base}, pageHeight)
	twoKinds.AddTag(scene.ArtifactTag(model.Layout))

	pxSpacing := m.Instantiate(base, pageHeight)
	bad := scene.ChunkSpan(model.TextChunk{Text: "bad", FontVariant: model.Regular})
	bad.SetAttr(scene.AttrWordSpacing, "3px")
	pxSpacing.FirstRun().Append(bad)

	out, skips := ToModel(s)

	if len(out.Annotations) != 2 || len(out.Artifacts) != 0 {
		t.Fatalf("got %d annotations, %d artifacts; want 2, 0", len(out.Annotations), len(out.Artifacts))
	}
	if d := cmp.Diff(base.Elements, out.Annotations[1].Elements); d != "" {
		t.Errorf("span with px spacing was not skipped (-want +got):\n%s", d)
	}

	skipped := map[int]bool{}
	for _, sk := range skips {
		skipped[sk.Group] = true
	}
	for name, g := range map[string]*scene.Group{
		"rotated": rotated, "noRuns": noRuns, "emSize": emSize,
		"untagged": untagged, "twoKinds": twoKinds, "pxSpacing": pxSpacing,
	} {
		if !skipped[g.ID()] {
			t.Errorf("%s group was not reported as skipped", name)
		}
	}
	if skipped[keep.ID()] {
		t.Error("well-formed group reported as skipped")
	}
}

func TestSkipString(t *testing.T) {
	tests := []struct {
		skip Skip
		want string
	}{
		{Skip{Group: 3, Run: -1, Span: -1, Reason: "r"}, "group 3: r"},
		{Skip{Group: 3, Run: 1, Span: -1, Reason: "r"}, "group 3 run 1: r"},
		{Skip{Group: 3, Run: 1, Span: 2, Reason: "r"}, "group 3 run 1 span 2: r"},
	}
	for _, tt := range tests {
		if got := tt.skip.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestDragAtScale2ChangesModelByHalf(t *testing.T) {
	root := scene.New(pageHeight, nil)
	view := viewport.New(root, nil)
	view.Zoom(2)
	m := scene.NewManager(root, view, nil)

	in := model.PageAnnotations{Annotations: []model.Annotation{{
		Left: 10, Bottom: 50, FontSize: 12,
		Elements: []model.TextChunk{{Text: "Hi", FontVariant: model.Regular}},
	}}}
	g := FromModel(in, pageHeight, m)[0]

	// 16 screen pixels at scale 2 are 8 local pixels, or 6 points.
	m.BeginDrag(g, scene.Primary(100, 100))
	root.PointerUp(scene.Primary(116, 116))

	out, _ := ToModel(root)
	a := out.Annotations[0]
	if a.Left != 16 || a.Bottom != 44 {
		t.Errorf("position = (%v, %v), want (16, 44)", a.Left, a.Bottom)
	}
}

func TestInvariantBreakingElementsAreSkipped(t *testing.T) {
	m := newManager()
	base := model.Annotation{Left: 5, Bottom: 5, FontSize: 12, Elements: []model.TextChunk{{Text: "ok", FontVariant: model.Regular}}}

	keep := m.Instantiate(base, pageHeight)

	tiny := m.Instantiate(base, pageHeight)
	tiny.FirstRun().SetAttr(scene.AttrFontSize, "0.4pt")

	badLang := scene.ChunkSpan(model.TextChunk{Text: "lorem", FontVariant: model.Italic})
	badLang.SetOptional(scene.AttrLang, model.Str("Latin script"))
	keep.FirstRun().Append(badLang)

	out, skips := ToModel(m.Scene())

	if err := out.Validate(); err != nil {
		t.Fatalf("serialized page does not validate: %v", err)
	}
	want := model.PageAnnotations{
		Annotations: []model.Annotation{base},
		Artifacts:   []model.Artifact{},
	}
	if d := cmp.Diff(want, out); d != "" {
		t.Errorf("page (-want +got):\n%s", d)
	}

	var reasons []string
	for _, sk := range skips {
		reasons = append(reasons, sk.String())
	}
	joined := strings.Join(reasons, "\n")
	for _, want := range []string{
		`group ` + strconv.Itoa(tiny.ID()) + ` run 0: font-size "0.4pt" rounds to 0`,
		`group ` + strconv.Itoa(keep.ID()) + ` run 0 span 1: language "Latin script" is not a BCP 47 tag`,
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("skips %q missing %q", joined, want)
		}
	}
}
