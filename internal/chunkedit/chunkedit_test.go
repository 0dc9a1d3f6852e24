package chunkedit

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/pdfmcr/internal/model"
	"github.com/starford/pdfmcr/internal/scene"
	"github.com/starford/pdfmcr/internal/serialize"
)

func setup(t *testing.T) (*scene.Manager, *Coordinator, *scene.Group) {
	t.Helper()
	m := scene.NewManager(scene.New(100, nil), nil, nil)
	c := New(nil)
	m.SetObserver(c)
	g := m.Instantiate(model.Annotation{
		Left: 10, Bottom: 10, FontSize: 12, Leading: 2,
		Elements: []model.TextChunk{
			{Text: "one", FontVariant: model.Bold, CharacterSpacing: 1, Language: model.Str("en")},
			{Text: "two", FontVariant: model.Italic, WordSpacing: 2},
		},
	}, 100)
	return m, c, g
}

func TestSelectTextFillsForm(t *testing.T) {
	m, c, g := setup(t)
	if c.State() != NoSelection || c.Form.Visible {
		t.Fatalf("initial state = %v visible=%v", c.State(), c.Form.Visible)
	}
	m.Select(g)

	if c.State() != RunSelected || c.Group() != g {
		t.Fatalf("state = %v", c.State())
	}
	want := Form{
		Visible:          true,
		Text:             "one",
		FontSize:         12,
		Leading:          2,
		Bold:             true,
		CharacterSpacing: 1,
		Language:         Optional{Enabled: true, Value: "en"},
	}
	if d := cmp.Diff(want, c.Form); d != "" {
		t.Errorf("form (-want +got):\n%s", d)
	}
	if d := cmp.Diff([]string{"one", "two"}, c.Choices()); d != "" {
		t.Errorf("choices (-want +got):\n%s", d)
	}

	c.SelectChunk(1)
	if c.Form.Text != "two" || c.Form.Bold || !c.Form.Italic || c.Form.WordSpacing != 2 || c.Form.Language.Enabled {
		t.Errorf("form after SelectChunk(1) = %+v", c.Form)
	}

	c.SelectChunk(5)
	if c.Index() != -1 {
		t.Errorf("index after out-of-range select = %d, want -1", c.Index())
	}
	if c.CommitChunk() {
		t.Error("commit without an active chunk should do nothing")
	}

	m.Deselect()
	if c.State() != NoSelection || c.Form.Visible {
		t.Errorf("after deselect: state=%v visible=%v", c.State(), c.Form.Visible)
	}
}

func TestAddThenRemoveRestoresRun(t *testing.T) {
	m, c, g := setup(t)
	m.Select(g)
	run := g.FirstRun()
	before := slices.Clone(run.Spans)

	c.AddChunk()
	if len(run.Spans) != 3 || c.Index() != 2 {
		t.Fatalf("after add: spans=%d index=%d", len(run.Spans), c.Index())
	}
	added := run.Spans[2]
	if added.Text != PlaceholderText || added.Variant() != model.Bold {
		t.Errorf("added chunk = %q %v, want template of the active chunk", added.Text, added.Variant())
	}
	if v, _ := added.Attr(scene.AttrLang); v != "en" {
		t.Errorf("added chunk lang = %q", v)
	}

	c.RemoveChunk()
	if !slices.Equal(before, run.Spans) {
		t.Error("run differs from its pre-add state")
	}
	if len(c.Choices()) != 2 {
		t.Errorf("choices = %v", c.Choices())
	}

	c.RemoveChunk()
	if len(run.Spans) != 2 {
		t.Error("second remove with no active chunk should be a no-op")
	}
}

func TestAddWithoutActiveChunkUsesDefaults(t *testing.T) {
	m, c, g := setup(t)
	m.Select(g)
	c.SelectChunk(-1)
	c.AddChunk()

	out, _ := serialize.ToModel(m.Scene())
	got := out.Annotations[0].Elements[2]
	want := model.TextChunk{Text: PlaceholderText, FontVariant: model.Regular}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("default chunk (-want +got):\n%s", d)
	}
}

func TestRemoveStaleChunk(t *testing.T) {
	m, c, g := setup(t)
	m.Select(g)
	run := g.FirstRun()
	run.RemoveSpan(run.Spans[0])

	c.RemoveChunk()
	if len(run.Spans) != 1 || len(c.Choices()) != 2 {
		t.Errorf("stale remove changed state: spans=%d choices=%d", len(run.Spans), len(c.Choices()))
	}
}

func TestCommitChunk(t *testing.T) {
	m, c, g := setup(t)
	m.Select(g)
	c.SelectChunk(1)

	c.Form.Text = "TWO"
	c.Form.Bold = true
	c.Form.Italic = true
	c.Form.FontSize = 14
	c.Form.Leading = -4
	c.Form.CharacterSpacing = 3
	c.Form.WordSpacing = 0
	c.Form.AlternateText = Optional{Enabled: true, Value: "second"}
	c.Form.Language = Optional{Enabled: false, Value: "ignored"}
	if !c.CommitChunk() {
		t.Fatal("CommitChunk reported nothing written")
	}

	out, skips := serialize.ToModel(m.Scene())
	if len(skips) != 0 {
		t.Fatalf("skips = %v", skips)
	}
	a := out.Annotations[0]
	if a.FontSize != 14 || a.Leading != -4 {
		t.Errorf("font size, leading = %v, %v; want 14, -4", a.FontSize, a.Leading)
	}
	want := model.TextChunk{
		Text: "TWO", FontVariant: model.BoldItalic, CharacterSpacing: 3,
		AlternateText: model.Str("second"),
	}
	if d := cmp.Diff(want, a.Elements[1]); d != "" {
		t.Errorf("committed chunk (-want +got):\n%s", d)
	}

	c.Form.AlternateText.Enabled = false
	c.CommitChunk()
	if _, ok := g.FirstRun().Spans[1].Attr(scene.AttrAlternateText); ok {
		t.Error("disabled optional field was not cleared")
	}
}

func TestSelectGroupWithoutRun(t *testing.T) {
	m, c, g := setup(t)
	m.Select(g)
	empty := m.Scene().NewGroup(scene.TagAnnotation)
	c.SelectText(empty)
	if c.State() != NoSelection {
		t.Errorf("state = %v, want NoSelection", c.State())
	}
	c.AddChunk()
	c.SelectText(nil)
	if c.State() != NoSelection {
		t.Errorf("state = %v", c.State())
	}
}
