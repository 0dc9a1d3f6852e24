package units

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"
)

func TestToPoints(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"12pt", 12, true},
		{"-3.5pt", -3.5, true},
		{" 0pt ", 0, true},
		{"1e2pt", 100, true},
		{"12px", 0, false},
		{"12em", 0, false},
		{"12", 0, false},
		{"pt", 0, false},
		{"abcpt", 0, false},
		{"12 pt", 0, false},
		{"NaNpt", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ToPoints(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ToPoints(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestFormatPointsRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1, -7, 12.25, 1.0 / 3, 123456.789, -0.1} {
		got, ok := ToPoints(FormatPoints(v))
		if !ok || got != v {
			t.Errorf("round trip of %v = (%v, %v)", v, got, ok)
		}
		// repeated conversion must not drift
		s := FormatPoints(v)
		for i := 0; i < 5; i++ {
			p, _ := ToPoints(s)
			s = FormatPoints(p)
		}
		if s != FormatPoints(v) {
			t.Errorf("drift for %v: %q", v, s)
		}
	}
}

func TestPixelPointConversion(t *testing.T) {
	if got := PointsToPixels(72); got != 96 {
		t.Errorf("PointsToPixels(72) = %v, want 96", got)
	}
	if got := PixelsToPoints(96); got != 72 {
		t.Errorf("PixelsToPoints(96) = %v, want 72", got)
	}
	for _, pt := range []float64{0, 10, 20, 80, 612, 792} {
		if got := RoundPoints(PixelsToPoints(PointsToPixels(pt))); got != int64(pt) {
			t.Errorf("pt -> px -> pt of %v = %v", pt, got)
		}
	}
}

func TestRoundPoints(t *testing.T) {
	tests := map[float64]int64{0.4: 0, 0.5: 1, -0.5: -1, 12.49: 12, 12.51: 13}
	for in, want := range tests {
		if got := RoundPoints(in); got != want {
			t.Errorf("RoundPoints(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestExtractTranslation(t *testing.T) {
	tests := []struct {
		name   string
		stack  []Op
		want   vec.Vec2
		wantOK bool
	}{
		{"pure", []Op{Translate(10, 20)}, vec.Vec2{X: 10, Y: 20}, true},
		{"single arg", []Op{{Kind: OpTranslate, Args: []float64{5}}}, vec.Vec2{X: 5}, true},
		{"empty", nil, vec.Vec2{}, false},
		{"rotate", []Op{Rotate(45)}, vec.Vec2{}, false},
		{"scale", []Op{Scale(2, 2)}, vec.Vec2{}, false},
		{"translate then rotate", []Op{Translate(1, 2), Rotate(10)}, vec.Vec2{}, false},
		{"two translations", []Op{Translate(1, 2), Translate(3, 4)}, vec.Vec2{}, false},
		{"matrix", []Op{{Kind: OpMatrix, Args: []float64{1, 0, 0, 1, 5, 5}}}, vec.Vec2{}, false},
		{"nan", []Op{Translate(math.NaN(), 0)}, vec.Vec2{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractTranslation(tt.stack)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractTranslation = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractScale(t *testing.T) {
	if s, ok := ExtractScale([]Op{Scale(2, 2)}); !ok || s != 2 {
		t.Errorf("uniform scale = (%v, %v)", s, ok)
	}
	if _, ok := ExtractScale([]Op{Scale(2, 3)}); ok {
		t.Error("non-uniform scale should fail")
	}
	if _, ok := ExtractScale([]Op{Translate(1, 1)}); ok {
		t.Error("translation should fail")
	}
}

func TestCompose(t *testing.T) {
	// translate(10 20) scale(2): the point is scaled first, then moved.
	m := Compose([]Op{Translate(10, 20), Scale(2, 2)})
	got := m.Apply(vec.Vec2{X: 1, Y: 1})
	if d := cmp.Diff(vec.Vec2{X: 12, Y: 22}, got, cmpopts.EquateApprox(0, 1e-9)); d != "" {
		t.Error(d)
	}

	if d := cmp.Diff(matrix.Identity, Compose(nil)); d != "" {
		t.Error(d)
	}

	r := Compose([]Op{Rotate(90)})
	got = r.Apply(vec.Vec2{X: 1, Y: 0})
	if d := cmp.Diff(vec.Vec2{X: 0, Y: 1}, got, cmpopts.EquateApprox(0, 1e-9)); d != "" {
		t.Error(d)
	}

	rc := Compose([]Op{{Kind: OpRotate, Args: []float64{180, 5, 5}}})
	got = rc.Apply(vec.Vec2{X: 5, Y: 5})
	if d := cmp.Diff(vec.Vec2{X: 5, Y: 5}, got, cmpopts.EquateApprox(0, 1e-9)); d != "" {
		t.Errorf("rotation centre moved: %s", d)
	}
}

func TestOpKindNames(t *testing.T) {
	for _, name := range []string{"translate", "scale", "rotate", "skewX", "skewY", "matrix"} {
		k, ok := OpKindByName(name)
		if !ok || k.String() != name {
			t.Errorf("OpKindByName(%q) = (%v, %v)", name, k, ok)
		}
	}
	if _, ok := OpKindByName("perspective"); ok {
		t.Error("unknown op should not resolve")
	}
}
