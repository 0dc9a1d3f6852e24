package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/pdfmcr/internal/units"
)

func TestParseTransform_Single(t *testing.T) {
	ops, err := ParseTransform("translate(10 20)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []units.Op{units.Translate(10, 20)}
	if d := cmp.Diff(want, ops); d != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", d)
	}
}

func TestParseTransform_List(t *testing.T) {
	ops, err := ParseTransform(" translate(1.5,-2) rotate(45 10 10), scale(2) ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []units.Op{
		units.Translate(1.5, -2),
		{Kind: units.OpRotate, Args: []float64{45, 10, 10}},
		{Kind: units.OpScale, Args: []float64{2}},
	}
	if d := cmp.Diff(want, ops); d != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", d)
	}
}

func TestParseTransform_Empty(t *testing.T) {
	ops, err := ParseTransform("   ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("ops = %v, want empty", ops)
	}
}

func TestParseTransform_Errors(t *testing.T) {
	for _, in := range []string{
		"translate(10 20",
		"perspective(3)",
		"translate(a b)",
		"rotate(1 2)",
		"matrix(1 0 0 1)",
		"translate(1 2) garbage",
	} {
		if _, err := ParseTransform(in); err == nil {
			t.Errorf("ParseTransform(%q) should fail", in)
		}
	}
}

func TestFormatTransform_RoundTrip(t *testing.T) {
	in := []units.Op{units.Translate(13.25, -4), units.Rotate(30), units.Scale(2, 0.5)}
	s := FormatTransform(in)
	if s != "translate(13.25 -4) rotate(30) scale(2 0.5)" {
		t.Errorf("FormatTransform = %q", s)
	}
	out, err := ParseTransform(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := cmp.Diff(in, out); d != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", d)
	}
}
