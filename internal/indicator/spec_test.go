package indicator

import (
	"errors"
	"testing"
)

func TestParseSpecs(t *testing.T) {
	specs, err := ParseSpecs("sma:20, EMA:9 ,SmoothedMovingAverage:14")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Spec{
		{Kind: "SimpleMovingAverage", Short: "SMA", Window: 20},
		{Kind: "ExponentialMovingAverage", Short: "EMA", Window: 9},
		{Kind: "SmoothedMovingAverage", Short: "SMMA", Window: 14},
	}
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d", len(specs), len(want))
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Errorf("spec %d: got %+v, want %+v", i, specs[i], want[i])
		}
	}
	if specs[0].Name() != "SMA-20" || specs[1].String() != "EMA:9" {
		t.Errorf("unexpected naming: %s %s", specs[0].Name(), specs[1])
	}

	empty, err := ParseSpecs("  ")
	if err != nil || empty != nil {
		t.Errorf("empty input: got %v, %v", empty, err)
	}
}

func TestParseSpecs_Errors(t *testing.T) {
	cases := []struct {
		in     string
		target error
	}{
		{"SMA", nil},
		{"SMA:abc", nil},
		{"RSI:14", ErrUnknownKind},
		{"SMA:0", ErrInvalidWindow},
		{"EMA:-2", ErrInvalidWindow},
		{"SMA:5,sma:5", nil},
	}
	for _, tc := range cases {
		_, err := ParseSpecs(tc.in)
		if err == nil {
			t.Errorf("ParseSpecs(%q): expected error", tc.in)
			continue
		}
		if tc.target != nil && !errors.Is(err, tc.target) {
			t.Errorf("ParseSpecs(%q): expected %v, got %v", tc.in, tc.target, err)
		}
	}
}

func TestDefaultSpecs_Valid(t *testing.T) {
	if err := ValidateSpecs(DefaultSpecs()); err != nil {
		t.Fatalf("default specs invalid: %v", err)
	}
}

func TestFacet_Apply(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	ps := series(t, closes...)
	f := NewFacet(ps)

	specs, err := ParseSpecs("SMA:5,EMA:3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	results, err := f.Apply(specs, NoFill)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	// mean of 26..30
	assertClose(t, "SMA-5 last", results[0].Last(), 28, 1e-9)
	if results[1].Name != "EMA-3" {
		t.Errorf("name=%s", results[1].Name)
	}
	names := ps.IndicatorNames()
	if len(names) != 2 || names[0] != "SMA-5" || names[1] != "EMA-3" {
		t.Errorf("registered names=%v", names)
	}
}
