package indicator

import (
	"errors"
	"testing"

	"quantify/internal/model"
)

type bareKind struct {
	Base
}

func TestNewBase_InvalidWindow(t *testing.T) {
	for _, w := range []int{0, -3} {
		if _, err := NewSimpleMovingAverage(Params{Window: w}); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("SMA window=%d: expected ErrInvalidWindow, got %v", w, err)
		}
		if _, err := NewExponentialMovingAverage(Params{Window: w}); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("EMA window=%d: expected ErrInvalidWindow, got %v", w, err)
		}
	}
}

func TestNames(t *testing.T) {
	sma, _ := NewSimpleMovingAverage(Params{Window: 20})
	ema, _ := NewExponentialMovingAverage(Params{Window: 20})
	smma, _ := NewSmoothedMovingAverage(Params{Window: 14})
	custom, _ := NewSimpleMovingAverage(Params{Window: 5, Name: "fast"})

	cases := map[string]string{
		sma.Name():    "SMA-20",
		ema.Name():    "EMA-20",
		smma.Name():   "SMMA-14",
		custom.Name(): "fast",
	}
	for got, want := range cases {
		if got != want {
			t.Errorf("name=%q, want %q", got, want)
		}
	}
	if sma.Window() != 20 || sma.FillNA().IsSet() {
		t.Errorf("unexpected params: window=%d fill=%s", sma.Window(), sma.FillNA())
	}
}

func TestPlot_BeforeProcess(t *testing.T) {
	ps := series(t, 1, 2, 3)
	sma, _ := NewSimpleMovingAverage(Params{Window: 2})
	if sma.Data() != nil {
		t.Error("expected nil Data() before Process")
	}
	if _, err := sma.Plot(ps); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestPlot_AfterProcess(t *testing.T) {
	ps := series(t, 1, 2, 3)
	ema, _ := NewExponentialMovingAverage(Params{Window: 2})
	data, _ := ema.Process(ps)

	tr, err := ema.Plot(ps)
	if err != nil {
		t.Fatalf("plot: %v", err)
	}
	if tr.Name != "EMA-2" {
		t.Errorf("trace name=%q", tr.Name)
	}
	if len(tr.X) != 3 || !tr.X[2].Equal(ps.Date[2]) {
		t.Errorf("trace x does not follow series dates: %v", tr.X)
	}
	if len(tr.Y) != len(data) || tr.Y[2] != data[2] {
		t.Errorf("trace y=%v, want %v", tr.Y, data)
	}
}

func TestBase_Unimplemented(t *testing.T) {
	b, err := NewBase("BARE", Params{Window: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	k := &bareKind{Base: b}
	ps := series(t, 1, 2, 3)

	if _, err := k.Process(ps); !errors.Is(err, ErrUnimplemented) {
		t.Errorf("Process: expected ErrUnimplemented, got %v", err)
	}
	if _, err := k.Plot(ps); !errors.Is(err, ErrUnimplemented) {
		t.Errorf("Plot: expected ErrUnimplemented, got %v", err)
	}
	if k.Name() != "BARE-3" {
		t.Errorf("name=%q", k.Name())
	}
}

func TestAddTo_Overwrites(t *testing.T) {
	ps := series(t, 1, 2, 3, 4)
	a, _ := NewSimpleMovingAverage(Params{Window: 2})
	b, _ := NewSimpleMovingAverage(Params{Window: 2, Fill: FillValue(0)})

	AddTo(ps, a)
	AddTo(ps, b)

	got, ok := ps.Indicator("SMA-2")
	if !ok {
		t.Fatal("expected SMA-2 registered")
	}
	if got != model.Indicator(b) {
		t.Error("expected the second indicator to replace the first")
	}
	if len(ps.IndicatorNames()) != 1 {
		t.Errorf("names=%v, want one entry", ps.IndicatorNames())
	}
}

func TestParseFillNA(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		isSet bool
	}{
		{"", "none", false},
		{"none", "none", false},
		{"backfill", "backfill", true},
		{"bfill", "bfill", true},
		{"pad", "pad", true},
		{"ffill", "ffill", true},
		{"FFILL", "ffill", true},
		{"0", "0", true},
		{"-1.5", "-1.5", true},
	}
	for _, tc := range cases {
		f, err := ParseFillNA(tc.in)
		if err != nil {
			t.Errorf("ParseFillNA(%q): %v", tc.in, err)
			continue
		}
		if f.String() != tc.want || f.IsSet() != tc.isSet {
			t.Errorf("ParseFillNA(%q)=%s set=%v, want %s set=%v", tc.in, f, f.IsSet(), tc.want, tc.isSet)
		}
		// String() output parses back to an equivalent policy
		again, err := ParseFillNA(f.String())
		if err != nil || again != f {
			t.Errorf("round trip %q: got %v err=%v", f.String(), again, err)
		}
	}

	if _, err := ParseFillNA("sideways"); !errors.Is(err, ErrInvalidFill) {
		t.Errorf("expected ErrInvalidFill, got %v", err)
	}
	if v, ok := FillValue(0).Value(); !ok || v != 0 {
		t.Errorf("FillValue(0).Value()=%v,%v", v, ok)
	}
}
