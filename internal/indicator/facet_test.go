package indicator

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"quantify/internal/metrics"
)

func TestFacet_EntriesMatchRegistry(t *testing.T) {
	f := NewFacet(series(t, 1, 2, 3))
	kinds := Kinds()
	names := f.Names()
	if len(names) != len(kinds) {
		t.Fatalf("facet has %d entries, registry has %d kinds", len(names), len(kinds))
	}
	for i, k := range kinds {
		if names[i] != k.Name {
			t.Errorf("entry %d: %s, want %s", i, names[i], k.Name)
		}
		if _, ok := f.Entry(k.Name); !ok {
			t.Errorf("missing entry for %s", k.Name)
		}
	}
	for _, want := range []string{"SimpleMovingAverage", "ExponentialMovingAverage", "SmoothedMovingAverage"} {
		if _, ok := f.Entry(want); !ok {
			t.Errorf("missing built-in entry %s", want)
		}
	}
}

func TestFacet_DefaultCallRegisters(t *testing.T) {
	ps := series(t, 1, 2, 3, 4, 5)
	f := NewFacet(ps)

	data, err := f.SimpleMovingAverage(Params{Window: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertSeries(t, "facet SMA(3)", data, []float64{nan, nan, 2, 3, 4}, 1e-9)

	ind, ok := ps.Indicator("SMA-3")
	if !ok {
		t.Fatal("expected SMA-3 to be registered on the series")
	}
	assertSeries(t, "registered Data()", ind.Data(), data, 0)
}

func TestFacet_NoRegister(t *testing.T) {
	ps := series(t, 1, 2, 3, 4, 5)
	f := NewFacet(ps)

	data, err := f.ExponentialMovingAverage(Params{Window: 3}, NoRegister())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) != 5 {
		t.Errorf("len=%d, want 5", len(data))
	}
	if names := ps.IndicatorNames(); len(names) != 0 {
		t.Errorf("expected no registrations, got %v", names)
	}

	if _, err := f.ExponentialMovingAverage(Params{Window: 3}, WithRegister(false)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if names := ps.IndicatorNames(); len(names) != 0 {
		t.Errorf("expected no registrations, got %v", names)
	}
}

func TestFacet_RecomputeOverwrites(t *testing.T) {
	ps := series(t, 1, 2, 3, 4, 5)
	f := NewFacet(ps)

	if _, err := f.SimpleMovingAverage(Params{Window: 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.SimpleMovingAverage(Params{Window: 3, Fill: FillValue(0)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ind, _ := ps.Indicator("SMA-3")
	if math.IsNaN(ind.Data()[0]) || ind.Data()[0] != 1 {
		t.Errorf("expected the filled computation to win, got %v", ind.Data())
	}
	if len(ps.IndicatorNames()) != 1 {
		t.Errorf("names=%v", ps.IndicatorNames())
	}
}

func TestFacet_CallErrors(t *testing.T) {
	f := NewFacet(series(t, 1, 2, 3))

	if _, err := f.Call("BollingerBands", Params{Window: 3}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := f.Call("SimpleMovingAverage", Params{Window: 0}); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestFacet_BindsAtConstruction(t *testing.T) {
	before := NewFacet(series(t, 1, 2, 3))

	Register(Kind{
		Name:  "FacetTestKind",
		Short: "FTK",
		New: func(p Params) (Indicator, error) {
			b, err := NewBase("FTK", p)
			if err != nil {
				return nil, err
			}
			return &bareKind{Base: b}, nil
		},
	})

	if _, ok := before.Entry("FacetTestKind"); ok {
		t.Error("facet built before registration should not see the new kind")
	}

	ps := series(t, 1, 2, 3)
	after := NewFacet(ps)
	if _, ok := after.Entry("FacetTestKind"); !ok {
		t.Fatal("facet built after registration should see the new kind")
	}

	// base-only kinds register, then fail to compute
	_, err := after.Call("FacetTestKind", Params{Window: 2})
	if !errors.Is(err, ErrUnimplemented) {
		t.Errorf("expected ErrUnimplemented, got %v", err)
	}
	if _, ok := ps.Indicator("FTK-2"); !ok {
		t.Error("expected FTK-2 to be registered before Process ran")
	}
}

func TestFacet_Metrics(t *testing.T) {
	m := metrics.NewMetrics()
	f := NewFacet(series(t, 1, 2, 3, 4), WithMetrics(m), WithLogger(nil))

	for _, w := range []int{2, 3} {
		if _, err := f.SimpleMovingAverage(Params{Window: w}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	_, _ = f.SimpleMovingAverage(Params{Window: -1})

	if got := testutil.ToFloat64(m.IndicatorsTotal.WithLabelValues("SimpleMovingAverage")); got != 2 {
		t.Errorf("indicators_total=%v, want 2", got)
	}
	if got := testutil.ToFloat64(m.IndicatorErrors.WithLabelValues("SimpleMovingAverage")); got != 1 {
		t.Errorf("indicator_errors_total=%v, want 1", got)
	}
}
