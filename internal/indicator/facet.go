package indicator

import (
	"fmt"
	"log/slog"
	"time"

	"quantify/internal/metrics"
	"quantify/internal/model"
)

// Constructor builds one indicator on the facet's series, optionally
// registers it there, computes it and returns the derived sequence.
type Constructor func(p Params, opts ...CallOption) ([]float64, error)

// CallOption adjusts a single Constructor call.
type CallOption func(*callConfig)

type callConfig struct {
	register bool
}

// NoRegister computes the indicator without attaching it to the series.
func NoRegister() CallOption {
	return WithRegister(false)
}

// WithRegister sets whether the indicator is attached (default true).
func WithRegister(register bool) CallOption {
	return func(c *callConfig) { c.register = register }
}

// FacetOption configures a Facet.
type FacetOption func(*Facet)

// WithMetrics records compute latency and counts per kind.
func WithMetrics(m *metrics.Metrics) FacetOption {
	return func(f *Facet) { f.metrics = m }
}

// WithLogger replaces slog.Default().
func WithLogger(l *slog.Logger) FacetOption {
	return func(f *Facet) { f.log = l }
}

// Facet is the per-series view of the registry: one Constructor per kind,
// bound to a single PriceSeries when the facet is created. Kinds registered
// later are not visible.
type Facet struct {
	series  *model.PriceSeries
	entries map[string]Constructor
	names   []string

	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewFacet binds every registered kind to s.
func NewFacet(s *model.PriceSeries, opts ...FacetOption) *Facet {
	f := &Facet{
		series:  s,
		entries: make(map[string]Constructor),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = slog.Default()
	}

	for _, k := range Kinds() {
		if _, exists := f.entries[k.Name]; !exists {
			f.names = append(f.names, k.Name)
		}
		f.entries[k.Name] = f.bind(k)
	}

	f.log.Debug("[facet] bound indicator kinds", "symbol", s.Symbol, "kinds", f.names)
	return f
}

func (f *Facet) bind(k Kind) Constructor {
	return func(p Params, opts ...CallOption) ([]float64, error) {
		cfg := callConfig{register: true}
		for _, opt := range opts {
			opt(&cfg)
		}

		ind, err := k.New(p)
		if err != nil {
			f.metrics.IndicatorFailed(k.Name)
			return nil, fmt.Errorf("%s: %w", k.Name, err)
		}
		if cfg.register {
			AddTo(f.series, ind)
		}

		start := time.Now()
		data, err := ind.Process(f.series)
		if err != nil {
			f.metrics.IndicatorFailed(k.Name)
			return nil, fmt.Errorf("%s: %w", ind.Name(), err)
		}
		f.metrics.ObserveIndicator(k.Name, time.Since(start))

		f.log.Debug("[facet] computed indicator",
			"name", ind.Name(),
			"window", ind.Window(),
			"fillna", ind.FillNA().String(),
			"registered", cfg.register,
		)
		return data, nil
	}
}

// Series returns the bound series.
func (f *Facet) Series() *model.PriceSeries { return f.series }

// Entry returns the constructor bound under a kind name.
func (f *Facet) Entry(name string) (Constructor, bool) {
	c, ok := f.entries[name]
	return c, ok
}

// Names returns the bound kind names in registration order.
func (f *Facet) Names() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Call invokes the constructor bound under name.
func (f *Facet) Call(name string, p Params, opts ...CallOption) ([]float64, error) {
	c, ok := f.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return c(p, opts...)
}

func (f *Facet) SimpleMovingAverage(p Params, opts ...CallOption) ([]float64, error) {
	return f.Call("SimpleMovingAverage", p, opts...)
}

func (f *Facet) ExponentialMovingAverage(p Params, opts ...CallOption) ([]float64, error) {
	return f.Call("ExponentialMovingAverage", p, opts...)
}

func (f *Facet) SmoothedMovingAverage(p Params, opts ...CallOption) ([]float64, error) {
	return f.Call("SmoothedMovingAverage", p, opts...)
}
