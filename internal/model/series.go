package model

import (
	"fmt"
	"math"
	"time"
)

// PriceSeries holds a security's OHLC(V) history. The price arrays are copied
// on construction and must be treated as read-only by every consumer; the only
// mutable state is the named indicator map.
type PriceSeries struct {
	Symbol string

	Open  []float64
	Close []float64
	High  []float64
	Low   []float64

	// Date and Volume are nil when not supplied.
	Date   []time.Time
	Volume []float64

	indicators map[string]Indicator
	order      []string // names in first-registration order
}

// SeriesOption configures optional PriceSeries components.
type SeriesOption func(*seriesInput)

type seriesInput struct {
	symbol string
	date   []time.Time
	volume []float64
}

// WithDates attaches timestamps, one per bar.
func WithDates(date []time.Time) SeriesOption {
	return func(in *seriesInput) { in.date = date }
}

// WithVolume attaches per-bar volume.
func WithVolume(volume []float64) SeriesOption {
	return func(in *seriesInput) { in.volume = volume }
}

// WithSymbol labels the series (used in chart titles and logs).
func WithSymbol(symbol string) SeriesOption {
	return func(in *seriesInput) { in.symbol = symbol }
}

// NewPriceSeries builds a series from four equal-length price arrays plus any
// optional dates/volume. All inputs are copied.
func NewPriceSeries(open, close, high, low []float64, opts ...SeriesOption) (*PriceSeries, error) {
	in := &seriesInput{}
	for _, opt := range opts {
		opt(in)
	}

	sizes := []FieldSize{
		{Field: "open", Len: len(open)},
		{Field: "close", Len: len(close)},
		{Field: "high", Len: len(high)},
		{Field: "low", Len: len(low)},
	}
	if in.date != nil {
		sizes = append(sizes, FieldSize{Field: "date", Len: len(in.date)})
	}
	if in.volume != nil {
		sizes = append(sizes, FieldSize{Field: "volume", Len: len(in.volume)})
	}
	for _, s := range sizes[1:] {
		if s.Len != sizes[0].Len {
			return nil, &ShapeMismatchError{Sizes: sizes}
		}
	}

	ps := &PriceSeries{
		Symbol:     in.symbol,
		Open:       copyFloats(open),
		Close:      copyFloats(close),
		High:       copyFloats(high),
		Low:        copyFloats(low),
		indicators: make(map[string]Indicator),
	}
	if in.date != nil {
		ps.Date = make([]time.Time, len(in.date))
		copy(ps.Date, in.date)
	}
	if in.volume != nil {
		ps.Volume = copyFloats(in.volume)
	}
	return ps, nil
}

// Selectors names the table columns backing each series component.
// Values are untyped because they usually come straight out of decoded
// YAML/JSON; every non-nil selector must be a string.
type Selectors struct {
	Open   any `yaml:"open" json:"open"`
	Close  any `yaml:"close" json:"close"`
	High   any `yaml:"high" json:"high"`
	Low    any `yaml:"low" json:"low"`
	Date   any `yaml:"date" json:"date"`
	Volume any `yaml:"volume" json:"volume"`
}

// PriceSeriesFromTable builds a series by copying the selected columns out of t.
func PriceSeriesFromTable(t Table, sel Selectors, opts ...SeriesOption) (*PriceSeries, error) {
	required := []struct {
		field string
		sel   any
	}{
		{"open", sel.Open},
		{"close", sel.Close},
		{"high", sel.High},
		{"low", sel.Low},
	}
	names := make([]string, len(required))
	for i, r := range required {
		name, ok := r.sel.(string)
		if !ok {
			return nil, &SelectorTypeError{Field: r.field, Type: fmt.Sprintf("%T", r.sel)}
		}
		names[i] = name
	}

	var dateCol, volumeCol string
	if sel.Date != nil {
		name, ok := sel.Date.(string)
		if !ok {
			return nil, &SelectorTypeError{Field: "date", Type: fmt.Sprintf("%T", sel.Date)}
		}
		dateCol = name
	}
	if sel.Volume != nil {
		name, ok := sel.Volume.(string)
		if !ok {
			return nil, &SelectorTypeError{Field: "volume", Type: fmt.Sprintf("%T", sel.Volume)}
		}
		volumeCol = name
	}

	cols := make([][]float64, len(names))
	for i, name := range names {
		col, err := t.Float64s(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", required[i].field, err)
		}
		cols[i] = col
	}

	if dateCol != "" {
		dates, err := t.Times(dateCol)
		if err != nil {
			return nil, fmt.Errorf("date: %w", err)
		}
		opts = append(opts, WithDates(dates))
	}
	if volumeCol != "" {
		volume, err := t.Float64s(volumeCol)
		if err != nil {
			return nil, fmt.Errorf("volume: %w", err)
		}
		opts = append(opts, WithVolume(volume))
	}

	return NewPriceSeries(cols[0], cols[1], cols[2], cols[3], opts...)
}

// Len returns the number of bars.
func (ps *PriceSeries) Len() int { return len(ps.Close) }

// HasDates reports whether timestamps were supplied.
func (ps *PriceSeries) HasDates() bool { return ps.Date != nil }

// HasVolume reports whether volume was supplied.
func (ps *PriceSeries) HasVolume() bool { return ps.Volume != nil }

// RegisterIndicator stores ind under name. An existing entry with the same
// name is replaced (last write wins).
func (ps *PriceSeries) RegisterIndicator(name string, ind Indicator) {
	if ps.indicators == nil {
		ps.indicators = make(map[string]Indicator)
	}
	if _, exists := ps.indicators[name]; !exists {
		ps.order = append(ps.order, name)
	}
	ps.indicators[name] = ind
}

// Indicator returns the indicator registered under name.
func (ps *PriceSeries) Indicator(name string) (Indicator, bool) {
	ind, ok := ps.indicators[name]
	return ind, ok
}

// IndicatorNames returns registered names in first-registration order.
func (ps *PriceSeries) IndicatorNames() []string {
	out := make([]string, len(ps.order))
	copy(out, ps.order)
	return out
}

// Indicators returns registered indicators in first-registration order.
func (ps *PriceSeries) Indicators() []Indicator {
	out := make([]Indicator, 0, len(ps.order))
	for _, name := range ps.order {
		out = append(out, ps.indicators[name])
	}
	return out
}

// Bars converts the series back into per-period bars for the stores. It fails
// when the series has no dates. Missing volume becomes NaN.
func (ps *PriceSeries) Bars() ([]Bar, error) {
	if !ps.HasDates() {
		return nil, fmt.Errorf("series %q: bars need dates", ps.Symbol)
	}
	bars := make([]Bar, ps.Len())
	for i := range bars {
		bars[i] = Bar{
			Symbol: ps.Symbol,
			Time:   ps.Date[i].UTC(),
			Open:   ps.Open[i],
			High:   ps.High[i],
			Low:    ps.Low[i],
			Close:  ps.Close[i],
			Volume: math.NaN(),
		}
		if ps.HasVolume() {
			bars[i].Volume = ps.Volume[i]
		}
	}
	return bars, nil
}

func copyFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}
