package model

import "time"

// Indicator is the view of an attached indicator that a PriceSeries stores
// and a chart renderer consumes. indicator.Indicator is the full contract.
type Indicator interface {
	// Name is the key the indicator is registered under (e.g. "SMA-20").
	Name() string

	// Data returns the derived sequence, or nil before processing.
	Data() []float64

	// Plot builds an overlay trace for s. Fails until data is computed.
	Plot(s *PriceSeries) (Trace, error)
}

// Trace is a renderable overlay line: y values at x timestamps.
// X is nil when the owning series has no dates; renderers then plot by index.
type Trace struct {
	Name string
	X    []time.Time
	Y    []float64
}
