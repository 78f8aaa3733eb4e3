package model

import (
	"fmt"
	"sort"
	"time"
)

// Table is a rows × named-columns source a PriceSeries can be built from.
// Implementations return copies; callers may keep the slices.
type Table interface {
	Len() int
	Float64s(column string) ([]float64, error)
	Times(column string) ([]time.Time, error)
}

// Frame is the in-memory Table produced by the ingestion adapters.
type Frame struct {
	rows   int
	floats map[string][]float64
	times  map[string][]time.Time
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{
		floats: make(map[string][]float64),
		times:  make(map[string][]time.Time),
	}
}

// SetFloat64s stores a numeric column. The first column fixes the row count;
// later columns must match it.
func (f *Frame) SetFloat64s(name string, values []float64) error {
	if err := f.checkRows(name, len(values)); err != nil {
		return err
	}
	f.floats[name] = copyFloats(values)
	return nil
}

// SetTimes stores a timestamp column.
func (f *Frame) SetTimes(name string, values []time.Time) error {
	if err := f.checkRows(name, len(values)); err != nil {
		return err
	}
	col := make([]time.Time, len(values))
	copy(col, values)
	f.times[name] = col
	return nil
}

func (f *Frame) checkRows(name string, n int) error {
	if len(f.floats) == 0 && len(f.times) == 0 {
		f.rows = n
		return nil
	}
	if n != f.rows {
		return fmt.Errorf("frame: column %q has %d rows, want %d", name, n, f.rows)
	}
	return nil
}

// Len returns the row count.
func (f *Frame) Len() int { return f.rows }

// Columns returns all column names, sorted.
func (f *Frame) Columns() []string {
	out := make([]string, 0, len(f.floats)+len(f.times))
	for name := range f.floats {
		out = append(out, name)
	}
	for name := range f.times {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Float64s returns a copy of a numeric column.
func (f *Frame) Float64s(column string) ([]float64, error) {
	col, ok := f.floats[column]
	if !ok {
		return nil, fmt.Errorf("frame: no numeric column %q", column)
	}
	return copyFloats(col), nil
}

// Times returns a copy of a timestamp column.
func (f *Frame) Times(column string) ([]time.Time, error) {
	col, ok := f.times[column]
	if !ok {
		return nil, fmt.Errorf("frame: no time column %q", column)
	}
	out := make([]time.Time, len(col))
	copy(out, col)
	return out, nil
}

// FrameFromBars lays bars out as the canonical columns
// time, open, high, low, close, volume.
func FrameFromBars(bars []Bar) *Frame {
	n := len(bars)
	ts := make([]time.Time, n)
	open, high, low, close, volume := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	for i, b := range bars {
		ts[i] = b.Time
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		close[i] = b.Close
		volume[i] = b.Volume
	}
	f := NewFrame()
	// equal lengths by construction
	_ = f.SetTimes(ColTime, ts)
	_ = f.SetFloat64s(ColOpen, open)
	_ = f.SetFloat64s(ColHigh, high)
	_ = f.SetFloat64s(ColLow, low)
	_ = f.SetFloat64s(ColClose, close)
	_ = f.SetFloat64s(ColVolume, volume)
	return f
}

// Canonical column names used by FrameFromBars and the ingestion adapters.
const (
	ColTime   = "time"
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

// DefaultSelectors selects the canonical columns.
func DefaultSelectors() Selectors {
	return Selectors{
		Open:   ColOpen,
		Close:  ColClose,
		High:   ColHigh,
		Low:    ColLow,
		Date:   ColTime,
		Volume: ColVolume,
	}
}
