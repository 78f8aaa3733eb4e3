package indicator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"quantify/internal/model"
)

func init() {
	Register(Kind{
		Name:  "SimpleMovingAverage",
		Short: "SMA",
		New: func(p Params) (Indicator, error) {
			ind, err := NewSimpleMovingAverage(p)
			if err != nil {
				return nil, err
			}
			return ind, nil
		},
	})
}

// SimpleMovingAverage is the trailing arithmetic mean of close over Window bars.
type SimpleMovingAverage struct {
	Base
}

// NewSimpleMovingAverage creates an SMA. The default name is "SMA-<window>".
func NewSimpleMovingAverage(p Params) (*SimpleMovingAverage, error) {
	b, err := NewBase("SMA", p)
	if err != nil {
		return nil, err
	}
	return &SimpleMovingAverage{Base: b}, nil
}

func (m *SimpleMovingAverage) Process(s *model.PriceSeries) ([]float64, error) {
	out := rollingMean(s.Close, m.window, m.fill.minPeriods(m.window))
	m.fill.apply(out)
	m.data = out
	return out, nil
}

func (m *SimpleMovingAverage) Plot(s *model.PriceSeries) (model.Trace, error) {
	return m.line(s)
}

// rollingMean averages the non-NaN samples of each trailing window. Positions
// with fewer than minPeriods observations are NaN.
func rollingMean(x []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(x))
	buf := make([]float64, 0, window)
	for i := range x {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		buf = buf[:0]
		for _, v := range x[start : i+1] {
			if !math.IsNaN(v) {
				buf = append(buf, v)
			}
		}
		if len(buf) < minPeriods || len(buf) == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(buf, nil)
	}
	return out
}
