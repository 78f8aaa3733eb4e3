package indicator

import (
	"math"

	"quantify/internal/model"
)

func init() {
	Register(Kind{
		Name:  "ExponentialMovingAverage",
		Short: "EMA",
		New: func(p Params) (Indicator, error) {
			ind, err := NewExponentialMovingAverage(p)
			if err != nil {
				return nil, err
			}
			return ind, nil
		},
	})
}

// ExponentialMovingAverage is the adjusted exponentially weighted mean of
// close with span Window, i.e. alpha = 2/(Window+1).
type ExponentialMovingAverage struct {
	Base
	alpha float64
}

// NewExponentialMovingAverage creates an EMA. The default name is "EMA-<window>".
func NewExponentialMovingAverage(p Params) (*ExponentialMovingAverage, error) {
	b, err := NewBase("EMA", p)
	if err != nil {
		return nil, err
	}
	return &ExponentialMovingAverage{
		Base:  b,
		alpha: 2.0 / float64(p.Window+1),
	}, nil
}

func (e *ExponentialMovingAverage) Process(s *model.PriceSeries) ([]float64, error) {
	out := ewmMean(s.Close, e.alpha, e.fill.minPeriods(e.window))
	e.fill.apply(out)
	e.data = out
	return out, nil
}

func (e *ExponentialMovingAverage) Plot(s *model.PriceSeries) (model.Trace, error) {
	return e.line(s)
}

// ewmMean is the adjusted EWM:
//
//	y_t = sum((1-alpha)^i * x_{t-i}) / sum((1-alpha)^i)
//
// computed recursively. A NaN input decays the accumulated weight without
// adding an observation, so the previous mean carries forward. Positions with
// fewer than minPeriods observations (at least 1) are NaN.
func ewmMean(x []float64, alpha float64, minPeriods int) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	if minPeriods < 1 {
		minPeriods = 1
	}

	factor := 1 - alpha
	weighted := x[0]
	nobs := 0
	if !math.IsNaN(weighted) {
		nobs = 1
	}
	oldWt := 1.0
	out[0] = math.NaN()
	if nobs >= minPeriods {
		out[0] = weighted
	}

	for i := 1; i < len(x); i++ {
		cur := x[i]
		isObs := !math.IsNaN(cur)
		if isObs {
			nobs++
		}

		if !math.IsNaN(weighted) {
			oldWt *= factor
			if isObs {
				// skipping the update when equal keeps constant input exact
				if weighted != cur {
					weighted = (oldWt*weighted + cur) / (oldWt + 1)
				}
				oldWt++
			}
		} else if isObs {
			weighted = cur
		}

		if nobs >= minPeriods {
			out[i] = weighted
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}
