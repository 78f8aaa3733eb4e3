package indicator

import "quantify/internal/model"

func init() {
	Register(Kind{
		Name:  "SmoothedMovingAverage",
		Short: "SMMA",
		New: func(p Params) (Indicator, error) {
			ind, err := NewSmoothedMovingAverage(p)
			if err != nil {
				return nil, err
			}
			return ind, nil
		},
	})
}

// SmoothedMovingAverage is Wilder-style smoothing of close: an adjusted
// exponentially weighted mean with alpha = 1/Window.
type SmoothedMovingAverage struct {
	Base
}

// NewSmoothedMovingAverage creates an SMMA. The default name is "SMMA-<window>".
func NewSmoothedMovingAverage(p Params) (*SmoothedMovingAverage, error) {
	b, err := NewBase("SMMA", p)
	if err != nil {
		return nil, err
	}
	return &SmoothedMovingAverage{Base: b}, nil
}

func (s *SmoothedMovingAverage) Process(ps *model.PriceSeries) ([]float64, error) {
	out := ewmMean(ps.Close, 1/float64(s.window), s.fill.minPeriods(s.window))
	s.fill.apply(out)
	s.data = out
	return out, nil
}

func (s *SmoothedMovingAverage) Plot(ps *model.PriceSeries) (model.Trace, error) {
	return s.line(ps)
}
