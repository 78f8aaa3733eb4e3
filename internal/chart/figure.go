package chart

import (
	"encoding/json"
	"math"
	"strconv"
)

// Trace styles
const (
	StyleCandlestick = "candlestick"
	StyleScatter     = "scatter"
	StyleBar         = "bar"
)

// Values marshals as a JSON array with NaN and ±Inf encoded as null.
type Values []float64

func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, len(v)*8+2)
	buf = append(buf, '[')
	for i, f := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, f, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

// Trace is one plotly data series. X holds []time.Time or []int.
type Trace struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Mode  string `json:"mode,omitempty"`
	X     any    `json:"x"`
	Y     Values `json:"y,omitempty"`
	Open  Values `json:"open,omitempty"`
	High  Values `json:"high,omitempty"`
	Low   Values `json:"low,omitempty"`
	Close Values `json:"close,omitempty"`
	XAxis string `json:"xaxis,omitempty"`
	YAxis string `json:"yaxis,omitempty"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}

type Axis struct {
	Domain      [2]float64   `json:"domain"`
	Anchor      string       `json:"anchor,omitempty"`
	Title       string       `json:"title,omitempty"`
	RangeSlider *RangeSlider `json:"rangeslider,omitempty"`
}

type Layout struct {
	Title      string `json:"title,omitempty"`
	ShowLegend bool   `json:"showlegend"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
	YAxis2     *Axis  `json:"yaxis2,omitempty"`
}

// Figure is a composed chart: price candlesticks, indicator overlays and an
// optional volume subplot sharing the x axis.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`

	// Subplot is the effective subplot configuration (defaults merged with
	// overrides). Empty when no volume row is drawn.
	Subplot map[string]any `json:"-"`

	symbol string
}

// JSON returns the plotly figure JSON.
func (f *Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}

// Traces returns the traces with the given type.
func (f *Figure) Traces(style string) []Trace {
	var out []Trace
	for _, t := range f.Data {
		if t.Type == style {
			out = append(out, t)
		}
	}
	return out
}
