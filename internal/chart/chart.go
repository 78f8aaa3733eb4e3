// Package chart composes a PriceSeries and its registered indicators into a
// plotly figure: one candlestick trace, one line per indicator and an optional
// volume bar row sharing the time axis.
package chart

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"quantify/internal/metrics"
	"quantify/internal/model"
)

// Displayer presents a composed figure.
type Displayer interface {
	Display(f *Figure) error
}

// Options controls Render.
type Options struct {
	// Show hands the figure to Displayer (default: an HTML file in the
	// temp dir).
	Show bool

	// Volume adds a volume bar row when the series has volume.
	Volume bool

	// Subplot overrides vertical_spacing and row_width.
	Subplot map[string]any

	Title     string
	Displayer Displayer
	Metrics   *metrics.Metrics
}

// Render builds the figure for s. Indicators are drawn in registration order;
// a registered indicator that cannot plot fails the whole render.
func Render(s *model.PriceSeries, opts Options) (*Figure, error) {
	title := opts.Title
	if title == "" {
		title = s.Symbol
	}

	x := xValues(s.Date, s.Len())
	fig := &Figure{
		Data: []Trace{{
			Type:  StyleCandlestick,
			Name:  s.Symbol,
			X:     x,
			Open:  Values(s.Open),
			High:  Values(s.High),
			Low:   Values(s.Low),
			Close: Values(s.Close),
			XAxis: "x",
			YAxis: "y",
		}},
		Layout: Layout{
			Title:      title,
			ShowLegend: true,
			XAxis: Axis{
				Domain:      [2]float64{0, 1},
				Anchor:      "y",
				RangeSlider: &RangeSlider{Visible: false},
			},
			YAxis: Axis{Domain: [2]float64{0, 1}, Anchor: "x", Title: "Price"},
		},
		symbol: s.Symbol,
	}

	for _, ind := range s.Indicators() {
		tr, err := ind.Plot(s)
		if err != nil {
			return nil, fmt.Errorf("chart: plot %s: %w", ind.Name(), err)
		}
		fig.Data = append(fig.Data, Trace{
			Type:  StyleScatter,
			Mode:  "lines",
			Name:  tr.Name,
			X:     xValues(tr.X, len(tr.Y)),
			Y:     Values(tr.Y),
			XAxis: "x",
			YAxis: "y",
		})
	}

	if opts.Volume && s.HasVolume() {
		cfg := mergeSubplot(opts.Subplot)
		rows, err := subplotDomains(cfg)
		if err != nil {
			return nil, fmt.Errorf("chart: subplot: %w", err)
		}
		fig.Subplot = cfg
		fig.Layout.YAxis.Domain = rows.price
		fig.Layout.YAxis2 = &Axis{Domain: rows.volume, Anchor: "x", Title: "Volume"}
		fig.Layout.XAxis.Anchor = "y2"
		fig.Data = append(fig.Data, Trace{
			Type:  StyleBar,
			Name:  "Volume",
			X:     x,
			Y:     Values(s.Volume),
			XAxis: "x",
			YAxis: "y2",
		})
	}

	opts.Metrics.ChartRendered()
	slog.Debug("[chart] figure composed", "symbol", s.Symbol, "traces", len(fig.Data), "volume", fig.Layout.YAxis2 != nil)

	if opts.Show {
		d := opts.Displayer
		if d == nil {
			d = HTMLFile{Dir: os.TempDir()}
		}
		if err := d.Display(fig); err != nil {
			return nil, fmt.Errorf("chart: display: %w", err)
		}
	}
	return fig, nil
}

// xValues plots by timestamp when available, otherwise by bar index.
func xValues(dates []time.Time, n int) any {
	if dates != nil {
		return dates
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
