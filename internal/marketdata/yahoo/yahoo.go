// Package yahoo fetches daily/intraday bar history from the Yahoo Finance
// chart endpoint.
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/go-resty/resty/v2"

	"quantify/internal/model"
)

const (
	DefaultBaseURL  = "https://query1.finance.yahoo.com"
	DefaultRange    = "1y"
	DefaultInterval = "1d"

	// ColAdjClose is the extra column FetchFrame adds when the response
	// carries adjusted closes.
	ColAdjClose = "adjclose"
)

// Config configures the client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// Client wraps a resty client bound to the chart API.
type Client struct {
	http *resty.Client
}

// New creates a client. Zero fields take defaults.
func New(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	http := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("User-Agent", "quantify/1.0").
		SetHeader("Accept", "application/json")

	return &Client{http: http}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Currency string `json:"currency"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// Query selects the history window. Empty fields take DefaultRange and
// DefaultInterval.
type Query struct {
	Symbol   string
	Range    string
	Interval string
}

// FetchBars downloads bars for q.Symbol. Missing values become NaN.
func (c *Client) FetchBars(ctx context.Context, q Query) ([]model.Bar, error) {
	res, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	return res.bars(q.Symbol)
}

// FetchFrame downloads bars into a frame with the canonical columns plus
// ColAdjClose when available.
func (c *Client) FetchFrame(ctx context.Context, q Query) (*model.Frame, error) {
	res, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	bars, err := res.bars(q.Symbol)
	if err != nil {
		return nil, err
	}
	frame := model.FrameFromBars(bars)
	if adj := res.Indicators.AdjClose; len(adj) > 0 && len(adj[0].AdjClose) == len(bars) {
		if err := frame.SetFloat64s(ColAdjClose, floats(adj[0].AdjClose)); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

func (c *Client) fetch(ctx context.Context, q Query) (*chartResult, error) {
	if q.Symbol == "" {
		return nil, errors.New("yahoo: empty symbol")
	}
	rng, interval := q.Range, q.Interval
	if rng == "" {
		rng = DefaultRange
	}
	if interval == "" {
		interval = DefaultInterval
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", q.Symbol).
		SetQueryParams(map[string]string{
			"range":    rng,
			"interval": interval,
		}).
		SetResult(&chartResponse{}).
		SetError(&chartResponse{}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", q.Symbol, err)
	}
	if resp.IsError() {
		if body, ok := resp.Error().(*chartResponse); ok && body.Chart.Error != nil {
			return nil, fmt.Errorf("yahoo chart %s: %s: %s", q.Symbol, body.Chart.Error.Code, body.Chart.Error.Description)
		}
		return nil, fmt.Errorf("yahoo chart %s: http %d", q.Symbol, resp.StatusCode())
	}

	body := resp.Result().(*chartResponse)
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %s", q.Symbol, body.Chart.Error.Code, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: empty result", q.Symbol)
	}

	slog.Info("[yahoo] fetched chart",
		"symbol", q.Symbol,
		"range", rng,
		"interval", interval,
		"bars", len(body.Chart.Result[0].Timestamp),
		"took", time.Since(start).Round(time.Millisecond).String(),
	)
	return &body.Chart.Result[0], nil
}

func (r *chartResult) bars(symbol string) ([]model.Bar, error) {
	if len(r.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: no quote block", symbol)
	}
	q := r.Indicators.Quote[0]
	n := len(r.Timestamp)
	for name, col := range map[string][]*float64{"open": q.Open, "high": q.High, "low": q.Low, "close": q.Close} {
		if len(col) != n {
			return nil, fmt.Errorf("yahoo chart %s: %s has %d values for %d timestamps", symbol, name, len(col), n)
		}
	}
	if r.Meta.Symbol != "" {
		symbol = r.Meta.Symbol
	}

	bars := make([]model.Bar, n)
	for i, ts := range r.Timestamp {
		bars[i] = model.Bar{
			Symbol: symbol,
			Time:   time.Unix(ts, 0).UTC(),
			Open:   value(q.Open[i]),
			High:   value(q.High[i]),
			Low:    value(q.Low[i]),
			Close:  value(q.Close[i]),
			Volume: math.NaN(),
		}
		if i < len(q.Volume) {
			bars[i].Volume = value(q.Volume[i])
		}
	}
	return bars, nil
}

func value(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func floats(ps []*float64) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = value(p)
	}
	return out
}
