package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"quantify/config"
	"quantify/internal/marketdata/csvsource"
	"quantify/internal/marketdata/yahoo"
	"quantify/internal/metrics"
	"quantify/internal/model"
	redisstore "quantify/internal/store/redis"
	sqlitestore "quantify/internal/store/sqlite"
)

// loaded is a series plus the store handles it came from, kept open so the
// liveness checker can probe them while serving.
type loaded struct {
	Series *model.PriceSeries
	Redis  *goredis.Client
	SQLite *sql.DB

	closers []func() error
}

func (l *loaded) Close() {
	for _, c := range l.closers {
		if err := c(); err != nil {
			log.Printf("[quantify] close store: %v", err)
		}
	}
}

// loadSeries reads the configured source into a PriceSeries and records the
// load in m.
func loadSeries(ctx context.Context, cfg *config.Config, src *config.Source, m *metrics.Metrics) (*loaded, error) {
	start := time.Now()
	out := &loaded{}

	var (
		table  model.Table
		symbol = src.Symbol
		sel    = src.Selectors()
	)

	switch src.Kind {
	case config.KindCSV:
		frame, err := csvsource.ReadFile(src.Path, csvsource.Options{
			TimeColumn: src.TimeColumn,
			TimeLayout: src.TimeLayout,
		})
		if err != nil {
			return nil, err
		}
		if src.Columns == nil {
			sel = matchSelectors(frame)
		}
		if symbol == "" {
			symbol = strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
		}
		table = frame

	case config.KindSQLite:
		path := src.Path
		if path == "" {
			path = cfg.SQLitePath
		}
		r, err := sqlitestore.NewReader(path)
		if err != nil {
			return nil, err
		}
		out.SQLite = r.DB()
		out.closers = append(out.closers, r.Close)
		frame, err := r.ReadFrame(ctx, src.Symbol)
		if err != nil {
			out.Close()
			return nil, err
		}
		table = frame

	case config.KindRedis:
		r, err := redisstore.NewReader(redisstore.ReaderConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			return nil, err
		}
		out.Redis = r.Client()
		out.closers = append(out.closers, r.Close)
		frame, err := r.ReadFrame(ctx, src.Stream)
		if err != nil {
			out.Close()
			return nil, err
		}
		if symbol == "" {
			symbol = strings.TrimPrefix(src.Stream, redisstore.StreamKey(""))
		}
		table = frame

	case config.KindYahoo:
		client := yahoo.New(yahoo.Config{BaseURL: cfg.YahooBaseURL, RetryCount: 2})
		frame, err := client.FetchFrame(ctx, yahoo.Query{Symbol: src.Symbol, Range: src.Range, Interval: src.Interval})
		if err != nil {
			return nil, err
		}
		table = frame

	default:
		return nil, fmt.Errorf("unknown source kind %q", src.Kind)
	}

	series, err := model.PriceSeriesFromTable(table, sel, model.WithSymbol(symbol))
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("build series from %s: %w", src.Kind, err)
	}
	out.Series = series

	m.ObserveLoad(src.Kind, series.Len(), time.Since(start))
	return out, nil
}

// matchSelectors maps the canonical column names onto a CSV frame's headers
// case-insensitively, so "Open"/"Close"/"Date" style files work without an
// explicit columns block. Unmatched required columns keep their canonical
// name and fail in PriceSeriesFromTable.
func matchSelectors(frame *model.Frame) model.Selectors {
	cols := frame.Columns()
	find := func(names ...string) (string, bool) {
		for _, want := range names {
			for _, c := range cols {
				if strings.EqualFold(c, want) {
					return c, true
				}
			}
		}
		return "", false
	}
	pick := func(canonical string) string {
		if c, ok := find(canonical); ok {
			return c
		}
		return canonical
	}

	sel := model.Selectors{
		Open:  pick(model.ColOpen),
		Close: pick(model.ColClose),
		High:  pick(model.ColHigh),
		Low:   pick(model.ColLow),
	}
	if c, ok := find("date", "datetime", model.ColTime, "timestamp"); ok {
		if _, err := frame.Times(c); err == nil {
			sel.Date = c
		}
	}
	if c, ok := find(model.ColVolume); ok {
		sel.Volume = c
	}
	return sel
}
