package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"time"

	"quantify/config"
	"quantify/internal/marketdata/csvsource"
	"quantify/internal/model"
	redisstore "quantify/internal/store/redis"
	sqlitestore "quantify/internal/store/sqlite"
)

type importOptions struct {
	CSV        string
	Symbol     string
	DBPath     string
	TimeColumn string
	TimeLayout string
	Redis      bool
}

func parseImportFlags(args []string, cfg *config.Config) (importOptions, error) {
	var opts importOptions
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.StringVar(&opts.CSV, "csv", "", "CSV file to import")
	fs.StringVar(&opts.Symbol, "symbol", "", "Symbol to store the bars under")
	fs.StringVar(&opts.DBPath, "db", cfg.SQLitePath, "Path to SQLite database")
	fs.StringVar(&opts.TimeColumn, "time-column", "", "Timestamp column (default: auto-detect)")
	fs.StringVar(&opts.TimeLayout, "time-layout", "", "Go time layout for the timestamp column")
	fs.BoolVar(&opts.Redis, "redis", false, "Also publish the bars to the Redis stream bars:<symbol>")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.CSV == "" || opts.Symbol == "" {
		return opts, fmt.Errorf("import: -csv and -symbol are required")
	}
	return opts, nil
}

// runImport copies a CSV file into the SQLite bars table (and optionally a
// Redis stream). Bars at or before the last stored timestamp are skipped so
// re-running the import only appends.
func runImport(ctx context.Context, cfg *config.Config, opts importOptions) (int, error) {
	frame, err := csvsource.ReadFile(opts.CSV, csvsource.Options{TimeColumn: opts.TimeColumn, TimeLayout: opts.TimeLayout})
	if err != nil {
		return 0, err
	}
	series, err := model.PriceSeriesFromTable(frame, matchSelectors(frame), model.WithSymbol(opts.Symbol))
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}
	bars, err := series.Bars()
	if err != nil {
		return 0, fmt.Errorf("import: %w", err)
	}

	w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: opts.DBPath})
	if err != nil {
		return 0, err
	}
	defer w.Close()

	last, err := w.GetLastTimestamp(ctx, opts.Symbol)
	if err != nil {
		return 0, err
	}
	fresh := bars[:0:0]
	incomplete := 0
	for _, b := range bars {
		if !last.IsZero() && !b.Time.After(last) {
			continue
		}
		// the bars table requires every price
		if math.IsNaN(b.Open) || math.IsNaN(b.High) || math.IsNaN(b.Low) || math.IsNaN(b.Close) {
			incomplete++
			continue
		}
		fresh = append(fresh, b)
	}
	if skipped := len(bars) - len(fresh) - incomplete; skipped > 0 {
		slog.Info("[import] skipping stored bars", "symbol", opts.Symbol, "skipped", skipped, "last", last.Format(time.RFC3339))
	}
	if incomplete > 0 {
		slog.Warn("[import] dropping bars with missing prices", "symbol", opts.Symbol, "dropped", incomplete)
	}

	barCh := make(chan model.Bar, 1024)
	go func() {
		defer close(barCh)
		for _, b := range fresh {
			select {
			case barCh <- b:
			case <-ctx.Done():
				return
			}
		}
	}()
	written, err := w.Run(ctx, barCh)
	if err != nil {
		return written, err
	}

	if opts.Redis && len(fresh) > 0 {
		rw, err := redisstore.New(redisstore.WriterConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			return written, err
		}
		defer rw.Close()
		if err := rw.WriteBars(ctx, fresh); err != nil {
			return written, err
		}
	}

	slog.Info("[import] done", "symbol", opts.Symbol, "rows", len(bars), "written", written, "redis", opts.Redis)
	return written, nil
}
