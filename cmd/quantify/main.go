// cmd/quantify loads a price history, computes moving averages on it and
// renders a candlestick chart with the indicator overlays.
//
// Usage:
//
//	go run ./cmd/quantify -source source.yaml -indicators SMA:20,EMA:9 -volume -show
//	go run ./cmd/quantify import -csv data/aapl.csv -symbol AAPL
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quantify/config"
	"quantify/internal/chart"
	"quantify/internal/indicator"
	"quantify/internal/logger"
	"quantify/internal/metrics"
)

type runOptions struct {
	Source     string
	Indicators string
	FillNA     string
	Volume     bool
	Show       bool
	Serve      bool
	Out        string
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	logger.Init("quantify", logger.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "import" {
		opts, err := parseImportFlags(os.Args[2:], cfg)
		if err != nil {
			log.Fatalf("[quantify] %v", err)
		}
		n, err := runImport(ctx, cfg, opts)
		if err != nil {
			log.Fatalf("[quantify] import failed: %v", err)
		}
		fmt.Printf("imported %d bars for %s into %s\n", n, opts.Symbol, opts.DBPath)
		return
	}

	var opts runOptions
	flag.StringVar(&opts.Source, "source", cfg.SourceFile, "YAML source description")
	flag.StringVar(&opts.Indicators, "indicators", "", "Indicator specs: KIND:WINDOW,... (default: from source, then SMA:20,SMA:50,EMA:9,EMA:21)")
	flag.StringVar(&opts.FillNA, "fillna", "", "Fill policy: backfill|bfill|pad|ffill|<number> (default: from source)")
	flag.BoolVar(&opts.Volume, "volume", false, "Add a volume row to the chart")
	flag.BoolVar(&opts.Show, "show", false, "Write the chart to CHART_DIR/<symbol>.html")
	flag.BoolVar(&opts.Serve, "serve", false, "Serve /metrics, /healthz and /chart until interrupted")
	flag.StringVar(&opts.Out, "out", "", "Also write the chart HTML to this path")
	flag.Parse()

	if err := run(ctx, cfg, opts); err != nil {
		log.Fatalf("[quantify] %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, opts runOptions) error {
	src, err := config.LoadSource(opts.Source)
	if err != nil {
		return err
	}

	specs, err := resolveSpecs(opts.Indicators, src.Indicators)
	if err != nil {
		return err
	}
	fillStr := src.FillNA
	if opts.FillNA != "" {
		fillStr = opts.FillNA
	}
	fill, err := indicator.ParseFillNA(fillStr)
	if err != nil {
		return err
	}

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()

	data, err := loadSeries(ctx, cfg, src, m)
	if err != nil {
		return err
	}
	defer data.Close()
	series := data.Series
	health.SetLoaded(src.Kind, series.Symbol, series.Len())
	ctx = logger.WithSymbol(ctx, series.Symbol)
	slog.Info("[quantify] series loaded", append(logger.LogWithSymbol(ctx),
		"source", src.Kind, "bars", series.Len(), "dates", series.HasDates(), "volume", series.HasVolume())...)

	facet := indicator.NewFacet(series, indicator.WithMetrics(m))
	results, err := facet.Apply(specs, fill)
	if err != nil {
		return err
	}
	health.SetIndicators(series.IndicatorNames())
	writeSummary(os.Stdout, series, results)

	var displays multiDisplay
	if opts.Show {
		displays = append(displays, chart.HTMLFile{Dir: cfg.ChartDir})
	}
	live := &chartHandler{}
	if opts.Serve {
		displays = append(displays, live)
	}

	fig, err := chart.Render(series, chart.Options{
		Show:      len(displays) > 0,
		Volume:    opts.Volume || src.Volume,
		Subplot:   src.Subplot,
		Displayer: displays,
		Metrics:   m,
	})
	if err != nil {
		return err
	}
	if opts.Out != "" {
		if err := writeFigure(opts.Out, fig); err != nil {
			return err
		}
	}

	if !opts.Serve {
		return nil
	}

	if data.Redis != nil {
		health.CheckRedis(ctx, data.Redis)
	}
	if data.SQLite != nil {
		health.CheckSQLite(ctx, data.SQLite)
	}
	health.StartLivenessChecker(ctx, data.Redis, data.SQLite, 15*time.Second)

	srv := metrics.NewServer(cfg.MetricsAddr, m, health)
	srv.Handle("/chart", live)
	srv.Start()

	<-ctx.Done()
	slog.Info("[quantify] shutting down", logger.LogWithSymbol(ctx)...)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// resolveSpecs prefers the -indicators flag, then the source file's list,
// then the default set.
func resolveSpecs(flagValue string, fromSource []string) ([]indicator.Spec, error) {
	var (
		specs []indicator.Spec
		err   error
	)
	switch {
	case flagValue != "":
		specs, err = indicator.ParseSpecs(flagValue)
	case len(fromSource) > 0:
		specs, err = indicator.ParseSpecList(fromSource)
	default:
		specs = indicator.DefaultSpecs()
	}
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, errors.New("no indicators requested")
	}
	if err := indicator.ValidateSpecs(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

func writeFigure(path string, fig *chart.Figure) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fig.WriteHTML(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
