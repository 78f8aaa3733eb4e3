package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"quantify/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const (
	defaultStreamMaxLen = 100000
	defaultLatestTTL    = 24 * time.Hour
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
	MaxLen   int64 // approximate stream cap, 0 = default
}

// Writer appends bars to per-symbol Redis Streams.
type Writer struct {
	client *goredis.Client
	maxLen int64
}

// StreamKey is the stream bars for symbol are written to.
func StreamKey(symbol string) string { return "bars:" + symbol }

func latestKey(symbol string) string { return "bars:latest:" + symbol }

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = defaultStreamMaxLen
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Writer{client: client, maxLen: maxLen}, nil
}

// WriteBars pipelines one XADD per bar to StreamKey(bar.Symbol) and updates
// the latest-bar key for each symbol touched.
func (w *Writer) WriteBars(ctx context.Context, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	// encode everything before queueing so a bad bar writes nothing
	payloads := make([]string, len(bars))
	latest := make(map[string]int)
	for i := range bars {
		b := &bars[i]
		raw, err := b.JSON()
		if err != nil {
			return fmt.Errorf("redis write: %w", err)
		}
		payloads[i] = string(raw)
		if cur, ok := latest[b.Symbol]; !ok || b.Time.After(bars[cur].Time) {
			latest[b.Symbol] = i
		}
	}

	pipe := w.client.Pipeline()
	for i := range bars {
		pipe.XAdd(ctx, &goredis.XAddArgs{
			Stream: StreamKey(bars[i].Symbol),
			MaxLen: w.maxLen,
			Approx: true,
			Values: map[string]interface{}{
				"data": payloads[i],
			},
		})
	}
	for symbol, i := range latest {
		pipe.Set(ctx, latestKey(symbol), payloads[i], defaultLatestTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline (%d bars): %w", len(bars), err)
	}
	return nil
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
