package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"quantify/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const xrangePage = 1000

// ReaderConfig configures the Redis reader.
type ReaderConfig struct {
	Addr     string
	Password string
	DB       int
}

// Reader reads bar history from Redis Streams.
type Reader struct {
	client *goredis.Client
}

// NewReader creates a new Redis Reader and pings the server.
func NewReader(cfg ReaderConfig) (*Reader, error) {
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

	log.Printf("[redis-reader] connected to %s", cfg.Addr)
	return &Reader{client: client}, nil
}

// Client returns the underlying Redis client for health checks.
func (r *Reader) Client() *goredis.Client { return r.client }

// ReadBars reads every bar in stream between the IDs start and end
// ("-" and "+" for the full range), paging XRANGE until exhausted.
// Entries whose "data" field is missing or not a bar are skipped.
func (r *Reader) ReadBars(ctx context.Context, stream, start, end string) ([]model.Bar, error) {
	if start == "" {
		start = "-"
	}
	if end == "" {
		end = "+"
	}

	var bars []model.Bar
	skipped := 0
	from := start
	for {
		msgs, err := r.client.XRangeN(ctx, stream, from, end, xrangePage).Result()
		if err != nil {
			return nil, fmt.Errorf("xrange %s from %s: %w", stream, from, err)
		}
		if len(msgs) == 0 {
			break
		}

		page, bad := DecodeBars(msgs)
		bars = append(bars, page...)
		skipped += bad

		if len(msgs) < xrangePage {
			break
		}
		from = "(" + msgs[len(msgs)-1].ID
	}

	if skipped > 0 {
		log.Printf("[redis-reader] %s: skipped %d undecodable entries", stream, skipped)
	}
	return bars, nil
}

// ReadFrame reads the full stream into a frame with the canonical columns.
func (r *Reader) ReadFrame(ctx context.Context, stream string) (*model.Frame, error) {
	bars, err := r.ReadBars(ctx, stream, "-", "+")
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("redis: stream %q is empty", stream)
	}
	return model.FrameFromBars(bars), nil
}

// DecodeBars parses the JSON "data" field of each stream entry. It returns the
// decoded bars in order and the number of entries it could not decode.
func DecodeBars(msgs []goredis.XMessage) ([]model.Bar, int) {
	bars := make([]model.Bar, 0, len(msgs))
	skipped := 0
	for _, msg := range msgs {
		data, ok := msg.Values["data"].(string)
		if !ok {
			skipped++
			continue
		}
		var b model.Bar
		if err := json.Unmarshal([]byte(data), &b); err != nil || b.Time.IsZero() {
			skipped++
			continue
		}
		bars = append(bars, b)
	}
	return bars, skipped
}

// Close closes the Redis client.
func (r *Reader) Close() error {
	return r.client.Close()
}
