// Package csvsource loads OHLCV tables from CSV files into a model.Frame.
package csvsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"quantify/internal/model"
)

// Options controls parsing. The zero value detects the time column and layout.
type Options struct {
	// TimeColumn names the timestamp column. Empty means the first header
	// matching one of date, datetime, time, timestamp (case-insensitive).
	TimeColumn string

	// TimeLayout is a time.Parse layout. Empty tries DefaultLayouts, then
	// unix seconds.
	TimeLayout string

	Comma rune
}

// DefaultLayouts are tried in order when Options.TimeLayout is empty.
var DefaultLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

var timeHeaders = []string{"date", "datetime", "time", "timestamp"}

// ReadFile opens path and calls Read.
func ReadFile(path string, opts Options) (*model.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv open: %w", err)
	}
	defer f.Close()

	frame, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("csv %s: %w", path, err)
	}
	return frame, nil
}

// Read parses a headed CSV. The time column becomes a time column, every
// other column that parses as numbers (empty, NaN and null cells become NaN)
// becomes a numeric column, and text columns are dropped.
func Read(r io.Reader, opts Options) (*model.Frame, error) {
	cr := csv.NewReader(r)
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv read: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("csv: missing header")
	}
	header, rows := records[0], records[1:]
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	timeIdx := findTimeColumn(header, opts.TimeColumn)
	if opts.TimeColumn != "" && timeIdx < 0 {
		return nil, fmt.Errorf("csv: time column %q not found", opts.TimeColumn)
	}

	frame := model.NewFrame()
	for col, name := range header {
		if col == timeIdx {
			ts, err := parseTimes(rows, col, opts.TimeLayout)
			if err != nil {
				return nil, fmt.Errorf("csv column %q: %w", name, err)
			}
			if err := frame.SetTimes(name, ts); err != nil {
				return nil, err
			}
			continue
		}

		values, ok := parseFloats(rows, col)
		if !ok {
			slog.Debug("[csvsource] dropping non-numeric column", "column", name)
			continue
		}
		if err := frame.SetFloat64s(name, values); err != nil {
			return nil, err
		}
	}

	slog.Info("[csvsource] loaded table", "rows", len(rows), "columns", frame.Columns())
	return frame, nil
}

func findTimeColumn(header []string, want string) int {
	for i, h := range header {
		if want != "" {
			if h == want {
				return i
			}
			continue
		}
		for _, candidate := range timeHeaders {
			if strings.EqualFold(h, candidate) {
				return i
			}
		}
	}
	return -1
}

func parseFloats(rows [][]string, col int) ([]float64, bool) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		cell := strings.TrimSpace(row[col])
		switch strings.ToLower(cell) {
		case "", "nan", "null", "na":
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func parseTimes(rows [][]string, col int, layout string) ([]time.Time, error) {
	out := make([]time.Time, len(rows))
	for i, row := range rows {
		ts, err := ParseTime(strings.TrimSpace(row[col]), layout)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out[i] = ts
	}
	return out, nil
}

// ParseTime parses s with layout, or with DefaultLayouts and then unix
// seconds when layout is empty. Results are UTC.
func ParseTime(s, layout string) (time.Time, error) {
	if layout != "" {
		ts, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, err
		}
		return ts.UTC(), nil
	}
	for _, l := range DefaultLayouts {
		if ts, err := time.Parse(l, s); err == nil {
			return ts.UTC(), nil
		}
	}
	if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
