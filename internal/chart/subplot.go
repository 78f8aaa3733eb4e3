package chart

import (
	"fmt"
)

// Default subplot settings for the price/volume layout. row_width lists row
// heights bottom-up, so the volume row gets 0.2 and prices 0.7.
const (
	DefaultVerticalSpacing = 0.03
)

func defaultSubplot() map[string]any {
	return map[string]any{
		"vertical_spacing": DefaultVerticalSpacing,
		"row_width":        []float64{0.2, 0.7},
	}
}

// mergeSubplot copies defaults and lays overrides on top.
func mergeSubplot(overrides map[string]any) map[string]any {
	out := defaultSubplot()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

type rowDomains struct {
	price  [2]float64
	volume [2]float64
}

// subplotDomains turns the merged settings into y-axis domains for the
// two-row layout.
func subplotDomains(cfg map[string]any) (rowDomains, error) {
	spacing, err := toFloat(cfg["vertical_spacing"])
	if err != nil {
		return rowDomains{}, fmt.Errorf("vertical_spacing: %w", err)
	}
	if spacing < 0 || spacing >= 1 {
		return rowDomains{}, fmt.Errorf("vertical_spacing: %v out of range [0, 1)", spacing)
	}

	widths, err := toFloats(cfg["row_width"])
	if err != nil {
		return rowDomains{}, fmt.Errorf("row_width: %w", err)
	}
	if len(widths) != 2 {
		return rowDomains{}, fmt.Errorf("row_width: want 2 rows, got %d", len(widths))
	}
	total := 0.0
	for _, w := range widths {
		if w <= 0 {
			return rowDomains{}, fmt.Errorf("row_width: %v must be positive", w)
		}
		total += w
	}

	avail := 1 - spacing
	volumeTop := avail * widths[0] / total
	return rowDomains{
		volume: [2]float64{0, volumeTop},
		price:  [2]float64{volumeTop + spacing, 1},
	}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("want a number, got %T", v)
	}
}

func toFloats(v any) ([]float64, error) {
	switch s := v.(type) {
	case []float64:
		return s, nil
	case []any:
		out := make([]float64, len(s))
		for i, item := range s {
			f, err := toFloat(item)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("want a list of numbers, got %T", v)
	}
}
