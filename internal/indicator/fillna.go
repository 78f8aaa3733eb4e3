package indicator

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type fillKind uint8

const (
	fillNone fillKind = iota
	fillValue
	fillBackward
	fillForward
)

// FillNA is the policy for positions an indicator cannot define.
// The zero value leaves them NaN.
type FillNA struct {
	kind   fillKind
	method string
	value  float64
}

var (
	NoFill   = FillNA{}
	Backfill = FillNA{kind: fillBackward, method: "backfill"}
	Bfill    = FillNA{kind: fillBackward, method: "bfill"}
	Pad      = FillNA{kind: fillForward, method: "pad"}
	Ffill    = FillNA{kind: fillForward, method: "ffill"}
)

// FillValue replaces every remaining NaN with v. FillValue(0) is still a set
// policy: it lowers the minimum observation count like any other.
func FillValue(v float64) FillNA {
	return FillNA{kind: fillValue, value: v}
}

// ParseFillNA accepts "", "none", one of the four method names, or a number.
func ParseFillNA(s string) (FillNA, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none":
		return NoFill, nil
	case "backfill":
		return Backfill, nil
	case "bfill":
		return Bfill, nil
	case "pad":
		return Pad, nil
	case "ffill":
		return Ffill, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NoFill, fmt.Errorf("%w: %q", ErrInvalidFill, s)
	}
	return FillValue(v), nil
}

// IsSet reports whether any policy other than none is configured.
func (f FillNA) IsSet() bool { return f.kind != fillNone }

// Value returns the literal fill value and whether the policy is one.
func (f FillNA) Value() (float64, bool) { return f.value, f.kind == fillValue }

func (f FillNA) String() string {
	switch f.kind {
	case fillValue:
		return strconv.FormatFloat(f.value, 'g', -1, 64)
	case fillBackward, fillForward:
		return f.method
	default:
		return "none"
	}
}

// minPeriods is the observation count below which a position stays undefined.
func (f FillNA) minPeriods(window int) int {
	if f.IsSet() {
		return 1
	}
	return window
}

// apply fills NaNs in data in place.
func (f FillNA) apply(data []float64) {
	switch f.kind {
	case fillValue:
		for i, v := range data {
			if math.IsNaN(v) {
				data[i] = f.value
			}
		}
	case fillBackward:
		next := math.NaN()
		for i := len(data) - 1; i >= 0; i-- {
			if math.IsNaN(data[i]) {
				data[i] = next
			} else {
				next = data[i]
			}
		}
	case fillForward:
		prev := math.NaN()
		for i, v := range data {
			if math.IsNaN(v) {
				data[i] = prev
			} else {
				prev = v
			}
		}
	}
}
