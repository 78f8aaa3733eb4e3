package indicator

import (
	"fmt"
	"strconv"
	"strings"
)

// Spec names one indicator to compute: a registered kind and its window.
type Spec struct {
	Kind   string // full kind name, e.g. "SimpleMovingAverage"
	Short  string
	Window int
}

// Name is the default indicator name for the spec, e.g. "SMA-20".
func (s Spec) Name() string { return DefaultName(s.Short, s.Window) }

func (s Spec) String() string { return s.Short + ":" + strconv.Itoa(s.Window) }

// DefaultSpecs is used when no indicators are configured.
func DefaultSpecs() []Spec {
	return []Spec{
		{Kind: "SimpleMovingAverage", Short: "SMA", Window: 20},
		{Kind: "SimpleMovingAverage", Short: "SMA", Window: 50},
		{Kind: "ExponentialMovingAverage", Short: "EMA", Window: 9},
		{Kind: "ExponentialMovingAverage", Short: "EMA", Window: 21},
	}
}

// ParseSpec parses "KIND:WINDOW", where KIND is a short tag (any case) or a
// full kind name.
func ParseSpec(s string) (Spec, error) {
	tokens := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(tokens) != 2 {
		return Spec{}, fmt.Errorf("indicator spec %q: want KIND:WINDOW", s)
	}
	k, ok := LookupKind(strings.TrimSpace(tokens[0]))
	if !ok {
		return Spec{}, fmt.Errorf("indicator spec %q: %w", s, ErrUnknownKind)
	}
	window, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
	if err != nil {
		return Spec{}, fmt.Errorf("indicator spec %q: bad window: %w", s, err)
	}
	if window <= 0 {
		return Spec{}, fmt.Errorf("indicator spec %q: %w", s, ErrInvalidWindow)
	}
	return Spec{Kind: k.Name, Short: k.Short, Window: window}, nil
}

// ParseSpecs parses a comma-separated list. An empty string yields no specs.
func ParseSpecs(s string) ([]Spec, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return ParseSpecList(strings.Split(s, ","))
}

// ParseSpecList parses each entry and validates the result.
func ParseSpecList(items []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(items))
	for _, item := range items {
		spec, err := ParseSpec(item)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	if err := ValidateSpecs(specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// ValidateSpecs checks kinds, windows and duplicate names.
func ValidateSpecs(specs []Spec) error {
	seen := make(map[string]bool, len(specs))
	for _, s := range specs {
		if _, ok := LookupKind(s.Kind); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
		}
		if s.Window <= 0 {
			return fmt.Errorf("%s: window=%d: %w", s.Kind, s.Window, ErrInvalidWindow)
		}
		if seen[s.Name()] {
			return fmt.Errorf("duplicate indicator %s", s.Name())
		}
		seen[s.Name()] = true
	}
	return nil
}

// Result is one computed spec.
type Result struct {
	Spec Spec
	Name string
	Data []float64
}

// Last returns the final value, NaN when undefined and 0 for an empty series.
func (r Result) Last() float64 {
	if len(r.Data) == 0 {
		return 0
	}
	return r.Data[len(r.Data)-1]
}

// Apply computes every spec on the facet's series with the shared fill
// policy, registering each under its default name.
func (f *Facet) Apply(specs []Spec, fill FillNA) ([]Result, error) {
	results := make([]Result, 0, len(specs))
	for _, s := range specs {
		data, err := f.Call(s.Kind, Params{Window: s.Window, Fill: fill})
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", s, err)
		}
		results = append(results, Result{Spec: s, Name: s.Name(), Data: data})
	}
	f.log.Info("[facet] applied indicator specs", "symbol", f.series.Symbol, "count", len(results))
	return results, nil
}
