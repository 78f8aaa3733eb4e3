// Package indicator computes technical indicators over a model.PriceSeries.
//
// Every kind implements the Indicator interface: it is constructed with fixed
// Params, computes a derived sequence aligned to the series' close prices in
// Process, and can render itself as a chart overlay once computed. Kinds are
// listed in a process-wide registry and exposed per series through a Facet.
package indicator

import (
	"errors"
	"strconv"

	"quantify/internal/model"
)

var (
	ErrInvalidWindow = errors.New("indicator: window must be positive")
	ErrUnknownKind   = errors.New("indicator: unknown kind")
	ErrInvalidFill   = errors.New("indicator: invalid fill policy")
	ErrNotReady      = errors.New("indicator: not processed")
	ErrUnimplemented = errors.New("indicator: not implemented")
)

// Indicator is the full contract of an indicator kind.
type Indicator interface {
	model.Indicator

	// Window is the lookback length.
	Window() int

	// FillNA is the policy applied to undefined positions.
	FillNA() FillNA

	// Process computes and caches the derived sequence from s.Close.
	// The result has len(s.Close) elements, NaN where undefined.
	Process(s *model.PriceSeries) ([]float64, error)
}

// Params are fixed at construction.
type Params struct {
	Window int
	Fill   FillNA
	Name   string // defaults to "<Short>-<Window>"
}

// Base carries the state shared by all kinds. Concrete kinds embed it and
// override Process and Plot.
type Base struct {
	name   string
	window int
	fill   FillNA
	data   []float64
}

// NewBase validates p and fills in the default name.
func NewBase(short string, p Params) (Base, error) {
	if p.Window <= 0 {
		return Base{}, ErrInvalidWindow
	}
	name := p.Name
	if name == "" {
		name = DefaultName(short, p.Window)
	}
	return Base{name: name, window: p.Window, fill: p.Fill}, nil
}

// DefaultName returns the name a kind gets when Params.Name is empty.
func DefaultName(short string, window int) string {
	return short + "-" + strconv.Itoa(window)
}

func (b *Base) Name() string   { return b.name }
func (b *Base) Window() int    { return b.window }
func (b *Base) FillNA() FillNA { return b.fill }

// Data returns the cached sequence, or nil before Process.
func (b *Base) Data() []float64 { return b.data }

func (b *Base) Process(*model.PriceSeries) ([]float64, error) {
	return nil, ErrUnimplemented
}

func (b *Base) Plot(*model.PriceSeries) (model.Trace, error) {
	return model.Trace{}, ErrUnimplemented
}

// line builds the default overlay: Data() against the series dates.
func (b *Base) line(s *model.PriceSeries) (model.Trace, error) {
	if b.data == nil {
		return model.Trace{}, ErrNotReady
	}
	return model.Trace{Name: b.name, X: s.Date, Y: b.data}, nil
}

// AddTo attaches ind to s under ind.Name(), replacing any previous entry.
func AddTo(s *model.PriceSeries, ind Indicator) {
	s.RegisterIndicator(ind.Name(), ind)
}
