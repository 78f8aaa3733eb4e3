package model

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrShapeMismatch matches *ShapeMismatchError.
	ErrShapeMismatch = errors.New("series components have different lengths")

	// ErrSelectorType matches *SelectorTypeError.
	ErrSelectorType = errors.New("column selector must be a string")
)

// FieldSize is the observed length of one series component.
type FieldSize struct {
	Field string
	Len   int
}

// ShapeMismatchError reports the length of every supplied component when
// they do not all agree.
type ShapeMismatchError struct {
	Sizes []FieldSize
}

func (e *ShapeMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("the length of open, close, high, low (and date, volume if supplied) must match, got ")
	for i, s := range e.Sizes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.Field)
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(s.Len))
	}
	return b.String()
}

func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// Size returns the recorded length for field, or -1 if it was not supplied.
func (e *ShapeMismatchError) Size(field string) int {
	for _, s := range e.Sizes {
		if s.Field == field {
			return s.Len
		}
	}
	return -1
}

// SelectorTypeError is returned when a table column selector is not a string.
type SelectorTypeError struct {
	Field string
	Type  string
}

func (e *SelectorTypeError) Error() string {
	return `type of "` + e.Field + `" must be a string, got "` + e.Type + `"`
}

func (e *SelectorTypeError) Is(target error) bool { return target == ErrSelectorType }
