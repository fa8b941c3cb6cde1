// Package param implements the ordered parameter registry that feeds
// a search engine its bounds. Parameters are declared one at a time,
// keep their insertion order forever, and derive the (low, high) list
// the engine and the objective function agree on positionally.
package param

import "errors"

// Validation errors, classified with errors.Is. ErrNotInteger is the
// type-error class; the others are value errors on an otherwise
// well-typed declaration.
var (
	// ErrNotInteger reports a bound or size that is not an integer value.
	ErrNotInteger = errors.New("value must be an integer")

	// ErrEmptyDomain reports equal low and high bounds.
	ErrEmptyDomain = errors.New("low and high must not be equal")

	// ErrInvertedDomain reports a low bound above the high bound.
	ErrInvertedDomain = errors.New("low must be less than high")

	// ErrNonPositiveSize reports a repeat count smaller than one.
	ErrNonPositiveSize = errors.New("size must be a positive integer")
)

// Declaration is one tunable dimension with inclusive integer bounds.
// Names identify dimensions for humans only; two declarations may
// share a name and still occupy distinct positions.
type Declaration struct {
	Name string `json:"name"`
	Low  int64  `json:"low"`
	High int64  `json:"high"`
}
