package param

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Spec is one declaration request as it arrives from an untyped
// boundary such as a JSON body. The numeric fields stay json.Number so
// that a fractional literal like 0.0 is still distinguishable from 0
// after decoding.
type Spec struct {
	Name string      `json:"name"`
	Low  json.Number `json:"low"`
	High json.Number `json:"high"`
	Size json.Number `json:"size,omitempty"`
}

// Apply validates spec and registers it. Type errors on low, high and
// size are detected before anything is appended, so a failed Apply
// leaves Bounds unchanged.
func (s *Space) Apply(spec Spec) error {
	low, err := intValue(spec.Low)
	if err != nil {
		return fmt.Errorf("parameter %q: low: %w", spec.Name, err)
	}
	high, err := intValue(spec.High)
	if err != nil {
		return fmt.Errorf("parameter %q: high: %w", spec.Name, err)
	}
	size := int64(1)
	if spec.Size != "" {
		size, err = intValue(spec.Size)
		if err != nil {
			return fmt.Errorf("parameter %q: size: %w", spec.Name, err)
		}
	}
	return s.SuggestIntN(spec.Name, low, high, int(size))
}

// intValue classifies a json.Number as an integer. A fractional or
// exponent form is a type error even when it denotes a whole number:
// the caller supplied a float where an integer is required.
func intValue(n json.Number) (int64, error) {
	raw := n.String()
	if raw == "" {
		return 0, fmt.Errorf("%w: missing value", ErrNotInteger)
	}
	if strings.ContainsAny(raw, ".eE") {
		return 0, fmt.Errorf("%w: got %s", ErrNotInteger, raw)
	}
	v, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: got %q", ErrNotInteger, raw)
	}
	return v, nil
}
