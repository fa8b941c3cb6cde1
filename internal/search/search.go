// Package search defines the boundary between the study layer and the
// optimization engines behind it. The study layer hands an engine an
// objective and a bounds list; how the engine spends its evaluation
// budget is opaque to everything above this package.
package search

import (
	"context"
	"errors"
	"fmt"
)

// Objective evaluates one candidate point and returns its score.
// Points are positionally aligned with the bounds list the engine was
// given. Lower scores are better.
type Objective func(x []int64) (float64, error)

// Result is the outcome of one engine run.
type Result struct {
	// Point is the best assignment found, in bounds order.
	Point []int64 `json:"point"`

	// Score is the score the engine attributes to Point.
	Score float64 `json:"score"`

	// Evaluations is the number of objective calls spent.
	Evaluations int `json:"evaluations"`
}

// Engine runs a budgeted optimization over an integer box.
type Engine interface {
	// Run evaluates objective exactly budget times within bounds and
	// returns the best point seen. Objective errors abort the run and
	// propagate unmodified; cancellation surfaces as ctx.Err().
	Run(ctx context.Context, objective Objective, bounds [][2]int64, budget int) (*Result, error)
}

var (
	// ErrNoBounds reports an empty bounds list.
	ErrNoBounds = errors.New("bounds must not be empty")

	// ErrInvalidBounds reports a pair whose low is not below its high.
	ErrInvalidBounds = errors.New("bounds must satisfy low < high")

	// ErrNonPositiveBudget reports an evaluation budget smaller than one.
	ErrNonPositiveBudget = errors.New("budget must be a positive integer")
)

// ValidateBounds checks the engine-side bounds contract. Declaration
// validation normally catches these earlier; engines still verify the
// list they were actually handed.
func ValidateBounds(bounds [][2]int64) error {
	if len(bounds) == 0 {
		return ErrNoBounds
	}
	for i, b := range bounds {
		if b[0] >= b[1] {
			return fmt.Errorf("%w: dimension %d is [%d, %d]", ErrInvalidBounds, i, b[0], b[1])
		}
	}
	return nil
}
