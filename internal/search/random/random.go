// Package random implements a uniform random-search engine. It is the
// baseline the genetic engine is measured against and a cheap engine
// for tests.
package random

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/banditopt/gmab/internal/search"
)

// Engine implements search.Engine with independent uniform draws.
type Engine struct {
	seed uint64
}

// New creates an Engine. A zero seed draws from the wall clock.
func New(seed uint64) *Engine {
	return &Engine{seed: seed}
}

// Run draws budget uniform points within bounds and returns the best.
func (e *Engine) Run(ctx context.Context, objective search.Objective, bounds [][2]int64, budget int) (*search.Result, error) {
	if budget < 1 {
		return nil, fmt.Errorf("%w: got %d", search.ErrNonPositiveBudget, budget)
	}
	if err := search.ValidateBounds(bounds); err != nil {
		return nil, err
	}

	seed := e.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed))

	best := &search.Result{}
	for i := 0; i < budget; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		point := make([]int64, len(bounds))
		for j, b := range bounds {
			point[j] = b[0] + rng.Int64N(b[1]-b[0]+1)
		}

		score, err := objective(point)
		if err != nil {
			return nil, err
		}
		if best.Point == nil || score < best.Score {
			best.Point = point
			best.Score = score
		}
	}
	best.Evaluations = budget
	return best, nil
}
