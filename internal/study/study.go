// Package study drives one optimization run over a parameter space and
// owns the resulting best assignment. A Study holds a reference to an
// explicit param.Space; several studies interfere with each other only
// when the caller hands them the same Space.
package study

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/banditopt/gmab/internal/logging"
	"github.com/banditopt/gmab/internal/param"
	"github.com/banditopt/gmab/internal/search"
	"github.com/banditopt/gmab/internal/search/genetic"
)

// ErrBestTrialUnavailable reports a best-trial read before any
// successful Optimize call.
var ErrBestTrialUnavailable = errors.New("best trial is not available yet: run Optimize first")

// Study is one optimization session: a parameter space plus an
// eventual best result.
type Study struct {
	space  *param.Space
	engine search.Engine
	logger *logging.Logger

	mu   sync.Mutex
	best *search.Result
}

// Option configures a Study at construction.
type Option func(*Study)

// WithSpace attaches an existing parameter space. Studies built on the
// same Space share every declaration.
func WithSpace(space *param.Space) Option {
	return func(st *Study) { st.space = space }
}

// WithEngine selects the search engine driven by Optimize.
func WithEngine(engine search.Engine) Option {
	return func(st *Study) { st.engine = engine }
}

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(st *Study) { st.logger = logger }
}

// New creates a Study with no best trial. Without options it owns a
// fresh empty Space and the default genetic engine.
func New(opts ...Option) *Study {
	st := &Study{}
	for _, opt := range opts {
		opt(st)
	}
	if st.space == nil {
		st.space = param.NewSpace()
	}
	if st.engine == nil {
		st.engine = genetic.New(genetic.DefaultConfig())
	}
	if st.logger == nil {
		st.logger = logging.Nop()
	}
	return st
}

// Space returns the parameter space this study reads its bounds from.
func (st *Study) Space() *param.Space { return st.space }

// SuggestInt declares one integer parameter on the study's space.
func (st *Study) SuggestInt(name string, low, high int64) error {
	return st.space.SuggestInt(name, low, high)
}

// SuggestIntN declares size parameters sharing the same bounds.
func (st *Study) SuggestIntN(name string, low, high int64, size int) error {
	return st.space.SuggestIntN(name, low, high, size)
}

// Optimize reads the current bounds, runs the engine for exactly
// budget objective evaluations, and stores the result it returns.
// Engine and objective errors propagate unmodified, and a failed run
// leaves any previous best trial in place. The parameter space is not
// mutated.
func (st *Study) Optimize(ctx context.Context, objective search.Objective, budget int) error {
	if budget < 1 {
		return fmt.Errorf("%w: got %d", search.ErrNonPositiveBudget, budget)
	}

	bounds := st.space.Bounds()
	st.logger.Debug("starting optimization", map[string]interface{}{
		"dimensions": len(bounds),
		"budget":     budget,
	})

	res, err := st.engine.Run(ctx, objective, bounds, budget)
	if err != nil {
		return err
	}

	st.mu.Lock()
	st.best = res
	st.mu.Unlock()

	st.logger.Info("optimization finished", map[string]interface{}{
		"evaluations": res.Evaluations,
		"best_score":  res.Score,
	})
	return nil
}

// BestTrial returns the engine's result for the most recent successful
// run, verbatim.
func (st *Study) BestTrial() (*search.Result, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.best == nil {
		return nil, ErrBestTrialUnavailable
	}
	return st.best, nil
}

// NamedValue pairs a declaration name with the value chosen for it.
type NamedValue struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// BestAssignment joins the best point with the declaration names in
// declaration order. Duplicate names stay separate entries, which is
// why this is a list rather than a map.
func (st *Study) BestAssignment() ([]NamedValue, error) {
	best, err := st.BestTrial()
	if err != nil {
		return nil, err
	}

	decls := st.space.Declarations()
	out := make([]NamedValue, 0, len(best.Point))
	for i, v := range best.Point {
		name := fmt.Sprintf("x%d", i)
		if i < len(decls) {
			name = decls[i].Name
		}
		out = append(out, NamedValue{Name: name, Value: v})
	}
	return out, nil
}
