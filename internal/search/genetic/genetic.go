// Package genetic implements the genetic multi-armed bandit engine: a
// population of integer candidate points ("arms") evolved by crossover
// and mutation, ranked by the running mean of their sampled rewards.
// Every pull of an arm costs one unit of the evaluation budget, so
// noisy objectives get averaged instead of trusted on a single sample.
package genetic

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banditopt/gmab/internal/search"
)

// Config controls the evolutionary loop.
type Config struct {
	// PopulationSize is the number of arms kept between generations.
	PopulationSize int

	// MutationRate is the per-gene probability of a mutation kick.
	MutationRate float64

	// CrossoverRate is the per-pair probability of single-point crossover.
	CrossoverRate float64

	// MutationSpan scales the standard deviation of a mutation kick
	// relative to the width of the dimension's domain.
	MutationSpan float64

	// Seed fixes the random stream; zero seeds from the wall clock.
	Seed uint64
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 20,
		MutationRate:   0.25,
		CrossoverRate:  0.9,
		MutationSpan:   0.1,
	}
}

// Engine implements search.Engine. An Engine is stateless between
// runs; each Run draws its own random stream.
type Engine struct {
	cfg    Config
	logger *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a logger for per-generation progress output.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine. Out-of-range config fields fall back to the
// defaults rather than failing.
func New(cfg Config, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.PopulationSize < 2 {
		cfg.PopulationSize = def.PopulationSize
	}
	if cfg.MutationRate <= 0 || cfg.MutationRate > 1 {
		cfg.MutationRate = def.MutationRate
	}
	if cfg.CrossoverRate <= 0 || cfg.CrossoverRate > 1 {
		cfg.CrossoverRate = def.CrossoverRate
	}
	if cfg.MutationSpan <= 0 {
		cfg.MutationSpan = def.MutationSpan
	}

	e := &Engine{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run evolves arms within bounds until exactly budget objective
// evaluations have been spent, then reports the arm with the best mean
// reward observed.
func (e *Engine) Run(ctx context.Context, objective search.Objective, bounds [][2]int64, budget int) (*search.Result, error) {
	if budget < 1 {
		return nil, fmt.Errorf("%w: got %d", search.ErrNonPositiveBudget, budget)
	}
	if err := search.ValidateBounds(bounds); err != nil {
		return nil, err
	}

	seed := e.cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	r := &run{
		cfg:       e.cfg,
		logger:    e.logger,
		rng:       rand.New(rand.NewPCG(seed, seed)),
		bounds:    bounds,
		objective: objective,
		budget:    budget,
		seen:      make(map[string]struct{}),
	}
	return r.execute(ctx)
}

// arm is one candidate point and the rewards sampled for it so far.
type arm struct {
	point []int64
	sum   float64
	pulls int
}

// mean is the arm's current reward estimate. Unpulled arms sort last.
func (a *arm) mean() float64 {
	if a.pulls == 0 {
		return math.Inf(1)
	}
	return a.sum / float64(a.pulls)
}

func key(point []int64) string {
	var b strings.Builder
	for i, v := range point {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	return b.String()
}

// run holds the mutable state of a single Run call.
type run struct {
	cfg       Config
	logger    *zap.Logger
	rng       *rand.Rand
	bounds    [][2]int64
	objective search.Objective
	budget    int

	pop  []*arm
	seen map[string]struct{}
	used int

	bestPoint []int64
	bestScore float64
	haveBest  bool
}

func (r *run) execute(ctx context.Context) (*search.Result, error) {
	r.seedPopulation()

	generation := 0
	for r.used < r.budget {
		if err := r.pullAll(ctx); err != nil {
			return nil, err
		}
		generation++
		r.logger.Debug("generation evaluated",
			zap.Int("generation", generation),
			zap.Int("evaluations", r.used),
			zap.Float64("best_score", r.bestScore),
		)
		if r.used >= r.budget {
			break
		}
		r.cull()
		r.breed()
	}

	return &search.Result{
		Point:       r.bestPoint,
		Score:       r.bestScore,
		Evaluations: r.used,
	}, nil
}

// seedPopulation fills the initial population with unique random arms.
// A tiny search space can hold fewer unique points than the target
// population, so the dedup loop gives up after enough misses.
func (r *run) seedPopulation() {
	target := r.cfg.PopulationSize
	misses := 0
	for len(r.pop) < target && misses < target*50 {
		point := r.randomPoint()
		if r.remember(point) {
			r.pop = append(r.pop, &arm{point: point})
		} else {
			misses++
		}
	}
}

func (r *run) randomPoint() []int64 {
	point := make([]int64, len(r.bounds))
	for i, b := range r.bounds {
		point[i] = b[0] + r.rng.Int64N(b[1]-b[0]+1)
	}
	return point
}

// remember records a point, reporting false if it was seen before.
// Culled arms stay remembered so the search does not revisit them.
func (r *run) remember(point []int64) bool {
	k := key(point)
	if _, ok := r.seen[k]; ok {
		return false
	}
	r.seen[k] = struct{}{}
	return true
}

// pullAll samples every arm once, stopping the moment the budget is
// spent. Arms keep their pull history across generations, so the mean
// of a long-lived arm steadies over time.
func (r *run) pullAll(ctx context.Context) error {
	for _, a := range r.pop {
		if r.used >= r.budget {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		point := append([]int64(nil), a.point...)
		score, err := r.objective(point)
		if err != nil {
			return err
		}
		r.used++
		a.pulls++
		a.sum += score

		if m := a.mean(); !r.haveBest || m < r.bestScore {
			r.haveBest = true
			r.bestScore = m
			r.bestPoint = append([]int64(nil), a.point...)
		}
	}
	return nil
}

// cull keeps the best-ranked arms, at most PopulationSize of them.
func (r *run) cull() {
	sort.SliceStable(r.pop, func(i, j int) bool {
		return r.pop[i].mean() < r.pop[j].mean()
	})
	if len(r.pop) > r.cfg.PopulationSize {
		r.pop = r.pop[:r.cfg.PopulationSize]
	}
}

// breed appends the offspring of the current population: pairwise
// single-point crossover followed by per-gene mutation, with anything
// seen before discarded.
func (r *run) breed() {
	offspring := r.mutate(r.crossover())
	for _, child := range offspring {
		if r.remember(child) {
			r.pop = append(r.pop, &arm{point: child})
		}
	}
}

// crossover pairs adjacent arms and swaps their tails at a random cut
// point. One-dimensional spaces have no interior cut, so pairs pass
// through unchanged and mutation does all the exploring.
func (r *run) crossover() [][]int64 {
	dim := len(r.bounds)
	var children [][]int64
	for i := 0; i+1 < len(r.pop); i += 2 {
		a, b := r.pop[i].point, r.pop[i+1].point
		if dim < 2 || r.rng.Float64() >= r.cfg.CrossoverRate {
			children = append(children,
				append([]int64(nil), a...),
				append([]int64(nil), b...),
			)
			continue
		}
		cut := 1 + r.rng.Int64N(int64(dim-1))
		c1 := append(append([]int64(nil), a[:cut]...), b[cut:]...)
		c2 := append(append([]int64(nil), b[:cut]...), a[cut:]...)
		children = append(children, c1, c2)
	}
	return children
}

// mutate perturbs genes with a normal kick whose deviation scales with
// the width of the dimension, clamped back into bounds.
func (r *run) mutate(points [][]int64) [][]int64 {
	for _, point := range points {
		for i := range point {
			if r.rng.Float64() >= r.cfg.MutationRate {
				continue
			}
			low, high := r.bounds[i][0], r.bounds[i][1]
			kick := distuv.Normal{
				Mu:    0,
				Sigma: r.cfg.MutationSpan * float64(high-low),
				Src:   r.rng,
			}.Rand()

			v := float64(point[i]) + kick
			v = math.Max(v, float64(low))
			v = math.Min(v, float64(high))
			point[i] = int64(v)
		}
	}
	return points
}
