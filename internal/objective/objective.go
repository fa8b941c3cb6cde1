// Package objective holds the named objective functions the HTTP API
// can optimize. A callable cannot cross a JSON boundary, so remote
// callers pick one of these by name instead.
package objective

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/banditopt/gmab/internal/search"
)

// ErrUnknown reports a lookup for an unregistered objective.
var ErrUnknown = errors.New("unknown objective function")

// Sphere is the sum of squares; minimum 0 at the origin.
func Sphere(x []int64) (float64, error) {
	sum := 0.0
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return sum, nil
}

// Rosenbrock is the classic banana-valley function over consecutive
// coordinate pairs; minimum 0 at (1, ..., 1) for two or more
// dimensions.
func Rosenbrock(x []int64) (float64, error) {
	if len(x) < 2 {
		return 0, fmt.Errorf("rosenbrock needs at least 2 dimensions, got %d", len(x))
	}
	sum := 0.0
	for i := 0; i+1 < len(x); i++ {
		a := float64(x[i])
		b := float64(x[i+1])
		sum += 100*math.Pow(b-a*a, 2) + math.Pow(1-a, 2)
	}
	return sum, nil
}

// NoisySphere is Sphere with additive uniform noise, for exercising
// the bandit averaging of the genetic engine. The registered instance
// draws from the shared rand/v2 stream; NoisySphereFrom gives callers
// a reproducible variant.
func NoisySphere(x []int64) (float64, error) {
	v, _ := Sphere(x)
	return v + rand.Float64() - 0.5, nil
}

// NoisySphereFrom returns a NoisySphere drawing its noise from rng.
// The returned objective is not safe for concurrent use; give each
// study its own.
func NoisySphereFrom(rng *rand.Rand) search.Objective {
	return func(x []int64) (float64, error) {
		v, _ := Sphere(x)
		return v + rng.Float64() - 0.5, nil
	}
}

var registry = map[string]search.Objective{
	"sphere":       Sphere,
	"rosenbrock":   Rosenbrock,
	"noisy-sphere": NoisySphere,
}

// Lookup returns the objective registered under name.
func Lookup(name string) (search.Objective, error) {
	obj, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return obj, nil
}

// Names returns the registered objective names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
