package param

import (
	"fmt"
	"sync"

	"golang.org/x/exp/constraints"
)

// Space is an ordered, append-only registry of parameter declarations.
// The i-th declaration owns the i-th bounds pair, and an objective
// function receives its arguments in that same order.
//
// A Space is an explicit value: studies share declarations only when
// they are handed the same Space. It is safe for concurrent use.
type Space struct {
	mu     sync.RWMutex
	decls  []Declaration
	bounds [][2]int64 // cached derivation, nil when stale
}

// NewSpace returns an empty Space.
func NewSpace() *Space { return &Space{} }

// SuggestInt registers one integer parameter with the inclusive domain
// [low, high]. All validation happens here, eagerly: once a
// declaration is accepted, Bounds can never fail because of it.
func (s *Space) SuggestInt(name string, low, high int64) error {
	return s.SuggestIntN(name, low, high, 1)
}

// SuggestIntN registers size declarations sharing the same bounds,
// equivalent to calling SuggestInt size times in a row.
func (s *Space) SuggestIntN(name string, low, high int64, size int) error {
	if size < 1 {
		return fmt.Errorf("%w: got %d", ErrNonPositiveSize, size)
	}
	if low == high {
		return fmt.Errorf("%w: got [%d, %d]", ErrEmptyDomain, low, high)
	}
	if low > high {
		return fmt.Errorf("%w: got [%d, %d]", ErrInvertedDomain, low, high)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < size; i++ {
		s.decls = append(s.decls, Declaration{Name: name, Low: low, High: high})
	}
	s.bounds = nil
	return nil
}

// SuggestInt registers one parameter of any integer type into space.
// The type constraint is what makes a fractional bound impossible to
// express from typed Go code; untyped inputs go through Space.Apply
// instead, where the same rule is enforced at runtime.
func SuggestInt[T constraints.Integer](space *Space, name string, low, high T) error {
	return space.SuggestInt(name, int64(low), int64(high))
}

// Bounds returns the (low, high) pair of every declaration in
// insertion order. The derived list is cached until the next
// declaration and copied on every read, so consecutive reads with no
// intervening declarations are equal by value.
func (s *Space) Bounds() [][2]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bounds == nil {
		s.bounds = make([][2]int64, len(s.decls))
		for i, d := range s.decls {
			s.bounds[i] = [2]int64{d.Low, d.High}
		}
	}

	out := make([][2]int64, len(s.bounds))
	copy(out, s.bounds)
	return out
}

// Declarations returns a copy of the registry in insertion order.
func (s *Space) Declarations() []Declaration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Declaration, len(s.decls))
	copy(out, s.decls)
	return out
}

// Len returns the number of declarations.
func (s *Space) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.decls)
}

// Reset drops every declaration. Callers that want a fresh space
// between optimization runs reset explicitly; nothing is reused
// implicitly behind their back.
func (s *Space) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decls = nil
	s.bounds = nil
}
