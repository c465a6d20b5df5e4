// Package random picks integers and samples for effects. A Source built from
// a seed string replays the same sequence, which keeps drawings reproducible
// in tests.
package random

import (
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

var ErrEmptyTarget = errors.New("target must not be empty")

// Source is safe for concurrent use.
type Source struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Source seeded from seed.
func New(seed string) *Source {
	h := xxhash.Sum64String(seed)
	return &Source{rng: rand.New(rand.NewPCG(h, h^0x9e3779b97f4a7c15))}
}

// NewTimeSeeded returns a Source seeded from the current time.
func NewTimeSeeded() *Source {
	return New(time.Now().Format(time.RFC3339Nano))
}

// Integer returns a uniform integer in [min, max]. The bounds may be given in
// either order.
func (s *Source) Integer(min, max int) int {
	if min > max {
		min, max = max, min
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return min + s.rng.IntN(max-min+1)
}

// Float returns a uniform float in [0, 1).
func (s *Source) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Sample returns a uniformly chosen element of target.
func Sample[T any](s *Source, target []T) (T, error) {
	if len(target) == 0 {
		var zero T
		return zero, ErrEmptyTarget
	}
	return target[s.Integer(0, len(target)-1)], nil
}
