// Package placement finds a clear spot to spawn something.
//
// A Strategy proposes candidates, a Check decides whether a candidate is
// free, and Search tries at most maxAttempts candidates before giving up.
// Randomness is always supplied by the caller.
package placement

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/udisondev/spawnpool/internal/model"
)

// DefaultMaxAttempts is the retry budget used by spawners.
const DefaultMaxAttempts = 5

var (
	// ErrExhausted means every attempt hit an occupied candidate.
	ErrExhausted = errors.New("placement: attempts exhausted")
	// ErrNoCandidates means the strategy has nothing to sample.
	ErrNoCandidates = errors.New("placement: no candidates")
	// ErrInvalidAttempts means maxAttempts was not positive.
	ErrInvalidAttempts = errors.New("placement: max attempts must be positive")
)

// Check reports whether a candidate location is clear.
type Check func(at model.Location) bool

// Result is a successful search.
type Result struct {
	Location model.Location
	Attempts int // candidates sampled, including the accepted one
}

// Search samples up to maxAttempts candidates from s and returns the first
// one clear passes. A nil clear accepts the first candidate.
//
// On ErrExhausted the returned Result carries Attempts == maxAttempts.
// A nil r is replaced by a fresh source for this call only.
func Search(r *rand.Rand, s Strategy, clear Check, maxAttempts int) (Result, error) {
	if maxAttempts <= 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidAttempts, maxAttempts)
	}
	if s == nil {
		return Result{}, ErrNoCandidates
	}
	if err := s.Validate(); err != nil {
		return Result{}, err
	}
	if r == nil {
		r = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		loc, ok := s.Sample(r)
		if !ok {
			return Result{Attempts: attempt}, ErrNoCandidates
		}
		if clear == nil || clear(loc) {
			return Result{Location: loc, Attempts: attempt}, nil
		}
	}
	return Result{Attempts: maxAttempts}, ErrExhausted
}
