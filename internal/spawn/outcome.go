package spawn

import "fmt"

// Outcome is the result of one spawn attempt.
type Outcome uint8

const (
	// OutcomeInert means the controller holds a configuration error.
	OutcomeInert Outcome = iota
	OutcomeSuccess
	// OutcomeNoCapacity means the ceiling was reached; no search ran.
	OutcomeNoCapacity
	// OutcomeSearchExhausted means no candidate cleared within max attempts.
	OutcomeSearchExhausted
	// OutcomeNoResource means the source refused to hand out an instance.
	OutcomeNoResource
	// OutcomePlaceFailed means the instance could not be placed and went
	// back to the source.
	OutcomePlaceFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInert:
		return "inert"
	case OutcomeSuccess:
		return "success"
	case OutcomeNoCapacity:
		return "no_capacity"
	case OutcomeSearchExhausted:
		return "search_exhausted"
	case OutcomeNoResource:
		return "no_resource"
	case OutcomePlaceFailed:
		return "place_failed"
	default:
		return fmt.Sprintf("Outcome(%d)", o)
	}
}

// Stats counts attempt outcomes and destructions since construction.
type Stats struct {
	Attempts    uint64
	Spawned     uint64
	NoCapacity  uint64
	Exhausted   uint64
	NoResource  uint64
	PlaceFailed uint64
	Destroyed   uint64
}

func (s *Stats) record(o Outcome) {
	s.Attempts++
	switch o {
	case OutcomeSuccess:
		s.Spawned++
	case OutcomeNoCapacity:
		s.NoCapacity++
	case OutcomeSearchExhausted:
		s.Exhausted++
	case OutcomeNoResource:
		s.NoResource++
	case OutcomePlaceFailed:
		s.PlaceFailed++
	}
}
