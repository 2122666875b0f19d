package spawn

import (
	"errors"
	"fmt"
	"time"

	"github.com/udisondev/spawnpool/internal/model"
	"github.com/udisondev/spawnpool/internal/placement"
)

// Configuration errors. A controller holding one of these is inert until
// Reconfigure succeeds.
var (
	ErrNoSource        = errors.New("spawn: no resource source bound")
	ErrNoStrategy      = errors.New("spawn: no placement strategy")
	ErrInvalidInterval = errors.New("spawn: invalid interval")
	ErrInvalidCeiling  = errors.New("spawn: invalid ceiling")
	ErrInvalidRadius   = errors.New("spawn: invalid check radius")
	ErrNoOracle        = errors.New("spawn: clearance required but no oracle")
)

// Config describes one spawner.
type Config struct {
	Name    string
	Enabled bool // enable on construction

	Ceiling     int // max concurrently active instances
	MinInterval time.Duration
	MaxInterval time.Duration

	Strategy         placement.Strategy
	RequireClearance bool
	CheckRadius      int32
	MaxAttempts      int            // 0 means placement.DefaultMaxAttempts
	Self             model.ObjectID // spawner collider excluded from clearance checks
}

func (c Config) maxAttempts() int {
	if c.MaxAttempts == 0 {
		return placement.DefaultMaxAttempts
	}
	return c.MaxAttempts
}

func (c Config) validate() error {
	if c.Ceiling <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCeiling, c.Ceiling)
	}
	if c.MinInterval <= 0 || c.MaxInterval < c.MinInterval {
		return fmt.Errorf("%w: [%s, %s]", ErrInvalidInterval, c.MinInterval, c.MaxInterval)
	}
	if c.Strategy == nil {
		return ErrNoStrategy
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if c.CheckRadius < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRadius, c.CheckRadius)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("%w: %d", placement.ErrInvalidAttempts, c.MaxAttempts)
	}
	return nil
}
