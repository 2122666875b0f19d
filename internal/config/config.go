package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/spawnpool/internal/model"
	"github.com/udisondev/spawnpool/internal/pool"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Strategy kinds.
const (
	StrategyPoints = "points"
	StrategyVolume = "volume"
)

// Spawnd holds all configuration for the spawn daemon.
type Spawnd struct {
	LogLevel     string        `yaml:"log_level"`
	TickInterval time.Duration `yaml:"tick_interval"`

	World WorldConfig `yaml:"world"`

	// Database is optional; without it named point sets cannot be resolved.
	Database *DatabaseConfig `yaml:"database"`

	Pools    []PoolConfig    `yaml:"pools"`
	Spawners []SpawnerConfig `yaml:"spawners"`
}

// WorldConfig is the extent of the occupancy grid.
type WorldConfig struct {
	MinX  int32 `yaml:"min_x"`
	MinY  int32 `yaml:"min_y"`
	MaxX  int32 `yaml:"max_x"`
	MaxY  int32 `yaml:"max_y"`
	Shift uint  `yaml:"shift"` // 2^shift units per region
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// PoolConfig describes one instance pool and the instances it creates.
type PoolConfig struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"` // pre-warmed instances
	MaxSize  int    `yaml:"max_size"`
	Overflow string `yaml:"overflow"` // reject (default) or allow

	// Instance parameters
	BodyRadius  int32         `yaml:"body_radius"`
	MinLifetime time.Duration `yaml:"min_lifetime"`
	MaxLifetime time.Duration `yaml:"max_lifetime"`
}

// SpawnerConfig describes one spawn controller.
type SpawnerConfig struct {
	Name    string `yaml:"name"`
	Pool    string `yaml:"pool"`
	Enabled bool   `yaml:"enabled"`

	Ceiling     int           `yaml:"ceiling"`
	MinInterval time.Duration `yaml:"min_interval"`
	MaxInterval time.Duration `yaml:"max_interval"`

	RequireClearance bool  `yaml:"require_clearance"`
	CheckRadius      int32 `yaml:"check_radius"`
	MaxAttempts      int   `yaml:"max_attempts"` // 0 = default (5)

	Strategy StrategyConfig `yaml:"strategy"`

	// Body is the spawner's own collider, excluded from its clearance checks.
	Body *ShapeConfig `yaml:"body"`
}

// StrategyConfig selects where candidates come from.
type StrategyConfig struct {
	Kind string `yaml:"kind"` // points or volume

	// points
	Points     []PointConfig `yaml:"points"`
	PointSet   string        `yaml:"point_set"` // loaded from the database
	Sequential bool          `yaml:"sequential"`

	// volume
	Box           *BoxConfig    `yaml:"box"`
	Sphere        *SphereConfig `yaml:"sphere"`
	Heading       uint16        `yaml:"heading"`
	RandomHeading bool          `yaml:"random_heading"`
}

// ShapeConfig is a box or a sphere.
type ShapeConfig struct {
	Box    *BoxConfig    `yaml:"box"`
	Sphere *SphereConfig `yaml:"sphere"`
}

// PointConfig is a location with heading.
type PointConfig struct {
	X       int32  `yaml:"x"`
	Y       int32  `yaml:"y"`
	Z       int32  `yaml:"z"`
	Heading uint16 `yaml:"heading"`
}

// BoxConfig is an axis-aligned box given by center and half sizes.
type BoxConfig struct {
	Center PointConfig `yaml:"center"`
	HalfX  int32       `yaml:"half_x"`
	HalfY  int32       `yaml:"half_y"`
	HalfZ  int32       `yaml:"half_z"`
}

// SphereConfig is a sphere given by center and radius.
type SphereConfig struct {
	Center PointConfig `yaml:"center"`
	Radius int32       `yaml:"radius"`
}

// Location converts the point to a model location.
func (p PointConfig) Location() model.Location {
	return model.NewLocation(p.X, p.Y, p.Z, p.Heading)
}

// Shape converts the box to a model shape.
func (b BoxConfig) Shape() model.Shape {
	return model.Box(b.Center.Location(), model.Extents{X: b.HalfX, Y: b.HalfY, Z: b.HalfZ})
}

// Shape converts the sphere to a model shape.
func (s SphereConfig) Shape() model.Shape {
	return model.Sphere(s.Center.Location(), s.Radius)
}

// Shape returns the configured shape; box wins if both are set
// (Validate rejects that).
func (s ShapeConfig) Shape() (model.Shape, bool) {
	switch {
	case s.Box != nil:
		return s.Box.Shape(), true
	case s.Sphere != nil:
		return s.Sphere.Shape(), true
	}
	return model.Shape{}, false
}

// Locations converts the inline points.
func (s StrategyConfig) Locations() []model.Location {
	out := make([]model.Location, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Location()
	}
	return out
}

// DefaultSpawnd returns a config with one demo pool and spawner.
func DefaultSpawnd() Spawnd {
	return Spawnd{
		LogLevel:     "info",
		TickInterval: 100 * time.Millisecond,
		World: WorldConfig{
			MinX:  -131072,
			MinY:  -262144,
			MaxX:  196608,
			MaxY:  229376,
			Shift: 11,
		},
		Pools: []PoolConfig{
			{
				Name:        "wolf",
				Capacity:    5,
				MaxSize:     10,
				Overflow:    "reject",
				BodyRadius:  16,
				MinLifetime: 20 * time.Second,
				MaxLifetime: 60 * time.Second,
			},
		},
		Spawners: []SpawnerConfig{
			{
				Name:             "wolf-den",
				Pool:             "wolf",
				Enabled:          true,
				Ceiling:          5,
				MinInterval:      2 * time.Second,
				MaxInterval:      5 * time.Second,
				RequireClearance: true,
				CheckRadius:      32,
				Strategy: StrategyConfig{
					Kind: StrategyVolume,
					Sphere: &SphereConfig{
						Center: PointConfig{X: 17000, Y: 170000, Z: -3500},
						Radius: 600,
					},
					RandomHeading: true,
				},
				Body: &ShapeConfig{
					Sphere: &SphereConfig{
						Center: PointConfig{X: 17000, Y: 170000, Z: -3500},
						Radius: 200,
					},
				},
			},
		},
	}
}

// LoadSpawnd loads spawn daemon config from a YAML file.
// If the file doesn't exist, returns defaults including the demo spawner.
func LoadSpawnd(path string) (Spawnd, error) {
	cfg := DefaultSpawnd()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	// a config file brings its own pools and spawners
	cfg.Pools, cfg.Spawners = nil, nil
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks structure and cross references. Spawner timing and
// ceiling values are left to the spawn controller, which reports them as
// configuration errors of that spawner only.
func (c Spawnd) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("%w: tick_interval %s", ErrInvalid, c.TickInterval)
	}
	if c.World.MinX >= c.World.MaxX || c.World.MinY >= c.World.MaxY {
		return fmt.Errorf("%w: world bounds", ErrInvalid)
	}

	pools := make(map[string]bool, len(c.Pools))
	for i, p := range c.Pools {
		if p.Name == "" {
			return fmt.Errorf("%w: pools[%d]: empty name", ErrInvalid, i)
		}
		if pools[p.Name] {
			return fmt.Errorf("%w: pool %q: duplicate name", ErrInvalid, p.Name)
		}
		pools[p.Name] = true

		if p.MaxSize <= 0 || p.Capacity < 0 || p.Capacity > p.MaxSize {
			return fmt.Errorf("%w: pool %q: capacity %d, max_size %d", ErrInvalid, p.Name, p.Capacity, p.MaxSize)
		}
		if _, err := pool.ParseOverflowPolicy(p.Overflow); err != nil {
			return fmt.Errorf("%w: pool %q: %w", ErrInvalid, p.Name, err)
		}
		if p.BodyRadius < 0 {
			return fmt.Errorf("%w: pool %q: body_radius %d", ErrInvalid, p.Name, p.BodyRadius)
		}
		if p.MinLifetime < 0 || p.MaxLifetime < p.MinLifetime {
			return fmt.Errorf("%w: pool %q: lifetime [%s, %s]", ErrInvalid, p.Name, p.MinLifetime, p.MaxLifetime)
		}
	}

	spawners := make(map[string]bool, len(c.Spawners))
	for i, s := range c.Spawners {
		if s.Name == "" {
			return fmt.Errorf("%w: spawners[%d]: empty name", ErrInvalid, i)
		}
		if spawners[s.Name] {
			return fmt.Errorf("%w: spawner %q: duplicate name", ErrInvalid, s.Name)
		}
		spawners[s.Name] = true

		if !pools[s.Pool] {
			return fmt.Errorf("%w: spawner %q: unknown pool %q", ErrInvalid, s.Name, s.Pool)
		}
		if err := s.Strategy.validate(); err != nil {
			return fmt.Errorf("%w: spawner %q: %w", ErrInvalid, s.Name, err)
		}
		if s.Body != nil {
			if err := s.Body.validate(); err != nil {
				return fmt.Errorf("%w: spawner %q: body: %w", ErrInvalid, s.Name, err)
			}
		}
	}
	return nil
}

func (s StrategyConfig) validate() error {
	switch s.Kind {
	case StrategyPoints:
		if s.Box != nil || s.Sphere != nil {
			return errors.New("points strategy takes no box or sphere")
		}
		if s.PointSet != "" && len(s.Points) > 0 {
			return errors.New("points and point_set are exclusive")
		}
	case StrategyVolume:
		if len(s.Points) > 0 || s.PointSet != "" {
			return errors.New("volume strategy takes no points")
		}
		return ShapeConfig{Box: s.Box, Sphere: s.Sphere}.validate()
	default:
		return fmt.Errorf("unknown strategy kind %q", s.Kind)
	}
	return nil
}

func (s ShapeConfig) validate() error {
	if (s.Box == nil) == (s.Sphere == nil) {
		return errors.New("exactly one of box or sphere required")
	}
	shape, _ := s.Shape()
	return shape.Validate()
}
