package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/tomz197/broadphase/internal/broadphase"
)

// EnvPrefix prefixes every environment override, e.g. BROADPHASE_BODY_COUNT.
const EnvPrefix = "BROADPHASE_"

var ErrInvalidConfig = errors.New("invalid config")

// Config is the explicit configuration of one simulation.
type Config struct {
	Broadphase string  `toml:"broadphase"`  // variant name, see broadphase.ParseKind
	BodyCount  int     `toml:"body_count"`  // number of bodies created on reset
	BodyRadius float64 `toml:"body_radius"` // unit: world units
	Density    float64 `toml:"density"`     // mass per unit area
	MaxSpeed   float64 `toml:"max_speed"`   // initial speed per axis is within ±MaxSpeed/2

	WorldWidth  float64 `toml:"world_width"`
	WorldHeight float64 `toml:"world_height"`

	// Index parameters
	CellSize        float64 `toml:"cell_size"`         // grid and hashed grid cell side
	HashTableFactor int     `toml:"hash_table_factor"` // hashed grid buckets per body
	QuadCapacity    int     `toml:"quad_capacity"`     // bodies per quadtree leaf before a split
	QuadMaxDepth    int     `toml:"quad_max_depth"`

	TickRate int    `toml:"tick_rate"` // simulation steps per second
	Seed     int64  `toml:"seed"`      // 0 picks a time based seed
	LogLevel string `toml:"log_level"`
}

// Default returns the configuration of the reference demo: an 800x600
// world, 20 unit cells and a quadtree leaf capacity of 4.
func Default() Config {
	return Config{
		Broadphase:      broadphase.UniformGrid.String(),
		BodyCount:       500,
		BodyRadius:      5,
		Density:         1000,
		MaxSpeed:        100,
		WorldWidth:      800,
		WorldHeight:     600,
		CellSize:        20,
		HashTableFactor: 2,
		QuadCapacity:    4,
		QuadMaxDepth:    broadphase.DefaultQuadMaxDepth,
		TickRate:        60,
		LogLevel:        "info",
	}
}

// Load decodes the TOML file at path over the defaults. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ApplyEnv overrides fields from BROADPHASE_* environment variables.
func (c *Config) ApplyEnv() error {
	var err error
	c.Broadphase = GetEnv(EnvPrefix+"BROADPHASE", c.Broadphase)
	c.LogLevel = GetEnv(EnvPrefix+"LOG_LEVEL", c.LogLevel)

	ints := []struct {
		key string
		dst *int
	}{
		{"BODY_COUNT", &c.BodyCount},
		{"HASH_TABLE_FACTOR", &c.HashTableFactor},
		{"QUAD_CAPACITY", &c.QuadCapacity},
		{"QUAD_MAX_DEPTH", &c.QuadMaxDepth},
		{"TICK_RATE", &c.TickRate},
	}
	for _, f := range ints {
		if *f.dst, err = GetEnvInt(EnvPrefix+f.key, *f.dst); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{"BODY_RADIUS", &c.BodyRadius},
		{"DENSITY", &c.Density},
		{"MAX_SPEED", &c.MaxSpeed},
		{"WORLD_WIDTH", &c.WorldWidth},
		{"WORLD_HEIGHT", &c.WorldHeight},
		{"CELL_SIZE", &c.CellSize},
	}
	for _, f := range floats {
		if *f.dst, err = GetEnvFloat(EnvPrefix+f.key, *f.dst); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	if seed := GetEnv(EnvPrefix+"SEED", ""); seed != "" {
		if c.Seed, err = strconv.ParseInt(seed, 10, 64); err != nil {
			return fmt.Errorf("%w: %sSEED: %w", ErrInvalidConfig, EnvPrefix, err)
		}
	}
	return nil
}

// Validate rejects configurations the simulation cannot run.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	_, kindErr := broadphase.ParseKind(c.Broadphase)
	check(kindErr == nil, "unknown broadphase %q", c.Broadphase)
	check(c.BodyCount >= 0, "body_count must be >= 0, got %d", c.BodyCount)
	check(c.BodyRadius > 0, "body_radius must be positive, got %v", c.BodyRadius)
	check(c.Density > 0, "density must be positive, got %v", c.Density)
	check(c.MaxSpeed >= 0, "max_speed must be >= 0, got %v", c.MaxSpeed)
	check(c.WorldWidth > 0 && c.WorldHeight > 0, "world must be positive, got %vx%v", c.WorldWidth, c.WorldHeight)
	check(c.CellSize > 0, "cell_size must be positive, got %v", c.CellSize)
	check(c.HashTableFactor > 0, "hash_table_factor must be positive, got %d", c.HashTableFactor)
	check(c.QuadCapacity >= 1, "quad_capacity must be >= 1, got %d", c.QuadCapacity)
	check(c.QuadMaxDepth >= 0, "quad_max_depth must be >= 0, got %d", c.QuadMaxDepth)
	check(c.TickRate > 0, "tick_rate must be positive, got %d", c.TickRate)
	check(2*c.BodyRadius <= c.WorldWidth && 2*c.BodyRadius <= c.WorldHeight,
		"bodies of radius %v do not fit a %vx%v world", c.BodyRadius, c.WorldWidth, c.WorldHeight)
	if c.LogLevel != "" {
		_, err := log.ParseLevel(c.LogLevel)
		check(err == nil, "unknown log_level %q", c.LogLevel)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Kind returns the parsed broadphase variant.
func (c Config) Kind() (broadphase.Kind, error) {
	return broadphase.ParseKind(c.Broadphase)
}

// IndexOptions derives the index construction options. The hashed grid
// table is sized from the body count at the time of the call.
func (c Config) IndexOptions() broadphase.Options {
	return broadphase.Options{
		WorldWidth:  c.WorldWidth,
		WorldHeight: c.WorldHeight,
		CellSize:    c.CellSize,
		TableSize:   max(c.HashTableFactor*c.BodyCount, 1),
		Capacity:    c.QuadCapacity,
		MaxDepth:    c.QuadMaxDepth,
	}
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Resolve builds the configuration a binary runs with: the defaults, or the
// TOML file at path when path is not empty, then environment overrides.
// The result is validated.
func Resolve(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
