// Package sim runs the simulation step: refresh the active index, gather
// unique candidate pairs, resolve contacts and integrate motion.
package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/broadphase/internal/broadphase"
	"github.com/tomz197/broadphase/internal/config"
	"github.com/tomz197/broadphase/internal/physics"
)

// Stats describes the most recent Step.
type Stats struct {
	Tick       uint64        `msgpack:"tick"`
	Candidates int           `msgpack:"candidates"` // query results, before dedup
	Checks     int           `msgpack:"checks"`     // unique pairs tested by the narrow phase
	Contacts   int           `msgpack:"contacts"`   // pairs that actually overlapped
	Duration   time.Duration `msgpack:"duration"`
}

// Simulation owns the bodies and the active index. It is not safe for
// concurrent use.
type Simulation struct {
	cfg    config.Config
	kind   broadphase.Kind
	rng    *rand.Rand
	logger *log.Logger

	bodies   []*physics.Body
	slots    map[uint64]int // body ID -> slot in bodies
	touching []int32        // contacts per slot in the last Step
	index    broadphase.Index

	tick   uint64
	stats  Stats
	seen   map[uint64]struct{}
	pairs  []candidatePair
	nearby []*physics.Body
}

type candidatePair struct {
	a, b int
}

type Option func(*Simulation)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *log.Logger) Option {
	return func(s *Simulation) {
		s.logger = logger
	}
}

// WithRand replaces the random source used to place bodies.
func WithRand(rng *rand.Rand) Option {
	return func(s *Simulation) {
		s.rng = rng
	}
}

// New validates cfg and creates a simulation with freshly placed bodies.
func New(cfg config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		seen: make(map[uint64]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.rng == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		s.rng = rand.New(rand.NewSource(seed))
	}

	if err := s.reset(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset places a new set of bodies and rebuilds the index.
func (s *Simulation) Reset() error {
	return s.reset(s.cfg)
}

// SetBroadphase switches the active variant. This is a full reset.
func (s *Simulation) SetBroadphase(kind broadphase.Kind) error {
	cfg := s.cfg
	cfg.Broadphase = kind.String()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.reset(cfg)
}

// SetBodyCount changes the number of bodies. This is a full reset.
func (s *Simulation) SetBodyCount(n int) error {
	cfg := s.cfg
	cfg.BodyCount = n
	if err := cfg.Validate(); err != nil {
		return err
	}
	return s.reset(cfg)
}

// SetBodyRadius resizes every body in place and refreshes the index.
func (s *Simulation) SetBodyRadius(r float64) error {
	cfg := s.cfg
	cfg.BodyRadius = r
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, b := range s.bodies {
		if err := b.SetRadius(r); err != nil {
			return err
		}
	}
	s.cfg = cfg
	s.index.Update()
	return nil
}

func (s *Simulation) reset(cfg config.Config) error {
	kind, err := cfg.Kind()
	if err != nil {
		return err
	}
	index, err := broadphase.New(kind, cfg.IndexOptions())
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	bodies := make([]*physics.Body, cfg.BodyCount)
	r := cfg.BodyRadius
	for i := range bodies {
		x := r + s.rng.Float64()*(cfg.WorldWidth-2*r)
		y := r + s.rng.Float64()*(cfg.WorldHeight-2*r)
		b, err := physics.NewBodyWithDensity(x, y, r, cfg.Density)
		if err != nil {
			return err
		}
		b.Velocity = physics.Vector{
			X: (s.rng.Float64() - 0.5) * cfg.MaxSpeed,
			Y: (s.rng.Float64() - 0.5) * cfg.MaxSpeed,
		}
		bodies[i] = b
	}

	s.cfg = cfg
	s.kind = kind
	s.index = index
	s.bodies = bodies
	s.touching = make([]int32, len(bodies))
	s.slots = make(map[uint64]int, len(bodies))
	for i, b := range bodies {
		s.slots[b.ID] = i
		index.Insert(b)
	}
	index.Update()
	s.stats = Stats{Tick: s.tick}

	s.logger.Debug("simulation reset", "broadphase", kind, "bodies", len(bodies), "radius", r)
	return nil
}

// Step advances the simulation by dt seconds.
func (s *Simulation) Step(dt float64) Stats {
	start := time.Now()
	s.tick++
	st := Stats{Tick: s.tick}

	s.index.Update()

	st.Candidates = s.gather()
	st.Checks = len(s.pairs)

	clear(s.touching)
	for _, p := range s.pairs {
		c, ok := physics.TestOverlap(s.bodies[p.a], s.bodies[p.b])
		if !ok {
			continue
		}
		st.Contacts++
		s.touching[p.a]++
		s.touching[p.b]++
		physics.ResolveVelocity(c)
		physics.ResolvePosition(c)
	}

	w, h := s.cfg.WorldWidth, s.cfg.WorldHeight
	for _, b := range s.bodies {
		integrateAndClamp(b, dt, w, h)
	}

	st.Duration = time.Since(start)
	s.stats = st
	return st
}

// gather collects every unique candidate pair into s.pairs in discovery
// order and returns the number of raw query results.
func (s *Simulation) gather() int {
	clear(s.seen)
	s.pairs = s.pairs[:0]
	n := uint64(len(s.bodies))
	candidates := 0

	for i, b := range s.bodies {
		s.nearby = s.index.Query(b, s.nearby[:0])
		candidates += len(s.nearby)

		for _, other := range s.nearby {
			j, ok := s.slots[other.ID]
			if !ok {
				continue
			}
			lo, hi := min(i, j), max(i, j)
			key := uint64(lo)*n + uint64(hi)
			if _, dup := s.seen[key]; dup {
				continue
			}
			s.seen[key] = struct{}{}
			s.pairs = append(s.pairs, candidatePair{lo, hi})
		}
	}
	clear(s.nearby)
	return candidates
}

// integrateAndClamp keeps b inside the world, reflecting the velocity on
// the clamped axis, then advances it by dt.
func integrateAndClamp(b *physics.Body, dt, worldW, worldH float64) {
	r := b.Radius
	p, v := b.Position, b.Velocity

	if p.X < r {
		p.X = r
		v.X = -v.X
	} else if p.X > worldW-r {
		p.X = worldW - r
		v.X = -v.X
	}

	if p.Y < r {
		p.Y = r
		v.Y = -v.Y
	} else if p.Y > worldH-r {
		p.Y = worldH - r
		v.Y = -v.Y
	}

	b.Position, b.Velocity = p, v
	b.Integrate(dt)
}

// Bodies returns the simulated bodies. Callers must not modify them.
func (s *Simulation) Bodies() []*physics.Body { return s.bodies }

// Index returns the active index.
func (s *Simulation) Index() broadphase.Index { return s.index }

// Kind returns the active variant.
func (s *Simulation) Kind() broadphase.Kind { return s.kind }

// Config returns the configuration currently in effect.
func (s *Simulation) Config() config.Config { return s.cfg }

// Stats returns the statistics of the last Step.
func (s *Simulation) Stats() Stats { return s.stats }

// Tick returns the number of steps taken since New.
func (s *Simulation) Tick() uint64 { return s.tick }
