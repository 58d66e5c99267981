package sim

import (
	"github.com/tomz197/broadphase/internal/broadphase"
	"github.com/tomz197/broadphase/internal/physics"
)

// BodyState is a copy of the renderable and recordable state of one body.
type BodyState struct {
	ID       uint64  `msgpack:"id"`
	X        float64 `msgpack:"x"`
	Y        float64 `msgpack:"y"`
	VX       float64 `msgpack:"vx"`
	VY       float64 `msgpack:"vy"`
	Radius   float64 `msgpack:"r"`
	Contacts int32   `msgpack:"contacts"` // pairs resolved in the last step
}

type World struct {
	Width  float64 `msgpack:"w"`
	Height float64 `msgpack:"h"`
}

// Snapshot is an immutable copy of the simulation, safe to hand to other
// goroutines.
type Snapshot struct {
	Tick     uint64          `msgpack:"tick"`
	Kind     broadphase.Kind `msgpack:"kind"`
	World    World           `msgpack:"world"`
	Bodies   []BodyState     `msgpack:"bodies"`
	Outlines []physics.Bound `msgpack:"-"`
	Stats    Stats           `msgpack:"stats"`
}

// Snapshot copies the current state. Index outlines are only collected when
// withOutlines is set and the active index supports them.
func (s *Simulation) Snapshot(withOutlines bool) *Snapshot {
	snap := &Snapshot{
		Tick:   s.tick,
		Kind:   s.kind,
		World:  World{Width: s.cfg.WorldWidth, Height: s.cfg.WorldHeight},
		Bodies: make([]BodyState, len(s.bodies)),
		Stats:  s.stats,
	}
	for i, b := range s.bodies {
		snap.Bodies[i] = BodyState{
			ID:       b.ID,
			X:        b.Position.X,
			Y:        b.Position.Y,
			VX:       b.Velocity.X,
			VY:       b.Velocity.Y,
			Radius:   b.Radius,
			Contacts: s.touching[i],
		}
	}
	if o, ok := s.index.(broadphase.Outliner); ok && withOutlines {
		o.Outline(func(b physics.Bound) {
			snap.Outlines = append(snap.Outlines, b)
		})
	}
	return snap
}
