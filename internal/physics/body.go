package physics

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// DefaultDensity is the density used by NewBody.
const DefaultDensity = 1000.0

var (
	ErrInvalidRadius  = errors.New("physics: radius must be positive")
	ErrInvalidDensity = errors.New("physics: density must be positive")
)

// Process-wide counters. IDs are never reused; generations are shared by
// every index so marks left by one index can never alias another's.
var (
	lastID         atomic.Uint64
	lastGeneration atomic.Uint64
)

// NextGeneration returns a fresh query generation stamp.
func NextGeneration() uint64 {
	return lastGeneration.Add(1)
}

// Body is a simulated circle. Bound is derived from Position and Radius and
// is refreshed by every method that moves or resizes the body.
type Body struct {
	ID          uint64
	Position    Vector
	Velocity    Vector
	Radius      float64
	Density     float64
	Mass        float64
	InverseMass float64
	Bound       Bound

	queryMark uint64 // last query generation that visited this body
}

// NewBody creates a body at (x, y) with DefaultDensity.
func NewBody(x, y, radius float64) (*Body, error) {
	return NewBodyWithDensity(x, y, radius, DefaultDensity)
}

// NewBodyWithDensity creates a body at (x, y). Mass is π·r²·density.
func NewBodyWithDensity(x, y, radius, density float64) (*Body, error) {
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRadius, radius)
	}
	if !(density > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidDensity, density)
	}

	b := &Body{
		ID:       lastID.Add(1),
		Position: Vector{x, y},
		Density:  density,
	}
	b.setRadius(radius)
	return b, nil
}

// SetRadius resizes the body, recomputing mass, inverse mass and bound.
func (b *Body) SetRadius(radius float64) error {
	if !(radius > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidRadius, radius)
	}
	b.setRadius(radius)
	return nil
}

func (b *Body) setRadius(radius float64) {
	b.Radius = radius
	b.Mass = radius * radius * math.Pi * b.Density
	b.InverseMass = 1 / b.Mass
	b.UpdateBound()
}

// SetPosition moves the body and refreshes its bound.
func (b *Body) SetPosition(p Vector) {
	b.Position = p
	b.UpdateBound()
}

// Integrate advances the position by velocity*dt and refreshes the bound.
func (b *Body) Integrate(dt float64) {
	b.Position = b.Position.AddScaled(b.Velocity, dt)
	b.UpdateBound()
}

// UpdateBound recomputes Bound from Position ± Radius.
func (b *Body) UpdateBound() {
	b.Bound = NewBoundForCircle(b.Position, b.Radius)
}

// Visit stamps the body with gen. It returns false if the body was already
// stamped with gen, i.e. it has been seen during the current query.
func (b *Body) Visit(gen uint64) bool {
	if b.queryMark == gen {
		return false
	}
	b.queryMark = gen
	return true
}
