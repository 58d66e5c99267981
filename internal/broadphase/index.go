// Package broadphase provides interchangeable spatial indices that narrow
// an all-pairs overlap search down to a small set of candidates.
package broadphase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomz197/broadphase/internal/physics"
)

var (
	ErrInvalidWorld     = errors.New("broadphase: world size must be positive")
	ErrInvalidCellSize  = errors.New("broadphase: cell size must be positive")
	ErrInvalidTableSize = errors.New("broadphase: table size must be positive")
	ErrInvalidCapacity  = errors.New("broadphase: invalid node capacity")
	ErrUnknownKind      = errors.New("broadphase: unknown index kind")
)

// Index maintains a spatial partition over registered bodies and answers
// "which bodies overlap this one" queries.
//
// Indices never own bodies. Positions may change freely between calls;
// Update re-synchronises the partition with the current bounds.
type Index interface {
	// Insert registers b. It returns false if b is already registered.
	Insert(b *physics.Body) bool
	// Remove unregisters b. It returns false if b was not registered.
	Remove(b *physics.Body) bool
	// Update re-synchronises membership after positions changed.
	Update()
	// Query appends every other registered body whose bound overlaps
	// b.Bound to out, each at most once, and returns the extended slice.
	Query(b *physics.Body, out []*physics.Body) []*physics.Body
	// Clear drops all membership but keeps the configuration.
	Clear()
	// Len returns the number of registered bodies.
	Len() int
	Kind() Kind
}

// Outliner is implemented by indices that can enumerate their internal
// rectangles (cells, nodes, sweep intervals) for visualisation.
type Outliner interface {
	Outline(fn func(physics.Bound))
}

// Kind selects an Index implementation.
type Kind int

const (
	Naive Kind = iota
	UniformGrid
	HashGrid
	QuadTree
	KDTree
	SweepAndPrune
)

// Kinds lists every variant in display order.
var Kinds = []Kind{UniformGrid, HashGrid, QuadTree, KDTree, SweepAndPrune, Naive}

var kindNames = [...]struct {
	name    string
	display string
}{
	Naive:         {"naive", "Naive"},
	UniformGrid:   {"grid", "Spatial Grid"},
	HashGrid:      {"hashgrid", "Spatial Hash Grid"},
	QuadTree:      {"quadtree", "QuadTree"},
	KDTree:        {"kdtree", "KD-Tree"},
	SweepAndPrune: {"sap", "Sweep And Prune"},
}

func (k Kind) valid() bool {
	return k >= 0 && int(k) < len(kindNames)
}

// String returns the canonical lower-case name used in configuration.
func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k].name
}

// DisplayName returns the human readable name shown in the viewer.
func (k Kind) DisplayName() string {
	if !k.valid() {
		return k.String()
	}
	return kindNames[k].display
}

// ParseKind accepts a canonical or display name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	for k, n := range kindNames {
		if strings.EqualFold(s, n.name) || strings.EqualFold(s, n.display) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Options configures index construction. Fields not used by a variant are
// ignored.
type Options struct {
	WorldWidth  float64
	WorldHeight float64
	CellSize    float64 // UniformGrid, HashGrid
	TableSize   int     // HashGrid
	Capacity    int     // QuadTree
	MaxDepth    int     // QuadTree
}

// New constructs the index selected by kind.
func New(kind Kind, opts Options) (Index, error) {
	switch kind {
	case Naive:
		return NewNaive(), nil
	case UniformGrid:
		return NewGrid(opts.WorldWidth, opts.WorldHeight, opts.CellSize)
	case HashGrid:
		return NewHashGrid(opts.CellSize, opts.TableSize)
	case QuadTree:
		return NewQuadTree(opts.WorldWidth, opts.WorldHeight, opts.Capacity, opts.MaxDepth)
	case KDTree:
		return NewKDTree(), nil
	case SweepAndPrune:
		return NewSAP(), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
}

func validateWorld(w, h float64) error {
	if !(w > 0) || !(h > 0) {
		return fmt.Errorf("%w: %vx%v", ErrInvalidWorld, w, h)
	}
	return nil
}

func validateCellSize(s float64) error {
	if !(s > 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidCellSize, s)
	}
	return nil
}

// registry tracks membership in registration order. Removal swaps the last
// body into the vacated slot.
type registry struct {
	bodies []*physics.Body
	slots  map[uint64]int
}

func newRegistry() registry {
	return registry{slots: make(map[uint64]int)}
}

func (r *registry) add(b *physics.Body) bool {
	if _, ok := r.slots[b.ID]; ok {
		return false
	}
	r.slots[b.ID] = len(r.bodies)
	r.bodies = append(r.bodies, b)
	return true
}

func (r *registry) remove(b *physics.Body) bool {
	i, ok := r.slots[b.ID]
	if !ok {
		return false
	}
	last := len(r.bodies) - 1
	if i != last {
		r.bodies[i] = r.bodies[last]
		r.slots[r.bodies[i].ID] = i
	}
	r.bodies[last] = nil
	r.bodies = r.bodies[:last]
	delete(r.slots, b.ID)
	return true
}

func (r *registry) has(b *physics.Body) bool {
	_, ok := r.slots[b.ID]
	return ok
}

func (r *registry) reset() {
	clear(r.bodies)
	r.bodies = r.bodies[:0]
	clear(r.slots)
}
