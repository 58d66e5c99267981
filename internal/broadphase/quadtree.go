package broadphase

import (
	"fmt"

	"github.com/tomz197/broadphase/internal/physics"
)

// DefaultQuadMaxDepth bounds subdivision when no depth is configured.
const DefaultQuadMaxDepth = 8

// QuadTreeIndex is a region quadtree rebuilt from the registered bodies on
// every Update. A leaf splits into four equal quadrants once it holds more
// than capacity bodies while its depth is at most maxDepth, so leaves reach
// depth maxDepth+1 at the deepest. On a split every
// body moves down into each child its bound overlaps, so only leaves store
// bodies.
type QuadTreeIndex struct {
	reg      registry
	world    physics.Bound
	capacity int
	maxDepth int

	nodes []quadNode
	stack []int32
	dirty bool
}

type quadNode struct {
	bound    physics.Bound
	depth    int
	children int32 // index of the first of four children, -1 for a leaf
	items    []*physics.Body
}

func (n *quadNode) leaf() bool { return n.children < 0 }

// NewQuadTree creates a quadtree over the world rectangle. A maxDepth of 0
// means DefaultQuadMaxDepth.
func NewQuadTree(worldW, worldH float64, capacity, maxDepth int) (*QuadTreeIndex, error) {
	if err := validateWorld(worldW, worldH); err != nil {
		return nil, err
	}
	if capacity < 1 {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidCapacity, capacity)
	}
	if maxDepth < 0 {
		return nil, fmt.Errorf("%w: max depth %d", ErrInvalidCapacity, maxDepth)
	}
	if maxDepth == 0 {
		maxDepth = DefaultQuadMaxDepth
	}

	q := &QuadTreeIndex{
		reg:      newRegistry(),
		world:    physics.NewBound(0, 0, worldW, worldH),
		capacity: capacity,
		maxDepth: maxDepth,
	}
	q.reset(q.world)
	return q, nil
}

func (q *QuadTreeIndex) Kind() Kind { return QuadTree }
func (q *QuadTreeIndex) Len() int   { return len(q.reg.bodies) }

func (q *QuadTreeIndex) Insert(b *physics.Body) bool {
	if !q.reg.add(b) {
		return false
	}
	q.dirty = true
	return true
}

func (q *QuadTreeIndex) Remove(b *physics.Body) bool {
	if !q.reg.remove(b) {
		return false
	}
	q.dirty = true
	return true
}

func (q *QuadTreeIndex) Clear() {
	q.reg.reset()
	q.reset(q.world)
	q.dirty = false
}

// Update clears the tree and inserts every registered body again. The root
// grows to cover bodies that have left the world rectangle.
func (q *QuadTreeIndex) Update() {
	root := q.world
	for _, b := range q.reg.bodies {
		root = root.Merge(b.Bound)
	}
	q.reset(root)
	for _, b := range q.reg.bodies {
		q.insert(0, b)
	}
	q.dirty = false
}

func (q *QuadTreeIndex) Query(b *physics.Body, out []*physics.Body) []*physics.Body {
	if q.dirty {
		q.Update()
	}

	gen := physics.NextGeneration()
	b.Visit(gen)

	stack := append(q.stack[:0], 0)
	for len(stack) > 0 {
		n := &q.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if !n.bound.Overlaps(b.Bound) {
			continue
		}
		if !n.leaf() {
			stack = append(stack, n.children, n.children+1, n.children+2, n.children+3)
			continue
		}
		for _, other := range n.items {
			if other.Visit(gen) && other.Bound.Overlaps(b.Bound) {
				out = append(out, other)
			}
		}
	}
	q.stack = stack
	return out
}

// Outline reports the rectangle of every node.
func (q *QuadTreeIndex) Outline(fn func(physics.Bound)) {
	for i := range q.nodes {
		fn(q.nodes[i].bound)
	}
}

// reset drops every node but keeps the item slices of the arena for reuse.
func (q *QuadTreeIndex) reset(root physics.Bound) {
	for i := range q.nodes {
		clear(q.nodes[i].items)
	}
	q.nodes = q.nodes[:0]
	q.newNode(root, 0)
}

func (q *QuadTreeIndex) newNode(bound physics.Bound, depth int) int32 {
	idx := int32(len(q.nodes))
	if len(q.nodes) < cap(q.nodes) {
		q.nodes = q.nodes[:idx+1]
		n := &q.nodes[idx]
		n.bound, n.depth, n.children = bound, depth, -1
		n.items = n.items[:0]
	} else {
		q.nodes = append(q.nodes, quadNode{bound: bound, depth: depth, children: -1})
	}
	return idx
}

func (q *QuadTreeIndex) insert(idx int32, b *physics.Body) {
	n := &q.nodes[idx]
	if !n.bound.Overlaps(b.Bound) {
		return
	}
	if !n.leaf() {
		first := n.children
		for c := first; c < first+4; c++ {
			q.insert(c, b)
		}
		return
	}

	n.items = append(n.items, b)
	if len(n.items) > q.capacity && n.depth <= q.maxDepth {
		q.split(idx)
	}
}

// split turns a leaf into four quadrants and moves its bodies down.
func (q *QuadTreeIndex) split(idx int32) {
	bd, depth := q.nodes[idx].bound, q.nodes[idx].depth
	midX := bd.MinX + bd.Width()/2
	midY := bd.MinY + bd.Height()/2

	// newNode may grow the arena, so node pointers are not held across it.
	first := q.newNode(physics.NewBound(bd.MinX, bd.MinY, midX, midY), depth+1)
	q.newNode(physics.NewBound(midX, bd.MinY, bd.MaxX, midY), depth+1)
	q.newNode(physics.NewBound(bd.MinX, midY, midX, bd.MaxY), depth+1)
	q.newNode(physics.NewBound(midX, midY, bd.MaxX, bd.MaxY), depth+1)

	n := &q.nodes[idx]
	items := n.items
	n.items = nil
	n.children = first

	for _, b := range items {
		q.insert(first, b)
		q.insert(first+1, b)
		q.insert(first+2, b)
		q.insert(first+3, b)
	}
	clear(items)
	q.nodes[idx].items = items[:0]
}
