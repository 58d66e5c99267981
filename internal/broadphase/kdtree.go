package broadphase

import "github.com/tomz197/broadphase/internal/physics"

// KDTreeIndex is a 2-d tree over body centres, rebuilt on every Update by
// median split with alternating x/y axes. Every node stores the aggregate
// bound of its subtree, which keeps queries exact for bodies of any size.
type KDTreeIndex struct {
	reg   registry
	order []*physics.Body
	nodes []kdNode
	root  int32
	stack []int32
	dirty bool
}

type kdNode struct {
	body        *physics.Body
	axis        int // 0 = x, 1 = y
	left, right int32
	bound       physics.Bound
}

func NewKDTree() *KDTreeIndex {
	return &KDTreeIndex{reg: newRegistry(), root: -1}
}

func (k *KDTreeIndex) Kind() Kind { return KDTree }
func (k *KDTreeIndex) Len() int   { return len(k.reg.bodies) }

func (k *KDTreeIndex) Insert(b *physics.Body) bool {
	if !k.reg.add(b) {
		return false
	}
	k.dirty = true
	return true
}

func (k *KDTreeIndex) Remove(b *physics.Body) bool {
	if !k.reg.remove(b) {
		return false
	}
	k.dirty = true
	return true
}

func (k *KDTreeIndex) Clear() {
	k.reg.reset()
	clear(k.order)
	k.order = k.order[:0]
	k.nodes = k.nodes[:0]
	k.root = -1
	k.dirty = false
}

// Update rebuilds the tree from the current body positions.
func (k *KDTreeIndex) Update() {
	k.order = append(k.order[:0], k.reg.bodies...)
	k.nodes = k.nodes[:0]
	k.root = k.build(0, len(k.order), 0)
	k.dirty = false
}

func (k *KDTreeIndex) build(lo, hi, depth int) int32 {
	if lo >= hi {
		return -1
	}
	axis := depth % 2
	mid := lo + (hi-lo)/2
	selectNth(k.order[lo:hi], mid-lo, axis)

	idx := int32(len(k.nodes))
	k.nodes = append(k.nodes, kdNode{body: k.order[mid], axis: axis})

	left := k.build(lo, mid, depth+1)
	right := k.build(mid+1, hi, depth+1)

	n := &k.nodes[idx]
	n.left, n.right = left, right
	n.bound = n.body.Bound
	if left >= 0 {
		n.bound = n.bound.Merge(k.nodes[left].bound)
	}
	if right >= 0 {
		n.bound = n.bound.Merge(k.nodes[right].bound)
	}
	return idx
}

func (k *KDTreeIndex) Query(b *physics.Body, out []*physics.Body) []*physics.Body {
	if k.dirty {
		k.Update()
	}

	gen := physics.NextGeneration()
	b.Visit(gen)
	q := b.Bound

	stack := k.stack[:0]
	if k.root >= 0 {
		stack = append(stack, k.root)
	}
	for len(stack) > 0 {
		n := &k.nodes[stack[len(stack)-1]]
		stack = stack[:len(stack)-1]

		if !n.bound.Overlaps(q) {
			continue
		}
		if n.body.Visit(gen) && n.body.Bound.Overlaps(q) {
			out = append(out, n.body)
		}

		near, far := n.left, n.right
		if axisValue(b.Position, n.axis) >= axisValue(n.body.Position, n.axis) {
			near, far = n.right, n.left
		}
		if near >= 0 {
			stack = append(stack, near)
		}
		if far >= 0 && k.crosses(q, far, far == n.right, n.axis) {
			stack = append(stack, far)
		}
	}
	k.stack = stack
	return out
}

// crosses reports whether the query bound reaches the far subtree along the
// splitting axis. The far subtree's aggregate edge is used rather than the
// split coordinate because bodies straddle the split line.
func (k *KDTreeIndex) crosses(q physics.Bound, far int32, farIsRight bool, axis int) bool {
	fb := k.nodes[far].bound
	if axis == 0 {
		if farIsRight {
			return q.MaxX >= fb.MinX
		}
		return q.MinX <= fb.MaxX
	}
	if farIsRight {
		return q.MaxY >= fb.MinY
	}
	return q.MinY <= fb.MaxY
}

// Depth returns the height of the tree; 0 when empty.
func (k *KDTreeIndex) Depth() int {
	if k.dirty {
		k.Update()
	}
	var depth func(int32) int
	depth = func(i int32) int {
		if i < 0 {
			return 0
		}
		return 1 + max(depth(k.nodes[i].left), depth(k.nodes[i].right))
	}
	return depth(k.root)
}

// Outline reports the aggregate bound of every subtree.
func (k *KDTreeIndex) Outline(fn func(physics.Bound)) {
	for i := range k.nodes {
		fn(k.nodes[i].bound)
	}
}

func axisValue(v physics.Vector, axis int) float64 {
	if axis == 0 {
		return v.X
	}
	return v.Y
}

// selectNth partially sorts bodies so that bodies[n] holds the body whose
// coordinate on axis would be at position n in sorted order, with smaller or
// equal values before it and larger or equal values after it.
func selectNth(bodies []*physics.Body, n, axis int) {
	lo, hi := 0, len(bodies)-1
	for lo < hi {
		pivot := axisValue(bodies[lo+(hi-lo)/2].Position, axis)
		i, j := lo, hi
		for i <= j {
			for axisValue(bodies[i].Position, axis) < pivot {
				i++
			}
			for axisValue(bodies[j].Position, axis) > pivot {
				j--
			}
			if i <= j {
				bodies[i], bodies[j] = bodies[j], bodies[i]
				i++
				j--
			}
		}
		switch {
		case n <= j:
			hi = j
		case n >= i:
			lo = i
		default:
			return
		}
	}
}
