package broadphase

import (
	"math/rand"
	"testing"

	"github.com/tomz197/broadphase/internal/physics"
)

func newTestQuadTree(t *testing.T, capacity, maxDepth int) *QuadTreeIndex {
	t.Helper()
	q, err := NewQuadTree(testWorldW, testWorldH, capacity, maxDepth)
	if err != nil {
		t.Fatalf("NewQuadTree failed: %v", err)
	}
	return q
}

func TestQuadTree_OnlyLeavesHoldBodies(t *testing.T) {
	q := newTestQuadTree(t, 4, 8)
	rng := rand.New(rand.NewSource(9))
	bodies := randomBodies(t, rng, 200, 2, 8)
	insertAll(t, q, bodies)
	q.Update()

	if len(q.nodes) == 1 {
		t.Fatalf("Expected the tree to split")
	}
	for i, n := range q.nodes {
		if !n.leaf() && len(n.items) != 0 {
			t.Errorf("internal node %d holds %d bodies", i, len(n.items))
		}
		for _, b := range n.items {
			if !n.bound.Overlaps(b.Bound) {
				t.Errorf("node %d holds body %d outside its rectangle", i, b.ID)
			}
		}
	}
}

func TestQuadTree_EveryOverlappingLeafHoldsBody(t *testing.T) {
	q := newTestQuadTree(t, 2, 6)
	rng := rand.New(rand.NewSource(10))
	bodies := randomBodies(t, rng, 60, 5, 25)
	insertAll(t, q, bodies)
	q.Update()

	for i, n := range q.nodes {
		if !n.leaf() {
			continue
		}
		held := idSet(n.items)
		for _, b := range bodies {
			if n.bound.Overlaps(b.Bound) && !held[b.ID] {
				t.Errorf("leaf %d overlaps body %d but does not hold it", i, b.ID)
			}
		}
	}
}

func TestQuadTree_DepthBound(t *testing.T) {
	q := newTestQuadTree(t, 1, 3)

	// Coincident bodies can never be separated by splitting.
	var bodies []*physics.Body
	for i := 0; i < 10; i++ {
		b, _ := physics.NewBody(100, 100, 1)
		bodies = append(bodies, b)
	}
	insertAll(t, q, bodies)
	q.Update()

	deepest := 0
	for _, n := range q.nodes {
		deepest = max(deepest, n.depth)
	}
	// A node at depth 3 may still split, its children may not.
	if deepest != 4 {
		t.Errorf("Expected subdivision to stop at depth 4, got %d", deepest)
	}

	got := q.Query(bodies[0], nil)
	if len(got) != len(bodies)-1 {
		t.Errorf("Expected %d results, got %d", len(bodies)-1, len(got))
	}
}

func TestQuadTree_NoSplitAtCapacity(t *testing.T) {
	q := newTestQuadTree(t, 4, 8)
	rng := rand.New(rand.NewSource(12))
	insertAll(t, q, randomBodies(t, rng, 4, 2, 4))
	q.Update()

	if len(q.nodes) != 1 {
		t.Errorf("Expected a single leaf at capacity, got %d nodes", len(q.nodes))
	}
}

func TestQuadTree_RootGrowsForEscapedBodies(t *testing.T) {
	q := newTestQuadTree(t, 4, 8)
	a, _ := physics.NewBody(-20, 50, 5)
	b, _ := physics.NewBody(-14, 50, 5)
	insertAll(t, q, []*physics.Body{a, b})
	q.Update()

	got := q.Query(a, nil)
	if len(got) != 1 || got[0] != b {
		t.Errorf("Expected to find b outside the world, got %d results", len(got))
	}
}

func TestQuadTree_DefaultMaxDepth(t *testing.T) {
	q := newTestQuadTree(t, 4, 0)
	if q.maxDepth != DefaultQuadMaxDepth {
		t.Errorf("Expected max depth %d, got %d", DefaultQuadMaxDepth, q.maxDepth)
	}
}
