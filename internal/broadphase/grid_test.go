package broadphase

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/tomz197/broadphase/internal/physics"
)

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(testWorldW, testWorldH, 20)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	return g
}

// cellsOf returns the indices of every cell holding b.
func cellsOf(g *Grid, b *physics.Body) []int {
	var cells []int
	for i := range g.cells {
		if slices.Contains(g.cells[i].items, b) {
			cells = append(cells, i)
		}
	}
	return cells
}

func TestGrid_Dims(t *testing.T) {
	g, err := NewGrid(410, 300, 20)
	if err != nil {
		t.Fatalf("NewGrid failed: %v", err)
	}
	cols, rows := g.Dims()
	if cols != 21 || rows != 15 {
		t.Errorf("Expected 21x15 cells, got %dx%d", cols, rows)
	}
}

func TestGrid_CoveredCells(t *testing.T) {
	g := newTestGrid(t)
	b, _ := physics.NewBody(40, 40, 5)
	g.Insert(b)

	// Bound (35,35)-(45,45) spans cells (1,1) through (2,2).
	want := []int{1*20 + 1, 1*20 + 2, 2*20 + 1, 2*20 + 2}
	if got := cellsOf(g, b); !slices.Equal(got, want) {
		t.Errorf("Expected cells %v, got %v", want, got)
	}
}

func TestGrid_MembershipStableWithoutMovement(t *testing.T) {
	g := newTestGrid(t)
	rng := rand.New(rand.NewSource(3))
	bodies := randomBodies(t, rng, 50, 3, 15)
	insertAll(t, g, bodies)

	before := make([][]int, len(bodies))
	for i, b := range bodies {
		before[i] = cellsOf(g, b)
	}
	cellsBefore := make([][]*physics.Body, len(g.cells))
	for i := range g.cells {
		cellsBefore[i] = slices.Clone(g.cells[i].items)
	}

	for i := 0; i < 5; i++ {
		g.Update()
	}

	for i, b := range bodies {
		if got := cellsOf(g, b); !slices.Equal(got, before[i]) {
			t.Errorf("body %d: cells changed from %v to %v", b.ID, before[i], got)
		}
	}
	for i := range g.cells {
		if !slices.Equal(g.cells[i].items, cellsBefore[i]) {
			t.Errorf("cell %d: contents reordered without movement", i)
		}
	}
}

func TestGrid_UpdateBodyRelocates(t *testing.T) {
	g := newTestGrid(t)
	b, _ := physics.NewBody(10, 10, 2)
	g.Insert(b)

	b.SetPosition(physics.Vector{X: 10.5, Y: 10.5})
	if !g.UpdateBody(b) {
		t.Fatalf("Expected UpdateBody to succeed")
	}
	if got := cellsOf(g, b); !slices.Equal(got, []int{0}) {
		t.Errorf("Expected body to stay in cell 0, got %v", got)
	}

	b.SetPosition(physics.Vector{X: 110, Y: 70})
	g.UpdateBody(b)
	if got := cellsOf(g, b); !slices.Equal(got, []int{3*20 + 5}) {
		t.Errorf("Expected body in cell %d only, got %v", 3*20+5, got)
	}

	stranger, _ := physics.NewBody(10, 10, 2)
	if g.UpdateBody(stranger) {
		t.Errorf("Expected UpdateBody of unregistered body to return false")
	}
}

func TestGrid_SkipsCellsOutsideWorld(t *testing.T) {
	g := newTestGrid(t)
	edge, _ := physics.NewBody(2, 2, 5)
	outside, _ := physics.NewBody(-50, -50, 5)
	g.Insert(edge)
	g.Insert(outside)

	if got := cellsOf(g, edge); !slices.Equal(got, []int{0}) {
		t.Errorf("Expected edge body clipped to cell 0, got %v", got)
	}
	if got := cellsOf(g, outside); len(got) != 0 {
		t.Errorf("Expected body outside the world in no cell, got %v", got)
	}
	if got := g.Query(outside, nil); len(got) != 0 {
		t.Errorf("Expected no results for a query outside the world, got %d", len(got))
	}
}

func TestGrid_OutlineCoversWorld(t *testing.T) {
	g := newTestGrid(t)
	n := 0
	var all physics.Bound
	g.Outline(func(b physics.Bound) {
		if n == 0 {
			all = b
		} else {
			all = all.Merge(b)
		}
		n++
	})
	if n != 20*15 {
		t.Errorf("Expected %d cells, got %d", 20*15, n)
	}
	if all != physics.NewBound(0, 0, testWorldW, testWorldH) {
		t.Errorf("Expected outline to cover the world, got %+v", all)
	}
}
