package broadphase

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/tomz197/broadphase/internal/physics"
)

const (
	testWorldW = 400.0
	testWorldH = 300.0
)

func testOptions(bodies int) Options {
	return Options{
		WorldWidth:  testWorldW,
		WorldHeight: testWorldH,
		CellSize:    20,
		TableSize:   max(2*bodies, 1),
		Capacity:    4,
		MaxDepth:    8,
	}
}

func newIndex(t *testing.T, kind Kind, bodies int) Index {
	t.Helper()
	idx, err := New(kind, testOptions(bodies))
	if err != nil {
		t.Fatalf("New(%v) failed: %v", kind, err)
	}
	return idx
}

// randomBodies places n bodies with radii in [minR, maxR] fully inside the
// test world.
func randomBodies(t *testing.T, rng *rand.Rand, n int, minR, maxR float64) []*physics.Body {
	t.Helper()
	bodies := make([]*physics.Body, n)
	for i := range bodies {
		r := minR + rng.Float64()*(maxR-minR)
		x := r + rng.Float64()*(testWorldW-2*r)
		y := r + rng.Float64()*(testWorldH-2*r)
		b, err := physics.NewBody(x, y, r)
		if err != nil {
			t.Fatalf("NewBody failed: %v", err)
		}
		bodies[i] = b
	}
	return bodies
}

// jitter moves every body by up to step in each axis, keeping it inside
// the world.
func jitter(rng *rand.Rand, bodies []*physics.Body, step float64) {
	for _, b := range bodies {
		p := b.Position.Add(physics.Vector{
			X: (rng.Float64()*2 - 1) * step,
			Y: (rng.Float64()*2 - 1) * step,
		})
		p.X = min(max(p.X, b.Radius), testWorldW-b.Radius)
		p.Y = min(max(p.Y, b.Radius), testWorldH-b.Radius)
		b.SetPosition(p)
	}
}

func insertAll(t *testing.T, idx Index, bodies []*physics.Body) {
	t.Helper()
	for _, b := range bodies {
		if !idx.Insert(b) {
			t.Fatalf("%v: Insert of body %d returned false", idx.Kind(), b.ID)
		}
	}
}

func idSet(bodies []*physics.Body) map[uint64]bool {
	set := make(map[uint64]bool, len(bodies))
	for _, b := range bodies {
		set[b.ID] = true
	}
	return set
}

type pair struct{ a, b uint64 }

func makePair(a, b uint64) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

func pairSet(idx Index, bodies []*physics.Body) map[pair]bool {
	set := make(map[pair]bool)
	var out []*physics.Body
	for _, b := range bodies {
		out = idx.Query(b, out[:0])
		for _, o := range out {
			set[makePair(b.ID, o.ID)] = true
		}
	}
	return set
}

func checkAgainstNaive(t *testing.T, idx Index, naive Index, bodies []*physics.Body) {
	t.Helper()
	var got, want []*physics.Body

	for _, b := range bodies {
		got = idx.Query(b, got[:0])
		ids := idSet(got)
		if len(ids) != len(got) {
			t.Errorf("%v: query of body %d returned duplicates", idx.Kind(), b.ID)
		}
		for _, o := range got {
			if o == b {
				t.Errorf("%v: query of body %d returned itself", idx.Kind(), b.ID)
			}
			if !o.Bound.Overlaps(b.Bound) {
				t.Errorf("%v: body %d returned for %d without overlapping bounds", idx.Kind(), o.ID, b.ID)
			}
		}

		if idx.Kind() == SweepAndPrune {
			continue
		}
		want = naive.Query(b, want[:0])
		for _, o := range want {
			if !ids[o.ID] {
				t.Errorf("%v: query of body %d missed body %d", idx.Kind(), b.ID, o.ID)
			}
		}
	}

	if idx.Kind() == SweepAndPrune {
		gotPairs, wantPairs := pairSet(idx, bodies), pairSet(naive, bodies)
		for p := range wantPairs {
			if !gotPairs[p] {
				t.Errorf("%v: missed pair %v", idx.Kind(), p)
			}
		}
	}
}

func TestIndex_MatchesNaive(t *testing.T) {
	for _, kind := range Kinds {
		if kind == Naive {
			continue
		}
		t.Run(kind.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(int64(kind) + 1))
			for round := 0; round < 5; round++ {
				bodies := randomBodies(t, rng, 150, 2, 12)
				idx := newIndex(t, kind, len(bodies))
				naive := NewNaive()
				insertAll(t, idx, bodies)
				insertAll(t, naive, bodies)
				idx.Update()

				checkAgainstNaive(t, idx, naive, bodies)

				for step := 0; step < 10; step++ {
					jitter(rng, bodies, 8)
					idx.Update()
					checkAgainstNaive(t, idx, naive, bodies)
				}
			}
		})
	}
}

func TestIndex_LargeBodiesMatchNaive(t *testing.T) {
	for _, kind := range Kinds {
		if kind == Naive {
			continue
		}
		t.Run(kind.String(), func(t *testing.T) {
			rng := rand.New(rand.NewSource(42))
			bodies := randomBodies(t, rng, 60, 1, 70)
			idx := newIndex(t, kind, len(bodies))
			naive := NewNaive()
			insertAll(t, idx, bodies)
			insertAll(t, naive, bodies)
			idx.Update()

			checkAgainstNaive(t, idx, naive, bodies)
		})
	}
}

func TestIndex_MembershipNoOps(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			idx := newIndex(t, kind, 2)
			a, _ := physics.NewBody(50, 50, 5)
			b, _ := physics.NewBody(55, 50, 5)

			if idx.Remove(a) {
				t.Errorf("Expected Remove of unregistered body to return false")
			}
			if !idx.Insert(a) || !idx.Insert(b) {
				t.Fatalf("Expected first inserts to succeed")
			}
			if idx.Insert(a) {
				t.Errorf("Expected duplicate Insert to return false")
			}
			if idx.Len() != 2 {
				t.Errorf("Expected Len 2, got %d", idx.Len())
			}
			idx.Update()

			out := idx.Query(a, nil)
			out = idx.Query(b, out)
			if len(out) != 1 && kind == SweepAndPrune {
				t.Errorf("Expected the pair once across both queries, got %d results", len(out))
			}
			if len(out) != 2 && kind != SweepAndPrune {
				t.Errorf("Expected each body to find the other, got %d results", len(out))
			}

			if !idx.Remove(a) {
				t.Errorf("Expected Remove of registered body to succeed")
			}
			if idx.Remove(a) {
				t.Errorf("Expected second Remove to return false")
			}
			idx.Update()
			if got := idx.Query(b, nil); len(got) != 0 {
				t.Errorf("Expected removed body not to be returned, got %d results", len(got))
			}

			idx.Clear()
			if idx.Len() != 0 {
				t.Errorf("Expected Len 0 after Clear, got %d", idx.Len())
			}
			if !idx.Insert(a) {
				t.Errorf("Expected Insert after Clear to succeed")
			}
		})
	}
}

func TestIndex_QueryKeepsExistingResults(t *testing.T) {
	idx := newIndex(t, UniformGrid, 2)
	a, _ := physics.NewBody(50, 50, 5)
	b, _ := physics.NewBody(55, 50, 5)
	sentinel, _ := physics.NewBody(300, 200, 5)
	insertAll(t, idx, []*physics.Body{a, b})

	out := idx.Query(a, []*physics.Body{sentinel})
	if len(out) != 2 || out[0] != sentinel || out[1] != b {
		t.Errorf("Expected [sentinel, b], got %d results", len(out))
	}
}

func TestIndex_GenerationsDoNotAliasAcrossIndices(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bodies := randomBodies(t, rng, 40, 5, 15)
	grid := newIndex(t, UniformGrid, len(bodies))
	kd := newIndex(t, KDTree, len(bodies))
	naive := NewNaive()
	insertAll(t, grid, bodies)
	insertAll(t, kd, bodies)
	insertAll(t, naive, bodies)
	grid.Update()
	kd.Update()

	// Interleave queries on two indices sharing the same bodies.
	var g, k, n []*physics.Body
	for _, b := range bodies {
		g = grid.Query(b, g[:0])
		k = kd.Query(b, k[:0])
		n = naive.Query(b, n[:0])
		if len(g) != len(n) || len(k) != len(n) {
			t.Errorf("body %d: grid %d, kd %d, naive %d results", b.ID, len(g), len(k), len(n))
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"naive", Naive},
		{"grid", UniformGrid},
		{"Spatial Grid", UniformGrid},
		{"HASHGRID", HashGrid},
		{"spatial hash grid", HashGrid},
		{"quadtree", QuadTree},
		{"KD-Tree", KDTree},
		{" sap ", SweepAndPrune},
		{"Sweep And Prune", SweepAndPrune},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Errorf("ParseKind(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if _, err := ParseKind("octree"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}
}

func TestKind_RoundTrip(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
		got, err = ParseKind(k.DisplayName())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.DisplayName(), got, err)
		}
	}
}

func TestNew_RejectsInvalidOptions(t *testing.T) {
	valid := testOptions(10)
	tests := []struct {
		name   string
		kind   Kind
		mutate func(*Options)
		want   error
	}{
		{"grid zero width", UniformGrid, func(o *Options) { o.WorldWidth = 0 }, ErrInvalidWorld},
		{"grid negative height", UniformGrid, func(o *Options) { o.WorldHeight = -1 }, ErrInvalidWorld},
		{"grid zero cell", UniformGrid, func(o *Options) { o.CellSize = 0 }, ErrInvalidCellSize},
		{"hash negative cell", HashGrid, func(o *Options) { o.CellSize = -5 }, ErrInvalidCellSize},
		{"hash zero table", HashGrid, func(o *Options) { o.TableSize = 0 }, ErrInvalidTableSize},
		{"quad zero capacity", QuadTree, func(o *Options) { o.Capacity = 0 }, ErrInvalidCapacity},
		{"quad negative depth", QuadTree, func(o *Options) { o.MaxDepth = -1 }, ErrInvalidCapacity},
		{"quad degenerate world", QuadTree, func(o *Options) { o.WorldWidth = 0 }, ErrInvalidWorld},
		{"unknown kind", Kind(99), func(o *Options) {}, ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := valid
			tt.mutate(&opts)
			if _, err := New(tt.kind, opts); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}
