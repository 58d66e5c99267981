package broadphase

import (
	"math/rand"
	"testing"

	"github.com/tomz197/broadphase/internal/physics"
)

func checkSorted(t *testing.T, s *SAP) {
	t.Helper()
	bodies := s.Bodies()
	for i := 0; i+1 < len(bodies); i++ {
		if bodies[i].Bound.MinX > bodies[i+1].Bound.MinX {
			t.Errorf("slot %d: MinX %v > %v", i, bodies[i].Bound.MinX, bodies[i+1].Bound.MinX)
		}
	}
	for i, b := range bodies {
		if s.slots[b.ID] != i {
			t.Errorf("body %d: slot %d, expected %d", b.ID, s.slots[b.ID], i)
		}
	}
}

func TestSAP_InsertKeepsOrder(t *testing.T) {
	s := NewSAP()
	rng := rand.New(rand.NewSource(16))
	insertAll(t, s, randomBodies(t, rng, 100, 1, 10))

	checkSorted(t, s)
}

func TestSAP_UpdateRestoresOrder(t *testing.T) {
	s := NewSAP()
	rng := rand.New(rand.NewSource(17))
	bodies := randomBodies(t, rng, 100, 1, 10)
	insertAll(t, s, bodies)

	for i := 0; i < 10; i++ {
		jitter(rng, bodies, 15)
		s.Update()
		checkSorted(t, s)
	}
}

func TestSAP_RemoveKeepsOrder(t *testing.T) {
	s := NewSAP()
	rng := rand.New(rand.NewSource(18))
	bodies := randomBodies(t, rng, 20, 1, 10)
	insertAll(t, s, bodies)

	for i := 0; i < len(bodies); i += 3 {
		s.Remove(bodies[i])
	}
	checkSorted(t, s)
	if s.Len() != 20-7 {
		t.Errorf("Expected 13 bodies, got %d", s.Len())
	}
}

func TestSAP_ForwardOnly(t *testing.T) {
	s := NewSAP()
	left, _ := physics.NewBody(50, 50, 5)
	right, _ := physics.NewBody(55, 52, 5)
	below, _ := physics.NewBody(56, 80, 5)
	insertAll(t, s, []*physics.Body{right, below, left})

	got := s.Query(left, nil)
	if len(got) != 1 || got[0] != right {
		t.Errorf("Expected only the overlapping body after left, got %d results", len(got))
	}
	if got := s.Query(right, nil); len(got) != 0 {
		t.Errorf("Expected no results looking forward from right, got %d", len(got))
	}
}

func TestSAP_UnregisteredQuery(t *testing.T) {
	s := NewSAP()
	a, _ := physics.NewBody(50, 50, 5)
	s.Insert(a)
	query, _ := physics.NewBody(48, 50, 5)

	got := s.Query(query, nil)
	if len(got) != 1 || got[0] != a {
		t.Errorf("Expected query to find a, got %d results", len(got))
	}
}
