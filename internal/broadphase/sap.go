package broadphase

import (
	"sort"

	"github.com/tomz197/broadphase/internal/physics"
)

// SAP keeps bodies sorted by Bound.MinX and sweeps forward along x. Update
// re-sorts with an insertion sort, which is close to linear while motion is
// coherent between ticks.
//
// A query only looks forward from the body's own slot, so it returns the
// overlapping bodies that sort after it. Every overlapping pair is still
// produced once by the query of whichever body sorts first.
type SAP struct {
	sorted []*physics.Body
	slots  map[uint64]int
}

func NewSAP() *SAP {
	return &SAP{slots: make(map[uint64]int)}
}

func (s *SAP) Kind() Kind { return SweepAndPrune }
func (s *SAP) Len() int   { return len(s.sorted) }

// Insert places b at its sorted position by binary search.
func (s *SAP) Insert(b *physics.Body) bool {
	if _, ok := s.slots[b.ID]; ok {
		return false
	}
	i := s.lowerBound(b.Bound.MinX)
	s.sorted = append(s.sorted, nil)
	copy(s.sorted[i+1:], s.sorted[i:])
	s.sorted[i] = b
	s.reindex(i)
	return true
}

func (s *SAP) Remove(b *physics.Body) bool {
	i, ok := s.slots[b.ID]
	if !ok {
		return false
	}
	copy(s.sorted[i:], s.sorted[i+1:])
	s.sorted[len(s.sorted)-1] = nil
	s.sorted = s.sorted[:len(s.sorted)-1]
	delete(s.slots, b.ID)
	s.reindex(i)
	return true
}

// Update insertion-sorts the bodies by their current Bound.MinX.
func (s *SAP) Update() {
	a := s.sorted
	for i := 1; i < len(a); i++ {
		b := a[i]
		j := i - 1
		for j >= 0 && a[j].Bound.MinX > b.Bound.MinX {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = b
	}
	s.reindex(0)
}

func (s *SAP) Clear() {
	clear(s.sorted)
	s.sorted = s.sorted[:0]
	clear(s.slots)
}

// Query scans forward from b's slot while the other body starts before b
// ends. Unregistered bodies start from the first slot at or after their MinX.
func (s *SAP) Query(b *physics.Body, out []*physics.Body) []*physics.Body {
	gen := physics.NextGeneration()
	b.Visit(gen)

	start, ok := s.slots[b.ID]
	if ok {
		start++
	} else {
		start = s.lowerBound(b.Bound.MinX)
	}

	for _, other := range s.sorted[start:] {
		if other.Bound.MinX > b.Bound.MaxX {
			break
		}
		if other.Bound.Overlaps(b.Bound) && other.Visit(gen) {
			out = append(out, other)
		}
	}
	return out
}

// Bodies returns the bodies in sweep order. The slice must not be modified.
func (s *SAP) Bodies() []*physics.Body {
	return s.sorted
}

// Outline reports every body bound in sweep order.
func (s *SAP) Outline(fn func(physics.Bound)) {
	for _, b := range s.sorted {
		fn(b.Bound)
	}
}

func (s *SAP) lowerBound(minX float64) int {
	return sort.Search(len(s.sorted), func(i int) bool {
		return s.sorted[i].Bound.MinX >= minX
	})
}

func (s *SAP) reindex(from int) {
	for i := from; i < len(s.sorted); i++ {
		s.slots[s.sorted[i].ID] = i
	}
}
