package broadphase

import "github.com/tomz197/broadphase/internal/physics"

// NaiveIndex tests every registered body on every query. It is the
// reference the other indices are checked against.
type NaiveIndex struct {
	reg registry
}

func NewNaive() *NaiveIndex {
	return &NaiveIndex{reg: newRegistry()}
}

func (n *NaiveIndex) Insert(b *physics.Body) bool { return n.reg.add(b) }
func (n *NaiveIndex) Remove(b *physics.Body) bool { return n.reg.remove(b) }
func (n *NaiveIndex) Update()                     {}
func (n *NaiveIndex) Clear()                      { n.reg.reset() }
func (n *NaiveIndex) Len() int                    { return len(n.reg.bodies) }
func (n *NaiveIndex) Kind() Kind                  { return Naive }

func (n *NaiveIndex) Query(b *physics.Body, out []*physics.Body) []*physics.Body {
	gen := physics.NextGeneration()
	b.Visit(gen)

	for _, other := range n.reg.bodies {
		if other.Bound.Overlaps(b.Bound) && other.Visit(gen) {
			out = append(out, other)
		}
	}
	return out
}
