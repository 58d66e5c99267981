package broadphase

import (
	"fmt"
	"math"

	"github.com/tomz197/broadphase/internal/physics"
)

// HashGridIndex is an unbounded uniform grid whose cells are hashed into a fixed
// number of buckets. It is rebuilt from scratch on every Update with a
// counting sort, so bucket contents live in one flat array.
//
// The table never grows. Distinct cells that hash to the same bucket share
// it, which only costs extra overlap tests during queries.
type HashGridIndex struct {
	reg         registry
	invCellSize float64
	tableSize   int

	// keys[h]..keys[h+1] delimits bucket h in entries.
	keys    []int
	entries []*physics.Body
	dirty   bool
}

// NewHashGrid creates a hashed grid with tableSize buckets.
func NewHashGrid(cellSize float64, tableSize int) (*HashGridIndex, error) {
	if err := validateCellSize(cellSize); err != nil {
		return nil, err
	}
	if tableSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTableSize, tableSize)
	}
	return &HashGridIndex{
		reg:         newRegistry(),
		invCellSize: 1.0 / cellSize,
		tableSize:   tableSize,
		keys:        make([]int, tableSize+1),
	}, nil
}

func (h *HashGridIndex) Kind() Kind     { return HashGrid }
func (h *HashGridIndex) Len() int       { return len(h.reg.bodies) }
func (h *HashGridIndex) TableSize() int { return h.tableSize }

func (h *HashGridIndex) Insert(b *physics.Body) bool {
	if !h.reg.add(b) {
		return false
	}
	h.dirty = true
	return true
}

func (h *HashGridIndex) Remove(b *physics.Body) bool {
	if !h.reg.remove(b) {
		return false
	}
	h.dirty = true
	return true
}

func (h *HashGridIndex) Clear() {
	h.reg.reset()
	h.dirty = true
}

// Update counting-sorts every covered cell of every body into entries.
func (h *HashGridIndex) Update() {
	clear(h.keys)

	total := 0
	for _, b := range h.reg.bodies {
		c0, r0, c1, r1 := h.cellRange(b.Bound)
		for y := r0; y <= r1; y++ {
			for x := c0; x <= c1; x++ {
				h.keys[h.bucket(x, y)]++
				total++
			}
		}
	}

	// Prefix sums: keys[i] becomes the end of bucket i.
	for i := 1; i <= h.tableSize; i++ {
		h.keys[i] += h.keys[i-1]
	}

	if cap(h.entries) < total {
		h.entries = make([]*physics.Body, total)
	}
	h.entries = h.entries[:total]

	// Filling from the end moves keys[i] back to the start of bucket i.
	for _, b := range h.reg.bodies {
		c0, r0, c1, r1 := h.cellRange(b.Bound)
		for y := r0; y <= r1; y++ {
			for x := c0; x <= c1; x++ {
				k := h.bucket(x, y)
				h.keys[k]--
				h.entries[h.keys[k]] = b
			}
		}
	}
	h.dirty = false
}

func (h *HashGridIndex) Query(b *physics.Body, out []*physics.Body) []*physics.Body {
	if h.dirty {
		h.Update()
	}

	gen := physics.NextGeneration()
	b.Visit(gen)

	c0, r0, c1, r1 := h.cellRange(b.Bound)
	for y := r0; y <= r1; y++ {
		for x := c0; x <= c1; x++ {
			k := h.bucket(x, y)
			for _, other := range h.entries[h.keys[k]:h.keys[k+1]] {
				if other.Visit(gen) && other.Bound.Overlaps(b.Bound) {
					out = append(out, other)
				}
			}
		}
	}
	return out
}

// Outline reports every cell covered by at least one body.
func (h *HashGridIndex) Outline(fn func(physics.Bound)) {
	type cell struct{ x, y int }
	seen := make(map[cell]struct{})
	size := 1 / h.invCellSize

	for _, b := range h.reg.bodies {
		c0, r0, c1, r1 := h.cellRange(b.Bound)
		for y := r0; y <= r1; y++ {
			for x := c0; x <= c1; x++ {
				if _, ok := seen[cell{x, y}]; ok {
					continue
				}
				seen[cell{x, y}] = struct{}{}
				fx, fy := float64(x)*size, float64(y)*size
				fn(physics.NewBound(fx, fy, fx+size, fy+size))
			}
		}
	}
}

func (h *HashGridIndex) cellRange(bd physics.Bound) (c0, r0, c1, r1 int) {
	return h.toCell(bd.MinX), h.toCell(bd.MinY), h.toCell(bd.MaxX), h.toCell(bd.MaxY)
}

func (h *HashGridIndex) toCell(v float64) int {
	return int(math.Floor(v * h.invCellSize))
}

func (h *HashGridIndex) bucket(x, y int) int {
	return int(hashCell(x, y) % uint32(h.tableSize))
}

func hashCell(x, y int) uint32 {
	return uint32(x*92837111) ^ uint32(y*689287499)
}
