package broadphase

import (
	"math"

	"github.com/tomz197/broadphase/internal/physics"
)

// Grid is a uniform grid over a fixed world rectangle. Each body is stored
// in every cell its bound covers and is only moved when that cell range
// changes. Parts of a bound outside the world are not stored.
type Grid struct {
	cellSize    float64
	invCellSize float64 // 1 / cellSize (precomputed to avoid division)
	cols        int
	rows        int
	cells       []gridCell

	entries []gridEntry
	slots   map[uint64]int
}

// gridCell holds the bodies whose bound covers the cell.
type gridCell struct {
	items []*physics.Body
}

type gridEntry struct {
	body *physics.Body
	cr   cellRange
}

// cellRange is an inclusive range of cell coordinates. It is empty when
// c0 > c1 or r0 > r1.
type cellRange struct {
	c0, r0, c1, r1 int
}

func (r cellRange) empty() bool {
	return r.c0 > r.c1 || r.r0 > r.r1
}

// NewGrid creates a grid covering worldW x worldH with square cells.
func NewGrid(worldW, worldH, cellSize float64) (*Grid, error) {
	if err := validateWorld(worldW, worldH); err != nil {
		return nil, err
	}
	if err := validateCellSize(cellSize); err != nil {
		return nil, err
	}

	cols := max(int(math.Ceil(worldW/cellSize)), 1)
	rows := max(int(math.Ceil(worldH/cellSize)), 1)

	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       make([]gridCell, cols*rows),
		slots:       make(map[uint64]int),
	}, nil
}

func (g *Grid) Kind() Kind { return UniformGrid }
func (g *Grid) Len() int   { return len(g.entries) }

// Dims returns the number of columns and rows.
func (g *Grid) Dims() (cols, rows int) { return g.cols, g.rows }

func (g *Grid) Insert(b *physics.Body) bool {
	if _, ok := g.slots[b.ID]; ok {
		return false
	}
	cr := g.rangeOf(b.Bound)
	g.slots[b.ID] = len(g.entries)
	g.entries = append(g.entries, gridEntry{body: b, cr: cr})
	g.addCells(b, cr)
	return true
}

func (g *Grid) Remove(b *physics.Body) bool {
	i, ok := g.slots[b.ID]
	if !ok {
		return false
	}
	g.removeCells(b, g.entries[i].cr)

	last := len(g.entries) - 1
	if i != last {
		g.entries[i] = g.entries[last]
		g.slots[g.entries[i].body.ID] = i
	}
	g.entries[last] = gridEntry{}
	g.entries = g.entries[:last]
	delete(g.slots, b.ID)
	return true
}

// UpdateBody relocates b if its covered cell range changed since it was
// last stored. It returns false if b is not registered.
func (g *Grid) UpdateBody(b *physics.Body) bool {
	i, ok := g.slots[b.ID]
	if !ok {
		return false
	}
	e := &g.entries[i]
	cr := g.rangeOf(b.Bound)
	if cr == e.cr {
		return true
	}
	g.removeCells(b, e.cr)
	g.addCells(b, cr)
	e.cr = cr
	return true
}

// Update calls UpdateBody for every registered body.
func (g *Grid) Update() {
	for i := range g.entries {
		g.UpdateBody(g.entries[i].body)
	}
}

// Clear removes all bodies without deallocating cell memory.
func (g *Grid) Clear() {
	for i := range g.cells {
		clear(g.cells[i].items)
		g.cells[i].items = g.cells[i].items[:0]
	}
	clear(g.entries)
	g.entries = g.entries[:0]
	clear(g.slots)
}

func (g *Grid) Query(b *physics.Body, out []*physics.Body) []*physics.Body {
	gen := physics.NextGeneration()
	b.Visit(gen)

	cr := g.rangeOf(b.Bound)
	if cr.empty() {
		return out
	}
	for row := cr.r0; row <= cr.r1; row++ {
		rowOffset := row * g.cols
		for col := cr.c0; col <= cr.c1; col++ {
			for _, other := range g.cells[rowOffset+col].items {
				if other.Visit(gen) && other.Bound.Overlaps(b.Bound) {
					out = append(out, other)
				}
			}
		}
	}
	return out
}

// Outline reports every cell of the grid.
func (g *Grid) Outline(fn func(physics.Bound)) {
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			x, y := float64(col)*g.cellSize, float64(row)*g.cellSize
			fn(physics.NewBound(x, y, x+g.cellSize, y+g.cellSize))
		}
	}
}

func (g *Grid) addCells(b *physics.Body, cr cellRange) {
	for row := cr.r0; row <= cr.r1; row++ {
		rowOffset := row * g.cols
		for col := cr.c0; col <= cr.c1; col++ {
			c := &g.cells[rowOffset+col]
			c.items = append(c.items, b)
		}
	}
}

func (g *Grid) removeCells(b *physics.Body, cr cellRange) {
	for row := cr.r0; row <= cr.r1; row++ {
		rowOffset := row * g.cols
		for col := cr.c0; col <= cr.c1; col++ {
			c := &g.cells[rowOffset+col]
			for i, item := range c.items {
				if item == b {
					last := len(c.items) - 1
					c.items[i] = c.items[last]
					c.items[last] = nil
					c.items = c.items[:last]
					break
				}
			}
		}
	}
}

// rangeOf converts a bound to the covered cell range, clipped to the grid.
// Cells outside the grid are skipped rather than clamped.
func (g *Grid) rangeOf(bd physics.Bound) cellRange {
	return cellRange{
		c0: max(g.toCell(bd.MinX), 0),
		r0: max(g.toCell(bd.MinY), 0),
		c1: min(g.toCell(bd.MaxX), g.cols-1),
		r1: min(g.toCell(bd.MaxY), g.rows-1),
	}
}

func (g *Grid) toCell(v float64) int {
	return int(math.Floor(v * g.invCellSize))
}
