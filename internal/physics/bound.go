package physics

// Bound is an axis-aligned bounding rectangle. Intervals are closed on both
// ends, so rectangles that only touch along an edge still overlap.
type Bound struct {
	MinX, MinY, MaxX, MaxY float64
}

// NewBound creates a bound from its corners.
func NewBound(minX, minY, maxX, maxY float64) Bound {
	return Bound{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// NewBoundForCircle returns the tight bound of a circle centered at p.
func NewBoundForCircle(p Vector, r float64) Bound {
	return Bound{
		MinX: p.X - r,
		MinY: p.Y - r,
		MaxX: p.X + r,
		MaxY: p.Y + r,
	}
}

func (b Bound) Width() float64 {
	return b.MaxX - b.MinX
}

func (b Bound) Height() float64 {
	return b.MaxY - b.MinY
}

// Overlaps reports whether the two bounds intersect, edges included.
func (b Bound) Overlaps(other Bound) bool {
	return b.MaxX >= other.MinX && b.MaxY >= other.MinY &&
		b.MinX <= other.MaxX && b.MinY <= other.MaxY
}

// Contains reports whether other lies entirely inside b.
func (b Bound) Contains(other Bound) bool {
	return b.MinX <= other.MinX && b.MaxX >= other.MaxX &&
		b.MinY <= other.MinY && b.MaxY >= other.MaxY
}

// Merge returns the smallest bound enclosing both.
func (b Bound) Merge(other Bound) Bound {
	return Bound{
		MinX: min(b.MinX, other.MinX),
		MinY: min(b.MinY, other.MinY),
		MaxX: max(b.MaxX, other.MaxX),
		MaxY: max(b.MaxY, other.MaxY),
	}
}
