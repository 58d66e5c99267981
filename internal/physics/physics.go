// Package physics provides the geometric primitives of the simulation
// (vectors, bounds, circular bodies) and the narrow phase that resolves
// contacts between them.
package physics

// DistanceSquared calculates the squared distance between two points.
// Use this when comparing distances to avoid the sqrt cost.
func DistanceSquared(a, b Vector) float64 {
	return b.Sub(a).LengthSq()
}

// CirclesOverlap checks if two circles strictly overlap.
// Circles that only touch are not overlapping.
func CirclesOverlap(p1 Vector, r1 float64, p2 Vector, r2 float64) bool {
	minDist := r1 + r2
	return DistanceSquared(p1, p2) < minDist*minDist
}
