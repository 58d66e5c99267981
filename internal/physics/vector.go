package physics

import (
	"fmt"
	"math"
)

// Vector is a 2D value used for positions, velocities and contact normals.
type Vector struct {
	X, Y float64
}

func (v Vector) String() string {
	return fmt.Sprintf("%f,%f", v.X, v.Y)
}

func (v Vector) Add(other Vector) Vector {
	return Vector{v.X + other.X, v.Y + other.Y}
}

func (v Vector) Sub(other Vector) Vector {
	return Vector{v.X - other.X, v.Y - other.Y}
}

func (v Vector) Scale(s float64) Vector {
	return Vector{v.X * s, v.Y * s}
}

// AddScaled returns v + other*s.
func (v Vector) AddScaled(other Vector, s float64) Vector {
	return Vector{v.X + other.X*s, v.Y + other.Y*s}
}

func (v Vector) Dot(other Vector) float64 {
	return v.X*other.X + v.Y*other.Y
}

// LengthSq returns the squared length. Use this when comparing distances to avoid the sqrt cost.
func (v Vector) LengthSq() float64 {
	return v.X*v.X + v.Y*v.Y
}

func (v Vector) Length() float64 {
	return math.Sqrt(v.LengthSq())
}
