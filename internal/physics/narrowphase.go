package physics

import "math"

const (
	// Restitution of every contact. 1 is perfectly elastic.
	Restitution = 1.0
	// Baumgarte is the fraction of penetration removed per positional correction.
	Baumgarte = 0.1
)

// Contact describes two overlapping circles. Normal points from A to B.
type Contact struct {
	A, B        *Body
	Normal      Vector
	Penetration float64
}

// TestOverlap runs the exact circle-circle test. Coincident centers have no
// defined normal and are reported as no contact.
func TestOverlap(a, b *Body) (Contact, bool) {
	d := b.Position.Sub(a.Position)
	distSq := d.LengthSq()
	r := a.Radius + b.Radius

	if distSq == 0 || distSq >= r*r {
		return Contact{}, false
	}

	dist := math.Sqrt(distSq)
	return Contact{
		A:           a,
		B:           b,
		Normal:      d.Scale(1 / dist),
		Penetration: r - dist,
	}, true
}

// ResolveVelocity applies the impulse along the contact normal. Bodies that
// are already separating are left alone.
func ResolveVelocity(c Contact) {
	a, b := c.A, c.B
	relVel := b.Velocity.Sub(a.Velocity)
	vn := relVel.Dot(c.Normal)

	if vn > 0 {
		return
	}

	effMass := a.InverseMass + b.InverseMass
	j := -(1 + Restitution) * vn / effMass

	a.Velocity = a.Velocity.AddScaled(c.Normal, -j*a.InverseMass)
	b.Velocity = b.Velocity.AddScaled(c.Normal, j*b.InverseMass)
}

// ResolvePosition pushes the bodies apart by Baumgarte·penetration, split by
// inverse mass. Single pass; residual overlap is left for later ticks.
func ResolvePosition(c Contact) {
	a, b := c.A, c.B
	effMass := a.InverseMass + b.InverseMass
	j := c.Penetration * Baumgarte / effMass

	a.SetPosition(a.Position.AddScaled(c.Normal, -j*a.InverseMass))
	b.SetPosition(b.Position.AddScaled(c.Normal, j*b.InverseMass))
}
