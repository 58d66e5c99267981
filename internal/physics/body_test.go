package physics

import (
	"errors"
	"math"
	"testing"
)

func mustBody(t *testing.T, x, y, r float64) *Body {
	t.Helper()
	b, err := NewBody(x, y, r)
	if err != nil {
		t.Fatalf("NewBody(%v, %v, %v) failed: %v", x, y, r, err)
	}
	return b
}

func TestNewBody_DerivedState(t *testing.T) {
	b := mustBody(t, 10, 20, 2)

	r, density := 2.0, DefaultDensity
	wantMass := math.Pi * r * r * density
	if !approx(b.Mass, wantMass) {
		t.Errorf("Expected mass %v, got %v", wantMass, b.Mass)
	}
	if !approx(b.InverseMass*wantMass, 1) {
		t.Errorf("Expected inverse mass %v, got %v", 1/wantMass, b.InverseMass)
	}
	if b.Bound != NewBound(8, 18, 12, 22) {
		t.Errorf("Unexpected bound %+v", b.Bound)
	}
}

func TestNewBody_UniqueIncreasingIDs(t *testing.T) {
	a := mustBody(t, 0, 0, 1)
	b := mustBody(t, 0, 0, 1)

	if b.ID <= a.ID {
		t.Errorf("Expected increasing IDs, got %d then %d", a.ID, b.ID)
	}
}

func TestNewBody_RejectsInvalidInput(t *testing.T) {
	for _, r := range []float64{0, -1, math.NaN()} {
		if _, err := NewBody(0, 0, r); !errors.Is(err, ErrInvalidRadius) {
			t.Errorf("radius %v: expected ErrInvalidRadius, got %v", r, err)
		}
	}
	if _, err := NewBodyWithDensity(0, 0, 1, 0); !errors.Is(err, ErrInvalidDensity) {
		t.Errorf("Expected ErrInvalidDensity, got %v", err)
	}
}

func TestBody_BoundFollowsPosition(t *testing.T) {
	b := mustBody(t, 0, 0, 1)

	b.SetPosition(Vector{5, 5})
	if b.Bound != NewBound(4, 4, 6, 6) {
		t.Errorf("Bound not refreshed after SetPosition: %+v", b.Bound)
	}

	b.Velocity = Vector{2, -1}
	b.Integrate(0.5)
	if b.Position != (Vector{6, 4.5}) {
		t.Errorf("Unexpected position after Integrate: %v", b.Position)
	}
	if b.Bound != NewBound(5, 3.5, 7, 5.5) {
		t.Errorf("Bound not refreshed after Integrate: %+v", b.Bound)
	}
}

func TestBody_SetRadius(t *testing.T) {
	b := mustBody(t, 0, 0, 1)

	if err := b.SetRadius(3); err != nil {
		t.Fatalf("SetRadius failed: %v", err)
	}
	if !approx(b.Mass, 9*math.Pi*DefaultDensity) {
		t.Errorf("Mass not recomputed: %v", b.Mass)
	}
	if b.Bound != NewBound(-3, -3, 3, 3) {
		t.Errorf("Bound not recomputed: %+v", b.Bound)
	}
	if err := b.SetRadius(-1); !errors.Is(err, ErrInvalidRadius) {
		t.Errorf("Expected ErrInvalidRadius, got %v", err)
	}
	if b.Radius != 3 {
		t.Errorf("Rejected SetRadius must not modify the body")
	}
}

func TestBody_Visit(t *testing.T) {
	b := mustBody(t, 0, 0, 1)
	gen := NextGeneration()

	if !b.Visit(gen) {
		t.Errorf("Expected first visit to succeed")
	}
	if b.Visit(gen) {
		t.Errorf("Expected second visit with same generation to fail")
	}
	if !b.Visit(NextGeneration()) {
		t.Errorf("Expected visit with new generation to succeed")
	}
}
