package core

import (
	"fmt"
	"math"
)

// Intersection records where along a ray an object was struck.
// The zero value is a miss.
type Intersection struct {
	t      float64
	hit    bool
	object any
}

// NewIntersection creates a hit at distance t. Negative distances are rejected.
func NewIntersection(t float64, object any) (Intersection, error) {
	if t < 0 {
		return Intersection{}, fmt.Errorf("%w: t=%g", ErrNegativeDistance, t)
	}
	return Intersection{t: t, hit: true, object: object}, nil
}

// Miss returns an intersection representing no hit
func Miss() Intersection {
	return Intersection{}
}

// IsHit reports whether the intersection holds a valid location
func (x Intersection) IsHit() bool {
	return x.hit
}

// T returns the ray parameter of the hit and false for a miss
func (x Intersection) T() (float64, bool) {
	return x.t, x.hit
}

// Distance returns the ray parameter of the hit, or +Inf for a miss
func (x Intersection) Distance() float64 {
	if !x.hit {
		return math.Inf(1)
	}
	return x.t
}

// Object returns the intersected object, nil for a miss
func (x Intersection) Object() any {
	return x.object
}

// CloserThan reports whether x is strictly closer than other.
// A miss is never closer; any hit is closer than a miss.
func (x Intersection) CloserThan(other Intersection) bool {
	if !x.hit {
		return false
	}
	return !other.hit || x.t < other.t
}

func (x Intersection) String() string {
	if !x.hit {
		return "miss"
	}
	return fmt.Sprintf("hit at t=%g", x.t)
}
