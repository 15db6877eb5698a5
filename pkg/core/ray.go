package core

import (
	"fmt"
	"reflect"
)

// Ray represents a ray with an origin and a unit direction
type Ray struct {
	Origin    Vec3
	Direction Vec3
}

// NewRay creates a new ray, normalizing the direction
func NewRay(origin, direction Vec3) (Ray, error) {
	unit, err := direction.NormalizeChecked()
	if err != nil {
		return Ray{}, ErrZeroDirection
	}
	return Ray{Origin: origin, Direction: unit}, nil
}

// MustRay is NewRay for directions known to be non-zero; it panics otherwise
func MustRay(origin, direction Vec3) Ray {
	r, err := NewRay(origin, direction)
	if err != nil {
		panic(err)
	}
	return r
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Multiply(t))
}

// Evaluate is an alias for At
func (r Ray) Evaluate(t float64) Vec3 {
	return r.At(t)
}

// ClosestIntersection scans items for the nearest hit. Slices and arrays are searched
// element by element, at any depth. Anything else that is not Intersectable is skipped.
func (r Ray) ClosestIntersection(items ...any) Intersection {
	closest := Miss()
	for _, item := range items {
		if x := r.closestIn(item); x.CloserThan(closest) {
			closest = x
		}
	}
	return closest
}

func (r Ray) closestIn(item any) Intersection {
	if target, ok := item.(Intersectable); ok {
		return target.Intersect(r)
	}

	collection := reflect.ValueOf(item)
	if collection.Kind() != reflect.Slice && collection.Kind() != reflect.Array {
		return Miss()
	}
	closest := Miss()
	for i := 0; i < collection.Len(); i++ {
		if x := r.closestIn(collection.Index(i).Interface()); x.CloserThan(closest) {
			closest = x
		}
	}
	return closest
}

// Closest returns the nearest hit of ray against a homogeneous slice
func Closest[T Intersectable](ray Ray, items []T) Intersection {
	closest := Miss()
	for _, item := range items {
		if x := item.Intersect(ray); x.CloserThan(closest) {
			closest = x
		}
	}
	return closest
}

// Transform returns the ray with its origin mapped as a point and its direction as a vector
func (r Ray) Transform(t Transform) (Ray, error) {
	return NewRay(t.Apply(r.Origin, AsPoint), t.Apply(r.Direction, AsVector))
}

func (r Ray) String() string {
	return fmt.Sprintf("%v + t * %v", r.Origin, r.Direction)
}
