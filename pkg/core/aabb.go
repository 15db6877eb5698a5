package core

import (
	"fmt"
	"math"
)

// AABB represents an axis-aligned bounding box.
// An empty box has Min = +Inf and Max = -Inf on every axis; it bounds nothing yet.
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// EmptyAABB returns a box that has not bounded anything
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// NewAABB creates a box bounding the given points, boxes or slices of them
func NewAABB(items ...any) (AABB, error) {
	aabb := EmptyAABB()
	if err := aabb.Expand(items...); err != nil {
		return AABB{}, err
	}
	return aabb, nil
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	aabb := EmptyAABB()
	for _, point := range points {
		aabb.expandPoint(point)
	}
	return aabb
}

// NewAABBFromCorners creates an AABB from explicit min and max corners
func NewAABBFromCorners(min, max Vec3) AABB {
	return NewAABBFromPoints(min, max)
}

// Expand grows the box to cover points, other boxes, or (nested) slices of either.
// Anything else yields ErrUnsupportedType and leaves already processed items applied.
func (aabb *AABB) Expand(items ...any) error {
	for _, item := range items {
		switch v := item.(type) {
		case Vec3:
			aabb.expandPoint(v)
		case *Vec3:
			aabb.expandPoint(*v)
		case AABB:
			aabb.expandBox(v)
		case *AABB:
			aabb.expandBox(*v)
		case []Vec3:
			for _, p := range v {
				aabb.expandPoint(p)
			}
		case [3]Vec3:
			for _, p := range v {
				aabb.expandPoint(p)
			}
		case [8]Vec3:
			for _, p := range v {
				aabb.expandPoint(p)
			}
		case []AABB:
			for _, b := range v {
				aabb.expandBox(b)
			}
		case []any:
			if err := aabb.Expand(v...); err != nil {
				return err
			}
		default:
			return fmt.Errorf("AABB.Expand: %w %T", ErrUnsupportedType, item)
		}
	}
	return nil
}

func (aabb *AABB) expandPoint(p Vec3) {
	aabb.Min = aabb.Min.Min(p)
	aabb.Max = aabb.Max.Max(p)
}

// An empty box contributes nothing; expanding by its infinite corners would corrupt the bounds.
func (aabb *AABB) expandBox(other AABB) {
	if other.IsEmpty() {
		return
	}
	aabb.expandPoint(other.Min)
	aabb.expandPoint(other.Max)
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	result := aabb
	result.expandBox(other)
	return result
}

// IsEmpty reports whether the box bounds nothing
func (aabb AABB) IsEmpty() bool {
	return aabb.Min.X > aabb.Max.X || aabb.Min.Y > aabb.Max.Y || aabb.Min.Z > aabb.Max.Z
}

// Center returns the center point of the AABB, or the origin when empty
func (aabb AABB) Center() Vec3 {
	if aabb.IsEmpty() {
		return Vec3{}
	}
	return aabb.Min.Add(aabb.Size().Multiply(0.5))
}

// Size returns the size (extent) of the AABB along each axis, or +Inf when empty
func (aabb AABB) Size() Vec3 {
	if aabb.IsEmpty() {
		inf := math.Inf(1)
		return Vec3{inf, inf, inf}
	}
	return aabb.Max.Subtract(aabb.Min)
}

// Volume returns the enclosed volume, zero when empty
func (aabb AABB) Volume() float64 {
	if aabb.IsEmpty() {
		return 0
	}
	size := aabb.Size()
	return size.X * size.Y * size.Z
}

// Corners returns all eight corner points: the four at Max.Z followed by the four at Min.Z
func (aabb AABB) Corners() [8]Vec3 {
	lo, hi := aabb.Min, aabb.Max
	return [8]Vec3{
		{hi.X, hi.Y, hi.Z},
		{lo.X, hi.Y, hi.Z},
		{lo.X, lo.Y, hi.Z},
		{hi.X, lo.Y, hi.Z},
		{lo.X, lo.Y, lo.Z},
		{hi.X, lo.Y, lo.Z},
		{hi.X, hi.Y, lo.Z},
		{lo.X, hi.Y, lo.Z},
	}
}

// SphereRadius returns the radius of a sphere about Center that contains the box
func (aabb AABB) SphereRadius() float64 {
	if aabb.IsEmpty() {
		return math.Inf(1)
	}
	center := aabb.Center()
	radius := 0.0
	for _, corner := range aabb.Corners() {
		radius = math.Max(radius, corner.Subtract(center).Length())
	}
	return radius
}

// AxisExtents returns the minimum and maximum values along an axis
func (aabb AABB) AxisExtents(axis Axis) (float64, float64) {
	return aabb.Min.Component(axis), aabb.Max.Component(axis)
}

// Contains reports whether the point lies inside the box, boundary included
func (aabb AABB) Contains(point Vec3) bool {
	for _, axis := range Axes {
		v := point.Component(axis)
		if v < aabb.Min.Component(axis) || v > aabb.Max.Component(axis) {
			return false
		}
	}
	return true
}

// Split returns the two boxes on either side of the plane at value along axis.
// The value must lie strictly between the box extents on that axis.
func (aabb AABB) Split(axis Axis, value float64) (AABB, AABB, error) {
	lo, hi := aabb.AxisExtents(axis)
	if !(lo < value && value < hi) {
		return AABB{}, AABB{}, fmt.Errorf("%w: %g not in (%g, %g) on %v", ErrSplitOutOfRange, value, lo, hi, axis)
	}

	left := AABB{Min: aabb.Min, Max: aabb.Max.WithComponent(axis, value)}
	right := AABB{Min: aabb.Min.WithComponent(axis, value), Max: aabb.Max}
	return left, right, nil
}

// Intersect tests the ray against the box over t in [0, +Inf)
func (aabb AABB) Intersect(ray Ray) bool {
	return aabb.IntersectRange(ray, 0, math.Inf(1))
}

// IntersectRange tests if a ray intersects with this AABB using the slab method.
// A zero direction component never narrows the interval for a ray inside that slab.
func (aabb AABB) IntersectRange(ray Ray, tMin, tMax float64) bool {
	for _, axis := range Axes {
		direction := ray.Direction.Component(axis)
		origin := ray.Origin.Component(axis)

		invDirection := math.Inf(1)
		if direction != 0 {
			invDirection = 1.0 / direction
		}

		t0 := (aabb.Min.Component(axis) - origin) * invDirection
		t1 := (aabb.Max.Component(axis) - origin) * invDirection

		// Ensure t0 <= t1 (swap if needed)
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		// NaN bounds (origin exactly on a parallel slab face) compare false and leave the interval alone
		if t0 > tMin {
			tMin = t0
		}
		if t1 < tMax {
			tMax = t1
		}

		if tMin > tMax {
			return false
		}
	}

	return true
}

// Inflate returns the box grown on every side by tolerance scaled to the magnitude of each bound.
// An empty box is returned unchanged.
func (aabb AABB) Inflate(tolerance float64) AABB {
	if aabb.IsEmpty() {
		return aabb
	}
	pad := func(v float64) float64 { return tolerance * (1 + math.Abs(v)) }
	return AABB{
		Min: NewVec3(aabb.Min.X-pad(aabb.Min.X), aabb.Min.Y-pad(aabb.Min.Y), aabb.Min.Z-pad(aabb.Min.Z)),
		Max: NewVec3(aabb.Max.X+pad(aabb.Max.X), aabb.Max.Y+pad(aabb.Max.Y), aabb.Max.Z+pad(aabb.Max.Z)),
	}
}

// Transform returns the box bounding the transformed corners
func (aabb AABB) Transform(t Transform) AABB {
	if aabb.IsEmpty() {
		return aabb
	}
	corners := aabb.Corners()
	return NewAABBFromPoints(t.ApplyAll(corners[:], AsPoint)...)
}

// LongestAxis returns the axis with the longest extent
func (aabb AABB) LongestAxis() Axis {
	size := aabb.Size()
	if size.X > size.Y && size.X > size.Z {
		return X
	}
	if size.Y > size.Z {
		return Y
	}
	return Z
}

func (aabb AABB) String() string {
	return fmt.Sprintf("Min: %v, Max: %v", aabb.Min, aabb.Max)
}
