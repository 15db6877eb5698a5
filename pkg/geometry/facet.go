package geometry

import (
	"fmt"
	"math"
	"sync"

	"github.com/df07/go-spatial/pkg/core"
)

// parallelEpsilon bounds the Möller-Trumbore determinant below which a ray is treated as
// lying in the facet plane
const parallelEpsilon = 1e-12

// Facet is a planar triangle. Vertices are fixed at construction, so the cached
// bounding box, edges and normal always describe the same triangle.
type Facet struct {
	vertices [3]core.Vec3
	edges    [3]Edge
	bbox     core.AABB

	normal    core.Vec3 // Explicit normal, valid when hasNormal is set
	hasNormal bool

	computeOnce sync.Once
	computed    core.Vec3
	computedErr error
}

// NewFacet creates a facet whose normal is computed from its edges on first use
func NewFacet(v0, v1, v2 core.Vec3) *Facet {
	f := &Facet{vertices: [3]core.Vec3{v0, v1, v2}}
	f.init()
	return f
}

// NewFacetWithNormal creates a facet with an explicit normal. A non-zero normal is normalized;
// a zero normal is treated as absent.
func NewFacetWithNormal(v0, v1, v2, normal core.Vec3) *Facet {
	f := NewFacet(v0, v1, v2)
	if unit, err := normal.NormalizeChecked(); err == nil {
		f.normal = unit
		f.hasNormal = true
	}
	return f
}

func (f *Facet) init() {
	v := f.vertices
	f.edges = [3]Edge{NewEdge(v[0], v[1]), NewEdge(v[1], v[2]), NewEdge(v[2], v[0])}
	f.bbox = core.NewAABBFromPoints(v[:]...)
}

// Vertices returns a copy of the three vertices
func (f *Facet) Vertices() [3]core.Vec3 {
	return f.vertices
}

// Edges returns the consecutive vertex pairs followed by the closing edge
func (f *Facet) Edges() [3]Edge {
	return f.edges
}

// AABB returns the facet's bounding box
func (f *Facet) AABB() core.AABB {
	return f.bbox
}

// IsTriangle reports whether the facet has three vertices, which is always the case
func (f *Facet) IsTriangle() bool {
	return len(f.vertices) == 3
}

// ComputedNormal returns the unit normal from the cross product of the first two edges.
// Collinear vertices yield ErrDegenerateTriangle.
func (f *Facet) ComputedNormal() (core.Vec3, error) {
	f.computeOnce.Do(func() {
		n, err := f.edges[0].Vector().Cross(f.edges[1].Vector()).NormalizeChecked()
		if err != nil {
			f.computedErr = fmt.Errorf("%w: %v, %v, %v", core.ErrDegenerateTriangle, f.vertices[0], f.vertices[1], f.vertices[2])
			return
		}
		f.computed = n
	})
	return f.computed, f.computedErr
}

// Normal returns the explicit normal if one was given, else the computed normal
func (f *Facet) Normal() (core.Vec3, error) {
	if f.hasNormal {
		return f.normal, nil
	}
	return f.ComputedNormal()
}

// Intersect tests the ray against the front face of the facet
func (f *Facet) Intersect(ray core.Ray) core.Intersection {
	return f.IntersectWithBackFaces(ray, false)
}

// IntersectWithBackFaces tests if a ray intersects the facet using the Möller-Trumbore
// algorithm. Unless checkBackFacing is set, rays striking the far side miss.
// A ray starting in the facet and pointing towards its front reports t = 0.
func (f *Facet) IntersectWithBackFaces(ray core.Ray, checkBackFacing bool) core.Intersection {
	v0 := f.vertices[0]
	e1 := f.edges[0].Vector()
	e2 := f.edges[2].Vector().Negate()

	p := ray.Direction.Cross(e2)
	det := p.Dot(e1)

	// The ray strikes the back of the facet
	if !checkBackFacing && det < 0 {
		return core.Miss()
	}

	// The ray is parallel to the facet plane
	if math.Abs(det) < parallelEpsilon {
		return core.Miss()
	}
	invDet := 1.0 / det

	s := ray.Origin.Subtract(v0)
	q := s.Cross(e1)

	u := p.Dot(s) * invDet
	v := q.Dot(ray.Direction) * invDet

	// Check if intersection is outside the facet
	if u < 0 || u > 1 || v < 0 || u+v > 1 {
		return core.Miss()
	}

	t := q.Dot(e2) * invDet

	// The facet plane lies behind the ray origin
	hit, err := core.NewIntersection(t, f)
	if err != nil {
		return core.Miss()
	}
	return hit
}

// Scale returns a facet with every vertex scaled about the origin. Its normal is recomputed.
func (f *Facet) Scale(factor float64) *Facet {
	v := f.vertices
	return NewFacet(v[0].Multiply(factor), v[1].Multiply(factor), v[2].Multiply(factor))
}

// Transform returns a facet with vertices mapped as points and the normal mapped as a vector
func (f *Facet) Transform(t core.Transform) (*Facet, error) {
	normal, err := f.Normal()
	if err != nil {
		return nil, err
	}
	v := f.vertices
	return NewFacetWithNormal(
		t.Apply(v[0], core.AsPoint),
		t.Apply(v[1], core.AsPoint),
		t.Apply(v[2], core.AsPoint),
		t.Apply(normal, core.AsVector),
	), nil
}

func (f *Facet) String() string {
	return fmt.Sprintf("Facet[%v, %v, %v]", f.vertices[0], f.vertices[1], f.vertices[2])
}
