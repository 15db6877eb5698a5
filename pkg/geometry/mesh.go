package geometry

import (
	"fmt"
	"sync"

	"github.com/df07/go-spatial/pkg/core"
)

// Mesh is a named collection of facets with an aggregate bounding box and an optional
// accelerator answering ray queries on its behalf.
//
// Appending a facet is a write: it rebuilds any installed accelerator, so it takes the
// write lock while queries share the read lock.
type Mesh struct {
	mu          sync.RWMutex
	name        string
	facets      []*Facet
	bbox        core.AABB
	accelerator Accelerator
	factory     AcceleratorFactory
}

// NewMesh creates a mesh from facets; its bounding box covers every facet vertex
func NewMesh(name string, facets ...*Facet) *Mesh {
	m := &Mesh{
		name:   name,
		facets: make([]*Facet, 0, len(facets)),
		bbox:   core.EmptyAABB(),
	}
	for _, facet := range facets {
		m.facets = append(m.facets, facet)
		m.bbox = m.bbox.Union(facet.AABB())
	}
	return m
}

// NewIndexedMesh creates a mesh from vertices and face indices.
// vertices: array of 3D points
// faces: array of triangle indices (each group of 3 indices forms a triangle)
// normals: optional per-triangle normals, nil to compute them from the vertices
func NewIndexedMesh(name string, vertices []core.Vec3, faces []int, normals []core.Vec3) (*Mesh, error) {
	if len(faces)%3 != 0 {
		return nil, fmt.Errorf("face indices must be a multiple of 3, got %d", len(faces))
	}

	numFacets := len(faces) / 3
	if normals != nil && len(normals) != numFacets {
		return nil, fmt.Errorf("number of normals (%d) must match number of triangles (%d)", len(normals), numFacets)
	}

	facets := make([]*Facet, numFacets)
	for i := 0; i < numFacets; i++ {
		i0, i1, i2 := faces[i*3], faces[i*3+1], faces[i*3+2]

		// Bounds check
		for _, index := range []int{i0, i1, i2} {
			if index < 0 || index >= len(vertices) {
				return nil, fmt.Errorf("face %d: vertex index %d out of bounds (%d vertices)", i, index, len(vertices))
			}
		}

		if normals != nil {
			facets[i] = NewFacetWithNormal(vertices[i0], vertices[i1], vertices[i2], normals[i])
		} else {
			facets[i] = NewFacet(vertices[i0], vertices[i1], vertices[i2])
		}
	}

	return NewMesh(name, facets...), nil
}

// Name returns the mesh name
func (m *Mesh) Name() string {
	return m.name
}

// Facets returns a copy of the facet list
func (m *Mesh) Facets() []*Facet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Facet(nil), m.facets...)
}

// Len returns the number of facets
func (m *Mesh) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.facets)
}

// AABB returns the bounding box of all facets
func (m *Mesh) AABB() core.AABB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bbox
}

// Vertices returns every facet's vertices, grouped by facet
func (m *Mesh) Vertices() []core.Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vertices := make([]core.Vec3, 0, 3*len(m.facets))
	for _, facet := range m.facets {
		v := facet.Vertices()
		vertices = append(vertices, v[:]...)
	}
	return vertices
}

// Accelerator returns the installed accelerator, nil when queries scan every facet
func (m *Mesh) Accelerator() Accelerator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.accelerator
}

// SetAccelerator builds an accelerator from the mesh's current bounds and facets and installs it
func (m *Mesh) SetAccelerator(factory AcceleratorFactory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	accelerator, err := factory(m.bbox, append([]*Facet(nil), m.facets...))
	if err != nil {
		return fmt.Errorf("mesh %q: building accelerator: %w", m.name, err)
	}
	m.accelerator = accelerator
	m.factory = factory
	return nil
}

// ClearAccelerator removes the accelerator so queries fall back to a linear scan
func (m *Mesh) ClearAccelerator() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accelerator = nil
	m.factory = nil
}

// Append adds a facet, grows the bounding box and fully rebuilds any installed accelerator.
// The mesh is left unchanged when the rebuild fails.
func (m *Mesh) Append(facet *Facet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bbox := m.bbox.Union(facet.AABB())
	facets := append(m.facets[:len(m.facets):len(m.facets)], facet)

	if m.accelerator == nil {
		m.bbox, m.facets = bbox, facets
		return nil
	}

	accelerated := append([]*Facet(nil), facets...)
	if rebuilder, ok := m.accelerator.(Rebuilder); ok {
		if err := rebuilder.Rebuild(bbox, accelerated); err != nil {
			return fmt.Errorf("mesh %q: rebuilding accelerator: %w", m.name, err)
		}
		m.bbox, m.facets = bbox, facets
		return nil
	}

	accelerator, err := m.factory(bbox, accelerated)
	if err != nil {
		return fmt.Errorf("mesh %q: rebuilding accelerator: %w", m.name, err)
	}
	m.bbox, m.facets, m.accelerator = bbox, facets, accelerator
	return nil
}

// Intersect returns the closest intersection between the ray and the mesh
func (m *Mesh) Intersect(ray core.Ray) core.Intersection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.accelerator != nil {
		return m.accelerator.Intersect(ray)
	}

	// Otherwise we brute force the computation.
	return core.Closest(ray, m.facets)
}

// Scale returns a mesh scaled about the origin by factor, without an accelerator
func (m *Mesh) Scale(factor float64) *Mesh {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scaled := make([]*Facet, len(m.facets))
	for i, facet := range m.facets {
		scaled[i] = facet.Scale(factor)
	}
	return NewMesh(m.name, scaled...)
}

// Transform returns a mesh with every facet transformed, without an accelerator
func (m *Mesh) Transform(t core.Transform) (*Mesh, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	transformed := make([]*Facet, len(m.facets))
	for i, facet := range m.facets {
		f, err := facet.Transform(t)
		if err != nil {
			return nil, fmt.Errorf("mesh %q facet %d: %w", m.name, i, err)
		}
		transformed[i] = f
	}
	return NewMesh(m.name, transformed...), nil
}

// FromFile parses path into meshes and installs an accelerator built by factory on each.
// A nil factory leaves the meshes without one.
func FromFile(parser MeshParser, path string, factory AcceleratorFactory) ([]*Mesh, error) {
	meshes, err := parser.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if factory == nil {
		return meshes, nil
	}
	for _, mesh := range meshes {
		if err := mesh.SetAccelerator(factory); err != nil {
			return nil, err
		}
	}
	return meshes, nil
}
