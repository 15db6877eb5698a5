package geometry

import (
	"github.com/df07/go-spatial/pkg/core"
)

// Accelerator answers ray queries against a mesh faster than a linear scan
type Accelerator interface {
	core.Intersectable
}

// Rebuilder is implemented by accelerators that can rebuild themselves in place
// when the facet set changes.
type Rebuilder interface {
	Rebuild(bounds core.AABB, facets []*Facet) error
}

// AcceleratorFactory builds an accelerator bound to a mesh's bounds and facets
type AcceleratorFactory func(bounds core.AABB, facets []*Facet) (Accelerator, error)

// MeshParser reads a file into one or more meshes
type MeshParser interface {
	Parse(path string) ([]*Mesh, error)
}
