package probe

import (
	"fmt"

	"github.com/df07/go-spatial/pkg/core"
)

// SampleSpec asks for random rays aimed at the meshes
type SampleSpec struct {
	Count int   `yaml:"count"`
	Seed  int64 `yaml:"seed,omitempty"`
}

// SampleRays generates count rays whose origins lie on a sphere enclosing bounds and
// whose directions point at uniform points inside bounds. The same sampler state yields
// the same rays.
func SampleRays(bounds core.AABB, count int, sampler core.Sampler) []RaySpec {
	if bounds.IsEmpty() || count <= 0 {
		return nil
	}

	center := bounds.Center()
	radius := 2 * bounds.SphereRadius()
	if radius == 0 {
		radius = 1
	}

	specs := make([]RaySpec, 0, count)
	for len(specs) < count {
		origin := center.Add(core.SampleOnUnitSphere(sampler.Get2D()).Multiply(radius))
		target := core.SamplePointInBox(bounds, sampler.Get3D())
		direction := target.Subtract(origin)
		if direction.LengthSquared() == 0 {
			continue
		}
		specs = append(specs, RaySpec{
			Name:      fmt.Sprintf("sample-%d", len(specs)),
			Origin:    [3]float64{origin.X, origin.Y, origin.Z},
			Direction: [3]float64{direction.X, direction.Y, direction.Z},
		})
	}
	return specs
}

// Bounds returns the box enclosing every mesh
func (p *Prober) Bounds() core.AABB {
	bounds := core.EmptyAABB()
	for _, mesh := range p.meshes {
		bounds = bounds.Union(mesh.AABB())
	}
	return bounds
}

// Rays returns the rays listed in cfg followed by any it asks to be sampled around p's meshes
func (p *Prober) Rays(cfg *Config) []RaySpec {
	specs := append([]RaySpec(nil), cfg.Rays...)
	if cfg.Sample != nil {
		specs = append(specs, SampleRays(p.Bounds(), cfg.Sample.Count, core.NewSeededSampler(cfg.Sample.Seed))...)
	}
	return specs
}
