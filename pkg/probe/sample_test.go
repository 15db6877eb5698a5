package probe

import (
	"testing"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleRays(t *testing.T) {
	bounds := core.NewAABBFromCorners(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
	specs := SampleRays(bounds, 100, core.NewSeededSampler(1))
	require.Len(t, specs, 100)

	radius := 2 * bounds.SphereRadius()
	for i, spec := range specs {
		ray, err := spec.Ray()
		require.NoError(t, err)
		assert.InDelta(t, radius, ray.Origin.Length(), 1e-9, "ray %d starts on the enclosing sphere", i)
		assert.True(t, bounds.Intersect(ray), "ray %d points into the box", i)
	}
	assert.Equal(t, "sample-0", specs[0].Name)
	assert.Equal(t, "sample-99", specs[99].Name)

	assert.Equal(t, specs, SampleRays(bounds, 100, core.NewSeededSampler(1)), "same seed, same rays")
	assert.NotEqual(t, specs, SampleRays(bounds, 100, core.NewSeededSampler(2)))
}

func TestSampleRays_Degenerate(t *testing.T) {
	assert.Empty(t, SampleRays(core.EmptyAABB(), 10, core.NewSeededSampler(1)))

	bounds := core.NewAABBFromCorners(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
	assert.Empty(t, SampleRays(bounds, 0, core.NewSeededSampler(1)))

	// A single point still yields rays aimed at it
	point := core.NewAABBFromPoints(core.NewVec3(2, 3, 4))
	specs := SampleRays(point, 5, core.NewSeededSampler(1))
	require.Len(t, specs, 5)
	for _, spec := range specs {
		ray, err := spec.Ray()
		require.NoError(t, err)
		assert.InDelta(t, 1.0, ray.Origin.Subtract(core.NewVec3(2, 3, 4)).Length(), 1e-9)
	}
}

func TestProber_Rays(t *testing.T) {
	near := cubeMesh(t, "near", core.NewVec3(0, 0, 2))
	far := cubeMesh(t, "far", core.NewVec3(0, 0, -3))
	prober := NewProber([]*geometry.Mesh{near, far})

	expected := core.NewAABBFromCorners(core.NewVec3(-1, -1, -4), core.NewVec3(1, 1, 3))
	assert.Equal(t, expected, prober.Bounds())
	assert.True(t, NewProber(nil).Bounds().IsEmpty())

	cfg := &Config{
		Rays:   []RaySpec{{Name: "listed", Direction: [3]float64{0, 0, 1}}},
		Sample: &SampleSpec{Count: 10, Seed: 4},
	}
	specs := prober.Rays(cfg)
	require.Len(t, specs, 11)
	assert.Equal(t, "listed", specs[0].Name)
	assert.Equal(t, "sample-9", specs[10].Name)
	assert.Len(t, cfg.Rays, 1, "config rays are not modified")

	assert.Len(t, prober.Rays(&Config{}), 0)
}
