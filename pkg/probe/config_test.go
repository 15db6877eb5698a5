package probe

import (
	"testing"

	"github.com/df07/go-spatial/pkg/accel"
	"github.com/df07/go-spatial/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
meshes:
  - models/bunny.ply
  - models/bracket.stl
depth_bound: 4
back_faces: true
workers: 2
rays:
  - name: down
    origin: [0, 0, 5]
    direction: [0, 0, -1]
  - origin: [5, 0, 0]
    direction: [-2, 0, 0]
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, []string{"models/bunny.ply", "models/bracket.stl"}, cfg.Meshes)
	require.NotNil(t, cfg.DepthBound)
	assert.Equal(t, 4, *cfg.DepthBound)
	assert.True(t, cfg.BackFaces)
	assert.Equal(t, 2, cfg.Workers)

	require.Len(t, cfg.Rays, 2)
	assert.Equal(t, "down", cfg.Rays[0].Name)
	assert.Equal(t, [3]float64{0, 0, 5}, cfg.Rays[0].Origin)

	ray, err := cfg.Rays[1].Ray()
	require.NoError(t, err)
	assert.Equal(t, core.NewVec3(-1, 0, 0), ray.Direction, "directions are normalized")
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("meshes: [a.ply]\n"))
	require.NoError(t, err)
	assert.Nil(t, cfg.DepthBound)
	assert.False(t, cfg.BackFaces)
	assert.Zero(t, cfg.Workers)
	assert.Empty(t, cfg.Rays)

	empty, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Meshes)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "meshes: [a.ply]\ndepth: 3\n"},
		{"zero direction", "rays:\n  - origin: [0, 0, 0]\n    direction: [0, 0, 0]\n"},
		{"short vector", "rays:\n  - origin: [0, 0]\n    direction: [0, 0, 1]\n"},
		{"negative depth", "depth_bound: -1\n"},
		{"negative workers", "workers: -2\n"},
		{"unknown accelerator", "accelerator: octree\n"},
		{"negative leaf size", "accelerator: bvh\nleaf_size: -1\n"},
		{"not yaml", "meshes: [a.ply\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.content))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "probe.yaml", sampleConfig)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Rays, 2)

	_, err = LoadConfig(path + ".missing")
	assert.Error(t, err)
}

func TestConfig_TreeOptions(t *testing.T) {
	mesh := cubeMesh(t, "cube", core.Vec3{})

	depth := 3
	cfg := &Config{DepthBound: &depth}
	tree, err := accel.NewKDTreeFromMesh(mesh, cfg.TreeOptions(nil)...)
	require.NoError(t, err)
	assert.Equal(t, 3, tree.DepthBound())

	tree, err = accel.NewKDTreeFromMesh(mesh, (&Config{}).TreeOptions(nil)...)
	require.NoError(t, err)
	assert.Equal(t, accel.DefaultDepthBound, tree.DepthBound())
}

func TestConfig_AcceleratorFactory(t *testing.T) {
	cfg, err := ParseConfig([]byte("accelerator: bvh\nleaf_size: 1\n"))
	require.NoError(t, err)

	mesh := cubeMesh(t, "cube", core.Vec3{})
	require.NoError(t, mesh.SetAccelerator(cfg.AcceleratorFactory(nil)))
	bvh, ok := mesh.Accelerator().(*accel.BVH)
	require.True(t, ok)
	assert.Equal(t, mesh.Len(), bvh.Stats().LeafNodes)

	require.NoError(t, mesh.SetAccelerator((&Config{}).AcceleratorFactory(nil)))
	assert.IsType(t, &accel.KDTree{}, mesh.Accelerator())
}
