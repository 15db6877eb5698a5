package probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/df07/go-spatial/pkg/accel"
	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
)

// ErrInvalidConfig reports a probe file that cannot be used
var ErrInvalidConfig = errors.New("invalid probe config")

// Accelerator names accepted in a probe file
const (
	AcceleratorKDTree = "kdtree"
	AcceleratorBVH    = "bvh"
)

// Config describes which meshes to load and which rays to cast against them
type Config struct {
	Meshes      []string    `yaml:"meshes"`
	Accelerator string      `yaml:"accelerator,omitempty"` // kdtree (default) or bvh
	DepthBound  *int        `yaml:"depth_bound,omitempty"` // nil keeps accel.DefaultDepthBound
	LeafSize    int         `yaml:"leaf_size,omitempty"`   // BVH only; 0 keeps accel.DefaultLeafSize
	BackFaces   bool        `yaml:"back_faces,omitempty"`  // Report hits on the far side of facets
	Workers     int         `yaml:"workers,omitempty"`     // 0 uses every CPU
	Rays        []RaySpec   `yaml:"rays"`
	Sample      *SampleSpec `yaml:"sample,omitempty"` // Random rays added after Rays
}

// RaySpec is a named ray as written in a probe file
type RaySpec struct {
	Name      string     `yaml:"name,omitempty"`
	Origin    [3]float64 `yaml:"origin"`
	Direction [3]float64 `yaml:"direction"`
}

// Ray converts s into a ray with a unit direction
func (s RaySpec) Ray() (core.Ray, error) {
	o, d := s.Origin, s.Direction
	return core.NewRay(core.NewVec3(o[0], o[1], o[2]), core.NewVec3(d[0], d[1], d[2]))
}

// LoadConfig reads and validates a probe file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read probe config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML, rejecting unknown keys, and validates the result
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every ray direction and the numeric settings. An empty mesh list is
// allowed so callers can supply meshes separately.
func (c *Config) Validate() error {
	if c.DepthBound != nil && *c.DepthBound < 0 {
		return fmt.Errorf("%w: depth_bound %d is negative", ErrInvalidConfig, *c.DepthBound)
	}
	switch c.Accelerator {
	case "", AcceleratorKDTree, AcceleratorBVH:
	default:
		return fmt.Errorf("%w: unknown accelerator %q", ErrInvalidConfig, c.Accelerator)
	}
	if c.LeafSize < 0 {
		return fmt.Errorf("%w: leaf_size %d is negative", ErrInvalidConfig, c.LeafSize)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d is negative", ErrInvalidConfig, c.Workers)
	}
	if c.Sample != nil && c.Sample.Count < 0 {
		return fmt.Errorf("%w: sample count %d is negative", ErrInvalidConfig, c.Sample.Count)
	}
	for i, spec := range c.Rays {
		if _, err := spec.Ray(); err != nil {
			return fmt.Errorf("%w: ray %d (%s): %v", ErrInvalidConfig, i, spec.Name, err)
		}
	}
	return nil
}

// TreeOptions returns the accelerator options the config asks for
func (c *Config) TreeOptions(logger core.Logger) []accel.Option {
	opts := []accel.Option{accel.WithLogger(logger)}
	if c.DepthBound != nil {
		opts = append(opts, accel.WithDepthBound(*c.DepthBound))
	}
	if c.LeafSize > 0 {
		opts = append(opts, accel.WithLeafSize(c.LeafSize))
	}
	return opts
}

// AcceleratorFactory builds the structure named by Accelerator over each loaded mesh
func (c *Config) AcceleratorFactory(logger core.Logger) geometry.AcceleratorFactory {
	if c.Accelerator == AcceleratorBVH {
		return accel.BVHFactory(c.TreeOptions(logger)...)
	}
	return accel.Factory(c.TreeOptions(logger)...)
}
