package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const tetraSTL = `solid tetra
facet normal 0 0 -1
outer loop
vertex 0 0 0
vertex 0 1 0
vertex 1 0 0
endloop
endfacet
facet normal 0 -1 0
outer loop
vertex 0 0 0
vertex 1 0 0
vertex 0 0 1
endloop
endfacet
facet normal -1 0 0
outer loop
vertex 0 0 0
vertex 0 0 1
vertex 0 1 0
endloop
endfacet
facet normal 0.57735 0.57735 0.57735
outer loop
vertex 1 0 0
vertex 0 1 0
vertex 0 0 1
endloop
endfacet
endsolid tetra
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create %s: %v", name, err)
	}
	return path
}

// runCLI executes the root command and returns its standard output
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestInfoCommand(t *testing.T) {
	mesh := writeTestFile(t, t.TempDir(), "tetra.stl", tetraSTL)

	out, err := runCLI(t, "info", mesh, "--depth-bound", "2")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}

	for _, want := range []string{"tetra: 4 facets", "bounds: Min: (0, 0, 0), Max: (1, 1, 1)", "kd-tree:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestInfoCommand_BVH(t *testing.T) {
	mesh := writeTestFile(t, t.TempDir(), "tetra.stl", tetraSTL)

	out, err := runCLI(t, "info", mesh, "--accel", "bvh", "--leaf-size", "1")
	if err != nil {
		t.Fatalf("info failed: %v", err)
	}
	if !strings.Contains(out, "bvh: 7 nodes, 4 leaves") {
		t.Errorf("Expected BVH statistics, got:\n%s", out)
	}
}

func TestCastCommand(t *testing.T) {
	mesh := writeTestFile(t, t.TempDir(), "tetra.stl", tetraSTL)

	tests := []struct {
		name    string
		args    []string
		wantHit bool
	}{
		{"onto slanted face", []string{"--origin", "1,1,1", "--direction", "-1,-1,-1"}, true},
		{"away from mesh", []string{"--origin", "1,1,1", "--direction", "1,1,1"}, false},
		{"from inside", []string{"--origin", "0.1,0.1,0.1", "--direction", "0,0,1"}, false},
		{"from inside with back faces", []string{"--origin", "0.1,0.1,0.1", "--direction", "0,0,1", "--back-faces"}, true},
		{"through a BVH", []string{"--origin", "1,1,1", "--direction", "-1,-1,-1", "--accel", "bvh"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, append([]string{"cast", mesh}, tt.args...)...)
			if err != nil {
				t.Fatalf("cast failed: %v", err)
			}
			want := "1 rays, 0 hits, 1 misses"
			if tt.wantHit {
				want = "1 rays, 1 hits, 0 misses"
			}
			if !strings.Contains(out, want) {
				t.Errorf("Expected %q, got:\n%s", want, out)
			}
		})
	}
}

func TestCastCommand_Errors(t *testing.T) {
	mesh := writeTestFile(t, t.TempDir(), "tetra.stl", tetraSTL)

	tests := []struct {
		name string
		args []string
	}{
		{"missing direction", []string{"cast", mesh}},
		{"short direction", []string{"cast", mesh, "--direction", "0,1"}},
		{"zero direction", []string{"cast", mesh, "--direction", "0,0,0"}},
		{"negative depth bound", []string{"cast", mesh, "--direction", "0,0,1", "--depth-bound", "-1"}},
		{"missing mesh", []string{"cast", "nonexistent.stl", "--direction", "0,0,1"}},
		{"unsupported mesh", []string{"cast", "scene.obj", "--direction", "0,0,1"}},
		{"unknown accelerator", []string{"cast", mesh, "--direction", "0,0,1", "--accel", "octree"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	mesh := writeTestFile(t, dir, "tetra.stl", tetraSTL)
	config := writeTestFile(t, dir, "probe.yaml", `
meshes: [`+mesh+`]
depth_bound: 3
rays:
  - name: slanted
    origin: [1, 1, 1]
    direction: [-1, -1, -1]
  - name: below
    origin: [0.2, 0.2, -1]
    direction: [0, 0, 1]
  - name: away
    origin: [0.2, 0.2, -1]
    direction: [0, 0, -1]
`)

	out, err := runCLI(t, "batch", config, "--format", "yaml", "--workers", "2")
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}

	var report struct {
		Summary struct {
			Rays int `yaml:"rays"`
			Hits int `yaml:"hits"`
		} `yaml:"summary"`
		Results []struct {
			Name     string   `yaml:"name"`
			Hit      bool     `yaml:"hit"`
			Distance *float64 `yaml:"distance"`
			Mesh     string   `yaml:"mesh"`
		} `yaml:"results"`
	}
	if err := yaml.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Failed to decode report: %v\n%s", err, out)
	}

	if report.Summary.Rays != 3 || report.Summary.Hits != 2 {
		t.Errorf("Expected 3 rays with 2 hits, got %+v", report.Summary)
	}

	expected := []struct {
		name     string
		hit      bool
		distance float64
	}{
		{"slanted", true, 2 / 1.7320508075688772},
		{"below", true, 1},
		{"away", false, 0},
	}
	for i, want := range expected {
		got := report.Results[i]
		if got.Name != want.name || got.Hit != want.hit {
			t.Errorf("Result %d: expected %s hit=%v, got %s hit=%v", i, want.name, want.hit, got.Name, got.Hit)
			continue
		}
		if want.hit {
			if got.Distance == nil || *got.Distance < want.distance-1e-6 || *got.Distance > want.distance+1e-6 {
				t.Errorf("Result %d: expected distance %g, got %v", i, want.distance, got.Distance)
			}
			if got.Mesh != "tetra" {
				t.Errorf("Result %d: expected mesh tetra, got %q", i, got.Mesh)
			}
		}
	}
}

func TestBatchCommand_Sample(t *testing.T) {
	dir := t.TempDir()
	mesh := writeTestFile(t, dir, "tetra.stl", tetraSTL)
	config := writeTestFile(t, dir, "probe.yaml", "meshes: ["+mesh+"]\n")

	run := func() string {
		out, err := runCLI(t, "batch", config, "--sample", "200", "--seed", "3", "-f", "yaml", "--accel", "bvh")
		if err != nil {
			t.Fatalf("batch failed: %v", err)
		}
		return out
	}

	out := run()
	var report struct {
		Summary struct {
			Rays int `yaml:"rays"`
			Hits int `yaml:"hits"`
		} `yaml:"summary"`
	}
	if err := yaml.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Failed to decode report: %v\n%s", err, out)
	}
	if report.Summary.Rays != 200 || report.Summary.Hits == 0 {
		t.Errorf("Expected 200 sampled rays with some hits, got %+v", report.Summary)
	}
	if !strings.Contains(out, "sample-199") {
		t.Error("Expected sampled rays to be named")
	}
	if run() != out {
		t.Error("Expected the same seed to produce the same report")
	}
}

func TestBatchCommand_MeshOverride(t *testing.T) {
	dir := t.TempDir()
	mesh := writeTestFile(t, dir, "other.stl", tetraSTL)
	config := writeTestFile(t, dir, "probe.yaml", `
meshes: [missing.stl]
rays:
  - origin: [1, 1, 1]
    direction: [-1, -1, -1]
`)

	out, err := runCLI(t, "batch", config, "--mesh", mesh)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if !strings.Contains(out, "other") || !strings.Contains(out, "1 rays, 1 hits, 0 misses") {
		t.Errorf("Expected a hit on the override mesh, got:\n%s", out)
	}

	if _, err := runCLI(t, "batch", config); err == nil {
		t.Error("Expected error for the missing configured mesh")
	}
}

func TestVerboseLogsToStderr(t *testing.T) {
	mesh := writeTestFile(t, t.TempDir(), "tetra.stl", tetraSTL)

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs([]string{"info", mesh, "-v"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("info failed: %v", err)
	}

	if !strings.Contains(stderr.String(), "KD-tree built") {
		t.Errorf("Expected build stats on stderr, got:\n%s", stderr.String())
	}
	if strings.Contains(stdout.String(), "KD-tree built") {
		t.Error("Build stats leaked to stdout")
	}
}

func TestServeCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no meshes", []string{"serve"}},
		{"missing mesh", []string{"serve", "nonexistent.ply", "--port", "0"}},
		{"unknown accelerator", []string{"serve", "nonexistent.ply", "--accel", "grid"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runCLI(t, tt.args...); err == nil {
				t.Errorf("Expected error for %v", tt.args)
			}
		})
	}
}
