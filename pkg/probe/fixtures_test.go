package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/df07/go-spatial/pkg/accel"
	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
	"github.com/stretchr/testify/require"
)

// cubeMesh builds a closed cube of side 2 centered on center, normals outwards, with a KD-tree
func cubeMesh(t *testing.T, name string, center core.Vec3) *geometry.Mesh {
	t.Helper()
	half := core.NewVec3(1, 1, 1)
	v := core.NewAABBFromCorners(center.Subtract(half), center.Add(half)).Corners()

	mesh := geometry.NewMesh(name,
		geometry.NewFacet(v[0], v[1], v[2]), geometry.NewFacet(v[2], v[3], v[0]), // top
		geometry.NewFacet(v[0], v[3], v[5]), geometry.NewFacet(v[5], v[6], v[0]), // right
		geometry.NewFacet(v[1], v[7], v[4]), geometry.NewFacet(v[1], v[4], v[2]), // left
		geometry.NewFacet(v[4], v[6], v[5]), geometry.NewFacet(v[4], v[7], v[6]), // bottom
		geometry.NewFacet(v[0], v[6], v[7]), geometry.NewFacet(v[7], v[1], v[0]), // front
		geometry.NewFacet(v[3], v[2], v[4]), geometry.NewFacet(v[4], v[5], v[3]), // back
	)
	require.NoError(t, mesh.SetAccelerator(accel.Factory()))
	return mesh
}

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

// squarePLY is a unit square at height z facing +Z
func squarePLY(z float64) string {
	return fmt.Sprintf(`ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 %[1]g
1 0 %[1]g
1 1 %[1]g
0 1 %[1]g
4 0 1 2 3
`, z)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// recordingLogger is safe for the concurrent mesh loads in Load
type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}
