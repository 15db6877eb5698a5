package loaders

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50 // normal, three vertices (12 float32) and a uint16 attribute
)

// STLTriangle is one facet record from an STL file
type STLTriangle struct {
	Normal   core.Vec3 // Zero when the file leaves it unset
	Vertices [3]core.Vec3
}

// STLSolid is a named group of triangles. Binary files always hold exactly one.
type STLSolid struct {
	Name      string
	Triangles []STLTriangle
}

// STLParser reads ASCII and binary STL files, producing one mesh per solid
type STLParser struct {
	Logger core.Logger
}

// NewSTLParser creates a parser that reports load times through logger; nil discards them
func NewSTLParser(logger core.Logger) *STLParser {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &STLParser{Logger: logger}
}

// Parse loads path and builds a mesh for each solid. Unnamed solids take the file name.
func (p *STLParser) Parse(path string) ([]*geometry.Mesh, error) {
	startTime := time.Now()

	solids, err := LoadSTL(path)
	if err != nil {
		return nil, err
	}

	meshes := make([]*geometry.Mesh, 0, len(solids))
	triangles := 0
	for _, solid := range solids {
		name := solid.Name
		if name == "" {
			name = meshName(path)
		}

		facets := make([]*geometry.Facet, len(solid.Triangles))
		for i, tri := range solid.Triangles {
			v := tri.Vertices
			facets[i] = geometry.NewFacetWithNormal(v[0], v[1], v[2], tri.Normal)
		}
		meshes = append(meshes, geometry.NewMesh(name, facets...))
		triangles += len(facets)
	}

	logger := p.Logger
	if logger == nil {
		logger = core.NopLogger{}
	}
	logger.Printf("✅ Loaded STL data: %d solids, %d triangles in %v\n", len(meshes), triangles, time.Since(startTime))

	return meshes, nil
}

// LoadSTL loads an STL file in either encoding
func LoadSTL(filename string) ([]STLSolid, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open STL file: %w", err)
	}
	return ParseSTL(data)
}

// ParseSTL detects the encoding of data and parses it. A file whose size matches the
// triangle count in its header is binary, even when the header starts with "solid".
func ParseSTL(data []byte) ([]STLSolid, error) {
	if isBinarySTL(data) {
		solid, err := parseBinarySTL(data)
		if err != nil {
			return nil, err
		}
		return []STLSolid{solid}, nil
	}

	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		return parseASCIISTL(bytes.NewReader(data))
	}

	return nil, fmt.Errorf("%w: neither ASCII nor binary STL", ErrInvalidFormat)
}

func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	return uint64(len(data)) == uint64(stlHeaderSize+4)+uint64(count)*stlTriangleSize
}

type stlBinaryTriangle struct {
	Normal    [3]float32
	Vertices  [3][3]float32
	Attribute uint16
}

func parseBinarySTL(data []byte) (STLSolid, error) {
	name := strings.TrimSpace(strings.TrimRight(string(data[:stlHeaderSize]), "\x00"))
	name = strings.TrimSpace(strings.TrimPrefix(name, "solid"))

	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	reader := bytes.NewReader(data[stlHeaderSize+4:])

	solid := STLSolid{Name: name, Triangles: make([]STLTriangle, 0, count)}
	for i := uint32(0); i < count; i++ {
		var raw stlBinaryTriangle
		if err := binary.Read(reader, binary.LittleEndian, &raw); err != nil {
			return STLSolid{}, fmt.Errorf("failed to read STL triangle %d: %w", i, err)
		}

		tri := STLTriangle{Normal: vec3From32(raw.Normal)}
		for j, v := range raw.Vertices {
			tri.Vertices[j] = vec3From32(v)
		}
		solid.Triangles = append(solid.Triangles, tri)
	}
	return solid, nil
}

func vec3From32(v [3]float32) core.Vec3 {
	return core.NewVec3(float64(v[0]), float64(v[1]), float64(v[2]))
}

// parseASCIISTL reads one or more "solid ... endsolid" blocks. Facets with more than three
// vertices are fanned into triangles.
func parseASCIISTL(r io.Reader) ([]STLSolid, error) {
	scanner := bufio.NewScanner(r)

	var (
		solids   []STLSolid
		solid    *STLSolid
		normal   core.Vec3
		vertices []core.Vec3
		inFacet  bool
	)

	for lineNumber := 1; scanner.Scan(); lineNumber++ {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		fail := func(format string, args ...any) error {
			return fmt.Errorf("%w: line %d: %s", ErrInvalidFormat, lineNumber, fmt.Sprintf(format, args...))
		}

		switch parts[0] {
		case "solid":
			if solid != nil {
				return nil, fail("nested solid")
			}
			solids = append(solids, STLSolid{Name: strings.Join(parts[1:], " ")})
			solid = &solids[len(solids)-1]
		case "endsolid":
			if solid == nil || inFacet {
				return nil, fail("unexpected endsolid")
			}
			solid = nil
		case "facet":
			if solid == nil || inFacet {
				return nil, fail("unexpected facet")
			}
			normal = core.Vec3{}
			if len(parts) == 5 && parts[1] == "normal" {
				n, err := parseSTLVector(parts[2:])
				if err != nil {
					return nil, fail("%v", err)
				}
				normal = n
			}
			vertices = vertices[:0]
			inFacet = true
		case "vertex":
			if !inFacet || len(parts) != 4 {
				return nil, fail("unexpected vertex")
			}
			v, err := parseSTLVector(parts[1:])
			if err != nil {
				return nil, fail("%v", err)
			}
			vertices = append(vertices, v)
		case "endfacet":
			if !inFacet {
				return nil, fail("unexpected endfacet")
			}
			if len(vertices) < 3 {
				return nil, fail("facet with %d vertices", len(vertices))
			}
			for j := 1; j+1 < len(vertices); j++ {
				solid.Triangles = append(solid.Triangles, STLTriangle{
					Normal:   normal,
					Vertices: [3]core.Vec3{vertices[0], vertices[j], vertices[j+1]},
				})
			}
			inFacet = false
		case "outer", "endloop":
			// Loop markers carry no data
		default:
			return nil, fail("unknown keyword %q", parts[0])
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading STL: %w", err)
	}
	if solid != nil {
		return nil, fmt.Errorf("%w: missing endsolid", ErrInvalidFormat)
	}
	return solids, nil
}

func parseSTLVector(parts []string) (core.Vec3, error) {
	var xyz [3]float64
	for i := range xyz {
		value, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return core.Vec3{}, fmt.Errorf("invalid number %q", parts[i])
		}
		xyz[i] = value
	}
	return core.NewVec3(xyz[0], xyz[1], xyz[2]), nil
}
