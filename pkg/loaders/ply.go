package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string // Usually "1.0"
	Elements    []PLYElement
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty

	// Property detection flags
	HasNormals bool

	// Property indices for efficient access
	PositionIndices [3]int // Indices of x, y, z properties
	NormalIndices   [3]int // Indices of nx, ny, nz properties
}

// PLYElement is an element declaration and the properties stored for each of its rows
type PLYElement struct {
	Name  string
	Count int
	Props []PLYProperty
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// PLYData contains the raw data loaded from a PLY file
type PLYData struct {
	Vertices []core.Vec3 // Vertex positions (x, y, z)
	Faces    []int       // Triangle indices (3 per triangle)
	Normals  []core.Vec3 // Per-vertex normals (nx, ny, nz) - empty if not present
}

// PLYParser reads PLY files into a single mesh named after the file
type PLYParser struct {
	Logger core.Logger
}

// NewPLYParser creates a parser that reports load times through logger; nil discards them
func NewPLYParser(logger core.Logger) *PLYParser {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &PLYParser{Logger: logger}
}

// Parse loads path and builds a mesh from its triangles. Per-vertex normals, when present,
// are averaged into per-facet normals.
func (p *PLYParser) Parse(path string) ([]*geometry.Mesh, error) {
	startTime := time.Now()

	data, err := LoadPLY(path)
	if err != nil {
		return nil, err
	}

	var normals []core.Vec3
	if len(data.Normals) > 0 {
		normals = facetNormals(data)
	}

	mesh, err := geometry.NewIndexedMesh(meshName(path), data.Vertices, data.Faces, normals)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}

	p.logger().Printf("✅ Loaded PLY data: %d vertices, %d triangles in %v\n",
		len(data.Vertices), len(data.Faces)/3, time.Since(startTime))

	return []*geometry.Mesh{mesh}, nil
}

func (p *PLYParser) logger() core.Logger {
	if p.Logger == nil {
		return core.NopLogger{}
	}
	return p.Logger
}

// facetNormals averages the vertex normals of each triangle. Out of range indices yield a
// zero normal and are rejected later when the mesh is built.
func facetNormals(data *PLYData) []core.Vec3 {
	normals := make([]core.Vec3, len(data.Faces)/3)
	for i := range normals {
		var sum core.Vec3
		for _, index := range data.Faces[i*3 : i*3+3] {
			if index >= 0 && index < len(data.Normals) {
				sum = sum.Add(data.Normals[index])
			}
		}
		normals[i] = sum.Normalize()
	}
	return normals
}

// LoadPLY loads a PLY file and returns the raw vertex and face data
func LoadPLY(filename string) (*PLYData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	return ReadPLY(file)
}

// ReadPLY parses PLY data in any of the three standard encodings
func ReadPLY(r io.Reader) (*PLYData, error) {
	reader := bufio.NewReaderSize(r, 1024*1024) // 1MB buffer

	header, err := parsePLYHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "binary_little_endian":
		values = &binaryValueReader{r: reader, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &binaryValueReader{r: reader, order: binary.BigEndian}
	case "ascii":
		scanner := bufio.NewScanner(reader)
		scanner.Split(bufio.ScanWords)
		values = &asciiValueReader{scanner: scanner}
	default:
		return nil, fmt.Errorf("%w: PLY format %q", ErrUnsupportedFormat, header.Format)
	}

	data, err := readPLYBody(values, header)
	if err != nil {
		return nil, fmt.Errorf("failed to read PLY data: %w", err)
	}
	return data, nil
}

// parsePLYHeader consumes the header, leaving reader positioned at the first data byte
func parsePLYHeader(reader *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}

	var current *PLYElement
	positions := 0
	for lineNumber := 1; ; lineNumber++ {
		raw, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || raw == "") {
			if err == io.EOF {
				return nil, fmt.Errorf("%w: missing end_header", ErrInvalidFormat)
			}
			return nil, fmt.Errorf("error reading header: %w", err)
		}
		line := strings.TrimSpace(raw)

		if lineNumber == 1 {
			if line != "ply" {
				return nil, fmt.Errorf("%w: missing ply magic number", ErrInvalidFormat)
			}
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: invalid format line %q", ErrInvalidFormat, line)
			}
			header.Format = parts[1]
			header.Version = parts[2]
		case "comment", "obj_info":
			// Ignore comments
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: invalid element line %q", ErrInvalidFormat, line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil || count < 0 {
				return nil, fmt.Errorf("%w: invalid element count: %s", ErrInvalidFormat, parts[2])
			}
			header.Elements = append(header.Elements, PLYElement{Name: parts[1], Count: count})
			current = &header.Elements[len(header.Elements)-1]
		case "property":
			if current == nil {
				return nil, fmt.Errorf("%w: property before any element", ErrInvalidFormat)
			}
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			current.Props = append(current.Props, prop)
		default:
			return nil, fmt.Errorf("%w: unknown header keyword %q", ErrInvalidFormat, parts[0])
		}

		if err == io.EOF {
			return nil, fmt.Errorf("%w: missing end_header", ErrInvalidFormat)
		}
	}

	for _, element := range header.Elements {
		switch element.Name {
		case "vertex":
			header.VertexCount = element.Count
			header.VertexProps = element.Props
		case "face":
			header.FaceCount = element.Count
			header.FaceProps = element.Props
		}
	}

	for i, prop := range header.VertexProps {
		switch prop.Name {
		case "x":
			header.PositionIndices[0] = i
			positions++
		case "y":
			header.PositionIndices[1] = i
			positions++
		case "z":
			header.PositionIndices[2] = i
			positions++
		case "nx":
			header.HasNormals = true
			header.NormalIndices[0] = i
		case "ny":
			header.HasNormals = true
			header.NormalIndices[1] = i
		case "nz":
			header.HasNormals = true
			header.NormalIndices[2] = i
		}
	}

	if header.VertexCount > 0 && positions != 3 {
		return nil, fmt.Errorf("%w: vertex element lacks x, y and z", ErrInvalidFormat)
	}

	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("%w: invalid property definition", ErrInvalidFormat)
	}

	prop := PLYProperty{}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("%w: invalid list property definition", ErrInvalidFormat)
		}
		prop.IsList = true
		prop.ListType = parts[1]
		prop.DataType = parts[2]
		prop.Name = parts[3]
		if getTypeSize(prop.ListType) == 0 || getTypeSize(prop.DataType) == 0 {
			return PLYProperty{}, fmt.Errorf("%w: list %s %s", ErrUnsupportedFormat, prop.ListType, prop.DataType)
		}
	} else {
		prop.Type = parts[0]
		prop.Name = parts[1]
		if getTypeSize(prop.Type) == 0 {
			return PLYProperty{}, fmt.Errorf("%w: property type %s", ErrUnsupportedFormat, prop.Type)
		}
	}

	return prop, nil
}

// readPLYBody reads every element in declaration order, keeping vertices and faces
func readPLYBody(values plyValueReader, header *PLYHeader) (*PLYData, error) {
	// Pre-allocate slices with exact capacity to avoid reallocations
	// Capacities are capped since counts come straight from an untrusted header
	vertexCap := min(header.VertexCount, maxPLYPrealloc)
	data := &PLYData{
		Vertices: make([]core.Vec3, 0, vertexCap),
		Faces:    make([]int, 0, min(header.FaceCount, maxPLYPrealloc)*3), // Assuming triangular faces
	}
	if header.HasNormals {
		data.Normals = make([]core.Vec3, 0, vertexCap)
	}

	for _, element := range header.Elements {
		for i := 0; i < element.Count; i++ {
			var err error
			switch element.Name {
			case "vertex":
				err = readVertex(values, header, data)
			case "face":
				err = readFace(values, element.Props, data)
			default:
				err = skipRow(values, element.Props)
			}
			if err != nil {
				return nil, fmt.Errorf("%s %d: %w", element.Name, i, err)
			}
		}
	}

	return data, nil
}

func readVertex(values plyValueReader, header *PLYHeader, data *PLYData) error {
	row := make([]float64, len(header.VertexProps))
	for i, prop := range header.VertexProps {
		if prop.IsList {
			// Lists in vertex data are skipped (shouldn't happen normally)
			if err := skipList(values, prop); err != nil {
				return err
			}
			continue
		}
		value, err := values.read(prop.Type)
		if err != nil {
			return fmt.Errorf("property %s: %w", prop.Name, err)
		}
		row[i] = value
	}

	p := header.PositionIndices
	data.Vertices = append(data.Vertices, core.NewVec3(row[p[0]], row[p[1]], row[p[2]]))

	if header.HasNormals {
		n := header.NormalIndices
		data.Normals = append(data.Normals, core.NewVec3(row[n[0]], row[n[1]], row[n[2]]))
	}
	return nil
}

// readFace reads the vertex index list and fans polygons into triangles
func readFace(values plyValueReader, props []PLYProperty, data *PLYData) error {
	for _, prop := range props {
		if !prop.IsList || (prop.Name != "vertex_indices" && prop.Name != "vertex_index") {
			// Skip unknown face properties
			if err := skipProperty(values, prop); err != nil {
				return fmt.Errorf("failed to skip face property %s: %w", prop.Name, err)
			}
			continue
		}

		count, err := readListCount(values, prop)
		if err != nil {
			return fmt.Errorf("failed to read face vertex count: %w", err)
		}
		if count < 3 {
			return fmt.Errorf("%w: face with %d vertices", ErrInvalidFormat, count)
		}

		indices := make([]int, count)
		for j := range indices {
			index, err := values.read(prop.DataType)
			if err != nil {
				return fmt.Errorf("failed to read face index %d: %w", j, err)
			}
			if index != math.Trunc(index) || index < 0 || index > math.MaxInt32 {
				return fmt.Errorf("%w: face index %v", ErrInvalidFormat, index)
			}
			indices[j] = int(index)
		}

		for j := 1; j+1 < len(indices); j++ {
			data.Faces = append(data.Faces, indices[0], indices[j], indices[j+1])
		}
	}
	return nil
}

const (
	// maxPLYListLength bounds the entries of a single list property
	maxPLYListLength = 1 << 16
	// maxPLYPrealloc bounds the element count used to size slices up front
	maxPLYPrealloc = 1 << 20
)

// readListCount reads the length prefix of a list property, rejecting values that are not
// a non-negative integer within maxPLYListLength.
func readListCount(values plyValueReader, prop PLYProperty) (int, error) {
	count, err := values.read(prop.ListType)
	if err != nil {
		return 0, err
	}
	if count != math.Trunc(count) || count < 0 || count > maxPLYListLength {
		return 0, fmt.Errorf("%w: list length %v", ErrInvalidFormat, count)
	}
	return int(count), nil
}

func skipRow(values plyValueReader, props []PLYProperty) error {
	for _, prop := range props {
		if err := skipProperty(values, prop); err != nil {
			return err
		}
	}
	return nil
}

// skipProperty skips a property in the data stream
func skipProperty(values plyValueReader, prop PLYProperty) error {
	if prop.IsList {
		return skipList(values, prop)
	}
	_, err := values.read(prop.Type)
	return err
}

func skipList(values plyValueReader, prop PLYProperty) error {
	count, err := readListCount(values, prop)
	if err != nil {
		return err
	}
	// Skip list elements
	for i := 0; i < count; i++ {
		if _, err := values.read(prop.DataType); err != nil {
			return err
		}
	}
	return nil
}

// getTypeSize returns the size in bytes of a PLY data type, zero if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}

// plyValueReader yields successive scalar values from the body of a PLY file
type plyValueReader interface {
	read(dataType string) (float64, error)
}

type binaryValueReader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryValueReader) read(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("%w: data type %s", ErrUnsupportedFormat, dataType)
	}
	buf := b.buf[:size]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}

	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	case "double", "float64":
		return math.Float64frombits(b.order.Uint64(buf)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(buf))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(buf)), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(buf))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(buf)), nil
	case "char", "int8":
		return float64(int8(buf[0])), nil
	default: // uchar, uint8
		return float64(buf[0]), nil
	}
}

type asciiValueReader struct {
	scanner *bufio.Scanner
}

func (a *asciiValueReader) read(dataType string) (float64, error) {
	if !a.scanner.Scan() {
		if err := a.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, io.ErrUnexpectedEOF
	}
	token := a.scanner.Text()
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s value %q", ErrInvalidFormat, dataType, token)
	}
	return value, nil
}
