package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
)

// ParserFor picks a mesh parser from the file extension
func ParserFor(path string, logger core.Logger) (geometry.MeshParser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ply":
		return NewPLYParser(logger), nil
	case ".stl":
		return NewSTLParser(logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// meshName derives a mesh name from the file name without its extension
func meshName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
