package geometry

import (
	"fmt"

	"github.com/df07/go-spatial/pkg/core"
)

// Edge is a segment between two points. Edges compare equal regardless of direction.
type Edge struct {
	Start, End core.Vec3
}

// NewEdge creates an edge from start to end
func NewEdge(start, end core.Vec3) Edge {
	return Edge{Start: start, End: end}
}

// Vector returns the vector from start to end
func (e Edge) Vector() core.Vec3 {
	return e.End.Subtract(e.Start)
}

// Length returns the distance between the endpoints
func (e Edge) Length() float64 {
	return e.Vector().Length()
}

// Equal reports whether both edges join the same two points
func (e Edge) Equal(other Edge) bool {
	return (e.Start == other.Start && e.End == other.End) ||
		(e.Start == other.End && e.End == other.Start)
}

func (e Edge) String() string {
	return fmt.Sprintf("%v -> %v", e.Start, e.End)
}
