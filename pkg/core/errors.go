package core

import "errors"

var (
	// ErrDegenerateTriangle is returned when a facet normal is computed from collinear vertices.
	ErrDegenerateTriangle = errors.New("degenerate triangle")

	// ErrUnsupportedType is returned when AABB.Expand receives something it cannot bound.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrSplitOutOfRange is returned when a split plane does not lie strictly inside a box.
	ErrSplitOutOfRange = errors.New("split plane outside bounding box")

	// ErrZeroDirection is returned when a ray is built from a zero-length direction.
	ErrZeroDirection = errors.New("ray direction must be non-zero")

	// ErrNegativeDistance is returned when an intersection would lie behind its ray.
	ErrNegativeDistance = errors.New("intersection can not be behind ray")

	// ErrZeroLength is returned by Vec3.NormalizeChecked for a zero-length vector.
	ErrZeroLength = errors.New("zero length vector")
)
