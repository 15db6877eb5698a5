package core

// Axis identifies one of the cartesian coordinate axes
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// Axes lists the coordinate axes in order
var Axes = [3]Axis{X, Y, Z}

// AxisForDepth cycles X, Y, Z with tree depth
func AxisForDepth(depth int) Axis {
	return Axis(depth % 3)
}

func (a Axis) String() string {
	switch a {
	case X:
		return "X"
	case Y:
		return "Y"
	case Z:
		return "Z"
	default:
		return "Axis(?)"
	}
}
