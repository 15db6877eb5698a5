package core

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// VectorKind selects how a Transform treats a vector
type VectorKind int

const (
	// AsPoint rotates then translates
	AsPoint VectorKind = iota
	// AsVector rotates only; directions and normals never translate
	AsVector
)

// Transform is a rigid body transformation: a unit quaternion rotation followed by a translation.
// The zero value is the identity.
type Transform struct {
	rotation    mgl64.Quat
	translation Vec3
}

// IdentityTransform returns a transform that maps every vector to itself
func IdentityTransform() Transform {
	return Transform{rotation: mgl64.QuatIdent()}
}

// NewTransform creates a transform from an axis, an angle in radians and a translation.
// A zero axis produces no rotation.
func NewTransform(axis Vec3, angle float64, translation Vec3) Transform {
	rotation := mgl64.QuatIdent()
	if unit, err := axis.NormalizeChecked(); err == nil {
		rotation = mgl64.QuatRotate(angle, toMgl(unit))
	}
	return Transform{rotation: rotation, translation: translation}
}

// FromOrientationTranslation creates a transform from an orientation quaternion and a translation
func FromOrientationTranslation(orientation mgl64.Quat, translation Vec3) Transform {
	return Transform{rotation: orientation.Normalize(), translation: translation}
}

func (t Transform) quat() mgl64.Quat {
	if t.rotation == (mgl64.Quat{}) {
		return mgl64.QuatIdent()
	}
	return t.rotation
}

// Rotation returns the rotation quaternion
func (t Transform) Rotation() mgl64.Quat {
	return t.quat()
}

// Translation returns the translation vector
func (t Transform) Translation() Vec3 {
	return t.translation
}

// Apply maps v through the transform as a point or as a vector
func (t Transform) Apply(v Vec3, kind VectorKind) Vec3 {
	rotated := fromMgl(t.quat().Rotate(toMgl(v)))
	if kind == AsVector {
		return rotated
	}
	return rotated.Add(t.translation)
}

// ApplyAll maps every vector through the transform
func (t Transform) ApplyAll(vs []Vec3, kind VectorKind) []Vec3 {
	out := make([]Vec3, len(vs))
	for i, v := range vs {
		out[i] = t.Apply(v, kind)
	}
	return out
}

// Compose returns the transform equivalent to applying other first and then t
func (t Transform) Compose(other Transform) Transform {
	q := t.quat()
	return Transform{
		rotation:    q.Mul(other.quat()).Normalize(),
		translation: fromMgl(q.Rotate(toMgl(other.translation))).Add(t.translation),
	}
}

// Inverse returns the transform that undoes t
func (t Transform) Inverse() Transform {
	inv := t.quat().Conjugate()
	return Transform{
		rotation:    inv,
		translation: fromMgl(inv.Rotate(toMgl(t.translation))).Negate(),
	}
}

// Basis returns the images of the X, Y and Z unit vectors
func (t Transform) Basis() (Vec3, Vec3, Vec3) {
	return t.Apply(UnitX(), AsVector), t.Apply(UnitY(), AsVector), t.Apply(UnitZ(), AsVector)
}

func (t Transform) String() string {
	q := t.quat()
	return fmt.Sprintf("rotation (%g, %g, %g, %g), translation %v", q.W, q.V[0], q.V[1], q.V[2], t.translation)
}

func toMgl(v Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromMgl(v mgl64.Vec3) Vec3 {
	return Vec3{X: v[0], Y: v[1], Z: v[2]}
}
