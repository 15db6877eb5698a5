package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3_Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(-4, 5, 0.5)

	assert.Equal(t, NewVec3(-3, 7, 3.5), a.Add(b))
	assert.Equal(t, NewVec3(5, -3, 2.5), a.Subtract(b))
	assert.Equal(t, NewVec3(2, 4, 6), a.Multiply(2))
	assert.Equal(t, NewVec3(0.5, 1, 1.5), a.Divide(2))
	assert.Equal(t, NewVec3(-1, -2, -3), a.Negate())
	assert.InDelta(t, 7.5, a.Dot(b), 1e-12)
	assert.InDelta(t, math.Sqrt(14), a.Length(), 1e-12)
	assert.InDelta(t, 14, a.LengthSquared(), 1e-12)
}

func TestVec3_Cross(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Vec3
		expected Vec3
	}{
		{"X cross Y", UnitX(), UnitY(), UnitZ()},
		{"Y cross Z", UnitY(), UnitZ(), UnitX()},
		{"Z cross X", UnitZ(), UnitX(), UnitY()},
		{"Y cross X", UnitY(), UnitX(), UnitZ().Negate()},
		{"parallel", NewVec3(1, 2, 3), NewVec3(2, 4, 6), Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Cross(tt.b))
		})
	}
}

func TestVec3_Normalize(t *testing.T) {
	v := NewVec3(3, 0, 4)
	assert.InDelta(t, 1.0, v.Normalize().Length(), 1e-12)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())

	unit, err := v.NormalizeChecked()
	require.NoError(t, err)
	assert.True(t, unit.ApproxEqual(NewVec3(0.6, 0, 0.8), 1e-12))

	_, err = Vec3{}.NormalizeChecked()
	assert.True(t, errors.Is(err, ErrZeroLength))
}

func TestVec3_Components(t *testing.T) {
	v := NewVec3(1, 2, 3)
	for i, axis := range Axes {
		assert.Equal(t, float64(i+1), v.Component(axis))
	}
	assert.Equal(t, NewVec3(1, 9, 3), v.WithComponent(Y, 9))
	assert.Equal(t, NewVec3(1, 2, 3), v, "WithComponent must not mutate the receiver")
}

func TestVec3_MinMax(t *testing.T) {
	a := NewVec3(1, -2, 3)
	b := NewVec3(-1, 2, 3)
	assert.Equal(t, NewVec3(-1, -2, 3), a.Min(b))
	assert.Equal(t, NewVec3(1, 2, 3), a.Max(b))
}

func TestAxis(t *testing.T) {
	assert.Equal(t, X, AxisForDepth(0))
	assert.Equal(t, Y, AxisForDepth(1))
	assert.Equal(t, Z, AxisForDepth(2))
	assert.Equal(t, X, AxisForDepth(3))
	assert.Equal(t, "Z", Z.String())
}
