package core

import (
	"math"
	"math/rand"
)

// Sampler provides uniform random numbers in [0, 1).
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() (float64, float64)
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a reproducible sampler
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() (float64, float64) {
	return r.random.Float64(), r.random.Float64()
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// SampleOnUnitSphere maps two uniform values to a uniform direction on the unit sphere
func SampleOnUnitSphere(u, v float64) Vec3 {
	z := 1.0 - 2.0*u // z ∈ [-1, 1]
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * v
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// SampleCone maps two uniform values to a direction within cosTotalWidth of direction,
// which must be unit length
func SampleCone(direction Vec3, cosTotalWidth float64, u, v float64) Vec3 {
	w := direction
	var t Vec3
	if math.Abs(w.X) > 0.1 {
		t = UnitY()
	} else {
		t = UnitX()
	}
	t = t.Cross(w).Normalize()
	b := w.Cross(t)

	cosTheta := 1.0 - u*(1.0-cosTotalWidth)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * v

	return t.Multiply(sinTheta * math.Cos(phi)).Add(b.Multiply(sinTheta * math.Sin(phi))).Add(w.Multiply(cosTheta))
}

// SamplePointInBox maps a sample in [0, 1)³ to a uniform point inside aabb
func SamplePointInBox(aabb AABB, sample Vec3) Vec3 {
	return aabb.Min.Add(aabb.Size().MultiplyVec(sample))
}
