package accel

import (
	"math/rand"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
)

func cubeBox() core.AABB {
	return core.NewAABBFromCorners(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
}

// cubeFacets returns eight facets on the top, right, left and bottom faces of the cube.
func cubeFacets() []*geometry.Facet {
	v := cubeBox().Corners()
	return []*geometry.Facet{
		// Top facets
		geometry.NewFacet(v[0], v[1], v[2]),
		geometry.NewFacet(v[2], v[3], v[0]),
		// Right facets
		geometry.NewFacet(v[0], v[3], v[5]),
		geometry.NewFacet(v[5], v[6], v[0]),
		// Left facets
		geometry.NewFacet(v[1], v[7], v[4]),
		geometry.NewFacet(v[1], v[4], v[2]),
		// Bottom facets
		geometry.NewFacet(v[4], v[6], v[5]),
		geometry.NewFacet(v[4], v[7], v[6]),
	}
}

// closedCubeFacets adds the front and back faces, with every normal pointing outwards.
func closedCubeFacets() []*geometry.Facet {
	v := cubeBox().Corners()
	return append(cubeFacets(),
		geometry.NewFacet(v[0], v[6], v[7]),
		geometry.NewFacet(v[7], v[1], v[0]),
		geometry.NewFacet(v[3], v[2], v[4]),
		geometry.NewFacet(v[4], v[5], v[3]),
	)
}

// cubeFeatures returns the 8 corners and 12 edge midpoints of cubeBox.
func cubeFeatures() []core.Vec3 {
	corners := cubeBox().Corners()
	features := append([]core.Vec3(nil), corners[:]...)
	for i, a := range corners {
		for _, b := range corners[i+1:] {
			d := a.Subtract(b)
			if d.Dot(d) == 4 { // corners sharing an edge of the 2-wide cube
				features = append(features, a.Add(b).Multiply(0.5))
			}
		}
	}
	return features
}

// featureRays aims count rays from points on a sphere of the given radius at cube corners and edge midpoints.
func featureRays(random *rand.Rand, count int, radius float64) []core.Ray {
	features := cubeFeatures()
	rays := make([]core.Ray, 0, count)
	for i := 0; i < count; i++ {
		origin := core.SampleOnUnitSphere(random.Float64(), random.Float64()).Multiply(radius)
		target := features[random.Intn(len(features))]
		rays = append(rays, core.MustRay(origin, target.Subtract(origin)))
	}
	return rays
}

func randomPoint(random *rand.Rand, extent float64) core.Vec3 {
	return core.NewVec3(
		(random.Float64()*2-1)*extent,
		(random.Float64()*2-1)*extent,
		(random.Float64()*2-1)*extent,
	)
}

// randomTriangles returns a soup of small triangles scattered through a box of the given extent.
func randomTriangles(random *rand.Rand, count int, extent float64) []*geometry.Facet {
	facets := make([]*geometry.Facet, 0, count)
	for len(facets) < count {
		center := randomPoint(random, extent)
		a := center.Add(randomPoint(random, 0.5))
		b := center.Add(randomPoint(random, 0.5))
		c := center.Add(randomPoint(random, 0.5))
		facet := geometry.NewFacet(a, b, c)
		if _, err := facet.Normal(); err != nil {
			continue
		}
		facets = append(facets, facet)
	}
	return facets
}

func boundsOf(facets []*geometry.Facet) core.AABB {
	bounds := core.EmptyAABB()
	for _, f := range facets {
		bounds = bounds.Union(f.AABB())
	}
	return bounds
}

// leafFacets collects the facets of every leaf below node, with duplicates.
func leafFacets(node *KDTreeNode) []*geometry.Facet {
	if node.IsLeaf() {
		return node.Facets()
	}
	var facets []*geometry.Facet
	for _, child := range node.Children() {
		facets = append(facets, leafFacets(child)...)
	}
	return facets
}

// recordingLogger keeps formatted log lines for inspection.
type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Printf(format string, args ...interface{}) {
	l.lines = append(l.lines, format)
}
