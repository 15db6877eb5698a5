package accel

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
)

// DefaultLeafSize is the facet count at or below which a BVH node becomes a leaf
const DefaultLeafSize = 8

// BVHNode represents a node in the Bounding Volume Hierarchy
type BVHNode struct {
	BoundingBox core.AABB
	Left        *BVHNode
	Right       *BVHNode
	Facets      []*geometry.Facet // Facets for leaf nodes (nil for internal nodes)

	hitBox core.AABB // BoundingBox grown by pruneTolerance
}

// IsLeaf reports whether the node stores facets directly
func (n *BVHNode) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// BVH is an object-partitioning alternative to the KD-tree: every facet lives in exactly one
// leaf, at the cost of sibling boxes that may overlap. Like KDTree it is rebuilt in full and
// swapped in atomically.
type BVH struct {
	root atomic.Pointer[BVHNode]
	opts options
}

// NewBVH constructs a BVH over facets. Bounds are recomputed from the facets themselves.
func NewBVH(facets []*geometry.Facet, opts ...Option) *BVH {
	bvh := &BVH{opts: newOptions(opts)}
	bvh.build(facets)
	return bvh
}

// BVHFactory returns an AcceleratorFactory that installs BVHs on meshes
func BVHFactory(opts ...Option) geometry.AcceleratorFactory {
	return func(_ core.AABB, facets []*geometry.Facet) (geometry.Accelerator, error) {
		return NewBVH(facets, opts...), nil
	}
}

// Rebuild replaces the hierarchy with one over facets
func (bvh *BVH) Rebuild(_ core.AABB, facets []*geometry.Facet) error {
	bvh.build(facets)
	return nil
}

func (bvh *BVH) build(facets []*geometry.Facet) {
	startTime := time.Now()

	if len(facets) == 0 {
		bvh.root.Store(nil)
		return
	}

	// Sorting reorders the slice, so build from a private copy
	facetsCopy := make([]*geometry.Facet, len(facets))
	copy(facetsCopy, facets)

	root := buildBVH(facetsCopy, bvh.opts.leafSize)
	bvh.root.Store(root)

	stats := bvh.Stats()
	bvh.opts.logger.Printf("BVH built: %d facets, %d nodes (%d leaves), max depth %d in %v\n",
		len(facets), stats.TotalNodes, stats.LeafNodes, stats.MaxDepth, time.Since(startTime))
}

// buildBVH recursively builds the BVH using a median split along the longest axis
func buildBVH(facets []*geometry.Facet, leafSize int) *BVHNode {
	// Calculate bounding box for all facets
	boundingBox := core.EmptyAABB()
	for _, facet := range facets {
		boundingBox = boundingBox.Union(facet.AABB())
	}

	// Base case: few facets - create leaf node with all facets
	// This uses efficient linear search for small groups
	if len(facets) <= leafSize {
		return &BVHNode{
			BoundingBox: boundingBox,
			Facets:      facets,
			hitBox:      boundingBox.Inflate(pruneTolerance),
		}
	}

	axis := boundingBox.LongestAxis()
	sortFacetsByAxis(facets, axis)

	// Split in the middle
	mid := len(facets) / 2

	return &BVHNode{
		BoundingBox: boundingBox,
		Left:        buildBVH(facets[:mid], leafSize),
		Right:       buildBVH(facets[mid:], leafSize),
		hitBox:      boundingBox.Inflate(pruneTolerance),
	}
}

// sortFacetsByAxis sorts facets by their bounding box center along the specified axis
func sortFacetsByAxis(facets []*geometry.Facet, axis core.Axis) {
	sort.Slice(facets, func(i, j int) bool {
		return facets[i].AABB().Center().Component(axis) < facets[j].AABB().Center().Component(axis)
	})
}

// Root returns the current root node, nil for an empty hierarchy
func (bvh *BVH) Root() *BVHNode {
	return bvh.root.Load()
}

// Intersect returns the closest facet hit
func (bvh *BVH) Intersect(ray core.Ray) core.Intersection {
	root := bvh.root.Load()
	if root == nil {
		return core.Miss()
	}
	return hitNode(root, ray, core.Miss())
}

// hitNode descends into node, skipping any box that starts beyond the closest hit so far
func hitNode(node *BVHNode, ray core.Ray, closest core.Intersection) core.Intersection {
	if !node.hitBox.IntersectRange(ray, 0, closest.Distance()) {
		return closest
	}

	if node.IsLeaf() {
		// Linear search through all facets in the leaf
		for _, facet := range node.Facets {
			if hit := facet.Intersect(ray); hit.CloserThan(closest) {
				closest = hit
			}
		}
		return closest
	}

	closest = hitNode(node.Left, ray, closest)
	return hitNode(node.Right, ray, closest)
}

// Stats returns statistics about the BVH structure. FacetRefs equals the facet count since
// nothing is replicated.
func (bvh *BVH) Stats() Stats {
	root := bvh.root.Load()
	if root == nil {
		return Stats{}
	}

	stats := Stats{}
	collectBVHStats(root, 0, &stats)

	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}
	return stats
}

// collectBVHStats recursively collects statistics about the BVH
func collectBVHStats(node *BVHNode, depth int, stats *Stats) {
	stats.TotalNodes++

	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.IsLeaf() {
		stats.LeafNodes++
		stats.FacetRefs += len(node.Facets)
		stats.AvgDepth += float64(depth)
		return
	}

	collectBVHStats(node.Left, depth+1, stats)
	collectBVHStats(node.Right, depth+1, stats)
}

var (
	_ geometry.Accelerator = (*BVH)(nil)
	_ geometry.Rebuilder   = (*BVH)(nil)
)
