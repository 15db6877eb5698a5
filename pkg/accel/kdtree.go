package accel

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
)

// KDTree accelerates ray queries against a fixed facet set.
// It is built once; any change to the facets requires a full rebuild, which happens off to
// the side and is swapped in atomically so concurrent queries always see a complete tree.
type KDTree struct {
	root atomic.Pointer[KDTreeNode]
	opts options
}

// NewKDTree builds a tree over facets within bounds
func NewKDTree(bounds core.AABB, facets []*geometry.Facet, opts ...Option) (*KDTree, error) {
	tree := &KDTree{opts: newOptions(opts)}
	if err := tree.Rebuild(bounds, facets); err != nil {
		return nil, err
	}
	return tree, nil
}

// NewKDTreeFromMesh builds a tree over the mesh's current bounds and facets
func NewKDTreeFromMesh(mesh *geometry.Mesh, opts ...Option) (*KDTree, error) {
	return NewKDTree(mesh.AABB(), mesh.Facets(), opts...)
}

// Factory returns an AcceleratorFactory that installs KD-trees on meshes
func Factory(opts ...Option) geometry.AcceleratorFactory {
	return func(bounds core.AABB, facets []*geometry.Facet) (geometry.Accelerator, error) {
		return NewKDTree(bounds, facets, opts...)
	}
}

// Rebuild discards the current tree and builds a new one from bounds and facets
func (t *KDTree) Rebuild(bounds core.AABB, facets []*geometry.Facet) error {
	startTime := time.Now()

	// The root owns its own slice so later edits by the caller cannot reach the tree
	root := newKDTreeNode(bounds, append([]*geometry.Facet(nil), facets...), t.opts.depthBound)
	if err := root.Branch(0); err != nil {
		return fmt.Errorf("building KD-tree: %w", err)
	}
	t.root.Store(root)

	stats := collectStats(root)
	t.opts.logger.Printf("KD-tree built: %d facets, %d nodes (%d leaves), max depth %d, %d facet references in %v\n",
		len(facets), stats.TotalNodes, stats.LeafNodes, stats.MaxDepth, stats.FacetRefs, time.Since(startTime))
	return nil
}

// Update rebuilds the tree from the mesh's current bounds and facets
func (t *KDTree) Update(mesh *geometry.Mesh) error {
	return t.Rebuild(mesh.AABB(), mesh.Facets())
}

// Intersect returns the closest intersection of the ray with the tree's facets
func (t *KDTree) Intersect(ray core.Ray) core.Intersection {
	root := t.root.Load()
	if root == nil {
		return core.Miss()
	}
	return root.Intersect(ray)
}

// Root returns the current root node
func (t *KDTree) Root() *KDTreeNode {
	return t.root.Load()
}

// DepthBound returns the configured maximum branching depth
func (t *KDTree) DepthBound() int {
	return t.opts.depthBound
}

// Stats returns statistics about the current tree structure
func (t *KDTree) Stats() Stats {
	root := t.root.Load()
	if root == nil {
		return Stats{}
	}
	return collectStats(root)
}

// Stats contains statistics about the KD-tree structure
type Stats struct {
	TotalNodes int
	LeafNodes  int
	MaxDepth   int
	AvgDepth   float64 // Average leaf depth
	FacetRefs  int     // Facet entries across all leaves, counting replicated facets each time
}

func collectStats(root *KDTreeNode) Stats {
	stats := Stats{}
	collectNodeStats(root, 0, &stats)

	// Calculate average depth after collecting all data
	if stats.LeafNodes > 0 {
		stats.AvgDepth = stats.AvgDepth / float64(stats.LeafNodes)
	}
	return stats
}

// collectNodeStats recursively collects statistics about the tree
func collectNodeStats(node *KDTreeNode, depth int, stats *Stats) {
	stats.TotalNodes++

	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.IsLeaf() {
		stats.LeafNodes++
		stats.FacetRefs += len(node.facets)
		stats.AvgDepth += float64(depth) // Accumulate depth for average calculation
		return
	}

	for _, child := range node.children {
		collectNodeStats(child, depth+1, stats)
	}
}

var (
	_ geometry.Accelerator = (*KDTree)(nil)
	_ geometry.Rebuilder   = (*KDTree)(nil)
	_ core.Intersectable   = (*KDTreeNode)(nil)
)
