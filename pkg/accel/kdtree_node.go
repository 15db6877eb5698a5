package accel

import (
	"errors"

	"github.com/df07/go-spatial/pkg/core"
	"github.com/df07/go-spatial/pkg/geometry"
)

// KDTreeNode is a node of a KD-tree. A leaf holds facets and no children;
// an interior node holds exactly two children and no facets.
type KDTreeNode struct {
	aabb       core.AABB
	facets     []*geometry.Facet
	children   []*KDTreeNode
	depthBound int

	// aabb grown by pruneTolerance; only used to prune rays
	hitBox core.AABB
}

// pruneTolerance pads node boxes so rays grazing a face, edge or corner are not pruned by rounding
const pruneTolerance = 1e-9

// NewKDTreeNode creates an unbranched node using DefaultDepthBound
func NewKDTreeNode(aabb core.AABB, facets []*geometry.Facet) *KDTreeNode {
	return newKDTreeNode(aabb, facets, DefaultDepthBound)
}

func newKDTreeNode(aabb core.AABB, facets []*geometry.Facet, depthBound int) *KDTreeNode {
	return &KDTreeNode{
		aabb:       aabb,
		facets:     facets,
		depthBound: depthBound,
		hitBox:     aabb.Inflate(pruneTolerance),
	}
}

// AABB returns the region of space the node covers
func (n *KDTreeNode) AABB() core.AABB {
	return n.aabb
}

// Facets returns the facets held by a leaf; interior nodes hold none
func (n *KDTreeNode) Facets() []*geometry.Facet {
	return n.facets
}

// Children returns the two children of an interior node, nil for a leaf
func (n *KDTreeNode) Children() []*KDTreeNode {
	return n.children
}

// IsLeaf reports whether the node has no children
func (n *KDTreeNode) IsLeaf() bool {
	return len(n.children) == 0
}

// CanBranch reports whether the node holds facets and depth is below the depth bound
func (n *KDTreeNode) CanBranch(depth int) bool {
	return len(n.facets) > 0 && depth < n.depthBound
}

// SplittingPlane returns the axis for depth (cycling X, Y, Z) and the box center on that axis
func (n *KDTreeNode) SplittingPlane(depth int) (core.Axis, float64) {
	axis := core.AxisForDepth(depth)
	return axis, n.aabb.Center().Component(axis)
}

// SplitFacets partitions the node's facets by the plane at value along axis.
// Facets whose box starts below the plane go left, those ending above it go right,
// so a straddling facet lands in both. A facet lying flat in the plane also goes to both.
func (n *KDTreeNode) SplitFacets(axis core.Axis, value float64) (left, right []*geometry.Facet) {
	for _, facet := range n.facets {
		lo, hi := facet.AABB().AxisExtents(axis)
		inLeft := lo < value
		inRight := hi > value

		if !inLeft && !inRight {
			inLeft, inRight = true, true
		}
		if inLeft {
			left = append(left, facet)
		}
		if inRight {
			right = append(right, facet)
		}
	}
	return left, right
}

// Branch splits the node into two children when possible and recurses into them.
// Afterwards only leaves hold facets. A node whose box has no extent along the
// splitting axis stays a leaf.
func (n *KDTreeNode) Branch(depth int) error {
	if !n.CanBranch(depth) {
		return nil
	}

	axis, value := n.SplittingPlane(depth)

	leftBox, rightBox, err := n.aabb.Split(axis, value)
	if errors.Is(err, core.ErrSplitOutOfRange) {
		return nil
	}
	if err != nil {
		return err
	}

	leftFacets, rightFacets := n.SplitFacets(axis, value)

	children := []*KDTreeNode{
		newKDTreeNode(leftBox, leftFacets, n.depthBound),
		newKDTreeNode(rightBox, rightFacets, n.depthBound),
	}
	for _, child := range children {
		if err := child.Branch(depth + 1); err != nil {
			return err
		}
	}

	n.children = children
	n.facets = nil
	return nil
}

// Intersect returns the closest hit among the facets below this node.
// Rays missing the node's padded box are pruned; both children are tested otherwise.
func (n *KDTreeNode) Intersect(ray core.Ray) core.Intersection {
	if !n.hitBox.Intersect(ray) {
		return core.Miss()
	}

	if n.IsLeaf() {
		return core.Closest(ray, n.facets)
	}

	return core.Closest(ray, n.children)
}
