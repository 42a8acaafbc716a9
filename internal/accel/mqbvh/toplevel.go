package mqbvh

import (
	"sort"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
)

// buildTopLevel constructs the top-level QBVH-shaped tree over entry
// bounds. Unlike qbvh.Build, a group only ever terminates as a leaf once
// it holds exactly one entry: every instance must reach its own leaf slot
// so its descriptor (transform or motion system) can be resolved
// individually on traversal.
func (t *Tree) buildTopLevel(indices []int, depth int) (int32, error) {
	if depth > maxRecursionDepth {
		return 0, ErrTooDeep
	}

	nodeIdx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{})

	groups := t.splitFour(indices)

	var node Node
	for i, g := range groups {
		if len(g) == 0 {
			node.Bounds.SetEmpty(i)
			node.Children[i] = emptyChild
			continue
		}

		node.Bounds.SetChild(i, t.groupBounds(g))

		if len(g) == 1 {
			node.Children[i] = encodeLeaf(g[0])
			continue
		}

		child, err := t.buildTopLevel(g, depth+1)
		if err != nil {
			return 0, err
		}
		node.Children[i] = child
	}

	t.Nodes[nodeIdx] = node
	return nodeIdx, nil
}

// splitFour expands indices into up to four groups via two levels of
// binary splitting, mirroring qbvh's "even depth allocates a node, odd
// depth fills its remaining two slots" shape.
func (t *Tree) splitFour(indices []int) [4][]int {
	left, right := t.splitHalf(indices)
	ll, lr := t.splitHalf(left)
	rl, rr := t.splitHalf(right)
	return [4][]int{ll, lr, rl, rr}
}

// splitHalf divides indices into two roughly equal groups by sorting on
// the axis of greatest centroid spread and cutting at the median. Unlike
// bvh/qbvh's SAH splits, this never declines to split: every entry must
// eventually land in a singleton leaf slot, so a degenerate (zero-extent)
// centroid distribution still yields a valid median cut.
func (t *Tree) splitHalf(indices []int) (left, right []int) {
	if len(indices) <= 1 {
		return indices, nil
	}

	axis := t.maxCentroidExtentAxis(indices)

	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Slice(sorted, func(a, b int) bool {
		ca := t.entries[sorted[a]].bounds.Centroid()
		cb := t.entries[sorted[b]].bounds.Centroid()
		return ca[axis] < cb[axis]
	})

	mid := len(sorted) / 2
	return sorted[:mid], sorted[mid:]
}

func (t *Tree) maxCentroidExtentAxis(indices []int) int {
	bounds := geom.EmptyAABB()
	for _, idx := range indices {
		bounds = bounds.UnionPoint(t.entries[idx].bounds.Centroid())
	}
	return bounds.MaxExtentAxis()
}

func (t *Tree) groupBounds(indices []int) geom.AABB {
	b := geom.EmptyAABB()
	for _, idx := range indices {
		b = b.Union(t.entries[idx].bounds)
	}
	return b
}
