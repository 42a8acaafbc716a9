// Package bvh implements the binary-/N-ary SAH bounding volume hierarchy
// builder and host-side traversal.
package bvh

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

// Tree is an immutable, packed BVH. Meshes is the mesh list the packed
// leaf MeshIndex fields index into; for a scene-level BVH this is every
// mesh passed to Build, in order.
type Tree struct {
	Nodes  []Node
	Meshes []mesh.Mesh
}

// primitive is a builder-time leaf: one triangle's bounds, centroid and
// source identity. Staged arrays of these are released once Build returns.
type primitive struct {
	bounds        geom.AABB
	centroid      mgl32.Vec3
	v0, v1, v2    uint32
	meshIndex     uint32
	triangleIndex uint32
}

// Build constructs an immutable packed BVH over every triangle of every
// mesh in meshes. totalVertexCount/totalTriangleCount are accepted to
// match the caller-facing Init contract but are not otherwise required by
// this implementation, which derives identical totals from
// meshes itself.
func Build(meshes []mesh.Mesh, totalVertexCount, totalTriangleCount uint64, params Params, eps epsilon.Config) (*Tree, error) {
	params = params.Normalize()

	prims := collectPrimitives(meshes, eps)
	if len(prims) == 0 {
		return &Tree{Meshes: meshes}, nil
	}

	root, err := buildRecursive(prims, params, eps, 0)
	if err != nil {
		return nil, err
	}

	var nodes []Node
	flatten(root, &nodes)
	return &Tree{Nodes: nodes, Meshes: meshes}, nil
}

func collectPrimitives(meshes []mesh.Mesh, eps epsilon.Config) []primitive {
	var prims []primitive
	for meshIdx, m := range meshes {
		triCount := m.TriangleCount()
		for tri := 0; tri < triCount; tri++ {
			i0, i1, i2 := m.TriangleVertexIndices(uint32(tri))
			p0 := m.GetVertex(0, i0)
			p1 := m.GetVertex(0, i1)
			p2 := m.GetVertex(0, i2)
			bounds := geom.FromPoints(p0, p1, p2).Expand(eps)
			prims = append(prims, primitive{
				bounds:        bounds,
				centroid:      bounds.Centroid(),
				v0:            i0,
				v1:            i1,
				v2:            i2,
				meshIndex:     uint32(meshIdx),
				triangleIndex: uint32(tri),
			})
		}
	}
	return prims
}

// buildNode is the builder's intermediate, pointer-based tree shape,
// flattened into the packed array only once the whole tree is known.
type buildNode struct {
	bounds   geom.AABB
	children []*buildNode // nil for a leaf
	prim     *primitive   // set for a leaf
}

func buildRecursive(prims []primitive, params Params, eps epsilon.Config, depth int) (*buildNode, error) {
	if depth > maxRecursionDepth {
		return nil, ErrTooDeep
	}

	bounds := boundsOf(prims)
	if len(prims) == 1 {
		return &buildNode{bounds: bounds, prim: &prims[0]}, nil
	}

	groups, err := splitIntoGroups(prims, params.TreeType, params, eps)
	if err != nil {
		return nil, err
	}

	node := &buildNode{bounds: bounds}
	for _, g := range groups {
		child, err := buildRecursive(g, params, eps, depth+1)
		if err != nil {
			return nil, err
		}
		node.children = append(node.children, child)
	}
	return node, nil
}

// splitIntoGroups repeatedly binary-splits the largest splittable group
// until there are treeType groups or no group can be split further,
// recursively halving groups up to treeType times per level before
// descending.
func splitIntoGroups(prims []primitive, treeType int, params Params, eps epsilon.Config) ([][]primitive, error) {
	groups := [][]primitive{prims}
	for len(groups) < treeType {
		largest := -1
		for i, g := range groups {
			if len(g) > 1 && (largest == -1 || len(g) > len(groups[largest])) {
				largest = i
			}
		}
		if largest == -1 {
			break
		}
		left, right, err := splitGroup(groups[largest], params, eps)
		if err != nil {
			return nil, err
		}
		groups = append(groups[:largest], append([][]primitive{left, right}, groups[largest+1:]...)...)
	}
	return groups, nil
}

// splitGroup partitions prims into two non-empty halves, picking the axis
// of maximum centroid-bounds extent and a split position either by sampled
// SAH or by the centroid-bounds midpoint.
func splitGroup(prims []primitive, params Params, eps epsilon.Config) (left, right []primitive, err error) {
	centroidBounds := geom.EmptyAABB()
	for _, p := range prims {
		centroidBounds = centroidBounds.UnionPoint(p.centroid)
	}
	axis := centroidBounds.MaxExtentAxis()
	lo, hi := centroidBounds.Min[axis], centroidBounds.Max[axis]

	if hi-lo < 1e-9 {
		// Degenerate centroid distribution: fail SAH, split by parity of
		// input index so we never infinite-loop.
		return splitByParity(prims)
	}

	var splitPos float32
	if params.CostSamples > 1 {
		splitPos = sampledSAHSplit(prims, axis, lo, hi, params)
	} else {
		splitPos = (lo + hi) / 2
	}

	left, right = partition(prims, axis, splitPos)
	if len(left) == 0 || len(right) == 0 {
		return splitByParity(prims)
	}
	return left, right, nil
}

func splitByParity(prims []primitive) (left, right []primitive, err error) {
	for i, p := range prims {
		if i%2 == 0 {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		// Only one primitive total; caller never reaches this with n<2.
		return prims[:1], prims[1:], nil
	}
	return left, right, nil
}

func partition(prims []primitive, axis int, splitPos float32) (left, right []primitive) {
	for _, p := range prims {
		if p.centroid[axis] < splitPos {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	return left, right
}

// sampledSAHSplit evaluates params.CostSamples candidate positions spread
// uniformly across [lo, hi] and returns the minimum-cost one, using a
// surface-area-heuristic cost model.
func sampledSAHSplit(prims []primitive, axis int, lo, hi float32, params Params) float32 {
	parentArea := float64(boundsOf(prims).SurfaceArea())
	bestCost := -1.0
	bestPos := (lo + hi) / 2

	for s := 1; s <= params.CostSamples; s++ {
		frac := float32(s) / float32(params.CostSamples+1)
		pos := lo + (hi-lo)*frac

		leftBounds, rightBounds := geom.EmptyAABB(), geom.EmptyAABB()
		nLeft, nRight := 0, 0
		for _, p := range prims {
			if p.centroid[axis] < pos {
				leftBounds = leftBounds.Union(p.bounds)
				nLeft++
			} else {
				rightBounds = rightBounds.Union(p.bounds)
				nRight++
			}
		}
		pLeft := float64(leftBounds.SurfaceArea()) / parentArea
		pRight := float64(rightBounds.SurfaceArea()) / parentArea
		emptyBonus := 0.0
		if nLeft == 0 || nRight == 0 {
			emptyBonus = params.EmptyBonus
		}
		cost := params.TraversalCost + params.IsectCost*(1-emptyBonus)*(pLeft*float64(nLeft)+pRight*float64(nRight))

		if bestCost < 0 || cost < bestCost {
			bestCost = cost
			bestPos = pos
		}
	}
	return bestPos
}

func boundsOf(prims []primitive) geom.AABB {
	b := geom.EmptyAABB()
	for _, p := range prims {
		b = b.Union(p.bounds)
	}
	return b
}

// flatten walks the pointer tree depth-first, appending packed nodes and
// backpatching each inner node's skip index once its whole subtree has
// been emitted.
func flatten(node *buildNode, out *[]Node) {
	if node.prim != nil {
		p := node.prim
		*out = append(*out, makeLeafNode(p.v0, p.v1, p.v2, p.meshIndex, p.triangleIndex))
		return
	}

	idx := len(*out)
	*out = append(*out, Node{}) // placeholder, patched below
	for _, child := range node.children {
		flatten(child, out)
	}
	skipIndex := uint32(len(*out))
	(*out)[idx] = makeInnerNode(node.bounds.Min, node.bounds.Max, skipIndex)
}

// sortByAxis is kept for callers that want a stable ordering of a
// primitive slice for debugging/visualization; the builder itself
// partitions into new left/right slices rather than sorting.
func sortByAxis(prims []primitive, axis int) {
	sort.Slice(prims, func(i, j int) bool {
		return prims[i].centroid[axis] < prims[j].centroid[axis]
	})
}
