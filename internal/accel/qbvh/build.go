package qbvh

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

// Tree is an immutable, packed QBVH: 4-way nodes plus a flat array of
// quad-triangle leaf groups. Meshes is indexed by each quad-triangle lane's
// MeshIndex field.
type Tree struct {
	Nodes  []Node
	Leaves []geom.QuadTriangle
	Meshes []mesh.Mesh
	Root   int32
}

type primitive struct {
	bounds        geom.AABB
	centroid      mgl32.Vec3
	v0, v1, v2    uint32
	meshIndex     uint32
	triangleIndex uint32
}

// Build constructs an immutable packed QBVH over every triangle of every
// mesh in meshes.
func Build(meshes []mesh.Mesh, totalVertexCount, totalTriangleCount uint64, params Params, eps epsilon.Config) (*Tree, error) {
	prims := collectPrimitives(meshes, eps)
	t := &Tree{Meshes: meshes}
	if len(prims) == 0 {
		t.Root = emptyChild
		return t, nil
	}

	root, err := buildNode(prims, params, eps, 0, t)
	if err != nil {
		return nil, err
	}
	t.Root = root
	return t, nil
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

// buildNode allocates one 4-way node for prims, appends it to t.Nodes, and
// returns its index. Each of the node's four child slots is filled by
// splitting prims into up to four groups via two levels of binned-SAH
// binary splitting; when fewer than four groups result, the unused slots
// are marked empty. A group small enough to fit the leaf capacity becomes a leaf, a larger
// group becomes a new node, recursing.
func buildNode(prims []primitive, params Params, eps epsilon.Config, depth int, t *Tree) (int32, error) {
	if depth > maxRecursionDepth {
		return 0, ErrTooDeep
	}

	groups, err := fullSplit(prims, 2, params, eps)
	if err != nil {
		return 0, err
	}

	nodeIdx := int32(len(t.Nodes))
	t.Nodes = append(t.Nodes, Node{})
	var node Node
	for i := 0; i < 4; i++ {
		node.Children[i] = emptyChild
	}
	for i := 0; i < 4; i++ {
		node.Bounds.SetEmpty(i)
	}

	for i, g := range groups {
		if i >= 4 {
			break // fullSplit(_, 2, ...) never exceeds 4 groups
		}
		if len(g) == 0 {
			continue
		}
		bounds := boundsOf(g)
		node.Bounds.SetChild(i, bounds)

		if len(g) <= maxLeafTriangles {
			start := len(t.Leaves)
			quads := packQuads(g, t.Meshes)
			t.Leaves = append(t.Leaves, quads...)
			node.Children[i] = encodeLeaf(start, len(quads))
			continue
		}

		child, err := buildNode(g, params, eps, depth+1, t)
		if err != nil {
			return 0, err
		}
		node.Children[i] = child
	}

	t.Nodes[nodeIdx] = node
	return nodeIdx, nil
}

// fullSplit recursively binary-splits prims for `levels` levels, splitting
// every resulting group at each level (not just the largest), producing up
// to 2^levels groups.
func fullSplit(prims []primitive, levels int, params Params, eps epsilon.Config) ([][]primitive, error) {
	if levels == 0 || len(prims) <= 1 {
		return [][]primitive{prims}, nil
	}

	left, right, ok, err := splitGroup(prims, params, eps)
	if err != nil {
		return nil, err
	}
	if !ok {
		return [][]primitive{prims}, nil
	}

	leftGroups, err := fullSplit(left, levels-1, params, eps)
	if err != nil {
		return nil, err
	}
	rightGroups, err := fullSplit(right, levels-1, params, eps)
	if err != nil {
		return nil, err
	}
	return append(leftGroups, rightGroups...), nil
}

// splitGroup partitions prims into two halves using binned SAH. ok is
// false when prims could not usefully be split (degenerate centroids but
// small enough to leave as one leaf group); err is non-nil only when the
// range cannot be split AND is too large to fit in a single leaf.
func splitGroup(prims []primitive, params Params, eps epsilon.Config) (left, right []primitive, ok bool, err error) {
	centroidBounds := geom.EmptyAABB()
	for _, p := range prims {
		centroidBounds = centroidBounds.UnionPoint(p.centroid)
	}
	axis := centroidBounds.MaxExtentAxis()
	lo, hi := centroidBounds.Min[axis], centroidBounds.Max[axis]

	extent := hi - lo
	if extent < 1e-9 {
		if len(prims) <= maxLeafTriangles {
			return nil, nil, false, nil
		}
		return nil, nil, false, ErrDegenerateCentroids
	}

	bins := binPrimitives(prims, axis, lo, hi, params)
	splitBin := bestBinSplit(bins, params)
	if splitBin < 0 {
		if len(prims) <= maxLeafTriangles {
			return nil, nil, false, nil
		}
		return nil, nil, false, ErrDegenerateCentroids
	}

	binWidth := extent / float32(params.NumBins)
	splitPos := lo + binWidth*float32(splitBin+1)

	for _, p := range prims {
		if p.centroid[axis] < splitPos {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		if len(prims) <= maxLeafTriangles {
			return nil, nil, false, nil
		}
		return nil, nil, false, ErrDegenerateCentroids
	}
	return left, right, true, nil
}

type bin struct {
	bounds geom.AABB
	count  int
}

// binPrimitives projects each centroid into one of params.NumBins bins
// along axis. Small ranges scan every primitive; large ranges scan every
// SkipFactor-th one.
func binPrimitives(prims []primitive, axis int, lo, hi float32, params Params) []bin {
	bins := make([]bin, params.NumBins)
	for i := range bins {
		bins[i].bounds = geom.EmptyAABB()
	}

	extent := hi - lo
	step := 1
	if len(prims) > params.FullSweepThreshold && params.SkipFactor > 1 {
		step = params.SkipFactor
	}

	binOf := func(c float32) int {
		b := int(float32(params.NumBins) * (c - lo) / extent)
		if b < 0 {
			b = 0
		}
		if b >= params.NumBins {
			b = params.NumBins - 1
		}
		return b
	}

	for i := 0; i < len(prims); i += step {
		p := prims[i]
		b := binOf(p.centroid[axis])
		bins[b].bounds = bins[b].bounds.Union(p.bounds)
		bins[b].count++
	}
	return bins
}

// bestBinSplit evaluates the SAH cost at each of NumBins-1 split positions
// using cumulative bounds/counts from the left and from the right, and
// returns the index of the bin boundary with minimum cost (the split lies
// after bin index result). A candidate leaving one side empty is still
// evaluated, rewarded by params.EmptyBonus since traversal can skip an
// empty child outright. Returns -1 only if parentArea is degenerate.
func bestBinSplit(bins []bin, params Params) int {
	n := len(bins)
	leftBounds := make([]geom.AABB, n)
	leftCount := make([]int, n)
	b := geom.EmptyAABB()
	c := 0
	for i := 0; i < n; i++ {
		b = b.Union(bins[i].bounds)
		c += bins[i].count
		leftBounds[i] = b
		leftCount[i] = c
	}

	rightBounds := make([]geom.AABB, n)
	rightCount := make([]int, n)
	b = geom.EmptyAABB()
	c = 0
	for i := n - 1; i >= 0; i-- {
		b = b.Union(bins[i].bounds)
		c += bins[i].count
		rightBounds[i] = b
		rightCount[i] = c
	}

	parentArea := float64(leftBounds[n-1].SurfaceArea())
	if parentArea == 0 {
		return -1
	}

	bestCost := -1.0
	bestSplit := -1
	for i := 0; i < n-1; i++ {
		nl, nr := leftCount[i], rightCount[i+1]
		pLeft := float64(leftBounds[i].SurfaceArea()) / parentArea
		pRight := float64(rightBounds[i+1].SurfaceArea()) / parentArea
		emptyBonus := 0.0
		if nl == 0 || nr == 0 {
			emptyBonus = params.EmptyBonus
		}
		cost := params.TraversalCost + params.IsectCost*(1-emptyBonus)*(pLeft*float64(nl)+pRight*float64(nr))
		if bestCost < 0 || cost < bestCost {
			bestCost = cost
			bestSplit = i
		}
	}
	return bestSplit
}

func boundsOf(prims []primitive) geom.AABB {
	b := geom.EmptyAABB()
	for _, p := range prims {
		b = b.Union(p.bounds)
	}
	return b
}

// packQuads groups prims into quad-triangles of up to geom.QuadTriangleLanes
// each, padding the final group's unused lanes as inactive. Vertex
// positions are resolved once, at build time (time=0); a QBVH never owns a
// motion mesh directly — those are delegated to per-mesh QBVHs by mqbvh,
// whose leaves are evaluated in the mesh's own local, time-independent
// frame, so build time is always the correct frame here.
func packQuads(prims []primitive, meshes []mesh.Mesh) []geom.QuadTriangle {
	var quads []geom.QuadTriangle
	for i := 0; i < len(prims); i += geom.QuadTriangleLanes {
		end := i + geom.QuadTriangleLanes
		if end > len(prims) {
			end = len(prims)
		}
		group := prims[i:end]

		tris := make([]geom.Triangle, 0, geom.QuadTriangleLanes)
		meshIdx := make([]uint32, 0, geom.QuadTriangleLanes)
		triIdx := make([]uint32, 0, geom.QuadTriangleLanes)
		for _, p := range group {
			m := meshes[p.meshIndex]
			tris = append(tris, geom.Triangle{
				V0: m.GetVertex(0, p.v0),
				V1: m.GetVertex(0, p.v1),
				V2: m.GetVertex(0, p.v2),
			})
			meshIdx = append(meshIdx, p.meshIndex)
			triIdx = append(triIdx, p.triangleIndex)
		}
		quads = append(quads, geom.NewQuadTriangle(tris, meshIdx, triIdx))
	}
	return quads
}
