package mqbvh

import "github.com/luxrays-go/luxaccel/internal/accel/geom"

const stackCapacity = 64

// Intersect walks the top-level tree and, on reaching a leaf, delegates to
// the per-mesh QBVH after transforming the ray into the instance's local
// frame. A delegated hit's triangle index is offset to a
// scene-global index and its mesh index remapped to the instance's own ID;
// the outer ray's maxt shrinks on every hit so later leaves can early-out.
func (t *Tree) Intersect(ray geom.Ray) geom.RayHit {
	hit := geom.Miss()
	if isEmpty(t.Root) {
		return hit
	}

	var stack [stackCapacity]int32
	sp := 0
	stack[sp] = t.Root
	sp++

	for sp > 0 {
		sp--
		code := stack[sp]

		if isEmpty(code) {
			continue
		}

		if isLeaf(code) {
			leaf := t.Leaves[decodeLeaf(code)]
			if h, ok := t.intersectLeaf(leaf, ray); ok && h.T < ray.Maxt {
				ray.Maxt = h.T
				hit = h
			}
			continue
		}

		node := t.Nodes[code]
		invDir := ray.InvDirection()
		mask := node.Bounds.IntersectP(ray, invDir)
		for lane := 0; lane < 4; lane++ {
			if mask&(1<<uint(lane)) == 0 {
				continue
			}
			child := node.Children[lane]
			if isEmpty(child) {
				continue
			}
			if sp >= stackCapacity {
				continue
			}
			stack[sp] = child
			sp++
		}
	}
	return hit
}

// intersectLeaf resolves a leaf descriptor's ray transform, delegates to
// its QBVH, and remaps the result into scene-global indices.
func (t *Tree) intersectLeaf(leaf Leaf, ray geom.Ray) (geom.RayHit, bool) {
	localRay := ray

	switch leaf.Kind {
	case LeafInstanced:
		localRay = ray.Transform(leaf.InverseTransform)
	case LeafMotion:
		sampled := leaf.Motion.Sample(ray.Time)
		inv := sampled
		if sampled.Det() != 0 {
			inv = sampled.Inv()
		}
		localRay = ray.Transform(inv)
	}

	h := leaf.QBVH.Intersect(localRay)
	if h.IsMiss() {
		return geom.RayHit{}, false
	}

	h.MeshIndex = leaf.MeshIndex
	h.TriangleIndex += leaf.TriangleIndexOffset
	return h, true
}
