package bvh

import "github.com/luxrays-go/luxaccel/internal/accel/geom"

// Intersect walks the packed array from index 0 to the root's implicit
// stop index (len(Nodes)), returning the nearest hit within [ray.Mint,
// ray.Maxt] or a miss.
//
// Ties at equal t are resolved in favor of the earlier-visited primitive:
// a candidate only replaces the current best on a strict t < ray.Maxt,
// and ray.Maxt shrinks to each accepted hit's t, so an exact tie with a
// prior hit is never overwritten. Because traversal visits primitives in
// array order, the surviving hit is the first primitive (in traversal
// order) to achieve the smallest t.
func (t *Tree) Intersect(ray geom.Ray) geom.RayHit {
	hit := geom.Miss()
	if len(t.Nodes) == 0 {
		return hit
	}

	invDir := ray.InvDirection()
	stop := uint32(len(t.Nodes))

	for cur := uint32(0); cur < stop; {
		node := t.Nodes[cur]

		if node.IsLeaf() {
			mesh := t.Meshes[node.MeshIndex]
			v0 := mesh.GetVertex(ray.Time, node.V0)
			v1 := mesh.GetVertex(ray.Time, node.V1)
			v2 := mesh.GetVertex(ray.Time, node.V2)
			tri := triangleOf(v0, v1, v2)
			if ok, dist, b1, b2 := tri.Intersect(ray); ok && dist < ray.Maxt {
				ray.Maxt = dist
				hit = geom.RayHit{T: dist, B1: b1, B2: b2, MeshIndex: node.MeshIndex, TriangleIndex: node.TriangleIndex}
			}
			cur++
			continue
		}

		box := boundsOfNode(node)
		if box.IntersectP(ray, invDir) {
			cur++
		} else {
			cur = node.SkipIndex()
		}
	}
	return hit
}
