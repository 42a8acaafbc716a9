package device

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel/bvh"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
)

const bvhNodeSize = 4 * (3 + 3 + 3 + 1 + 1 + 1) // BoundsMin, BoundsMax, V0-2, MeshIndex, TriangleIndex, NodeData

func encodeBVHNode(n bvh.Node) []byte {
	buf := make([]byte, 0, bvhNodeSize)
	buf = appendFloat32(buf, n.BoundsMin[0])
	buf = appendFloat32(buf, n.BoundsMin[1])
	buf = appendFloat32(buf, n.BoundsMin[2])
	buf = appendFloat32(buf, n.BoundsMax[0])
	buf = appendFloat32(buf, n.BoundsMax[1])
	buf = appendFloat32(buf, n.BoundsMax[2])
	buf = appendUint32(buf, n.V0)
	buf = appendUint32(buf, n.V1)
	buf = appendUint32(buf, n.V2)
	buf = appendUint32(buf, n.MeshIndex)
	buf = appendUint32(buf, n.TriangleIndex)
	buf = appendUint32(buf, n.NodeData)
	return buf
}

const vertexSize = 4 * 3

func encodeVertex(v mgl32.Vec3) []byte {
	buf := make([]byte, 0, vertexSize)
	buf = appendFloat32(buf, v[0])
	buf = appendFloat32(buf, v[1])
	buf = appendFloat32(buf, v[2])
	return buf
}

// globalVertices flattens every mesh's vertices (resolved at time 0, per
// qbvh's same "build-time-static" convention) into one array, returning
// each mesh's offset into it.
func globalVertices(meshes []mesh.Mesh) ([]mgl32.Vec3, []int) {
	offsets := make([]int, len(meshes))
	var verts []mgl32.Vec3
	for i, m := range meshes {
		offsets[i] = len(verts)
		for v := 0; v < m.VertexCount(); v++ {
			verts = append(verts, m.GetVertex(0, uint32(v)))
		}
	}
	return verts, offsets
}

// globalizeLeafIndices rewrites each leaf's mesh-local vertex indices into
// indices on the single global vertex array built by globalVertices.
func globalizeLeafIndices(nodes []bvh.Node, offsets []int) []bvh.Node {
	out := make([]bvh.Node, len(nodes))
	copy(out, nodes)
	for i, n := range out {
		if !n.IsLeaf() {
			continue
		}
		off := uint32(offsets[n.MeshIndex])
		out[i].V0 += off
		out[i].V1 += off
		out[i].V2 += off
	}
	return out
}

// NewBVHKernel builds the device-resident kernel for a bvh.Tree: a paged
// node array and a paged global vertex array, argument-bound following
// the fixed-index convention every kernel shares.
func NewBVHKernel(d Device, tree *bvh.Tree, rayCapacity int) (*HardwareKernel, error) {
	verts, offsets := globalVertices(tree.Meshes)
	nodes := globalizeLeafIndices(tree.Nodes, offsets)

	nodePages, _, err := BuildPages(d, nodes, bvhNodeSize, encodeBVHNode, "bvh.nodes")
	if err != nil {
		return nil, err
	}
	vertPages, _, err := BuildPages(d, verts, vertexSize, encodeVertex, "bvh.vertices")
	if err != nil {
		return nil, err
	}

	pages := append(append([]Handle(nil), nodePages...), vertPages...)
	return newHardwareKernel(d, "bvh_intersect", rayCapacity, pages, intersectRunner(tree))
}
