package device

import (
	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/qbvh"
)

// qbvhNodeSize covers a QuadAABB (6 lanes of 4 float32) plus 4 int32
// child codes.
const qbvhNodeSize = 4*(4*6) + 4*4

func encodeQBVHNode(n qbvh.Node) []byte {
	buf := make([]byte, 0, qbvhNodeSize)
	b := n.Bounds
	for lane := 0; lane < 4; lane++ {
		buf = appendFloat32(buf, b.MinX[lane])
	}
	for lane := 0; lane < 4; lane++ {
		buf = appendFloat32(buf, b.MinY[lane])
	}
	for lane := 0; lane < 4; lane++ {
		buf = appendFloat32(buf, b.MinZ[lane])
	}
	for lane := 0; lane < 4; lane++ {
		buf = appendFloat32(buf, b.MaxX[lane])
	}
	for lane := 0; lane < 4; lane++ {
		buf = appendFloat32(buf, b.MaxY[lane])
	}
	for lane := 0; lane < 4; lane++ {
		buf = appendFloat32(buf, b.MaxZ[lane])
	}
	for lane := 0; lane < 4; lane++ {
		buf = appendUint32(buf, uint32(n.Children[lane]))
	}
	return buf
}

// qbvhLeafSize covers one packed quad-triangle: 9 geometry lanes plus
// mesh index, triangle index, and active flag, each 4-wide.
const qbvhLeafSize = 4*(4*9) + 4*4 + 4*4 + 4*4

func encodeQuadTriangle(q geom.QuadTriangle) []byte {
	buf := make([]byte, 0, qbvhLeafSize)
	lanes := [][4]float32{q.OrigX, q.OrigY, q.OrigZ, q.E1X, q.E1Y, q.E1Z, q.E2X, q.E2Y, q.E2Z}
	for _, lane := range lanes {
		for i := 0; i < 4; i++ {
			buf = appendFloat32(buf, lane[i])
		}
	}
	for i := 0; i < 4; i++ {
		buf = appendUint32(buf, q.MeshIndex[i])
	}
	for i := 0; i < 4; i++ {
		buf = appendUint32(buf, q.TriangleIndex[i])
	}
	for i := 0; i < 4; i++ {
		active := uint32(0)
		if q.Active[i] {
			active = 1
		}
		buf = appendUint32(buf, active)
	}
	return buf
}

// NewQBVHKernel builds the device-resident kernel for a qbvh.Tree: a
// paged node array and a paged leaf (quad-triangle) array, which already
// carry baked world-space positions so no separate vertex buffer is
// needed.
func NewQBVHKernel(d Device, tree *qbvh.Tree, rayCapacity int) (*HardwareKernel, error) {
	nodePages, _, err := BuildPages(d, tree.Nodes, qbvhNodeSize, encodeQBVHNode, "qbvh.nodes")
	if err != nil {
		return nil, err
	}
	leafPages, _, err := BuildPages(d, tree.Leaves, qbvhLeafSize, encodeQuadTriangle, "qbvh.leaves")
	if err != nil {
		return nil, err
	}

	pages := append(append([]Handle(nil), nodePages...), leafPages...)
	return newHardwareKernel(d, "qbvh_intersect", rayCapacity, pages, intersectRunner(tree))
}
