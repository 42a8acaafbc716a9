package device

import (
	"github.com/luxrays-go/luxaccel/internal/accel/mqbvh"
)

// mqbvhNodeSize matches qbvhNodeSize: both are a QuadAABB plus 4 int32
// child codes, just in different packages.
const mqbvhNodeSize = qbvhNodeSize

func encodeMQBVHNode(n mqbvh.Node) []byte {
	buf := make([]byte, 0, mqbvhNodeSize)
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

// mqbvhLeafSize covers a leaf descriptor's device-representable fields:
// kind, mesh index, triangle offset, and the 4x4 inverse transform. The
// per-leaf QBVH and motion system are host-side indirections with no
// device representation here — a real backend would need its own
// per-instance tree and motion-key buffers, which goes beyond the single
// paging scheme this subsystem implements.
const mqbvhLeafSize = 4 + 4 + 4 + 16*4

func encodeMQBVHLeaf(l mqbvh.Leaf) []byte {
	buf := make([]byte, 0, mqbvhLeafSize)
	buf = appendUint32(buf, uint32(l.Kind))
	buf = appendUint32(buf, l.MeshIndex)
	buf = appendUint32(buf, l.TriangleIndexOffset)
	m := l.InverseTransform
	for i := 0; i < 16; i++ {
		buf = appendFloat32(buf, m[i])
	}
	return buf
}

// NewMQBVHKernel builds the device-resident kernel for an mqbvh.Tree: a
// paged top-level node array and a paged leaf-descriptor array.
func NewMQBVHKernel(d Device, tree *mqbvh.Tree, rayCapacity int) (*HardwareKernel, error) {
	nodePages, _, err := BuildPages(d, tree.Nodes, mqbvhNodeSize, encodeMQBVHNode, "mqbvh.nodes")
	if err != nil {
		return nil, err
	}
	leafPages, _, err := BuildPages(d, tree.Leaves, mqbvhLeafSize, encodeMQBVHLeaf, "mqbvh.leaves")
	if err != nil {
		return nil, err
	}

	pages := append(append([]Handle(nil), nodePages...), leafPages...)
	return newHardwareKernel(d, "mqbvh_intersect", rayCapacity, pages, intersectRunner(tree))
}
