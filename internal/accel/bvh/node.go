package bvh

import "github.com/go-gl/mathgl/mgl32"

// leafFlag is the high bit of NodeData that discriminates an inner node
// (clear) from a leaf (set).
const leafFlag = uint32(1) << 31

// Node is one entry of the packed, flattened BVH array. Which fields are
// meaningful depends on IsLeaf(): an inner node uses BoundsMin/BoundsMax
// and NodeData as a skip index; a leaf uses V0..V2/MeshIndex/TriangleIndex
// and ignores the bounds fields.
type Node struct {
	BoundsMin, BoundsMax mgl32.Vec3

	V0, V1, V2    uint32
	MeshIndex     uint32
	TriangleIndex uint32

	NodeData uint32
}

// IsLeaf reports whether n is a leaf node.
func (n Node) IsLeaf() bool {
	return n.NodeData&leafFlag != 0
}

// SkipIndex returns the index of the first node outside this inner node's
// subtree. Only meaningful when !IsLeaf().
func (n Node) SkipIndex() uint32 {
	return n.NodeData &^ leafFlag
}

func makeInnerNode(min, max mgl32.Vec3, skipIndex uint32) Node {
	return Node{BoundsMin: min, BoundsMax: max, NodeData: skipIndex &^ leafFlag}
}

func makeLeafNode(v0, v1, v2, meshIndex, triangleIndex uint32) Node {
	return Node{
		V0: v0, V1: v1, V2: v2,
		MeshIndex:     meshIndex,
		TriangleIndex: triangleIndex,
		NodeData:      leafFlag,
	}
}
