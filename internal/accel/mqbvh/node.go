package mqbvh

import "github.com/luxrays-go/luxaccel/internal/accel/geom"

const (
	leafFlag   = int32(1) << 31
	emptyChild = int32(0x7fffffff)
	indexMask  = int32(0x7fffffff)
)

func isEmpty(code int32) bool { return code == emptyChild }
func isLeaf(code int32) bool  { return code < 0 && code != emptyChild }

func encodeLeaf(i int) int32 {
	return leafFlag | (int32(i) & indexMask)
}

func decodeLeaf(code int32) int {
	return int(code &^ leafFlag)
}

// Node is one top-level node: identical shape to a qbvh.Node, but each
// leaf child index refers into the tree's Leaves array rather than a run
// of packed quad-triangles.
type Node struct {
	Bounds   geom.QuadAABB
	Children [4]int32
}
