// Package qbvh implements the binned-SAH 4-way "quad" BVH builder and its
// SIMD-style host traversal.
package qbvh

import "github.com/luxrays-go/luxaccel/internal/accel/geom"

const (
	// leafFlag is the sign bit that marks a child field as a leaf code
	// rather than a node index.
	leafFlag = int32(1) << 31

	// emptyChild is the sentinel meaning "no child in this slot".
	emptyChild = int32(0x7fffffff)

	// countShift/countMask extract the 4-bit quad-triangle count (minus
	// one) from a leaf code.
	countShift = 27
	countMask  = int32(0xf)

	// startMask extracts the 27-bit start index into the quad-triangle
	// array from a leaf code.
	startMask = int32(0x07ffffff)

	// maxLeafQuads is the largest quad-triangle count a leaf can encode
	// (4 bits => 1..16), i.e. up to 64 packed triangles.
	maxLeafQuads     = 16
	maxLeafTriangles = maxLeafQuads * geom.QuadTriangleLanes
)

// Node is one packed 4-way QBVH node: four children's bounds, SIMD-packed,
// plus four child fields.
type Node struct {
	Bounds   geom.QuadAABB
	Children [4]int32
}

func isEmpty(code int32) bool { return code == emptyChild }
func isLeaf(code int32) bool  { return code < 0 && code != emptyChild }

func encodeLeaf(startIndex, quadCount int) int32 {
	return leafFlag | (int32(quadCount-1)&countMask)<<countShift | (int32(startIndex) & startMask)
}

func decodeLeaf(code int32) (startIndex, quadCount int) {
	quadCount = int((code>>countShift)&countMask) + 1
	startIndex = int(code & startMask)
	return
}
