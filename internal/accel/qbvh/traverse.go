package qbvh

import "github.com/luxrays-go/luxaccel/internal/accel/geom"

// stackCapacity bounds the traversal stack to a small fixed size.
const stackCapacity = 64

// Intersect walks the tree from Root using a fixed-capacity stack,
// returning the nearest hit within [ray.Mint, ray.Maxt] or a miss.
func (t *Tree) Intersect(ray geom.Ray) geom.RayHit {
	hit := geom.Miss()
	if isEmpty(t.Root) {
		return hit
	}

	invDir := ray.InvDirection()

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
			start, count := decodeLeaf(code)
			for q := start; q < start+count; q++ {
				if h, ok := t.Leaves[q].Intersect(ray); ok && h.T < ray.Maxt {
					ray.Maxt = h.T
					hit = h
				}
			}
			continue
		}

		node := t.Nodes[code]
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
				// Pathological tree depth; drop this child rather than
				// overflow. Traversal degrades to a
				// partial result instead of corrupting memory.
				continue
			}
			stack[sp] = child
			sp++
		}
	}
	return hit
}
