package bvh

import (
	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
)

// LinearScan is a brute-force O(n) accelerator used only as the ground
// truth for property tests, never by the dispatcher.
type LinearScan struct {
	Meshes []mesh.Mesh
}

// NewLinearScan wraps meshes for brute-force intersection.
func NewLinearScan(meshes []mesh.Mesh) *LinearScan {
	return &LinearScan{Meshes: meshes}
}

// Intersect tests every triangle of every mesh and returns the nearest hit,
// using the identical strict-less-than tie-break as Tree.Intersect so the
// two can be compared directly in tests.
func (l *LinearScan) Intersect(ray geom.Ray) geom.RayHit {
	hit := geom.Miss()
	for meshIdx, m := range l.Meshes {
		triCount := m.TriangleCount()
		for tri := uint32(0); tri < uint32(triCount); tri++ {
			i0, i1, i2 := m.TriangleVertexIndices(tri)
			v0 := m.GetVertex(ray.Time, i0)
			v1 := m.GetVertex(ray.Time, i1)
			v2 := m.GetVertex(ray.Time, i2)
			t := triangleOf(v0, v1, v2)
			if ok, dist, b1, b2 := t.Intersect(ray); ok && dist < ray.Maxt {
				ray.Maxt = dist
				hit = geom.RayHit{T: dist, B1: b1, B2: b2, MeshIndex: uint32(meshIdx), TriangleIndex: tri}
			}
		}
	}
	return hit
}
