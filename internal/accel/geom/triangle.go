package geom

import "github.com/go-gl/mathgl/mgl32"

// Triangle holds the three vertices of a world-space triangle used during
// BVH/QBVH construction (before being packed into a tree's leaf format).
type Triangle struct {
	V0, V1, V2 mgl32.Vec3
}

// AABB returns the triangle's bounding box.
func (t Triangle) AABB() AABB {
	return FromPoints(t.V0, t.V1, t.V2)
}

// Centroid returns the triangle's centroid (the mean of its vertices). The
// builders split on the centroid of each primitive's bounding box instead.
func (t Triangle) Centroid() mgl32.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Mul(1.0 / 3.0)
}

// Intersect performs a Moller-Trumbore ray/triangle test. It reports a hit
// only if it lies within [r.Mint, r.Maxt]; on hit, t, b1, b2 are the
// distance and the first two barycentric coordinates (b0 = 1 - b1 - b2).
func (t Triangle) Intersect(r Ray) (hit bool, dist, b1, b2 float32) {
	const epsilon = 1e-8

	e1 := t.V1.Sub(t.V0)
	e2 := t.V2.Sub(t.V0)

	pvec := r.Direction.Cross(e2)
	det := e1.Dot(pvec)
	if det > -epsilon && det < epsilon {
		return false, 0, 0, 0
	}
	invDet := 1 / det

	tvec := r.Origin.Sub(t.V0)
	u := tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return false, 0, 0, 0
	}

	qvec := tvec.Cross(e1)
	v := r.Direction.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return false, 0, 0, 0
	}

	dist = e2.Dot(qvec) * invDet
	if dist < r.Mint || dist > r.Maxt {
		return false, 0, 0, 0
	}
	return true, dist, u, v
}

// QuadTriangleLanes is the number of triangles packed per quad-triangle.
const QuadTriangleLanes = 4

// QuadTriangle packs up to four triangles laterally so a single SIMD-style
// call tests all four at once. Unused lanes are flagged Active=false so
// they are always treated as a miss.
type QuadTriangle struct {
	// Origin, edge1, edge2 per lane, struct-of-arrays so a real SIMD
	// backend could load each field as one vector register.
	OrigX, OrigY, OrigZ [QuadTriangleLanes]float32
	E1X, E1Y, E1Z       [QuadTriangleLanes]float32
	E2X, E2Y, E2Z       [QuadTriangleLanes]float32

	// MeshIndex/TriangleIndex identify the source triangle of each lane.
	MeshIndex     [QuadTriangleLanes]uint32
	TriangleIndex [QuadTriangleLanes]uint32
	Active        [QuadTriangleLanes]bool
}

// NewQuadTriangle packs up to four (triangle, meshIndex, triangleIndex)
// tuples into one QuadTriangle. Fewer than four triangles leave the
// remaining lanes inactive.
func NewQuadTriangle(tris []Triangle, meshIdx, triIdx []uint32) QuadTriangle {
	var q QuadTriangle
	for lane := 0; lane < QuadTriangleLanes; lane++ {
		if lane >= len(tris) {
			q.Active[lane] = false
			continue
		}
		t := tris[lane]
		e1 := t.V1.Sub(t.V0)
		e2 := t.V2.Sub(t.V0)
		q.OrigX[lane], q.OrigY[lane], q.OrigZ[lane] = t.V0[0], t.V0[1], t.V0[2]
		q.E1X[lane], q.E1Y[lane], q.E1Z[lane] = e1[0], e1[1], e1[2]
		q.E2X[lane], q.E2Y[lane], q.E2Z[lane] = e2[0], e2[1], e2[2]
		q.MeshIndex[lane] = meshIdx[lane]
		q.TriangleIndex[lane] = triIdx[lane]
		q.Active[lane] = true
	}
	return q
}

// Intersect tests all four lanes against r and writes the closest hit (if
// any, within the current [r.Mint, r.Maxt]) into hit, returning true on a
// hit. Lanes are tested in order and each in-range hit shrinks the
// effective maxt for subsequent lanes, matching the scalar BVH tie-break:
// only a strictly closer hit replaces the current best.
func (q QuadTriangle) Intersect(r Ray) (RayHit, bool) {
	best := Miss()
	found := false
	maxt := r.Maxt

	for lane := 0; lane < QuadTriangleLanes; lane++ {
		if !q.Active[lane] {
			continue
		}
		tri := Triangle{
			V0: mgl32.Vec3{q.OrigX[lane], q.OrigY[lane], q.OrigZ[lane]},
			V1: mgl32.Vec3{q.OrigX[lane] + q.E1X[lane], q.OrigY[lane] + q.E1Y[lane], q.OrigZ[lane] + q.E1Z[lane]},
			V2: mgl32.Vec3{q.OrigX[lane] + q.E2X[lane], q.OrigY[lane] + q.E2Y[lane], q.OrigZ[lane] + q.E2Z[lane]},
		}
		lr := r
		lr.Maxt = maxt
		if hit, dist, b1, b2 := tri.Intersect(lr); hit && dist < maxt {
			maxt = dist
			best = RayHit{T: dist, B1: b1, B2: b2, MeshIndex: q.MeshIndex[lane], TriangleIndex: q.TriangleIndex[lane]}
			found = true
		}
	}
	return best, found
}

// QuadRayLanes is the number of AABBs tested per quad-AABB call.
const QuadRayLanes = 4

// QuadAABB packs up to four child bounding boxes laterally, the QBVH node's
// per-child SIMD layout: for each of four children, the six bound
// components laid out as four lanes so a single test evaluates all
// children's slabs together.
type QuadAABB struct {
	MinX, MinY, MinZ [QuadRayLanes]float32
	MaxX, MaxY, MaxZ [QuadRayLanes]float32
}

// SetChild stores child's bounds into lane i. An empty/unused slot should
// be set via SetEmpty so the slab test never reports a hit for it.
func (q *QuadAABB) SetChild(i int, b AABB) {
	q.MinX[i], q.MinY[i], q.MinZ[i] = b.Min[0], b.Min[1], b.Min[2]
	q.MaxX[i], q.MaxY[i], q.MaxZ[i] = b.Max[0], b.Max[1], b.Max[2]
}

// SetEmpty marks lane i as containing nothing, by giving it an inverted
// (always-missing) box.
func (q *QuadAABB) SetEmpty(i int) {
	q.SetChild(i, EmptyAABB())
}

// IntersectP tests all four lanes against r using precomputed inverse
// direction, returning a 4-bit mask with bit i set when child i is hit.
func (q QuadAABB) IntersectP(r Ray, invDir mgl32.Vec3) uint8 {
	var mask uint8
	for lane := 0; lane < QuadRayLanes; lane++ {
		b := AABB{
			Min: mgl32.Vec3{q.MinX[lane], q.MinY[lane], q.MinZ[lane]},
			Max: mgl32.Vec3{q.MaxX[lane], q.MaxY[lane], q.MaxZ[lane]},
		}
		if b.IntersectP(r, invDir) {
			mask |= 1 << uint(lane)
		}
	}
	return mask
}
