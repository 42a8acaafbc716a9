// Package geom provides the ray/triangle/AABB primitives shared by every
// tree in the acceleration subsystem: Ray, RayHit, AABB, Triangle, and the
// SIMD-oriented QuadAABB / QuadTriangle packings used by the QBVH.
package geom

import "github.com/go-gl/mathgl/mgl32"

// NullIndex is the sentinel mesh/triangle index meaning "no hit".
const NullIndex = ^uint32(0)

// Ray is a parametric ray: points on the ray are Origin + t*Direction for
// t in [Mint, Maxt]. Time selects a sample of a mesh's motion system.
// Maxt is lowered in place by traversal as closer hits are found.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
	Mint      float32
	Maxt      float32
	Time      float32
}

// NewRay builds a ray over [mint, +inf) at time 0.
func NewRay(origin, direction mgl32.Vec3) Ray {
	return Ray{
		Origin:    origin,
		Direction: direction,
		Mint:      1e-3,
		Maxt:      float32(1e30),
	}
}

// InvDirection returns the component-wise reciprocal of Direction, used by
// the slab AABB test. Components of Direction that are exactly zero produce
// +/-Inf, which the slab test handles correctly.
func (r Ray) InvDirection() mgl32.Vec3 {
	return mgl32.Vec3{1 / r.Direction[0], 1 / r.Direction[1], 1 / r.Direction[2]}
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Transform returns the ray mapped through m. Used to bring a ray into an
// instance's or motion leaf's local frame before delegating to its QBVH.
func (r Ray) Transform(m mgl32.Mat4) Ray {
	out := r
	out.Origin = TransformPoint(m, r.Origin)
	out.Direction = TransformDirection(m, r.Direction)
	return out
}

// TransformPoint applies the affine transform m to the point p (w = 1).
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	v := m.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
	return mgl32.Vec3{v[0], v[1], v[2]}
}

// TransformDirection applies the linear part of m to the direction d
// (w = 0, so translation has no effect).
func TransformDirection(m mgl32.Mat4, d mgl32.Vec3) mgl32.Vec3 {
	v := m.Mul4x1(mgl32.Vec4{d[0], d[1], d[2], 0})
	return mgl32.Vec3{v[0], v[1], v[2]}
}

// RayHit is the result of an intersection query. MeshIndex == NullIndex
// encodes a miss; on miss every other field is indeterminate.
type RayHit struct {
	T             float32
	B1, B2        float32
	MeshIndex     uint32
	TriangleIndex uint32
}

// Miss returns the sentinel no-hit result.
func Miss() RayHit {
	return RayHit{MeshIndex: NullIndex, TriangleIndex: NullIndex}
}

// IsMiss reports whether h represents a miss.
func (h RayHit) IsMiss() bool {
	return h.MeshIndex == NullIndex
}
