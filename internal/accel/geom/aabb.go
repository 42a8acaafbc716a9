package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// EmptyAABB returns a box with inverted bounds, ready to be grown by
// repeated calls to Union/UnionPoint.
func EmptyAABB() AABB {
	return AABB{
		Min: mgl32.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: mgl32.Vec3{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
}

// FromPoints returns the smallest AABB containing all of pts.
func FromPoints(pts ...mgl32.Vec3) AABB {
	b := EmptyAABB()
	for _, p := range pts {
		b = b.UnionPoint(p)
	}
	return b
}

// UnionPoint returns the box enlarged to contain p.
func (b AABB) UnionPoint(p mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{min32(b.Min[0], p[0]), min32(b.Min[1], p[1]), min32(b.Min[2], p[2])},
		Max: mgl32.Vec3{max32(b.Max[0], p[0]), max32(b.Max[1], p[1]), max32(b.Max[2], p[2])},
	}
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min32(b.Min[0], o.Min[0]), min32(b.Min[1], o.Min[1]), min32(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{max32(b.Max[0], o.Max[0]), max32(b.Max[1], o.Max[1]), max32(b.Max[2], o.Max[2])},
	}
}

// Expand grows the box by e in every direction. Used to enlarge primitive
// bounds by machine epsilon before insertion, per cfg.Machine.
func (b AABB) Expand(cfg epsilon.Config) AABB {
	e := float32(cfg.Machine)
	return AABB{
		Min: mgl32.Vec3{b.Min[0] - e, b.Min[1] - e, b.Min[2] - e},
		Max: mgl32.Vec3{b.Max[0] + e, b.Max[1] + e, b.Max[2] + e},
	}
}

// Centroid returns the box's midpoint.
func (b AABB) Centroid() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extent returns Max - Min.
func (b AABB) Extent() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// MaxExtentAxis returns the axis (0=x, 1=y, 2=z) along which the box is
// widest.
func (b AABB) MaxExtentAxis() int {
	e := b.Extent()
	axis := 0
	if e[1] > e[axis] {
		axis = 1
	}
	if e[2] > e[axis] {
		axis = 2
	}
	return axis
}

// SurfaceArea returns the box's surface area, used by the SAH cost model.
// An inverted box has zero area; a flat (zero-volume) box keeps the area
// of its nonzero faces.
func (b AABB) SurfaceArea() float32 {
	e := b.Extent()
	if e[0] < 0 || e[1] < 0 || e[2] < 0 {
		return 0
	}
	return 2 * (e[0]*e[1] + e[1]*e[2] + e[2]*e[0])
}

// IntersectP performs the slab test against the ray's current [mint, maxt]
// range, using precomputed inverse direction. It reports whether the box is
// hit at all, without producing a hit distance.
func (b AABB) IntersectP(r Ray, invDir mgl32.Vec3) bool {
	tmin := r.Mint
	tmax := r.Maxt

	for axis := 0; axis < 3; axis++ {
		t0 := (b.Min[axis] - r.Origin[axis]) * invDir[axis]
		t1 := (b.Max[axis] - r.Origin[axis]) * invDir[axis]
		if invDir[axis] < 0 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return false
		}
	}
	return true
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
