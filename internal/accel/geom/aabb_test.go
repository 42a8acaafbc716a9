package geom

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

func TestAABBUnion(t *testing.T) {
	a := AABB{Min: mgl32.Vec3{-1, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	b := AABB{Min: mgl32.Vec3{0, -2, 0}, Max: mgl32.Vec3{3, 0.5, 2}}

	u := a.Union(b)
	want := AABB{Min: mgl32.Vec3{-1, -2, 0}, Max: mgl32.Vec3{3, 1, 2}}
	if u != want {
		t.Errorf("Union = %+v, want %+v", u, want)
	}
}

func TestAABBFromPointsEmpty(t *testing.T) {
	b := FromPoints()
	if b.SurfaceArea() != 0 {
		t.Errorf("empty box should have zero surface area, got %v", b.SurfaceArea())
	}
}

func TestAABBExpand(t *testing.T) {
	b := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	cfg := epsilon.Config{Machine: 0.1}
	e := b.Expand(cfg)

	want := AABB{Min: mgl32.Vec3{-0.1, -0.1, -0.1}, Max: mgl32.Vec3{1.1, 1.1, 1.1}}
	if e != want {
		t.Errorf("Expand = %+v, want %+v", e, want)
	}
}

func TestAABBMaxExtentAxis(t *testing.T) {
	cases := []struct {
		name string
		b    AABB
		want int
	}{
		{"x widest", AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{10, 1, 1}}, 0},
		{"y widest", AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 10, 1}}, 1},
		{"z widest", AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 10}}, 2},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.b.MaxExtentAxis(); got != tt.want {
				t.Errorf("MaxExtentAxis() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAABBIntersectP(t *testing.T) {
	b := AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

	cases := []struct {
		name      string
		origin    mgl32.Vec3
		direction mgl32.Vec3
		want      bool
	}{
		{"through the box", mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1}, true},
		{"misses the box", mgl32.Vec3{5, 5, -5}, mgl32.Vec3{0, 0, 1}, false},
		{"behind the box", mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, -1}, false},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRay(tt.origin, tt.direction)
			if got := b.IntersectP(r, r.InvDirection()); got != tt.want {
				t.Errorf("IntersectP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAABBSurfaceAreaDegenerate(t *testing.T) {
	b := EmptyAABB()
	if got := b.SurfaceArea(); got != 0 {
		t.Errorf("inverted box should report zero area, got %v", got)
	}
}
