package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func unitTriangle() Triangle {
	return Triangle{
		V0: mgl32.Vec3{0, 0, 0},
		V1: mgl32.Vec3{1, 0, 0},
		V2: mgl32.Vec3{0, 1, 0},
	}
}

func TestTriangleIntersect(t *testing.T) {
	tri := unitTriangle()

	cases := []struct {
		name      string
		origin    mgl32.Vec3
		direction mgl32.Vec3
		wantHit   bool
		wantDist  float32
	}{
		{"through interior point", mgl32.Vec3{0.25, 0.25, -1}, mgl32.Vec3{0, 0, 1}, true, 1},
		{"outside edge", mgl32.Vec3{2, 2, -1}, mgl32.Vec3{0, 0, 1}, false, 0},
		{"parallel to plane", mgl32.Vec3{0.1, 0.1, 0}, mgl32.Vec3{1, 0, 0}, false, 0},
		{"behind origin", mgl32.Vec3{0.25, 0.25, 1}, mgl32.Vec3{0, 0, 1}, false, 0},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRay(tt.origin, tt.direction)
			hit, dist, b1, b2 := tri.Intersect(r)
			if hit != tt.wantHit {
				t.Fatalf("hit = %v, want %v", hit, tt.wantHit)
			}
			if !hit {
				return
			}
			if math.Abs(float64(dist-tt.wantDist)) > 1e-4 {
				t.Errorf("dist = %v, want %v", dist, tt.wantDist)
			}
			if b1 < 0 || b2 < 0 || b1+b2 > 1 {
				t.Errorf("barycentrics out of range: b1=%v b2=%v", b1, b2)
			}
		})
	}
}

func TestTriangleIntersectRespectsMaxt(t *testing.T) {
	tri := unitTriangle()
	r := NewRay(mgl32.Vec3{0.25, 0.25, -1}, mgl32.Vec3{0, 0, 1})
	r.Maxt = 0.5 // hit is at t=1, beyond this range

	hit, _, _, _ := tri.Intersect(r)
	if hit {
		t.Fatal("expected no hit beyond Maxt")
	}
}

func TestQuadTrianglePacksFewerThanFourLanes(t *testing.T) {
	tris := []Triangle{unitTriangle()}
	q := NewQuadTriangle(tris, []uint32{7}, []uint32{3})

	if !q.Active[0] {
		t.Fatal("lane 0 should be active")
	}
	for lane := 1; lane < QuadTriangleLanes; lane++ {
		if q.Active[lane] {
			t.Errorf("lane %d should be inactive", lane)
		}
	}

	r := NewRay(mgl32.Vec3{0.25, 0.25, -1}, mgl32.Vec3{0, 0, 1})
	hit, found := q.Intersect(r)
	if !found {
		t.Fatal("expected a hit")
	}
	if hit.MeshIndex != 7 || hit.TriangleIndex != 3 {
		t.Errorf("hit indices = (%d, %d), want (7, 3)", hit.MeshIndex, hit.TriangleIndex)
	}
}

func TestQuadTriangleKeepsClosestLane(t *testing.T) {
	near := Triangle{V0: mgl32.Vec3{-1, -1, 1}, V1: mgl32.Vec3{1, -1, 1}, V2: mgl32.Vec3{0, 1, 1}}
	far := Triangle{V0: mgl32.Vec3{-1, -1, 5}, V1: mgl32.Vec3{1, -1, 5}, V2: mgl32.Vec3{0, 1, 5}}

	q := NewQuadTriangle([]Triangle{far, near}, []uint32{0, 1}, []uint32{0, 1})

	r := NewRay(mgl32.Vec3{0, -0.5, -10}, mgl32.Vec3{0, 0, 1})
	hit, found := q.Intersect(r)
	if !found {
		t.Fatal("expected a hit")
	}
	if hit.MeshIndex != 1 {
		t.Errorf("expected the nearer lane (mesh 1) to win, got mesh %d", hit.MeshIndex)
	}
}

func TestQuadAABBIntersectP(t *testing.T) {
	var q QuadAABB
	q.SetChild(0, AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}})
	q.SetChild(1, AABB{Min: mgl32.Vec3{10, 10, 10}, Max: mgl32.Vec3{11, 11, 11}})
	q.SetEmpty(2)
	q.SetEmpty(3)

	r := NewRay(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1})
	mask := q.IntersectP(r, r.InvDirection())

	if mask&(1<<0) == 0 {
		t.Error("expected lane 0 to be hit")
	}
	if mask&(1<<1) != 0 {
		t.Error("expected lane 1 to miss")
	}
	if mask&(1<<2) != 0 || mask&(1<<3) != 0 {
		t.Error("expected empty lanes to never report a hit")
	}
}
