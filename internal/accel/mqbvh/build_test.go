package mqbvh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/internal/accel/qbvh"
	"github.com/luxrays-go/luxaccel/internal/motion"
	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

func cubeMesh(id mesh.ID) *mesh.TriangleMesh {
	verts := []mgl32.Vec3{
		{-0.5, -0.5, -0.5}, {0.5, -0.5, -0.5}, {0.5, 0.5, -0.5}, {-0.5, 0.5, -0.5},
		{-0.5, -0.5, 0.5}, {0.5, -0.5, 0.5}, {0.5, 0.5, 0.5}, {-0.5, 0.5, 0.5},
	}
	indices := []uint32{
		0, 1, 2, 0, 2, 3,
		4, 6, 5, 4, 7, 6,
		0, 3, 7, 0, 7, 4,
		1, 5, 6, 1, 6, 2,
		3, 2, 6, 3, 6, 7,
		0, 4, 5, 0, 5, 1,
	}
	return mesh.NewTriangleMesh(id, verts, indices, false)
}

func TestBuildEmptyScene(t *testing.T) {
	tree, err := Build(nil, 0, 0, qbvh.DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r := geom.NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0})
	if !tree.Intersect(r).IsMiss() {
		t.Error("expected a miss against an empty tree")
	}
}

// TestInstanceTranslation checks that a ray hits an instance at its
// translated location, not at the root mesh's local origin.
func TestInstanceTranslation(t *testing.T) {
	cube := cubeMesh(0)
	instance := mesh.NewInstanceMesh(1, cube, mgl32.Translate3D(20, 0, 0), false)

	meshes := []mesh.Mesh{instance}
	tree, err := Build(meshes, 0, 0, qbvh.DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	hitAtOrigin := geom.NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0})
	if !tree.Intersect(hitAtOrigin).IsMiss() {
		t.Error("expected a miss at the root mesh's un-translated location")
	}

	hitAtInstance := geom.NewRay(mgl32.Vec3{20, 10, 0}, mgl32.Vec3{0, -1, 0})
	hit := tree.Intersect(hitAtInstance)
	if hit.IsMiss() {
		t.Fatal("expected a hit at the translated instance location")
	}
	if hit.MeshIndex != 1 {
		t.Errorf("MeshIndex = %d, want the instance's own ID (1)", hit.MeshIndex)
	}
}

// TestPerMeshQBVHCacheIsShared checks that two instances of the same root
// mesh reuse one cached per-mesh QBVH rather than building two.
func TestPerMeshQBVHCacheIsShared(t *testing.T) {
	cube := cubeMesh(0)
	a := mesh.NewInstanceMesh(1, cube, mgl32.Translate3D(10, 0, 0), false)
	b := mesh.NewInstanceMesh(2, cube, mgl32.Translate3D(-10, 0, 0), false)

	tree, err := Build([]mesh.Mesh{a, b}, 0, 0, qbvh.DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(tree.cache) != 1 {
		t.Errorf("expected one cached per-mesh QBVH, got %d", len(tree.cache))
	}
	if tree.Leaves[0].QBVH != tree.Leaves[1].QBVH {
		t.Error("expected both instances' leaves to share the same *qbvh.Tree pointer")
	}
}

// TestMotionInterpolation checks that a ray sampled at different Time
// values hits the instance at its interpolated position.
func TestMotionInterpolation(t *testing.T) {
	cube := cubeMesh(0)
	sys := motion.NewSystem([]motion.Key{
		{Time: 0, Translation: mgl32.Vec3{0, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}},
		{Time: 1, Translation: mgl32.Vec3{10, 0, 0}, Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}},
	})
	moving := mesh.NewMotionMesh(1, cube, sys, false)

	tree, err := Build([]mesh.Mesh{moving}, 0, 0, qbvh.DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rAtStart := geom.NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0})
	rAtStart.Time = 0
	if tree.Intersect(rAtStart).IsMiss() {
		t.Error("expected a hit at the start-of-motion position at time 0")
	}

	rAtMid := geom.NewRay(mgl32.Vec3{5, 10, 0}, mgl32.Vec3{0, -1, 0})
	rAtMid.Time = 0.5
	if tree.Intersect(rAtMid).IsMiss() {
		t.Error("expected a hit at the interpolated midpoint position at time 0.5")
	}

	rAtEnd := geom.NewRay(mgl32.Vec3{10, 10, 0}, mgl32.Vec3{0, -1, 0})
	rAtEnd.Time = 1
	if tree.Intersect(rAtEnd).IsMiss() {
		t.Error("expected a hit at the end-of-motion position at time 1")
	}

	rStillAtStart := geom.NewRay(mgl32.Vec3{10, 10, 0}, mgl32.Vec3{0, -1, 0})
	rStillAtStart.Time = 0
	if !tree.Intersect(rStillAtStart).IsMiss() {
		t.Error("expected a miss at the end position while sampled at time 0")
	}
}

// TestUpdateRebuildsOnlyTopLevel checks that Update() picks up a new
// instance transform and that the per-mesh QBVH cache is reused, not
// rebuilt, across the call.
func TestUpdateRebuildsOnlyTopLevel(t *testing.T) {
	cube := cubeMesh(0)
	instance := mesh.NewInstanceMesh(1, cube, mgl32.Translate3D(0, 0, 0), false)

	tree, err := Build([]mesh.Mesh{instance}, 0, 0, qbvh.DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cachedQBVH := tree.cache[cube.ID()]

	moved := mesh.NewInstanceMesh(1, cube, mgl32.Translate3D(30, 0, 0), false)
	if err := tree.Update([]mesh.Mesh{moved}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if tree.cache[cube.ID()] != cachedQBVH {
		t.Error("Update should reuse the cached per-mesh QBVH, not rebuild it")
	}

	r := geom.NewRay(mgl32.Vec3{30, 10, 0}, mgl32.Vec3{0, -1, 0})
	if tree.Intersect(r).IsMiss() {
		t.Error("expected a hit at the moved instance's new location")
	}
	old := geom.NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0})
	if !tree.Intersect(old).IsMiss() {
		t.Error("expected a miss at the instance's old location after Update")
	}
}
