package bvh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

// TestTraverseTieBreakFirstInOrder builds two coplanar, exactly overlapping
// quads and checks that a ray hitting both at an identical t resolves to
// the same mesh as a linear scan, which also keeps the first hit found
// under the strict-less-than tie-break rule.
func TestTraverseTieBreakFirstInOrder(t *testing.T) {
	meshes := []mesh.Mesh{
		quadMesh(0, 5, 2),
		quadMesh(1, 5, 2),
	}
	tree, err := Build(meshes, 0, 0, DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r := geom.NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0})
	hit := tree.Intersect(r)
	if hit.IsMiss() {
		t.Fatal("expected a hit")
	}

	// Whichever mesh wins, a linear scan over the same order must agree:
	// this asserts internal consistency of the tie-break, not a specific
	// winner, since SAH grouping may reorder the two quads.
	scan := NewLinearScan(meshes)
	want := scan.Intersect(r)
	if hit.MeshIndex != want.MeshIndex {
		t.Errorf("tree tie-break picked mesh %d, linear scan picked %d", hit.MeshIndex, want.MeshIndex)
	}
}

func TestTraverseRespectsRayMint(t *testing.T) {
	meshes := []mesh.Mesh{quadMesh(0, 5, 0)}
	tree, err := Build(meshes, 0, 0, DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r := geom.NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0})
	r.Mint = 20 // the quad is at distance 10, which is now before Mint

	if !tree.Intersect(r).IsMiss() {
		t.Error("expected a miss when the hit distance is below Mint")
	}
}
