package bvh

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

func quadMesh(id mesh.ID, halfExtent float32, y float32) *mesh.TriangleMesh {
	verts := []mgl32.Vec3{
		{-halfExtent, y, -halfExtent},
		{halfExtent, y, -halfExtent},
		{halfExtent, y, halfExtent},
		{-halfExtent, y, halfExtent},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return mesh.NewTriangleMesh(id, verts, indices, false)
}

func randomMeshes(n int, seed int64) []mesh.Mesh {
	rng := rand.New(rand.NewSource(seed))
	meshes := make([]mesh.Mesh, n)
	for i := 0; i < n; i++ {
		cx := rng.Float32()*40 - 20
		cz := rng.Float32()*40 - 20
		y := rng.Float32() * 10
		meshes[i] = quadMesh(mesh.ID(i), 1+rng.Float32()*2, y)
		// offset the quad off-origin via a translated copy of its vertices
		tm := meshes[i].(*mesh.TriangleMesh)
		for j := range tm.Vertices {
			tm.Vertices[j][0] += cx
			tm.Vertices[j][2] += cz
		}
	}
	return meshes
}

func TestBuildEmptyScene(t *testing.T) {
	tree, err := Build(nil, 0, 0, DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(tree.Nodes) != 0 {
		t.Fatalf("expected no nodes for an empty scene, got %d", len(tree.Nodes))
	}

	r := geom.NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0})
	hit := tree.Intersect(r)
	if !hit.IsMiss() {
		t.Error("expected a miss against an empty tree")
	}
}

func TestBuildAndIntersectSingleQuad(t *testing.T) {
	meshes := []mesh.Mesh{quadMesh(0, 5, 0)}
	tree, err := Build(meshes, 4, 2, DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	r := geom.NewRay(mgl32.Vec3{0, 10, 0}, mgl32.Vec3{0, -1, 0})
	hit := tree.Intersect(r)
	if hit.IsMiss() {
		t.Fatal("expected a hit on the quad")
	}
	if hit.MeshIndex != 0 {
		t.Errorf("MeshIndex = %d, want 0", hit.MeshIndex)
	}

	miss := geom.NewRay(mgl32.Vec3{100, 10, 100}, mgl32.Vec3{0, -1, 0})
	if !tree.Intersect(miss).IsMiss() {
		t.Error("expected a miss well outside the quad")
	}
}

// TestMatchesLinearScan checks that tree traversal returns the same
// nearest hit a brute-force scan over the same triangles would.
func TestMatchesLinearScan(t *testing.T) {
	meshes := randomMeshes(24, 7)
	tree, err := Build(meshes, 0, 0, DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	scan := NewLinearScan(meshes)

	rng := rand.New(rand.NewSource(99))
	for i := 0; i < 200; i++ {
		origin := mgl32.Vec3{0, 50, 0}
		dir := mgl32.Vec3{
			rng.Float32()*2 - 1,
			-1,
			rng.Float32()*2 - 1,
		}.Normalize()
		r := geom.NewRay(origin, dir)

		want := scan.Intersect(r)
		got := tree.Intersect(r)

		if want.IsMiss() != got.IsMiss() {
			t.Fatalf("ray %d: miss mismatch: tree=%v linear=%v", i, got.IsMiss(), want.IsMiss())
		}
		if want.IsMiss() {
			continue
		}
		if got.T != want.T || got.MeshIndex != want.MeshIndex || got.TriangleIndex != want.TriangleIndex {
			t.Errorf("ray %d: tree hit %+v, want %+v", i, got, want)
		}
	}
}

func TestBuildTreeTypeVariants(t *testing.T) {
	meshes := randomMeshes(16, 3)
	for _, treeType := range []int{2, 4, 8} {
		params := DefaultParams()
		params.TreeType = treeType
		tree, err := Build(meshes, 0, 0, params, epsilon.Default())
		if err != nil {
			t.Fatalf("treeType=%d: Build: %v", treeType, err)
		}
		if len(tree.Nodes) == 0 {
			t.Fatalf("treeType=%d: expected a non-empty tree", treeType)
		}
	}
}
