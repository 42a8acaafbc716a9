package accel

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/luxrays-go/luxaccel/internal/accel/bvh"
	"github.com/luxrays-go/luxaccel/internal/accel/device"
	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/internal/accel/qbvh"
	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

func quadMesh(id mesh.ID) *mesh.TriangleMesh {
	verts := []mgl32.Vec3{
		{-10, 0, -10}, {10, 0, -10}, {10, 0, 10}, {-10, 0, 10},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	return mesh.NewTriangleMesh(id, verts, indices, false)
}

func downwardRay() geom.Ray {
	return geom.NewRay(mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, -1, 0})
}

func TestNullAccelAlwaysMisses(t *testing.T) {
	var n NullAccel
	if !n.Intersect(downwardRay()).IsMiss() {
		t.Error("NullAccel should always report a miss")
	}
	if n.AcceleratorType() != BVH {
		t.Errorf("NullAccel.AcceleratorType() = %v, want BVH", n.AcceleratorType())
	}

	dev := device.NewFake(64<<20, 256)
	kernel, err := n.NewHardwareIntersectionKernel(dev, 16)
	if err != nil {
		t.Fatalf("NewHardwareIntersectionKernel: %v", err)
	}
	defer kernel.Close()

	hits, err := kernel.Run([]geom.Ray{downwardRay()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !hits[0].IsMiss() {
		t.Error("NullAccel's device kernel should always report a miss")
	}
}

func TestBVHAccelRoundTrip(t *testing.T) {
	meshes := []mesh.Mesh{quadMesh(0)}
	a, err := NewBVHAccel(meshes, 4, 2, bvh.DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("NewBVHAccel: %v", err)
	}
	if a.AcceleratorType() != BVH {
		t.Errorf("AcceleratorType() = %v, want BVH", a.AcceleratorType())
	}
	if a.Intersect(downwardRay()).IsMiss() {
		t.Error("expected a hit")
	}

	dev := device.NewFake(64<<20, 256)
	kernel, err := a.NewHardwareIntersectionKernel(dev, 16)
	if err != nil {
		t.Fatalf("NewHardwareIntersectionKernel: %v", err)
	}
	defer kernel.Close()
}

func TestQBVHAccelRoundTrip(t *testing.T) {
	meshes := []mesh.Mesh{quadMesh(0)}
	a, err := NewQBVHAccel(meshes, 4, 2, qbvh.DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("NewQBVHAccel: %v", err)
	}
	if a.AcceleratorType() != QBVH {
		t.Errorf("AcceleratorType() = %v, want QBVH", a.AcceleratorType())
	}
	if a.Intersect(downwardRay()).IsMiss() {
		t.Error("expected a hit")
	}

	dev := device.NewFake(64<<20, 256)
	kernel, err := a.NewHardwareIntersectionKernel(dev, 16)
	if err != nil {
		t.Fatalf("NewHardwareIntersectionKernel: %v", err)
	}
	defer kernel.Close()
}

func TestMQBVHAccelUpdate(t *testing.T) {
	cube := quadMesh(0)
	instance := mesh.NewInstanceMesh(1, cube, mgl32.Translate3D(0, 0, 0), false)

	a, err := NewMQBVHAccel([]mesh.Mesh{instance}, 4, 2, qbvh.DefaultParams(), epsilon.Default())
	if err != nil {
		t.Fatalf("NewMQBVHAccel: %v", err)
	}
	if a.AcceleratorType() != MQBVH {
		t.Errorf("AcceleratorType() = %v, want MQBVH", a.AcceleratorType())
	}
	if a.Intersect(downwardRay()).IsMiss() {
		t.Error("expected a hit")
	}

	moved := mesh.NewInstanceMesh(1, cube, mgl32.Translate3D(100, 0, 0), false)
	if err := a.Update([]mesh.Mesh{moved}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !a.Intersect(downwardRay()).IsMiss() {
		t.Error("expected a miss at the old location after Update moved the instance")
	}

	dev := device.NewFake(64<<20, 256)
	kernel, err := a.NewHardwareIntersectionKernel(dev, 16)
	if err != nil {
		t.Fatalf("NewHardwareIntersectionKernel: %v", err)
	}
	defer kernel.Close()
}

func TestParseAcceleratorType(t *testing.T) {
	cases := []struct {
		in      string
		want    AcceleratorType
		wantErr bool
	}{
		{"BVH", BVH, false},
		{"qbvh", QBVH, false},
		{"MQBVH", MQBVH, false},
		{"nonsense", 0, true},
	}
	for _, tt := range cases {
		got, err := ParseAcceleratorType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAcceleratorType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseAcceleratorType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
