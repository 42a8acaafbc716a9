// Package accel assembles the geometry, mesh, tree, device, and
// dispatch packages into the four implementations callers choose among:
// NullAccel, BVHAccel, QBVHAccel, MQBVHAccel.
package accel

import (
	"fmt"

	"github.com/luxrays-go/luxaccel/internal/accel/bvh"
	"github.com/luxrays-go/luxaccel/internal/accel/device"
	"github.com/luxrays-go/luxaccel/internal/accel/dispatch"
	"github.com/luxrays-go/luxaccel/internal/accel/geom"
	"github.com/luxrays-go/luxaccel/internal/accel/mesh"
	"github.com/luxrays-go/luxaccel/internal/accel/mqbvh"
	"github.com/luxrays-go/luxaccel/internal/accel/qbvh"
	"github.com/luxrays-go/luxaccel/pkg/epsilon"
)

// AcceleratorType re-exports dispatch.AcceleratorType: callers configure
// against this package, construction delegates kernel selection to
// dispatch.
type AcceleratorType = dispatch.AcceleratorType

const (
	BVH   = dispatch.BVH
	QBVH  = dispatch.QBVH
	MQBVH = dispatch.MQBVH
)

// ParseAcceleratorType parses a configuration value into an
// AcceleratorType.
func ParseAcceleratorType(s string) (AcceleratorType, error) {
	return dispatch.ParseAcceleratorType(s)
}

// Accelerator is the uniform surface every tree family exposes to
// callers. Update is optional; see Updatable.
type Accelerator interface {
	dispatch.DataSet

	Intersect(ray geom.Ray) geom.RayHit
}

// Updatable is implemented only by MQBVHAccel: updating in place is only
// meaningful for the two-level instance tree.
type Updatable interface {
	Update(meshes []mesh.Mesh) error
}

// NullAccel is the always-miss accelerator: a degenerate baseline for an
// empty scene or a disabled accelerator. Its device kernel is a BVH kernel
// over an empty tree, so it also misses every ray.
type NullAccel struct{}

func (NullAccel) AcceleratorType() AcceleratorType { return BVH }

func (NullAccel) Intersect(geom.Ray) geom.RayHit { return geom.Miss() }

func (NullAccel) NewHardwareIntersectionKernel(d device.Device, rayCapacity int) (*device.HardwareKernel, error) {
	empty, err := bvh.Build(nil, 0, 0, bvh.DefaultParams(), epsilon.Default())
	if err != nil {
		return nil, err
	}
	return device.NewBVHKernel(d, empty, rayCapacity)
}

// BVHAccel wraps a bvh.Tree.
type BVHAccel struct {
	tree *bvh.Tree
}

// NewBVHAccel builds a BVH over meshes.
func NewBVHAccel(meshes []mesh.Mesh, totalVertexCount, totalTriangleCount uint64, params bvh.Params, eps epsilon.Config) (*BVHAccel, error) {
	tree, err := bvh.Build(meshes, totalVertexCount, totalTriangleCount, params, eps)
	if err != nil {
		return nil, fmt.Errorf("accel: build BVH: %w", err)
	}
	return &BVHAccel{tree: tree}, nil
}

func (a *BVHAccel) AcceleratorType() AcceleratorType { return BVH }

func (a *BVHAccel) Intersect(ray geom.Ray) geom.RayHit { return a.tree.Intersect(ray) }

func (a *BVHAccel) NewHardwareIntersectionKernel(d device.Device, rayCapacity int) (*device.HardwareKernel, error) {
	return device.NewBVHKernel(d, a.tree, rayCapacity)
}

// QBVHAccel wraps a qbvh.Tree.
type QBVHAccel struct {
	tree *qbvh.Tree
}

// NewQBVHAccel builds a QBVH over meshes.
func NewQBVHAccel(meshes []mesh.Mesh, totalVertexCount, totalTriangleCount uint64, params qbvh.Params, eps epsilon.Config) (*QBVHAccel, error) {
	tree, err := qbvh.Build(meshes, totalVertexCount, totalTriangleCount, params, eps)
	if err != nil {
		return nil, fmt.Errorf("accel: build QBVH: %w", err)
	}
	return &QBVHAccel{tree: tree}, nil
}

func (a *QBVHAccel) AcceleratorType() AcceleratorType { return QBVH }

func (a *QBVHAccel) Intersect(ray geom.Ray) geom.RayHit { return a.tree.Intersect(ray) }

func (a *QBVHAccel) NewHardwareIntersectionKernel(d device.Device, rayCapacity int) (*device.HardwareKernel, error) {
	return device.NewQBVHKernel(d, a.tree, rayCapacity)
}

// MQBVHAccel wraps an mqbvh.Tree. It is the only Accelerator that also
// implements Updatable.
type MQBVHAccel struct {
	tree *mqbvh.Tree
}

// NewMQBVHAccel builds an MQBVH over meshes, where instanced/motion
// meshes reference a shared root mesh via mesh.RootSource.
func NewMQBVHAccel(meshes []mesh.Mesh, totalVertexCount, totalTriangleCount uint64, qp qbvh.Params, eps epsilon.Config) (*MQBVHAccel, error) {
	tree, err := mqbvh.Build(meshes, totalVertexCount, totalTriangleCount, qp, eps)
	if err != nil {
		return nil, fmt.Errorf("accel: build MQBVH: %w", err)
	}
	return &MQBVHAccel{tree: tree}, nil
}

func (a *MQBVHAccel) AcceleratorType() AcceleratorType { return MQBVH }

func (a *MQBVHAccel) Intersect(ray geom.Ray) geom.RayHit { return a.tree.Intersect(ray) }

func (a *MQBVHAccel) NewHardwareIntersectionKernel(d device.Device, rayCapacity int) (*device.HardwareKernel, error) {
	return device.NewMQBVHKernel(d, a.tree, rayCapacity)
}

// Update refreshes the top-level tree from the meshes' current
// transforms, reusing cached per-mesh QBVHs.
func (a *MQBVHAccel) Update(meshes []mesh.Mesh) error {
	return a.tree.Update(meshes)
}

var (
	_ Accelerator = NullAccel{}
	_ Accelerator = (*BVHAccel)(nil)
	_ Accelerator = (*QBVHAccel)(nil)
	_ Accelerator = (*MQBVHAccel)(nil)
	_ Updatable   = (*MQBVHAccel)(nil)
)
