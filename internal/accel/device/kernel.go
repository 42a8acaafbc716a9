package device

import (
	"fmt"

	"github.com/luxrays-go/luxaccel/internal/accel/geom"
)

// HostTree is the common shape of bvh.Tree, qbvh.Tree, and mqbvh.Tree: the
// single-ray CPU entry point every device kernel mirrors.
type HostTree interface {
	Intersect(ray geom.Ray) geom.RayHit
}

// workGroupPolicyCap is the dispatcher-side work-group size ceiling.
const workGroupPolicyCap = 256

// HardwareKernel is the common device-resident shape of a BVH/QBVH/MQBVH
// kernel: one kernel entry point, a ray and a hit buffer, and whatever
// paged node/leaf/vertex buffers the specific tree needed. Its Run method
// is what dispatch.Dispatcher calls per ray-buffer batch.
type HardwareKernel struct {
	dev           Device
	entry         Kernel
	rayBuf        Handle
	hitBuf        Handle
	capacity      int
	workGroupSize int
	pages         []Handle
}

// kernelSource is the embedded OpenCL-style source every kernel compiles.
// The real per-work-item traversal body lives outside this subsystem's
// scope — a device backend is an external collaborator here; what's
// compiled here documents the call contract the paged buffers satisfy.
func kernelSource(name string) string {
	return fmt.Sprintf(`// generated stand-in for %s: mirrors host Intersect over paged node/vertex buffers.
__kernel void %s(__global const uchar *nodes, __global const uchar *verts,
                  __global const uchar *rays, __global uchar *hits, uint rayCount) {
    uint gid = get_global_id(0);
    if (gid >= rayCount) return;
    // traversal body omitted: device backend is out of scope for this subsystem.
}`, name, name)
}

// intersectRunner is the KernelFunc every HardwareKernel registers on a
// Fake device: it decodes the ray buffer, runs the host tree's own
// Intersect per ray, and encodes the result back into the hit buffer in
// place. The paged node/vertex/leaf buffers (args[3:]) are built and
// passed for real but unused here: per-work-item GPU traversal over them
// is the device backend's job, which is out of scope for this subsystem —
// this closure is the documented stand-in, not a reimplementation of the
// kernel body.
func intersectRunner(tree HostTree) KernelFunc {
	return func(args []any) error {
		rayBytes, _ := args[0].([]byte)
		hitBytes, _ := args[1].([]byte)
		count, _ := args[2].(int32)

		rays := DecodeRayBuffer(rayBytes, int(count))
		for i, r := range rays {
			h := tree.Intersect(r)
			copy(hitBytes[i*RayHitSize:(i+1)*RayHitSize], EncodeRayHit(h))
		}
		return nil
	}
}

func newHardwareKernel(d Device, name string, rayCapacity int, pages []Handle, run KernelFunc) (*HardwareKernel, error) {
	source := kernelSource(name)

	if fake, ok := d.(*Fake); ok {
		fake.RegisterKernel(name, run)
	}

	program, err := d.Compile(source, []string{fmt.Sprintf("RAY_COUNT_MAX=%d", rayCapacity)})
	if err != nil {
		return nil, fmt.Errorf("device: compile %s: %w", name, err)
	}

	entry, err := d.GetKernel(program, name)
	if err != nil {
		return nil, fmt.Errorf("device: get kernel %s: %w", name, err)
	}

	rayBuf, err := d.AllocBuffer(ReadOnly, nil, rayCapacity*RaySize, name+".rays")
	if err != nil {
		return nil, err
	}
	hitBuf, err := d.AllocBuffer(ReadWrite, nil, rayCapacity*RayHitSize, name+".hits")
	if err != nil {
		return nil, err
	}

	workGroupSize := d.MaxWorkGroupSize()
	if workGroupSize > workGroupPolicyCap {
		workGroupSize = workGroupPolicyCap
	}
	if workGroupSize <= 0 {
		workGroupSize = 1
	}

	// Fixed argument order: rayBuf, hitBuf, rayCount, then one slot per
	// paged buffer — the argument index is fixed per kernel.
	if err := d.SetArg(entry, 0, rayBuf); err != nil {
		return nil, err
	}
	if err := d.SetArg(entry, 1, hitBuf); err != nil {
		return nil, err
	}
	for i, h := range pages {
		if err := d.SetArg(entry, 3+i, h); err != nil {
			return nil, err
		}
	}

	return &HardwareKernel{
		dev:           d,
		entry:         entry,
		rayBuf:        rayBuf,
		hitBuf:        hitBuf,
		capacity:      rayCapacity,
		workGroupSize: workGroupSize,
		pages:         pages,
	}, nil
}

// Run intersects rays on the device and returns one hit per ray, in
// order. len(rays) must not exceed the kernel's ray buffer capacity.
func (k *HardwareKernel) Run(rays []geom.Ray) ([]geom.RayHit, error) {
	if len(rays) > k.capacity {
		return nil, fmt.Errorf("device: ray buffer capacity %d exceeded by %d rays", k.capacity, len(rays))
	}

	if err := k.dev.SetArg(k.entry, 2, int32(len(rays))); err != nil {
		return nil, err
	}

	if _, err := k.dev.EnqueueWriteBuffer(k.rayBuf, EncodeRayBuffer(rays), true); err != nil {
		return nil, err
	}

	globalRange := RoundUpWorkItems(len(rays), k.workGroupSize)
	ev, err := k.dev.Enqueue(k.entry, globalRange, k.workGroupSize)
	if err != nil {
		return nil, err
	}
	if err := ev.Wait(); err != nil {
		return nil, fmt.Errorf("device: kernel run failed: %w", err)
	}

	out := make([]byte, len(rays)*RayHitSize)
	if _, err := k.dev.EnqueueReadBuffer(k.hitBuf, out, true); err != nil {
		return nil, err
	}
	return DecodeHitBuffer(out, len(rays)), nil
}

// Close releases every buffer the kernel holds, in reverse allocation
// order.
func (k *HardwareKernel) Close() error {
	if err := k.dev.FreeBuffer(k.hitBuf); err != nil {
		return err
	}
	if err := k.dev.FreeBuffer(k.rayBuf); err != nil {
		return err
	}
	return FreePages(k.dev, k.pages)
}
