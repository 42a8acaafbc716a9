// Package dispatch implements the batch intersection dispatcher: a
// bounded ray-buffer queue serviced by a triple-buffered worker that
// uploads rays to a device.Device, runs the selected tree's kernel, and
// returns hits in the order buffers were pushed.
package dispatch

import (
	"fmt"
	"strings"

	"github.com/luxrays-go/luxaccel/internal/accel/device"
	"github.com/luxrays-go/luxaccel/internal/accel/geom"
)

// AcceleratorType selects which tree family a DataSet is built around:
// BVH, QBVH, or MQBVH.
type AcceleratorType int

const (
	BVH AcceleratorType = iota
	QBVH
	MQBVH
)

func (t AcceleratorType) String() string {
	switch t {
	case BVH:
		return "BVH"
	case QBVH:
		return "QBVH"
	case MQBVH:
		return "MQBVH"
	default:
		return "UNKNOWN"
	}
}

// ErrUnknownAcceleratorType reports an unrecognized accelerator.type value.
var ErrUnknownAcceleratorType = fmt.Errorf("dispatch: unknown accelerator type")

// ParseAcceleratorType parses a case-insensitive configuration value into
// an AcceleratorType.
func ParseAcceleratorType(s string) (AcceleratorType, error) {
	switch strings.ToUpper(s) {
	case "BVH":
		return BVH, nil
	case "QBVH":
		return QBVH, nil
	case "MQBVH":
		return MQBVH, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAcceleratorType, s)
	}
}

// DataSet is what SetDataSet consumes: enough for the dispatcher to
// classify the accelerator and build its device-resident kernel without
// importing bvh/qbvh/mqbvh directly.
type DataSet interface {
	AcceleratorType() AcceleratorType
	NewHardwareIntersectionKernel(dev device.Device, rayCapacity int) (*device.HardwareKernel, error)
}

// RayBuffer is one producer-submitted batch.
type RayBuffer struct {
	ID   uint64
	Rays []geom.Ray
}

// ResultBuffer is the completed counterpart of a RayBuffer, delivered in
// push order.
type ResultBuffer struct {
	ID   uint64
	Hits []geom.RayHit
	Err  error
}
