// Package device defines the capability interface the accelerator core
// consumes to run batched intersection on a compute device.
// No OpenCL/Vulkan backend is implemented here — device discovery and the
// real compute backend are external collaborators out of scope for this
// subsystem. This package defines the interface plus a same-process Fake
// used by tests to exercise the paging and dispatch protocol end to end.
package device

import "fmt"

// BufferFlags controls how a buffer may be accessed by a kernel and
// whether it is a candidate for out-of-core (host-resident, streamed)
// storage.
type BufferFlags int

const (
	ReadOnly BufferFlags = 1 << iota
	WriteOnly
	ReadWrite
	OutOfCore
)

// Handle names a device-resident buffer. The zero Handle is never valid.
type Handle struct {
	id    uint64
	Size  int
	Label string
}

// ProgramHandle names a compiled program.
type ProgramHandle struct {
	id uint64
}

// Kernel is a compiled entry point within a program. Its argument index is
// fixed and documented by the kernel's own setup routine.
type Kernel struct {
	Program ProgramHandle
	Name    string
}

// ErrAllocExceedsLimit is returned when a single allocation would exceed
// the device's advertised MaxMemAllocSize.
var ErrAllocExceedsLimit = fmt.Errorf("device: allocation exceeds device limit")

// ErrUnknownKernel is returned by GetKernel for a name the compiled
// program does not export.
var ErrUnknownKernel = fmt.Errorf("device: unknown kernel name")

// ErrArgIndexOutOfRange is returned by SetArg for an index outside the
// kernel's fixed, documented argument list.
var ErrArgIndexOutOfRange = fmt.Errorf("device: argument index out of range")

// Event is a handle to an in-flight or completed device operation.
type Event interface {
	// Wait blocks until the operation completes, returning any device-side
	// failure.
	Wait() error
}

// Device is the full capability surface the accelerator core consumes.
type Device interface {
	// MaxMemAllocSize is the largest single buffer the device accepts.
	MaxMemAllocSize() uint64

	// MaxWorkGroupSize is the device's work-group size ceiling before the
	// dispatcher's own policy cap of 256 is applied.
	MaxWorkGroupSize() int

	// AllocBuffer reserves size bytes, optionally initialized from host,
	// tagged with a human-readable label for diagnostics.
	AllocBuffer(flags BufferFlags, host []byte, size int, label string) (Handle, error)

	// FreeBuffer releases a buffer. Buffers must be freed in the reverse
	// order they were allocated.
	FreeBuffer(h Handle) error

	// Compile builds a program from source with preprocessor symbols.
	Compile(source string, symbols []string) (ProgramHandle, error)

	// GetKernel retrieves a kernel by name from a compiled program.
	GetKernel(p ProgramHandle, name string) (Kernel, error)

	// SetArg binds a positional kernel argument. value is either a Handle
	// (buffer argument) or a fixed-width scalar (int32/uint32/float32).
	SetArg(k Kernel, index int, value any) error

	// Enqueue dispatches a kernel over globalRange work items grouped by
	// workGroupSize, returning a completion event — one work item per ray.
	Enqueue(k Kernel, globalRange, workGroupSize int) (Event, error)

	// EnqueueWriteBuffer and EnqueueReadBuffer transfer host memory;
	// blocking calls return only once the transfer completes.
	EnqueueWriteBuffer(h Handle, data []byte, blocking bool) (Event, error)
	EnqueueReadBuffer(h Handle, out []byte, blocking bool) (Event, error)
}
