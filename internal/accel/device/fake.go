package device

import (
	"fmt"
	"sync"
)

// KernelFunc is the fake backend's stand-in for compiled device code: it
// runs synchronously in-process against whatever buffers and scalar args
// the kernel was bound with. Real kernel source text is still compiled
// (recorded, not executed) so Compile/GetKernel/SetArg/Enqueue exercise
// the same call sequence a real backend would see.
type KernelFunc func(args []any) error

// Fake is a same-process Device used by tests to exercise the paging and
// dispatch protocol without a real compute backend, checking that it
// produces the same hits a direct host traversal would. Buffers are plain
// byte slices; Compile records source and symbols; Enqueue invokes the KernelFunc registered
// under the kernel's name via RegisterKernel.
type Fake struct {
	mu sync.Mutex

	maxMemAllocSize  uint64
	maxWorkGroupSize int
	nextHandle       uint64
	nextProgram      uint64
	buffers          map[uint64][]byte
	allocOrder       []uint64
	programs         map[uint64]*fakeProgram
	kernelImpls      map[string]KernelFunc
	pendingArgs      map[kernelArgKey][]any
}

// kernelArgKey keys the pending-argument list by (program id, kernel
// name) so distinct kernels never share argument slots.
type kernelArgKey struct {
	program uint64
	name    string
}

type fakeProgram struct {
	source  string
	symbols []string
}

// NewFake constructs a Fake device with the given limits.
func NewFake(maxMemAllocSize uint64, maxWorkGroupSize int) *Fake {
	return &Fake{
		maxMemAllocSize:  maxMemAllocSize,
		maxWorkGroupSize: maxWorkGroupSize,
		buffers:          map[uint64][]byte{},
		programs:         map[uint64]*fakeProgram{},
		kernelImpls:      map[string]KernelFunc{},
	}
}

// RegisterKernel binds a kernel name to the Go function that stands in
// for its compiled behavior. Must be called before Compile names it.
func (f *Fake) RegisterKernel(name string, fn KernelFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kernelImpls[name] = fn
}

func (f *Fake) MaxMemAllocSize() uint64 { return f.maxMemAllocSize }
func (f *Fake) MaxWorkGroupSize() int   { return f.maxWorkGroupSize }

func (f *Fake) AllocBuffer(flags BufferFlags, host []byte, size int, label string) (Handle, error) {
	if uint64(size) > f.maxMemAllocSize {
		return Handle{}, fmt.Errorf("%w: %d > %d (%s)", ErrAllocExceedsLimit, size, f.maxMemAllocSize, label)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextHandle++
	id := f.nextHandle

	buf := make([]byte, size)
	copy(buf, host)
	f.buffers[id] = buf
	f.allocOrder = append(f.allocOrder, id)

	return Handle{id: id, Size: size, Label: label}, nil
}

// FreeBuffer releases h. The Fake enforces the reverse-allocation-order
// discipline real devices require of callers, so a dispatcher that
// violates it fails loudly in tests rather than leaking silently on a
// real device.
func (f *Fake) FreeBuffer(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.buffers[h.id]; !ok {
		return fmt.Errorf("device: free of unknown buffer %q", h.Label)
	}
	if len(f.allocOrder) == 0 || f.allocOrder[len(f.allocOrder)-1] != h.id {
		return fmt.Errorf("device: buffer %q freed out of LIFO order", h.Label)
	}
	f.allocOrder = f.allocOrder[:len(f.allocOrder)-1]
	delete(f.buffers, h.id)
	return nil
}

func (f *Fake) Compile(source string, symbols []string) (ProgramHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextProgram++
	id := f.nextProgram
	f.programs[id] = &fakeProgram{source: source, symbols: append([]string(nil), symbols...)}
	return ProgramHandle{id: id}, nil
}

func (f *Fake) GetKernel(p ProgramHandle, name string) (Kernel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.programs[p.id]; !ok {
		return Kernel{}, fmt.Errorf("device: unknown program")
	}
	if _, ok := f.kernelImpls[name]; !ok {
		return Kernel{}, fmt.Errorf("%w: %q", ErrUnknownKernel, name)
	}
	return Kernel{Program: p, Name: name}, nil
}

func (f *Fake) SetArg(k Kernel, index int, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	args := f.argsFor(k)
	if index < 0 {
		return ErrArgIndexOutOfRange
	}
	for len(args) <= index {
		args = append(args, nil)
	}
	args[index] = value
	f.setArgsFor(k, args)
	return nil
}

func (f *Fake) argsFor(k Kernel) []any {
	return f.pendingArgs[kernelArgKey{k.Program.id, k.Name}]
}

func (f *Fake) setArgsFor(k Kernel, args []any) {
	if f.pendingArgs == nil {
		f.pendingArgs = map[kernelArgKey][]any{}
	}
	f.pendingArgs[kernelArgKey{k.Program.id, k.Name}] = args
}

func (f *Fake) Enqueue(k Kernel, globalRange, workGroupSize int) (Event, error) {
	f.mu.Lock()
	fn, ok := f.kernelImpls[k.Name]
	args := f.argsFor(k)
	resolved := make([]any, len(args))
	for i, a := range args {
		if h, isHandle := a.(Handle); isHandle {
			resolved[i] = f.buffers[h.id]
			continue
		}
		resolved[i] = a
	}
	f.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKernel, k.Name)
	}

	err := fn(resolved)
	return fakeEvent{err: err}, nil
}

func (f *Fake) EnqueueWriteBuffer(h Handle, data []byte, blocking bool) (Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf, ok := f.buffers[h.id]
	if !ok {
		return nil, fmt.Errorf("device: write to unknown buffer %q", h.Label)
	}
	copy(buf, data)
	return fakeEvent{}, nil
}

func (f *Fake) EnqueueReadBuffer(h Handle, out []byte, blocking bool) (Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf, ok := f.buffers[h.id]
	if !ok {
		return nil, fmt.Errorf("device: read from unknown buffer %q", h.Label)
	}
	copy(out, buf)
	return fakeEvent{}, nil
}

type fakeEvent struct{ err error }

func (e fakeEvent) Wait() error { return e.err }
