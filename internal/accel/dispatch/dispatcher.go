package dispatch

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"sync"

	"github.com/luxrays-go/luxaccel/internal/accel/device"
)

// pipelineDepth is how many buffers the worker may have in flight at once.
const pipelineDepth = 3

// Config holds Dispatcher tuning knobs.
type Config struct {
	QueueDepth  int
	RayCapacity int
	Logger      *log.Logger
}

// DefaultConfig returns reasonable defaults; callers override QueueDepth
// and RayCapacity from accelerator.bvh/opencl configuration.
func DefaultConfig() Config {
	return Config{
		QueueDepth:  64,
		RayCapacity: 65536,
	}
}

// ErrNotStarted is returned by Push once the dispatcher has been
// interrupted or stopped.
var ErrNotStarted = fmt.Errorf("dispatch: not started")

// ErrNoDataSet is returned by Start if SetDataSet was never called.
var ErrNoDataSet = fmt.Errorf("dispatch: SetDataSet not called")

// Dispatcher is the ray-buffer queue plus its single background worker,
// a two-thread producer/consumer pair.
type Dispatcher struct {
	dev    device.Device
	cfg    Config
	logger *log.Logger

	kernel *device.HardwareKernel

	queue chan *RayBuffer
	done  chan *ResultBuffer

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once

	priorityWarnOnce sync.Once
}

// NewDispatcher constructs a Dispatcher over dev. SetDataSet must be
// called before Start.
func NewDispatcher(dev device.Device, cfg Config) *Dispatcher {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = DefaultConfig().QueueDepth
	}
	if cfg.RayCapacity <= 0 {
		cfg.RayCapacity = DefaultConfig().RayCapacity
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		dev:    dev,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan *RayBuffer, cfg.QueueDepth),
		done:   make(chan *ResultBuffer, cfg.QueueDepth),
		ctx:    ctx,
		cancel: cancel,
	}
}

// SetDataSet inspects ds's accelerator type and instantiates the matching
// device kernel. Must be called before Start.
func (d *Dispatcher) SetDataSet(ds DataSet) error {
	kernel, err := ds.NewHardwareIntersectionKernel(d.dev, d.cfg.RayCapacity)
	if err != nil {
		return fmt.Errorf("dispatch: build %s kernel: %w", ds.AcceleratorType(), err)
	}
	d.kernel = kernel
	return nil
}

// Start spawns the worker goroutine and requests elevated thread
// priority on a best-effort basis.
func (d *Dispatcher) Start() error {
	if d.kernel == nil {
		return ErrNoDataSet
	}

	d.startOnce.Do(func() {
		d.wg.Add(1)
		go func() {
			// Pin the worker to one OS thread so the priority request
			// applies to the thread that runs it.
			runtime.LockOSThread()
			if err := requestHighPriority(); err != nil {
				d.priorityWarnOnce.Do(func() {
					d.logger.Printf("dispatch: could not raise worker thread priority: %v (ignored)", err)
				})
			}
			d.run()
		}()
	})
	return nil
}

// Push enqueues a ray buffer. It blocks if the queue is full, and
// returns ErrNotStarted if the dispatcher's context is already done.
func (d *Dispatcher) Push(rb *RayBuffer) error {
	select {
	case <-d.ctx.Done():
		return ErrNotStarted
	case d.queue <- rb:
		return nil
	}
}

// Results returns the channel of completed buffers, delivered in the
// order they were pushed.
func (d *Dispatcher) Results() <-chan *ResultBuffer {
	return d.done
}

// Interrupt signals the worker to stop accepting new work. In-flight
// device work is allowed to finish.
func (d *Dispatcher) Interrupt() {
	d.cancel()
}

// Stop interrupts, joins the worker, and frees device buffers in reverse
// allocation order.
func (d *Dispatcher) Stop() error {
	var err error
	d.stopOnce.Do(func() {
		d.cancel()
		d.wg.Wait()
		if d.kernel != nil {
			err = d.kernel.Close()
		}
	})
	return err
}

// run is the single background worker: it pops buffers and runs up to
// pipelineDepth of them concurrently through the kernel, while a
// forwarder goroutine guarantees FIFO completion order on d.done.
func (d *Dispatcher) run() {
	defer d.wg.Done()

	sem := make(chan struct{}, pipelineDepth)
	order := make(chan chan *ResultBuffer, cap(d.queue)+1)

	var forwardWG sync.WaitGroup
	forwardWG.Add(1)
	go func() {
		defer forwardWG.Done()
		for ch := range order {
			d.done <- <-ch
		}
	}()

	var inFlight sync.WaitGroup
loop:
	for {
		select {
		case <-d.ctx.Done():
			break loop
		case rb := <-d.queue:
			sem <- struct{}{}
			resultCh := make(chan *ResultBuffer, 1)
			order <- resultCh

			inFlight.Add(1)
			go func(rb *RayBuffer) {
				defer inFlight.Done()
				defer func() { <-sem }()

				hits, err := d.kernel.Run(rb.Rays)
				if err != nil {
					d.logger.Printf("dispatch: kernel run failed for buffer %d: %v", rb.ID, err)
				}
				resultCh <- &ResultBuffer{ID: rb.ID, Hits: hits, Err: err}
			}(rb)
		}
	}

	inFlight.Wait()
	close(order)
	forwardWG.Wait()
	close(d.done)
}
