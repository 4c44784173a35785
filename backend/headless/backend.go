package headless

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/blit/backend"
)

// Backend opens a device on the wgpu/hal no-op driver. Command recording,
// submission and fences all go through the full code path but no GPU work
// happens, so the backend is always available. Readback returns zeroes;
// assertions on pixel contents need a hardware backend.
//
// It implements the backend.Backend interface and is safe for concurrent
// use from multiple goroutines.
type Backend struct {
	mu sync.RWMutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	initialized bool
}

// NewBackend creates a new headless backend.
// The backend must be initialized with Init() before use.
func NewBackend() *Backend {
	return &Backend{}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendHeadless
}

// Init opens a device on the no-op driver.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("headless: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("headless: no adapters found")
	}

	openDev, err := adapters[0].Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("headless: open device: %w", err)
	}

	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.initialized = true
	return nil
}

// Close destroys the device and instance.
// The backend should not be used after Close is called.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}

	if b.device != nil {
		b.device.Destroy()
		b.device = nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
	b.queue = nil
	b.initialized = false
}

// Device returns the HAL device, or nil before Init.
func (b *Backend) Device() hal.Device {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.device
}

// Queue returns the HAL submission queue, or nil before Init.
func (b *Backend) Queue() hal.Queue {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.queue
}
