//go:build !nogpu

package vulkan

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import the Vulkan driver so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/blit/backend"
)

// Backend opens a hardware device through the wgpu/hal Vulkan driver.
// It implements the backend.Backend interface.
//
// Backend is safe for concurrent use from multiple goroutines.
type Backend struct {
	mu sync.RWMutex

	power gputypes.PowerPreference

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	adapter  string

	initialized bool
}

// NewBackend creates a new Vulkan backend.
// The backend must be initialized with Init() before use.
func NewBackend() *Backend {
	return &Backend{power: gputypes.PowerPreferenceHighPerformance}
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendVulkan
}

// SetPowerPreference selects the adapter class Init prefers.
// Calling it after Init has no effect until the next Init.
func (b *Backend) SetPowerPreference(p gputypes.PowerPreference) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.power = p
}

// Init creates a Vulkan instance, selects an adapter and opens the device.
//
// Returns an error if the driver is unavailable or no adapter can be opened.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	hb, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("vulkan: %w", backend.ErrBackendNotAvailable)
	}

	instance, err := hb.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("vulkan: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return fmt.Errorf("vulkan: no GPU adapters found")
	}
	selected := selectAdapter(adapters, b.power)

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return fmt.Errorf("vulkan: open device: %w", err)
	}

	b.instance = instance
	b.device = openDev.Device
	b.queue = openDev.Queue
	b.adapter = selected.Info.Name
	b.initialized = true
	return nil
}

// selectAdapter picks the adapter matching the power preference. High
// performance prefers discrete over integrated GPUs; any other preference
// the reverse. Falls back to the first enumerated adapter.
func selectAdapter(adapters []hal.ExposedAdapter, power gputypes.PowerPreference) *hal.ExposedAdapter {
	first := gputypes.DeviceTypeDiscreteGPU
	second := gputypes.DeviceTypeIntegratedGPU
	if power != gputypes.PowerPreferenceHighPerformance {
		first, second = second, first
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == first {
			return &adapters[i]
		}
	}
	for i := range adapters {
		if adapters[i].Info.DeviceType == second {
			return &adapters[i]
		}
	}
	return &adapters[0]
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
	b.adapter = ""
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

// AdapterName returns the name of the opened adapter, or "" before Init.
func (b *Backend) AdapterName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.adapter
}
