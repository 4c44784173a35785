package backend

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend name constants.
const (
	// BackendVulkan is the name of the hardware backend (wgpu/hal Vulkan driver).
	BackendVulkan = "vulkan"
	// BackendHeadless is the name of the no-op backend (wgpu/hal noop driver).
	BackendHeadless = "headless"
)

// Backend acquires a GPU device and queue for the engine.
// It abstracts device bring-up, allowing the engine to run against
// real hardware or a no-op driver through the same code path.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type Backend interface {
	// Name returns the backend identifier (e.g., "vulkan", "headless").
	Name() string

	// Init acquires the device and queue.
	// This must be called before Device or Queue.
	Init() error

	// Close releases the device and all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// Device returns the HAL device, or nil before Init.
	Device() hal.Device

	// Queue returns the HAL submission queue, or nil before Init.
	Queue() hal.Queue
}

// PowerConfigurable is implemented by backends that choose between
// multiple hardware adapters. SetPowerPreference takes effect on the
// next Init; callers type-assert before configuring:
//
//	if pc, ok := b.(backend.PowerConfigurable); ok {
//	    pc.SetPowerPreference(gputypes.PowerPreferenceHighPerformance)
//	}
type PowerConfigurable interface {
	SetPowerPreference(gputypes.PowerPreference)
}
