// Package backend provides a pluggable GPU device acquisition abstraction.
//
// The backend package lets the engine bring up its device against different
// wgpu/hal drivers without changing any rendering code. A backend owns
// exactly one concern: turning a driver into a live hal.Device and
// hal.Queue, and tearing them down again.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// Importing a backend package registers it:
//
//	import (
//	    _ "github.com/gogpu/blit/backend/headless"
//	    _ "github.com/gogpu/blit/backend/vulkan"
//	)
//
// The engine imports both, so callers normally never touch this package.
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	// Get the default (best available) backend
//	b := backend.Default()
//
//	// Or request a specific backend
//	b := backend.Get("headless")
//
// # Device Access
//
// After Init, the backend hands out the HAL handles the engine renders
// through:
//
//	b := backend.Default()
//	if err := b.Init(); err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	device, queue := b.Device(), b.Queue()
//
// # Available Backends
//
// - "vulkan": hardware rendering via the wgpu/hal Vulkan driver
// - "headless": no-op driver, full code path without a GPU (always available)
package backend
