package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// createTestSession builds a session plus its cleanup for batcher tests.
func createTestSession(t *testing.T, width, height uint32, antialias bool) (*Session, hal.Device, hal.Queue, func()) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	session, err := NewSession(device, queue, width, height, antialias)
	if err != nil {
		cleanup()
		t.Fatalf("NewSession failed: %v", err)
	}
	return session, device, queue, func() {
		session.Destroy()
		cleanup()
	}
}
