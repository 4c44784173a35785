package headless

import (
	"testing"

	"github.com/gogpu/blit/backend"
)

func TestHeadlessName(t *testing.T) {
	b := NewBackend()
	if b.Name() != backend.BackendHeadless {
		t.Errorf("Name() = %q, want %q", b.Name(), backend.BackendHeadless)
	}
}

func TestHeadlessRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendHeadless) {
		t.Error("headless backend should be auto-registered")
	}
	b := backend.Get(backend.BackendHeadless)
	if b == nil {
		t.Fatal("Get(headless) returned nil")
	}
	if _, ok := b.(*Backend); !ok {
		t.Errorf("Get(headless) returned %T, want *headless.Backend", b)
	}
}

func TestHeadlessInitClose(t *testing.T) {
	b := NewBackend()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if b.Device() == nil {
		t.Error("Device() should not be nil after Init")
	}
	if b.Queue() == nil {
		t.Error("Queue() should not be nil after Init")
	}

	b.Close()

	if b.Device() != nil {
		t.Error("Device() should be nil after Close")
	}
	if b.Queue() != nil {
		t.Error("Queue() should be nil after Close")
	}
}

func TestHeadlessInitIdempotent(t *testing.T) {
	b := NewBackend()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer b.Close()

	dev := b.Device()
	if err := b.Init(); err != nil {
		t.Fatalf("second Init() error = %v", err)
	}
	if b.Device() != dev {
		t.Error("second Init() should keep the same device")
	}
}

func TestHeadlessBeforeInit(t *testing.T) {
	b := NewBackend()
	if b.Device() != nil {
		t.Error("Device() should be nil before Init")
	}
	if b.Queue() != nil {
		t.Error("Queue() should be nil before Init")
	}

	// Close without Init should not panic.
	b.Close()
}

func TestHeadlessDeviceIsUsable(t *testing.T) {
	b := NewBackend()
	if err := b.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer b.Close()

	// The device must survive a trivial command round trip.
	fence, err := b.Device().CreateFence()
	if err != nil {
		t.Fatalf("CreateFence() error = %v", err)
	}
	b.Device().DestroyFence(fence)
}
