package backend

import (
	"errors"
	"testing"

	"github.com/gogpu/wgpu/hal"
)

// stubBackend is a minimal Backend for registry tests. The backend package
// registers nothing itself, so every test starts from an empty registry.
type stubBackend struct {
	name        string
	initErr     error
	initialized bool
	closed      bool
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Init() error {
	if s.initErr != nil {
		return s.initErr
	}
	s.initialized = true
	return nil
}

func (s *stubBackend) Close()             { s.closed = true }
func (s *stubBackend) Device() hal.Device { return nil }
func (s *stubBackend) Queue() hal.Queue   { return nil }

// registerStub registers a stub under name and removes it at test end.
func registerStub(t *testing.T, name string, initErr error) {
	t.Helper()
	Register(name, func() Backend {
		return &stubBackend{name: name, initErr: initErr}
	})
	t.Cleanup(func() { Unregister(name) })
}

func TestRegistryRegisterAndGet(t *testing.T) {
	registerStub(t, "stub", nil)

	if !IsRegistered("stub") {
		t.Error("stub backend should be registered")
	}

	b := Get("stub")
	if b == nil {
		t.Fatal("Get(stub) returned nil")
	}
	if b.Name() != "stub" {
		t.Errorf("Get(stub).Name() = %q, want %q", b.Name(), "stub")
	}
}

func TestRegistryGetUnregistered(t *testing.T) {
	b := Get("nonexistent")
	if b != nil {
		t.Error("Get(nonexistent) should return nil")
	}
}

func TestRegistryAvailable(t *testing.T) {
	registerStub(t, "stub", nil)

	available := Available()
	found := false
	for _, name := range available {
		if name == "stub" {
			found = true
			break
		}
	}
	if !found {
		t.Error("Available() should include 'stub'")
	}
}

func TestRegistryIsRegistered(t *testing.T) {
	registerStub(t, "stub", nil)

	if !IsRegistered("stub") {
		t.Error("stub should be registered")
	}
	if IsRegistered("nonexistent") {
		t.Error("nonexistent should not be registered")
	}
}

func TestRegistryUnregister(t *testing.T) {
	Register("test-backend", func() Backend {
		return &stubBackend{name: "test-backend"}
	})

	if !IsRegistered("test-backend") {
		t.Error("test-backend should be registered")
	}

	Unregister("test-backend")

	if IsRegistered("test-backend") {
		t.Error("test-backend should be unregistered")
	}
}

func TestRegistryDefaultPriority(t *testing.T) {
	registerStub(t, BackendVulkan, nil)
	registerStub(t, BackendHeadless, nil)

	b := Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	if b.Name() != BackendVulkan {
		t.Errorf("Default().Name() = %q, want %q", b.Name(), BackendVulkan)
	}

	Unregister(BackendVulkan)

	b = Default()
	if b == nil {
		t.Fatal("Default() returned nil after unregistering vulkan")
	}
	if b.Name() != BackendHeadless {
		t.Errorf("Default().Name() = %q, want %q", b.Name(), BackendHeadless)
	}
}

func TestRegistryDefaultOffPriority(t *testing.T) {
	// A backend outside the priority list is still found.
	registerStub(t, "custom", nil)

	b := Default()
	if b == nil {
		t.Fatal("Default() returned nil")
	}
	if b.Name() != "custom" {
		t.Errorf("Default().Name() = %q, want %q", b.Name(), "custom")
	}
}

func TestRegistryDefaultEmpty(t *testing.T) {
	if b := Default(); b != nil {
		t.Errorf("Default() on empty registry = %v, want nil", b.Name())
	}
}

func TestRegistryMustDefaultPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustDefault() on empty registry should panic")
		}
	}()
	MustDefault()
}

func TestRegistryInitDefault(t *testing.T) {
	registerStub(t, BackendHeadless, nil)

	b, err := InitDefault()
	if err != nil {
		t.Fatalf("InitDefault() error = %v", err)
	}
	if b == nil {
		t.Fatal("InitDefault() returned nil backend")
	}
	defer b.Close()

	if !b.(*stubBackend).initialized {
		t.Error("InitDefault() should have called Init")
	}
}

func TestRegistryInitDefaultEmpty(t *testing.T) {
	_, err := InitDefault()
	if !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("InitDefault() error = %v, want ErrBackendNotAvailable", err)
	}
}

func TestRegistryInitDefaultError(t *testing.T) {
	wantErr := errors.New("driver exploded")
	registerStub(t, BackendHeadless, wantErr)

	_, err := InitDefault()
	if !errors.Is(err, wantErr) {
		t.Errorf("InitDefault() error = %v, want %v", err, wantErr)
	}
}

func TestPriorityIsACopy(t *testing.T) {
	p := Priority()
	if len(p) == 0 {
		t.Fatal("Priority() returned empty list")
	}
	p[0] = "mutated"

	if Priority()[0] == "mutated" {
		t.Error("mutating the returned slice should not affect the registry")
	}
}

func TestPriorityOrder(t *testing.T) {
	p := Priority()
	if len(p) != 2 || p[0] != BackendVulkan || p[1] != BackendHeadless {
		t.Errorf("Priority() = %v, want [%s %s]", p, BackendVulkan, BackendHeadless)
	}
}
