//go:build !nogpu

package vulkan

import (
	"github.com/gogpu/blit/backend"
)

// init registers the Vulkan backend on package import.
// This enables automatic backend selection when using backend.Default().
//
// The engine imports this package, so the backend is available whenever
// the binary is built without the nogpu tag. Registration never touches
// the driver; Init does, and failing there just moves selection on to
// the next backend in priority order.
func init() {
	backend.Register(backend.BackendVulkan, func() backend.Backend {
		return NewBackend()
	})
}
