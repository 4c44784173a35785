package headless

import (
	"github.com/gogpu/blit/backend"
)

// init registers the headless backend on package import.
// It sits last in the priority order, so it only wins when every
// hardware backend failed to initialize.
func init() {
	backend.Register(backend.BackendHeadless, func() backend.Backend {
		return NewBackend()
	})
}
