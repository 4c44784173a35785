package blit

import "errors"

// Common errors returned by the engine.
var (
	// ErrNoBackend indicates that no rendering backend could be initialized.
	ErrNoBackend = errors.New("blit: no rendering backend available")

	// ErrEngineClosed indicates an operation on a closed engine.
	ErrEngineClosed = errors.New("blit: engine is closed")

	// ErrInvalidDrawImageArgs indicates a DrawImage call with an argument
	// count other than 2, 4, or 8.
	ErrInvalidDrawImageArgs = errors.New("blit: DrawImage expects 2, 4, or 8 arguments")

	// ErrInvalidFont indicates font data that could not be parsed.
	ErrInvalidFont = errors.New("blit: invalid font data")

	// ErrReadbackUnavailable indicates ReadPixels on an engine whose frame
	// target has not been rendered yet.
	ErrReadbackUnavailable = errors.New("blit: no rendered frame to read back")
)
