//go:build nogpu

// Under the nogpu tag the package compiles empty: nothing registers,
// so backend selection falls through to headless.
package vulkan
