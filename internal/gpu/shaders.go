package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources.

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

//go:embed shaders/damage_text.wgsl
var damageTextShaderSource string

// compileToSPIRV compiles WGSL source to SPIR-V words (little-endian).
func compileToSPIRV(wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}

// createShaderModule compiles WGSL to SPIR-V and creates the module from the
// compiled words. If compilation fails the WGSL source is handed to the
// backend unchanged, which keeps backends with their own WGSL front end
// working.
func createShaderModule(device hal.Device, label, source string) (hal.ShaderModule, error) {
	if spirv, err := compileToSPIRV(source); err == nil {
		module, merr := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  label,
			Source: hal.ShaderSource{SPIRV: spirv},
		})
		if merr == nil {
			return module, nil
		}
		slogger().Warn("SPIR-V module rejected, retrying with WGSL source",
			"shader", label, "error", merr)
	} else {
		slogger().Warn("WGSL to SPIR-V compilation failed, passing source through",
			"shader", label, "error", err)
	}
	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: source},
	})
}
