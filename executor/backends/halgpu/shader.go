package halgpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/vib3/vcb/internal/cache"
)

// compiled holds SPIR-V by WGSL source. Pipelines in a recorded stream
// tend to share a handful of shaders, and naga is the slow step.
var compiled = cache.New[string, []uint32](64)

// DefaultShader draws vertices as vec4 positions transformed by the
// projection slot of the uniform block, in flat white.
const DefaultShader = `
struct Frame {
    rotor: array<vec4<f32>, 2>,
    projection: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> frame: Frame;

@vertex
fn vs_main(@location(0) position: vec4<f32>) -> @builtin(position) vec4<f32> {
    return frame.projection * position;
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

// Shader is a compiled shader module.
type Shader struct {
	ID     string
	Module hal.ShaderModule
	Words  int
}

// CompileShader compiles WGSL source to SPIR-V words. Results are cached
// by source; the returned slice is shared and must not be modified.
func CompileShader(wgsl string) ([]uint32, error) {
	return compiled.GetOrCreate(wgsl, func() ([]uint32, error) {
		return compile(wgsl)
	})
}

// ShaderCacheStats reports compile cache hits and misses.
func ShaderCacheStats() (hits, misses uint64) {
	s := compiled.Stats()
	return s.Hits, s.Misses
}

func compile(wgsl string) ([]uint32, error) {
	spirv, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("halgpu: compile shader: %w", err)
	}
	if len(spirv)%4 != 0 {
		return nil, fmt.Errorf("halgpu: compile shader: %d bytes is not a whole number of words", len(spirv))
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}
