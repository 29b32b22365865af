// Package halgpu is an executor backend that records command buffers into
// wgpu HAL render passes.
//
// Importing the package registers the "hal-noop" backend, a headless
// Backend on the noop HAL device, with the executor backend registry:
//
//	import _ "github.com/vib3/vcb/executor/backends/halgpu"
//
//	name, backend, err := executor.BestBackend()
//
// For real rendering, build a Backend with New over a device and a Target,
// or with NewFromProvider over a gpucontext.DeviceProvider. A Factory
// creates buffers, textures, shaders and pipelines on the same device,
// maps them into an executor under their symbolic IDs and tracks them in
// a registry.Registry.
//
// # State mapping
//
// WebGPU bakes blend, depth, stencil and topology into the render
// pipeline. The backend folds them into a PipelineKey and binds the
// matching variant of the current pipeline before each draw. Viewport,
// scissor and stencil reference are dynamic pass state and are re-applied
// whenever a pass begins or POP_STATE restores them.
//
// TRIANGLE_FAN draws fail with ErrUnsupportedTopology.
package halgpu
