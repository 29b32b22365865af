package halgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/vib3/vcb/cmdbuf"
)

// PipelineKey is the fixed-function state baked into a WebGPU render
// pipeline. The wire protocol changes blend, depth, stencil and topology
// as dynamic state; the backend folds them into a key and asks the bound
// pipeline for a matching variant before each draw.
type PipelineKey struct {
	Topology         gputypes.PrimitiveTopology
	StripIndexFormat gputypes.IndexFormat
	Blend            cmdbuf.BlendMode

	DepthTest    bool
	DepthWrite   bool
	DepthCompare gputypes.CompareFunction

	StencilTest      bool
	StencilCompare   gputypes.CompareFunction
	StencilReadMask  uint32
	StencilWriteMask uint32
}

func (k PipelineKey) String() string {
	return fmt.Sprintf("topo=%d blend=%s depth=%t/%t/%d stencil=%t/%d",
		k.Topology, k.Blend, k.DepthTest, k.DepthWrite, k.DepthCompare,
		k.StencilTest, k.StencilCompare)
}

// primitive returns the primitive state for the key.
func (k PipelineKey) primitive() gputypes.PrimitiveState {
	p := gputypes.PrimitiveState{
		Topology: k.Topology,
		CullMode: gputypes.CullModeNone,
	}
	if isStrip(k.Topology) && k.StripIndexFormat != gputypes.IndexFormatUndefined {
		f := k.StripIndexFormat
		p.StripIndexFormat = &f
	}
	return p
}

// DepthStencilState returns the depth/stencil state for a target of the
// given format, or nil when format is undefined.
func (k PipelineKey) DepthStencilState(format gputypes.TextureFormat) *hal.DepthStencilState {
	if format == gputypes.TextureFormatUndefined {
		return nil
	}
	ds := &hal.DepthStencilState{
		Format:       format,
		DepthCompare: gputypes.CompareFunctionAlways,
		StencilFront: stencilFace(gputypes.CompareFunctionAlways),
		StencilBack:  stencilFace(gputypes.CompareFunctionAlways),
	}
	if k.DepthTest {
		ds.DepthCompare = k.DepthCompare
		ds.DepthWriteEnabled = k.DepthWrite
	}
	if k.StencilTest {
		ds.StencilFront = stencilFace(k.StencilCompare)
		ds.StencilBack = stencilFace(k.StencilCompare)
		ds.StencilReadMask = k.StencilReadMask
		ds.StencilWriteMask = k.StencilWriteMask
	}
	return ds
}

func stencilFace(cmp gputypes.CompareFunction) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     cmp,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
}

// VariantResolver returns the render pipeline to use for a key.
// A handle registered for SET_PIPELINE that implements VariantResolver
// follows state changes; a plain hal.RenderPipeline is used as is.
type VariantResolver interface {
	Variant(key PipelineKey) (hal.RenderPipeline, error)
}

// PipelineDesc describes a pipeline family created by Factory.CreatePipeline.
type PipelineDesc struct {
	Label         string
	Shader        *Shader
	VertexEntry   string
	FragmentEntry string
	VertexBuffers []gputypes.VertexBufferLayout
	ColorFormat   gputypes.TextureFormat
	DepthFormat   gputypes.TextureFormat
	TextureSlots  int
	SampleCount   uint32
}

// Pipeline is a family of render pipelines sharing shader and layout,
// created lazily per PipelineKey.
type Pipeline struct {
	ID string

	device hal.Device
	layout hal.PipelineLayout
	desc   PipelineDesc

	mu       sync.Mutex
	variants map[PipelineKey]hal.RenderPipeline
}

// Variant returns the pipeline for key, creating it on first use.
func (p *Pipeline) Variant(key PipelineKey) (hal.RenderPipeline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rp, ok := p.variants[key]; ok {
		return rp, nil
	}
	samples := p.desc.SampleCount
	if samples == 0 {
		samples = 1
	}
	rp, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.desc.Label + " [" + key.String() + "]",
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.desc.Shader.Module,
			EntryPoint: p.desc.VertexEntry,
			Buffers:    p.desc.VertexBuffers,
		},
		Primitive:    key.primitive(),
		DepthStencil: key.DepthStencilState(p.desc.DepthFormat),
		Multisample: gputypes.MultisampleState{
			Count: samples,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &hal.FragmentState{
			Module:     p.desc.Shader.Module,
			EntryPoint: p.desc.FragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.desc.ColorFormat,
					Blend:     blendState(key.Blend),
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create pipeline %q variant: %w", p.ID, err)
	}
	p.variants[key] = rp
	return rp, nil
}

// Variants returns the number of pipelines created so far.
func (p *Pipeline) Variants() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.variants)
}

// Destroy releases every variant and the pipeline layout.
func (p *Pipeline) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, rp := range p.variants {
		p.device.DestroyRenderPipeline(rp)
		delete(p.variants, k)
	}
	if p.layout != nil {
		p.device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
}
