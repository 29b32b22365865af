package halgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/vib3/vcb/registry"
)

// Mappings is the symbolic ID table commands are resolved against.
// *executor.Executor implements it.
type Mappings interface {
	RegisterBuffer(id string, handle any)
	RegisterTexture(id string, handle any)
	RegisterPipeline(id string, handle any)
	UnregisterBuffer(id string)
	UnregisterTexture(id string)
	UnregisterPipeline(id string)
	GetBuffer(id string) (any, bool)
	GetTexture(id string) (any, bool)
	GetPipeline(id string) (any, bool)
}

// Buffer is a GPU buffer created by a Factory.
type Buffer struct {
	ID    string
	Raw   hal.Buffer
	Size  uint64
	Usage gputypes.BufferUsage
}

// Texture is a sampled 2D texture with its view, sampler and the bind
// group BIND_TEXTURE attaches.
type Texture struct {
	ID      string
	Raw     hal.Texture
	View    hal.TextureView
	Sampler hal.Sampler
	Group   hal.BindGroup
	Width   uint32
	Height  uint32
}

// Factory creates GPU resources on a device, maps them under their
// symbolic IDs and tracks them in a resource registry. Disposing an entry
// in the registry destroys the native object and removes the mapping.
type Factory struct {
	device   hal.Device
	queue    hal.Queue
	mappings Mappings
	registry *registry.Registry

	uniformLayout hal.BindGroupLayout
	textureLayout hal.BindGroupLayout
	defaultShader *Shader
}

// NewFactory creates the shared bind group layouts. mappings and reg may be nil.
func NewFactory(device hal.Device, queue hal.Queue, mappings Mappings, reg *registry.Registry) (*Factory, error) {
	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "vcb_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create uniform layout: %w", err)
	}
	textureLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "vcb_texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		device.DestroyBindGroupLayout(uniformLayout)
		return nil, fmt.Errorf("halgpu: create texture layout: %w", err)
	}
	return &Factory{
		device:        device,
		queue:         queue,
		mappings:      mappings,
		registry:      reg,
		uniformLayout: uniformLayout,
		textureLayout: textureLayout,
	}, nil
}

// Registry returns the resource registry, which may be nil.
func (f *Factory) Registry() *registry.Registry { return f.registry }

func (f *Factory) track(typ string, handle any, bytes int64, label string, destroy func()) {
	if f.registry == nil {
		return
	}
	f.registry.Register(typ, handle, func(any) error {
		destroy()
		return nil
	}, registry.WithBytes(bytes), registry.WithLabel(label))
}

// CreateBuffer creates a buffer of len(data) bytes, rounded up to 4, and
// uploads data. It is mapped under id as a buffer.
func (f *Factory) CreateBuffer(id string, usage gputypes.BufferUsage, data []byte) (*Buffer, error) {
	size := (uint64(len(data)) + 3) &^ 3
	if size == 0 {
		size = 4
	}
	raw, err := f.device.CreateBuffer(&hal.BufferDescriptor{
		Label: id,
		Size:  size,
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create buffer %q: %w", id, err)
	}
	if len(data) > 0 {
		padded := data
		if uint64(len(data)) != size {
			padded = make([]byte, size)
			copy(padded, data)
		}
		if err := f.queue.WriteBuffer(raw, 0, padded); err != nil {
			f.device.DestroyBuffer(raw)
			return nil, fmt.Errorf("halgpu: upload buffer %q: %w", id, err)
		}
	}
	b := &Buffer{ID: id, Raw: raw, Size: size, Usage: usage}
	if f.mappings != nil {
		f.mappings.RegisterBuffer(id, b)
	}
	f.track(registry.TypeBuffer, b, int64(size), id, func() {
		if f.mappings != nil {
			f.mappings.UnregisterBuffer(id)
		}
		f.device.DestroyBuffer(raw)
	})
	return b, nil
}

// CreateVertexBuffer uploads float32 vertex data.
func (f *Factory) CreateVertexBuffer(id string, vertices []float32) (*Buffer, error) {
	data := make([]byte, 0, len(vertices)*4)
	for _, v := range vertices {
		data = binary.LittleEndian.AppendUint32(data, math.Float32bits(v))
	}
	return f.CreateBuffer(id, gputypes.BufferUsageVertex, data)
}

// CreateIndexBuffer uploads 32-bit indices.
func (f *Factory) CreateIndexBuffer(id string, indices []uint32) (*Buffer, error) {
	data := make([]byte, 0, len(indices)*4)
	for _, i := range indices {
		data = binary.LittleEndian.AppendUint32(data, i)
	}
	return f.CreateBuffer(id, gputypes.BufferUsageIndex, data)
}

// CreateTexture creates an RGBA8 texture with a linear sampler and its
// bind group, mapped under id. pixels may be nil.
func (f *Factory) CreateTexture(id string, width, height uint32, pixels []byte) (*Texture, error) {
	raw, err := f.device.CreateTexture(&hal.TextureDescriptor{
		Label:         id,
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create texture %q: %w", id, err)
	}
	t := &Texture{ID: id, Raw: raw, Width: width, Height: height}
	if err := f.finishTexture(t, pixels); err != nil {
		t.destroy(f.device)
		return nil, err
	}
	if f.mappings != nil {
		f.mappings.RegisterTexture(id, t)
	}
	f.track(registry.TypeTexture, t, int64(width)*int64(height)*4, id, func() {
		if f.mappings != nil {
			f.mappings.UnregisterTexture(id)
		}
		t.destroy(f.device)
	})
	return t, nil
}

func (f *Factory) finishTexture(t *Texture, pixels []byte) error {
	var err error
	if len(pixels) > 0 {
		err = f.queue.WriteTexture(
			&hal.ImageCopyTexture{Texture: t.Raw},
			pixels,
			&hal.ImageDataLayout{BytesPerRow: t.Width * 4, RowsPerImage: t.Height},
			&hal.Extent3D{Width: t.Width, Height: t.Height, DepthOrArrayLayers: 1},
		)
		if err != nil {
			return fmt.Errorf("halgpu: upload texture %q: %w", t.ID, err)
		}
	}
	t.View, err = f.device.CreateTextureView(t.Raw, &hal.TextureViewDescriptor{
		Label:           t.ID,
		Format:          gputypes.TextureFormatRGBA8Unorm,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return fmt.Errorf("halgpu: create view %q: %w", t.ID, err)
	}
	t.Sampler, err = f.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        t.ID,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		LodMaxClamp:  32,
	})
	if err != nil {
		return fmt.Errorf("halgpu: create sampler %q: %w", t.ID, err)
	}
	t.Group, err = f.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  t.ID,
		Layout: f.textureLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: t.View.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: t.Sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return fmt.Errorf("halgpu: create bind group %q: %w", t.ID, err)
	}
	return nil
}

func (t *Texture) destroy(device hal.Device) {
	if t.Group != nil {
		device.DestroyBindGroup(t.Group)
	}
	if t.Sampler != nil {
		device.DestroySampler(t.Sampler)
	}
	if t.View != nil {
		device.DestroyTextureView(t.View)
	}
	device.DestroyTexture(t.Raw)
}

// CreateShader compiles WGSL and creates a shader module. Shaders have no
// executor mapping; they are referenced by pipelines.
func (f *Factory) CreateShader(id, wgsl string) (*Shader, error) {
	words, err := CompileShader(wgsl)
	if err != nil {
		return nil, fmt.Errorf("%w (shader %q)", err, id)
	}
	module, err := f.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  id,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create shader module %q: %w", id, err)
	}
	s := &Shader{ID: id, Module: module, Words: len(words)}
	f.track(registry.TypeShader, s, int64(len(words))*4, id, func() {
		f.device.DestroyShaderModule(module)
	})
	return s, nil
}

// CreatePipeline creates a pipeline family mapped under id. Variants are
// built on first use by the backend.
func (f *Factory) CreatePipeline(id string, desc PipelineDesc) (*Pipeline, error) {
	if desc.Shader == nil {
		return nil, errors.New("halgpu: pipeline " + id + " has no shader")
	}
	if desc.Label == "" {
		desc.Label = id
	}
	if desc.VertexEntry == "" {
		desc.VertexEntry = "vs_main"
	}
	if desc.FragmentEntry == "" {
		desc.FragmentEntry = "fs_main"
	}
	groups := []hal.BindGroupLayout{f.uniformLayout}
	for range desc.TextureSlots {
		groups = append(groups, f.textureLayout)
	}
	layout, err := f.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            id,
		BindGroupLayouts: groups,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create pipeline layout %q: %w", id, err)
	}
	p := &Pipeline{
		ID:       id,
		device:   f.device,
		layout:   layout,
		desc:     desc,
		variants: make(map[PipelineKey]hal.RenderPipeline),
	}
	if f.mappings != nil {
		f.mappings.RegisterPipeline(id, p)
	}
	f.track(registry.TypePipeline, p, 0, id, func() {
		if f.mappings != nil {
			f.mappings.UnregisterPipeline(id)
		}
		p.Destroy()
	})
	return p, nil
}

// CreateUniformTarget creates a uniform buffer sized for layout and the
// bind group a Backend binds at group 0.
func (f *Factory) CreateUniformTarget(id string, layout UniformLayout) (*UniformTarget, error) {
	size := layout.Size()
	raw, err := f.device.CreateBuffer(&hal.BufferDescriptor{
		Label: id,
		Size:  size,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create uniform buffer %q: %w", id, err)
	}
	group, err := f.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  id,
		Layout: f.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: raw.NativeHandle(), Size: size}},
		},
	})
	if err != nil {
		f.device.DestroyBuffer(raw)
		return nil, fmt.Errorf("halgpu: create uniform bind group %q: %w", id, err)
	}
	u := &UniformTarget{Queue: f.queue, Buffer: raw, Group: group, Layout: layout}
	f.track(registry.TypeBuffer, u, int64(size), id, func() {
		f.device.DestroyBindGroup(group)
		f.device.DestroyBuffer(raw)
	})
	return u, nil
}

// Destroy disposes every tracked resource and the shared layouts.
func (f *Factory) Destroy() {
	if f.registry != nil {
		f.registry.DisposeAll()
	}
	if f.textureLayout != nil {
		f.device.DestroyBindGroupLayout(f.textureLayout)
		f.textureLayout = nil
	}
	if f.uniformLayout != nil {
		f.device.DestroyBindGroupLayout(f.uniformLayout)
		f.uniformLayout = nil
	}
}
