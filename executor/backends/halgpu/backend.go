package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/cmdbuf"
	"github.com/vib3/vcb/executor"
)

// TextureGroupBase is the bind group index of texture slot 0. Group 0
// holds the uniform block.
const TextureGroupBase = 1

// Target is the attachment set a Backend renders into.
type Target struct {
	Color  hal.TextureView
	Depth  hal.TextureView // optional depth24plus-stencil8 view
	Width  uint32
	Height uint32
}

// Stats counts GPU-side work issued by a Backend since it was created.
type Stats struct {
	Frames           int
	Passes           int
	Draws            int
	PipelineSwitches int
	UniformWrites    int
}

// Option configures a Backend.
type Option func(*Backend)

// WithUniforms sets the uniform block the backend writes into.
func WithUniforms(u *UniformTarget) Option {
	return func(b *Backend) { b.uniforms = u }
}

// WithLabel sets the debug label of encoders and passes.
func WithLabel(label string) Option {
	return func(b *Backend) { b.label = label }
}

// dynamicState is what PUSH_STATE saves and POP_STATE restores.
type dynamicState struct {
	viewport    cmdbuf.ViewportCommand
	hasViewport bool
	scissor     cmdbuf.ScissorCommand
	blend       cmdbuf.BlendMode
	depth       cmdbuf.DepthStateCommand
	stencil     cmdbuf.StencilCommand
}

type vertexBinding struct {
	buffer hal.Buffer
	offset uint64
}

type indexBinding struct {
	buffer hal.Buffer
	format gputypes.IndexFormat
	offset uint64
}

type submission struct {
	index   uint64
	cmd     hal.CommandBuffer
	encoder hal.CommandEncoder
}

// Backend dispatches executor commands to a wgpu HAL device. It owns the
// command encoder of a frame: Begin opens it, End submits it.
//
// WebGPU clears attachments through a pass load operation, so CLEAR ends
// the current pass and the next one starts with LoadOpClear. Pipeline
// bindings and dynamic state are re-applied on every new pass.
//
// A Backend is not safe for concurrent use.
type Backend struct {
	device   hal.Device
	queue    hal.Queue
	target   Target
	uniforms *UniformTarget
	label    string
	onClose  []func()

	encoder      hal.CommandEncoder
	pass         hal.RenderPassEncoder
	pendingClear *cmdbuf.ClearCommand

	state dynamicState
	stack []dynamicState

	resolver VariantResolver
	fixed    hal.RenderPipeline
	bound    hal.RenderPipeline
	vertex   map[uint32]vertexBinding
	index    *indexBinding
	groups   map[uint32]hal.BindGroup

	rotor      cmdbuf.Rotor
	projection *cmdbuf.ProjectionCommand

	inFlight []submission
	stats    Stats
}

// New returns a Backend rendering into target on device.
func New(device hal.Device, queue hal.Queue, target Target, opts ...Option) *Backend {
	b := &Backend{
		device: device,
		queue:  queue,
		target: target,
		label:  "vcb",
		vertex: make(map[uint32]vertexBinding),
		groups: make(map[uint32]hal.BindGroup),
		rotor:  cmdbuf.IdentityRotor(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Device returns the HAL device.
func (b *Backend) Device() hal.Device { return b.device }

// Queue returns the HAL queue.
func (b *Backend) Queue() hal.Queue { return b.queue }

// Target returns the render target.
func (b *Backend) Target() Target { return b.target }

// Stats returns the work counters.
func (b *Backend) Stats() Stats { return b.stats }

// Rotor returns the last rotor set.
func (b *Backend) Rotor() cmdbuf.Rotor { return b.rotor }

// Projection returns the last projection set, if any.
func (b *Backend) Projection() (cmdbuf.ProjectionCommand, bool) {
	if b.projection == nil {
		return cmdbuf.ProjectionCommand{}, false
	}
	return *b.projection, true
}

// SetUniformTarget replaces the uniform block. It takes effect on the
// next pass.
func (b *Backend) SetUniformTarget(u *UniformTarget) { b.uniforms = u }

// Begin opens a command encoder for a frame and resets per-frame state.
func (b *Backend) Begin() error {
	if b.encoder != nil {
		return ErrRecording
	}
	b.reclaim()
	enc, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: b.label})
	if err != nil {
		return fmt.Errorf("halgpu: create encoder: %w", err)
	}
	if err := enc.BeginEncoding(b.label + " frame"); err != nil {
		enc.Destroy()
		return fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	b.encoder = enc
	b.pass = nil
	b.pendingClear = nil
	b.state = dynamicState{}
	b.stack = b.stack[:0]
	b.resolver, b.fixed, b.bound = nil, nil, nil
	clear(b.vertex)
	clear(b.groups)
	b.index = nil
	return nil
}

// End closes the frame and submits it. A pending CLEAR with no draw after
// it still runs as an empty pass.
func (b *Backend) End() error {
	if b.encoder == nil {
		return ErrNotRecording
	}
	if b.pendingClear != nil {
		b.ensurePass()
	}
	b.endPass()

	enc := b.encoder
	b.encoder = nil
	cmd, err := enc.EndEncoding()
	if err != nil {
		enc.Destroy()
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}
	idx, err := b.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		b.device.FreeCommandBuffer(cmd)
		enc.Destroy()
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	b.inFlight = append(b.inFlight, submission{index: idx, cmd: cmd, encoder: enc})
	b.stats.Frames++
	b.reclaim()
	return nil
}

// reclaim frees command buffers the queue has finished with.
func (b *Backend) reclaim() {
	if len(b.inFlight) == 0 {
		return
	}
	done := b.queue.PollCompleted()
	keep := b.inFlight[:0]
	for _, s := range b.inFlight {
		if s.index > done {
			keep = append(keep, s)
			continue
		}
		b.device.FreeCommandBuffer(s.cmd)
		s.encoder.Destroy()
	}
	b.inFlight = keep
}

// InFlight returns the number of submitted frames not yet reclaimed.
func (b *Backend) InFlight() int { return len(b.inFlight) }

// Close waits for the device, frees submitted work and releases anything
// the constructor created.
func (b *Backend) Close() error {
	if b.encoder != nil {
		b.endPass()
		b.encoder.DiscardEncoding()
		b.encoder.Destroy()
		b.encoder = nil
	}
	err := b.device.WaitIdle()
	for _, s := range b.inFlight {
		b.device.FreeCommandBuffer(s.cmd)
		s.encoder.Destroy()
	}
	b.inFlight = nil
	for _, fn := range b.onClose {
		fn()
	}
	b.onClose = nil
	if err != nil {
		return fmt.Errorf("halgpu: wait idle: %w", err)
	}
	return nil
}

func (b *Backend) recording() error {
	if b.encoder == nil {
		return ErrNotRecording
	}
	return nil
}

func (b *Backend) passDescriptor() *hal.RenderPassDescriptor {
	color := hal.RenderPassColorAttachment{
		View:    b.target.Color,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if b.pendingClear != nil {
		color.LoadOp = gputypes.LoadOpClear
		color.ClearValue = clearColor(b.pendingClear.Color)
	}
	desc := &hal.RenderPassDescriptor{
		Label:            b.label + " pass",
		ColorAttachments: []hal.RenderPassColorAttachment{color},
	}
	if b.target.Depth != nil {
		ds := &hal.RenderPassDepthStencilAttachment{
			View:           b.target.Depth,
			DepthLoadOp:    gputypes.LoadOpLoad,
			DepthStoreOp:   gputypes.StoreOpStore,
			StencilLoadOp:  gputypes.LoadOpLoad,
			StencilStoreOp: gputypes.StoreOpStore,
		}
		if b.pendingClear != nil {
			ds.DepthLoadOp = gputypes.LoadOpClear
			ds.StencilLoadOp = gputypes.LoadOpClear
			ds.DepthClearValue = 1
			if b.pendingClear.Depth != nil {
				ds.DepthClearValue = float32(*b.pendingClear.Depth)
			}
			if b.pendingClear.Stencil != nil {
				ds.StencilClearValue = *b.pendingClear.Stencil
			}
		}
		desc.DepthStencilAttachment = ds
	}
	return desc
}

// ensurePass starts a render pass if none is open and replays bindings.
func (b *Backend) ensurePass() {
	if b.pass != nil {
		return
	}
	b.pass = b.encoder.BeginRenderPass(b.passDescriptor())
	b.pendingClear = nil
	b.bound = nil
	b.stats.Passes++

	if b.uniforms != nil && b.uniforms.Group != nil {
		b.pass.SetBindGroup(0, b.uniforms.Group, nil)
	}
	for slot, g := range b.groups {
		b.pass.SetBindGroup(TextureGroupBase+slot, g, nil)
	}
	for slot, v := range b.vertex {
		b.pass.SetVertexBuffer(slot, v.buffer, v.offset)
	}
	if b.index != nil {
		b.pass.SetIndexBuffer(b.index.buffer, b.index.format, b.index.offset)
	}
	b.applyDynamic()
}

func (b *Backend) endPass() {
	if b.pass == nil {
		return
	}
	b.pass.End()
	b.pass = nil
	b.bound = nil
}

// applyDynamic pushes viewport, scissor and stencil reference to the open pass.
func (b *Backend) applyDynamic() {
	if b.pass == nil {
		return
	}
	x, y, w, h := 0.0, 0.0, float64(b.target.Width), float64(b.target.Height)
	if b.state.hasViewport {
		v := b.state.viewport
		x, y, w, h = v.X, v.Y, v.Width, v.Height
	}
	b.pass.SetViewport(float32(x), float32(y), float32(w), float32(h), 0, 1)

	sx, sy, sw, sh := uint32(0), uint32(0), b.target.Width, b.target.Height
	if s := b.state.scissor; s.Enabled {
		sx, sy, sw, sh = clampRect(s, b.target.Width, b.target.Height)
	}
	b.pass.SetScissorRect(sx, sy, sw, sh)

	var ref uint32
	if b.state.stencil.Enabled {
		ref = b.state.stencil.Ref
	}
	b.pass.SetStencilReference(ref)
}

// clampRect clips a scissor rectangle to the target.
func clampRect(s cmdbuf.ScissorCommand, width, height uint32) (x, y, w, h uint32) {
	clip := func(v int32, limit uint32) uint32 {
		if v < 0 {
			return 0
		}
		return min(uint32(v), limit)
	}
	x, y = clip(s.X, width), clip(s.Y, height)
	x1 := clip(s.X+s.Width, width)
	y1 := clip(s.Y+s.Height, height)
	if x1 > x {
		w = x1 - x
	}
	if y1 > y {
		h = y1 - y
	}
	return x, y, w, h
}

func (b *Backend) Clear(c cmdbuf.ClearCommand) error {
	if err := b.recording(); err != nil {
		return err
	}
	b.endPass()
	b.pendingClear = &c
	return nil
}

func (b *Backend) SetViewport(v cmdbuf.ViewportCommand) error {
	if err := b.recording(); err != nil {
		return err
	}
	b.state.viewport, b.state.hasViewport = v, true
	b.applyDynamic()
	return nil
}

// SetPipeline accepts a VariantResolver (such as *Pipeline) or a plain
// hal.RenderPipeline.
func (b *Backend) SetPipeline(id string, pipeline any) error {
	if err := b.recording(); err != nil {
		return err
	}
	switch p := pipeline.(type) {
	case VariantResolver:
		b.resolver, b.fixed = p, nil
	case hal.RenderPipeline:
		b.resolver, b.fixed = nil, p
	default:
		return fmt.Errorf("%w: pipeline %q is %T", ErrHandleType, id, pipeline)
	}
	return nil
}

func (b *Backend) SetUniforms(u cmdbuf.UniformsCommand) error {
	if err := b.recording(); err != nil {
		return err
	}
	if b.uniforms == nil {
		return nil
	}
	b.stats.UniformWrites++
	return b.uniforms.WriteNamed(u.Uniforms)
}

func (b *Backend) BindVertexBuffer(slot uint32, buffer any, offset uint64) error {
	if err := b.recording(); err != nil {
		return err
	}
	raw, err := bufferHandle(buffer)
	if err != nil {
		return err
	}
	b.vertex[slot] = vertexBinding{buffer: raw, offset: offset}
	if b.pass != nil {
		b.pass.SetVertexBuffer(slot, raw, offset)
	}
	return nil
}

func (b *Backend) BindIndexBuffer(buffer any, format cmdbuf.IndexFormat, offset uint64) error {
	if err := b.recording(); err != nil {
		return err
	}
	raw, err := bufferHandle(buffer)
	if err != nil {
		return err
	}
	f, err := indexFormat(format)
	if err != nil {
		return err
	}
	b.index = &indexBinding{buffer: raw, format: f, offset: offset}
	if b.pass != nil {
		b.pass.SetIndexBuffer(raw, f, offset)
	}
	return nil
}

// BindTexture binds the texture's bind group at TextureGroupBase+slot.
// The sampler is part of the bind group, so samplerID is informational.
func (b *Backend) BindTexture(slot uint32, texture any, samplerID string) error {
	if err := b.recording(); err != nil {
		return err
	}
	var g hal.BindGroup
	switch t := texture.(type) {
	case *Texture:
		g = t.Group
	case hal.BindGroup:
		g = t
	}
	if g == nil {
		return fmt.Errorf("%w: texture is %T", ErrHandleType, texture)
	}
	if samplerID != "" {
		vcb.Logger().Debug("halgpu: sampler is fixed by the texture bind group", "slot", slot, "sampler", samplerID)
	}
	b.groups[slot] = g
	if b.pass != nil {
		b.pass.SetBindGroup(TextureGroupBase+slot, g, nil)
	}
	return nil
}

func bufferHandle(h any) (hal.Buffer, error) {
	switch v := h.(type) {
	case *Buffer:
		return v.Raw, nil
	case hal.Buffer:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: buffer is %T", ErrHandleType, h)
	}
}

// key folds the current state into a pipeline key.
func (b *Backend) key(topo gputypes.PrimitiveTopology, strip gputypes.IndexFormat) PipelineKey {
	k := PipelineKey{
		Topology: topo,
		Blend:    b.state.blend,
	}
	if isStrip(topo) {
		k.StripIndexFormat = strip
	}
	if d := b.state.depth; d.Enabled {
		k.DepthTest = true
		k.DepthWrite = d.Write
		k.DepthCompare = compareFunction(d.Func)
	}
	if s := b.state.stencil; s.Enabled {
		k.StencilTest = true
		k.StencilCompare = compareFunction(s.Func)
		k.StencilReadMask = s.ReadMask
		k.StencilWriteMask = s.WriteMask
	}
	return k
}

// prepareDraw opens a pass if needed and binds the pipeline for the
// current state.
func (b *Backend) prepareDraw(t cmdbuf.Topology, strip gputypes.IndexFormat) error {
	if err := b.recording(); err != nil {
		return err
	}
	topo, err := primitiveTopology(t)
	if err != nil {
		return err
	}
	if b.resolver == nil && b.fixed == nil {
		return ErrNoPipeline
	}
	p := b.fixed
	if b.resolver != nil {
		if p, err = b.resolver.Variant(b.key(topo, strip)); err != nil {
			return err
		}
	}
	b.ensurePass()
	if p != b.bound {
		b.pass.SetPipeline(p)
		b.bound = p
		b.stats.PipelineSwitches++
	}
	return nil
}

func (b *Backend) Draw(d cmdbuf.DrawCommand) error {
	if err := b.prepareDraw(d.Topology, gputypes.IndexFormatUndefined); err != nil {
		return err
	}
	b.pass.Draw(d.VertexCount, 1, d.FirstVertex, 0)
	b.stats.Draws++
	return nil
}

func (b *Backend) DrawIndexed(d cmdbuf.DrawIndexedCommand) error {
	if err := b.recording(); err != nil {
		return err
	}
	if b.index == nil {
		return ErrNoIndexBuffer
	}
	if err := b.prepareDraw(d.Topology, b.index.format); err != nil {
		return err
	}
	b.pass.DrawIndexed(d.IndexCount, 1, d.FirstIndex, d.BaseVertex, 0)
	b.stats.Draws++
	return nil
}

func (b *Backend) DrawInstanced(d cmdbuf.DrawInstancedCommand) error {
	if err := b.prepareDraw(d.Topology, gputypes.IndexFormatUndefined); err != nil {
		return err
	}
	b.pass.Draw(d.VertexCount, d.InstanceCount, d.FirstVertex, d.FirstInstance)
	b.stats.Draws++
	return nil
}

// Blend, depth and stencil functions are pipeline state; they take effect
// through the pipeline key at the next draw.

func (b *Backend) SetBlendMode(m cmdbuf.BlendMode) error {
	if err := b.recording(); err != nil {
		return err
	}
	b.state.blend = m
	return nil
}

func (b *Backend) SetDepthState(s cmdbuf.DepthStateCommand) error {
	if err := b.recording(); err != nil {
		return err
	}
	b.state.depth = s
	return nil
}

func (b *Backend) SetScissor(s cmdbuf.ScissorCommand) error {
	if err := b.recording(); err != nil {
		return err
	}
	b.state.scissor = s
	b.applyDynamic()
	return nil
}

func (b *Backend) SetStencil(s cmdbuf.StencilCommand) error {
	if err := b.recording(); err != nil {
		return err
	}
	b.state.stencil = s
	b.applyDynamic()
	return nil
}

func (b *Backend) SetRotor(r cmdbuf.Rotor) error {
	if err := b.recording(); err != nil {
		return err
	}
	b.rotor = r
	if b.uniforms == nil {
		return nil
	}
	b.stats.UniformWrites++
	return b.uniforms.WriteRotor(r)
}

// SetProjection uploads the camera matrix for p using the aspect ratio of
// the current viewport.
func (b *Backend) SetProjection(p cmdbuf.ProjectionCommand) error {
	if err := b.recording(); err != nil {
		return err
	}
	b.projection = &p
	if b.uniforms == nil {
		return nil
	}
	b.stats.UniformWrites++
	return b.uniforms.WriteProjection(ProjectionMatrix(p, b.aspect()))
}

func (b *Backend) aspect() float32 {
	w, h := float64(b.target.Width), float64(b.target.Height)
	if b.state.hasViewport {
		w, h = b.state.viewport.Width, b.state.viewport.Height
	}
	if h == 0 {
		return 1
	}
	return float32(w / h)
}

func (b *Backend) PushState() error {
	if err := b.recording(); err != nil {
		return err
	}
	b.stack = append(b.stack, b.state)
	return nil
}

func (b *Backend) PopState() error {
	if err := b.recording(); err != nil {
		return err
	}
	if len(b.stack) == 0 {
		return ErrStackUnderflow
	}
	b.state = b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.applyDynamic()
	return nil
}

// Depth returns the state stack depth.
func (b *Backend) Depth() int { return len(b.stack) }

var _ executor.Backend = (*Backend)(nil)
