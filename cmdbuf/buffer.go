package cmdbuf

import (
	"fmt"
	"iter"
	"slices"
	"sync/atomic"

	"github.com/vib3/vcb/clock"
)

// versionSource hands out buffer versions. It is shared by every buffer in
// the process, so two buffers never report the same version.
var versionSource atomic.Uint64

func nextVersion() uint64 { return versionSource.Add(1) }

// Buffer is an append-only log of rendering commands.
//
// Commands are recorded with the typed methods below. Once Seal is called
// the buffer rejects further recording with ErrInvalidState until Reset.
// Every mutation advances Version.
//
// A Buffer is not safe for concurrent recording. A sealed buffer may be
// read from multiple goroutines.
type Buffer struct {
	commands []Command
	sealed   bool
	version  uint64
	clock    clock.Clock
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithClock sets the clock used to timestamp commands.
func WithClock(c clock.Clock) Option {
	return func(b *Buffer) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithCapacity preallocates room for n commands.
func WithCapacity(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.commands = make([]Command, 0, n)
		}
	}
}

// New creates an empty, unsealed buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{clock: clock.System{}, version: nextVersion()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Len returns the number of recorded commands.
func (b *Buffer) Len() int { return len(b.commands) }

// Sealed reports whether the buffer rejects recording.
func (b *Buffer) Sealed() bool { return b.sealed }

// Version returns the buffer's current version.
func (b *Buffer) Version() uint64 { return b.version }

// Command returns the i-th command.
func (b *Buffer) Command(i int) (Command, bool) {
	if i < 0 || i >= len(b.commands) {
		return Command{}, false
	}
	return b.commands[i], true
}

// Commands returns a copy of the command log. Payloads are shared and
// must be treated as read-only.
func (b *Buffer) Commands() []Command {
	return slices.Clone(b.commands)
}

// All iterates over the commands in recording order.
func (b *Buffer) All() iter.Seq2[int, Command] {
	return func(yield func(int, Command) bool) {
		for i, c := range b.commands {
			if !yield(i, c) {
				return
			}
		}
	}
}

// Seal marks the buffer immutable. Sealing twice is a no-op.
func (b *Buffer) Seal() *Buffer {
	b.sealed = true
	return b
}

// Reset discards every command and unseals the buffer.
func (b *Buffer) Reset() {
	clear(b.commands)
	b.commands = b.commands[:0]
	b.sealed = false
	b.version = nextVersion()
}

// Clone returns an unsealed deep copy with a fresh version.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{
		commands: make([]Command, len(b.commands)),
		clock:    b.clock,
		version:  nextVersion(),
	}
	for i, cmd := range b.commands {
		c.commands[i] = Command{Data: clonePayload(cmd.Data), Timestamp: cmd.Timestamp}
	}
	return c
}

func clonePayload(p Payload) Payload {
	switch v := p.(type) {
	case UniformsCommand:
		return UniformsCommand{Uniforms: cloneUniforms(v.Uniforms)}
	case ClearCommand:
		out := ClearCommand{}
		if v.Color != nil {
			c := *v.Color
			out.Color = &c
		}
		if v.Depth != nil {
			d := *v.Depth
			out.Depth = &d
		}
		if v.Stencil != nil {
			s := *v.Stencil
			out.Stencil = &s
		}
		return out
	}
	return p
}

// Record appends an arbitrary payload. The typed methods are usually
// more convenient.
func (b *Buffer) Record(p Payload) error {
	if p == nil {
		return fmt.Errorf("%w: nil payload", ErrArgument)
	}
	if err := b.checkOpen(p.Type()); err != nil {
		return err
	}
	b.commands = append(b.commands, Command{
		Data:      clonePayload(p),
		Timestamp: clock.Millis(b.clock.Now()),
	})
	b.version = nextVersion()
	return nil
}

func (b *Buffer) checkOpen(t CommandType) error {
	if b.sealed {
		return fmt.Errorf("%w: cannot record %s", ErrInvalidState, t)
	}
	return nil
}

// Clear records a CLEAR command.
func (b *Buffer) Clear(c ClearCommand) error { return b.Record(c) }

// ClearColor records a CLEAR command for the color target only.
func (b *Buffer) ClearColor(r, g, bl, a float64) error {
	return b.Record(ClearCommand{Color: &Color{r, g, bl, a}})
}

// SetViewport records a SET_VIEWPORT command.
func (b *Buffer) SetViewport(x, y, width, height float64) error {
	return b.Record(ViewportCommand{X: x, Y: y, Width: width, Height: height})
}

// SetPipeline records a SET_PIPELINE command.
func (b *Buffer) SetPipeline(pipelineID string) error {
	return b.Record(PipelineCommand{PipelineID: pipelineID})
}

// SetUniforms records a SET_UNIFORMS command. The map is copied.
func (b *Buffer) SetUniforms(uniforms map[string]UniformValue) error {
	return b.Record(UniformsCommand{Uniforms: uniforms})
}

// BindVertexBuffer records a BIND_VERTEX_BUFFER command.
func (b *Buffer) BindVertexBuffer(slot uint32, bufferID string, offset uint64) error {
	return b.Record(VertexBufferCommand{Slot: slot, BufferID: bufferID, Offset: offset})
}

// BindIndexBuffer records a BIND_INDEX_BUFFER command.
func (b *Buffer) BindIndexBuffer(bufferID string, format IndexFormat, offset uint64) error {
	return b.Record(IndexBufferCommand{BufferID: bufferID, Format: format, Offset: offset})
}

// Draw records a DRAW command.
func (b *Buffer) Draw(vertexCount, firstVertex uint32, topology Topology) error {
	return b.Record(DrawCommand{VertexCount: vertexCount, FirstVertex: firstVertex, Topology: topology})
}

// DrawIndexed records a DRAW_INDEXED command.
func (b *Buffer) DrawIndexed(indexCount, firstIndex uint32, baseVertex int32, topology Topology) error {
	return b.Record(DrawIndexedCommand{
		IndexCount: indexCount,
		FirstIndex: firstIndex,
		BaseVertex: baseVertex,
		Topology:   topology,
	})
}

// DrawInstanced records a DRAW_INSTANCED command.
func (b *Buffer) DrawInstanced(vertexCount, instanceCount, firstVertex, firstInstance uint32, topology Topology) error {
	return b.Record(DrawInstancedCommand{
		VertexCount:   vertexCount,
		InstanceCount: instanceCount,
		FirstVertex:   firstVertex,
		FirstInstance: firstInstance,
		Topology:      topology,
	})
}

// SetBlendMode records a SET_BLEND_MODE command.
func (b *Buffer) SetBlendMode(mode BlendMode) error {
	return b.Record(BlendModeCommand{Mode: mode})
}

// SetDepthState records a SET_DEPTH_STATE command.
func (b *Buffer) SetDepthState(s DepthStateCommand) error { return b.Record(s) }

// SetScissor records a SET_SCISSOR command.
func (b *Buffer) SetScissor(s ScissorCommand) error { return b.Record(s) }

// SetStencil records a SET_STENCIL command.
func (b *Buffer) SetStencil(s StencilCommand) error { return b.Record(s) }

// BindTexture records a BIND_TEXTURE command. samplerID may be empty.
func (b *Buffer) BindTexture(slot uint32, textureID, samplerID string) error {
	return b.Record(TextureCommand{Slot: slot, TextureID: textureID, SamplerID: samplerID})
}

// SetRotor records a SET_ROTOR command. It fails with ErrArgument unless
// exactly eight components are given.
func (b *Buffer) SetRotor(components []float64) error {
	if err := b.checkOpen(CmdSetRotor); err != nil {
		return err
	}
	r, err := NewRotor(components)
	if err != nil {
		return err
	}
	return b.Record(RotorCommand{Rotor: r})
}

// SetProjection records a SET_PROJECTION command after checking it with
// ProjectionCommand.Validate.
func (b *Buffer) SetProjection(p ProjectionCommand) error {
	if err := b.checkOpen(CmdSetProjection); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return b.Record(p)
}

// PushState records a PUSH_STATE command.
func (b *Buffer) PushState() error { return b.Record(PushStateCommand{}) }

// PopState records a POP_STATE command.
func (b *Buffer) PopState() error { return b.Record(PopStateCommand{}) }
