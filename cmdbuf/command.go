package cmdbuf

import (
	"fmt"
	"strings"
)

// CommandType identifies the kind of a recorded command.
// The numeric codes are part of the wire format and must not change.
type CommandType uint8

const (
	CmdClear            CommandType = 0x01 // Clear color/depth/stencil
	CmdSetViewport      CommandType = 0x02 // Set the viewport rectangle
	CmdSetPipeline      CommandType = 0x03 // Bind a pipeline by id
	CmdSetUniforms      CommandType = 0x04 // Update named uniforms
	CmdBindVertexBuffer CommandType = 0x05 // Bind a vertex buffer to a slot
	CmdBindIndexBuffer  CommandType = 0x06 // Bind the index buffer
	CmdDraw             CommandType = 0x07
	CmdDrawIndexed      CommandType = 0x08
	CmdDrawInstanced    CommandType = 0x09
	CmdSetBlendMode     CommandType = 0x0A
	CmdSetDepthState    CommandType = 0x0B
	CmdPushState        CommandType = 0x0C // Save pipeline state
	CmdPopState         CommandType = 0x0D // Restore pipeline state
	CmdSetScissor       CommandType = 0x0E
	CmdSetStencil       CommandType = 0x0F
	CmdBindTexture      CommandType = 0x10 // Bind a texture to a slot
	CmdSetRotor         CommandType = 0x11 // Set the 8-component rotation rotor
	CmdSetProjection    CommandType = 0x12 // Set the 4D to 3D projection
)

var commandTypeNames = [...]string{
	CmdClear:            "CLEAR",
	CmdSetViewport:      "SET_VIEWPORT",
	CmdSetPipeline:      "SET_PIPELINE",
	CmdSetUniforms:      "SET_UNIFORMS",
	CmdBindVertexBuffer: "BIND_VERTEX_BUFFER",
	CmdBindIndexBuffer:  "BIND_INDEX_BUFFER",
	CmdDraw:             "DRAW",
	CmdDrawIndexed:      "DRAW_INDEXED",
	CmdDrawInstanced:    "DRAW_INSTANCED",
	CmdSetBlendMode:     "SET_BLEND_MODE",
	CmdSetDepthState:    "SET_DEPTH_STATE",
	CmdPushState:        "PUSH_STATE",
	CmdPopState:         "POP_STATE",
	CmdSetScissor:       "SET_SCISSOR",
	CmdSetStencil:       "SET_STENCIL",
	CmdBindTexture:      "BIND_TEXTURE",
	CmdSetRotor:         "SET_ROTOR",
	CmdSetProjection:    "SET_PROJECTION",
}

// String returns the wire name of the command type, e.g. "DRAW_INDEXED".
func (c CommandType) String() string {
	if c.Known() {
		return commandTypeNames[c]
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(c))
}

// Known reports whether c is part of the vocabulary.
func (c CommandType) Known() bool {
	return c >= CmdClear && int(c) < len(commandTypeNames)
}

// ParseCommandType looks up a command type by its wire name (case-insensitive).
func ParseCommandType(name string) (CommandType, error) {
	upper := strings.ToUpper(name)
	for i, n := range commandTypeNames {
		if n != "" && n == upper {
			return CommandType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown command type %q", ErrFormat, name)
}

// CommandTypes returns every command type in code order.
func CommandTypes() []CommandType {
	types := make([]CommandType, 0, len(commandTypeNames)-1)
	for c := CmdClear; int(c) < len(commandTypeNames); c++ {
		types = append(types, c)
	}
	return types
}

// Payload is the closed set of command payloads. Each payload type knows
// its CommandType, so a Command can never carry a mismatched pair.
type Payload interface {
	Type() CommandType
	payload()
}

// Command is one recorded entry: a payload plus the time it was recorded,
// in milliseconds since the Unix epoch.
type Command struct {
	Data      Payload
	Timestamp float64
}

// Type returns the command type of the payload.
func (c Command) Type() CommandType {
	if c.Data == nil {
		return 0
	}
	return c.Data.Type()
}

// Color is an RGBA clear color with components in [0, 1].
type Color [4]float64

// ClearCommand clears the bound render targets. Nil fields are left untouched.
type ClearCommand struct {
	Color   *Color   `json:"color,omitempty"`
	Depth   *float64 `json:"depth,omitempty"`
	Stencil *uint32  `json:"stencil,omitempty"`
}

// ViewportCommand sets the viewport rectangle in pixels.
type ViewportCommand struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// PipelineCommand binds the pipeline registered under PipelineID.
type PipelineCommand struct {
	PipelineID string `json:"pipelineId"`
}

// UniformsCommand updates named uniforms.
type UniformsCommand struct {
	Uniforms map[string]UniformValue `json:"uniforms"`
}

// VertexBufferCommand binds a vertex buffer to Slot.
type VertexBufferCommand struct {
	Slot     uint32 `json:"slot"`
	BufferID string `json:"bufferId"`
	Offset   uint64 `json:"offset"`
}

// IndexBufferCommand binds the index buffer.
type IndexBufferCommand struct {
	BufferID string      `json:"bufferId"`
	Format   IndexFormat `json:"format"`
	Offset   uint64      `json:"offset"`
}

// DrawCommand issues a non-indexed draw.
type DrawCommand struct {
	VertexCount uint32   `json:"vertexCount"`
	FirstVertex uint32   `json:"firstVertex"`
	Topology    Topology `json:"topology"`
}

// DrawIndexedCommand issues an indexed draw.
type DrawIndexedCommand struct {
	IndexCount uint32   `json:"indexCount"`
	FirstIndex uint32   `json:"firstIndex"`
	BaseVertex int32    `json:"baseVertex"`
	Topology   Topology `json:"topology"`
}

// DrawInstancedCommand issues an instanced non-indexed draw.
type DrawInstancedCommand struct {
	VertexCount   uint32   `json:"vertexCount"`
	InstanceCount uint32   `json:"instanceCount"`
	FirstVertex   uint32   `json:"firstVertex"`
	FirstInstance uint32   `json:"firstInstance"`
	Topology      Topology `json:"topology"`
}

// BlendModeCommand selects the blend equation.
type BlendModeCommand struct {
	Mode BlendMode `json:"mode"`
}

// DepthStateCommand configures depth testing.
type DepthStateCommand struct {
	Enabled bool      `json:"enabled"`
	Write   bool      `json:"write"`
	Func    DepthFunc `json:"func"`
}

// ScissorCommand enables or disables the scissor rectangle.
type ScissorCommand struct {
	Enabled bool  `json:"enabled"`
	X       int32 `json:"x"`
	Y       int32 `json:"y"`
	Width   int32 `json:"width"`
	Height  int32 `json:"height"`
}

// StencilCommand configures the stencil test.
type StencilCommand struct {
	Enabled   bool      `json:"enabled"`
	Func      DepthFunc `json:"func"`
	Ref       uint32    `json:"ref"`
	ReadMask  uint32    `json:"readMask"`
	WriteMask uint32    `json:"writeMask"`
}

// TextureCommand binds a texture (and optionally a sampler) to Slot.
type TextureCommand struct {
	Slot      uint32 `json:"slot"`
	TextureID string `json:"textureId"`
	SamplerID string `json:"samplerId,omitempty"`
}

// RotorCommand sets the 4D rotation.
type RotorCommand struct {
	Rotor Rotor `json:"rotor"`
}

// ProjectionCommand sets the 4D to 3D projection.
type ProjectionCommand struct {
	Kind      ProjectionType `json:"type"`
	Dimension int            `json:"dimension"`
	FOV       float64        `json:"fov"`
	Near      float64        `json:"near"`
	Far       float64        `json:"far"`
}

// PushStateCommand saves the current pipeline state.
type PushStateCommand struct{}

// PopStateCommand restores the most recently pushed state.
type PopStateCommand struct{}

func (ClearCommand) Type() CommandType         { return CmdClear }
func (ViewportCommand) Type() CommandType      { return CmdSetViewport }
func (PipelineCommand) Type() CommandType      { return CmdSetPipeline }
func (UniformsCommand) Type() CommandType      { return CmdSetUniforms }
func (VertexBufferCommand) Type() CommandType  { return CmdBindVertexBuffer }
func (IndexBufferCommand) Type() CommandType   { return CmdBindIndexBuffer }
func (DrawCommand) Type() CommandType          { return CmdDraw }
func (DrawIndexedCommand) Type() CommandType   { return CmdDrawIndexed }
func (DrawInstancedCommand) Type() CommandType { return CmdDrawInstanced }
func (BlendModeCommand) Type() CommandType     { return CmdSetBlendMode }
func (DepthStateCommand) Type() CommandType    { return CmdSetDepthState }
func (ScissorCommand) Type() CommandType       { return CmdSetScissor }
func (StencilCommand) Type() CommandType       { return CmdSetStencil }
func (TextureCommand) Type() CommandType       { return CmdBindTexture }
func (RotorCommand) Type() CommandType         { return CmdSetRotor }
func (ProjectionCommand) Type() CommandType    { return CmdSetProjection }
func (PushStateCommand) Type() CommandType     { return CmdPushState }
func (PopStateCommand) Type() CommandType      { return CmdPopState }

func (ClearCommand) payload()         {}
func (ViewportCommand) payload()      {}
func (PipelineCommand) payload()      {}
func (UniformsCommand) payload()      {}
func (VertexBufferCommand) payload()  {}
func (IndexBufferCommand) payload()   {}
func (DrawCommand) payload()          {}
func (DrawIndexedCommand) payload()   {}
func (DrawInstancedCommand) payload() {}
func (BlendModeCommand) payload()     {}
func (DepthStateCommand) payload()    {}
func (ScissorCommand) payload()       {}
func (StencilCommand) payload()       {}
func (TextureCommand) payload()       {}
func (RotorCommand) payload()         {}
func (ProjectionCommand) payload()    {}
func (PushStateCommand) payload()     {}
func (PopStateCommand) payload()      {}

// newPayload returns an empty payload of the given type, ready for decoding.
// Draw topologies default to TRIANGLE_LIST when the field is absent.
func newPayload(t CommandType) (Payload, error) {
	switch t {
	case CmdClear:
		return &ClearCommand{}, nil
	case CmdSetViewport:
		return &ViewportCommand{}, nil
	case CmdSetPipeline:
		return &PipelineCommand{}, nil
	case CmdSetUniforms:
		return &UniformsCommand{}, nil
	case CmdBindVertexBuffer:
		return &VertexBufferCommand{}, nil
	case CmdBindIndexBuffer:
		return &IndexBufferCommand{}, nil
	case CmdBindTexture:
		return &TextureCommand{}, nil
	case CmdDraw:
		return &DrawCommand{Topology: TopologyTriangleList}, nil
	case CmdDrawIndexed:
		return &DrawIndexedCommand{Topology: TopologyTriangleList}, nil
	case CmdDrawInstanced:
		return &DrawInstancedCommand{InstanceCount: 1, Topology: TopologyTriangleList}, nil
	case CmdSetBlendMode:
		return &BlendModeCommand{}, nil
	case CmdSetDepthState:
		return &DepthStateCommand{}, nil
	case CmdSetScissor:
		return &ScissorCommand{}, nil
	case CmdSetStencil:
		return &StencilCommand{}, nil
	case CmdSetRotor:
		return &RotorCommand{}, nil
	case CmdSetProjection:
		return &ProjectionCommand{}, nil
	case CmdPushState:
		return &PushStateCommand{}, nil
	case CmdPopState:
		return &PopStateCommand{}, nil
	}
	return nil, fmt.Errorf("%w: unknown command type 0x%02X", ErrFormat, uint8(t))
}

// deref turns a decoded pointer payload back into its value form.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *ClearCommand:
		return *v
	case *ViewportCommand:
		return *v
	case *PipelineCommand:
		return *v
	case *UniformsCommand:
		return *v
	case *VertexBufferCommand:
		return *v
	case *IndexBufferCommand:
		return *v
	case *TextureCommand:
		return *v
	case *DrawCommand:
		return *v
	case *DrawIndexedCommand:
		return *v
	case *DrawInstancedCommand:
		return *v
	case *BlendModeCommand:
		return *v
	case *DepthStateCommand:
		return *v
	case *ScissorCommand:
		return *v
	case *StencilCommand:
		return *v
	case *RotorCommand:
		return *v
	case *ProjectionCommand:
		return *v
	case *PushStateCommand:
		return *v
	case *PopStateCommand:
		return *v
	}
	return p
}
