package executor

import (
	"context"
	"fmt"
	"math"

	"github.com/vib3/vcb/cmdbuf"
)

// Validate checks every command of buf without dispatching it and returns
// the joined failures, or nil if the buffer is clean.
func Validate(buf *cmdbuf.Buffer) error {
	res, err := NewValidator().Execute(context.Background(), buf)
	if err != nil {
		return err
	}
	return res.Err()
}

// validate checks one payload. depth is the state-stack depth before the
// command.
func validate(p cmdbuf.Payload, depth int) error {
	switch c := p.(type) {
	case nil:
		return invalid("missing payload")
	case cmdbuf.ClearCommand:
		if c.Color != nil {
			for _, v := range c.Color {
				if !finite(v) {
					return invalid("clear color must be finite")
				}
			}
		}
		if c.Depth != nil && (!finite(*c.Depth) || *c.Depth < 0 || *c.Depth > 1) {
			return invalid("clear depth %v outside [0, 1]", *c.Depth)
		}
	case cmdbuf.ViewportCommand:
		if !finite(c.X) || !finite(c.Y) || !finite(c.Width) || !finite(c.Height) {
			return invalid("viewport must be finite")
		}
		if c.Width < 0 || c.Height < 0 {
			return invalid("viewport size %gx%g is negative", c.Width, c.Height)
		}
	case cmdbuf.PipelineCommand:
		return requireID("pipeline", c.PipelineID)
	case cmdbuf.UniformsCommand:
		for name, v := range c.Uniforms {
			if name == "" {
				return invalid("uniform with empty name")
			}
			if v.Len() == 0 {
				return invalid("uniform %q has no value", name)
			}
			for _, f := range v.Values {
				if !finite(f) {
					return invalid("uniform %q is not finite", name)
				}
			}
		}
	case cmdbuf.VertexBufferCommand:
		return requireID("vertex buffer", c.BufferID)
	case cmdbuf.IndexBufferCommand:
		if !c.Format.Valid() {
			return invalid("index format %q", c.Format)
		}
		return requireID("index buffer", c.BufferID)
	case cmdbuf.TextureCommand:
		return requireID("texture", c.TextureID)
	case cmdbuf.DrawCommand:
		return validTopology(c.Topology)
	case cmdbuf.DrawIndexedCommand:
		return validTopology(c.Topology)
	case cmdbuf.DrawInstancedCommand:
		return validTopology(c.Topology)
	case cmdbuf.BlendModeCommand:
		if !c.Mode.Valid() {
			return invalid("blend mode %v", c.Mode)
		}
	case cmdbuf.DepthStateCommand:
		if !c.Func.Valid() {
			return invalid("depth func %v", c.Func)
		}
	case cmdbuf.ScissorCommand:
		if c.X < 0 || c.Y < 0 || c.Width < 0 || c.Height < 0 {
			return invalid("scissor rect (%d,%d %dx%d) has negative fields", c.X, c.Y, c.Width, c.Height)
		}
	case cmdbuf.StencilCommand:
		if !c.Func.Valid() {
			return invalid("stencil func %v", c.Func)
		}
	case cmdbuf.RotorCommand:
		if !c.Rotor.IsFinite() {
			return invalid("rotor must be finite")
		}
	case cmdbuf.ProjectionCommand:
		if err := c.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
	case cmdbuf.PushStateCommand:
	case cmdbuf.PopStateCommand:
		if depth <= 0 {
			return invalid("POP_STATE without matching PUSH_STATE")
		}
	default:
		return invalid("unknown payload %T", p)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidCommand}, args...)...)
}

func requireID(kind, id string) error {
	if id == "" {
		return invalid("empty %s id", kind)
	}
	return nil
}

func validTopology(t cmdbuf.Topology) error {
	if !t.Valid() {
		return invalid("topology %v", t)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
