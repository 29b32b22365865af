package executor

import "github.com/vib3/vcb/cmdbuf"

// Nop is a backend that accepts every call and only counts them.
// It is useful for dry runs and as a base for test doubles.
type Nop struct {
	Calls map[cmdbuf.CommandType]int
	Runs  int
}

// NewNop returns a ready Nop backend.
func NewNop() *Nop {
	return &Nop{Calls: make(map[cmdbuf.CommandType]int)}
}

func (n *Nop) count(t cmdbuf.CommandType) error {
	if n.Calls == nil {
		n.Calls = make(map[cmdbuf.CommandType]int)
	}
	n.Calls[t]++
	return nil
}

// Total returns the number of commands received.
func (n *Nop) Total() int {
	total := 0
	for _, c := range n.Calls {
		total += c
	}
	return total
}

func (n *Nop) Begin() error { n.Runs++; return nil }
func (n *Nop) End() error   { return nil }

func (n *Nop) Clear(cmdbuf.ClearCommand) error          { return n.count(cmdbuf.CmdClear) }
func (n *Nop) SetViewport(cmdbuf.ViewportCommand) error { return n.count(cmdbuf.CmdSetViewport) }
func (n *Nop) SetPipeline(string, any) error            { return n.count(cmdbuf.CmdSetPipeline) }
func (n *Nop) SetUniforms(cmdbuf.UniformsCommand) error { return n.count(cmdbuf.CmdSetUniforms) }

func (n *Nop) BindVertexBuffer(uint32, any, uint64) error {
	return n.count(cmdbuf.CmdBindVertexBuffer)
}

func (n *Nop) BindIndexBuffer(any, cmdbuf.IndexFormat, uint64) error {
	return n.count(cmdbuf.CmdBindIndexBuffer)
}

func (n *Nop) BindTexture(uint32, any, string) error { return n.count(cmdbuf.CmdBindTexture) }

func (n *Nop) Draw(cmdbuf.DrawCommand) error               { return n.count(cmdbuf.CmdDraw) }
func (n *Nop) DrawIndexed(cmdbuf.DrawIndexedCommand) error { return n.count(cmdbuf.CmdDrawIndexed) }

func (n *Nop) DrawInstanced(cmdbuf.DrawInstancedCommand) error {
	return n.count(cmdbuf.CmdDrawInstanced)
}

func (n *Nop) SetBlendMode(cmdbuf.BlendMode) error          { return n.count(cmdbuf.CmdSetBlendMode) }
func (n *Nop) SetDepthState(cmdbuf.DepthStateCommand) error { return n.count(cmdbuf.CmdSetDepthState) }
func (n *Nop) SetScissor(cmdbuf.ScissorCommand) error       { return n.count(cmdbuf.CmdSetScissor) }
func (n *Nop) SetStencil(cmdbuf.StencilCommand) error       { return n.count(cmdbuf.CmdSetStencil) }

func (n *Nop) SetRotor(cmdbuf.Rotor) error                  { return n.count(cmdbuf.CmdSetRotor) }
func (n *Nop) SetProjection(cmdbuf.ProjectionCommand) error { return n.count(cmdbuf.CmdSetProjection) }

func (n *Nop) PushState() error { return n.count(cmdbuf.CmdPushState) }
func (n *Nop) PopState() error  { return n.count(cmdbuf.CmdPopState) }

var _ Backend = (*Nop)(nil)
