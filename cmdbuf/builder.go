package cmdbuf

// Builder records commands through chained calls.
//
//	buf, err := cmdbuf.NewBuilder().
//		Clear().
//		Viewport(0, 0, 800, 600).
//		Pipeline("main").
//		Blend(cmdbuf.BlendAlpha).
//		Draw(36).
//		Seal().
//		Build()
//
// The first recording error stops the chain; later calls are ignored and
// Build reports the error.
type Builder struct {
	buf *Buffer
	err error
}

// NewBuilder returns a builder over a fresh buffer.
func NewBuilder(opts ...Option) *Builder {
	return &Builder{buf: New(opts...)}
}

func (b *Builder) do(fn func(*Buffer) error) *Builder {
	if b.err == nil {
		b.err = fn(b.buf)
	}
	return b
}

// Clear records a CLEAR with no targets specified.
func (b *Builder) Clear() *Builder {
	return b.do(func(buf *Buffer) error { return buf.Clear(ClearCommand{}) })
}

// ClearColor records a CLEAR of the color target.
func (b *Builder) ClearColor(r, g, bl, a float64) *Builder {
	return b.do(func(buf *Buffer) error { return buf.ClearColor(r, g, bl, a) })
}

func (b *Builder) Viewport(x, y, width, height float64) *Builder {
	return b.do(func(buf *Buffer) error { return buf.SetViewport(x, y, width, height) })
}

func (b *Builder) Pipeline(id string) *Builder {
	return b.do(func(buf *Buffer) error { return buf.SetPipeline(id) })
}

func (b *Builder) Uniforms(u map[string]UniformValue) *Builder {
	return b.do(func(buf *Buffer) error { return buf.SetUniforms(u) })
}

func (b *Builder) VertexBuffer(slot uint32, id string, offset uint64) *Builder {
	return b.do(func(buf *Buffer) error { return buf.BindVertexBuffer(slot, id, offset) })
}

func (b *Builder) IndexBuffer(id string, format IndexFormat, offset uint64) *Builder {
	return b.do(func(buf *Buffer) error { return buf.BindIndexBuffer(id, format, offset) })
}

// Draw records a TRIANGLE_LIST draw starting at vertex 0.
func (b *Builder) Draw(vertexCount uint32) *Builder {
	return b.do(func(buf *Buffer) error { return buf.Draw(vertexCount, 0, TopologyTriangleList) })
}

// DrawTopology records a draw with an explicit first vertex and topology.
func (b *Builder) DrawTopology(vertexCount, firstVertex uint32, topology Topology) *Builder {
	return b.do(func(buf *Buffer) error { return buf.Draw(vertexCount, firstVertex, topology) })
}

// DrawIndexed records a TRIANGLE_LIST indexed draw.
func (b *Builder) DrawIndexed(indexCount, firstIndex uint32, baseVertex int32) *Builder {
	return b.do(func(buf *Buffer) error {
		return buf.DrawIndexed(indexCount, firstIndex, baseVertex, TopologyTriangleList)
	})
}

// DrawInstanced records a TRIANGLE_LIST instanced draw.
func (b *Builder) DrawInstanced(vertexCount, instanceCount uint32) *Builder {
	return b.do(func(buf *Buffer) error {
		return buf.DrawInstanced(vertexCount, instanceCount, 0, 0, TopologyTriangleList)
	})
}

func (b *Builder) Blend(mode BlendMode) *Builder {
	return b.do(func(buf *Buffer) error { return buf.SetBlendMode(mode) })
}

func (b *Builder) Depth(s DepthStateCommand) *Builder {
	return b.do(func(buf *Buffer) error { return buf.SetDepthState(s) })
}

func (b *Builder) Scissor(s ScissorCommand) *Builder {
	return b.do(func(buf *Buffer) error { return buf.SetScissor(s) })
}

func (b *Builder) Stencil(s StencilCommand) *Builder {
	return b.do(func(buf *Buffer) error { return buf.SetStencil(s) })
}

func (b *Builder) Texture(slot uint32, textureID, samplerID string) *Builder {
	return b.do(func(buf *Buffer) error { return buf.BindTexture(slot, textureID, samplerID) })
}

func (b *Builder) Rotor(components []float64) *Builder {
	return b.do(func(buf *Buffer) error { return buf.SetRotor(components) })
}

func (b *Builder) Projection(p ProjectionCommand) *Builder {
	return b.do(func(buf *Buffer) error { return buf.SetProjection(p) })
}

func (b *Builder) Push() *Builder {
	return b.do((*Buffer).PushState)
}

func (b *Builder) Pop() *Builder {
	return b.do((*Buffer).PopState)
}

// Seal seals the underlying buffer. Build seals as well, so this call
// only documents intent at the end of a chain.
func (b *Builder) Seal() *Builder {
	b.buf.Seal()
	return b
}

// Err returns the first recording error, if any.
func (b *Builder) Err() error { return b.err }

// Build returns the sealed buffer, or the first recording error.
func (b *Builder) Build() (*Buffer, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.buf.Seal(), nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Buffer {
	buf, err := b.Build()
	if err != nil {
		panic(err)
	}
	return buf
}
