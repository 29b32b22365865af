package halgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/cmdbuf"
)

// placeholderBufferSize is the size of buffers created by Provision.
const placeholderBufferSize = 64 << 10

// vec4Layout is the vertex layout of DefaultShader.
var vec4Layout = []gputypes.VertexBufferLayout{
	{
		ArrayStride: 16,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 0},
		},
	},
}

// DefaultShader returns the factory's DefaultShader module, compiling it
// on first use.
func (f *Factory) DefaultShader() (*Shader, error) {
	if f.defaultShader != nil {
		return f.defaultShader, nil
	}
	s, err := f.CreateShader("vcb_default_shader", DefaultShader)
	if err != nil {
		return nil, err
	}
	f.defaultShader = s
	return s, nil
}

// Provision creates placeholder resources for every ID buf references that
// has no mapping yet: zeroed buffers, 1x1 white textures and pipelines
// running DefaultShader. It lets a recorded stream replay without the
// application that produced it, and returns the number of resources created.
func (f *Factory) Provision(buf *cmdbuf.Buffer) (int, error) {
	if f.mappings == nil {
		return 0, errors.New("halgpu: provision needs mappings")
	}
	var (
		pipelines []string
		vertex    []string
		index     []string
		textures  []string
		slots     int
		seen      = make(map[string]bool)
	)
	want := func(list *[]string, kind, id string) {
		if seen[kind+"\x00"+id] {
			return
		}
		seen[kind+"\x00"+id] = true
		*list = append(*list, id)
	}
	for _, c := range buf.All() {
		switch p := c.Data.(type) {
		case cmdbuf.PipelineCommand:
			want(&pipelines, "pipeline", p.PipelineID)
		case cmdbuf.VertexBufferCommand:
			want(&vertex, "buffer", p.BufferID)
		case cmdbuf.IndexBufferCommand:
			want(&index, "buffer", p.BufferID)
		case cmdbuf.TextureCommand:
			want(&textures, "texture", p.TextureID)
			slots = max(slots, int(p.Slot)+1)
		}
	}

	created := 0
	for _, id := range vertex {
		if _, ok := f.mappings.GetBuffer(id); ok || id == "" {
			continue
		}
		if _, err := f.CreateBuffer(id, gputypes.BufferUsageVertex, make([]byte, placeholderBufferSize)); err != nil {
			return created, err
		}
		created++
	}
	for _, id := range index {
		if _, ok := f.mappings.GetBuffer(id); ok || id == "" {
			continue
		}
		if _, err := f.CreateBuffer(id, gputypes.BufferUsageIndex, make([]byte, placeholderBufferSize)); err != nil {
			return created, err
		}
		created++
	}
	for _, id := range textures {
		if _, ok := f.mappings.GetTexture(id); ok || id == "" {
			continue
		}
		if _, err := f.CreateTexture(id, 1, 1, []byte{0xFF, 0xFF, 0xFF, 0xFF}); err != nil {
			return created, err
		}
		created++
	}
	for _, id := range pipelines {
		if _, ok := f.mappings.GetPipeline(id); ok || id == "" {
			continue
		}
		shader, err := f.DefaultShader()
		if err != nil {
			return created, err
		}
		_, err = f.CreatePipeline(id, PipelineDesc{
			Shader:        shader,
			VertexBuffers: vec4Layout,
			ColorFormat:   ColorFormat,
			DepthFormat:   DepthFormat,
			TextureSlots:  slots,
		})
		if err != nil {
			return created, fmt.Errorf("halgpu: provision pipeline %q: %w", id, err)
		}
		created++
	}
	vcb.Logger().Debug("halgpu: provisioned placeholders", "count", created)
	return created, nil
}
