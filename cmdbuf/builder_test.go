package cmdbuf

import (
	"errors"
	"testing"
)

func TestBuilderChain(t *testing.T) {
	buf, err := NewBuilder().
		Clear().
		Viewport(0, 0, 800, 600).
		Pipeline("x").
		Rotor([]float64{1, 0, 0, 0, 0, 0, 0, 0}).
		Blend(BlendAlpha).
		Draw(36).
		Seal().
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if buf.Len() != 6 {
		t.Errorf("Len() = %d, want 6", buf.Len())
	}
	if !buf.Sealed() {
		t.Error("built buffer should be sealed")
	}

	want := []CommandType{CmdClear, CmdSetViewport, CmdSetPipeline, CmdSetRotor, CmdSetBlendMode, CmdDraw}
	for i, ct := range want {
		cmd, _ := buf.Command(i)
		if cmd.Type() != ct {
			t.Errorf("Command(%d).Type() = %v, want %v", i, cmd.Type(), ct)
		}
	}
}

func TestBuilderFullVocabulary(t *testing.T) {
	buf := NewBuilder().
		ClearColor(0, 0, 0, 1).
		Viewport(0, 0, 64, 64).
		Pipeline("p").
		Uniforms(map[string]UniformValue{"u_time": Scalar(0)}).
		VertexBuffer(0, "v", 0).
		IndexBuffer("i", IndexUint32, 0).
		DrawIndexed(6, 0, 0).
		DrawInstanced(3, 4).
		DrawTopology(5, 0, TopologyTriangleStrip).
		Depth(DepthStateCommand{Enabled: true, Func: DepthLEqual}).
		Push().
		Scissor(ScissorCommand{Enabled: true, Width: 8, Height: 8}).
		Stencil(StencilCommand{Func: DepthAlways}).
		Texture(1, "t", "").
		Projection(testProjection).
		Pop().
		MustBuild()

	if buf.Len() != 16 {
		t.Errorf("Len() = %d, want 16", buf.Len())
	}
	if s := buf.Stats(); s.Triangles != 2+4+3 {
		t.Errorf("Triangles = %d, want 9", s.Triangles)
	}
}

func TestBuilderStopsAtFirstError(t *testing.T) {
	b := NewBuilder().
		Pipeline("a").
		Rotor([]float64{1, 2}).
		Draw(3)

	if !errors.Is(b.Err(), ErrArgument) {
		t.Errorf("Err() = %v, want ErrArgument", b.Err())
	}
	buf, err := b.Build()
	if !errors.Is(err, ErrArgument) {
		t.Errorf("Build error = %v, want ErrArgument", err)
	}
	if buf != nil {
		t.Error("Build returned a buffer alongside an error")
	}
}

func TestBuilderRecordAfterSeal(t *testing.T) {
	_, err := NewBuilder().Draw(3).Seal().Draw(3).Build()
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Build error = %v, want ErrInvalidState", err)
	}
}

func TestMustBuildPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustBuild should panic on error")
		}
	}()
	NewBuilder().Projection(ProjectionCommand{}).MustBuild()
}
