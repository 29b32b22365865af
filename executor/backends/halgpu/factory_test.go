package halgpu

import (
	"encoding/binary"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/vib3/vcb/cmdbuf"
	"github.com/vib3/vcb/executor"
	"github.com/vib3/vcb/registry"
)

func newTestFactory(t *testing.T) (*Factory, *executor.Executor, *registry.Registry) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	exec := executor.NewValidator()
	reg := registry.New()
	f, err := NewFactory(device, queue, exec, reg)
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	t.Cleanup(f.Destroy)
	return f, exec, reg
}

func TestCompileShader(t *testing.T) {
	words, err := CompileShader(DefaultShader)
	if err != nil {
		t.Fatalf("CompileShader() error = %v", err)
	}
	if len(words) < 5 {
		t.Fatalf("CompileShader() returned %d words", len(words))
	}
	if words[0] != 0x07230203 {
		t.Errorf("SPIR-V magic = %#x, want 0x07230203", words[0])
	}
	if _, err := CompileShader("not wgsl"); err == nil {
		t.Error("CompileShader(garbage) succeeded")
	}

	hits, _ := ShaderCacheStats()
	again, err := CompileShader(DefaultShader)
	if err != nil || len(again) != len(words) {
		t.Fatalf("cached CompileShader() = %d words, %v", len(again), err)
	}
	if h, _ := ShaderCacheStats(); h != hits+1 {
		t.Errorf("cache hits = %d, want %d", h, hits+1)
	}
}

func TestFactoryMapsAndTracks(t *testing.T) {
	f, exec, reg := newTestFactory(t)

	vb, err := f.CreateVertexBuffer("quad", []float32{0, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0})
	if err != nil {
		t.Fatalf("CreateVertexBuffer() error = %v", err)
	}
	if vb.Size != 44 {
		t.Errorf("Size = %d, want 44", vb.Size)
	}
	ib, err := f.CreateBuffer("odd", gputypes.BufferUsageIndex, []byte{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	if ib.Size != 8 {
		t.Errorf("odd buffer Size = %d, want padded to 8", ib.Size)
	}
	tex, err := f.CreateTexture("checker", 2, 2, make([]byte, 16))
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	if tex.Group == nil || tex.View == nil || tex.Sampler == nil {
		t.Errorf("texture = %+v, want view, sampler and group", tex)
	}
	shader, err := f.DefaultShader()
	if err != nil {
		t.Fatalf("DefaultShader() error = %v", err)
	}
	if again, _ := f.DefaultShader(); again != shader {
		t.Error("DefaultShader() compiled twice")
	}
	pipe, err := f.CreatePipeline("main", PipelineDesc{Shader: shader, VertexBuffers: vec4Layout, ColorFormat: ColorFormat, TextureSlots: 1})
	if err != nil {
		t.Fatalf("CreatePipeline() error = %v", err)
	}

	if h, ok := exec.GetBuffer("quad"); !ok || h != any(vb) {
		t.Errorf("GetBuffer(quad) = %v, %v", h, ok)
	}
	if h, ok := exec.GetTexture("checker"); !ok || h != any(tex) {
		t.Errorf("GetTexture(checker) = %v, %v", h, ok)
	}
	if h, ok := exec.GetPipeline("main"); !ok || h != any(pipe) {
		t.Errorf("GetPipeline(main) = %v, %v", h, ok)
	}

	counts := map[string]int{
		registry.TypeBuffer:   2,
		registry.TypeTexture:  1,
		registry.TypeShader:   1,
		registry.TypePipeline: 1,
	}
	for typ, want := range counts {
		if got := reg.Count(typ); got != want {
			t.Errorf("Count(%s) = %d, want %d", typ, got, want)
		}
	}

	if n := reg.DisposeType(registry.TypeBuffer); n != 2 {
		t.Errorf("DisposeType(buffer) = %d, want 2", n)
	}
	if _, ok := exec.GetBuffer("quad"); ok {
		t.Error("buffer mapping survived dispose")
	}
	if !reg.Dispose(registry.TypePipeline, pipe) {
		t.Error("Dispose(pipeline) = false")
	}
	if _, ok := exec.GetPipeline("main"); ok {
		t.Error("pipeline mapping survived dispose")
	}
}

func TestCreatePipelineNeedsShader(t *testing.T) {
	f, _, _ := newTestFactory(t)
	if _, err := f.CreatePipeline("broken", PipelineDesc{}); err == nil {
		t.Error("CreatePipeline() without shader succeeded")
	}
}

func TestCreateUniformTarget(t *testing.T) {
	f, _, reg := newTestFactory(t)
	layout := UniformLayout{"u_time": {Offset: NamedOffset, Components: 1}}
	u, err := f.CreateUniformTarget("frame", layout)
	if err != nil {
		t.Fatalf("CreateUniformTarget() error = %v", err)
	}
	if u.Group == nil || u.Buffer == nil {
		t.Fatalf("uniform target = %+v", u)
	}
	if err := u.WriteRotor(cmdbuf.IdentityRotor()); err != nil {
		t.Errorf("WriteRotor() error = %v", err)
	}
	if !reg.Has(registry.TypeBuffer, u) {
		t.Error("uniform target not tracked")
	}
}

func TestCreateIndexBufferLittleEndian(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()
	q := &recordingQueue{}
	f, err := NewFactory(device, q, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Destroy()
	if _, err := f.CreateIndexBuffer("idx", []uint32{1, 0x01020304}); err != nil {
		t.Fatal(err)
	}
	if len(q.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(q.writes))
	}
	if got := binary.LittleEndian.Uint32(q.writes[0].data[4:]); got != 0x01020304 {
		t.Errorf("second index = %#x", got)
	}
}

func TestProvision(t *testing.T) {
	f, exec, reg := newTestFactory(t)
	buf := cmdbuf.NewBuilder().
		Pipeline("main").
		VertexBuffer(0, "verts", 0).
		IndexBuffer("idx", cmdbuf.IndexUint16, 0).
		Texture(1, "tex", "linear").
		DrawIndexed(6, 0, 0).
		Pipeline("main").
		MustBuild()

	n, err := f.Provision(buf)
	if err != nil {
		t.Fatalf("Provision() error = %v", err)
	}
	if n != 4 {
		t.Errorf("Provision() created %d, want 4", n)
	}
	h, ok := exec.GetPipeline("main")
	if !ok {
		t.Fatal("pipeline not mapped")
	}
	if got := h.(*Pipeline).desc.TextureSlots; got != 2 {
		t.Errorf("TextureSlots = %d, want 2", got)
	}
	if _, ok := exec.GetTexture("tex"); !ok {
		t.Error("texture not mapped")
	}
	if got := reg.Count(registry.TypeShader); got != 1 {
		t.Errorf("shaders = %d, want the default shader once", got)
	}

	if n, err := f.Provision(buf); err != nil || n != 0 {
		t.Errorf("second Provision() = %d, %v, want 0", n, err)
	}
}

func TestProvisionNeedsMappings(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	f, err := NewFactory(device, queue, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Destroy()
	if _, err := f.Provision(cmdbuf.NewBuilder().Pipeline("p").MustBuild()); err == nil {
		t.Error("Provision() without mappings succeeded")
	}
}
