package halgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/vib3/vcb/cmdbuf"
)

type bufferWrite struct {
	offset uint64
	data   []byte
}

// recordingQueue captures WriteBuffer calls.
type recordingQueue struct {
	hal.Queue
	writes []bufferWrite
}

func (q *recordingQueue) WriteBuffer(_ hal.Buffer, offset uint64, data []byte) error {
	q.writes = append(q.writes, bufferWrite{offset: offset, data: append([]byte(nil), data...)})
	return nil
}

func floats(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out
}

func newUniformBackend(t *testing.T, layout UniformLayout) (*Backend, *recordingQueue) {
	t.Helper()
	b, _ := newRecordingBackend(t)
	q := &recordingQueue{Queue: b.Queue()}
	b.SetUniformTarget(&UniformTarget{Queue: q, Buffer: &noop.Buffer{}, Layout: layout})
	return b, q
}

func TestUniformLayoutSize(t *testing.T) {
	if got := UniformLayout(nil).Size(); got != NamedOffset {
		t.Errorf("empty layout Size() = %d, want %d", got, NamedOffset)
	}
	l := UniformLayout{
		"u_time":  {Offset: NamedOffset, Components: 1},
		"u_color": {Offset: NamedOffset + 16, Components: 3},
	}
	// 96 + 16 + 12 = 124, rounded to 128
	if got := l.Size(); got != 128 {
		t.Errorf("Size() = %d, want 128", got)
	}
}

func TestSetRotorWritesSlot(t *testing.T) {
	b, q := newUniformBackend(t, nil)
	mustBegin(t, b)
	r := cmdbuf.Rotor{0.5, 0.5, 0, 0, 0, 0, 0.5, 0.5}
	if err := b.SetRotor(r); err != nil {
		t.Fatalf("SetRotor() error = %v", err)
	}
	mustEnd(t, b)

	if len(q.writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(q.writes))
	}
	w := q.writes[0]
	if w.offset != RotorOffset || len(w.data) != RotorSize {
		t.Fatalf("write at %d of %d bytes, want %d of %d", w.offset, len(w.data), RotorOffset, RotorSize)
	}
	got := floats(w.data)
	for i, c := range r {
		if got[i] != float32(c) {
			t.Errorf("rotor[%d] = %v, want %v", i, got[i], c)
		}
	}
	if b.Rotor() != r {
		t.Errorf("Rotor() = %v", b.Rotor())
	}
}

func TestSetRotorOutOfRange(t *testing.T) {
	b, q := newUniformBackend(t, nil)
	mustBegin(t, b)
	r := cmdbuf.IdentityRotor()
	r[5] = 1e39
	if err := b.SetRotor(r); !errors.Is(err, ErrUniformRange) {
		t.Errorf("SetRotor(1e39) error = %v, want ErrUniformRange", err)
	}
	mustEnd(t, b)
	if len(q.writes) != 0 {
		t.Errorf("writes = %d, want 0", len(q.writes))
	}
}

func TestSetProjectionUsesViewportAspect(t *testing.T) {
	b, q := newUniformBackend(t, nil)
	mustBegin(t, b)
	_ = b.SetViewport(cmdbuf.ViewportCommand{Width: 200, Height: 100})
	p := cmdbuf.ProjectionCommand{Kind: cmdbuf.ProjectionPerspective, Dimension: 3, FOV: 1, Near: 0.1, Far: 50}
	if err := b.SetProjection(p); err != nil {
		t.Fatalf("SetProjection() error = %v", err)
	}
	mustEnd(t, b)

	w := q.writes[len(q.writes)-1]
	if w.offset != ProjectionOffset || len(w.data) != ProjectionSize {
		t.Fatalf("write at %d of %d bytes", w.offset, len(w.data))
	}
	want := mgl32.Perspective(1, 2, 0.1, 50)
	if got := floats(w.data); mgl32.Mat4(got) != want {
		t.Errorf("projection = %v, want %v", got, want)
	}
	if got, ok := b.Projection(); !ok || got != p {
		t.Errorf("Projection() = %+v, %v", got, ok)
	}
}

func TestProjectionMatrix(t *testing.T) {
	ortho := ProjectionMatrix(cmdbuf.ProjectionCommand{Kind: cmdbuf.ProjectionOrthographic, Near: -1, Far: 1}, 2)
	if want := mgl32.Ortho(-2, 2, -1, 1, -1, 1); ortho != want {
		t.Errorf("orthographic = %v, want %v", ortho, want)
	}
	stereo := ProjectionMatrix(cmdbuf.ProjectionCommand{Kind: cmdbuf.ProjectionStereographic, Near: 0.1, Far: 10}, 0)
	if want := mgl32.Perspective(defaultFOV, 1, 0.1, 10); stereo != want {
		t.Errorf("stereographic = %v, want default perspective %v", stereo, want)
	}
}

func TestSetUniformsWritesNamedSlots(t *testing.T) {
	layout := UniformLayout{
		"u_time":  {Offset: NamedOffset, Components: 1},
		"u_color": {Offset: NamedOffset + 16, Components: 4},
	}
	b, q := newUniformBackend(t, layout)
	mustBegin(t, b)
	err := b.SetUniforms(cmdbuf.UniformsCommand{Uniforms: map[string]cmdbuf.UniformValue{
		"u_color":   cmdbuf.Vec(1, 0, 0, 1),
		"u_missing": cmdbuf.Scalar(3),
	}})
	if err != nil {
		t.Fatalf("SetUniforms() error = %v", err)
	}
	if len(q.writes) != 1 {
		t.Fatalf("writes = %d, want 1 (unknown names skipped)", len(q.writes))
	}
	if w := q.writes[0]; w.offset != NamedOffset+16 || len(w.data) != 16 {
		t.Errorf("u_color written at %d (%d bytes)", w.offset, len(w.data))
	}

	err = b.SetUniforms(cmdbuf.UniformsCommand{Uniforms: map[string]cmdbuf.UniformValue{
		"u_time": cmdbuf.Vec(1, 2),
	}})
	if !errors.Is(err, ErrUniformSize) {
		t.Errorf("oversized uniform error = %v, want ErrUniformSize", err)
	}
	mustEnd(t, b)

	if got := b.Stats().UniformWrites; got != 2 {
		t.Errorf("UniformWrites = %d, want 2", got)
	}
}

func TestUniformsWithoutTargetAreKept(t *testing.T) {
	b, _ := newRecordingBackend(t)
	mustBegin(t, b)
	if err := b.SetRotor(cmdbuf.IdentityRotor()); err != nil {
		t.Fatal(err)
	}
	if err := b.SetUniforms(cmdbuf.UniformsCommand{Uniforms: map[string]cmdbuf.UniformValue{"x": cmdbuf.Scalar(1)}}); err != nil {
		t.Fatal(err)
	}
	mustEnd(t, b)
	if got := b.Stats().UniformWrites; got != 0 {
		t.Errorf("UniformWrites = %d, want 0 without a uniform target", got)
	}
}
