package executor

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/vib3/vcb/cmdbuf"
)

// spyBackend records handles it receives and can be told to fail.
type spyBackend struct {
	*Nop
	pipeline  any
	vertex    any
	texture   any
	sampler   string
	failDraw  bool
	failBegin bool
	ended     bool
}

func newSpy() *spyBackend { return &spyBackend{Nop: NewNop()} }

func (s *spyBackend) Begin() error {
	if s.failBegin {
		return errors.New("device lost")
	}
	return s.Nop.Begin()
}

func (s *spyBackend) End() error {
	s.ended = true
	return nil
}

func (s *spyBackend) SetPipeline(id string, p any) error {
	s.pipeline = p
	return s.Nop.SetPipeline(id, p)
}

func (s *spyBackend) BindVertexBuffer(slot uint32, b any, offset uint64) error {
	s.vertex = b
	return s.Nop.BindVertexBuffer(slot, b, offset)
}

func (s *spyBackend) BindTexture(slot uint32, t any, sampler string) error {
	s.texture, s.sampler = t, sampler
	return s.Nop.BindTexture(slot, t, sampler)
}

func (s *spyBackend) Draw(d cmdbuf.DrawCommand) error {
	if s.failDraw {
		return errors.New("draw rejected")
	}
	return s.Nop.Draw(d)
}

type nativeHandle struct{ name string }

func mustExecute(t *testing.T, e *Executor, buf *cmdbuf.Buffer) Result {
	t.Helper()
	res, err := e.Execute(context.Background(), buf)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return res
}

func TestDispatchResolvesReferences(t *testing.T) {
	spy := newSpy()
	e := New(spy)
	pipe, verts, tex := &nativeHandle{"pipe"}, &nativeHandle{"verts"}, &nativeHandle{"tex"}
	e.RegisterPipeline("main", pipe)
	e.RegisterBuffer("verts", verts)
	e.RegisterTexture("noise", tex)

	buf := cmdbuf.NewBuilder().
		Pipeline("main").
		VertexBuffer(0, "verts", 0).
		Texture(0, "noise", "linear").
		Draw(36).
		MustBuild()

	res := mustExecute(t, e, buf)
	if res.Errors != 0 {
		t.Fatalf("Errors = %d: %v", res.Errors, res.Err())
	}
	if res.CommandsExecuted != 4 {
		t.Errorf("CommandsExecuted = %d, want 4", res.CommandsExecuted)
	}
	if spy.pipeline != pipe || spy.vertex != verts || spy.texture != tex {
		t.Error("backend did not receive the registered handles")
	}
	if spy.sampler != "linear" {
		t.Errorf("sampler = %q, want linear", spy.sampler)
	}
	if spy.Runs != 1 || !spy.ended {
		t.Errorf("Begin/End not bracketed: runs=%d ended=%v", spy.Runs, spy.ended)
	}
}

func TestUnresolvedReferenceIsSkipped(t *testing.T) {
	spy := newSpy()
	e := New(spy)
	e.RegisterPipeline("main", &nativeHandle{"pipe"})

	buf := cmdbuf.NewBuilder().
		Pipeline("missing").
		VertexBuffer(0, "nope", 0).
		IndexBuffer("nope", cmdbuf.IndexUint16, 0).
		Texture(1, "nope", "").
		Pipeline("main").
		Draw(3).
		MustBuild()

	res := mustExecute(t, e, buf)
	if res.Errors != 4 {
		t.Errorf("Errors = %d, want 4", res.Errors)
	}
	if res.CommandsExecuted != 2 {
		t.Errorf("CommandsExecuted = %d, want 2", res.CommandsExecuted)
	}
	if res.Aborted {
		t.Error("continue policy should not abort")
	}
	for _, f := range res.Failures {
		if !errors.Is(f.Err, ErrReference) {
			t.Errorf("failure %d: %v, want ErrReference", f.Index, f.Err)
		}
	}
	if spy.Calls[cmdbuf.CmdSetPipeline] != 1 || spy.Calls[cmdbuf.CmdDraw] != 1 {
		t.Errorf("backend calls = %v", spy.Calls)
	}
	if !errors.Is(res.Err(), ErrReference) {
		t.Error("Result.Err() should wrap ErrReference")
	}
}

func TestValidateOnly(t *testing.T) {
	b := cmdbuf.New()
	_ = b.SetBlendMode(cmdbuf.BlendMode(9))
	_ = b.Draw(3, 0, cmdbuf.Topology(7))
	_ = b.SetPipeline("")
	_ = b.PopState()
	_ = b.SetRotor([]float64{math.NaN(), 0, 0, 0, 0, 0, 0, 0})
	_ = b.SetUniforms(map[string]cmdbuf.UniformValue{"u": cmdbuf.Vec()})
	_ = b.BindIndexBuffer("idx", cmdbuf.IndexFormat("uint8"), 0)
	_ = b.SetScissor(cmdbuf.ScissorCommand{Width: -1})
	_ = b.SetViewport(0, 0, 800, 600)
	_ = b.PushState()
	_ = b.PopState()
	_ = b.Draw(36, 0, cmdbuf.TopologyTriangleList)

	e := NewValidator()
	res := mustExecute(t, e, b)
	if res.Errors != 8 {
		t.Errorf("Errors = %d, want 8: %v", res.Errors, res.Err())
	}
	if res.CommandsExecuted != 4 {
		t.Errorf("CommandsExecuted = %d, want 4", res.CommandsExecuted)
	}
	for _, f := range res.Failures {
		if !errors.Is(f.Err, ErrInvalidCommand) {
			t.Errorf("failure %d (%v): %v, want ErrInvalidCommand", f.Index, f.Type, f.Err)
		}
	}
	if res.Failures[0].Index != 0 || res.Failures[7].Index != 7 {
		t.Errorf("failures out of order: %+v", res.Failures)
	}
}

func TestValidateOnlyIgnoresReferences(t *testing.T) {
	buf := cmdbuf.NewBuilder().Pipeline("unregistered").Draw(3).MustBuild()
	if err := Validate(buf); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestAbortOnError(t *testing.T) {
	spy := newSpy()
	e := New(spy, WithErrorPolicy(AbortOnError))
	buf := cmdbuf.NewBuilder().
		Draw(3).
		Pipeline("missing").
		Draw(3).
		MustBuild()

	res := mustExecute(t, e, buf)
	if !res.Aborted || res.AbortedAt != 1 {
		t.Errorf("Aborted = %v at %d, want true at 1", res.Aborted, res.AbortedAt)
	}
	if res.CommandsExecuted != 1 {
		t.Errorf("CommandsExecuted = %d, want 1", res.CommandsExecuted)
	}
	if !spy.ended {
		t.Error("End should run after an abort")
	}
}

func TestMaxErrors(t *testing.T) {
	b := cmdbuf.New()
	for range 5 {
		_ = b.SetPipeline("missing")
	}
	e := New(newSpy(), WithMaxErrors(3))
	res := mustExecute(t, e, b)
	if res.Errors != 3 || !res.Aborted || res.AbortedAt != 2 {
		t.Errorf("Errors=%d Aborted=%v AbortedAt=%d, want 3/true/2", res.Errors, res.Aborted, res.AbortedAt)
	}
}

func TestBackendErrorsAreCounted(t *testing.T) {
	spy := newSpy()
	spy.failDraw = true
	res := mustExecute(t, New(spy), cmdbuf.NewBuilder().Draw(3).Draw(3).Blend(cmdbuf.BlendAlpha).MustBuild())
	if res.Errors != 2 || res.CommandsExecuted != 1 {
		t.Errorf("Errors=%d Executed=%d, want 2/1", res.Errors, res.CommandsExecuted)
	}
	if !errors.Is(res.Failures[0].Err, ErrBackend) {
		t.Errorf("failure = %v, want ErrBackend", res.Failures[0].Err)
	}
}

func TestExecuteRunErrors(t *testing.T) {
	buf := cmdbuf.NewBuilder().Draw(3).MustBuild()

	if _, err := New(nil).Execute(context.Background(), buf); !errors.Is(err, ErrNoBackend) {
		t.Errorf("dispatch without backend: %v, want ErrNoBackend", err)
	}
	if _, err := NewValidator().Execute(context.Background(), nil); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("nil buffer: %v, want ErrInvalidCommand", err)
	}

	spy := newSpy()
	spy.failBegin = true
	res, err := New(spy).Execute(context.Background(), buf)
	if !errors.Is(err, ErrBackend) {
		t.Errorf("Begin failure: %v, want ErrBackend", err)
	}
	if res.CommandsExecuted != 0 || spy.Total() != 0 {
		t.Error("no command should run when Begin fails")
	}
}

func TestResourceTables(t *testing.T) {
	e := NewValidator()
	e.RegisterBuffer("b", 1)
	e.RegisterTexture("t", 2)
	e.RegisterPipeline("p", 3)

	if h, ok := e.GetBuffer("b"); !ok || h != 1 {
		t.Errorf("GetBuffer = %v, %v", h, ok)
	}
	if _, ok := e.GetTexture("b"); ok {
		t.Error("tables should be independent")
	}
	e.UnregisterPipeline("p")
	if _, ok := e.GetPipeline("p"); ok {
		t.Error("UnregisterPipeline did not remove the entry")
	}

	e.ClearRegistries()
	if b, tx, p := e.ResourceCounts(); b+tx+p != 0 {
		t.Errorf("ResourceCounts after clear = %d, %d, %d", b, tx, p)
	}
}

func TestParseErrorPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ErrorPolicy
		wantErr bool
	}{
		{"", ContinueOnError, false},
		{"continue", ContinueOnError, false},
		{"ABORT", AbortOnError, false},
		{"retry", ContinueOnError, true},
	}
	for _, tt := range tests {
		got, err := ParseErrorPolicy(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseErrorPolicy(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestExecuteTracing(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	e := New(newSpy(), WithTracerProvider(tp))
	buf := cmdbuf.NewBuilder().Pipeline("missing").Draw(3).MustBuild()
	mustExecute(t, e, buf)

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	span := spans[0]
	if span.Name() != "vcb.Execute" {
		t.Errorf("span name = %q", span.Name())
	}
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs["vcb.errors"].AsInt64(); got != 1 {
		t.Errorf("vcb.errors = %d, want 1", got)
	}
	if got := attrs["vcb.executed"].AsInt64(); got != 1 {
		t.Errorf("vcb.executed = %d, want 1", got)
	}
	if len(span.Events()) != 1 {
		t.Errorf("events = %d, want 1", len(span.Events()))
	}
}

func BenchmarkExecuteNop(b *testing.B) {
	buf := cmdbuf.New()
	for range 100 {
		_ = buf.SetRotor([]float64{1, 0, 0, 0, 0, 0, 0, 0})
		_ = buf.Draw(36, 0, cmdbuf.TopologyTriangleList)
	}
	buf.Seal()
	e := New(NewNop())
	ctx := context.Background()
	for b.Loop() {
		if _, err := e.Execute(ctx, buf); err != nil {
			b.Fatal(err)
		}
	}
}
