package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/cmdbuf"
)

const tracerName = "github.com/vib3/vcb/executor"

// Result reports the outcome of one Execute call.
type Result struct {
	// CommandsExecuted counts commands that passed validation and, in
	// dispatch mode, were accepted by the backend.
	CommandsExecuted int

	// Errors counts failed commands. Each has an entry in Failures.
	Errors   int
	Failures []CommandError

	// Aborted is set when the error policy stopped the run early;
	// AbortedAt is the index of the last command examined, or -1.
	Aborted   bool
	AbortedAt int
}

// Err joins every command failure, or returns nil when there were none.
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i := range r.Failures {
		errs[i] = &r.Failures[i]
	}
	return errors.Join(errs...)
}

// Executor replays command buffers. It is not safe for concurrent use;
// give each render goroutine its own Executor.
type Executor struct {
	mode      Mode
	backend   Backend
	policy    ErrorPolicy
	maxErrors int
	tracer    trace.Tracer

	resources
}

// New returns an executor dispatching to backend. Pass ValidateOnly to
// check buffers without a backend, in which case backend may be nil.
func New(backend Backend, opts ...Option) *Executor {
	e := &Executor{
		mode:      ModeDispatch,
		backend:   backend,
		tracer:    otel.Tracer(tracerName),
		resources: newResources(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewValidator returns an executor in ModeValidate.
func NewValidator(opts ...Option) *Executor {
	return New(nil, append([]Option{ValidateOnly()}, opts...)...)
}

// Mode returns the execution mode.
func (e *Executor) Mode() Mode { return e.mode }

// Backend returns the dispatch target, which may be nil.
func (e *Executor) Backend() Backend { return e.backend }

// Execute runs every command of buf in order. Per-command failures are
// reported in the Result; the returned error is non-nil only when the run
// could not start or finish (no backend, Begin or End failed).
//
// ctx is used for tracing only. A run is never cancelled part way through.
func (e *Executor) Execute(ctx context.Context, buf *cmdbuf.Buffer) (Result, error) {
	res := Result{AbortedAt: -1}
	if buf == nil {
		return res, fmt.Errorf("%w: nil buffer", ErrInvalidCommand)
	}
	dispatch := e.mode == ModeDispatch
	if dispatch && e.backend == nil {
		return res, ErrNoBackend
	}

	_, span := e.tracer.Start(ctx, "vcb.Execute", trace.WithAttributes(
		attribute.String("vcb.mode", e.mode.String()),
		attribute.Int("vcb.commands", buf.Len()),
		attribute.Int64("vcb.buffer_version", int64(buf.Version())),
	))
	defer span.End()

	if dispatch {
		if err := e.backend.Begin(); err != nil {
			err = fmt.Errorf("%w: begin: %w", ErrBackend, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend begin failed")
			return res, err
		}
	}

	depth := 0
	for i, cmd := range buf.All() {
		err := validate(cmd.Data, depth)
		if err == nil {
			if dispatch {
				err = e.dispatch(cmd.Data)
			}
		}
		if err == nil {
			switch cmd.Type() {
			case cmdbuf.CmdPushState:
				depth++
			case cmdbuf.CmdPopState:
				depth--
			}
			res.CommandsExecuted++
			continue
		}

		res.Errors++
		res.Failures = append(res.Failures, CommandError{Index: i, Type: cmd.Type(), Err: err})
		span.AddEvent("command failed", trace.WithAttributes(
			attribute.Int("vcb.index", i),
			attribute.String("vcb.type", cmd.Type().String()),
			attribute.String("error", err.Error()),
		))
		if vcb.LogEnabled(slog.LevelDebug) {
			vcb.Logger().Debug("executor: command failed", "index", i, "type", cmd.Type().String(), "err", err)
		}

		if e.shouldAbort(res.Errors) {
			res.Aborted = true
			res.AbortedAt = i
			vcb.Logger().Warn("executor: run aborted", "index", i, "errors", res.Errors, "policy", e.policy)
			break
		}
	}

	var endErr error
	if dispatch {
		if err := e.backend.End(); err != nil {
			endErr = fmt.Errorf("%w: end: %w", ErrBackend, err)
			span.RecordError(endErr)
		}
	}

	span.SetAttributes(
		attribute.Int("vcb.executed", res.CommandsExecuted),
		attribute.Int("vcb.errors", res.Errors),
		attribute.Bool("vcb.aborted", res.Aborted),
	)
	switch {
	case endErr != nil:
		span.SetStatus(codes.Error, "backend end failed")
	case res.Aborted:
		span.SetStatus(codes.Error, "run aborted")
	}
	return res, endErr
}

func (e *Executor) shouldAbort(errs int) bool {
	if e.policy == AbortOnError {
		return true
	}
	return e.maxErrors > 0 && errs >= e.maxErrors
}

// dispatch resolves references and forwards one valid command.
func (e *Executor) dispatch(p cmdbuf.Payload) error {
	b := e.backend
	var err error
	switch c := p.(type) {
	case cmdbuf.ClearCommand:
		err = b.Clear(c)
	case cmdbuf.ViewportCommand:
		err = b.SetViewport(c)
	case cmdbuf.PipelineCommand:
		h, ok := e.pipelines[c.PipelineID]
		if !ok {
			return unresolved("pipeline", c.PipelineID)
		}
		err = b.SetPipeline(c.PipelineID, h)
	case cmdbuf.UniformsCommand:
		err = b.SetUniforms(c)
	case cmdbuf.VertexBufferCommand:
		h, ok := e.buffers[c.BufferID]
		if !ok {
			return unresolved("buffer", c.BufferID)
		}
		err = b.BindVertexBuffer(c.Slot, h, c.Offset)
	case cmdbuf.IndexBufferCommand:
		h, ok := e.buffers[c.BufferID]
		if !ok {
			return unresolved("buffer", c.BufferID)
		}
		err = b.BindIndexBuffer(h, c.Format, c.Offset)
	case cmdbuf.TextureCommand:
		h, ok := e.textures[c.TextureID]
		if !ok {
			return unresolved("texture", c.TextureID)
		}
		err = b.BindTexture(c.Slot, h, c.SamplerID)
	case cmdbuf.DrawCommand:
		err = b.Draw(c)
	case cmdbuf.DrawIndexedCommand:
		err = b.DrawIndexed(c)
	case cmdbuf.DrawInstancedCommand:
		err = b.DrawInstanced(c)
	case cmdbuf.BlendModeCommand:
		err = b.SetBlendMode(c.Mode)
	case cmdbuf.DepthStateCommand:
		err = b.SetDepthState(c)
	case cmdbuf.ScissorCommand:
		err = b.SetScissor(c)
	case cmdbuf.StencilCommand:
		err = b.SetStencil(c)
	case cmdbuf.RotorCommand:
		err = b.SetRotor(c.Rotor)
	case cmdbuf.ProjectionCommand:
		err = b.SetProjection(c)
	case cmdbuf.PushStateCommand:
		err = b.PushState()
	case cmdbuf.PopStateCommand:
		err = b.PopState()
	default:
		return fmt.Errorf("%w: unhandled payload %T", ErrInvalidCommand, p)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBackend, err)
	}
	return nil
}

func unresolved(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrReference, kind, id)
}
