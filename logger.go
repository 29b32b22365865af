package vcb

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// discard drops every record. Enabled reports false so callers never build
// attributes for a silent logger.
type discard struct{}

func (discard) Enabled(context.Context, slog.Level) bool  { return false }
func (discard) Handle(context.Context, slog.Record) error { return nil }
func (discard) WithAttrs([]slog.Attr) slog.Handler        { return discard{} }
func (discard) WithGroup(string) slog.Handler             { return discard{} }

var (
	silent = slog.New(discard{})
	active atomic.Pointer[slog.Logger]
)

func init() { active.Store(silent) }

// SetLogger installs the logger shared by registry, executor, the
// halgpu backend, stream and vcbtool. Passing nil silences them again.
// vcbtool calls it once at startup with the handler built from VCB_LOG_LEVEL.
//
// What each level carries:
//   - [slog.LevelDebug]: executor per-command failures, halgpu placeholder
//     provisioning and unmapped uniforms, stream frames ignored or refused
//   - [slog.LevelInfo]: halgpu adapter selection, stream clients joining and
//     leaving
//   - [slog.LevelWarn]: aborted executor runs, registry disposers that failed
//     or were dropped, stream writes that failed or clients that fell behind
//
// SetLogger may be called while other goroutines log.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	active.Store(l)
}

// Logger returns the logger installed by [SetLogger].
func Logger() *slog.Logger { return active.Load() }

// LogEnabled reports whether the installed logger would emit a record at
// level. Hot paths such as the executor's per-command loop check it before
// assembling attributes.
func LogEnabled(level slog.Level) bool {
	return active.Load().Enabled(context.Background(), level)
}
