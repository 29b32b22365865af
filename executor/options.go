package executor

import (
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Mode selects whether commands reach the backend.
type Mode int

const (
	// ModeDispatch validates each command and then calls the backend.
	ModeDispatch Mode = iota
	// ModeValidate only checks payloads. No backend call is made.
	ModeValidate
)

func (m Mode) String() string {
	if m == ModeValidate {
		return "validate"
	}
	return "dispatch"
}

// ErrorPolicy decides what happens after a command fails.
type ErrorPolicy int

const (
	// ContinueOnError counts the failure, skips the command and moves on.
	ContinueOnError ErrorPolicy = iota
	// AbortOnError stops at the first failing command.
	AbortOnError
)

func (p ErrorPolicy) String() string {
	if p == AbortOnError {
		return "abort"
	}
	return "continue"
}

// ParseErrorPolicy accepts "continue" or "abort".
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return ContinueOnError, nil
	case "abort":
		return AbortOnError, nil
	}
	return ContinueOnError, fmt.Errorf("executor: unknown error policy %q", s)
}

// Option configures an Executor.
type Option func(*Executor)

// ValidateOnly puts the executor in ModeValidate.
func ValidateOnly() Option {
	return func(e *Executor) { e.mode = ModeValidate }
}

// WithErrorPolicy sets the error policy. The default is ContinueOnError.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(e *Executor) { e.policy = p }
}

// WithMaxErrors stops a run once n commands have failed. Zero means no limit.
func WithMaxErrors(n int) Option {
	return func(e *Executor) {
		if n >= 0 {
			e.maxErrors = n
		}
	}
}

// WithTracerProvider sets the OpenTelemetry provider used for run spans.
// By default the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Executor) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}
