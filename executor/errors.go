package executor

import (
	"errors"
	"fmt"

	"github.com/vib3/vcb/cmdbuf"
)

// Error kinds. Use errors.Is on a CommandError or on Result.Err().
var (
	// ErrReference is returned when a resource ID has no registered handle.
	ErrReference = errors.New("executor: unresolved resource reference")

	// ErrInvalidCommand is returned when a payload fails validation.
	ErrInvalidCommand = errors.New("executor: invalid command")

	// ErrBackend wraps failures reported by the backend.
	ErrBackend = errors.New("executor: backend error")

	// ErrNoBackend is returned when dispatching without a backend, or when
	// a named backend is not registered.
	ErrNoBackend = errors.New("executor: no backend")
)

// CommandError records why one command was skipped.
type CommandError struct {
	Index int
	Type  cmdbuf.CommandType
	Err   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %d (%s): %v", e.Index, e.Type, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
