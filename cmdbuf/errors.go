package cmdbuf

import "errors"

// Error kinds returned by the command buffer. Use errors.Is to classify.
var (
	// ErrInvalidState is returned when recording into a sealed buffer.
	ErrInvalidState = errors.New("cmdbuf: buffer is sealed")

	// ErrFormat is returned when a serialized buffer is malformed: bad magic,
	// truncated header, payload length mismatch, corrupt JSON, or an
	// unknown command type.
	ErrFormat = errors.New("cmdbuf: malformed command stream")

	// ErrArgument is returned when a recording call receives a payload
	// that can never be valid (rotor length other than 8, malformed projection).
	ErrArgument = errors.New("cmdbuf: invalid argument")
)
