package halgpu

import "errors"

var (
	// ErrUnsupportedTopology is returned for draws WebGPU cannot express,
	// currently TRIANGLE_FAN.
	ErrUnsupportedTopology = errors.New("halgpu: unsupported topology")

	// ErrNotRecording is returned when a command arrives outside Begin/End.
	ErrNotRecording = errors.New("halgpu: no frame in progress")

	// ErrRecording is returned by Begin while a frame is already open.
	ErrRecording = errors.New("halgpu: frame already in progress")

	// ErrNoPipeline is returned by a draw issued before SET_PIPELINE.
	ErrNoPipeline = errors.New("halgpu: draw without a pipeline")

	// ErrNoIndexBuffer is returned by DRAW_INDEXED without a bound index buffer.
	ErrNoIndexBuffer = errors.New("halgpu: indexed draw without an index buffer")

	// ErrHandleType is returned when a resolved handle is not one this
	// backend can bind.
	ErrHandleType = errors.New("halgpu: unexpected handle type")

	// ErrStackUnderflow is returned by PopState on an empty state stack.
	ErrStackUnderflow = errors.New("halgpu: state stack underflow")

	// ErrUniformSize is returned when a uniform value does not fit its slot.
	ErrUniformSize = errors.New("halgpu: uniform value exceeds slot")

	// ErrUniformRange is returned when a value is NaN or does not fit in a
	// float32.
	ErrUniformRange = errors.New("halgpu: uniform value out of float32 range")
)
