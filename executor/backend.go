package executor

import (
	"fmt"
	"sort"

	"github.com/gogpu/gpucontext"

	"github.com/vib3/vcb/cmdbuf"
)

// Backend receives translated commands. Resource arguments are the native
// handles registered with the executor; the backend type-asserts them to
// its own handle types.
//
// Methods return an error when the call cannot be carried out. The
// executor counts the error and, under the default policy, continues.
type Backend interface {
	// Begin is called once before the first command of a run.
	Begin() error
	// End is called once after the last command of a run, even if the run
	// was aborted.
	End() error

	Clear(c cmdbuf.ClearCommand) error
	SetViewport(v cmdbuf.ViewportCommand) error
	SetPipeline(id string, pipeline any) error
	SetUniforms(u cmdbuf.UniformsCommand) error
	BindVertexBuffer(slot uint32, buffer any, offset uint64) error
	BindIndexBuffer(buffer any, format cmdbuf.IndexFormat, offset uint64) error
	BindTexture(slot uint32, texture any, samplerID string) error

	Draw(d cmdbuf.DrawCommand) error
	DrawIndexed(d cmdbuf.DrawIndexedCommand) error
	DrawInstanced(d cmdbuf.DrawInstancedCommand) error

	SetBlendMode(m cmdbuf.BlendMode) error
	SetDepthState(s cmdbuf.DepthStateCommand) error
	SetScissor(s cmdbuf.ScissorCommand) error
	SetStencil(s cmdbuf.StencilCommand) error

	SetRotor(r cmdbuf.Rotor) error
	SetProjection(p cmdbuf.ProjectionCommand) error

	PushState() error
	PopState() error
}

// Backend names, in preference order.
const (
	BackendHALNoop = "hal-noop"
	BackendNop     = "nop"
)

var backends = gpucontext.NewRegistry[Backend](
	gpucontext.WithPriority(BackendHALNoop, BackendNop),
)

func init() {
	RegisterBackend(BackendNop, func() Backend { return NewNop() })
}

// RegisterBackend registers a backend factory under name, typically from
// an init function:
//
//	func init() {
//		executor.RegisterBackend("my-gpu", func() executor.Backend {
//			b, err := open()
//			if err != nil {
//				return nil // NewBackend reports ErrNoBackend
//			}
//			return b
//		})
//	}
//
// Registering an existing name replaces it. A nil factory panics.
func RegisterBackend(name string, factory func() Backend) {
	if factory == nil {
		panic("executor: RegisterBackend factory is nil")
	}
	backends.Register(name, factory)
}

// UnregisterBackend removes a backend. It is mostly useful in tests.
func UnregisterBackend(name string) {
	backends.Unregister(name)
}

// NewBackend creates a backend by name.
func NewBackend(name string) (Backend, error) {
	if !backends.Has(name) {
		return nil, fmt.Errorf("%w: %q is not registered (forgotten import?)", ErrNoBackend, name)
	}
	b := backends.Get(name)
	if b == nil {
		return nil, fmt.Errorf("%w: factory for %q returned nil", ErrNoBackend, name)
	}
	return b, nil
}

// BestBackend creates the most preferred registered backend.
func BestBackend() (string, Backend, error) {
	name := backends.BestName()
	if name == "" {
		return "", nil, fmt.Errorf("%w: none registered", ErrNoBackend)
	}
	b, err := NewBackend(name)
	return name, b, err
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	names := backends.Available()
	sort.Strings(names)
	return names
}
