package halgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/wgpu/hal"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/cmdbuf"
)

// Uniform block layout. The rotor and the projection matrix occupy fixed
// slots at the start of the block; named uniforms follow.
const (
	RotorOffset      = 0
	RotorSize        = cmdbuf.RotorComponents * 4
	ProjectionOffset = RotorOffset + RotorSize
	ProjectionSize   = 16 * 4
	NamedOffset      = ProjectionOffset + ProjectionSize
)

// defaultFOV is used by the 4D projections, which carry no camera field of view.
const defaultFOV = math.Pi / 4

// UniformSlot places one named uniform in the block.
type UniformSlot struct {
	Offset     uint64
	Components int
}

// UniformLayout maps uniform names to slots.
type UniformLayout map[string]UniformSlot

// Size returns the block size in bytes, rounded up to 16.
func (l UniformLayout) Size() uint64 {
	size := uint64(NamedOffset)
	for _, s := range l {
		if end := s.Offset + uint64(s.Components)*4; end > size {
			size = end
		}
	}
	return (size + 15) &^ 15
}

// UniformTarget is the uniform buffer a Backend writes rotor, projection
// and named uniforms into. Group is bound at index 0 of every pass.
type UniformTarget struct {
	Queue  hal.Queue
	Buffer hal.Buffer
	Group  hal.BindGroup
	Layout UniformLayout
}

func (u *UniformTarget) write(offset uint64, data []byte) error {
	if err := u.Queue.WriteBuffer(u.Buffer, offset, data); err != nil {
		return fmt.Errorf("halgpu: write uniforms at %d: %w", offset, err)
	}
	return nil
}

// WriteRotor uploads r as eight little-endian float32 values.
func (u *UniformTarget) WriteRotor(r cmdbuf.Rotor) error {
	data, err := appendNarrowed(make([]byte, 0, RotorSize), "rotor", r[:])
	if err != nil {
		return err
	}
	return u.write(RotorOffset, data)
}

// WriteProjection uploads m in column-major order.
func (u *UniformTarget) WriteProjection(m mgl32.Mat4) error {
	return u.write(ProjectionOffset, appendFloat32s(make([]byte, 0, ProjectionSize), m[:]...))
}

// WriteNamed uploads the uniforms that have a slot in the layout. Names
// without a slot are skipped.
func (u *UniformTarget) WriteNamed(values map[string]cmdbuf.UniformValue) error {
	for name, v := range values {
		slot, ok := u.Layout[name]
		if !ok {
			vcb.Logger().Debug("halgpu: uniform has no slot", "name", name)
			continue
		}
		if v.Len() > slot.Components {
			return fmt.Errorf("%w: %q has %d components, slot holds %d",
				ErrUniformSize, name, v.Len(), slot.Components)
		}
		buf, err := appendNarrowed(make([]byte, 0, v.Len()*4), name, v.Values)
		if err != nil {
			return err
		}
		if err := u.write(slot.Offset, buf); err != nil {
			return err
		}
	}
	return nil
}

// appendNarrowed converts vs to float32 and appends them. Values that
// become NaN or infinite fail with ErrUniformRange.
func appendNarrowed(dst []byte, name string, vs []float64) ([]byte, error) {
	for i, v := range vs {
		f := float32(v)
		if math32.IsNaN(f) || math32.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s[%d] = %g", ErrUniformRange, name, i, v)
		}
		dst = binary.LittleEndian.AppendUint32(dst, math32.Float32bits(f))
	}
	return dst, nil
}

func appendFloat32s(dst []byte, vs ...float32) []byte {
	for _, v := range vs {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// ProjectionMatrix builds the 3D camera matrix for p at the given aspect
// ratio. The 4D projections (stereographic, oblique, slice) run in the
// vertex shader and get a default perspective camera.
func ProjectionMatrix(p cmdbuf.ProjectionCommand, aspect float32) mgl32.Mat4 {
	if aspect <= 0 || math.IsNaN(float64(aspect)) {
		aspect = 1
	}
	near, far := float32(p.Near), float32(p.Far)
	switch p.Kind {
	case cmdbuf.ProjectionOrthographic:
		return mgl32.Ortho(-aspect, aspect, -1, 1, near, far)
	case cmdbuf.ProjectionPerspective:
		return mgl32.Perspective(float32(p.FOV), aspect, near, far)
	default:
		return mgl32.Perspective(defaultFOV, aspect, near, far)
	}
}
