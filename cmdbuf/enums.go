package cmdbuf

import "fmt"

// BlendMode selects the color blending equation. Values are part of the wire format.
type BlendMode uint8

const (
	BlendNone          BlendMode = 0
	BlendAlpha         BlendMode = 1
	BlendAdditive      BlendMode = 2
	BlendMultiply      BlendMode = 3
	BlendScreen        BlendMode = 4
	BlendPremultiplied BlendMode = 5
)

var blendModeNames = [...]string{
	BlendNone:          "NONE",
	BlendAlpha:         "ALPHA",
	BlendAdditive:      "ADDITIVE",
	BlendMultiply:      "MULTIPLY",
	BlendScreen:        "SCREEN",
	BlendPremultiplied: "PREMULTIPLIED",
}

// Valid reports whether m is a member of the vocabulary.
func (m BlendMode) Valid() bool { return int(m) < len(blendModeNames) }

func (m BlendMode) String() string {
	if m.Valid() {
		return blendModeNames[m]
	}
	return fmt.Sprintf("BlendMode(%d)", uint8(m))
}

// Topology is the primitive assembly rule for a draw. Values are part of the wire format.
type Topology uint8

const (
	TopologyPointList     Topology = 0
	TopologyLineList      Topology = 1
	TopologyLineStrip     Topology = 2
	TopologyTriangleList  Topology = 3
	TopologyTriangleStrip Topology = 4
	TopologyTriangleFan   Topology = 5
)

var topologyNames = [...]string{
	TopologyPointList:     "POINT_LIST",
	TopologyLineList:      "LINE_LIST",
	TopologyLineStrip:     "LINE_STRIP",
	TopologyTriangleList:  "TRIANGLE_LIST",
	TopologyTriangleStrip: "TRIANGLE_STRIP",
	TopologyTriangleFan:   "TRIANGLE_FAN",
}

// Valid reports whether t is a member of the vocabulary.
func (t Topology) Valid() bool { return int(t) < len(topologyNames) }

func (t Topology) String() string {
	if t.Valid() {
		return topologyNames[t]
	}
	return fmt.Sprintf("Topology(%d)", uint8(t))
}

// Triangles returns how many triangles count vertices (or indices) produce
// under t. Point and line topologies produce none.
func (t Topology) Triangles(count uint32) uint64 {
	switch t {
	case TopologyTriangleList:
		return uint64(count / 3)
	case TopologyTriangleStrip, TopologyTriangleFan:
		if count < 3 {
			return 0
		}
		return uint64(count - 2)
	default:
		return 0
	}
}

// DepthFunc is the depth (and stencil) comparison function. Values are part of the wire format.
type DepthFunc uint8

const (
	DepthNever    DepthFunc = 0
	DepthLess     DepthFunc = 1
	DepthEqual    DepthFunc = 2
	DepthLEqual   DepthFunc = 3
	DepthGreater  DepthFunc = 4
	DepthNotEqual DepthFunc = 5
	DepthGEqual   DepthFunc = 6
	DepthAlways   DepthFunc = 7
)

var depthFuncNames = [...]string{
	DepthNever:    "NEVER",
	DepthLess:     "LESS",
	DepthEqual:    "EQUAL",
	DepthLEqual:   "LEQUAL",
	DepthGreater:  "GREATER",
	DepthNotEqual: "NOTEQUAL",
	DepthGEqual:   "GEQUAL",
	DepthAlways:   "ALWAYS",
}

// Valid reports whether f is a member of the vocabulary.
func (f DepthFunc) Valid() bool { return int(f) < len(depthFuncNames) }

func (f DepthFunc) String() string {
	if f.Valid() {
		return depthFuncNames[f]
	}
	return fmt.Sprintf("DepthFunc(%d)", uint8(f))
}

// IndexFormat is the element type of an index buffer.
type IndexFormat string

const (
	IndexUint16 IndexFormat = "uint16"
	IndexUint32 IndexFormat = "uint32"
)

// Valid reports whether f names a supported index format.
func (f IndexFormat) Valid() bool { return f == IndexUint16 || f == IndexUint32 }

// Size returns the size of one index in bytes, or 0 for an invalid format.
func (f IndexFormat) Size() int {
	switch f {
	case IndexUint16:
		return 2
	case IndexUint32:
		return 4
	default:
		return 0
	}
}

// ProjectionType selects how 4D geometry is projected into 3D.
type ProjectionType string

const (
	ProjectionPerspective   ProjectionType = "perspective"
	ProjectionStereographic ProjectionType = "stereographic"
	ProjectionOrthographic  ProjectionType = "orthographic"
	ProjectionOblique       ProjectionType = "oblique"
	ProjectionSlice         ProjectionType = "slice"
)

// Valid reports whether p names a known projection.
func (p ProjectionType) Valid() bool {
	switch p {
	case ProjectionPerspective, ProjectionStereographic, ProjectionOrthographic,
		ProjectionOblique, ProjectionSlice:
		return true
	}
	return false
}
