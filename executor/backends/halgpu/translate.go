package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/vib3/vcb/cmdbuf"
)

// primitiveTopology maps a wire topology onto WebGPU. Fans have no WebGPU
// equivalent.
func primitiveTopology(t cmdbuf.Topology) (gputypes.PrimitiveTopology, error) {
	switch t {
	case cmdbuf.TopologyPointList:
		return gputypes.PrimitiveTopologyPointList, nil
	case cmdbuf.TopologyLineList:
		return gputypes.PrimitiveTopologyLineList, nil
	case cmdbuf.TopologyLineStrip:
		return gputypes.PrimitiveTopologyLineStrip, nil
	case cmdbuf.TopologyTriangleList:
		return gputypes.PrimitiveTopologyTriangleList, nil
	case cmdbuf.TopologyTriangleStrip:
		return gputypes.PrimitiveTopologyTriangleStrip, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedTopology, t)
	}
}

func isStrip(t gputypes.PrimitiveTopology) bool {
	return t == gputypes.PrimitiveTopologyLineStrip || t == gputypes.PrimitiveTopologyTriangleStrip
}

var compareFunctions = [...]gputypes.CompareFunction{
	cmdbuf.DepthNever:    gputypes.CompareFunctionNever,
	cmdbuf.DepthLess:     gputypes.CompareFunctionLess,
	cmdbuf.DepthEqual:    gputypes.CompareFunctionEqual,
	cmdbuf.DepthLEqual:   gputypes.CompareFunctionLessEqual,
	cmdbuf.DepthGreater:  gputypes.CompareFunctionGreater,
	cmdbuf.DepthNotEqual: gputypes.CompareFunctionNotEqual,
	cmdbuf.DepthGEqual:   gputypes.CompareFunctionGreaterEqual,
	cmdbuf.DepthAlways:   gputypes.CompareFunctionAlways,
}

// compareFunction maps a wire comparison onto WebGPU. Out-of-range values
// map to Always.
func compareFunction(f cmdbuf.DepthFunc) gputypes.CompareFunction {
	if !f.Valid() {
		return gputypes.CompareFunctionAlways
	}
	return compareFunctions[f]
}

func indexFormat(f cmdbuf.IndexFormat) (gputypes.IndexFormat, error) {
	switch f {
	case cmdbuf.IndexUint16:
		return gputypes.IndexFormatUint16, nil
	case cmdbuf.IndexUint32:
		return gputypes.IndexFormatUint32, nil
	default:
		return gputypes.IndexFormatUndefined, fmt.Errorf("halgpu: index format %q", f)
	}
}

// blendState returns the color target blend for m. BlendNone disables
// blending and returns nil.
func blendState(m cmdbuf.BlendMode) *gputypes.BlendState {
	var s gputypes.BlendState
	switch m {
	case cmdbuf.BlendAlpha:
		s = gputypes.BlendStateAlpha()
	case cmdbuf.BlendPremultiplied:
		s = gputypes.BlendStatePremultiplied()
	case cmdbuf.BlendAdditive:
		s = blendEquation(gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOne)
	case cmdbuf.BlendMultiply:
		s = blendEquation(gputypes.BlendFactorDst, gputypes.BlendFactorOneMinusSrcAlpha)
	case cmdbuf.BlendScreen:
		s = blendEquation(gputypes.BlendFactorOne, gputypes.BlendFactorOneMinusSrc)
	default:
		return nil
	}
	return &s
}

func blendEquation(src, dst gputypes.BlendFactor) gputypes.BlendState {
	c := gputypes.BlendComponent{
		SrcFactor: src,
		DstFactor: dst,
		Operation: gputypes.BlendOperationAdd,
	}
	return gputypes.BlendState{Color: c, Alpha: c}
}

// clearColor defaults to transparent black.
func clearColor(c *cmdbuf.Color) gputypes.Color {
	if c == nil {
		return gputypes.Color{}
	}
	return gputypes.Color{R: c[0], G: c[1], B: c[2], A: c[3]}
}
