package halgpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/vib3/vcb/cmdbuf"
)

func TestPrimitiveTopology(t *testing.T) {
	tests := []struct {
		in      cmdbuf.Topology
		want    gputypes.PrimitiveTopology
		wantErr bool
	}{
		{cmdbuf.TopologyPointList, gputypes.PrimitiveTopologyPointList, false},
		{cmdbuf.TopologyLineList, gputypes.PrimitiveTopologyLineList, false},
		{cmdbuf.TopologyLineStrip, gputypes.PrimitiveTopologyLineStrip, false},
		{cmdbuf.TopologyTriangleList, gputypes.PrimitiveTopologyTriangleList, false},
		{cmdbuf.TopologyTriangleStrip, gputypes.PrimitiveTopologyTriangleStrip, false},
		{cmdbuf.TopologyTriangleFan, 0, true},
		{cmdbuf.Topology(42), 0, true},
	}
	for _, tt := range tests {
		got, err := primitiveTopology(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedTopology) {
				t.Errorf("primitiveTopology(%v) error = %v, want ErrUnsupportedTopology", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("primitiveTopology(%v) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestCompareFunction(t *testing.T) {
	tests := []struct {
		in   cmdbuf.DepthFunc
		want gputypes.CompareFunction
	}{
		{cmdbuf.DepthNever, gputypes.CompareFunctionNever},
		{cmdbuf.DepthLess, gputypes.CompareFunctionLess},
		{cmdbuf.DepthEqual, gputypes.CompareFunctionEqual},
		{cmdbuf.DepthLEqual, gputypes.CompareFunctionLessEqual},
		{cmdbuf.DepthGreater, gputypes.CompareFunctionGreater},
		{cmdbuf.DepthNotEqual, gputypes.CompareFunctionNotEqual},
		{cmdbuf.DepthGEqual, gputypes.CompareFunctionGreaterEqual},
		{cmdbuf.DepthAlways, gputypes.CompareFunctionAlways},
		{cmdbuf.DepthFunc(200), gputypes.CompareFunctionAlways},
	}
	for _, tt := range tests {
		if got := compareFunction(tt.in); got != tt.want {
			t.Errorf("compareFunction(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIndexFormat(t *testing.T) {
	if f, err := indexFormat(cmdbuf.IndexUint16); err != nil || f != gputypes.IndexFormatUint16 {
		t.Errorf("indexFormat(uint16) = %v, %v", f, err)
	}
	if f, err := indexFormat(cmdbuf.IndexUint32); err != nil || f != gputypes.IndexFormatUint32 {
		t.Errorf("indexFormat(uint32) = %v, %v", f, err)
	}
	if _, err := indexFormat("uint8"); err == nil {
		t.Error("indexFormat(uint8) succeeded")
	}
}

func TestBlendState(t *testing.T) {
	if s := blendState(cmdbuf.BlendNone); s != nil {
		t.Errorf("blendState(NONE) = %+v, want nil", s)
	}
	if s := blendState(cmdbuf.BlendAlpha); s == nil || *s != gputypes.BlendStateAlpha() {
		t.Errorf("blendState(ALPHA) = %+v", s)
	}
	if s := blendState(cmdbuf.BlendPremultiplied); s == nil || *s != gputypes.BlendStatePremultiplied() {
		t.Errorf("blendState(PREMULTIPLIED) = %+v", s)
	}
	add := blendState(cmdbuf.BlendAdditive)
	if add == nil || add.Color.DstFactor != gputypes.BlendFactorOne || add.Color.Operation != gputypes.BlendOperationAdd {
		t.Errorf("blendState(ADDITIVE) = %+v", add)
	}
	mul := blendState(cmdbuf.BlendMultiply)
	if mul == nil || mul.Color.SrcFactor != gputypes.BlendFactorDst {
		t.Errorf("blendState(MULTIPLY) = %+v", mul)
	}
	screen := blendState(cmdbuf.BlendScreen)
	if screen == nil || screen.Color.DstFactor != gputypes.BlendFactorOneMinusSrc {
		t.Errorf("blendState(SCREEN) = %+v", screen)
	}
}

func TestPipelineKeyDepthStencil(t *testing.T) {
	k := PipelineKey{
		DepthTest:        true,
		DepthCompare:     gputypes.CompareFunctionLessEqual,
		StencilTest:      true,
		StencilCompare:   gputypes.CompareFunctionEqual,
		StencilReadMask:  0x0F,
		StencilWriteMask: 0xF0,
	}
	if ds := k.DepthStencilState(gputypes.TextureFormatUndefined); ds != nil {
		t.Errorf("DepthStencilState(undefined) = %+v, want nil", ds)
	}
	ds := k.DepthStencilState(DepthFormat)
	if ds.DepthCompare != gputypes.CompareFunctionLessEqual || ds.DepthWriteEnabled {
		t.Errorf("depth = %v write %v", ds.DepthCompare, ds.DepthWriteEnabled)
	}
	if ds.StencilFront.Compare != gputypes.CompareFunctionEqual || ds.StencilReadMask != 0x0F || ds.StencilWriteMask != 0xF0 {
		t.Errorf("stencil = %+v", ds)
	}

	off := PipelineKey{}.DepthStencilState(DepthFormat)
	if off.DepthCompare != gputypes.CompareFunctionAlways || off.StencilFront.Compare != gputypes.CompareFunctionAlways {
		t.Errorf("disabled depth/stencil = %+v, want always", off)
	}
}

func TestStripIndexFormatOnlyForStrips(t *testing.T) {
	strip := PipelineKey{Topology: gputypes.PrimitiveTopologyTriangleStrip, StripIndexFormat: gputypes.IndexFormatUint16}
	if p := strip.primitive(); p.StripIndexFormat == nil || *p.StripIndexFormat != gputypes.IndexFormatUint16 {
		t.Errorf("strip primitive = %+v", p)
	}
	list := PipelineKey{Topology: gputypes.PrimitiveTopologyTriangleList, StripIndexFormat: gputypes.IndexFormatUint16}
	if p := list.primitive(); p.StripIndexFormat != nil {
		t.Errorf("list primitive StripIndexFormat = %v, want nil", *p.StripIndexFormat)
	}
}
