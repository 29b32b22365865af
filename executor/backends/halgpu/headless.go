package halgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/executor"
)

// Default headless target size.
const (
	DefaultWidth  = 512
	DefaultHeight = 512
)

// Target formats used by NewHeadless and NewFromProvider.
const (
	ColorFormat = gputypes.TextureFormatRGBA8Unorm
	DepthFormat = gputypes.TextureFormatDepth24PlusStencil8
)

func init() {
	executor.RegisterBackend(executor.BackendHALNoop, func() executor.Backend {
		b, err := NewHeadless(DefaultWidth, DefaultHeight)
		if err != nil {
			vcb.Logger().Warn("halgpu: headless backend unavailable", "err", err)
			return nil
		}
		return b
	})
}

// NewHeadless opens the noop HAL device and renders into offscreen color
// and depth/stencil textures of the given size. Close releases the device.
func NewHeadless(width, height uint32, opts ...Option) (*Backend, error) {
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		return nil, fmt.Errorf("halgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, errors.New("halgpu: no adapters")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("halgpu: open device: %w", err)
	}
	b, err := newOffscreen(open.Device, open.Queue, width, height, opts...)
	if err != nil {
		open.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	b.onClose = append(b.onClose, open.Device.Destroy, instance.Destroy)
	return b, nil
}

// NewFromProvider renders offscreen on the device of a gpucontext provider.
// The provider must expose HalDevice() and HalQueue() returning hal.Device
// and hal.Queue. The device stays owned by the provider.
func NewFromProvider(provider gpucontext.DeviceProvider, width, height uint32, opts ...Option) (*Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, errors.New("halgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, errors.New("halgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, errors.New("halgpu: provider HalQueue is not hal.Queue")
	}
	info := provider.AdapterInfo()
	vcb.Logger().Info("halgpu: using provider device", "adapter", info.Name, "type", info.Type.String())
	return newOffscreen(device, queue, width, height, opts...)
}

func newOffscreen(device hal.Device, queue hal.Queue, width, height uint32, opts ...Option) (*Backend, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("halgpu: invalid target size %dx%d", width, height)
	}
	size := hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	color, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "vcb_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        ColorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create color target: %w", err)
	}
	depth, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "vcb_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		device.DestroyTexture(color)
		return nil, fmt.Errorf("halgpu: create depth target: %w", err)
	}
	colorView, err := device.CreateTextureView(color, &hal.TextureViewDescriptor{Label: "vcb_color_view"})
	if err != nil {
		device.DestroyTexture(depth)
		device.DestroyTexture(color)
		return nil, fmt.Errorf("halgpu: create color view: %w", err)
	}
	depthView, err := device.CreateTextureView(depth, &hal.TextureViewDescriptor{Label: "vcb_depth_view"})
	if err != nil {
		device.DestroyTextureView(colorView)
		device.DestroyTexture(depth)
		device.DestroyTexture(color)
		return nil, fmt.Errorf("halgpu: create depth view: %w", err)
	}
	b := New(device, queue, Target{
		Color:  colorView,
		Depth:  depthView,
		Width:  width,
		Height: height,
	}, opts...)
	b.onClose = append(b.onClose, func() {
		device.DestroyTextureView(depthView)
		device.DestroyTextureView(colorView)
		device.DestroyTexture(depth)
		device.DestroyTexture(color)
	})
	return b, nil
}
