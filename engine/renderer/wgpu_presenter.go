package renderer

import (
	"errors"
	"fmt"
	"image"
	"runtime"
	"slices"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrPresenterClosed is returned by Present and Configure after Close.
var ErrPresenterClosed = errors.New("renderer: presenter closed")

// wgpuPresenter uploads CPU-rendered frames into the swapchain texture of a WebGPU surface.
type wgpuPresenter struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	swizzle       bool // surface stores BGRA, frames are RGBA
	presentMode   wgpu.PresentMode

	width, height int
	staging       []byte
	closed        bool
}

var _ Presenter = &wgpuPresenter{}

// NewWGPUPresenter creates a Presenter for the surface described by surfaceDescriptor.
// The calling goroutine is locked to its OS thread, which must be the thread that
// created the window.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor of the target window
//   - forceFallbackAdapter: true to request a software adapter
//   - mode: the present mode
//
// Returns:
//   - Presenter: the presenter, not yet configured
//   - error: an error if no adapter or device could be acquired
func NewWGPUPresenter(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool, mode PresentMode) (Presenter, error) {
	if surfaceDescriptor == nil {
		return nil, errors.New("renderer: nil surface descriptor")
	}
	runtime.LockOSThread()
	p := &wgpuPresenter{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeFifo,
	}
	if mode == PresentModeUncapped {
		p.presentMode = wgpu.PresentModeImmediate
	}
	p.surface = p.instance.CreateSurface(surfaceDescriptor)

	a, err := p.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    p.surface,
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("renderer: request adapter: %w", err)
	}
	p.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Presenter Device",
	})
	if err != nil {
		p.release()
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	p.device = d
	p.queue = d.GetQueue()
	return p, nil
}

func (p *wgpuPresenter) Configure(width, height int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPresenterClosed
	}
	if width <= 0 || height <= 0 {
		// Minimized windows report a zero framebuffer; keep the old configuration.
		return nil
	}

	capabilities := p.surface.GetCapabilities(p.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return errors.New("renderer: surface is not supported by the adapter")
	}
	p.surfaceFormat = capabilities.Formats[0]
	for _, f := range []wgpu.TextureFormat{wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatRGBA8Unorm} {
		if slices.Contains(capabilities.Formats, f) {
			p.surfaceFormat = f
			break
		}
	}
	p.swizzle = p.surfaceFormat == wgpu.TextureFormatBGRA8Unorm || p.surfaceFormat == wgpu.TextureFormatBGRA8UnormSrgb

	p.surface.Configure(p.adapter, p.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopyDst,
		Format:      p.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: p.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	p.width, p.height = width, height
	return nil
}

func (p *wgpuPresenter) Present(img *image.RGBA) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPresenterClosed
	}
	b := img.Bounds()
	if b.Dx() != p.width || b.Dy() != p.height {
		return fmt.Errorf("renderer: frame is %dx%d, surface is %dx%d", b.Dx(), b.Dy(), p.width, p.height)
	}

	surfaceTexture, err := p.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("renderer: acquire surface texture: %w", err)
	}
	defer surfaceTexture.Release()

	p.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  surfaceTexture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		p.pixels(img),
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(p.width * 4),
			RowsPerImage: uint32(p.height),
		},
		&wgpu.Extent3D{
			Width:              uint32(p.width),
			Height:             uint32(p.height),
			DepthOrArrayLayers: 1,
		},
	)
	p.surface.Present()
	return nil
}

// pixels returns tightly packed rows in the surface's channel order. Caller must hold the mutex.
func (p *wgpuPresenter) pixels(img *image.RGBA) []byte {
	rowBytes := p.width * 4
	if !p.swizzle && img.Stride == rowBytes {
		return img.Pix[:rowBytes*p.height]
	}
	if cap(p.staging) < rowBytes*p.height {
		p.staging = make([]byte, rowBytes*p.height)
	}
	out := p.staging[:rowBytes*p.height]
	for y := 0; y < p.height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+rowBytes]
		dst := out[y*rowBytes : (y+1)*rowBytes]
		copy(dst, src)
		if p.swizzle {
			for i := 0; i < rowBytes; i += 4 {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	return out
}

func (p *wgpuPresenter) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.release()
	p.staging = nil
	return nil
}

// release frees the native handles in reverse order of acquisition. Caller must hold
// the mutex or own p exclusively.
func (p *wgpuPresenter) release() {
	if p.queue != nil {
		p.queue.Release()
		p.queue = nil
	}
	if p.device != nil {
		p.device.Release()
		p.device = nil
	}
	if p.adapter != nil {
		p.adapter.Release()
		p.adapter = nil
	}
	if p.surface != nil {
		p.surface.Release()
		p.surface = nil
	}
	if p.instance != nil {
		p.instance.Release()
		p.instance = nil
	}
}
