//go:build windows

// Package dxgi drives IDXGIOutputDuplication through raw COM vtable calls, so
// it needs neither cgo nor the Windows SDK. The duplication grants read access
// to the composited desktop without re-rendering it; one frame at a time is
// borrowed from it, copied to a CPU-readable staging texture, and mapped.
package dxgi

import (
	"image"
	"time"
	"unsafe"

	"github.com/suutaku/screencapture/internal/native"
)

// Session owns a D3D11 device and the output duplication created from it.
// Not safe for concurrent use.
type Session struct {
	device      *iD3D11Device
	context     *iD3D11DeviceContext
	duplication *iDXGIOutputDuplication
	staging     *iD3D11Texture2D

	width  int
	height int

	held   bool
	mapped bool
}

// NewSession creates the compute device and duplicates the given output
// (0 is the primary display). Fails with native.ErrUnsupported when this
// output cannot be duplicated, e.g. inside a remote session.
func NewSession(display int) (*Session, error) {
	device, context, err := createDevice()
	if err != nil {
		return nil, err
	}

	var dxgiDevice *iDXGIDevice
	if hr := device.QueryInterface(&iidIDXGIDevice, unsafe.Pointer(&dxgiDevice)); hr.failed() {
		context.Release()
		device.Release()
		return nil, wrapHR("QueryInterface(IDXGIDevice)", hr)
	}

	var adapter *iDXGIAdapter
	hr := dxgiDevice.GetAdapter(&adapter)
	dxgiDevice.Release()
	if hr.failed() {
		context.Release()
		device.Release()
		return nil, wrapHR("GetAdapter", hr)
	}

	var output *iDXGIOutput
	hr = adapter.EnumOutputs(uint32(display), &output)
	adapter.Release()
	if hr.failed() {
		context.Release()
		device.Release()
		return nil, wrapHR("EnumOutputs", hr)
	}

	var output1 *iDXGIOutput1
	hr = (*iUnknown)(unsafe.Pointer(output)).QueryInterface(&iidIDXGIOutput1, unsafe.Pointer(&output1))
	output.Release()
	if hr.failed() {
		context.Release()
		device.Release()
		return nil, wrapHR("QueryInterface(IDXGIOutput1)", hr)
	}

	var duplication *iDXGIOutputDuplication
	hr = output1.DuplicateOutput(device, &duplication)
	output1.Release()
	if hr.failed() {
		context.Release()
		device.Release()
		return nil, wrapHR("DuplicateOutput", hr)
	}

	var desc _DXGI_OUTDUPL_DESC
	duplication.GetDesc(&desc)

	return &Session{
		device:      device,
		context:     context,
		duplication: duplication,
		width:       int(desc.ModeDesc.Width),
		height:      int(desc.ModeDesc.Height),
	}, nil
}

func (s *Session) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// AcquireFrame waits up to timeout for the next desktop frame, copies it to
// the staging texture and maps it. The returned frame aliases the mapped
// staging memory and stays valid until ReleaseFrame.
func (s *Session) AcquireFrame(timeout time.Duration) (*native.Frame, error) {
	if s.held {
		return nil, native.ErrFrameHeld
	}

	var info _DXGI_OUTDUPL_FRAME_INFO
	var resource *iUnknown
	hr := s.duplication.AcquireNextFrame(uint32(timeout.Milliseconds()), &info, &resource)
	if hr.failed() {
		return nil, wrapHR("AcquireNextFrame", hr)
	}

	var gpuTex *iD3D11Texture2D
	hr = resource.QueryInterface(&iidID3D11Texture2D, unsafe.Pointer(&gpuTex))
	resource.Release()
	if hr.failed() {
		s.duplication.ReleaseFrame()
		return nil, wrapHR("QueryInterface(ID3D11Texture2D)", hr)
	}

	if s.staging == nil {
		var desc _D3D11_TEXTURE2D_DESC
		gpuTex.GetDesc(&desc)
		desc.Usage = _D3D11_USAGE_STAGING
		desc.CPUAccessFlags = _D3D11_CPU_ACCESS_READ
		desc.BindFlags = 0
		desc.MiscFlags = 0
		desc.MipLevels = 1
		desc.ArraySize = 1
		desc.SampleDesc.Count = 1

		if hr := s.device.CreateTexture2D(&desc, &s.staging); hr.failed() {
			gpuTex.Release()
			s.duplication.ReleaseFrame()
			return nil, wrapHR("CreateTexture2D(staging)", hr)
		}
	}

	s.context.CopyResource(unsafe.Pointer(s.staging), unsafe.Pointer(gpuTex))
	gpuTex.Release()

	var mapped _D3D11_MAPPED_SUBRESOURCE
	if hr := s.context.Map(unsafe.Pointer(s.staging), 0, _D3D11_MAP_READ, &mapped); hr.failed() {
		s.duplication.ReleaseFrame()
		return nil, wrapHR("Map(staging)", hr)
	}

	s.held = true
	s.mapped = true

	pitch := int(mapped.RowPitch)
	pix := unsafe.Slice((*byte)(unsafe.Pointer(mapped.PData)), pitch*s.height)
	return &native.Frame{
		Pix:    pix,
		Stride: pitch,
		Width:  s.width,
		Height: s.height,
		Format: native.FormatBGRA,
	}, nil
}

// ReleaseFrame unmaps the staging texture and hands the frame back to the
// duplication. Until this runs, no further acquisition can succeed.
func (s *Session) ReleaseFrame() error {
	if !s.held {
		return native.ErrNoFrame
	}
	if s.mapped {
		s.context.Unmap(unsafe.Pointer(s.staging), 0)
		s.mapped = false
	}
	hr := s.duplication.ReleaseFrame()
	s.held = false
	if hr.failed() {
		return wrapHR("ReleaseFrame", hr)
	}
	return nil
}

func (s *Session) Close() error {
	if s.held {
		s.ReleaseFrame()
	}
	if s.staging != nil {
		s.staging.Release()
		s.staging = nil
	}
	if s.duplication != nil {
		s.duplication.Release()
		s.duplication = nil
	}
	if s.context != nil {
		s.context.Release()
		s.context = nil
	}
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
	return nil
}
