//go:build windows

// Package gdi is the fallback Windows backend for outputs that cannot be
// duplicated (remote sessions, older display drivers). It snapshots the
// desktop with BitBlt instead of waiting on a frame-ready signal, so every
// acquisition succeeds immediately with the current desktop contents.
package gdi

import (
	"errors"
	"fmt"
	"image"
	"syscall"
	"time"
	"unsafe"

	winapi "github.com/lxn/win"

	"github.com/suutaku/screencapture/internal/native"
)

var (
	libUser32, _               = syscall.LoadLibrary("user32.dll")
	funcGetDesktopWindow, _    = syscall.GetProcAddress(syscall.Handle(libUser32), "GetDesktopWindow")
	funcEnumDisplayMonitors, _ = syscall.GetProcAddress(syscall.Handle(libUser32), "EnumDisplayMonitors")
	funcGetMonitorInfo, _      = syscall.GetProcAddress(syscall.Handle(libUser32), "GetMonitorInfoW")
	funcEnumDisplaySettings, _ = syscall.GetProcAddress(syscall.Handle(libUser32), "EnumDisplaySettingsW")
)

// Session captures the desktop through a compatible DC. One DIB snapshot is
// held between AcquireFrame and ReleaseFrame.
type Session struct {
	bounds image.Rectangle
	hwnd   winapi.HWND
	hdc    winapi.HDC
	memDev winapi.HDC

	// state of the held frame
	bitmap winapi.HBITMAP
	hmem   winapi.HGLOBAL
	memptr unsafe.Pointer
}

// NewSession opens device contexts for the desktop window and resolves the
// real (DPI-unscaled) bounds of the requested display.
func NewSession(display int) (*Session, error) {
	hwnd := getDesktopWindow()
	hdc := winapi.GetDC(hwnd)
	if hdc == 0 {
		return nil, errors.New("gdi: GetDC failed")
	}
	memDev := winapi.CreateCompatibleDC(hdc)
	if memDev == 0 {
		winapi.ReleaseDC(hwnd, hdc)
		return nil, errors.New("gdi: CreateCompatibleDC failed")
	}

	bounds := displayBounds(display)
	if bounds.Empty() {
		winapi.DeleteDC(memDev)
		winapi.ReleaseDC(hwnd, hdc)
		return nil, fmt.Errorf("gdi: no display %d", display)
	}

	return &Session{
		bounds: bounds,
		hwnd:   hwnd,
		hdc:    hdc,
		memDev: memDev,
	}, nil
}

func (s *Session) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.bounds.Dx(), s.bounds.Dy())
}

// AcquireFrame snapshots the whole display into a DIB. GDI has no frame-ready
// signal, so the timeout is accepted for contract symmetry and never waited on.
func (s *Session) AcquireFrame(_ time.Duration) (*native.Frame, error) {
	if s.bitmap != 0 {
		return nil, native.ErrFrameHeld
	}

	w, h := s.bounds.Dx(), s.bounds.Dy()

	bitmap := winapi.CreateCompatibleBitmap(s.hdc, int32(w), int32(h))
	if bitmap == 0 {
		return nil, fmt.Errorf("%w: gdi: CreateCompatibleBitmap failed", native.ErrOutOfMemory)
	}

	var header winapi.BITMAPINFOHEADER
	header.BiSize = uint32(unsafe.Sizeof(header))
	header.BiPlanes = 1
	header.BiBitCount = 32
	header.BiWidth = int32(w)
	header.BiHeight = int32(-h)
	header.BiCompression = winapi.BI_RGB
	header.BiSizeImage = 0

	// GetDIBits balks at using Go memory on some systems. The MSDN example uses
	// GlobalAlloc, so we'll do that too. See:
	// https://docs.microsoft.com/en-gb/windows/desktop/gdi/capturing-an-image
	bitmapDataSize := uintptr(((int64(w)*int64(header.BiBitCount) + 31) / 32) * 4 * int64(h))
	hmem := winapi.GlobalAlloc(winapi.GMEM_MOVEABLE, bitmapDataSize)
	if hmem == 0 {
		winapi.DeleteObject(winapi.HGDIOBJ(bitmap))
		return nil, fmt.Errorf("%w: gdi: GlobalAlloc failed", native.ErrOutOfMemory)
	}
	memptr := winapi.GlobalLock(hmem)
	if memptr == nil {
		winapi.GlobalFree(hmem)
		winapi.DeleteObject(winapi.HGDIOBJ(bitmap))
		return nil, fmt.Errorf("%w: gdi: GlobalLock failed", native.ErrOutOfMemory)
	}

	release := func() {
		winapi.GlobalUnlock(hmem)
		winapi.GlobalFree(hmem)
		winapi.DeleteObject(winapi.HGDIOBJ(bitmap))
	}

	old := winapi.SelectObject(s.memDev, winapi.HGDIOBJ(bitmap))
	if old == 0 {
		release()
		return nil, errors.New("gdi: SelectObject failed")
	}
	defer winapi.SelectObject(s.memDev, old)

	if !winapi.BitBlt(s.memDev, 0, 0, int32(w), int32(h), s.hdc, int32(s.bounds.Min.X), int32(s.bounds.Min.Y), winapi.SRCCOPY) {
		release()
		// BitBlt starts failing when the desktop composition changes
		// underneath us (lock screen, mode switch).
		return nil, fmt.Errorf("%w: gdi: BitBlt failed", native.ErrAccessLost)
	}

	if winapi.GetDIBits(s.hdc, bitmap, 0, uint32(h), (*uint8)(memptr), (*winapi.BITMAPINFO)(unsafe.Pointer(&header)), winapi.DIB_RGB_COLORS) == 0 {
		release()
		return nil, fmt.Errorf("%w: gdi: GetDIBits failed", native.ErrAccessLost)
	}

	s.bitmap = bitmap
	s.hmem = hmem
	s.memptr = memptr

	return &native.Frame{
		Pix:    unsafe.Slice((*byte)(memptr), int(bitmapDataSize)),
		Stride: w * native.BytesPerPixel,
		Width:  w,
		Height: h,
		Format: native.FormatBGRA,
	}, nil
}

// ReleaseFrame frees the DIB snapshot backing the held frame.
func (s *Session) ReleaseFrame() error {
	if s.bitmap == 0 {
		return native.ErrNoFrame
	}
	winapi.GlobalUnlock(s.hmem)
	winapi.GlobalFree(s.hmem)
	winapi.DeleteObject(winapi.HGDIOBJ(s.bitmap))
	s.bitmap = 0
	s.hmem = 0
	s.memptr = nil
	return nil
}

func (s *Session) Close() error {
	if s.bitmap != 0 {
		s.ReleaseFrame()
	}
	winapi.ReleaseDC(s.hwnd, s.hdc)
	winapi.DeleteDC(s.memDev)
	return nil
}

// DisplayNumber reports how many monitors are attached.
func DisplayNumber() int {
	var count int = 0
	enumDisplayMonitors(winapi.HDC(0), nil, syscall.NewCallback(countupMonitorCallback), uintptr(unsafe.Pointer(&count)))
	return count
}

func displayBounds(num int) image.Rectangle {
	var ctx getMonitorBoundsContext
	ctx.Index = num
	ctx.Count = 0
	enumDisplayMonitors(winapi.HDC(0), nil, syscall.NewCallback(getMonitorBoundsCallback), uintptr(unsafe.Pointer(&ctx)))
	return image.Rect(
		int(ctx.Rect.Left), int(ctx.Rect.Top),
		int(ctx.Rect.Right), int(ctx.Rect.Bottom))
}

func getDesktopWindow() winapi.HWND {
	ret, _, _ := syscall.Syscall(funcGetDesktopWindow, 0, 0, 0, 0)
	return winapi.HWND(ret)
}

func enumDisplayMonitors(hdc winapi.HDC, lprcClip *winapi.RECT, lpfnEnum uintptr, dwData uintptr) bool {
	ret, _, _ := syscall.Syscall6(funcEnumDisplayMonitors, 4,
		uintptr(hdc),
		uintptr(unsafe.Pointer(lprcClip)),
		lpfnEnum,
		dwData,
		0,
		0)
	return int(ret) != 0
}

func countupMonitorCallback(hMonitor winapi.HMONITOR, hdcMonitor winapi.HDC, lprcMonitor *winapi.RECT, dwData uintptr) uintptr {
	var count *int
	count = (*int)(unsafe.Pointer(dwData))
	*count = *count + 1
	return uintptr(1)
}

type getMonitorBoundsContext struct {
	Index int
	Rect  winapi.RECT
	Count int
}

func getMonitorBoundsCallback(hMonitor winapi.HMONITOR, hdcMonitor winapi.HDC, lprcMonitor *winapi.RECT, dwData uintptr) uintptr {
	var ctx *getMonitorBoundsContext
	ctx = (*getMonitorBoundsContext)(unsafe.Pointer(dwData))
	if ctx.Count != ctx.Index {
		ctx.Count = ctx.Count + 1
		return uintptr(1)
	}

	if realSize := getMonitorRealSize(hMonitor); realSize != nil {
		ctx.Rect = *realSize
	} else {
		ctx.Rect = *lprcMonitor
	}

	return uintptr(0)
}

type _MONITORINFOEX struct {
	winapi.MONITORINFO
	DeviceName [winapi.CCHDEVICENAME]uint16
}

const _ENUM_CURRENT_SETTINGS = 0xFFFFFFFF

type _DEVMODE struct {
	_            [68]byte
	DmSize       uint16
	_            [6]byte
	DmPosition   winapi.POINT
	_            [86]byte
	DmPelsWidth  uint32
	DmPelsHeight uint32
	_            [40]byte
}

// getMonitorRealSize makes a call to GetMonitorInfo
// to obtain the device name for the monitor handle
// provided to the method.
//
// With the device name, EnumDisplaySettings is called to
// obtain the current configuration for the monitor, this
// information includes the real resolution of the monitor
// rather than the scaled version based on DPI.
//
// If either handle calls fail, it will return a nil
// allowing the calling method to use the bounds information
// returned by EnumDisplayMonitors which may be affected
// by DPI.
func getMonitorRealSize(hMonitor winapi.HMONITOR) *winapi.RECT {
	info := _MONITORINFOEX{}
	info.CbSize = uint32(unsafe.Sizeof(info))

	ret, _, _ := syscall.Syscall(funcGetMonitorInfo, 2, uintptr(hMonitor), uintptr(unsafe.Pointer(&info)), 0)
	if ret == 0 {
		return nil
	}

	devMode := _DEVMODE{}
	devMode.DmSize = uint16(unsafe.Sizeof(devMode))

	if ret, _, _ := syscall.Syscall(funcEnumDisplaySettings, 3, uintptr(unsafe.Pointer(&info.DeviceName[0])), _ENUM_CURRENT_SETTINGS, uintptr(unsafe.Pointer(&devMode))); ret == 0 {
		return nil
	}

	return &winapi.RECT{
		Left:   devMode.DmPosition.X,
		Right:  devMode.DmPosition.X + int32(devMode.DmPelsWidth),
		Top:    devMode.DmPosition.Y,
		Bottom: devMode.DmPosition.Y + int32(devMode.DmPelsHeight),
	}
}
