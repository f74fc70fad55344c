//go:build darwin

// Package cg captures a display through CoreGraphics. A capture renders the
// display image into a bitmap context backed by ordinary Go memory, so the
// frame needs no native release step beyond dropping the reference.
package cg

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
void* CompatCGDisplayCreateImageForRect(CGDirectDisplayID display, CGRect rect) {
	return CGDisplayCreateImageForRect(display, rect);
}
void CompatCGImageRelease(void* image) {
	CGImageRelease(image);
}
void* CompatCGImageCreateCopyWithColorSpace(void* image, CGColorSpaceRef space) {
	return CGImageCreateCopyWithColorSpace((CGImageRef)image, space);
}
void CompatCGContextDrawImage(CGContextRef c, CGRect rect, void* image) {
	CGContextDrawImage(c, rect, (CGImageRef)image);
}
*/
import "C"
import (
	"fmt"
	"image"
	"time"
	"unsafe"

	"github.com/suutaku/screencapture/internal/native"
)

// Session duplicates one CoreGraphics display.
type Session struct {
	id     C.CGDirectDisplayID
	width  int
	height int
	held   bool
}

// NewSession resolves the display id and bounds for the given display index
// (0 is the main display).
func NewSession(display int) (*Session, error) {
	id := displayID(display)
	if id == 0 {
		return nil, fmt.Errorf("cg: no display %d", display)
	}
	bounds := C.CGDisplayBounds(id)
	return &Session{
		id:     id,
		width:  int(bounds.size.width),
		height: int(bounds.size.height),
	}, nil
}

func (s *Session) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// AcquireFrame renders the current display contents into a fresh pixel
// buffer. CoreGraphics serves the request synchronously, so the timeout is
// accepted for contract symmetry and never waited on.
func (s *Session) AcquireFrame(_ time.Duration) (*native.Frame, error) {
	if s.held {
		return nil, native.ErrFrameHeld
	}

	buf := make([]byte, s.width*s.height*native.BytesPerPixel)

	ctx := createBitmapContext(s.width, s.height, (*C.uint32_t)(unsafe.Pointer(&buf[0])), s.width*native.BytesPerPixel)
	if ctx == 0 {
		return nil, fmt.Errorf("%w: cg: cannot create bitmap context", native.ErrOutOfMemory)
	}
	defer C.CGContextRelease(ctx)

	colorSpace := createColorspace()
	if colorSpace == 0 {
		return nil, fmt.Errorf("%w: cg: cannot create colorspace", native.ErrOutOfMemory)
	}
	defer C.CGColorSpaceRelease(colorSpace)

	rect := C.CGRectMake(0, 0, C.CGFloat(s.width), C.CGFloat(s.height))
	captured := C.CompatCGDisplayCreateImageForRect(s.id, rect)
	if captured == nil {
		// Capture is denied while the session is locked or detached.
		return nil, fmt.Errorf("%w: cg: cannot capture display", native.ErrAccessLost)
	}
	defer C.CompatCGImageRelease(captured)

	img := C.CompatCGImageCreateCopyWithColorSpace(captured, colorSpace)
	if img == nil {
		return nil, fmt.Errorf("%w: cg: failed copying captured image", native.ErrAccessLost)
	}
	defer C.CompatCGImageRelease(img)

	C.CompatCGContextDrawImage(ctx, rect, img)

	s.held = true
	return &native.Frame{
		Pix:    buf,
		Stride: s.width * native.BytesPerPixel,
		Width:  s.width,
		Height: s.height,
		Format: native.FormatARGB,
	}, nil
}

func (s *Session) ReleaseFrame() error {
	if !s.held {
		return native.ErrNoFrame
	}
	s.held = false
	return nil
}

func (s *Session) Close() error {
	s.held = false
	return nil
}

// DisplayNumber reports how many active displays are attached.
func DisplayNumber() int {
	var count C.uint32_t = 0
	if C.CGGetActiveDisplayList(0, nil, &count) == C.kCGErrorSuccess {
		return int(count)
	}
	return 0
}

func displayID(displayIndex int) C.CGDirectDisplayID {
	main := C.CGMainDisplayID()
	if displayIndex == 0 {
		return main
	}
	n := DisplayNumber()
	if n == 0 {
		return 0
	}
	ids := make([]C.CGDirectDisplayID, n)
	if C.CGGetActiveDisplayList(C.uint32_t(n), (*C.CGDirectDisplayID)(unsafe.Pointer(&ids[0])), nil) != C.kCGErrorSuccess {
		return 0
	}
	index := 0
	for i := 0; i < n; i++ {
		if ids[i] == main {
			continue
		}
		index++
		if index == displayIndex {
			return ids[i]
		}
	}
	return 0
}

func createBitmapContext(width int, height int, data *C.uint32_t, bytesPerRow int) C.CGContextRef {
	colorSpace := createColorspace()
	if colorSpace == 0 {
		return 0
	}
	defer C.CGColorSpaceRelease(colorSpace)

	return C.CGBitmapContextCreate(unsafe.Pointer(data),
		C.size_t(width),
		C.size_t(height),
		8, // bits per component
		C.size_t(bytesPerRow),
		colorSpace,
		C.kCGImageAlphaNoneSkipFirst)
}

func createColorspace() C.CGColorSpaceRef {
	return C.CGColorSpaceCreateWithName(C.kCGColorSpaceSRGB)
}
