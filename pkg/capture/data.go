package capture

import (
	"image"
	"time"

	"github.com/suutaku/screencapture/internal/native"
)

// BytesPerPixel is fixed: every backend delivers 32-bit pixels.
const BytesPerPixel = native.BytesPerPixel

// PixelFormat identifies the channel order of raw pixel bytes. The values
// mirror the backend formats in internal/native.
type PixelFormat uint8

const (
	FormatBGRA PixelFormat = iota
	FormatARGB
	FormatRGBA
)

func (f PixelFormat) String() string {
	switch f {
	case FormatBGRA:
		return "BGRA8888"
	case FormatARGB:
		return "ARGB8888"
	case FormatRGBA:
		return "RGBA8888"
	}
	return "unknown"
}

// Region is the rectangle to capture, in pixels from the top-left corner of
// the display. It must lie fully inside the display bounds; violations are
// reported as ErrInvalidRegion, never clamped.
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (r Region) rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) validate(bounds image.Rectangle) error {
	if r.Width <= 0 || r.Height <= 0 || r.X < 0 || r.Y < 0 {
		return ErrInvalidRegion
	}
	if r.X+r.Width > bounds.Dx() || r.Y+r.Height > bounds.Dy() {
		return ErrInvalidRegion
	}
	return nil
}

// Data is one completed capture. Pix holds Width*Height*BytesPerPixel raw
// bytes in Format order, tightly packed, owned exclusively by the caller:
// it never aliases an internal buffer and is never touched again by the
// engine. Timestamp is the capture completion time and is strictly
// increasing across captures from the same capturer.
type Data struct {
	Width     int
	Height    int
	Pix       []byte
	Timestamp time.Time
	Format    PixelFormat
}
