// Package native defines the contract between the public capture facades
// and the per-platform capture backends. A backend owns exactly one native
// resource (a DXGI duplication, a GDI device context pair, an X connection,
// a CoreGraphics display) and hands out at most one borrowed frame at a time.
package native

import (
	"errors"
	"image"
	"time"
)

// BytesPerPixel is fixed for every backend: all of them deliver 32-bit pixels.
const BytesPerPixel = 4

// Failure kinds reported by backends. The public package maps these onto its
// error taxonomy; backends wrap them with platform detail via fmt.Errorf("%w ...").
var (
	// ErrTimeout means no new frame arrived before the acquisition timeout.
	// This is a steady-state result on an idle desktop, not a fault.
	ErrTimeout = errors.New("acquire timed out")

	// ErrAccessLost means the desktop composition changed underneath the
	// session (lock screen, mode switch, GPU reset). The session is dead and
	// must be recreated.
	ErrAccessLost = errors.New("desktop access lost")

	// ErrDeviceRemoved means the compute device backing the session was
	// removed or reset. Recoverable by recreating the session.
	ErrDeviceRemoved = errors.New("device removed")

	// ErrUnsupported means this output cannot be duplicated at all
	// (e.g. no hardware device, remote session). Not recoverable by retry.
	ErrUnsupported = errors.New("duplication unsupported on this output")

	ErrOutOfMemory     = errors.New("out of memory")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrOutOfBounds is returned by Frame.Copy when the requested region does
	// not fit inside the frame actually acquired.
	ErrOutOfBounds = errors.New("region outside frame bounds")

	// ErrFrameHeld and ErrNoFrame guard the acquire/release pairing.
	ErrFrameHeld = errors.New("previous frame not released")
	ErrNoFrame   = errors.New("no frame held")
)

// Format identifies the channel order of the raw pixel bytes.
type Format uint8

const (
	FormatBGRA Format = iota
	FormatARGB
	FormatRGBA
)

func (f Format) String() string {
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

// Frame is one acquired snapshot of the desktop surface. Pix is borrowed from
// the session (it may alias a mapped staging surface) and is only valid until
// ReleaseFrame is called.
type Frame struct {
	Pix    []byte
	Stride int // bytes between row starts, >= Width*BytesPerPixel
	Width  int
	Height int
	Format Format
}

// Bounds reports the frame dimensions as a rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Copy extracts the given region into a freshly allocated, tightly packed
// buffer of Width*Height*BytesPerPixel bytes. The frame's stride may exceed
// the logical row width; only the logical bytes of each row are copied.
// The returned buffer shares no memory with the frame.
func (f *Frame) Copy(r image.Rectangle) ([]byte, error) {
	if r.Empty() || !r.In(f.Bounds()) {
		return nil, ErrOutOfBounds
	}
	rowLen := r.Dx() * BytesPerPixel
	dst := make([]byte, rowLen*r.Dy())
	srcOff := r.Min.Y*f.Stride + r.Min.X*BytesPerPixel
	dstOff := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(dst[dstOff:dstOff+rowLen], f.Pix[srcOff:srcOff+rowLen])
		srcOff += f.Stride
		dstOff += rowLen
	}
	return dst, nil
}

// Session is the per-platform capture backend. Implementations are not safe
// for concurrent use; the facades serialize access.
type Session interface {
	// Bounds reports the dimensions of the duplicated output.
	Bounds() image.Rectangle

	// AcquireFrame blocks up to timeout for the next frame. The returned
	// frame is borrowed and must be handed back with ReleaseFrame before the
	// next acquisition. Acquiring while a frame is held returns ErrFrameHeld.
	AcquireFrame(timeout time.Duration) (*Frame, error)

	// ReleaseFrame returns the borrowed frame to the session. Must be called
	// exactly once per successful AcquireFrame, on every exit path.
	ReleaseFrame() error

	// Close releases the native resources. The session is unusable afterwards.
	Close() error
}
