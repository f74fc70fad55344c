package capture

import (
	"errors"
	"fmt"

	"github.com/suutaku/screencapture/internal/native"
)

var (
	// ErrInvalidRegion means the requested region fails bounds validation.
	// The caller must correct the input; nothing is clamped or retried.
	ErrInvalidRegion = errors.New("capture: invalid capture region")

	// ErrClosed is returned once a capturer has been closed.
	ErrClosed = errors.New("capture: capturer closed")
)

// Kind classifies a frame acquisition failure.
type Kind uint8

const (
	// KindTimeout means no new frame arrived within the acquisition timeout.
	// A legitimate steady-state result on an idle desktop; never retried
	// internally.
	KindTimeout Kind = iota + 1

	// KindAccessLost means the desktop session changed underneath the
	// duplication (lock screen, mode switch, GPU reset). Recoverable.
	KindAccessLost

	// KindDeviceRemoved means the compute device was removed or reset.
	// Recoverable.
	KindDeviceRemoved
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAccessLost:
		return "access lost"
	case KindDeviceRemoved:
		return "device removed"
	}
	return "unknown"
}

// Recoverable reports whether a failure of this kind is cleared by
// recreating the session. Timeouts are not: they just mean nothing changed
// on screen.
func (k Kind) Recoverable() bool {
	return k == KindAccessLost || k == KindDeviceRemoved
}

// InitError means no compatible device or output could be set up. Fatal;
// never retried internally.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("capture: initialization failed: %v", e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// FrameError is a frame acquisition failure with its classified kind.
type FrameError struct {
	Kind Kind
	Err  error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("capture: %s: %v", e.Kind, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }

// ResourceError is a mapping or copy failure (staging allocation,
// out-of-memory, bad native argument). Fatal for the call.
type ResourceError struct {
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("capture: resource failure: %v", e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }

// EncodeError reports a failure of the file-output collaborator. The capture
// itself succeeded; the Data returned alongside this error remains valid.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("capture: encoding %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// classify maps a native backend error onto the public taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, native.ErrTimeout):
		return &FrameError{Kind: KindTimeout, Err: err}
	case errors.Is(err, native.ErrAccessLost):
		return &FrameError{Kind: KindAccessLost, Err: err}
	case errors.Is(err, native.ErrDeviceRemoved):
		return &FrameError{Kind: KindDeviceRemoved, Err: err}
	case errors.Is(err, native.ErrOutOfBounds):
		return ErrInvalidRegion
	default:
		// out-of-memory, invalid native arguments, unknown platform codes
		return &ResourceError{Err: err}
	}
}

// IsRecoverable reports whether err is cleared by recreating the session.
// This predicate drives the facade's retry policy.
func IsRecoverable(err error) bool {
	var fe *FrameError
	if errors.As(err, &fe) {
		return fe.Kind.Recoverable()
	}
	return false
}
