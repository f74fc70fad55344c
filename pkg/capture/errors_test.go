package capture

import (
	"errors"
	"fmt"
	"testing"

	"github.com/suutaku/screencapture/internal/native"
)

func TestClassifyMapsNativeKinds(t *testing.T) {
	cases := []struct {
		name   string
		in     error
		verify func(error) bool
	}{
		{"timeout", fmt.Errorf("%w: dxgi: AcquireNextFrame: DXGI_ERROR_WAIT_TIMEOUT", native.ErrTimeout), func(err error) bool {
			var fe *FrameError
			return errors.As(err, &fe) && fe.Kind == KindTimeout
		}},
		{"access lost", fmt.Errorf("%w: dxgi: AcquireNextFrame: DXGI_ERROR_ACCESS_LOST", native.ErrAccessLost), func(err error) bool {
			var fe *FrameError
			return errors.As(err, &fe) && fe.Kind == KindAccessLost
		}},
		{"device removed", fmt.Errorf("%w: dxgi: AcquireNextFrame: DXGI_ERROR_DEVICE_REMOVED", native.ErrDeviceRemoved), func(err error) bool {
			var fe *FrameError
			return errors.As(err, &fe) && fe.Kind == KindDeviceRemoved
		}},
		{"out of bounds", native.ErrOutOfBounds, func(err error) bool {
			return errors.Is(err, ErrInvalidRegion)
		}},
		{"out of memory", fmt.Errorf("%w: dxgi: Map(staging): E_OUTOFMEMORY", native.ErrOutOfMemory), func(err error) bool {
			var re *ResourceError
			return errors.As(err, &re)
		}},
		{"invalid argument", fmt.Errorf("%w: dxgi: CreateTexture2D(staging): E_INVALIDARG", native.ErrInvalidArgument), func(err error) bool {
			var re *ResourceError
			return errors.As(err, &re)
		}},
		{"unknown platform failure", errors.New("dxgi: CopyResource exploded"), func(err error) bool {
			var re *ResourceError
			return errors.As(err, &re)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.in)
			if !tc.verify(got) {
				t.Fatalf("classify(%v) = %v", tc.in, got)
			}
			// Platform detail must survive classification for diagnostics.
			if !errors.Is(got, tc.in) && got != ErrInvalidRegion {
				t.Fatalf("classify(%v) lost the underlying error: %v", tc.in, got)
			}
		})
	}
}

func TestRecoverableKinds(t *testing.T) {
	if KindTimeout.Recoverable() {
		t.Error("timeout must not be recoverable: it is a steady-state result")
	}
	if !KindAccessLost.Recoverable() {
		t.Error("access loss must be recoverable")
	}
	if !KindDeviceRemoved.Recoverable() {
		t.Error("device removal must be recoverable")
	}
}

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(classify(native.ErrAccessLost)) {
		t.Error("classified access loss should be recoverable")
	}
	if IsRecoverable(classify(native.ErrTimeout)) {
		t.Error("classified timeout should not be recoverable")
	}
	if IsRecoverable(ErrInvalidRegion) {
		t.Error("invalid region should not be recoverable")
	}
	if IsRecoverable(&InitError{Err: errors.New("no device")}) {
		t.Error("initialization failure should not be recoverable")
	}
	if IsRecoverable(nil) {
		t.Error("nil error should not be recoverable")
	}
}
