package capture

import (
	"errors"

	"github.com/suutaku/screencapture/internal/dxgi"
	"github.com/suutaku/screencapture/internal/gdi"
	"github.com/suutaku/screencapture/internal/native"
)

// newNativeSession prefers DXGI output duplication. Duplication is refused
// in remote sessions and on pre-WDDM drivers; BitBlt still works there, so
// those fall back to the GDI backend.
func newNativeSession(display int) (native.Session, error) {
	sess, err := dxgi.NewSession(display)
	if err == nil {
		return sess, nil
	}
	if errors.Is(err, native.ErrUnsupported) {
		gsess, gerr := gdi.NewSession(display)
		if gerr == nil {
			return gsess, nil
		}
		return nil, errors.Join(err, gerr)
	}
	return nil, err
}
