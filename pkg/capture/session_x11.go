//go:build linux || freebsd || openbsd || netbsd

package capture

import (
	"github.com/suutaku/screencapture/internal/native"
	"github.com/suutaku/screencapture/internal/x11"
)

func newNativeSession(display int) (native.Session, error) {
	return x11.NewSession(display)
}
