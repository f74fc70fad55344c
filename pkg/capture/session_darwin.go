package capture

import (
	"github.com/suutaku/screencapture/internal/cg"
	"github.com/suutaku/screencapture/internal/native"
)

func newNativeSession(display int) (native.Session, error) {
	return cg.NewSession(display)
}
