//go:build windows

package dxgi

import (
	"fmt"
	"strconv"

	"github.com/suutaku/screencapture/internal/native"
)

type hresult uint32

const (
	_DXGI_ERROR_INVALID_CALL            hresult = 0x887A0001
	_DXGI_ERROR_UNSUPPORTED             hresult = 0x887A0004
	_DXGI_ERROR_DEVICE_REMOVED          hresult = 0x887A0005
	_DXGI_ERROR_DEVICE_HUNG             hresult = 0x887A0006
	_DXGI_ERROR_DEVICE_RESET            hresult = 0x887A0007
	_DXGI_ERROR_WAS_STILL_DRAWING       hresult = 0x887A000A
	_DXGI_ERROR_NOT_CURRENTLY_AVAILABLE hresult = 0x887A0022
	_DXGI_ERROR_ACCESS_LOST             hresult = 0x887A0026
	_DXGI_ERROR_WAIT_TIMEOUT            hresult = 0x887A0027
	_DXGI_ERROR_SESSION_DISCONNECTED    hresult = 0x887A0028
	_E_OUTOFMEMORY                      hresult = 0x8007000E
	_E_INVALIDARG                       hresult = 0x80070057
)

func (hr hresult) failed() bool {
	return hr&0x80000000 != 0
}

func (hr hresult) String() string {
	switch hr {
	case _DXGI_ERROR_INVALID_CALL:
		return "DXGI_ERROR_INVALID_CALL"
	case _DXGI_ERROR_UNSUPPORTED:
		return "DXGI_ERROR_UNSUPPORTED"
	case _DXGI_ERROR_DEVICE_REMOVED:
		return "DXGI_ERROR_DEVICE_REMOVED"
	case _DXGI_ERROR_DEVICE_HUNG:
		return "DXGI_ERROR_DEVICE_HUNG"
	case _DXGI_ERROR_DEVICE_RESET:
		return "DXGI_ERROR_DEVICE_RESET"
	case _DXGI_ERROR_WAS_STILL_DRAWING:
		return "DXGI_ERROR_WAS_STILL_DRAWING"
	case _DXGI_ERROR_NOT_CURRENTLY_AVAILABLE:
		return "DXGI_ERROR_NOT_CURRENTLY_AVAILABLE"
	case _DXGI_ERROR_ACCESS_LOST:
		return "DXGI_ERROR_ACCESS_LOST"
	case _DXGI_ERROR_WAIT_TIMEOUT:
		return "DXGI_ERROR_WAIT_TIMEOUT"
	case _DXGI_ERROR_SESSION_DISCONNECTED:
		return "DXGI_ERROR_SESSION_DISCONNECTED"
	case _E_OUTOFMEMORY:
		return "E_OUTOFMEMORY"
	case _E_INVALIDARG:
		return "E_INVALIDARG"
	}
	return "0x" + strconv.FormatUint(uint64(hr), 16)
}

// wrapHR turns a failing HRESULT into one of the shared native error kinds,
// keeping the operation name and raw code in the message.
func wrapHR(op string, hr hresult) error {
	var kind error
	switch hr {
	case _DXGI_ERROR_WAIT_TIMEOUT:
		kind = native.ErrTimeout
	case _DXGI_ERROR_ACCESS_LOST, _DXGI_ERROR_SESSION_DISCONNECTED:
		kind = native.ErrAccessLost
	case _DXGI_ERROR_DEVICE_REMOVED, _DXGI_ERROR_DEVICE_RESET, _DXGI_ERROR_DEVICE_HUNG:
		kind = native.ErrDeviceRemoved
	case _DXGI_ERROR_UNSUPPORTED, _DXGI_ERROR_NOT_CURRENTLY_AVAILABLE:
		kind = native.ErrUnsupported
	case _E_OUTOFMEMORY:
		kind = native.ErrOutOfMemory
	case _E_INVALIDARG, _DXGI_ERROR_INVALID_CALL:
		kind = native.ErrInvalidArgument
	default:
		return fmt.Errorf("dxgi: %s failed: %s", op, hr)
	}
	return fmt.Errorf("%w: dxgi: %s: %s", kind, op, hr)
}
