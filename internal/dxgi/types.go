//go:build windows

package dxgi

type _DXGI_RATIONAL struct {
	Numerator   uint32
	Denominator uint32
}

type _DXGI_MODE_DESC struct {
	Width            uint32
	Height           uint32
	Rational         _DXGI_RATIONAL
	Format           uint32 // DXGI_FORMAT
	ScanlineOrdering uint32 // DXGI_MODE_SCANLINE_ORDER
	Scaling          uint32 // DXGI_MODE_SCALING
}

type _DXGI_OUTDUPL_DESC struct {
	ModeDesc                   _DXGI_MODE_DESC
	Rotation                   uint32 // DXGI_MODE_ROTATION
	DesktopImageInSystemMemory uint32 // BOOL
}

type _DXGI_SAMPLE_DESC struct {
	Count   uint32
	Quality uint32
}

type _POINT struct {
	X int32
	Y int32
}

type _DXGI_OUTDUPL_POINTER_POSITION struct {
	Position _POINT
	Visible  uint32
}

type _DXGI_OUTDUPL_FRAME_INFO struct {
	LastPresentTime           int64
	LastMouseUpdateTime       int64
	AccumulatedFrames         uint32
	RectsCoalesced            uint32
	ProtectedContentMaskedOut uint32
	PointerPosition           _DXGI_OUTDUPL_POINTER_POSITION
	TotalMetadataBufferSize   uint32
	PointerShapeBufferSize    uint32
}

type _D3D11_TEXTURE2D_DESC struct {
	Width          uint32
	Height         uint32
	MipLevels      uint32
	ArraySize      uint32
	Format         uint32 // DXGI_FORMAT
	SampleDesc     _DXGI_SAMPLE_DESC
	Usage          uint32 // D3D11_USAGE
	BindFlags      uint32
	CPUAccessFlags uint32
	MiscFlags      uint32
}

type _D3D11_MAPPED_SUBRESOURCE struct {
	PData      uintptr
	RowPitch   uint32
	DepthPitch uint32
}

const (
	_D3D_DRIVER_TYPE_HARDWARE = 1

	_D3D_FEATURE_LEVEL_11_0 = 0xb000
	_D3D_FEATURE_LEVEL_10_1 = 0xa100
	_D3D_FEATURE_LEVEL_9_1  = 0x9100

	_D3D11_SDK_VERSION = 7

	_D3D11_USAGE_STAGING    = 3
	_D3D11_CPU_ACCESS_READ  = 0x20000
	_D3D11_MAP_READ         = 1
)
