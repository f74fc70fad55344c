//go:build windows

package dxgi

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	d3d11                 = syscall.NewLazyDLL("d3d11.dll")
	procD3D11CreateDevice = d3d11.NewProc("D3D11CreateDevice")
)

var (
	iidIDXGIDevice     = windows.GUID{Data1: 0x54ec77fa, Data2: 0x1377, Data3: 0x44e6, Data4: [8]byte{0x8c, 0x32, 0x88, 0xfd, 0x5f, 0x44, 0xc8, 0x4c}}
	iidIDXGIOutput1    = windows.GUID{Data1: 0x00cddea8, Data2: 0x939b, Data3: 0x4b83, Data4: [8]byte{0xa3, 0x40, 0xa6, 0x85, 0x22, 0x66, 0x66, 0xcc}}
	iidID3D11Texture2D = windows.GUID{Data1: 0x6f15aaf2, Data2: 0xd208, Data3: 0x4e89, Data4: [8]byte{0x9a, 0xb4, 0x48, 0x95, 0x35, 0xd3, 0x4f, 0x9c}}
)

// COM objects are a pointer to a vtable of function pointers. Only the slots
// this package calls are reached, but every preceding slot must be declared
// so the offsets line up with the C layout.

type iUnknownVtbl struct {
	QueryInterface uintptr
	AddRef         uintptr
	Release        uintptr
}

type iUnknown struct {
	vtbl *iUnknownVtbl
}

func (u *iUnknown) QueryInterface(iid *windows.GUID, out unsafe.Pointer) hresult {
	hr, _, _ := syscall.SyscallN(u.vtbl.QueryInterface,
		uintptr(unsafe.Pointer(u)),
		uintptr(unsafe.Pointer(iid)),
		uintptr(out))
	return hresult(hr)
}

func (u *iUnknown) Release() {
	syscall.SyscallN(u.vtbl.Release, uintptr(unsafe.Pointer(u)))
}

type iDXGIObjectVtbl struct {
	iUnknownVtbl
	SetPrivateData          uintptr
	SetPrivateDataInterface uintptr
	GetPrivateData          uintptr
	GetParent               uintptr
}

type iDXGIDeviceVtbl struct {
	iDXGIObjectVtbl
	GetAdapter             uintptr
	CreateSurface          uintptr
	QueryResourceResidency uintptr
	SetGPUThreadPriority   uintptr
	GetGPUThreadPriority   uintptr
}

type iDXGIDevice struct {
	vtbl *iDXGIDeviceVtbl
}

func (d *iDXGIDevice) GetAdapter(out **iDXGIAdapter) hresult {
	hr, _, _ := syscall.SyscallN(d.vtbl.GetAdapter,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(out)))
	return hresult(hr)
}

func (d *iDXGIDevice) Release() {
	(*iUnknown)(unsafe.Pointer(d)).Release()
}

type iDXGIAdapterVtbl struct {
	iDXGIObjectVtbl
	EnumOutputs           uintptr
	GetDesc               uintptr
	CheckInterfaceSupport uintptr
}

type iDXGIAdapter struct {
	vtbl *iDXGIAdapterVtbl
}

func (a *iDXGIAdapter) EnumOutputs(index uint32, out **iDXGIOutput) hresult {
	hr, _, _ := syscall.SyscallN(a.vtbl.EnumOutputs,
		uintptr(unsafe.Pointer(a)),
		uintptr(index),
		uintptr(unsafe.Pointer(out)))
	return hresult(hr)
}

func (a *iDXGIAdapter) Release() {
	(*iUnknown)(unsafe.Pointer(a)).Release()
}

type iDXGIOutputVtbl struct {
	iDXGIObjectVtbl
	GetDesc                     uintptr
	GetDisplayModeList          uintptr
	FindClosestMatchingMode     uintptr
	WaitForVBlank               uintptr
	TakeOwnership               uintptr
	ReleaseOwnership            uintptr
	GetGammaControlCapabilities uintptr
	SetGammaControl             uintptr
	GetGammaControl             uintptr
	SetDisplaySurface           uintptr
	GetDisplaySurfaceData       uintptr
	GetFrameStatistics          uintptr
}

type iDXGIOutput struct {
	vtbl *iDXGIOutputVtbl
}

func (o *iDXGIOutput) Release() {
	(*iUnknown)(unsafe.Pointer(o)).Release()
}

type iDXGIOutput1Vtbl struct {
	iDXGIOutputVtbl
	GetDisplayModeList1      uintptr
	FindClosestMatchingMode1 uintptr
	GetDisplaySurfaceData1   uintptr
	DuplicateOutput          uintptr
}

type iDXGIOutput1 struct {
	vtbl *iDXGIOutput1Vtbl
}

func (o *iDXGIOutput1) DuplicateOutput(device *iD3D11Device, out **iDXGIOutputDuplication) hresult {
	hr, _, _ := syscall.SyscallN(o.vtbl.DuplicateOutput,
		uintptr(unsafe.Pointer(o)),
		uintptr(unsafe.Pointer(device)),
		uintptr(unsafe.Pointer(out)))
	return hresult(hr)
}

func (o *iDXGIOutput1) Release() {
	(*iUnknown)(unsafe.Pointer(o)).Release()
}

type iDXGIOutputDuplicationVtbl struct {
	iDXGIObjectVtbl
	GetDesc              uintptr
	AcquireNextFrame     uintptr
	GetFrameDirtyRects   uintptr
	GetFrameMoveRects    uintptr
	GetFramePointerShape uintptr
	MapDesktopSurface    uintptr
	UnMapDesktopSurface  uintptr
	ReleaseFrame         uintptr
}

type iDXGIOutputDuplication struct {
	vtbl *iDXGIOutputDuplicationVtbl
}

func (d *iDXGIOutputDuplication) GetDesc(desc *_DXGI_OUTDUPL_DESC) {
	syscall.SyscallN(d.vtbl.GetDesc,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(desc)))
}

func (d *iDXGIOutputDuplication) AcquireNextFrame(timeoutMs uint32, info *_DXGI_OUTDUPL_FRAME_INFO, out **iUnknown) hresult {
	hr, _, _ := syscall.SyscallN(d.vtbl.AcquireNextFrame,
		uintptr(unsafe.Pointer(d)),
		uintptr(timeoutMs),
		uintptr(unsafe.Pointer(info)),
		uintptr(unsafe.Pointer(out)))
	return hresult(hr)
}

func (d *iDXGIOutputDuplication) ReleaseFrame() hresult {
	hr, _, _ := syscall.SyscallN(d.vtbl.ReleaseFrame, uintptr(unsafe.Pointer(d)))
	return hresult(hr)
}

func (d *iDXGIOutputDuplication) Release() {
	(*iUnknown)(unsafe.Pointer(d)).Release()
}

type iD3D11DeviceVtbl struct {
	iUnknownVtbl
	CreateBuffer    uintptr
	CreateTexture1D uintptr
	CreateTexture2D uintptr
	CreateTexture3D uintptr
	// later slots unused by this package
}

type iD3D11Device struct {
	vtbl *iD3D11DeviceVtbl
}

func (d *iD3D11Device) CreateTexture2D(desc *_D3D11_TEXTURE2D_DESC, out **iD3D11Texture2D) hresult {
	hr, _, _ := syscall.SyscallN(d.vtbl.CreateTexture2D,
		uintptr(unsafe.Pointer(d)),
		uintptr(unsafe.Pointer(desc)),
		0, // no initial data
		uintptr(unsafe.Pointer(out)))
	return hresult(hr)
}

func (d *iD3D11Device) QueryInterface(iid *windows.GUID, out unsafe.Pointer) hresult {
	return (*iUnknown)(unsafe.Pointer(d)).QueryInterface(iid, out)
}

func (d *iD3D11Device) Release() {
	(*iUnknown)(unsafe.Pointer(d)).Release()
}

type iD3D11DeviceContextVtbl struct {
	iUnknownVtbl
	GetDevice                                 uintptr
	GetPrivateData                            uintptr
	SetPrivateData                            uintptr
	SetPrivateDataInterface                   uintptr
	VSSetConstantBuffers                      uintptr
	PSSetShaderResources                      uintptr
	PSSetShader                               uintptr
	PSSetSamplers                             uintptr
	VSSetShader                               uintptr
	DrawIndexed                               uintptr
	Draw                                      uintptr
	Map                                       uintptr
	Unmap                                     uintptr
	PSSetConstantBuffers                      uintptr
	IASetInputLayout                          uintptr
	IASetVertexBuffers                        uintptr
	IASetIndexBuffer                          uintptr
	DrawIndexedInstanced                      uintptr
	DrawInstanced                             uintptr
	GSSetConstantBuffers                      uintptr
	GSSetShader                               uintptr
	IASetPrimitiveTopology                    uintptr
	VSSetShaderResources                      uintptr
	VSSetSamplers                             uintptr
	Begin                                     uintptr
	End                                       uintptr
	GetData                                   uintptr
	SetPredication                            uintptr
	GSSetShaderResources                      uintptr
	GSSetSamplers                             uintptr
	OMSetRenderTargets                        uintptr
	OMSetRenderTargetsAndUnorderedAccessViews uintptr
	OMSetBlendState                           uintptr
	OMSetDepthStencilState                    uintptr
	SOSetTargets                              uintptr
	DrawAuto                                  uintptr
	DrawIndexedInstancedIndirect              uintptr
	DrawInstancedIndirect                     uintptr
	Dispatch                                  uintptr
	DispatchIndirect                          uintptr
	RSSetState                                uintptr
	RSSetViewports                            uintptr
	RSSetScissorRects                         uintptr
	CopySubresourceRegion                     uintptr
	CopyResource                              uintptr
	UpdateSubresource                         uintptr
	// later slots unused by this package
}

type iD3D11DeviceContext struct {
	vtbl *iD3D11DeviceContextVtbl
}

func (c *iD3D11DeviceContext) CopyResource(dst, src unsafe.Pointer) {
	syscall.SyscallN(c.vtbl.CopyResource,
		uintptr(unsafe.Pointer(c)),
		uintptr(dst),
		uintptr(src))
}

func (c *iD3D11DeviceContext) Map(resource unsafe.Pointer, subresource uint32, mapType uint32, mapped *_D3D11_MAPPED_SUBRESOURCE) hresult {
	hr, _, _ := syscall.SyscallN(c.vtbl.Map,
		uintptr(unsafe.Pointer(c)),
		uintptr(resource),
		uintptr(subresource),
		uintptr(mapType),
		0, // flags
		uintptr(unsafe.Pointer(mapped)))
	return hresult(hr)
}

func (c *iD3D11DeviceContext) Unmap(resource unsafe.Pointer, subresource uint32) {
	syscall.SyscallN(c.vtbl.Unmap,
		uintptr(unsafe.Pointer(c)),
		uintptr(resource),
		uintptr(subresource))
}

func (c *iD3D11DeviceContext) Release() {
	(*iUnknown)(unsafe.Pointer(c)).Release()
}

type iD3D11Texture2DVtbl struct {
	iUnknownVtbl
	GetDevice               uintptr
	GetPrivateData          uintptr
	SetPrivateData          uintptr
	SetPrivateDataInterface uintptr
	GetType                 uintptr
	SetEvictionPriority     uintptr
	GetEvictionPriority     uintptr
	GetDesc                 uintptr
}

type iD3D11Texture2D struct {
	vtbl *iD3D11Texture2DVtbl
}

func (t *iD3D11Texture2D) GetDesc(desc *_D3D11_TEXTURE2D_DESC) {
	syscall.SyscallN(t.vtbl.GetDesc,
		uintptr(unsafe.Pointer(t)),
		uintptr(unsafe.Pointer(desc)))
}

func (t *iD3D11Texture2D) Release() {
	(*iUnknown)(unsafe.Pointer(t)).Release()
}

func createDevice() (*iD3D11Device, *iD3D11DeviceContext, error) {
	featureLevels := []uint32{
		_D3D_FEATURE_LEVEL_11_0,
		_D3D_FEATURE_LEVEL_10_1,
		_D3D_FEATURE_LEVEL_9_1,
	}

	var device *iD3D11Device
	var context *iD3D11DeviceContext
	var level uint32

	hr, _, _ := procD3D11CreateDevice.Call(
		0, // default adapter
		_D3D_DRIVER_TYPE_HARDWARE,
		0,
		0, // no creation flags
		uintptr(unsafe.Pointer(&featureLevels[0])),
		uintptr(len(featureLevels)),
		_D3D11_SDK_VERSION,
		uintptr(unsafe.Pointer(&device)),
		uintptr(unsafe.Pointer(&level)),
		uintptr(unsafe.Pointer(&context)),
	)
	if hresult(hr).failed() {
		return nil, nil, wrapHR("D3D11CreateDevice", hresult(hr))
	}
	return device, context, nil
}
