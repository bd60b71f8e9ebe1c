//go:build windows

package privacy

import (
	"syscall"
	"unsafe"
)

// Win32 bindings shared by the overlay window host, the cursor factory,
// and the input hook filter. Grouped in one file the way
// internal/remote/desktop/input_windows.go keeps its user32 procs together,
// rather than one NewLazyDLL per file.
var (
	user32   = syscall.NewLazyDLL("user32.dll")
	kernel32 = syscall.NewLazyDLL("kernel32.dll")
	gdi32    = syscall.NewLazyDLL("gdi32.dll")
	dwmapi   = syscall.NewLazyDLL("dwmapi.dll")

	procRegisterClassExW    = user32.NewProc("RegisterClassExW")
	procUnregisterClassW    = user32.NewProc("UnregisterClassW")
	procCreateWindowExW     = user32.NewProc("CreateWindowExW")
	procDestroyWindow       = user32.NewProc("DestroyWindow")
	procDefWindowProcW      = user32.NewProc("DefWindowProcW")
	procShowWindow          = user32.NewProc("ShowWindow")
	procUpdateWindow        = user32.NewProc("UpdateWindow")
	procSetWindowPos        = user32.NewProc("SetWindowPos")
	procBringWindowToTop    = user32.NewProc("BringWindowToTop")
	procSetWindowDisplayAff = user32.NewProc("SetWindowDisplayAffinity")
	procGetClientRect       = user32.NewProc("GetClientRect")
	procInvalidateRect      = user32.NewProc("InvalidateRect")
	procBeginPaint          = user32.NewProc("BeginPaint")
	procEndPaint            = user32.NewProc("EndPaint")
	procFillRect            = user32.NewProc("FillRect")
	procGetSystemMetrics    = user32.NewProc("GetSystemMetrics")
	procPeekMessageW        = user32.NewProc("PeekMessageW")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostQuitMessage     = user32.NewProc("PostQuitMessage")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procShowCursor          = user32.NewProc("ShowCursor")
	procSetCursor           = user32.NewProc("SetCursor")
	procSetSystemCursor     = user32.NewProc("SetSystemCursor")
	procSystemParametersW   = user32.NewProc("SystemParametersInfoW")
	procCreateIconIndirect  = user32.NewProc("CreateIconIndirect")
	procLoadCursorW         = user32.NewProc("LoadCursorW")
	procGetCursorPos        = user32.NewProc("GetCursorPos")
	procSetCursorPos        = user32.NewProc("SetCursorPos")

	procCreateBitmap     = gdi32.NewProc("CreateBitmap")
	procCreateSolidBrush = gdi32.NewProc("CreateSolidBrush")
	procDeleteObject     = gdi32.NewProc("DeleteObject")
	procStretchDIBits    = gdi32.NewProc("StretchDIBits")

	procGetModuleHandleW    = kernel32.NewProc("GetModuleHandleW")
	procLoadLibraryW        = kernel32.NewProc("LoadLibraryW")
	procGetProcAddress      = kernel32.NewProc("GetProcAddress")
	procFreeLibrary         = kernel32.NewProc("FreeLibrary")
	procGetCurrentThreadId  = kernel32.NewProc("GetCurrentThreadId")
	procGetVersionEx        = kernel32.NewProc("GetVersionExW")

	procDwmSetWindowAttribute = dwmapi.NewProc("DwmSetWindowAttribute")

	procCreateDesktopW  = user32.NewProc("CreateDesktopW")
	procOpenDesktopW    = user32.NewProc("OpenDesktopW")
	procCloseDesktop    = user32.NewProc("CloseDesktop")
	procSetThreadDesktop = user32.NewProc("SetThreadDesktop")
)

// Window styles, messages, and constants used by the overlay host, hook
// filter, and cursor enforcer. Named exactly as in the Win32 headers, as
// the teacher's own desktop package does (cursor_windows.go, input_windows.go).
const (
	wsPopup         = 0x80000000
	wsExLayered     = 0x00080000
	wsExTopmost     = 0x00000008
	wsExToolWindow  = 0x00000080
	wsExNoActivate  = 0x08000000
	wsExTransparent = 0x00000020

	csHRedraw = 0x0002
	csVRedraw = 0x0001

	swHide = 0
	swShow = 5

	swpNoMove     = 0x0002
	swpNoSize     = 0x0001
	swpNoActivate = 0x0010
	swpShowWindow = 0x0040

	hwndTopmost = ^uintptr(0) // (HWND)-1

	wmDestroy          = 0x0002
	wmPaint            = 0x000F
	wmClose            = 0x0010
	wmNCHitTest        = 0x0084
	wmSetCursor        = 0x0020
	wmWindowPosChanging = 0x0046
	wmApp              = 0x8000

	htTransparent = -1

	whKeyboardLL = 13
	whMouseLL    = 14
	hcAction     = 0

	wmKeyDown    = 0x0100
	wmKeyUp      = 0x0101
	wmSysKeyDown = 0x0104
	wmSysKeyUp   = 0x0105
	wmMouseMove  = 0x0200
	wmLButtonDown = 0x0201
	wmRButtonDown = 0x0204
	wmMButtonDown = 0x0207

	llkhfInjected  = 0x00000010
	llkhfLowerIl   = 0x00000002
	llmhfInjected  = 0x00000001
	llmhfLowerIl   = 0x00000002

	smCXVirtualScreen = 78
	smCYVirtualScreen = 79
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77

	spiSetCursors = 0x0057

	dwmwaCloak = 13

	wdaNone              = 0x00000000
	wdaExcludeFromCapture = 0x00000011

	zbidAboveLockUX = 18

	idcArrow = 32512
)

type point struct {
	X, Y int32
}

type rect struct {
	Left, Top, Right, Bottom int32
}

type msg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

type wndClassExW struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CbClsExtra    int32
	CbWndExtra    int32
	HInstance     uintptr
	HIcon         uintptr
	HCursor       uintptr
	HbrBackground uintptr
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       uintptr
}

type windowPos struct {
	Hwnd            uintptr
	HWndInsertAfter uintptr
	X, Y, Cx, Cy    int32
	Flags           uint32
}

type paintStruct struct {
	Hdc         uintptr
	FErase      int32
	RcPaint     rect
	FRestore    int32
	FIncUpdate  int32
	RgbReserved [32]byte
}

type kbdllhookstruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msllhookstruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// syscallNewCallback wraps syscall.NewCallback for the uintptr-uniform
// signature every window proc and hook proc in this package uses.
func syscallNewCallback(fn func(a, b, c uintptr) uintptr) uintptr {
	return syscall.NewCallback(fn)
}

func utf16ptr(s string) *uint16 {
	p, _ := syscall.UTF16PtrFromString(s)
	return p
}

func getSystemMetrics(index int32) int32 {
	r, _, _ := procGetSystemMetrics.Call(uintptr(index))
	return int32(r)
}

func loadCursorArrow() uintptr {
	// IDC_ARROW is a predefined resource id, loaded via LoadCursorW; the
	// teacher's overlay equivalent (mrgoonie-winshot/internal/overlay)
	// resolves cursors the same way through a small helper.
	c, _, _ := procLoadCursorW.Call(0, uintptr(idcArrow))
	return c
}

// createWindowInBand attempts the Windows-10-2004+ CreateWindowInBand entry
// point so the overlay can sit above the lock-screen UX band; it resolves
// the symbol at runtime because it is absent on older systems
// (win_direct_overlay.rs::try_create_window_in_band).
func createWindowInBand(exStyle uint32, className, windowName *uint16, style uint32,
	x, y, w, h int32, parent, menu, hInstance uintptr, zband uint32) (uintptr, error) {

	lib, _, _ := procLoadLibraryW.Call(uintptr(unsafe.Pointer(utf16ptr("user32.dll"))))
	if lib == 0 {
		return 0, ErrWindowCreation
	}
	proc, _, _ := procGetProcAddress.Call(lib, uintptr(unsafe.Pointer(utf16ptrBytes("CreateWindowInBand"))))
	if proc == 0 {
		return 0, ErrNotSupported
	}
	hwnd, _, _ := syscall.SyscallN(proc,
		uintptr(exStyle),
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(windowName)),
		uintptr(style),
		uintptr(x), uintptr(y), uintptr(w), uintptr(h),
		parent, menu, hInstance, 0, uintptr(zband),
	)
	if hwnd == 0 {
		return 0, ErrWindowCreation
	}
	return hwnd, nil
}

func utf16ptrBytes(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}
