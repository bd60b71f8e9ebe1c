//go:build windows

package privacy

import (
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"
)

// Custom window messages posted from other goroutines into the overlay's
// own message-loop thread (mirrors win_direct_overlay.rs's use of
// PostThreadMessageW for cross-thread show/hide/shutdown commands).
const (
	wmPrivacyShow     = wmApp + 1
	wmPrivacyHide     = wmApp + 2
	wmPrivacyShutdown = wmApp + 3
	wmPrivacyAnimate  = wmApp + 4
)

// overlayDelegate supplies the behavior that differs between the direct
// black overlay and the animated-image overlay; overlayHost supplies
// everything both share: window lifecycle, cloaking, capture exclusion,
// input hooks, and cursor suppression.
type overlayDelegate interface {
	className() string
	windowTitle() string
	// paint draws the overlay's current content into hdc, which covers
	// clientRect.
	paint(hdc uintptr, clientRect rect)
	// adjustWindowPos lets the delegate rewrite a WM_WINDOWPOSCHANGING
	// request before DefWindowProc sees it.
	adjustWindowPos(wp *windowPos)
	// onMessage lets the delegate handle a message the host does not
	// already own. handled=false falls through to DefWindowProc.
	onMessage(hwnd, message, wParam, lParam uintptr) (result uintptr, handled bool)
}

// overlayHost is a single privacy overlay window running its own OS-thread
// message loop. One host exists per back-end (direct, animated), reusing
// the window plumbing pattern from mrgoonie-winshot/internal/overlay/overlay.go.
type overlayHost struct {
	delegate overlayDelegate

	mu         sync.Mutex
	hwnd       uintptr
	threadID   uint32
	className  *uint16
	hInstance  uintptr
	wndProcPtr uintptr
	ready      chan error
	quit       chan struct{}

	privacyActive atomic.Bool
	hooks         *inputHookSet
	cursor        *cursorEnforcer
}

var overlayHostsMu sync.Mutex
var overlayHostsByHWND = map[uintptr]*overlayHost{}

func newOverlayHost(delegate overlayDelegate) *overlayHost {
	h := &overlayHost{
		delegate: delegate,
		hooks:    newInputHookSet(),
		cursor:   newCursorEnforcer(),
	}
	h.wndProcPtr = syscall.NewCallback(h.windowProc)
	return h
}

// start spawns the message-loop thread if it is not already running. It is
// idempotent: a second call while the thread is alive is a no-op, matching
// start_overlay_thread's "return existing controller" behavior.
func (h *overlayHost) start() error {
	h.mu.Lock()
	if h.hwnd != 0 {
		h.mu.Unlock()
		return nil
	}
	h.ready = make(chan error, 1)
	h.quit = make(chan struct{})
	h.mu.Unlock()

	go h.messageLoop()

	return <-h.ready
}

func (h *overlayHost) messageLoop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	h.mu.Lock()
	h.threadID = getCurrentThreadID()
	h.mu.Unlock()

	hInstance, _, _ := procGetModuleHandleW.Call(0)
	className := utf16ptr(h.delegate.className())

	wc := wndClassExW{
		CbSize:        uint32(unsafe.Sizeof(wndClassExW{})),
		Style:         csHRedraw | csVRedraw,
		LpfnWndProc:   h.wndProcPtr,
		HInstance:     hInstance,
		HCursor:       loadCursorArrow(),
		LpszClassName: className,
	}
	if ret, _, _ := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); ret == 0 {
		h.ready <- ErrWindowCreation
		return
	}

	vx := getSystemMetrics(smXVirtualScreen)
	vy := getSystemMetrics(smYVirtualScreen)
	vw := getSystemMetrics(smCXVirtualScreen)
	vh := getSystemMetrics(smCYVirtualScreen)

	exStyle := uintptr(wsExLayered | wsExTopmost | wsExToolWindow | wsExNoActivate)
	style := uint32(wsPopup)
	title := utf16ptr(h.delegate.windowTitle())

	hwnd, err := createWindowInBand(uint32(exStyle), className, title, style,
		vx, vy, vw, vh, 0, 0, hInstance, zbidAboveLockUX)
	if err != nil {
		hwnd, _, _ = procCreateWindowExW.Call(
			exStyle,
			uintptr(unsafe.Pointer(className)),
			uintptr(unsafe.Pointer(title)),
			uintptr(style),
			uintptr(vx), uintptr(vy), uintptr(vw), uintptr(vh),
			0, 0, hInstance, 0,
		)
	}
	if hwnd == 0 {
		procUnregisterClassW.Call(uintptr(unsafe.Pointer(className)), hInstance)
		h.ready <- ErrWindowCreation
		return
	}

	h.mu.Lock()
	h.hwnd = hwnd
	h.className = className
	h.hInstance = hInstance
	h.mu.Unlock()

	overlayHostsMu.Lock()
	overlayHostsByHWND[hwnd] = h
	overlayHostsMu.Unlock()

	h.setCloak(true)

	h.ready <- nil

	var m msg
	for {
		select {
		case <-h.quit:
			h.cleanup()
			return
		default:
		}
		ret, _, _ := procPeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, 1 /* PM_REMOVE */)
		if ret != 0 {
			if m.HWnd == 0 {
				// Messages from PostThreadMessageW carry no window handle,
				// so DispatchMessageW would drop them; hand them to the
				// window procedure directly.
				h.windowProc(hwnd, uintptr(m.Message), m.WParam, m.LParam)
			} else {
				procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
				procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
			}
			if m.Message == wmPrivacyShutdown {
				h.cleanup()
				return
			}
		} else {
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func getCurrentThreadID() uint32 {
	id, _, _ := procGetCurrentThreadId.Call()
	return uint32(id)
}

// setCloak sets or clears DWMWA_CLOAK (win_direct_overlay.rs::cloak_window).
// The window starts cloaked at creation and stays that way until the first
// SHOW; HIDE re-cloaks it so it never sits rendered-but-idle on the
// physical display between privacy sessions (spec.md §3: "cloaked = true
// while hidden").
func (h *overlayHost) setCloak(cloaked bool) {
	var v int32
	if cloaked {
		v = 1
	}
	procDwmSetWindowAttribute.Call(h.hwnd, dwmwaCloak, uintptr(unsafe.Pointer(&v)), 4)
}

// setCaptureExclusion toggles WDA_EXCLUDEFROMCAPTURE/WDA_NONE so the
// overlay is excluded from capture only while privacy mode is actually
// active (spec.md §3: "capture-excluded... whenever privacy_active is
// true"; win_direct_overlay.rs::set_capture_exclusion). Silently ignored on
// Windows builds older than 10.0.19041, which reject the flag.
func (h *overlayHost) setCaptureExclusion(excluded bool) {
	affinity := uintptr(wdaNone)
	if excluded {
		affinity = wdaExcludeFromCapture
	}
	ret, _, _ := procSetWindowDisplayAff.Call(h.hwnd, affinity)
	if ret == 0 {
		log.Debug("privacy overlay: capture exclusion unsupported on this build")
	}
}

// show makes the overlay visible, installs the input hooks, and suppresses
// the cursor. Idempotent (mirrors show_overlay's atomic-swap guard).
func (h *overlayHost) show() error {
	if h.privacyActive.Swap(true) {
		return nil
	}
	if err := h.post(wmPrivacyShow, 0, 0); err != nil {
		h.privacyActive.Store(false)
		return err
	}
	if err := h.hooks.install(); err != nil {
		h.privacyActive.Store(false)
		h.post(wmPrivacyHide, 0, 0)
		return err
	}
	h.cursor.hideAggressive()
	return nil
}

// hide reverses show: restores the cursor, removes the hooks, hides the
// window. Idempotent.
func (h *overlayHost) hide() error {
	if !h.privacyActive.Swap(false) {
		return nil
	}
	h.cursor.showRestore()
	h.hooks.remove()
	return h.post(wmPrivacyHide, 0, 0)
}

// shutdown tears the overlay window and its thread down entirely (the
// counterpart of init_cleanup/emergency_cleanup in the original). Nothing
// in this package calls it: a back-end keeps its host for the life of the
// process.
func (h *overlayHost) shutdown() {
	h.hide()
	h.mu.Lock()
	quit := h.quit
	h.mu.Unlock()
	if quit == nil {
		return
	}
	select {
	case <-quit:
	default:
		close(quit)
	}
	h.post(wmPrivacyShutdown, 0, 0)
}

func (h *overlayHost) post(message uint32, wParam, lParam uintptr) error {
	h.mu.Lock()
	tid := h.threadID
	h.mu.Unlock()
	if tid == 0 {
		return nil
	}
	ret, _, _ := procPostThreadMessageW.Call(uintptr(tid), uintptr(message), wParam, lParam)
	if ret == 0 {
		return ErrWindowCreation
	}
	return nil
}

func (h *overlayHost) cleanup() {
	overlayHostsMu.Lock()
	delete(overlayHostsByHWND, h.hwnd)
	overlayHostsMu.Unlock()

	h.cursor.showRestore()
	h.hooks.remove()

	if h.hwnd != 0 {
		procDestroyWindow.Call(h.hwnd)
	}
	if h.className != nil {
		procUnregisterClassW.Call(uintptr(unsafe.Pointer(h.className)), h.hInstance)
	}
	h.mu.Lock()
	h.hwnd = 0
	h.mu.Unlock()
}

func (h *overlayHost) windowProc(hwnd, message, wParam, lParam uintptr) uintptr {
	switch message {
	case wmPrivacyShow:
		h.setCloak(false)
		h.setCaptureExclusion(true)
		procShowWindow.Call(hwnd, swShow)
		procUpdateWindow.Call(hwnd)
		return 0
	case wmPrivacyHide:
		procShowWindow.Call(hwnd, swHide)
		h.setCaptureExclusion(false)
		h.setCloak(true)
		return 0
	case wmNCHitTest:
		return uintptr(htTransparent)
	case wmSetCursor:
		procSetCursor.Call(0)
		return 1
	case wmWindowPosChanging:
		wp := (*windowPos)(unsafe.Pointer(lParam))
		wp.HWndInsertAfter = hwndTopmost
		h.delegate.adjustWindowPos(wp)
		return 0
	case wmPaint:
		var ps paintStruct
		hdc, _, _ := procBeginPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
		var cr rect
		procGetClientRect.Call(hwnd, uintptr(unsafe.Pointer(&cr)))
		h.delegate.paint(hdc, cr)
		procEndPaint.Call(hwnd, uintptr(unsafe.Pointer(&ps)))
		return 0
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}

	if result, handled := h.delegate.onMessage(hwnd, message, wParam, lParam); handled {
		return result
	}

	r, _, _ := procDefWindowProcW.Call(hwnd, message, wParam, lParam)
	return r
}
