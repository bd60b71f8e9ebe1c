//go:build windows

package privacy

import (
	"sync/atomic"
	"unsafe"
)

// inputHookSet owns the two low-level hooks installed while a privacy
// session is active. One exists per overlay host instance, matching the
// Rust original's per-module hook handles (win_direct_overlay.rs).
type inputHookSet struct {
	installed    atomic.Bool
	keyboardHook uintptr
	mouseHook    uintptr
	keyboardCb   uintptr
	mouseCb      uintptr
}

func newInputHookSet() *inputHookSet {
	h := &inputHookSet{}
	h.keyboardCb = syscallNewCallback(h.keyboardProc)
	h.mouseCb = syscallNewCallback(h.mouseProc)
	return h
}

// install sets both low-level hooks, rolling back the keyboard hook if the
// mouse hook fails (win_direct_overlay.rs::install_input_hooks).
func (h *inputHookSet) install() error {
	if h.installed.Load() {
		return nil
	}
	hMod, _, _ := procGetModuleHandleW.Call(0)

	kb, _, _ := procSetWindowsHookExW.Call(whKeyboardLL, h.keyboardCb, hMod, 0)
	if kb == 0 {
		return ErrHookInstall
	}
	mouse, _, _ := procSetWindowsHookExW.Call(whMouseLL, h.mouseCb, hMod, 0)
	if mouse == 0 {
		procUnhookWindowsHookEx.Call(kb)
		return ErrHookInstall
	}

	h.keyboardHook = kb
	h.mouseHook = mouse
	h.installed.Store(true)
	return nil
}

func (h *inputHookSet) remove() {
	if !h.installed.Swap(false) {
		return
	}
	if h.keyboardHook != 0 {
		procUnhookWindowsHookEx.Call(h.keyboardHook)
		h.keyboardHook = 0
	}
	if h.mouseHook != 0 {
		procUnhookWindowsHookEx.Call(h.mouseHook)
		h.mouseHook = 0
	}
}

func (h *inputHookSet) keyboardProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) == hcAction {
		kb := (*kbdllhookstruct)(unsafe.Pointer(lParam))
		pass := classifyHookEvent(kb.DwExtraInfo, kb.Flags&llkhfInjected != 0)
		log.Debug("privacy input hook keyboard event",
			"vkCode", kb.VkCode, "pass", pass)
		if !pass {
			return 1
		}
	}
	r, _, _ := procCallNextHookEx.Call(h.keyboardHook, nCode, wParam, lParam)
	return r
}

func (h *inputHookSet) mouseProc(nCode, wParam, lParam uintptr) uintptr {
	// The mouse hook unconditionally hides the cursor on every event
	// regardless of the pass/block decision below
	// (win_direct_overlay.rs::mouse_hook_proc).
	procSetCursor.Call(0)

	if int32(nCode) == hcAction {
		ms := (*msllhookstruct)(unsafe.Pointer(lParam))
		pass := classifyHookEvent(ms.DwExtraInfo, ms.Flags&llmhfInjected != 0)
		log.Debug("privacy input hook mouse event",
			"message", wParam, "pass", pass)
		if !pass {
			return 1
		}
	}
	r, _, _ := procCallNextHookEx.Call(h.mouseHook, nCode, wParam, lParam)
	return r
}
