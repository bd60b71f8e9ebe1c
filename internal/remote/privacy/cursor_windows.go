//go:build windows

package privacy

import (
	"sync/atomic"
	"time"
	"unsafe"
)

// cursorEnforcer hides the local cursor for the duration of a privacy
// session: it builds a fully transparent cursor, installs it over the
// system cursor shapes in systemCursorIDs, and re-applies ShowCursor(FALSE) on a
// tight loop because some applications (and the shell) call ShowCursor(TRUE)
// on their own timers, which would otherwise flash the real cursor back in
// (win_direct_overlay.rs::start_cursor_enforcer).
type cursorEnforcer struct {
	hidden        atomic.Bool
	systemReplaced atomic.Bool
	running       atomic.Bool
	stop          chan struct{}
	done          chan struct{}
	blankCursor   uintptr
}

func newCursorEnforcer() *cursorEnforcer {
	return &cursorEnforcer{}
}

// systemCursorIDs mirrors win_direct_overlay.rs::apply_system_blank_cursors:
// the common OCR_* cursor shapes SetSystemCursor can replace. OCR_APPSTARTING
// is not in the list and is left unchanged.
var systemCursorIDs = []uint32{
	32512, // OCR_NORMAL
	32513, // OCR_IBEAM
	32514, // OCR_WAIT
	32515, // OCR_CROSS
	32516, // OCR_UP
	32642, // OCR_SIZENWSE
	32643, // OCR_SIZENESW
	32644, // OCR_SIZEWE
	32645, // OCR_SIZENS
	32646, // OCR_SIZEALL
	32648, // OCR_NO
	32649, // OCR_HAND
	32651, // OCR_HELP
}

// createInvisibleCursor builds a 1x1 fully transparent cursor: an AND mask
// of all-1s (fully transparent) and a zeroed XOR mask, wrapped with
// CreateIconIndirect. Mirrors win_direct_overlay.rs::create_invisible_cursor.
func createInvisibleCursor() (uintptr, error) {
	andMask := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	xorMask := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

	hAnd, _, _ := procCreateBitmap.Call(1, 1, 1, 1, uintptr(unsafe.Pointer(&andMask[0])))
	if hAnd == 0 {
		return 0, ErrWindowCreation
	}
	hXor, _, _ := procCreateBitmap.Call(1, 1, 1, 1, uintptr(unsafe.Pointer(&xorMask[0])))
	if hXor == 0 {
		procDeleteObject.Call(hAnd)
		return 0, ErrWindowCreation
	}

	info := struct {
		FIcon    int32
		XHotspot uint32
		YHotspot uint32
		HbmMask  uintptr
		HbmColor uintptr
	}{FIcon: 0, XHotspot: 0, YHotspot: 0, HbmMask: hAnd, HbmColor: hXor}

	hCursor, _, _ := procCreateIconIndirect.Call(uintptr(unsafe.Pointer(&info)))
	procDeleteObject.Call(hAnd)
	procDeleteObject.Call(hXor)
	if hCursor == 0 {
		return 0, ErrWindowCreation
	}
	return hCursor, nil
}

// applyBlankCursors installs the blank cursor over every system cursor
// shape so applications that SetCursor() directly still show nothing.
func (e *cursorEnforcer) applyBlankCursors() error {
	if e.blankCursor == 0 {
		c, err := createInvisibleCursor()
		if err != nil {
			return err
		}
		e.blankCursor = c
	}
	for _, id := range systemCursorIDs {
		procSetSystemCursor.Call(e.blankCursor, uintptr(id))
	}
	e.systemReplaced.Store(true)
	return nil
}

// restoreSystemCursors puts the stock cursor set back via
// SystemParametersInfoW(SPI_SETCURSORS), the same call Windows' own "Reset
// all cursors" control panel button uses.
func (e *cursorEnforcer) restoreSystemCursors() {
	if !e.systemReplaced.Load() {
		return
	}
	procSystemParametersW.Call(spiSetCursors, 0, 0, 0)
	e.systemReplaced.Store(false)
}

// hideAggressive forces the cursor null immediately, then drives
// ShowCursor(FALSE) down to a negative display count and starts the
// enforcer loop (win_direct_overlay.rs::hide_cursor_aggressive).
func (e *cursorEnforcer) hideAggressive() {
	if e.hidden.Swap(true) {
		return
	}
	procSetCursor.Call(0)
	for i := 0; i < 8; i++ {
		count, _, _ := procShowCursor.Call(0)
		if int32(count) < -1 {
			break
		}
	}
	if err := e.applyBlankCursors(); err != nil {
		log.Warn("privacy cursor: blank cursor install failed", "error", err)
	}
	e.startLoop()
}

// showRestore undoes hideAggressive: stops the enforcer loop, restores
// ShowCursor's display count and the stock cursor set, reloads the arrow
// cursor, and re-posts the current cursor position to force the shell to
// redraw it (win_direct_overlay.rs::show_cursor_restore).
func (e *cursorEnforcer) showRestore() {
	if !e.hidden.Swap(false) {
		return
	}
	e.stopLoop()
	for i := 0; i < 8; i++ {
		count, _, _ := procShowCursor.Call(1)
		if int32(count) >= 0 {
			break
		}
	}
	e.restoreSystemCursors()
	procSetCursor.Call(loadCursorArrow())
	var pt point
	if ret, _, _ := procGetCursorPos.Call(uintptr(unsafe.Pointer(&pt))); ret != 0 {
		procSetCursorPos.Call(uintptr(pt.X), uintptr(pt.Y))
	}
}

func (e *cursorEnforcer) startLoop() {
	if e.running.Swap(true) {
		return
	}
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-e.stop:
				return
			case <-ticker.C:
				if !e.hidden.Load() {
					return
				}
				procShowCursor.Call(0)
				procSetCursor.Call(0)
			}
		}
	}()
}

func (e *cursorEnforcer) stopLoop() {
	if !e.running.Swap(false) {
		return
	}
	close(e.stop)
	<-e.done
}
