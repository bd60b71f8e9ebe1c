//go:build windows

package privacy

import (
	"context"
	"sync"
	"time"
	"unsafe"
)

const (
	gifOverlayClassName   = "CloudyDeskGifPrivacyWindow"
	gifOverlayWindowTitle = "CloudyDesk GIF Privacy Overlay"
)

const (
	framePumpInterval    = 16 * time.Millisecond
	zorderWatchdogPeriod = 50 * time.Millisecond
)

// animatedOverlayDelegate paints the current frame of a decoded GIF,
// rewriting every WM_WINDOWPOSCHANGING request to keep the window pinned
// full-screen and topmost the way win_gif_overlay.rs's window_proc does.
type animatedOverlayDelegate struct {
	mu  sync.Mutex
	seq *FrameSequence
}

func (d *animatedOverlayDelegate) className() string   { return gifOverlayClassName }
func (d *animatedOverlayDelegate) windowTitle() string { return gifOverlayWindowTitle }

func (d *animatedOverlayDelegate) setSequence(seq *FrameSequence) {
	d.mu.Lock()
	d.seq = seq
	d.mu.Unlock()
}

func (d *animatedOverlayDelegate) paint(hdc uintptr, clientRect rect) {
	d.mu.Lock()
	seq := d.seq
	d.mu.Unlock()
	if seq == nil || seq.Len() == 0 {
		black, _, _ := procCreateSolidBrush.Call(0x000000)
		procFillRect.Call(hdc, uintptr(unsafe.Pointer(&clientRect)), black)
		procDeleteObject.Call(black)
		return
	}
	blitFrame(hdc, seq.Current(), clientRect)
}

// blitFrame hands f.Pix straight to StretchDIBits: a 32bpp BI_RGB DIB's
// bytes are read by GDI in B,G,R,A order, which is exactly how Frame.Pix
// is stored, so no channel conversion happens here.
func blitFrame(hdc uintptr, f Frame, dst rect) {
	if f.Width == 0 || f.Height == 0 {
		return
	}
	bmi := bitmapInfo{
		Header: bitmapInfoHeader{
			Size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
			Width:       int32(f.Width),
			Height:      -int32(f.Height), // negative: top-down DIB, matches decoded row order
			Planes:      1,
			BitCount:    32,
			Compression: 0, // BI_RGB
		},
	}
	procStretchDIBits.Call(
		hdc,
		uintptr(dst.Left), uintptr(dst.Top),
		uintptr(dst.Right-dst.Left), uintptr(dst.Bottom-dst.Top),
		0, 0, uintptr(f.Width), uintptr(f.Height),
		uintptr(unsafe.Pointer(&f.Pix[0])),
		uintptr(unsafe.Pointer(&bmi)),
		0, // DIB_RGB_COLORS
		0x00CC0020, // SRCCOPY
	)
}

// adjustWindowPos forces the animated overlay to stay full virtual-screen
// and topmost regardless of what the caller asked for. Unlike the direct
// overlay, which only forbids moves and resizes, it rewrites the requested
// bounds to the virtual-screen rectangle.
func (d *animatedOverlayDelegate) adjustWindowPos(wp *windowPos) {
	wp.X = getSystemMetrics(smXVirtualScreen)
	wp.Y = getSystemMetrics(smYVirtualScreen)
	wp.Cx = getSystemMetrics(smCXVirtualScreen)
	wp.Cy = getSystemMetrics(smCYVirtualScreen)
	wp.Flags &^= swpNoMove | swpNoSize
}

func (d *animatedOverlayDelegate) onMessage(hwnd, message, wParam, lParam uintptr) (uintptr, bool) {
	if message == wmPrivacyAnimate {
		procInvalidateRect.Call(hwnd, 0, 0)
		return 0, true
	}
	return 0, false
}

// animatedOverlayPrivacyMode is the gif_overlay back-end: the same overlay
// window host as direct_overlay, but painted from a downloaded animated
// image and driven by a frame pump plus a z-order watchdog that keeps
// re-asserting topmost.
type animatedOverlayPrivacyMode struct {
	publisher StatePublisher
	delegate  *animatedOverlayDelegate
	host      *overlayHost
	connID    ConnID

	pumpCancel context.CancelFunc
	watchdogMu sync.Mutex
}

func newAnimatedOverlayPrivacyMode(publisher StatePublisher) *animatedOverlayPrivacyMode {
	delegate := &animatedOverlayDelegate{}
	return &animatedOverlayPrivacyMode{
		publisher: publisher,
		delegate:  delegate,
		host:      newOverlayHost(delegate),
		connID:    InvalidConnID,
	}
}

func (a *animatedOverlayPrivacyMode) Init() error {
	if err := a.host.start(); err != nil {
		return err
	}
	go a.loadImage()
	return nil
}

// loadImage fetches and decodes the overlay GIF in the background. Either
// step failing falls back to the synthetic gradient sequence rather than
// leaving the overlay unanimated (spec.md §4.6: "never fails to start").
func (a *animatedOverlayPrivacyMode) loadImage() {
	data, err := fetchImage(context.Background())
	if err != nil {
		log.Warn("privacy gif overlay: image fetch failed, using synthetic fallback gradient", "error", err)
		a.delegate.setSequence(syntheticGradientSequence())
		return
	}
	seq, err := decodeGIF(data)
	if err != nil {
		log.Warn("privacy gif overlay: image decode failed, using synthetic fallback gradient", "error", err)
		a.delegate.setSequence(syntheticGradientSequence())
		return
	}
	a.delegate.setSequence(seq)
}

func (a *animatedOverlayPrivacyMode) TurnOn(connID ConnID) (bool, error) {
	if a.connID == connID && a.host.privacyActive.Load() {
		return true, nil
	}
	if err := a.host.show(); err != nil {
		a.publish(connID, StateOnFailed)
		return false, err
	}
	a.connID = connID
	a.startPump()
	a.publish(connID, StateOn)
	return true, nil
}

func (a *animatedOverlayPrivacyMode) TurnOff(connID ConnID, state *State) error {
	a.stopPump()
	if err := a.host.hide(); err != nil {
		if state != nil {
			*state = StateOffFailed
		}
		a.publish(connID, StateOffFailed)
		return err
	}
	a.connID = InvalidConnID
	if state != nil {
		*state = StateOffSucceeded
	}
	a.publish(connID, StateOffSucceeded)
	return nil
}

func (a *animatedOverlayPrivacyMode) PreConnID() ConnID {
	if !a.host.privacyActive.Load() {
		return InvalidConnID
	}
	return a.connID
}

func (a *animatedOverlayPrivacyMode) ImplKey() ImplKey { return ImplGIFOverlay }
func (a *animatedOverlayPrivacyMode) IsAsync() bool    { return true }

func (a *animatedOverlayPrivacyMode) publish(connID ConnID, state State) {
	if a.publisher == nil {
		return
	}
	a.publisher.SetPrivacyModeState(connID, state, ImplGIFOverlay, 3000)
}

// startPump launches the frame-advance ticker and the z-order watchdog.
// Both stop themselves (via ctx) when TurnOff runs; both are no-ops beyond
// that point even if called again, matching the overlay host's own
// idempotency guards.
func (a *animatedOverlayPrivacyMode) startPump() {
	a.watchdogMu.Lock()
	defer a.watchdogMu.Unlock()
	if a.pumpCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.pumpCancel = cancel

	go a.framePump(ctx)
	go a.zorderWatchdog(ctx)
}

func (a *animatedOverlayPrivacyMode) stopPump() {
	a.watchdogMu.Lock()
	defer a.watchdogMu.Unlock()
	if a.pumpCancel == nil {
		return
	}
	a.pumpCancel()
	a.pumpCancel = nil
}

// framePump advances the decoded animation and invalidates the window
// whenever the visible frame changes.
func (a *animatedOverlayPrivacyMode) framePump(ctx context.Context) {
	last := time.Now()
	ticker := time.NewTicker(framePumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			a.delegate.mu.Lock()
			seq := a.delegate.seq
			a.delegate.mu.Unlock()
			if seq == nil {
				continue
			}
			if seq.Advance(dt) {
				a.host.post(wmPrivacyAnimate, 0, 0)
			}
		}
	}
}

// zorderWatchdog periodically re-asserts the overlay's topmost position:
// some full-screen applications and UAC prompts can steal the foreground
// z-order out from under a layered window.
func (a *animatedOverlayPrivacyMode) zorderWatchdog(ctx context.Context) {
	ticker := time.NewTicker(zorderWatchdogPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.host.mu.Lock()
			hwnd := a.host.hwnd
			a.host.mu.Unlock()
			if hwnd == 0 {
				continue
			}
			procSetWindowPos.Call(hwnd, hwndTopmost, 0, 0, 0, 0,
				uintptr(swpNoMove|swpNoSize|swpNoActivate))
			procBringWindowToTop.Call(hwnd)
		}
	}
}
