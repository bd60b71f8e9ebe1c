//go:build windows

package privacy

import "unsafe"

const (
	directOverlayClassName  = "CloudyDeskDirectPrivacyWindow"
	directOverlayWindowTitle = "CloudyDesk Privacy Overlay"
)

// directOverlayDelegate paints solid black with four 100px red corner
// squares, kept from win_direct_overlay.rs::window_proc's WM_PAINT handler
// "to confirm it's working" for whoever is watching the console locally.
type directOverlayDelegate struct{}

func (directOverlayDelegate) className() string   { return directOverlayClassName }
func (directOverlayDelegate) windowTitle() string { return directOverlayWindowTitle }

func (directOverlayDelegate) paint(hdc uintptr, clientRect rect) {
	black, _, _ := procCreateSolidBrush.Call(0x000000)
	procFillRect.Call(hdc, uintptr(unsafe.Pointer(&clientRect)), black)
	procDeleteObject.Call(black)

	red, _, _ := procCreateSolidBrush.Call(0x0000FF) // COLORREF is 0x00BBGGRR
	const size = 100
	corners := []rect{
		{Left: clientRect.Left, Top: clientRect.Top, Right: clientRect.Left + size, Bottom: clientRect.Top + size},
		{Left: clientRect.Right - size, Top: clientRect.Top, Right: clientRect.Right, Bottom: clientRect.Top + size},
		{Left: clientRect.Left, Top: clientRect.Bottom - size, Right: clientRect.Left + size, Bottom: clientRect.Bottom},
		{Left: clientRect.Right - size, Top: clientRect.Bottom - size, Right: clientRect.Right, Bottom: clientRect.Bottom},
	}
	for _, c := range corners {
		c := c
		procFillRect.Call(hdc, uintptr(unsafe.Pointer(&c)), red)
	}
	procDeleteObject.Call(red)
}

// adjustWindowPos pins the overlay in place: no move, no resize, ever
// (win_direct_overlay.rs forces SWP_NOMOVE|SWP_NOSIZE in WM_WINDOWPOSCHANGING).
func (directOverlayDelegate) adjustWindowPos(wp *windowPos) {
	wp.Flags |= swpNoMove | swpNoSize
}

func (directOverlayDelegate) onMessage(hwnd, message, wParam, lParam uintptr) (uintptr, bool) {
	return 0, false
}

// directOverlayPrivacyMode is the direct_overlay PrivacyMode back-end: a
// single opaque overlay window covering the virtual screen.
type directOverlayPrivacyMode struct {
	publisher StatePublisher
	host      *overlayHost
	connID    ConnID
}

func newDirectOverlayPrivacyMode(publisher StatePublisher) *directOverlayPrivacyMode {
	return &directOverlayPrivacyMode{
		publisher: publisher,
		host:      newOverlayHost(directOverlayDelegate{}),
		connID:    InvalidConnID,
	}
}

func (d *directOverlayPrivacyMode) Init() error {
	return d.host.start()
}

func (d *directOverlayPrivacyMode) TurnOn(connID ConnID) (bool, error) {
	if d.connID == connID && d.host.privacyActive.Load() {
		return true, nil
	}
	if err := d.host.show(); err != nil {
		d.publish(connID, StateOnFailed)
		return false, err
	}
	d.connID = connID
	d.publish(connID, StateOn)
	return true, nil
}

func (d *directOverlayPrivacyMode) TurnOff(connID ConnID, state *State) error {
	if err := d.host.hide(); err != nil {
		if state != nil {
			*state = StateOffFailed
		}
		d.publish(connID, StateOffFailed)
		return err
	}
	d.connID = InvalidConnID
	if state != nil {
		*state = StateOffSucceeded
	}
	d.publish(connID, StateOffSucceeded)
	return nil
}

func (d *directOverlayPrivacyMode) PreConnID() ConnID {
	if !d.host.privacyActive.Load() {
		return InvalidConnID
	}
	return d.connID
}

func (d *directOverlayPrivacyMode) ImplKey() ImplKey { return ImplDirectOverlay }
func (d *directOverlayPrivacyMode) IsAsync() bool    { return false }

func (d *directOverlayPrivacyMode) publish(connID ConnID, state State) {
	if d.publisher == nil {
		return
	}
	d.publisher.SetPrivacyModeState(connID, state, ImplDirectOverlay, 3000)
}
