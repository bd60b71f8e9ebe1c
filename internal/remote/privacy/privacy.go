// Package privacy implements privacy mode for the remote desktop session:
// while a remote operator is connected, the console user's screen, keyboard,
// and mouse are made invisible/unreachable while the operator keeps driving
// the real desktop with synthetic input.
//
// Three interchangeable back-ends implement PrivacyMode: a full-screen black
// overlay window (direct_overlay), the same overlay painted from an
// animated image (gif_overlay), and an isolated Windows desktop the capture
// thread switches to (separate_desktop). All three are Windows-only; on
// other platforms their Init, TurnOn and TurnOff return ErrNotSupported so
// the module still builds and tests cross-platform.
package privacy

import (
	"fmt"

	"github.com/breeze-rmm/agent/internal/logging"
)

var log = logging.L("privacy")

// ConnID identifies the remote connection that owns the active privacy
// session. It is assigned by the session layer; the privacy subsystem only
// compares it for equality.
type ConnID int32

// InvalidConnID is the sentinel connection id. turn_off with this id is a
// forced override that bypasses the owning-connection check.
const InvalidConnID ConnID = -1

// State is the externally-published privacy mode transition.
type State int

const (
	StateOff State = iota
	StateOffSucceeded
	StateOffByPeer
	StateOffFailed
	StateOffUnknown
	StateOn
	StateOnFailed
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateOffSucceeded:
		return "off_succeeded"
	case StateOffByPeer:
		return "off_by_peer"
	case StateOffFailed:
		return "off_failed"
	case StateOffUnknown:
		return "off_unknown"
	case StateOn:
		return "on"
	case StateOnFailed:
		return "on_failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ImplKey names a registered privacy-mode back-end. These strings are
// externally referenced by the session layer and must remain stable.
type ImplKey string

const (
	ImplDirectOverlay   ImplKey = "privacy_mode_impl_direct_overlay"
	ImplGIFOverlay      ImplKey = "privacy_mode_impl_gif_overlay"
	ImplSeparateDesktop ImplKey = "privacy_mode_impl_separate_desktop"
)

// StatePublisher is the session-layer collaborator that records privacy
// mode transitions. Implementations should treat the deadline as a hint.
// The back-ends in this package do not inspect the returned error: a failed
// publication is neither logged nor fatal to the transition itself.
type StatePublisher interface {
	SetPrivacyModeState(connID ConnID, state State, impl ImplKey, deadlineMS int) error
}

// PrivacyMode is the capability every back-end implements.
type PrivacyMode interface {
	// Init prepares the back-end (e.g. spawns its worker thread) without
	// making anything visible yet.
	Init() error
	// TurnOn activates privacy mode for connID. It is idempotent for a
	// repeated call with the same connID.
	TurnOn(connID ConnID) (bool, error)
	// TurnOff deactivates privacy mode. connID must match the connection
	// that turned it on, unless it is InvalidConnID (forced override).
	// state, if non-nil, is overwritten with the resulting state
	// (StateOffSucceeded or StateOffFailed); its incoming value is not read.
	// The back-end publishes the resulting state itself.
	TurnOff(connID ConnID, state *State) error
	// PreConnID reports the connection id currently holding privacy mode,
	// or InvalidConnID if inactive.
	PreConnID() ConnID
	// ImplKey reports the back-end's registered key.
	ImplKey() ImplKey
	// IsAsync reports whether TurnOn/TurnOff's effect completes
	// asynchronously relative to the call returning.
	IsAsync() bool
}
