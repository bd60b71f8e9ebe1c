//go:build !windows

package privacy

type unsupportedPrivacyMode struct {
	key ImplKey
}

func (u *unsupportedPrivacyMode) Init() error                         { return ErrNotSupported }
func (u *unsupportedPrivacyMode) TurnOn(ConnID) (bool, error)          { return false, ErrNotSupported }
func (u *unsupportedPrivacyMode) TurnOff(ConnID, *State) error         { return ErrNotSupported }
func (u *unsupportedPrivacyMode) PreConnID() ConnID                    { return InvalidConnID }
func (u *unsupportedPrivacyMode) ImplKey() ImplKey                     { return u.key }
func (u *unsupportedPrivacyMode) IsAsync() bool                        { return false }

// NewDefaultController builds a Controller whose back-ends all report
// ErrNotSupported, so the agent still links and runs on non-Windows
// platforms. Real behavior only exists in the windows build.
func NewDefaultController(publisher StatePublisher) *Controller {
	c := NewController(publisher)
	for _, key := range []ImplKey{ImplDirectOverlay, ImplGIFOverlay, ImplSeparateDesktop} {
		key := key
		c.Register(key, func(StatePublisher) PrivacyMode {
			return &unsupportedPrivacyMode{key: key}
		})
	}
	return c
}
