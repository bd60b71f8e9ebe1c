//go:build windows

package privacy

// NewDefaultController builds a Controller with all three Windows back-ends
// registered, matching the impl_keys in spec.md §6. Construction of each
// back-end is deferred until its first turn_on (Controller.instanceLocked).
func NewDefaultController(publisher StatePublisher) *Controller {
	c := NewController(publisher)
	c.Register(ImplDirectOverlay, func(p StatePublisher) PrivacyMode {
		return newDirectOverlayPrivacyMode(p)
	})
	c.Register(ImplGIFOverlay, func(p StatePublisher) PrivacyMode {
		return newAnimatedOverlayPrivacyMode(p)
	})
	c.Register(ImplSeparateDesktop, func(p StatePublisher) PrivacyMode {
		return newSeparateDesktopPrivacyMode(p)
	})
	return c
}
