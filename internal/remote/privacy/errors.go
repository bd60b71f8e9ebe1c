package privacy

import "errors"

// Sentinel errors returned by the registry and by individual back-ends.
// Callers compare with errors.Is; wrapping chains use fmt.Errorf("...: %w").
var (
	// ErrNotRegistered is returned when turn_on names an impl_key with no
	// registered back-end, and when turn_off finds no back-end active.
	ErrNotRegistered = errors.New("privacy: impl_key not registered")

	// ErrWrongConnection is returned when turn_off is called with a
	// connId that does not match the connection currently holding
	// privacy mode, and the call did not use InvalidConnID to force it.
	ErrWrongConnection = errors.New("privacy: connId does not own the active session")

	// ErrAlreadyActive is returned when turn_on targets a back-end other
	// than the one already active; at most one back-end may be active at
	// a time.
	ErrAlreadyActive = errors.New("privacy: a different back-end is already active")

	// ErrNotSupported is returned by every back-end's Init, TurnOn and
	// TurnOff on non-Windows builds.
	ErrNotSupported = errors.New("privacy: not supported on this platform")

	// ErrWindowCreation covers RegisterClassExW/CreateWindowExW failure.
	ErrWindowCreation = errors.New("privacy: overlay window creation failed")

	// ErrHookInstall covers SetWindowsHookExW failure for either hook.
	ErrHookInstall = errors.New("privacy: input hook installation failed")

	// ErrDesktopCreate covers CreateDesktopW failure when provisioning the
	// isolated agent desktop, and OpenDesktopW/SetThreadDesktop failure when
	// switching a thread to or from it.
	ErrDesktopCreate = errors.New("privacy: agent desktop creation failed")

	// ErrShellLaunch covers a failure to start explorer.exe on the agent
	// desktop once the desktop object itself exists.
	ErrShellLaunch = errors.New("privacy: shell launch on agent desktop failed")
)
