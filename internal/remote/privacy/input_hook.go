package privacy

// syntheticInputSentinel is the dwExtraInfo value the agent's own synthetic
// input generator stamps on every SendInput call it issues while privacy
// mode is active, so the low-level hooks installed by this package can tell
// "our own synthetic input" apart from anything else, including input
// injected by some other process (win_direct_overlay.rs checks this before
// falling back to the injected-flag test, via enigo's ENIGO_INPUT_EXTRA_VALUE).
// The value only needs to be agreed between this package and whatever
// synthesizes the operator's input; it is not read from input_windows.go
// today because that package does not yet stamp dwExtraInfo, so hook
// classification falls back to the injected-flag check below for it.
const syntheticInputSentinel uintptr = 0x8A3C1F00

// classifyHookEvent decides whether a low-level keyboard or mouse event
// should be passed to the rest of the system (true) or swallowed (false).
// extraInfo is the event's dwExtraInfo; injected reports whether the
// LLKHF_INJECTED/LLMHF_INJECTED flag was set. Extracted as a pure function
// so it is testable without a Windows hook, mirroring
// internal/remote/desktop/wallpaper_test.go's pattern of pulling the
// decision out of the syscall-bound code.
func classifyHookEvent(extraInfo uintptr, injected bool) bool {
	if extraInfo == syntheticInputSentinel {
		return true
	}
	return injected
}
