//go:build windows

package privacy

import (
	"fmt"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const agentDesktopName = "CloudyDeskAgent"

// desktopAllAccess mirrors win_separate_desktop.rs's DESKTOP_ALL_ACCESS: the
// full combination of desktop-object rights CreateDesktopW/OpenDesktopW
// request, rather than narrowing to just what SetThreadDesktop needs.
const desktopAllAccess = 0x01FF

// desktopInfo records the isolated desktop's identity and the pid of the
// Explorer shell instance running on it, matching
// win_separate_desktop.rs::DesktopInfo. It lives as a process-wide
// singleton guarded by agentDesktopMu, because exactly one agent desktop
// can exist at a time.
type desktopInfo struct {
	name        string
	explorerPID uint32
	hasExplorer bool
}

var (
	agentDesktopMu   sync.Mutex
	agentDesktopInfo *desktopInfo
)

// createAgentDesktop provisions the isolated desktop and launches Explorer
// on it. It is a no-op if the desktop already exists
// (win_separate_desktop.rs::create_agent_desktop's guard check).
func createAgentDesktop() error {
	agentDesktopMu.Lock()
	defer agentDesktopMu.Unlock()

	if agentDesktopInfo != nil {
		return nil
	}

	name, _ := syscall.UTF16PtrFromString(agentDesktopName)
	hDesk, _, _ := procCreateDesktopW.Call(
		uintptr(unsafe.Pointer(name)),
		0, 0, 0,
		uintptr(desktopAllAccess),
		0,
	)
	if hDesk == 0 {
		return ErrDesktopCreate
	}

	pid, err := launchExplorerOnDesktop(agentDesktopName)
	if err != nil {
		procCloseDesktop.Call(hDesk)
		return fmt.Errorf("%w: %v", ErrShellLaunch, err)
	}

	// The desktop handle is closed immediately: Explorer's own process
	// keeps the named desktop object alive from here on, and
	// switchToAgentDesktop reopens it by name later
	// (win_separate_desktop.rs::create_agent_desktop).
	procCloseDesktop.Call(hDesk)

	agentDesktopInfo = &desktopInfo{name: agentDesktopName, explorerPID: pid, hasExplorer: true}
	time.Sleep(2 * time.Second)
	return nil
}

// launchExplorerOnDesktop starts explorer.exe with STARTUPINFOW.lpDesktop
// pointing at winsta0\<desktopName>, closing the process/thread handles
// CreateProcessW returns and keeping only the pid.
func launchExplorerOnDesktop(desktopName string) (uint32, error) {
	winDir, err := windows.GetWindowsDirectory()
	if err != nil {
		winDir = `C:\Windows`
	}
	cmdLinePtr, err := syscall.UTF16PtrFromString(winDir + `\explorer.exe`)
	if err != nil {
		return 0, err
	}
	desktopSpec, err := syscall.UTF16PtrFromString("winsta0\\" + desktopName)
	if err != nil {
		return 0, err
	}

	var si windows.StartupInfo
	si.Cb = uint32(unsafe.Sizeof(si))
	si.Desktop = desktopSpec

	var pi windows.ProcessInformation
	err = windows.CreateProcess(
		nil,
		cmdLinePtr,
		nil,
		nil,
		false,
		0,
		nil,
		nil,
		&si,
		&pi,
	)
	if err != nil {
		return 0, err
	}
	windows.CloseHandle(pi.Thread)
	windows.CloseHandle(pi.Process)
	return pi.ProcessId, nil
}

// destroyAgentDesktop terminates the Explorer shell and destroys the
// desktop object (win_separate_desktop.rs::destroy_agent_desktop).
func destroyAgentDesktop() error {
	agentDesktopMu.Lock()
	defer agentDesktopMu.Unlock()

	if agentDesktopInfo == nil {
		return nil
	}
	info := agentDesktopInfo
	agentDesktopInfo = nil

	if info.hasExplorer {
		h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, info.explorerPID)
		if err == nil {
			windows.TerminateProcess(h, 0)
			windows.CloseHandle(h)
		}
	}

	name, _ := syscall.UTF16PtrFromString(info.name)
	hDesk, _, _ := procOpenDesktopW.Call(uintptr(unsafe.Pointer(name)), 0, 0, uintptr(desktopAllAccess))
	if hDesk != 0 {
		procCloseDesktop.Call(hDesk)
	}
	return nil
}

// switchToAgentDesktop reopens the named desktop and attaches the calling
// (capture) thread to it.
func switchToAgentDesktop() error {
	agentDesktopMu.Lock()
	name := agentDesktopName
	agentDesktopMu.Unlock()

	namePtr, _ := syscall.UTF16PtrFromString(name)
	hDesk, _, _ := procOpenDesktopW.Call(uintptr(unsafe.Pointer(namePtr)), 0, 0, uintptr(desktopAllAccess))
	if hDesk == 0 {
		return ErrDesktopCreate
	}
	ret, _, _ := procSetThreadDesktop.Call(hDesk)
	if ret == 0 {
		procCloseDesktop.Call(hDesk)
		return ErrDesktopCreate
	}
	return nil
}

// switchToOriginalDesktop re-attaches the calling thread to the interactive
// input desktop ("winsta0\\Default").
func switchToOriginalDesktop() error {
	name, _ := syscall.UTF16PtrFromString("Default")
	hDesk, _, _ := procOpenDesktopW.Call(uintptr(unsafe.Pointer(name)), 0, 0, uintptr(desktopAllAccess))
	if hDesk == 0 {
		return ErrDesktopCreate
	}
	defer procCloseDesktop.Call(hDesk)
	ret, _, _ := procSetThreadDesktop.Call(hDesk)
	if ret == 0 {
		return ErrDesktopCreate
	}
	return nil
}

// separateDesktopPrivacyMode is the separate_desktop back-end: instead of
// an overlay window, it parks the capture thread on an isolated desktop so
// the console user's real desktop never renders into any capture surface
// (win_separate_desktop.rs::SeparateDesktopPrivacyMode).
type separateDesktopPrivacyMode struct {
	publisher StatePublisher
	mu        sync.Mutex
	connID    ConnID
	active    bool
}

func newSeparateDesktopPrivacyMode(publisher StatePublisher) *separateDesktopPrivacyMode {
	return &separateDesktopPrivacyMode{publisher: publisher, connID: InvalidConnID}
}

func (s *separateDesktopPrivacyMode) Init() error { return nil }

func (s *separateDesktopPrivacyMode) TurnOn(connID ConnID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active && s.connID == connID {
		return true, nil
	}
	if err := createAgentDesktop(); err != nil {
		s.publish(connID, StateOnFailed)
		return false, err
	}
	if err := switchToAgentDesktop(); err != nil {
		s.publish(connID, StateOnFailed)
		return false, err
	}
	s.active = true
	s.connID = connID
	s.publish(connID, StateOn)
	return true, nil
}

func (s *separateDesktopPrivacyMode) TurnOff(connID ConnID, state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := switchToOriginalDesktop(); err != nil {
		if state != nil {
			*state = StateOffFailed
		}
		s.publish(connID, StateOffFailed)
		return err
	}
	if err := destroyAgentDesktop(); err != nil {
		if state != nil {
			*state = StateOffFailed
		}
		s.publish(connID, StateOffFailed)
		return err
	}
	s.active = false
	s.connID = InvalidConnID
	if state != nil {
		*state = StateOffSucceeded
	}
	s.publish(connID, StateOffSucceeded)
	return nil
}

func (s *separateDesktopPrivacyMode) PreConnID() ConnID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return InvalidConnID
	}
	return s.connID
}

func (s *separateDesktopPrivacyMode) ImplKey() ImplKey { return ImplSeparateDesktop }
func (s *separateDesktopPrivacyMode) IsAsync() bool    { return false }

func (s *separateDesktopPrivacyMode) publish(connID ConnID, state State) {
	if s.publisher == nil {
		return
	}
	s.publisher.SetPrivacyModeState(connID, state, ImplSeparateDesktop, 3000)
}
