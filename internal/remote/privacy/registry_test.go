package privacy

import (
	"errors"
	"testing"
)

// stubPrivacyMode records calls for testing, mirroring
// internal/remote/desktop/wallpaper_test.go's stubWallpaperBackend pattern.
type stubPrivacyMode struct {
	key        ImplKey
	connID     ConnID
	turnOnErr  error
	turnOffErr error
	turnOnN    int
	turnOffN   int
}

func (s *stubPrivacyMode) Init() error { return nil }

func (s *stubPrivacyMode) TurnOn(connID ConnID) (bool, error) {
	s.turnOnN++
	if s.turnOnErr != nil {
		return false, s.turnOnErr
	}
	s.connID = connID
	return true, nil
}

func (s *stubPrivacyMode) TurnOff(connID ConnID, state *State) error {
	s.turnOffN++
	if s.turnOffErr != nil {
		return s.turnOffErr
	}
	s.connID = InvalidConnID
	if state != nil {
		*state = StateOffSucceeded
	}
	return nil
}

func (s *stubPrivacyMode) PreConnID() ConnID { return s.connID }
func (s *stubPrivacyMode) ImplKey() ImplKey  { return s.key }
func (s *stubPrivacyMode) IsAsync() bool     { return false }

type stubPublisher struct {
	calls []string
}

func (p *stubPublisher) SetPrivacyModeState(connID ConnID, state State, impl ImplKey, deadlineMS int) error {
	p.calls = append(p.calls, string(impl)+":"+state.String())
	return nil
}

func newTestController() (*Controller, *stubPrivacyMode) {
	inst := &stubPrivacyMode{key: ImplDirectOverlay, connID: InvalidConnID}
	c := NewController(&stubPublisher{})
	c.Register(ImplDirectOverlay, func(StatePublisher) PrivacyMode { return inst })
	return c, inst
}

func TestController_TurnOnUnregisteredKey(t *testing.T) {
	c := NewController(&stubPublisher{})
	_, err := c.TurnOn(ImplGIFOverlay, ConnID(1))
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestController_TurnOnThenOff(t *testing.T) {
	c, inst := newTestController()

	ok, err := c.TurnOn(ImplDirectOverlay, ConnID(5))
	if err != nil || !ok {
		t.Fatalf("TurnOn: got (%v, %v), want (true, nil)", ok, err)
	}
	if inst.turnOnN != 1 {
		t.Fatalf("expected back-end TurnOn called once, got %d", inst.turnOnN)
	}

	key, connID := c.QueryActive()
	if key != ImplDirectOverlay || connID != ConnID(5) {
		t.Fatalf("QueryActive = (%v, %v), want (%v, 5)", key, connID, ImplDirectOverlay)
	}

	var state State
	if err := c.TurnOff(ConnID(5), &state); err != nil {
		t.Fatalf("TurnOff: %v", err)
	}
	if state != StateOffSucceeded {
		t.Fatalf("state = %v, want StateOffSucceeded", state)
	}

	key, connID = c.QueryActive()
	if key != "" || connID != InvalidConnID {
		t.Fatalf("QueryActive after turn_off = (%v, %v), want empty", key, connID)
	}
}

func TestController_TurnOnIdempotentForSameConn(t *testing.T) {
	c, inst := newTestController()

	if _, err := c.TurnOn(ImplDirectOverlay, ConnID(7)); err != nil {
		t.Fatalf("first TurnOn: %v", err)
	}
	if _, err := c.TurnOn(ImplDirectOverlay, ConnID(7)); err != nil {
		t.Fatalf("second TurnOn: %v", err)
	}
	if inst.turnOnN != 2 {
		t.Fatalf("expected back-end TurnOn invoked twice (idempotency is the back-end's job), got %d", inst.turnOnN)
	}
}

func TestController_TurnOffWrongConnectionRejected(t *testing.T) {
	c, _ := newTestController()

	if _, err := c.TurnOn(ImplDirectOverlay, ConnID(1)); err != nil {
		t.Fatalf("TurnOn: %v", err)
	}
	if err := c.TurnOff(ConnID(2), nil); !errors.Is(err, ErrWrongConnection) {
		t.Fatalf("expected ErrWrongConnection, got %v", err)
	}
}

func TestController_TurnOffForcedOverrideBypassesOwnerCheck(t *testing.T) {
	c, _ := newTestController()

	if _, err := c.TurnOn(ImplDirectOverlay, ConnID(1)); err != nil {
		t.Fatalf("TurnOn: %v", err)
	}
	if err := c.TurnOff(InvalidConnID, nil); err != nil {
		t.Fatalf("forced TurnOff: %v", err)
	}
}

func TestController_TurnOffWithNoneActive(t *testing.T) {
	c, _ := newTestController()

	if err := c.TurnOff(ConnID(1), nil); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestController_TurnOnRejectsDifferentBackendWhileActive(t *testing.T) {
	c, _ := newTestController()
	c.Register(ImplGIFOverlay, func(StatePublisher) PrivacyMode {
		return &stubPrivacyMode{key: ImplGIFOverlay, connID: InvalidConnID}
	})

	if _, err := c.TurnOn(ImplDirectOverlay, ConnID(1)); err != nil {
		t.Fatalf("TurnOn direct: %v", err)
	}
	if _, err := c.TurnOn(ImplGIFOverlay, ConnID(2)); !errors.Is(err, ErrAlreadyActive) {
		t.Fatalf("expected ErrAlreadyActive, got %v", err)
	}
}
