package privacy

import (
	"fmt"
	"sync"
)

// Factory constructs a fresh back-end instance bound to publisher. The
// registry calls it the first time that key is turned on and keeps the
// instance once its Init succeeds; an instance whose Init fails is dropped
// and the factory is called again on the next turn_on. This mirrors the teacher's SessionManager lazy-registration
// pattern (internal/remote/desktop/session.go).
type Factory func(publisher StatePublisher) PrivacyMode

// Controller is the Controller/Registry of privacy-mode back-ends: it maps
// impl_key to a lazily-constructed PrivacyMode and enforces that at most one
// back-end is active for the process at a time.
type Controller struct {
	mu        sync.Mutex
	publisher StatePublisher
	factories map[ImplKey]Factory
	instances map[ImplKey]PrivacyMode
	active    PrivacyMode
}

// NewController returns an empty registry. Back-ends are added with
// Register; platform-specific wiring lives in registry_backends_windows.go
// and registry_backends_other.go.
func NewController(publisher StatePublisher) *Controller {
	return &Controller{
		publisher: publisher,
		factories: make(map[ImplKey]Factory),
		instances: make(map[ImplKey]PrivacyMode),
	}
}

// Register adds a back-end factory under key. Re-registering a key
// overwrites its factory; any already-constructed instance is left in
// place (matching the teacher's session registry, which never retroactively
// tears down a live entry on re-registration).
func (c *Controller) Register(key ImplKey, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[key] = f
}

func (c *Controller) instanceLocked(key ImplKey) (PrivacyMode, error) {
	if inst, ok := c.instances[key]; ok {
		return inst, nil
	}
	f, ok := c.factories[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	inst := f(c.publisher)
	if err := inst.Init(); err != nil {
		return nil, fmt.Errorf("privacy: init %s: %w", key, err)
	}
	c.instances[key] = inst
	return inst, nil
}

// TurnOn activates the back-end named by key for connID. It is the Go
// mapping of the external turn_on_privacy(impl_key, conn_id) surface
// (spec.md §6): the Rust original's Option<Result<bool>> collapses into
// (bool, error), with errors.Is(err, ErrNotRegistered) standing in for the
// None case.
func (c *Controller) TurnOn(key ImplKey, connID ConnID) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst, err := c.instanceLocked(key)
	if err != nil {
		return false, err
	}

	if c.active != nil && c.active != inst && c.active.PreConnID() != InvalidConnID {
		log.Warn("privacy mode turn_on rejected, different back-end active",
			"implKey", key, "connId", connID)
		return false, ErrAlreadyActive
	}

	ok, err := inst.TurnOn(connID)
	if err != nil {
		log.Error("privacy mode turn_on failed",
			"implKey", key, "connId", connID, "error", err)
		return false, err
	}
	if ok {
		c.active = inst
	}
	return ok, nil
}

// TurnOff deactivates whichever back-end is currently active; state, if
// non-nil, receives the back-end's resulting state. It is the Go mapping of the external
// turn_off_privacy(conn_id, state) surface (spec.md §6): the registry
// resolves the active back-end itself rather than requiring the caller to
// already know its impl_key, the same way QueryActive resolves it for reads.
// connID must own the active session unless it equals InvalidConnID.
func (c *Controller) TurnOff(connID ConnID, state *State) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	inst := c.active
	if inst == nil {
		return fmt.Errorf("%w: no privacy mode active", ErrNotRegistered)
	}

	if connID != InvalidConnID && inst.PreConnID() != InvalidConnID && inst.PreConnID() != connID {
		return ErrWrongConnection
	}

	key := inst.ImplKey()
	if err := inst.TurnOff(connID, state); err != nil {
		log.Error("privacy mode turn_off failed",
			"implKey", key, "connId", connID, "error", err)
		return err
	}
	c.active = nil
	return nil
}

// QueryActive reports the impl_key and owning connId of whichever back-end
// is currently active, or ("", InvalidConnID) if none is.
func (c *Controller) QueryActive() (ImplKey, ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return "", InvalidConnID
	}
	return c.active.ImplKey(), c.active.PreConnID()
}
