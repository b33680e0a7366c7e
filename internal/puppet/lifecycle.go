package puppet

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/wechaty/wechaty-puppet-sidecar/internal/events"
)

// Start attaches the sidecar. An attach failure is reported on the error
// event channel and leaves the puppet off; only a cancelled ctx while
// waiting on a pending transition is returned.
func (a *Adapter) Start(ctx context.Context) (err error) {
	ctx = a.before(ctx, "start", nil)
	defer func() { a.after(ctx, "start", err) }()

	for {
		began, state := a.state.begin(StateOn)
		if began {
			break
		}
		switch state {
		case StateOn, StatePendingOn:
			a.logger.Warn("start called on a puppet that is already on, waiting for it to settle",
				zap.String("state", string(state)))
			return a.state.settle(ctx)
		case StatePendingOff:
			if err := a.state.settle(ctx); err != nil {
				return err
			}
		}
	}
	a.emitState(ctx, StatePendingOn)

	if err := a.handle.Attach(ctx); err != nil {
		a.emitError(ctx, "start", err)
		a.setState(ctx, StateOff)
		return nil
	}
	a.setState(ctx, StateOn)
	return nil
}

// Stop logs out when logged in and detaches the sidecar. Logout and detach
// failures are reported on the error event channel; the puppet always ends
// off.
func (a *Adapter) Stop(ctx context.Context) (err error) {
	ctx = a.before(ctx, "stop", nil)
	defer func() { a.after(ctx, "stop", err) }()

	for {
		began, state := a.state.begin(StateOff)
		if began {
			break
		}
		switch state {
		case StateOff, StatePendingOff:
			a.logger.Warn("stop called on a puppet that is already off, waiting for it to settle",
				zap.String("state", string(state)))
			return a.state.settle(ctx)
		case StatePendingOn:
			if err := a.state.settle(ctx); err != nil {
				return err
			}
		}
	}
	a.emitState(ctx, StatePendingOff)

	if a.LoggedIn() {
		if err := a.logout(ctx); err != nil {
			a.emitError(ctx, "logout", err)
			a.setSelfID("")
		}
	}

	if err := a.handle.Detach(ctx); err != nil {
		a.emitError(ctx, "stop", err)
	}

	a.cache.clear()
	a.setState(ctx, StateOff)
	return nil
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	return a.state.get()
}

// IsOn reports whether the sidecar is attached.
func (a *Adapter) IsOn() bool {
	return a.state.get() == StateOn
}

// IsOff reports whether the sidecar is detached.
func (a *Adapter) IsOff() bool {
	return a.state.get() == StateOff
}

// Ready blocks until the puppet reaches state.
func (a *Adapter) Ready(ctx context.Context, state State) error {
	return a.state.wait(ctx, func(st State) bool { return st == state })
}

// Login records contactID as the logged in user.
func (a *Adapter) Login(ctx context.Context, contactID string) (err error) {
	ctx = a.before(ctx, "login", []interface{}{contactID})
	defer func() { a.after(ctx, "login", err) }()

	if contactID == "" {
		return errors.New("login: empty contact id")
	}
	a.setSelfID(contactID)
	a.emitter.Emit(ctx, events.PuppetLogin, map[string]interface{}{
		"contact_id": contactID,
	})
	return nil
}

// Logout forwards logout to the sidecar when it implements one, then clears
// the logged in user.
func (a *Adapter) Logout(ctx context.Context) (err error) {
	ctx = a.before(ctx, "logout", nil)
	defer func() { a.after(ctx, "logout", err) }()
	return a.logout(ctx)
}

func (a *Adapter) logout(ctx context.Context) error {
	selfID := a.SelfID()
	if selfID == "" {
		return ErrNotLoggedIn
	}
	if m, ok := a.proxy.Resolve("logout"); ok {
		if _, err := m(ctx); err != nil {
			return err
		}
	}
	a.setSelfID("")
	a.emitter.Emit(ctx, events.PuppetLogout, map[string]interface{}{
		"contact_id": selfID,
	})
	return nil
}

// LoggedIn reports whether a user is logged in.
func (a *Adapter) LoggedIn() bool {
	return a.SelfID() != ""
}

// SelfID returns the logged in user's contact id.
func (a *Adapter) SelfID() string {
	a.loginMu.RLock()
	defer a.loginMu.RUnlock()
	return a.selfID
}

func (a *Adapter) setSelfID(id string) {
	a.loginMu.Lock()
	a.selfID = id
	a.loginMu.Unlock()
}

// Ding forwards a liveness probe to the sidecar.
func (a *Adapter) Ding(ctx context.Context, data string) error {
	return run(ctx, a, "ding", data)
}
