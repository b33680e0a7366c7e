package puppet

import (
	"context"
	"sync"
)

// State is the lifecycle state of a puppet.
type State string

const (
	StateOff        State = "off"
	StatePendingOn  State = "pending_on"
	StateOn         State = "on"
	StatePendingOff State = "pending_off"
)

// Pending reports whether a transition is in progress.
func (s State) Pending() bool {
	return s == StatePendingOn || s == StatePendingOff
}

// stateSwitch holds the lifecycle state. Every change closes the current
// changed channel so waiters re-check.
type stateSwitch struct {
	mu      sync.Mutex
	state   State
	changed chan struct{}
}

func newStateSwitch() *stateSwitch {
	return &stateSwitch{state: StateOff, changed: make(chan struct{})}
}

func (s *stateSwitch) get() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *stateSwitch) snapshot() (State, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.changed
}

func (s *stateSwitch) set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(state)
}

func (s *stateSwitch) setLocked(state State) {
	if s.state == state {
		return
	}
	s.state = state
	close(s.changed)
	s.changed = make(chan struct{})
}

// begin moves the opposite stable state of target into the pending state
// towards target. It reports false, with the current state, when the switch
// is anywhere else.
func (s *stateSwitch) begin(target State) (bool, State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case target == StateOn && s.state == StateOff:
		s.setLocked(StatePendingOn)
		return true, s.state
	case target == StateOff && s.state == StateOn:
		s.setLocked(StatePendingOff)
		return true, s.state
	default:
		return false, s.state
	}
}

// wait blocks until done reports true for the current state.
func (s *stateSwitch) wait(ctx context.Context, done func(State) bool) error {
	for {
		state, changed := s.snapshot()
		if done(state) {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// settle blocks until no transition is pending.
func (s *stateSwitch) settle(ctx context.Context) error {
	return s.wait(ctx, func(st State) bool { return !st.Pending() })
}
