package client

import "sync"

type State int

const (
	StateConnecting State = iota
	StateConnected
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "connecting"
	}
}

type Status struct {
	State  State
	Reason string
}

// Tracker is the shared view of the connection for the status renderer.
type Tracker struct {
	mu      sync.Mutex
	status  Status
	partial string
}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) SetState(s State, reason string) {
	t.mu.Lock()
	t.status = Status{State: s, Reason: reason}
	t.mu.Unlock()
}

func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *Tracker) SetPartial(text string) {
	t.mu.Lock()
	t.partial = text
	t.mu.Unlock()
}

func (t *Tracker) Partial() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.partial
}
