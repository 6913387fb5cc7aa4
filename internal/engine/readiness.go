package engine

import (
	"errors"
	"fmt"
	"sync"
)

type State int

const (
	StateNotReady State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "loading"
	}
}

var ErrNotReady = errors.New("engine not ready")

// Readiness gates all engine work on the one-time model load. Handlers check
// Handle before touching the engine; until MarkReady has run they get
// ErrNotReady, and after MarkFailed they get the load error.
type Readiness struct {
	mu      sync.RWMutex
	state   State
	factory Factory
	err     error
}

func NewReadiness() *Readiness {
	return &Readiness{}
}

func (r *Readiness) MarkReady(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateReady
	r.factory = f
	r.err = nil
}

func (r *Readiness) MarkFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = StateFailed
	r.factory = nil
	r.err = err
}

func (r *Readiness) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Handle returns the loaded model factory, or an error describing why the
// engine cannot serve.
func (r *Readiness) Handle() (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch r.state {
	case StateReady:
		return r.factory, nil
	case StateFailed:
		return nil, fmt.Errorf("engine load failed: %w", r.err)
	default:
		return nil, ErrNotReady
	}
}
