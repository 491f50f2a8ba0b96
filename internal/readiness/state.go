package readiness

import (
	"sync"
	"time"
)

// Snapshot is a consistent read of the readiness state.
type Snapshot struct {
	Ready       bool
	LastChecked time.Time // zero until the first poll completes
}

// State is the process-wide readiness cell. The gate is its only writer;
// the message handler and the health endpoint read it. Once ready it never
// reverts: a loaded model is assumed to stay loaded for the process
// lifetime, and a backend restart already surfaces as scoring failures.
type State struct {
	mu          sync.RWMutex
	ready       bool
	lastChecked time.Time
}

func NewState() *State {
	return &State{}
}

func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Ready: s.ready, LastChecked: s.lastChecked}
}

func (s *State) setReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
}

func (s *State) touch(t time.Time) {
	s.mu.Lock()
	s.lastChecked = t
	s.mu.Unlock()
}
