// Package capture runs the per-modality capture workers and the
// lifecycle state machine governing them.
package capture

import (
	"errors"
	"fmt"
	"sync"
)

// State represents the lifecycle state of a capture worker.
type State int

const (
	// StateIdle - no session, device untouched.
	StateIdle State = iota
	// StateRecording - samples flow into the aggregation window.
	StateRecording
	// StatePaused - device keeps draining, samples are discarded.
	StatePaused
	// StateStopping - stop requested, worker is flushing.
	StateStopping
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRecording:
		return "RECORDING"
	case StatePaused:
		return "PAUSED"
	case StateStopping:
		return "STOPPING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Errors for invalid state transitions.
var (
	ErrAlreadyActive = errors.New("capture already active")
	ErrNotActive     = errors.New("capture not active")
	ErrNotRecording  = errors.New("capture not recording")
	ErrNotPaused     = errors.New("capture not paused")
)

// Machine manages the state machine for one capture worker.
// Thread-safe for concurrent access.
//
// State transitions:
//
//	IDLE → RECORDING ⇄ PAUSED
//	          │           │
//	          └── Stop ───┴──→ STOPPING → IDLE
//
// Rules:
//   - RECORDING: samples are classified and tallied
//   - PAUSED: the device keeps draining but samples are discarded;
//     the window tally is preserved across pause
//   - STOPPING: no new samples are accepted, the worker flushes
//   - Abort returns to IDLE from any state and is idempotent
type Machine struct {
	mu    sync.RWMutex
	state State
}

// NewMachine creates a machine in IDLE state.
func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsActive reports whether a session is in progress (any non-idle
// state).
func (m *Machine) IsActive() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != StateIdle
}

// Start transitions IDLE → RECORDING.
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return ErrAlreadyActive
	}
	m.state = StateRecording
	return nil
}

// Pause transitions RECORDING → PAUSED.
func (m *Machine) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRecording {
		return ErrNotRecording
	}
	m.state = StatePaused
	return nil
}

// Resume transitions PAUSED → RECORDING.
func (m *Machine) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return ErrNotPaused
	}
	m.state = StateRecording
	return nil
}

// BeginStop transitions RECORDING or PAUSED → STOPPING.
func (m *Machine) BeginStop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state {
	case StateRecording, StatePaused:
		m.state = StateStopping
		return nil
	case StateIdle:
		return ErrNotActive
	case StateStopping:
		return nil // stop already in progress
	default:
		return fmt.Errorf("unexpected state: %v", m.state)
	}
}

// Finish returns the machine to IDLE once flushing is done.
// Idempotent.
func (m *Machine) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateIdle
}

// Abort returns to IDLE from any state, discarding the session.
// Returns true if a session was actually aborted, false when already
// idle.
func (m *Machine) Abort() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return false
	}
	m.state = StateIdle
	return true
}
