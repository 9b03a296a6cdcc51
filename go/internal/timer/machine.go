package timer

import (
	"errors"
	"fmt"
	"time"
)

// DefaultBreak is the break length used by every mode that supports breaks.
const DefaultBreak = 5 * time.Minute

var (
	ErrAlreadyRunning = errors.New("timer is already running")
	ErrNotRunning     = errors.New("timer is not running")
	ErrNoPendingBreak = errors.New("no break is pending")
	ErrClosed         = errors.New("timer is closed")
)

// Phase is the part of the cycle being counted down.
type Phase string

const (
	PhaseFocus Phase = "focus"
	PhaseBreak Phase = "break"
)

// Status of the countdown. A timer is running exactly when Status is StatusRunning.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// EventType names a state change reported to listeners.
type EventType string

const (
	EventStarted         EventType = "started"
	EventResumed         EventType = "resumed"
	EventPaused          EventType = "paused"
	EventStopped         EventType = "stopped"
	EventTick            EventType = "tick"
	EventFocusComplete   EventType = "focus_complete"
	EventBreakStarted    EventType = "break_started"
	EventBreakComplete   EventType = "break_complete"
	EventSessionComplete EventType = "session_complete"
)

// Mode is the immutable description of what is being timed.
type Mode struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FocusMinutes int    `json:"focus_minutes"`
	HasBreak     bool   `json:"has_break"`
}

// Snapshot is a copy of the machine state.
type Snapshot struct {
	Mode              Mode    `json:"mode"`
	Phase             Phase   `json:"phase"`
	Status            Status  `json:"status"`
	Remaining         int     `json:"remaining_seconds"`
	PhaseDuration     int     `json:"phase_duration_seconds"`
	CompletedSessions int     `json:"completed_sessions"`
	PendingBreak      bool    `json:"pending_break"`
	Progress          float64 `json:"progress"`
	Display           string  `json:"display"`
}

// Running reports whether the countdown is active.
func (s Snapshot) Running() bool {
	return s.Status == StatusRunning
}

// Machine is the focus/break state machine. It has no goroutines and no clock;
// callers feed it one Tick per elapsed second while it is running.
type Machine struct {
	mode         Mode
	breakSeconds int

	phase        Phase
	status       Status
	remaining    int
	completed    int
	pendingBreak bool
}

// NewMachine returns an idle machine for mode with remaining set to the full focus duration.
func NewMachine(mode Mode, breakDuration time.Duration) (*Machine, error) {
	if mode.FocusMinutes <= 0 {
		return nil, fmt.Errorf("mode %q must have a positive focus duration", mode.ID)
	}
	if breakDuration <= 0 {
		breakDuration = DefaultBreak
	}
	m := &Machine{
		mode:         mode,
		breakSeconds: int(breakDuration / time.Second),
	}
	if m.breakSeconds < 1 {
		m.breakSeconds = 1
	}
	m.reset()
	return m, nil
}

func (m *Machine) focusSeconds() int {
	return m.mode.FocusMinutes * 60
}

func (m *Machine) reset() {
	m.phase = PhaseFocus
	m.status = StatusIdle
	m.remaining = m.focusSeconds()
	m.completed = 0
	m.pendingBreak = false
}

// Mode returns the mode being timed.
func (m *Machine) Mode() Mode {
	return m.mode
}

// Status returns the current status.
func (m *Machine) Status() Status {
	return m.status
}

// PendingBreak reports whether a finished focus phase is waiting for its break to start.
func (m *Machine) PendingBreak() bool {
	return m.pendingBreak
}

// Start begins or resumes the countdown. Starting while a break is pending starts the break.
func (m *Machine) Start() (EventType, error) {
	switch m.status {
	case StatusRunning:
		return "", ErrAlreadyRunning
	case StatusIdle:
		m.status = StatusRunning
		return EventStarted, nil
	default:
		if m.pendingBreak {
			return m.StartBreak()
		}
		m.status = StatusRunning
		return EventResumed, nil
	}
}

// StartBreak starts a pending break.
func (m *Machine) StartBreak() (EventType, error) {
	if !m.pendingBreak {
		return "", ErrNoPendingBreak
	}
	m.pendingBreak = false
	m.status = StatusRunning
	return EventBreakStarted, nil
}

// Pause stops the countdown and keeps the remaining time. Pausing while a break
// is pending cancels the automatic start and leaves the break paused.
func (m *Machine) Pause() (EventType, error) {
	if m.pendingBreak {
		m.pendingBreak = false
		return EventPaused, nil
	}
	if m.status != StatusRunning {
		return "", ErrNotRunning
	}
	m.status = StatusPaused
	return EventPaused, nil
}

// Stop returns to idle from any state and resets the counters.
func (m *Machine) Stop() EventType {
	m.reset()
	return EventStopped
}

// Tick counts one second down and returns the events it caused, in order.
// It is a no-op unless the machine is running.
func (m *Machine) Tick() []EventType {
	if m.status != StatusRunning {
		return nil
	}
	if m.remaining > 0 {
		m.remaining--
	}
	events := []EventType{EventTick}
	if m.remaining > 0 {
		return events
	}

	if m.phase == PhaseBreak {
		m.phase = PhaseFocus
		m.remaining = m.focusSeconds()
		return append(events, EventBreakComplete)
	}

	m.completed++
	events = append(events, EventFocusComplete)
	if m.mode.HasBreak {
		m.phase = PhaseBreak
		m.remaining = m.breakSeconds
		m.status = StatusPaused
		m.pendingBreak = true
		return events
	}

	m.status = StatusIdle
	m.remaining = m.focusSeconds()
	return append(events, EventSessionComplete)
}

// PhaseDuration is the full length of the current phase in seconds.
func (m *Machine) PhaseDuration() int {
	if m.phase == PhaseBreak {
		return m.breakSeconds
	}
	return m.focusSeconds()
}

// Snapshot copies the current state.
func (m *Machine) Snapshot() Snapshot {
	total := m.PhaseDuration()
	return Snapshot{
		Mode:              m.mode,
		Phase:             m.phase,
		Status:            m.status,
		Remaining:         m.remaining,
		PhaseDuration:     total,
		CompletedSessions: m.completed,
		PendingBreak:      m.pendingBreak,
		Progress:          PhaseProgress(total, m.remaining),
		Display:           FormatClock(m.remaining),
	}
}

// FormatClock renders seconds as MM:SS. Minutes are not wrapped into hours.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// PhaseProgress is the completed share of a phase as a percentage.
func PhaseProgress(total, remaining int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total-remaining) / float64(total) * 100
}
