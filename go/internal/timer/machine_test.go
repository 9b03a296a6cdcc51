package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pomodoro = Mode{ID: "pomodoro", Name: "Pomodoro Technique", FocusMinutes: 25, HasBreak: true}
	deepWork = Mode{ID: "deepwork", Name: "Deep Work Session", FocusMinutes: 75}
)

func startedMachine(t *testing.T, mode Mode) *Machine {
	t.Helper()
	m, err := NewMachine(mode, DefaultBreak)
	require.NoError(t, err)
	ev, err := m.Start()
	require.NoError(t, err)
	require.Equal(t, EventStarted, ev)
	return m
}

func tickN(m *Machine, n int) []EventType {
	var last []EventType
	for i := 0; i < n; i++ {
		last = m.Tick()
	}
	return last
}

func TestFocusPhaseCompletesIntoBreak(t *testing.T) {
	m := startedMachine(t, pomodoro)

	last := tickN(m, 25*60-1)
	assert.Equal(t, []EventType{EventTick}, last)
	assert.Equal(t, 1, m.Snapshot().Remaining)

	last = m.Tick()
	assert.Equal(t, []EventType{EventTick, EventFocusComplete}, last)

	snap := m.Snapshot()
	assert.Equal(t, PhaseBreak, snap.Phase)
	assert.Equal(t, 5*60, snap.Remaining)
	assert.Equal(t, 5*60, snap.PhaseDuration)
	assert.Equal(t, StatusPaused, snap.Status)
	assert.True(t, snap.PendingBreak)
	assert.Equal(t, 1, snap.CompletedSessions)
}

func TestFocusPhaseWithoutBreakCompletesSession(t *testing.T) {
	m := startedMachine(t, deepWork)

	last := tickN(m, 75*60)
	assert.Equal(t, []EventType{EventTick, EventFocusComplete, EventSessionComplete}, last)

	snap := m.Snapshot()
	assert.Equal(t, StatusIdle, snap.Status)
	assert.Equal(t, PhaseFocus, snap.Phase)
	assert.Equal(t, 75*60, snap.Remaining)
	assert.Equal(t, 1, snap.CompletedSessions)
	assert.False(t, snap.Running())
}

func TestBreakCompletesIntoRunningFocus(t *testing.T) {
	m := startedMachine(t, pomodoro)
	tickN(m, 25*60)

	ev, err := m.StartBreak()
	require.NoError(t, err)
	assert.Equal(t, EventBreakStarted, ev)

	last := tickN(m, 5*60)
	assert.Equal(t, []EventType{EventTick, EventBreakComplete}, last)

	snap := m.Snapshot()
	assert.Equal(t, PhaseFocus, snap.Phase)
	assert.Equal(t, StatusRunning, snap.Status)
	assert.Equal(t, 25*60, snap.Remaining)
	assert.Equal(t, 1, snap.CompletedSessions)
}

func TestPauseResumeKeepsRemaining(t *testing.T) {
	for _, pauseAt := range []int{1, 17, 25*60 - 1} {
		m := startedMachine(t, pomodoro)
		tickN(m, pauseAt)
		before := m.Snapshot().Remaining

		ev, err := m.Pause()
		require.NoError(t, err)
		assert.Equal(t, EventPaused, ev)

		// ticks while paused are ignored
		assert.Nil(t, m.Tick())
		assert.Equal(t, before, m.Snapshot().Remaining)

		ev, err = m.Start()
		require.NoError(t, err)
		assert.Equal(t, EventResumed, ev)
		assert.Equal(t, before, m.Snapshot().Remaining)
		assert.Equal(t, StatusRunning, m.Snapshot().Status)
	}
}

func TestPauseCancelsPendingBreak(t *testing.T) {
	m := startedMachine(t, pomodoro)
	tickN(m, 25*60)
	require.True(t, m.PendingBreak())

	ev, err := m.Pause()
	require.NoError(t, err)
	assert.Equal(t, EventPaused, ev)
	assert.False(t, m.PendingBreak())

	_, err = m.StartBreak()
	assert.ErrorIs(t, err, ErrNoPendingBreak)

	snap := m.Snapshot()
	assert.Equal(t, PhaseBreak, snap.Phase)
	assert.Equal(t, StatusPaused, snap.Status)

	ev, err = m.Start()
	require.NoError(t, err)
	assert.Equal(t, EventResumed, ev)
	assert.Equal(t, 5*60, m.Snapshot().Remaining)
}

func TestStartWhilePendingBreakStartsBreak(t *testing.T) {
	m := startedMachine(t, pomodoro)
	tickN(m, 25*60)

	ev, err := m.Start()
	require.NoError(t, err)
	assert.Equal(t, EventBreakStarted, ev)
	assert.Equal(t, StatusRunning, m.Status())
}

func TestStopAlwaysResets(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Machine)
	}{
		{"idle", func(m *Machine) {}},
		{"running", func(m *Machine) { m.Start(); tickN(m, 90) }},
		{"paused", func(m *Machine) { m.Start(); tickN(m, 90); m.Pause() }},
		{"pending break", func(m *Machine) { m.Start(); tickN(m, 25*60) }},
		{"in break", func(m *Machine) { m.Start(); tickN(m, 25*60); m.StartBreak(); tickN(m, 30) }},
		{"second cycle", func(m *Machine) { m.Start(); tickN(m, 25*60); m.StartBreak(); tickN(m, 5*60+10) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMachine(pomodoro, DefaultBreak)
			require.NoError(t, err)
			tt.setup(m)

			assert.Equal(t, EventStopped, m.Stop())
			snap := m.Snapshot()
			assert.Equal(t, StatusIdle, snap.Status)
			assert.Equal(t, PhaseFocus, snap.Phase)
			assert.Equal(t, 25*60, snap.Remaining)
			assert.Equal(t, 0, snap.CompletedSessions)
			assert.False(t, snap.PendingBreak)
		})
	}
}

func TestMachineErrors(t *testing.T) {
	m, err := NewMachine(pomodoro, 0)
	require.NoError(t, err)

	_, err = m.Pause()
	assert.ErrorIs(t, err, ErrNotRunning)

	_, err = m.Start()
	require.NoError(t, err)
	_, err = m.Start()
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	_, err = NewMachine(Mode{ID: "broken"}, DefaultBreak)
	assert.Error(t, err)
}

func TestCustomBreakDuration(t *testing.T) {
	m, err := NewMachine(pomodoro, 10*time.Minute)
	require.NoError(t, err)
	m.Start()
	tickN(m, 25*60)
	assert.Equal(t, 600, m.Snapshot().Remaining)
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{61, "01:01"},
		{25 * 60, "25:00"},
		{75 * 60, "75:00"},
		{480 * 60, "480:00"},
		{-5, "00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatClock(tt.seconds))
		})
	}
}

func TestPhaseProgress(t *testing.T) {
	assert.Equal(t, 0.0, PhaseProgress(1500, 1500))
	assert.Equal(t, 50.0, PhaseProgress(1500, 750))
	assert.Equal(t, 100.0, PhaseProgress(300, 0))
	assert.Equal(t, 0.0, PhaseProgress(0, 0))

	m := startedMachine(t, pomodoro)
	tickN(m, 150)
	assert.InDelta(t, 10.0, m.Snapshot().Progress, 0.0001)
	assert.Equal(t, "22:30", m.Snapshot().Display)
}
