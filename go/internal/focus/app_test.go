package focus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/nexora/go/internal/events"
	"github.com/mcdev12/nexora/go/internal/kvstore"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/notifications"
	"github.com/mcdev12/nexora/go/internal/progress"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/timer"
)

var quickPomodoro = models.FocusMode{
	Type:         models.FocusModePomodoro,
	Name:         "Quick Pomodoro",
	TotalMinutes: 5,
	HasBreak:     true,
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []string
	last   any
}

func (e *recordingEmitter) Emit(ctx context.Context, eventType string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, eventType)
	e.last = payload
}

type harness struct {
	t        *testing.T
	ctx      context.Context
	clock    *clockwork.FakeClock
	repo     *state.Repository
	app      *App
	notifier *notifications.App
	emitter  *recordingEmitter
	events   chan timer.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	repo := state.NewRepository(kvstore.NewMemory(), nil, state.Options{})
	notifier := notifications.NewApp(repo, clock)
	emitter := &recordingEmitter{}
	app := NewApp(repo, progress.NewApp(repo, clock), notifier, emitter, nil, clock,
		timer.Config{Break: time.Minute, BreakDelay: time.Second})
	t.Cleanup(app.Close)

	h := &harness{
		t:        t,
		ctx:      context.Background(),
		clock:    clock,
		repo:     repo,
		app:      app,
		notifier: notifier,
		emitter:  emitter,
		events:   make(chan timer.Event, 4096),
	}
	app.Subscribe(func(e timer.Event) { h.events <- e })
	return h
}

func (h *harness) next(want timer.EventType) timer.Event {
	h.t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case e := <-h.events:
			if e.Type == want {
				return e
			}
		case <-timeout:
			h.t.Fatalf("timed out waiting for %s", want)
			return timer.Event{}
		}
	}
}

func (h *harness) seconds(n int) {
	h.t.Helper()
	for i := 0; i < n; i++ {
		h.clock.Advance(time.Second)
		h.next(timer.EventTick)
	}
}

func TestNoSessionSelected(t *testing.T) {
	h := newHarness(t)

	_, err := h.app.Start(h.ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = h.app.Pause(h.ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = h.app.Stop(h.ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	_, err = h.app.Snapshot()
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSelectRemembersModeAndGuardsRunningSession(t *testing.T) {
	h := newHarness(t)

	snap, err := h.app.Select(h.ctx, quickPomodoro)
	require.NoError(t, err)
	assert.Equal(t, timer.StatusIdle, snap.Status)
	assert.Equal(t, 300, snap.Remaining)
	assert.Equal(t, models.FocusModePomodoro, h.repo.UserPreferences(h.ctx).LastFocusMode)

	// an idle selection can be replaced
	deep, err := ModeByType(models.FocusModeDeepWork)
	require.NoError(t, err)
	snap, err = h.app.Select(h.ctx, deep)
	require.NoError(t, err)
	assert.Equal(t, 75*60, snap.Remaining)

	_, err = h.app.Start(h.ctx)
	require.NoError(t, err)
	_, err = h.app.Select(h.ctx, quickPomodoro)
	assert.ErrorIs(t, err, ErrSessionInProgress)

	_, err = h.app.Select(h.ctx, models.FocusMode{Type: models.FocusModeCustom})
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestCurrentSessionMarkerFollowsTimer(t *testing.T) {
	h := newHarness(t)
	_, err := h.app.Select(h.ctx, quickPomodoro)
	require.NoError(t, err)

	_, err = h.app.Start(h.ctx)
	require.NoError(t, err)
	h.next(timer.EventStarted)

	cur := h.repo.CurrentSession(h.ctx)
	require.NotNil(t, cur)
	assert.Equal(t, models.FocusModePomodoro, cur.Mode)
	assert.Equal(t, "Quick Pomodoro", cur.Name)
	assert.True(t, cur.IsActive)
	assert.True(t, cur.StartTime.Equal(h.clock.Now()))

	h.seconds(10)
	_, err = h.app.Pause(h.ctx)
	require.NoError(t, err)
	h.next(timer.EventPaused)
	cur = h.repo.CurrentSession(h.ctx)
	require.NotNil(t, cur)
	assert.False(t, cur.IsActive)

	snap, err := h.app.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 290, snap.Remaining)

	_, err = h.app.Stop(h.ctx)
	require.NoError(t, err)
	h.next(timer.EventStopped)
	assert.Nil(t, h.repo.CurrentSession(h.ctx))

	_, err = h.app.Selected()
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestCloseAbandonsRunningSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.app.Select(h.ctx, quickPomodoro)
	require.NoError(t, err)
	_, err = h.app.Start(h.ctx)
	require.NoError(t, err)
	h.next(timer.EventStarted)
	require.NotNil(t, h.repo.CurrentSession(h.ctx))

	h.app.Close()
	h.clock.Advance(3 * time.Hour)

	assert.Nil(t, h.repo.CurrentSession(h.ctx))
	view := progress.NewApp(h.repo, h.clock).View(h.ctx)
	assert.Equal(t, 0, view.ActiveSessionMinutes)
	assert.Equal(t, 0, view.EffectiveTodayTime)
	assert.Empty(t, h.repo.SessionHistory(h.ctx))
}

func TestCloseKeepsMarkerOfIdleSelection(t *testing.T) {
	h := newHarness(t)
	other := models.CurrentSession{Mode: models.FocusModeDeepWork, StartTime: h.clock.Now(), IsActive: true}
	require.NoError(t, h.repo.SaveCurrentSession(h.ctx, other))

	_, err := h.app.Select(h.ctx, quickPomodoro)
	require.NoError(t, err)
	h.app.Close()

	assert.NotNil(t, h.repo.CurrentSession(h.ctx))
}

func TestStaleMarkerIsCleared(t *testing.T) {
	h := newHarness(t)
	stale := models.CurrentSession{Mode: models.FocusModePomodoro, StartTime: h.clock.Now(), IsActive: true}

	require.NoError(t, h.repo.SaveCurrentSession(h.ctx, stale))
	_, err := h.app.Stop(h.ctx)
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.Nil(t, h.repo.CurrentSession(h.ctx))

	require.NoError(t, h.repo.SaveCurrentSession(h.ctx, stale))
	require.NoError(t, h.app.ClearStaleSession(h.ctx))
	assert.Nil(t, h.repo.CurrentSession(h.ctx))

	// a selected session owns the marker
	require.NoError(t, h.repo.SaveCurrentSession(h.ctx, stale))
	_, err = h.app.Select(h.ctx, quickPomodoro)
	require.NoError(t, err)
	require.NoError(t, h.app.ClearStaleSession(h.ctx))
	assert.NotNil(t, h.repo.CurrentSession(h.ctx))
}

func TestCompletedFocusPhaseIsRecorded(t *testing.T) {
	h := newHarness(t)
	_, err := h.app.Select(h.ctx, quickPomodoro)
	require.NoError(t, err)
	_, err = h.app.Start(h.ctx)
	require.NoError(t, err)
	h.next(timer.EventStarted)

	h.seconds(300)
	done := h.next(timer.EventFocusComplete)
	assert.True(t, done.Snapshot.PendingBreak)

	history := h.repo.SessionHistory(h.ctx)
	require.Len(t, history, 1)
	assert.Equal(t, models.FocusModePomodoro, history[0].Mode)
	assert.Equal(t, "Quick Pomodoro", history[0].Name)
	assert.Equal(t, 5, history[0].Duration)
	assert.Equal(t, 1, history[0].Points)
	assert.NotEmpty(t, history[0].ID)

	p := h.repo.Progress(h.ctx)
	assert.Equal(t, 5, p.TodayFocusTime)
	assert.Equal(t, 1, p.TotalPoints)
	assert.Equal(t, 1, p.TotalSessions)
	assert.Equal(t, 1, p.CurrentStreak)

	stats := h.app.Stats(h.ctx)
	assert.Equal(t, 1, stats.TodaySessions)
	assert.Equal(t, 5, stats.TotalFocusTime)
	assert.Equal(t, 5, stats.AverageSession)
	assert.Equal(t, 1, stats.TotalSessions)

	assert.Nil(t, h.repo.CurrentSession(h.ctx), "the break is not focus time")

	h.emitter.mu.Lock()
	assert.Equal(t, []string{events.TypeSessionCompleted}, h.emitter.events)
	payload, ok := h.emitter.last.(events.SessionCompletedPayload)
	h.emitter.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, history[0].ID, payload.SessionID)
	assert.Equal(t, 1, payload.Points)

	alerts := h.notifier.History(h.ctx, models.NotificationFocusSessionAlerts)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Focus session complete", alerts[0].Title)
	breaks := h.notifier.History(h.ctx, models.NotificationBreakReminders)
	require.Len(t, breaks, 1)
	assert.Equal(t, "Step away for 1 minutes to recharge.", breaks[0].Body)

	// the break starts on its own, then focus resumes with a fresh marker
	h.clock.Advance(time.Second)
	h.next(timer.EventBreakStarted)
	h.seconds(60)
	h.next(timer.EventBreakComplete)
	cur := h.repo.CurrentSession(h.ctx)
	require.NotNil(t, cur)
	assert.True(t, cur.IsActive)

	assert.Len(t, h.app.TodaySessions(h.ctx, DefaultTodayLimit), 1)
}

func TestTodaySessions(t *testing.T) {
	h := newHarness(t)
	now := h.clock.Now()

	var history []models.SessionRecord
	for i := 0; i < 4; i++ {
		history = append(history, models.SessionRecord{ID: string(rune('a' + i)), CompletedAt: now.Add(-time.Duration(i) * time.Minute)})
	}
	history = append(history, models.SessionRecord{ID: "old", CompletedAt: now.AddDate(0, 0, -1)})
	require.NoError(t, h.repo.SaveSessionHistory(h.ctx, history))

	today := h.app.TodaySessions(h.ctx, 3)
	require.Len(t, today, 3)
	assert.Equal(t, "a", today[0].ID)

	assert.Len(t, h.app.TodaySessions(h.ctx, 0), 4)

	require.NoError(t, h.repo.SaveSessionHistory(h.ctx, history[4:]))
	assert.Empty(t, h.app.TodaySessions(h.ctx, 3))
	assert.NotNil(t, h.app.TodaySessions(h.ctx, 3))
}
