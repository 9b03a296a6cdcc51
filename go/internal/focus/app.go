package focus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/telemetry"
	"github.com/mcdev12/nexora/go/internal/timer"
)

var (
	ErrNoActiveSession   = errors.New("no focus mode selected")
	ErrSessionInProgress = errors.New("a focus session is already in progress")
)

// ProgressRecorder defines what the app needs to credit a completed focus phase
type ProgressRecorder interface {
	RecordSession(ctx context.Context, mode models.FocusModeType, minutes, points int) (models.Progress, error)
}

// Notifier defines what the app needs to raise notifications
type Notifier interface {
	Notify(ctx context.Context, category models.NotificationCategory, title, body string) (models.NotificationEntry, error)
}

// Emitter defines what the app needs to publish domain events
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload any)
}

// App owns the selected focus mode and the runner timing it.
type App struct {
	repo     *state.Repository
	progress ProgressRecorder
	notifier Notifier
	emitter  Emitter
	metrics  telemetry.Collector
	clock    clockwork.Clock
	config   timer.Config

	mu     sync.Mutex
	mode   models.FocusMode
	runner *timer.Runner

	listenersMu sync.RWMutex
	listeners   map[int]timer.Listener
	nextID      int
}

// NewApp creates a new focus App. notifier, emitter and metrics may be nil.
func NewApp(repo *state.Repository, progress ProgressRecorder, notifier Notifier, emitter Emitter, metrics telemetry.Collector, clock clockwork.Clock, config timer.Config) *App {
	if metrics == nil {
		metrics = telemetry.NoOp{}
	}
	return &App{
		repo:      repo,
		progress:  progress,
		notifier:  notifier,
		emitter:   emitter,
		metrics:   metrics,
		clock:     clock,
		config:    config,
		listeners: make(map[int]timer.Listener),
	}
}

// Subscribe registers l for the timer events of every session, including ones
// selected after the call.
func (a *App) Subscribe(l timer.Listener) func() {
	a.listenersMu.Lock()
	defer a.listenersMu.Unlock()

	id := a.nextID
	a.nextID++
	a.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			a.listenersMu.Lock()
			delete(a.listeners, id)
			a.listenersMu.Unlock()
		})
	}
}

// Select makes mode the timed mode. The previous selection is discarded if it is idle;
// a running or paused session has to be stopped first.
func (a *App) Select(ctx context.Context, mode models.FocusMode) (timer.Snapshot, error) {
	if mode.TotalMinutes <= 0 {
		return timer.Snapshot{}, fmt.Errorf("%w: %s has no duration", ErrUnknownMode, mode.Type)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.runner != nil {
		if a.runner.Snapshot().Status != timer.StatusIdle {
			return timer.Snapshot{}, ErrSessionInProgress
		}
		a.runner.Close()
		a.runner = nil
	}

	runner, err := timer.NewRunner(a.clock, timerMode(mode), a.config)
	if err != nil {
		return timer.Snapshot{}, fmt.Errorf("failed to create timer: %w", err)
	}
	runner.Subscribe(a.dispatch)
	a.runner = runner
	a.mode = mode

	if _, err := a.repo.UpdateUserPreferences(ctx, func(p *models.UserPreferences) error {
		p.LastFocusMode = mode.Type
		return nil
	}); err != nil {
		log.Warn().Err(err).Msg("failed to remember last focus mode")
	}

	log.Info().Str("mode", string(mode.Type)).Int("minutes", mode.TotalMinutes).Msg("focus mode selected")
	return runner.Snapshot(), nil
}

func timerMode(mode models.FocusMode) timer.Mode {
	return timer.Mode{
		ID:           string(mode.Type),
		Name:         mode.Name,
		FocusMinutes: mode.TotalMinutes,
		HasBreak:     mode.HasBreak,
	}
}

// Selected returns the selected mode.
func (a *App) Selected() (models.FocusMode, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runner == nil {
		return models.FocusMode{}, ErrNoActiveSession
	}
	return a.mode, nil
}

func (a *App) current() (*timer.Runner, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runner == nil {
		return nil, ErrNoActiveSession
	}
	return a.runner, nil
}

// Start starts or resumes the selected session.
func (a *App) Start(ctx context.Context) (timer.Snapshot, error) {
	r, err := a.current()
	if err != nil {
		return timer.Snapshot{}, err
	}
	return r.Start()
}

// Pause pauses the selected session.
func (a *App) Pause(ctx context.Context) (timer.Snapshot, error) {
	r, err := a.current()
	if err != nil {
		return timer.Snapshot{}, err
	}
	return r.Pause()
}

// Stop resets the session and clears the selection.
func (a *App) Stop(ctx context.Context) (timer.Snapshot, error) {
	a.mu.Lock()
	r := a.runner
	a.runner = nil
	a.mode = models.FocusMode{}
	a.mu.Unlock()

	if r == nil {
		// a marker left by a runner that no longer exists would count as focus time forever
		a.clearMarker(ctx)
		return timer.Snapshot{}, ErrNoActiveSession
	}
	snap := r.Stop()
	r.Close()
	return snap, nil
}

// Snapshot returns the state of the selected session.
func (a *App) Snapshot() (timer.Snapshot, error) {
	r, err := a.current()
	if err != nil {
		return timer.Snapshot{}, err
	}
	return r.Snapshot(), nil
}

// Close stops the ticker of the selected session. A running or paused session
// is abandoned: its current-session marker is cleared and the partial phase is not credited.
func (a *App) Close() {
	a.mu.Lock()
	r := a.runner
	a.runner = nil
	a.mode = models.FocusMode{}
	a.mu.Unlock()

	if r == nil {
		return
	}
	owned := r.Snapshot().Status != timer.StatusIdle
	r.Close()
	if owned {
		a.clearMarker(context.Background())
	}
}

// ClearStaleSession removes a current-session marker that no runner in this
// process owns, e.g. one left behind by a daemon that crashed mid-session.
// It is a no-op while a session is selected.
func (a *App) ClearStaleSession(ctx context.Context) error {
	a.mu.Lock()
	live := a.runner != nil
	a.mu.Unlock()
	if live || a.repo.CurrentSession(ctx) == nil {
		return nil
	}
	if err := a.repo.ClearCurrentSession(ctx); err != nil {
		return fmt.Errorf("failed to clear stale session: %w", err)
	}
	log.Info().Msg("cleared stale focus session")
	return nil
}

func (a *App) clearMarker(ctx context.Context) {
	if a.repo.CurrentSession(ctx) == nil {
		return
	}
	if err := a.repo.ClearCurrentSession(ctx); err != nil {
		log.Error().Err(err).Msg("failed to clear current session")
	}
}

// TodaySessions returns up to limit sessions completed today, most recent first.
func (a *App) TodaySessions(ctx context.Context, limit int) []models.SessionRecord {
	now := a.clock.Now()
	var today []models.SessionRecord
	for _, s := range a.repo.SessionHistory(ctx) {
		if limit > 0 && len(today) >= limit {
			break
		}
		if sameDay(s.CompletedAt.In(now.Location()), now) {
			today = append(today, s)
		}
	}
	if today == nil {
		today = []models.SessionRecord{}
	}
	return today
}

// Stats returns the stored session statistics.
func (a *App) Stats(ctx context.Context) models.FocusStats {
	return a.repo.FocusStats(ctx)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// dispatch persists the effects of e and then forwards it to subscribers.
func (a *App) dispatch(e timer.Event) {
	a.observe(context.Background(), e)

	a.listenersMu.RLock()
	listeners := make([]timer.Listener, 0, len(a.listeners))
	for _, l := range a.listeners {
		listeners = append(listeners, l)
	}
	a.listenersMu.RUnlock()

	for _, l := range listeners {
		l(e)
	}
}
