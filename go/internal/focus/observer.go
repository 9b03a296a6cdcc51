package focus

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/events"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/progress"
	"github.com/mcdev12/nexora/go/internal/timer"
)

// observe keeps the persisted session state in step with the timer. It runs on the
// runner's goroutine; failures are logged and never stop the countdown.
func (a *App) observe(ctx context.Context, e timer.Event) {
	a.metrics.RecordTimerEvent(string(e.Type))
	mode := e.Snapshot.Mode

	var err error
	switch e.Type {
	case timer.EventStarted, timer.EventResumed, timer.EventBreakComplete:
		if e.Snapshot.Phase == timer.PhaseFocus {
			err = a.repo.SaveCurrentSession(ctx, models.CurrentSession{
				Mode:      models.FocusModeType(mode.ID),
				Name:      mode.Name,
				StartTime: e.At,
				IsActive:  true,
			})
		}
	case timer.EventPaused:
		if cur := a.repo.CurrentSession(ctx); cur != nil {
			cur.IsActive = false
			err = a.repo.SaveCurrentSession(ctx, *cur)
		}
	case timer.EventStopped, timer.EventSessionComplete:
		err = a.repo.ClearCurrentSession(ctx)
	case timer.EventFocusComplete:
		err = a.completeFocus(ctx, e)
	}
	if err != nil {
		log.Error().Err(err).Str("event", string(e.Type)).Str("mode", mode.ID).Msg("failed to persist timer event")
	}
}

// completeFocus credits a finished focus phase.
func (a *App) completeFocus(ctx context.Context, e timer.Event) error {
	mode := e.Snapshot.Mode
	minutes := mode.FocusMinutes
	record := models.SessionRecord{
		ID:          uuid.NewString(),
		Mode:        models.FocusModeType(mode.ID),
		Name:        mode.Name,
		Duration:    minutes,
		CompletedAt: e.At,
		Points:      progress.PointsFor(minutes),
	}

	// The marker only covers the focus phase that just ended.
	if err := a.repo.ClearCurrentSession(ctx); err != nil {
		return err
	}

	history, err := a.repo.PrependSession(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to save session history: %w", err)
	}
	p, err := a.progress.RecordSession(ctx, record.Mode, minutes, record.Points)
	if err != nil {
		return err
	}
	if _, err := a.repo.UpdateFocusStats(ctx, func(s *models.FocusStats) error {
		applyStats(s, history, p, e)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to update focus stats: %w", err)
	}

	a.metrics.RecordSessionCompleted(mode.ID, minutes)
	if a.emitter != nil {
		a.emitter.Emit(ctx, events.TypeSessionCompleted, events.SessionCompletedPayload{
			SessionID:   record.ID,
			Mode:        mode.ID,
			Name:        record.Name,
			Minutes:     minutes,
			Points:      record.Points,
			CompletedAt: record.CompletedAt,
			Streak:      p.CurrentStreak,
		})
	}

	a.notify(ctx, models.NotificationFocusSessionAlerts, "Focus session complete",
		fmt.Sprintf("%s finished: %d minutes, +%d points.", record.Name, minutes, record.Points))
	if e.Snapshot.PendingBreak {
		a.notify(ctx, models.NotificationBreakReminders, "Time for a break",
			fmt.Sprintf("Step away for %d minutes to recharge.", e.Snapshot.Remaining/60))
	}

	log.Info().
		Str("session_id", record.ID).
		Str("mode", mode.ID).
		Int("minutes", minutes).
		Int("points", record.Points).
		Int("streak", p.CurrentStreak).
		Msg("focus session completed")
	return nil
}

func applyStats(s *models.FocusStats, history []models.SessionRecord, p models.Progress, e timer.Event) {
	today, total := 0, 0
	for _, h := range history {
		total += h.Duration
		if sameDay(h.CompletedAt.In(e.At.Location()), e.At) {
			today++
		}
	}
	s.TodaySessions = today
	s.CompletedToday = today
	s.TotalFocusTime = total
	s.CurrentStreak = p.CurrentStreak
	s.BestStreak = p.BestStreak
	s.TotalSessions = p.TotalSessions
	s.WeeklyGoal = p.WeeklyGoal
	s.AverageSession = progress.AverageSession(p.TodayFocusTime, today)
}

func (a *App) notify(ctx context.Context, category models.NotificationCategory, title, body string) {
	if a.notifier == nil {
		return
	}
	if _, err := a.notifier.Notify(ctx, category, title, body); err != nil {
		log.Warn().Err(err).Str("category", string(category)).Msg("failed to send notification")
	}
}
