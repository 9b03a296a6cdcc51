package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/validation"
)

// View is the progress record with every derived number the dashboard shows.
type View struct {
	models.Progress
	ActiveSessionMinutes int       `json:"active_session_minutes"`
	EffectiveTodayTime   int       `json:"effective_today_focus_time"`
	DailyProgress        float64   `json:"daily_progress"`
	LevelProgress        float64   `json:"level_progress"`
	WeeklyProgress       float64   `json:"weekly_progress"`
	AverageSession       int       `json:"average_session"`
	TodayFormatted       string    `json:"today_formatted"`
	DailyGoalFormatted   string    `json:"daily_goal_formatted"`
	WeeklyGoalFormatted  string    `json:"weekly_goal_formatted"`
	RefreshedAt          time.Time `json:"refreshed_at"`
}

// App handles progress business logic
type App struct {
	repo  *state.Repository
	clock clockwork.Clock
}

// NewApp creates a new progress App
func NewApp(repo *state.Repository, clock clockwork.Clock) *App {
	return &App{repo: repo, clock: clock}
}

// View computes the current view, counting the elapsed minutes of an active session.
func (a *App) View(ctx context.Context) View {
	now := a.clock.Now()
	p := rollover(a.repo.Progress(ctx), now)

	active := 0
	if cur := a.repo.CurrentSession(ctx); cur != nil && cur.IsActive && !cur.StartTime.IsZero() {
		if elapsed := now.Sub(cur.StartTime); elapsed > 0 {
			active = int(elapsed / time.Minute)
		}
	}
	today := p.TodayFocusTime + active

	return View{
		Progress:             p,
		ActiveSessionMinutes: active,
		EffectiveTodayTime:   today,
		DailyProgress:        DailyProgress(today, p.DailyGoal),
		LevelProgress:        LevelProgress(p.TotalPoints, p.NextLevelPoints),
		WeeklyProgress:       WeeklyProgress(today, p.WeeklyGoal),
		AverageSession:       AverageSession(p.TodayFocusTime, todaySessions(a.repo.SessionHistory(ctx), now)),
		TodayFormatted:       FormatMinutes(today),
		DailyGoalFormatted:   FormatMinutes(p.DailyGoal),
		WeeklyGoalFormatted:  FormatMinutes(p.WeeklyGoal),
		RefreshedAt:          now,
	}
}

// rollover zeroes today's minutes when the record belongs to an earlier day.
// Records without a day stamp are taken as today's.
func rollover(p models.Progress, now time.Time) models.Progress {
	today := DayKey(now)
	if p.TodayDate != "" && p.TodayDate != today {
		p.TodayFocusTime = 0
	}
	p.TodayDate = today
	return p
}

func todaySessions(history []models.SessionRecord, now time.Time) int {
	n := 0
	for _, s := range history {
		if sameDay(s.CompletedAt.In(now.Location()), now) {
			n++
		}
	}
	return n
}

// RecordSession adds a completed focus phase to the progress record.
func (a *App) RecordSession(ctx context.Context, mode models.FocusModeType, minutes, points int) (models.Progress, error) {
	now := a.clock.Now()
	p, err := a.repo.UpdateProgress(ctx, func(p *models.Progress) error {
		*p = rollover(*p, now)
		p.TodayFocusTime += minutes
		p.TotalFocusTime += minutes
		p.TotalPoints += points
		p.TotalEarned += points
		p.TotalSessions++
		if p.ModeSessions == nil {
			p.ModeSessions = make(map[string]int)
		}
		p.ModeSessions[string(mode)]++
		if minutes > p.LongestSession {
			p.LongestSession = minutes
		}

		p.CurrentStreak = NextStreak(p.CurrentStreak, p.LastActiveDate, now)
		if p.CurrentStreak > p.BestStreak {
			p.BestStreak = p.CurrentStreak
		}
		p.LastSessionDate = &now
		p.LastActiveDate = &now

		level := p.Level
		p.Level, p.NextLevelPoints = LevelFor(p.Level, p.NextLevelPoints, p.TotalEarned)
		if p.Level > level {
			log.Info().Int("level", p.Level).Msg("level up")
		}
		return nil
	})
	if err != nil {
		return models.Progress{}, fmt.Errorf("failed to record session: %w", err)
	}
	return p, nil
}

// TouchActive records a dashboard visit.
func (a *App) TouchActive(ctx context.Context) error {
	return a.repo.SaveLastActiveDate(ctx, a.clock.Now())
}

// Goals holds the editable goals in minutes
type Goals struct {
	DailyGoal  int `json:"daily_goal"`
	WeeklyGoal int `json:"weekly_goal"`
}

// SetGoals updates the daily and weekly goals.
func (a *App) SetGoals(ctx context.Context, g Goals) (models.Progress, error) {
	errs := validation.Errors{}
	if g.DailyGoal < 1 || g.DailyGoal > 24*60 {
		errs.Add("daily_goal", "Daily goal must be between 1 minute and 24 hours")
	}
	if g.WeeklyGoal < 1 || g.WeeklyGoal > 7*24*60 {
		errs.Add("weekly_goal", "Weekly goal must be between 1 minute and 168 hours")
	}
	if err := errs.Err(); err != nil {
		return models.Progress{}, err
	}
	return a.repo.UpdateProgress(ctx, func(p *models.Progress) error {
		p.DailyGoal = g.DailyGoal
		p.WeeklyGoal = g.WeeklyGoal
		return nil
	})
}

// SpendPoints deducts cost from the balance if it covers it. It reports false and
// leaves the record untouched otherwise.
func SpendPoints(p *models.Progress, cost int) bool {
	if cost < 0 || p.TotalPoints < cost {
		return false
	}
	p.TotalPoints -= cost
	return true
}
