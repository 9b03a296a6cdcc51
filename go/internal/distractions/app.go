package distractions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/events"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/validation"
)

var ErrUnknownCategory = errors.New("unknown distraction category")

const (
	// CategoryAll disables category filtering.
	CategoryAll = "all"
	// RecentLimit caps the stored recent distractions.
	RecentLimit = 50
	// MaxBlockMinutes bounds a single block.
	MaxBlockMinutes = 480
)

// CategoryOption is a filter choice on the recent list
type CategoryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Categories lists the filter options in display order.
var Categories = []CategoryOption{
	{Value: CategoryAll, Label: "All Categories"},
	{Value: string(models.DistractionSocial), Label: "Social Media"},
	{Value: string(models.DistractionEntertainment), Label: "Entertainment"},
	{Value: string(models.DistractionNews), Label: "News"},
	{Value: string(models.DistractionShopping), Label: "Shopping"},
}

func validCategory(c models.DistractionCategory) bool {
	switch c {
	case models.DistractionSocial, models.DistractionEntertainment, models.DistractionNews, models.DistractionShopping:
		return true
	}
	return false
}

// Notifier defines what the app needs to raise notifications
type Notifier interface {
	Notify(ctx context.Context, category models.NotificationCategory, title, body string) (models.NotificationEntry, error)
}

// Emitter defines what the app needs to publish domain events
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload any)
}

// App tracks blocked distractions
type App struct {
	repo     *state.Repository
	insights InsightProvider
	notifier Notifier
	emitter  Emitter
	clock    clockwork.Clock
}

// NewApp creates a new distractions App. notifier and emitter may be nil.
func NewApp(repo *state.Repository, insights InsightProvider, notifier Notifier, emitter Emitter, clock clockwork.Clock) *App {
	if insights == nil {
		insights = StaticInsights{}
	}
	return &App{repo: repo, insights: insights, notifier: notifier, emitter: emitter, clock: clock}
}

// RecordRequest describes a blocked distraction
type RecordRequest struct {
	Source        string                     `json:"source"`
	App           string                     `json:"app"`
	Category      models.DistractionCategory `json:"category"`
	BlockDuration int                        `json:"block_duration"`
}

func (r RecordRequest) validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(r.App) == "" {
		errs.Add("app", "App is required")
	}
	if !validCategory(r.Category) {
		errs.Add("category", "Unknown distraction category")
	}
	if r.BlockDuration < 1 || r.BlockDuration > MaxBlockMinutes {
		errs.Add("block_duration", fmt.Sprintf("Block duration must be between 1 and %d minutes", MaxBlockMinutes))
	}
	return errs.Err()
}

// Tracking returns the tracking record with focus time and session state
// taken from the live progress and current-session records.
func (a *App) Tracking(ctx context.Context) models.DistractionTracking {
	t := a.repo.DistractionTracking(ctx)
	t.FocusTime = a.repo.Progress(ctx).TodayFocusTime
	cur := a.repo.CurrentSession(ctx)
	t.SessionActive = cur != nil && cur.IsActive
	return t
}

// Record stores a blocked distraction and bumps the blocked counter.
func (a *App) Record(ctx context.Context, req RecordRequest) (models.Distraction, error) {
	if err := req.validate(); err != nil {
		return models.Distraction{}, err
	}
	if req.Source == "" {
		req.Source = categoryLabel(req.Category)
	}

	now := a.clock.Now()
	d := models.Distraction{
		ID:            uuid.New().String(),
		Source:        req.Source,
		App:           strings.TrimSpace(req.App),
		Category:      req.Category,
		BlockDuration: req.BlockDuration,
		Timestamp:     now,
	}
	cur := a.repo.CurrentSession(ctx)
	tracking, err := a.repo.UpdateDistractionTracking(ctx, func(t *models.DistractionTracking) error {
		t.BlockedCount++
		t.LastUpdated = now
		t.SessionActive = cur != nil && cur.IsActive
		t.Recent = append([]models.Distraction{d}, t.Recent...)
		if len(t.Recent) > RecentLimit {
			t.Recent = t.Recent[:RecentLimit]
		}
		return nil
	})
	if err != nil {
		return models.Distraction{}, fmt.Errorf("failed to record distraction: %w", err)
	}

	log.Info().
		Str("app", d.App).
		Str("category", string(d.Category)).
		Int("blocked_count", tracking.BlockedCount).
		Msg("distraction blocked")

	if a.emitter != nil {
		a.emitter.Emit(ctx, events.TypeDistractionBlocked, events.DistractionBlockedPayload{
			Source:        d.Source,
			App:           d.App,
			Category:      string(d.Category),
			BlockDuration: d.BlockDuration,
			BlockedAt:     now,
		})
	}
	if a.notifier != nil {
		body := fmt.Sprintf("%s was blocked for %d minutes.", d.App, d.BlockDuration)
		if _, err := a.notifier.Notify(ctx, models.NotificationDistractionWarnings, "Distraction blocked", body); err != nil {
			log.Error().Err(err).Msg("failed to notify distraction")
		}
	}
	return d, nil
}

func categoryLabel(c models.DistractionCategory) string {
	for _, o := range Categories {
		if o.Value == string(c) {
			return o.Label
		}
	}
	return string(c)
}

// RecentView is the filtered recent list with its block totals
type RecentView struct {
	Items        []models.Distraction `json:"items"`
	TotalBlocked int                  `json:"total_blocked"`
	TotalMinutes int                  `json:"total_minutes"`
	AverageBlock int                  `json:"average_block"`
}

// Recent lists recent distractions newest first, optionally limited to one category.
func (a *App) Recent(ctx context.Context, category string) (RecentView, error) {
	if category != "" && category != CategoryAll && !validCategory(models.DistractionCategory(category)) {
		return RecentView{}, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
	view := RecentView{Items: []models.Distraction{}}
	for _, d := range a.repo.DistractionTracking(ctx).Recent {
		if category != "" && category != CategoryAll && string(d.Category) != category {
			continue
		}
		view.Items = append(view.Items, d)
		view.TotalMinutes += d.BlockDuration
	}
	view.TotalBlocked = len(view.Items)
	if view.TotalBlocked > 0 {
		view.AverageBlock = view.TotalMinutes / view.TotalBlocked
	}
	return view, nil
}

// Export is the downloadable tracking snapshot
type Export struct {
	Date                time.Time `json:"date"`
	BlockedDistractions int       `json:"blockedDistractions"`
	FocusTime           int       `json:"focusTime"`
	SessionActive       bool      `json:"sessionActive"`
}

// Export snapshots the tracking record.
func (a *App) Export(ctx context.Context) Export {
	t := a.Tracking(ctx)
	return Export{
		Date:                a.clock.Now(),
		BlockedDistractions: t.BlockedCount,
		FocusTime:           t.FocusTime,
		SessionActive:       t.SessionActive,
	}
}

// ExportFilename names the export file for the current day.
func (a *App) ExportFilename() string {
	return "nexora-tracking-" + a.clock.Now().UTC().Format(time.DateOnly) + ".json"
}

// Insights returns the analytics hints.
func (a *App) Insights() []models.Insight {
	return a.insights.Insights()
}

// WeeklyStats returns the last seven days summary.
func (a *App) WeeklyStats() models.WeeklyDistractionStats {
	return a.insights.WeeklyStats()
}

// Reset clears the tracking record.
func (a *App) Reset(ctx context.Context) error {
	return a.repo.Clear(ctx, state.KeyDistractionTracking)
}
