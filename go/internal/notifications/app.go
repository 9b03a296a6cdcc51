package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/validation"
)

var (
	ErrUnknownCategory  = errors.New("unknown notification category")
	ErrCriticalAlwaysOn = errors.New("critical alerts cannot be disabled")
)

// SoundOption is a selectable notification sound
type SoundOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// SoundOptions lists the notification sounds in display order.
var SoundOptions = []SoundOption{
	{Value: "default", Label: "Default"},
	{Value: "chime", Label: "Soft Chime"},
	{Value: "ping", Label: "Gentle Ping"},
	{Value: "bell", Label: "Notification Bell"},
	{Value: "silent", Label: "Silent"},
}

// Delivery reasons recorded on held notifications
const (
	ReasonDisabled   = "disabled"
	ReasonQuietHours = "quiet_hours"
)

// App handles notification preferences and delivery
type App struct {
	repo  *state.Repository
	clock clockwork.Clock
}

// NewApp creates a new notifications App
func NewApp(repo *state.Repository, clock clockwork.Clock) *App {
	return &App{repo: repo, clock: clock}
}

// Preferences returns the stored preferences
func (a *App) Preferences(ctx context.Context) models.NotificationPreferences {
	return a.repo.NotificationPreferences(ctx)
}

// Toggle flips one category switch.
func (a *App) Toggle(ctx context.Context, category models.NotificationCategory) (models.NotificationPreferences, error) {
	if category == models.NotificationCriticalAlerts {
		return models.NotificationPreferences{}, ErrCriticalAlwaysOn
	}
	return a.repo.UpdateNotificationPreferences(ctx, func(p *models.NotificationPreferences) error {
		field, err := toggleField(&p.Toggles, category)
		if err != nil {
			return err
		}
		*field = !*field
		return nil
	})
}

func toggleField(t *models.NotificationToggles, category models.NotificationCategory) (*bool, error) {
	switch category {
	case models.NotificationFocusSessionAlerts:
		return &t.FocusSessionAlerts, nil
	case models.NotificationBreakReminders:
		return &t.BreakReminders, nil
	case models.NotificationAchievementNotifications:
		return &t.AchievementNotifications, nil
	case models.NotificationDistractionWarnings:
		return &t.DistractionWarnings, nil
	case models.NotificationCriticalAlerts:
		return &t.CriticalAlerts, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}
}

// Update replaces all preferences after validating them.
func (a *App) Update(ctx context.Context, prefs models.NotificationPreferences) (models.NotificationPreferences, error) {
	if err := Validate(prefs); err != nil {
		return models.NotificationPreferences{}, err
	}
	prefs.Toggles.CriticalAlerts = true
	return a.repo.UpdateNotificationPreferences(ctx, func(p *models.NotificationPreferences) error {
		*p = prefs
		return nil
	})
}

// SetQuietHours replaces the quiet hours window.
func (a *App) SetQuietHours(ctx context.Context, q models.QuietHours) (models.NotificationPreferences, error) {
	return a.repo.UpdateNotificationPreferences(ctx, func(p *models.NotificationPreferences) error {
		next := *p
		next.QuietHours = q
		if err := Validate(next); err != nil {
			return err
		}
		*p = next
		return nil
	})
}

// SetSound replaces the sound settings.
func (a *App) SetSound(ctx context.Context, s models.SoundSettings) (models.NotificationPreferences, error) {
	return a.repo.UpdateNotificationPreferences(ctx, func(p *models.NotificationPreferences) error {
		next := *p
		next.Sound = s
		if err := Validate(next); err != nil {
			return err
		}
		*p = next
		return nil
	})
}

// Validate checks quiet hours and sound settings.
func Validate(p models.NotificationPreferences) error {
	errs := validation.Errors{}
	if _, err := parseClock(p.QuietHours.StartTime); err != nil {
		errs.Add("quiet_hours.start_time", "Start time must be in HH:MM format")
	}
	if _, err := parseClock(p.QuietHours.EndTime); err != nil {
		errs.Add("quiet_hours.end_time", "End time must be in HH:MM format")
	}
	if p.Sound.Volume < 0 || p.Sound.Volume > 100 {
		errs.Add("sound.volume", "Volume must be between 0 and 100")
	}
	if !validSound(p.Sound.SoundType) {
		errs.Add("sound.sound_type", "Unknown notification sound")
	}
	return errs.Err()
}

func validSound(v string) bool {
	for _, o := range SoundOptions {
		if o.Value == v {
			return true
		}
	}
	return false
}

// ShouldDeliver decides whether a notification of category is shown at now.
// Critical alerts bypass both the toggles and quiet hours.
func ShouldDeliver(p models.NotificationPreferences, category models.NotificationCategory, now time.Time) (bool, string) {
	if category == models.NotificationCriticalAlerts {
		return true, ""
	}
	t := p.Toggles
	field, err := toggleField(&t, category)
	if err != nil || !*field {
		return false, ReasonDisabled
	}
	if InQuietHours(p.QuietHours, now) {
		return false, ReasonQuietHours
	}
	return true, ""
}

// Notify records a notification in the history, marked delivered or held.
func (a *App) Notify(ctx context.Context, category models.NotificationCategory, title, body string) (models.NotificationEntry, error) {
	now := a.clock.Now()
	delivered, reason := ShouldDeliver(a.repo.NotificationPreferences(ctx), category, now)

	entry := models.NotificationEntry{
		ID:        uuid.New().String(),
		Category:  category,
		Title:     title,
		Body:      body,
		Delivered: delivered,
		Reason:    reason,
		CreatedAt: now,
	}
	if _, err := a.repo.AppendNotification(ctx, entry); err != nil {
		return entry, fmt.Errorf("failed to record notification: %w", err)
	}

	if delivered {
		log.Info().Str("category", string(category)).Str("title", title).Msg("notification delivered")
	} else {
		log.Debug().Str("category", string(category)).Str("reason", reason).Msg("notification held")
	}
	return entry, nil
}

// History returns notifications newest first, optionally limited to one category.
func (a *App) History(ctx context.Context, category models.NotificationCategory) []models.NotificationEntry {
	all := a.repo.NotificationHistory(ctx)
	if category == "" {
		return all
	}
	out := []models.NotificationEntry{}
	for _, n := range all {
		if n.Category == category {
			out = append(out, n)
		}
	}
	return out
}

// ClearHistory removes every recorded notification.
func (a *App) ClearHistory(ctx context.Context) error {
	return a.repo.Clear(ctx, state.KeyNotificationHistory)
}
