package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/nexora/go/internal/kvstore"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/validation"
)

func newTestApp(t *testing.T, now time.Time) (*App, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(now)
	repo := state.NewRepository(kvstore.NewMemory(), nil, state.Options{})
	return NewApp(repo, clock), clock
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 1, hour, minute, 0, 0, time.UTC)
}

func TestInQuietHours(t *testing.T) {
	overnight := models.QuietHours{Enabled: true, StartTime: "22:00", EndTime: "08:00"}
	daytime := models.QuietHours{Enabled: true, StartTime: "12:30", EndTime: "14:00"}

	tests := []struct {
		name  string
		q     models.QuietHours
		now   time.Time
		quiet bool
	}{
		{"overnight before start", overnight, at(21, 59), false},
		{"overnight at start", overnight, at(22, 0), true},
		{"overnight after midnight", overnight, at(3, 15), true},
		{"overnight at end", overnight, at(8, 0), false},
		{"daytime inside", daytime, at(13, 0), true},
		{"daytime outside", daytime, at(15, 0), false},
		{"disabled", models.QuietHours{StartTime: "00:00", EndTime: "23:59"}, at(12, 0), false},
		{"empty window", models.QuietHours{Enabled: true, StartTime: "09:00", EndTime: "09:00"}, at(9, 0), false},
		{"malformed", models.QuietHours{Enabled: true, StartTime: "late", EndTime: "08:00"}, at(23, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.quiet, InQuietHours(tt.q, tt.now))
		})
	}
}

func TestShouldDeliver(t *testing.T) {
	prefs := models.DefaultNotificationPreferences()
	prefs.QuietHours.Enabled = true

	ok, reason := ShouldDeliver(prefs, models.NotificationBreakReminders, at(10, 0))
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = ShouldDeliver(prefs, models.NotificationBreakReminders, at(23, 0))
	assert.False(t, ok)
	assert.Equal(t, ReasonQuietHours, reason)

	ok, reason = ShouldDeliver(prefs, models.NotificationDistractionWarnings, at(10, 0))
	assert.False(t, ok)
	assert.Equal(t, ReasonDisabled, reason)

	ok, _ = ShouldDeliver(prefs, models.NotificationCriticalAlerts, at(23, 0))
	assert.True(t, ok)

	ok, reason = ShouldDeliver(prefs, "bogus", at(10, 0))
	assert.False(t, ok)
	assert.Equal(t, ReasonDisabled, reason)
}

func TestToggle(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t, at(10, 0))

	prefs, err := app.Toggle(ctx, models.NotificationDistractionWarnings)
	require.NoError(t, err)
	assert.True(t, prefs.Toggles.DistractionWarnings)

	prefs, err = app.Toggle(ctx, models.NotificationBreakReminders)
	require.NoError(t, err)
	assert.False(t, prefs.Toggles.BreakReminders)
	assert.False(t, app.Preferences(ctx).Toggles.BreakReminders)

	_, err = app.Toggle(ctx, models.NotificationCriticalAlerts)
	assert.ErrorIs(t, err, ErrCriticalAlwaysOn)

	_, err = app.Toggle(ctx, "weekly_digest")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestUpdateValidates(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t, at(10, 0))

	bad := models.DefaultNotificationPreferences()
	bad.QuietHours.StartTime = "25:00"
	bad.Sound.Volume = 101
	bad.Sound.SoundType = "airhorn"

	_, err := app.Update(ctx, bad)
	fields, ok := validation.As(err)
	require.True(t, ok)
	assert.Len(t, fields, 3)
	assert.Contains(t, fields, "quiet_hours.start_time")
	assert.Contains(t, fields, "sound.volume")
	assert.Contains(t, fields, "sound.sound_type")

	good := models.DefaultNotificationPreferences()
	good.Toggles.CriticalAlerts = false
	good.Sound.SoundType = "chime"
	saved, err := app.Update(ctx, good)
	require.NoError(t, err)
	assert.True(t, saved.Toggles.CriticalAlerts)
	assert.Equal(t, "chime", app.Preferences(ctx).Sound.SoundType)
}

func TestSetSoundAndQuietHours(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t, at(10, 0))

	_, err := app.SetSound(ctx, models.SoundSettings{Enabled: true, Volume: -1, SoundType: "bell"})
	assert.Error(t, err)
	assert.Equal(t, 70, app.Preferences(ctx).Sound.Volume)

	prefs, err := app.SetSound(ctx, models.SoundSettings{Enabled: false, Volume: 30, SoundType: "bell"})
	require.NoError(t, err)
	assert.Equal(t, 30, prefs.Sound.Volume)

	prefs, err = app.SetQuietHours(ctx, models.QuietHours{Enabled: true, StartTime: "23:00", EndTime: "07:00"})
	require.NoError(t, err)
	assert.Equal(t, "23:00", prefs.QuietHours.StartTime)
}

func TestNotifyRecordsHistory(t *testing.T) {
	ctx := context.Background()
	app, clock := newTestApp(t, at(10, 0))

	_, err := app.SetQuietHours(ctx, models.QuietHours{Enabled: true, StartTime: "22:00", EndTime: "08:00"})
	require.NoError(t, err)

	entry, err := app.Notify(ctx, models.NotificationFocusSessionAlerts, "Focus Session Complete", "Great work!")
	require.NoError(t, err)
	assert.True(t, entry.Delivered)

	clock.Advance(13 * time.Hour)
	entry, err = app.Notify(ctx, models.NotificationBreakReminders, "Break Reminder", "Time for a break")
	require.NoError(t, err)
	assert.False(t, entry.Delivered)
	assert.Equal(t, ReasonQuietHours, entry.Reason)

	all := app.History(ctx, "")
	require.Len(t, all, 2)
	assert.Equal(t, "Break Reminder", all[0].Title)

	breaks := app.History(ctx, models.NotificationBreakReminders)
	assert.Len(t, breaks, 1)

	require.NoError(t, app.ClearHistory(ctx))
	assert.Empty(t, app.History(ctx, ""))
}
