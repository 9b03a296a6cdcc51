package models

import "time"

// NotificationCategory is a toggleable notification kind.
type NotificationCategory string

const (
	NotificationFocusSessionAlerts       NotificationCategory = "focus_session_alerts"
	NotificationBreakReminders           NotificationCategory = "break_reminders"
	NotificationAchievementNotifications NotificationCategory = "achievement_notifications"
	NotificationDistractionWarnings      NotificationCategory = "distraction_warnings"
	NotificationCriticalAlerts           NotificationCategory = "critical_alerts"
)

// NotificationToggles holds the per-category switches.
type NotificationToggles struct {
	FocusSessionAlerts       bool `json:"focus_session_alerts"`
	BreakReminders           bool `json:"break_reminders"`
	AchievementNotifications bool `json:"achievement_notifications"`
	DistractionWarnings      bool `json:"distraction_warnings"`
	CriticalAlerts           bool `json:"critical_alerts"`
}

// QuietHours suppresses non-critical notifications between StartTime and EndTime (HH:MM).
type QuietHours struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// SoundSettings configures notification sounds.
type SoundSettings struct {
	Enabled   bool   `json:"enabled"`
	Volume    int    `json:"volume"`
	SoundType string `json:"sound_type"`
}

// NotificationPreferences is the persisted notification configuration.
type NotificationPreferences struct {
	Toggles    NotificationToggles `json:"toggles"`
	QuietHours QuietHours          `json:"quiet_hours"`
	Sound      SoundSettings       `json:"sound"`
}

// DefaultNotificationPreferences returns the preferences of a new profile.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{
		Toggles: NotificationToggles{
			FocusSessionAlerts:       true,
			BreakReminders:           true,
			AchievementNotifications: true,
			DistractionWarnings:      false,
			CriticalAlerts:           true,
		},
		QuietHours: QuietHours{
			Enabled:   false,
			StartTime: "22:00",
			EndTime:   "08:00",
		},
		Sound: SoundSettings{
			Enabled:   true,
			Volume:    70,
			SoundType: "default",
		},
	}
}

// NotificationEntry is one notification in the history, delivered or held.
type NotificationEntry struct {
	ID        string               `json:"id"`
	Category  NotificationCategory `json:"category"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	Delivered bool                 `json:"delivered"`
	Reason    string               `json:"reason,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}
