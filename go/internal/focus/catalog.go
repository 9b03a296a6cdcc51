package focus

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/validation"
)

var ErrUnknownMode = errors.New("unknown focus mode")

const (
	MinCustomMinutes = 5
	MaxCustomMinutes = 8 * 60
)

var catalog = []models.FocusMode{
	{
		Type:          models.FocusModePomodoro,
		Name:          "Pomodoro",
		Description:   "Classic 25-minute focus sessions with 5-minute breaks. Perfect for maintaining consistent productivity throughout the day.",
		DurationLabel: "25 + 5 min",
		TotalMinutes:  25,
		Popularity:    "Most Popular",
		HasBreak:      true,
	},
	{
		Type:          models.FocusModeDeepWork,
		Name:          "Deep Work",
		Description:   "Extended 60-90 minute sessions for complex tasks requiring sustained concentration and minimal interruptions.",
		DurationLabel: "60-90 min",
		TotalMinutes:  75,
		Popularity:    "Recommended",
	},
	{
		Type:          models.FocusModeCustom,
		Name:          "Custom Timer",
		Description:   "Create personalized focus sessions with your preferred duration. Ideal for specific tasks or unique workflow requirements.",
		DurationLabel: "Your Choice",
		TotalMinutes:  30,
		Popularity:    "Flexible",
	},
}

// Preset is a quick pick offered when building a custom mode.
type Preset struct {
	Label   string `json:"label"`
	Hours   int    `json:"hours"`
	Minutes int    `json:"minutes"`
}

var presets = []Preset{
	{"15 min", 0, 15},
	{"30 min", 0, 30},
	{"45 min", 0, 45},
	{"1 hour", 1, 0},
	{"1.5 hours", 1, 30},
	{"2 hours", 2, 0},
}

// Modes returns the built-in focus modes.
func Modes() []models.FocusMode {
	return append([]models.FocusMode(nil), catalog...)
}

// Presets returns the custom duration quick picks.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// ModeByType looks up a built-in mode.
func ModeByType(t models.FocusModeType) (models.FocusMode, error) {
	for _, m := range catalog {
		if m.Type == t {
			return m, nil
		}
	}
	return models.FocusMode{}, fmt.Errorf("%w: %s", ErrUnknownMode, t)
}

// ValidateCustomMode builds a custom mode from the form values. Hours are clamped
// to 0..8 and minutes to 0..59 before the total is checked.
func ValidateCustomMode(name string, hours, minutes int) (models.FocusMode, error) {
	hours = clamp(hours, 0, 8)
	minutes = clamp(minutes, 0, 59)
	total := hours*60 + minutes
	name = strings.TrimSpace(name)

	errs := validation.Errors{}
	if total < MinCustomMinutes {
		errs.Add("duration", "Minimum session duration is 5 minutes")
	}
	if total > MaxCustomMinutes {
		errs.Add("duration", "Maximum session duration is 8 hours")
	}
	if name == "" {
		errs.Add("session_name", "Please enter a session name")
	}
	if err := errs.Err(); err != nil {
		return models.FocusMode{}, err
	}

	return models.FocusMode{
		Type:          models.FocusModeCustom,
		Name:          name,
		Description:   fmt.Sprintf("Custom focus session for %d minutes", total),
		DurationLabel: fmt.Sprintf("%dh %dm", hours, minutes),
		TotalMinutes:  total,
		Popularity:    "Custom",
	}, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
