package models

import "time"

// Progress is the persisted user progress record.
type Progress struct {
	CurrentStreak   int            `json:"current_streak"`
	BestStreak      int            `json:"best_streak"`
	TotalPoints     int            `json:"total_points"`
	TotalEarned     int            `json:"total_earned"`
	TodayFocusTime  int            `json:"today_focus_time"` // minutes
	TodayDate       string         `json:"today_date,omitempty"`
	TotalFocusTime  int            `json:"total_focus_time"` // minutes
	WeeklyGoal      int            `json:"weekly_goal"`      // minutes
	DailyGoal       int            `json:"daily_goal"`       // minutes
	Level           int            `json:"level"`
	NextLevelPoints int            `json:"next_level_points"`
	TotalSessions   int            `json:"total_sessions"`
	LongestSession  int            `json:"longest_session"`
	ModeSessions    map[string]int `json:"mode_sessions,omitempty"`
	Achievements    []string       `json:"achievements"`
	LastSessionDate *time.Time     `json:"last_session_date,omitempty"`
	LastActiveDate  *time.Time     `json:"last_active_date,omitempty"`
}

// DefaultProgress returns the progress of a brand new profile.
func DefaultProgress() Progress {
	return Progress{
		WeeklyGoal:      1800,
		DailyGoal:       240,
		Level:           1,
		NextLevelPoints: 1000,
		Achievements:    []string{},
	}
}
