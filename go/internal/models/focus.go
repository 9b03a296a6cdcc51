package models

import "time"

// FocusModeType identifies a focus mode.
type FocusModeType string

const (
	FocusModePomodoro FocusModeType = "pomodoro"
	FocusModeDeepWork FocusModeType = "deepwork"
	FocusModeCustom   FocusModeType = "custom"
)

// FocusMode describes a timed focus method. It is immutable once a session starts.
type FocusMode struct {
	Type          FocusModeType `json:"type"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	DurationLabel string        `json:"duration"`
	TotalMinutes  int           `json:"total_minutes"`
	Popularity    string        `json:"popularity"`
	HasBreak      bool          `json:"has_break"`
}

// SessionRecord is a completed focus session kept in the session history.
type SessionRecord struct {
	ID          string        `json:"id"`
	Mode        FocusModeType `json:"mode"`
	Name        string        `json:"name"`
	Duration    int           `json:"duration"` // minutes
	CompletedAt time.Time     `json:"completed_at"`
	Points      int           `json:"points"`
}

// CurrentSession marks an in-progress focus session.
type CurrentSession struct {
	Mode      FocusModeType `json:"mode"`
	Name      string        `json:"name"`
	StartTime time.Time     `json:"start_time"`
	IsActive  bool          `json:"is_active"`
}

// FocusStats holds the aggregate numbers shown next to the focus modes.
type FocusStats struct {
	TodaySessions  int `json:"today_sessions"`
	TotalFocusTime int `json:"total_focus_time"`
	CurrentStreak  int `json:"current_streak"`
	WeeklyGoal     int `json:"weekly_goal"`
	CompletedToday int `json:"completed_today"`
	AverageSession int `json:"average_session"`
	BestStreak     int `json:"best_streak"`
	TotalSessions  int `json:"total_sessions"`
}
