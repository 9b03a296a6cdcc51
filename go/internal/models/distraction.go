package models

import "time"

// DistractionCategory groups blocked distractions.
type DistractionCategory string

const (
	DistractionSocial        DistractionCategory = "social"
	DistractionEntertainment DistractionCategory = "entertainment"
	DistractionNews          DistractionCategory = "news"
	DistractionShopping      DistractionCategory = "shopping"
)

// Distraction is a single blocked distraction.
type Distraction struct {
	ID            string              `json:"id"`
	Source        string              `json:"source"`
	App           string              `json:"app"`
	Category      DistractionCategory `json:"category"`
	BlockDuration int                 `json:"block_duration"` // minutes
	Timestamp     time.Time           `json:"timestamp"`
}

// DistractionTracking is the persisted distraction tracking record.
type DistractionTracking struct {
	BlockedCount  int           `json:"blocked_count"`
	FocusTime     int           `json:"focus_time"` // minutes
	SessionActive bool          `json:"session_active"`
	LastUpdated   time.Time     `json:"last_updated"`
	Recent        []Distraction `json:"recent"`
}

// Insight is an analytics hint shown beside the distraction charts.
type Insight struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// WeeklyDistractionStats summarises the last seven days.
type WeeklyDistractionStats struct {
	TotalBlocked     int `json:"total_blocked"`
	TimeSaved        int `json:"time_saved"` // minutes
	ImprovementRate  int `json:"improvement_rate"`
	ConsistencyScore int `json:"consistency_score"`
}
