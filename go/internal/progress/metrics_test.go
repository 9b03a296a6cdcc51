package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailyProgress(t *testing.T) {
	assert.InDelta(t, 145.0/240.0*100, DailyProgress(145, 240), 1e-9)
	assert.Equal(t, 100.0, DailyProgress(300, 240))
	assert.Equal(t, 0.0, DailyProgress(0, 240))
	assert.Equal(t, 0.0, DailyProgress(30, 0))
}

func TestLevelAndWeeklyProgress(t *testing.T) {
	assert.Equal(t, 50.0, LevelProgress(500, 1000))
	assert.Equal(t, 100.0, LevelProgress(2340, 1000))
	assert.InDelta(t, 145.0*7/1800*100, WeeklyProgress(145, 1800), 1e-9)
	assert.Equal(t, 100.0, WeeklyProgress(300, 1800))
}

func TestAverageSession(t *testing.T) {
	assert.Equal(t, 145, AverageSession(145, 0))
	assert.Equal(t, 48, AverageSession(145, 3))
}

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 5, PointsFor(25))
	assert.Equal(t, 15, PointsFor(75))
	assert.Equal(t, 1, PointsFor(9))
	assert.Equal(t, 0, PointsFor(4))
	assert.Equal(t, 0, PointsFor(-10))
}

func TestFormatMinutes(t *testing.T) {
	tests := map[int]string{
		0:    "0m",
		45:   "45m",
		60:   "1h 0m",
		145:  "2h 25m",
		1800: "30h 0m",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatMinutes(in))
	}
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	earlierToday := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	yesterday := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	lastWeek := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		current int
		last    *time.Time
		want    int
	}{
		{"first activity", 0, nil, 1},
		{"same day keeps streak", 4, &earlierToday, 4},
		{"same day with no streak", 0, &earlierToday, 1},
		{"consecutive day extends", 4, &yesterday, 5},
		{"gap restarts", 9, &lastWeek, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStreak(tt.current, tt.last, now))
		})
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		level, next, earned int
		wantLevel, wantNext int
	}{
		{1, 1000, 0, 1, 1000},
		{1, 1000, 999, 1, 1000},
		{1, 1000, 1000, 2, 3000},
		{1, 1000, 3500, 3, 6000},
		{0, 0, 10, 1, 1000},
	}
	for _, tt := range tests {
		level, next := LevelFor(tt.level, tt.next, tt.earned)
		assert.Equal(t, tt.wantLevel, level)
		assert.Equal(t, tt.wantNext, next)
	}
}
