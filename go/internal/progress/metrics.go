package progress

import (
	"fmt"
	"math"
	"time"
)

// DailyProgress is today's focus minutes as a percentage of the daily goal, capped at 100.
func DailyProgress(today, dailyGoal int) float64 {
	return percent(float64(today), float64(dailyGoal))
}

// LevelProgress is the point balance as a percentage of the next level threshold, capped at 100.
func LevelProgress(points, nextLevel int) float64 {
	return percent(float64(points), float64(nextLevel))
}

// WeeklyProgress projects today's minutes over seven days against the weekly goal, capped at 100.
func WeeklyProgress(today, weeklyGoal int) float64 {
	return percent(float64(today*7), float64(weeklyGoal))
}

func percent(value, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return math.Min(value/goal*100, 100)
}

// AverageSession is today's minutes divided by the session count, floored.
func AverageSession(today, sessions int) int {
	if sessions < 1 {
		sessions = 1
	}
	return today / sessions
}

// PointsFor is the reward for a completed focus phase: one point per five minutes.
func PointsFor(minutes int) int {
	if minutes < 0 {
		return 0
	}
	return minutes / 5
}

// FormatMinutes renders minutes as "2h 25m" or "45m".
func FormatMinutes(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// NextStreak returns the streak after activity at now. Activity on the same day keeps
// the streak, activity the day after the last active day extends it, anything else restarts it.
func NextStreak(current int, lastActive *time.Time, now time.Time) int {
	if lastActive == nil {
		return 1
	}
	last := lastActive.In(now.Location())
	switch {
	case sameDay(last, now):
		if current < 1 {
			return 1
		}
		return current
	case sameDay(last, now.AddDate(0, 0, -1)):
		return current + 1
	default:
		return 1
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DayKey identifies the calendar day of t.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// LevelFor advances level while earned points reach the threshold. Each level
// needs 1000 more points than the one before: 1000, 3000, 6000, ...
func LevelFor(level, nextLevelPoints, earned int) (int, int) {
	if level < 1 {
		level = 1
	}
	if nextLevelPoints <= 0 {
		nextLevelPoints = 1000
	}
	for earned >= nextLevelPoints {
		level++
		nextLevelPoints += level * 1000
	}
	return level, nextLevelPoints
}
