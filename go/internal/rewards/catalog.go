package rewards

import (
	"time"

	"github.com/mcdev12/nexora/go/internal/models"
)

// Metrics are the numbers badge progress is measured against.
type Metrics struct {
	TotalSessions       int
	PomodoroSessions    int
	BestStreak          int
	TotalFocusMinutes   int
	LongestSession      int
	BlockedDistractions int
	WeeklyGoalsMet      int
	MonthFocusMinutes   int
}

// BadgeRule is a badge and the target it is earned at.
type BadgeRule struct {
	Badge   models.Badge
	Target  int
	Measure func(Metrics) int
}

// Evaluate fills in the earned flag and progress percentage of the badge.
func (b BadgeRule) Evaluate(m Metrics) models.Badge {
	badge := b.Badge
	value := b.Measure(m)
	if b.Target <= 0 || value >= b.Target {
		badge.Earned = true
		badge.Progress = 100
		return badge
	}
	if value < 0 {
		value = 0
	}
	badge.Progress = value * 100 / b.Target
	return badge
}

// CatalogProvider supplies the rewards and badges on offer
type CatalogProvider interface {
	Rewards() []models.Reward
	Badges() []BadgeRule
}

// StaticCatalog is the built-in catalog
type StaticCatalog struct{}

func (StaticCatalog) Rewards() []models.Reward {
	return []models.Reward{
		{ID: 1, Name: "Dark Theme", Description: "Unlock the sleek dark theme", Cost: 500, Category: models.RewardCategoryThemes, Available: true},
		{ID: 2, Name: "Ocean Theme", Description: "Ocean-inspired theme with gradients", Cost: 750, Category: models.RewardCategoryThemes, Available: true},
		{ID: 3, Name: "Forest Theme", Description: "Green theme with forest sounds", Cost: 750, Category: models.RewardCategoryThemes, Available: true},
		{ID: 4, Name: "Extended Timer", Description: "Custom timer durations up to 4 hours", Cost: 1000, Category: models.RewardCategoryFeatures, Available: true},
		{ID: 5, Name: "Custom Sounds", Description: "Premium focus sounds library", Cost: 800, Category: models.RewardCategoryFeatures, Available: true},
		{ID: 6, Name: "Priority Support", Description: "Priority customer support", Cost: 2000, Category: models.RewardCategoryPremium, Available: true},
		{ID: 7, Name: "Avatar Frames", Description: "Decorative frames for your avatar", Cost: 300, Category: models.RewardCategoryCustomization, Available: true},
		{ID: 8, Name: "Custom Badges", Description: "Create your own achievement badges", Cost: 1200, Category: models.RewardCategoryCustomization, Available: true},
		{ID: 9, Name: "Profile Themes", Description: "Unique themes for your profile page", Cost: 600, Category: models.RewardCategoryCustomization, Available: true},
		{ID: 10, Name: "Premium Analytics", Description: "Advanced analytics dashboard", Cost: 1500, Category: models.RewardCategoryPremium, Available: true},
	}
}

func (StaticCatalog) Badges() []BadgeRule {
	return []BadgeRule{
		{
			Badge:   models.Badge{ID: 1, Name: "First Focus", Description: "Complete your first focus session", Requirements: "Complete 1 focus session of any duration", Category: models.BadgeCategoryMilestone},
			Target:  1,
			Measure: func(m Metrics) int { return m.TotalSessions },
		},
		{
			Badge:   models.Badge{ID: 2, Name: "Focus Streak", Description: "Maintain a 7-day focus streak", Requirements: "Complete at least one focus session daily for 7 consecutive days", Category: models.BadgeCategoryStreak},
			Target:  7,
			Measure: func(m Metrics) int { return m.BestStreak },
		},
		{
			Badge:   models.Badge{ID: 3, Name: "Time Master", Description: "Accumulate 10 hours of total focus time", Requirements: "Complete a total of 600 minutes (10 hours)", Category: models.BadgeCategoryTime},
			Target:  600,
			Measure: func(m Metrics) int { return m.TotalFocusMinutes },
		},
		{
			Badge:   models.Badge{ID: 4, Name: "Deep Work", Description: "Complete a 90-minute deep work session", Requirements: "One uninterrupted focus session of 90+ minutes", Category: models.BadgeCategoryFocus},
			Target:  90,
			Measure: func(m Metrics) int { return m.LongestSession },
		},
		{
			Badge:   models.Badge{ID: 5, Name: "Consistency King", Description: "Maintain a 30-day focus streak", Requirements: "1 focus session daily for 30 days", Category: models.BadgeCategoryStreak},
			Target:  30,
			Measure: func(m Metrics) int { return m.BestStreak },
		},
		{
			Badge:   models.Badge{ID: 6, Name: "Pomodoro Pro", Description: "Complete 50 Pomodoro sessions", Requirements: "50 Pomodoro technique sessions (25 min each)", Category: models.BadgeCategoryFocus},
			Target:  50,
			Measure: func(m Metrics) int { return m.PomodoroSessions },
		},
		{
			Badge:   models.Badge{ID: 7, Name: "Distraction Slayer", Description: "Block 100 distractions in a week", Requirements: "Block or avoid 100 distractions in 7 days", Category: models.BadgeCategoryFocus},
			Target:  100,
			Measure: func(m Metrics) int { return m.BlockedDistractions },
		},
		{
			Badge:   models.Badge{ID: 8, Name: "Weekly Warrior", Description: "Achieve weekly focus goal 4 times", Requirements: "Weekly focus goal met for 4 consecutive weeks", Category: models.BadgeCategoryMilestone},
			Target:  4,
			Measure: func(m Metrics) int { return m.WeeklyGoalsMet },
		},
		{
			Badge:   models.Badge{ID: 9, Name: "Monthly Master", Description: "Complete 100 hours in a month", Requirements: "100 hours of focus time in one month", Category: models.BadgeCategoryTime},
			Target:  100 * 60,
			Measure: func(m Metrics) int { return m.MonthFocusMinutes },
		},
		{
			Badge:   models.Badge{ID: 10, Name: "Focus Legend", Description: "Reach 1000 total focus hours", Requirements: "Lifetime total of 1000 hours of focused work", Category: models.BadgeCategoryMilestone},
			Target:  1000 * 60,
			Measure: func(m Metrics) int { return m.TotalFocusMinutes },
		},
	}
}

// weeklyGoalsMet counts the calendar weeks in history whose focus minutes reach goal.
func weeklyGoalsMet(history []models.SessionRecord, goal int) int {
	if goal <= 0 {
		return 0
	}
	type week struct{ year, number int }
	minutes := make(map[week]int)
	for _, s := range history {
		y, w := s.CompletedAt.ISOWeek()
		minutes[week{y, w}] += s.Duration
	}
	met := 0
	for _, m := range minutes {
		if m >= goal {
			met++
		}
	}
	return met
}

// monthMinutes sums the focus minutes in history that fall in now's month.
func monthMinutes(history []models.SessionRecord, now time.Time) int {
	total := 0
	for _, s := range history {
		at := s.CompletedAt.In(now.Location())
		if at.Year() == now.Year() && at.Month() == now.Month() {
			total += s.Duration
		}
	}
	return total
}
