package distractions

import "github.com/mcdev12/nexora/go/internal/models"

// InsightProvider supplies the analytics shown beside the distraction charts
type InsightProvider interface {
	Insights() []models.Insight
	WeeklyStats() models.WeeklyDistractionStats
}

// StaticInsights is the built-in insight set
type StaticInsights struct{}

func (StaticInsights) Insights() []models.Insight {
	return []models.Insight{
		{ID: 1, Type: "streak", Title: "Focus Streak Achievement", Description: "You've maintained focus for 3 consecutive days! Your longest streak this month.", Action: "View Rewards"},
		{ID: 2, Type: "pattern", Title: "Peak Focus Hours", Description: "Your most productive time is 9-11 AM with 85% fewer distractions. Schedule important work during this window.", Action: "Set Reminder"},
		{ID: 3, Type: "improvement", Title: "Social Media Progress", Description: "Social media distractions decreased by 45% this week. Consider extending your focus sessions.", Action: "Extend Sessions"},
		{ID: 4, Type: "suggestion", Title: "Weekend Focus Challenge", Description: "Your weekend focus drops by 30%. Try shorter 15-minute sessions to maintain consistency.", Action: "Try Challenge"},
	}
}

func (StaticInsights) WeeklyStats() models.WeeklyDistractionStats {
	return models.WeeklyDistractionStats{
		TotalBlocked:     127,
		TimeSaved:        485,
		ImprovementRate:  23,
		ConsistencyScore: 87,
	}
}
