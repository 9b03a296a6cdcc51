package models

import "time"

// RewardCategory groups catalog rewards.
type RewardCategory string

const (
	RewardCategoryThemes        RewardCategory = "themes"
	RewardCategoryFeatures      RewardCategory = "features"
	RewardCategoryCustomization RewardCategory = "customization"
	RewardCategoryPremium       RewardCategory = "premium"
)

// Reward is a catalog item redeemable with points.
type Reward struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Cost         int            `json:"cost"`
	Category     RewardCategory `json:"category"`
	Available    bool           `json:"available"`
	Redeemed     bool           `json:"redeemed"`
	RedeemedDate *time.Time     `json:"redeemed_date,omitempty"`
}

// Redemption records a single reward redemption.
type Redemption struct {
	RewardID   int       `json:"reward_id"`
	Cost       int       `json:"cost"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// RewardsState is the persisted redeemed-rewards list.
type RewardsState struct {
	RedeemedRewards []int        `json:"redeemed_rewards"`
	Redemptions     []Redemption `json:"redemptions"`
}

// IsRedeemed reports whether the reward id has been redeemed.
func (s RewardsState) IsRedeemed(id int) bool {
	for _, r := range s.RedeemedRewards {
		if r == id {
			return true
		}
	}
	return false
}

// BadgeCategory groups badges.
type BadgeCategory string

const (
	BadgeCategoryMilestone BadgeCategory = "milestone"
	BadgeCategoryStreak    BadgeCategory = "streak"
	BadgeCategoryTime      BadgeCategory = "time"
	BadgeCategoryFocus     BadgeCategory = "focus"
)

// Badge is an achievement badge with its current progress.
type Badge struct {
	ID           int           `json:"id"`
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Requirements string        `json:"requirements"`
	Category     BadgeCategory `json:"category"`
	Earned       bool          `json:"earned"`
	Progress     int           `json:"progress"`
}

// Achievement is an entry in the recent achievements feed.
type Achievement struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Points      int       `json:"points"`
	EarnedAt    time.Time `json:"earned_at"`
}
