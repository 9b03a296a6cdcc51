package subscriptions

import (
	"math"
	"time"

	"github.com/mcdev12/nexora/go/internal/models"
)

// YearlyMultiplier prices a yearly plan as this many monthly periods.
const YearlyMultiplier = 10

// PlanProvider supplies the plans on offer
type PlanProvider interface {
	Plans() []models.Plan
}

// StaticPlans is the built-in plan list
type StaticPlans struct{}

func (StaticPlans) Plans() []models.Plan {
	return []models.Plan{
		{
			ID:            "focus-boost",
			Name:          "20-Day Focus Boost",
			Duration:      "20 Days",
			Days:          20,
			OriginalPrice: 29.99,
			CurrentPrice:  19.99,
			Features: []string{
				"Extended focus sessions up to 4 hours",
				"Advanced analytics and progress tracking",
				"Premium background sounds and themes",
				"Distraction blocking tools",
				"Priority customer support",
				"Export focus reports",
			},
		},
		{
			ID:            "premium-focus",
			Name:          "30-Day Premium Focus",
			Duration:      "30 Days",
			Days:          30,
			OriginalPrice: 49.99,
			CurrentPrice:  34.99,
			Features: []string{
				"All 20-Day Focus Boost features",
				"AI-powered focus recommendations",
				"Team collaboration tools",
				"Advanced goal setting and tracking",
				"White-label focus sessions",
				"Unlimited focus session history",
				"Premium integrations (Calendars, Task managers)",
				"Early access to new features",
			},
			Popular: true,
		},
	}
}

// Quote is what a plan costs for one billing cycle.
type Quote struct {
	BillingCycle  models.BillingCycle `json:"billing_cycle"`
	Price         float64             `json:"price"`
	OriginalPrice float64             `json:"original_price"`
	Savings       float64             `json:"savings"`
}

// Price quotes plan for cycle. Yearly billing is ten monthly periods.
func Price(plan models.Plan, cycle models.BillingCycle) Quote {
	factor := 1.0
	if cycle == models.BillingYearly {
		factor = YearlyMultiplier
	}
	q := Quote{
		BillingCycle:  cycle,
		Price:         cents(plan.CurrentPrice * factor),
		OriginalPrice: cents(plan.OriginalPrice * factor),
	}
	if q.OriginalPrice > q.Price {
		q.Savings = cents(q.OriginalPrice - q.Price)
	}
	return q
}

func cents(v float64) float64 {
	return math.Round(v*100) / 100
}

func validCycle(c models.BillingCycle) bool {
	return c == models.BillingMonthly || c == models.BillingYearly
}

// periodEnd is when a period of plan billed on cycle that begins at from ends.
func periodEnd(plan models.Plan, cycle models.BillingCycle, from time.Time) time.Time {
	if cycle == models.BillingYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 0, plan.Days)
}
