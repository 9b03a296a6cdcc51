package models

import "time"

// BillingCycle is how often a plan is billed.
type BillingCycle string

const (
	BillingMonthly BillingCycle = "monthly"
	BillingYearly  BillingCycle = "yearly"
)

// FreePlanID is the plan every profile starts on.
const FreePlanID = "free"

// Plan is a purchasable subscription plan.
type Plan struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Duration      string   `json:"duration"`
	Days          int      `json:"days"`
	OriginalPrice float64  `json:"original_price"`
	CurrentPrice  float64  `json:"current_price"`
	Features      []string `json:"features"`
	Popular       bool     `json:"popular"`
}

// PaymentMethod is a stored card.
type PaymentMethod struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Last4       string `json:"last4"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	IsDefault   bool   `json:"is_default"`
}

// Transaction statuses
const (
	TransactionCompleted = "completed"
	TransactionRefunded  = "refunded"
)

// Transaction is a billing history entry.
type Transaction struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	Invoice     string    `json:"invoice"`
}

// SubscriptionState is the persisted subscription record.
type SubscriptionState struct {
	Plan           string          `json:"plan"`
	BillingCycle   BillingCycle    `json:"billing_cycle"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	RenewalDate    *time.Time      `json:"renewal_date,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason   string          `json:"cancel_reason,omitempty"`
	PaymentMethods []PaymentMethod `json:"payment_methods"`
	History        []Transaction   `json:"history"`
}

// DefaultSubscriptionState returns the free monthly plan.
func DefaultSubscriptionState() SubscriptionState {
	return SubscriptionState{
		Plan:           FreePlanID,
		BillingCycle:   BillingMonthly,
		PaymentMethods: []PaymentMethod{},
		History:        []Transaction{},
	}
}
