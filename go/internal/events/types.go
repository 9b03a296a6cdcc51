package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published by the daemon
const (
	TypeSessionCompleted    = "session.completed"
	TypeRewardRedeemed      = "reward.redeemed"
	TypeUserLoggedIn        = "auth.logged_in"
	TypeUserLoggedOut       = "auth.logged_out"
	TypeUserRegistered      = "auth.registered"
	TypeSubscriptionChanged = "subscription.changed"
	TypeDistractionBlocked  = "distraction.blocked"
)

// Event is a domain event ready to publish
type Event struct {
	ID        uuid.UUID       `json:"event_id"`
	Type      string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// SessionCompletedPayload is the payload for a session.completed event
type SessionCompletedPayload struct {
	SessionID   string    `json:"session_id"`
	Mode        string    `json:"mode"`
	Name        string    `json:"name"`
	Minutes     int       `json:"minutes"`
	Points      int       `json:"points"`
	CompletedAt time.Time `json:"completed_at"`
	Streak      int       `json:"streak"`
}

// RewardRedeemedPayload is the payload for a reward.redeemed event
type RewardRedeemedPayload struct {
	RewardID        int       `json:"reward_id"`
	Name            string    `json:"name"`
	Cost            int       `json:"cost"`
	RemainingPoints int       `json:"remaining_points"`
	RedeemedAt      time.Time `json:"redeemed_at"`
}

// AuthPayload is the payload for the auth.* events
type AuthPayload struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	UserType string    `json:"user_type,omitempty"`
	At       time.Time `json:"at"`
}

// SubscriptionChangedPayload is the payload for a subscription.changed event
type SubscriptionChangedPayload struct {
	Plan         string    `json:"plan"`
	BillingCycle string    `json:"billing_cycle"`
	Action       string    `json:"action"`
	At           time.Time `json:"at"`
}

// DistractionBlockedPayload is the payload for a distraction.blocked event
type DistractionBlockedPayload struct {
	Source        string    `json:"source"`
	App           string    `json:"app"`
	Category      string    `json:"category"`
	BlockDuration int       `json:"block_duration"`
	BlockedAt     time.Time `json:"blocked_at"`
}
