package gateway

import (
	"encoding/json"
	"time"
)

// Message is the JSON frame pushed to every client
type Message struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Message types that are not domain events
const (
	TypeState           = "state"
	TypeProgressRefresh = "progress.refresh"
	timerPrefix         = "timer."
)
