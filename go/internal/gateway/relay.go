package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/events"
	"github.com/mcdev12/nexora/go/internal/progress"
	"github.com/mcdev12/nexora/go/internal/timer"
)

// TimerListener forwards every timer event as "timer.<event>" with the snapshot as data.
func (cm *ConnectionManager) TimerListener() timer.Listener {
	return func(e timer.Event) {
		cm.Broadcast(timerPrefix+string(e.Type), e.Snapshot)
	}
}

// ProgressSink forwards every refreshed progress view.
func (cm *ConnectionManager) ProgressSink() progress.Sink {
	return func(v progress.View) {
		cm.Broadcast(TypeProgressRefresh, v)
	}
}

// Publish forwards a domain event to clients. It lets the manager sit behind the
// event dispatcher when no broker is configured.
func (cm *ConnectionManager) Publish(ctx context.Context, event events.Event) error {
	cm.Broadcast(event.Type, event.Payload)
	return nil
}

// NATSRelay forwards domain events published on the broker to websocket clients,
// including events raised by other processes.
type NATSRelay struct {
	manager *ConnectionManager
	conn    *nats.Conn
	prefix  string
	sub     *nats.Subscription
}

// NewNATSRelay creates a relay for subjects under prefix
func NewNATSRelay(manager *ConnectionManager, conn *nats.Conn, prefix string) *NATSRelay {
	if prefix == "" {
		prefix = "nexora"
	}
	return &NATSRelay{manager: manager, conn: conn, prefix: prefix}
}

// Start subscribes to "<prefix>.>"
func (r *NATSRelay) Start() error {
	sub, err := r.conn.Subscribe(r.prefix+".>", func(msg *nats.Msg) {
		if err := r.processMessage(msg.Subject, msg.Data); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to relay event")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s.>: %w", r.prefix, err)
	}
	r.sub = sub
	log.Info().Str("subject", r.prefix+".>").Msg("relaying broker events to websocket clients")
	return nil
}

// processMessage decodes one event envelope and broadcasts it
func (r *NATSRelay) processMessage(subject string, data []byte) error {
	var event events.Event
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if event.Type == "" {
		event.Type = strings.TrimPrefix(subject, r.prefix+".")
	}
	r.manager.Broadcast(event.Type, event.Payload)
	return nil
}

// Stop unsubscribes
func (r *NATSRelay) Stop() error {
	if r.sub == nil {
		return nil
	}
	return r.sub.Unsubscribe()
}
