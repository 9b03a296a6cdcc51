package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/telemetry"
)

const publishTimeout = 5 * time.Second

// DispatcherConfig holds delivery settings
type DispatcherConfig struct {
	QueueSize  int
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultDispatcherConfig returns default delivery settings
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		QueueSize:  256,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Dispatcher queues domain events and publishes them in the background.
// Publishing failures are logged and counted, never returned to the caller.
type Dispatcher struct {
	publisher Publisher
	metrics   telemetry.Collector
	clock     clockwork.Clock
	config    DispatcherConfig

	queue   chan Event
	mu      sync.Mutex
	closed  bool
	running bool
	done    chan struct{}
}

// NewDispatcher creates a dispatcher. Call Start to begin delivering.
func NewDispatcher(publisher Publisher, metrics telemetry.Collector, clock clockwork.Clock, config DispatcherConfig) *Dispatcher {
	if metrics == nil {
		metrics = telemetry.NoOp{}
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultDispatcherConfig().QueueSize
	}
	return &Dispatcher{
		publisher: publisher,
		metrics:   metrics,
		clock:     clock,
		config:    config,
		queue:     make(chan Event, config.QueueSize),
		done:      make(chan struct{}),
	}
}

// Emit builds an event from payload and queues it. A full queue drops the event.
func (d *Dispatcher) Emit(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		return
	}
	event := Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: d.clock.Now(),
		Payload:   data,
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		log.Warn().Str("event_type", eventType).Msg("dispatcher closed, dropping event")
		return
	}
	select {
	case d.queue <- event:
	default:
		log.Warn().Str("event_type", eventType).Msg("event queue full, dropping event")
	}
}

// Start publishes queued events in the background. Cancelling ctx does not
// drop queued events: the dispatcher keeps delivering until Close.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running || d.closed {
		return
	}
	d.running = true
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	defer close(d.done)

	log.Info().Msg("event dispatcher started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("event dispatcher shutting down")
			for event := range d.queue {
				d.deliver(ctx, event)
			}
			return
		case event, ok := <-d.queue:
			if !ok {
				return
			}
			d.deliver(ctx, event)
		}
	}
}

// deliver publishes one event under its own deadline so an event in flight
// during shutdown still reaches the broker.
func (d *Dispatcher) deliver(ctx context.Context, event Event) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := d.publishWithRetry(pubCtx, event); err != nil {
		log.Error().
			Err(err).
			Str("event_id", event.ID.String()).
			Str("event_type", event.Type).
			Msg("failed to publish event")
	}
}

// Close stops accepting events and waits for queued events to be published.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	running := d.running
	d.mu.Unlock()

	if running {
		<-d.done
	}
}

func (d *Dispatcher) publishWithRetry(ctx context.Context, event Event) error {
	var lastErr error

	for attempt := 0; attempt <= d.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-d.clock.After(d.config.RetryDelay * time.Duration(attempt)):
			}
		}

		err := d.publisher.Publish(ctx, event)
		d.metrics.RecordPublishAttempt(event.Type, err == nil)
		if err != nil {
			lastErr = err
			log.Warn().
				Err(err).
				Str("event_id", event.ID.String()).
				Int("attempt", attempt+1).
				Msg("failed to publish event, retrying")
			continue
		}
		return nil
	}

	return fmt.Errorf("failed after %d attempts: %w", d.config.MaxRetries+1, lastErr)
}
