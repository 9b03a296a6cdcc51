package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/nexora/go/internal/telemetry"
)

type recordingPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	events   []Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

type attemptCounter struct {
	telemetry.NoOp
	mu       sync.Mutex
	success  int
	failures int
}

func (a *attemptCounter) RecordPublishAttempt(eventType string, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if success {
		a.success++
	} else {
		a.failures++
	}
}

func testConfig() DispatcherConfig {
	return DispatcherConfig{QueueSize: 8, MaxRetries: 2, RetryDelay: time.Millisecond}
}

func TestDispatcherPublishesEnvelope(t *testing.T) {
	pub := &recordingPublisher{}
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	d := NewDispatcher(pub, nil, clock, testConfig())
	d.Start(context.Background())

	d.Emit(context.Background(), TypeRewardRedeemed, RewardRedeemedPayload{RewardID: 1, Name: "Dark Theme", Cost: 500})
	d.Close()

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, TypeRewardRedeemed, events[0].Type)
	assert.Equal(t, clock.Now(), events[0].Timestamp)

	var payload RewardRedeemedPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, 500, payload.Cost)

	raw, err := envelope(events[0])
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Contains(t, wire, "event_id")
	assert.Equal(t, TypeRewardRedeemed, wire["event_type"])
	assert.Contains(t, wire, "timestamp")
	assert.Contains(t, wire, "payload")
}

func TestDispatcherRetries(t *testing.T) {
	pub := &recordingPublisher{failures: 2}
	metrics := &attemptCounter{}
	d := NewDispatcher(pub, metrics, clockwork.NewRealClock(), testConfig())
	d.Start(context.Background())

	d.Emit(context.Background(), TypeSessionCompleted, SessionCompletedPayload{Minutes: 25})
	d.Close()

	assert.Len(t, pub.published(), 1)
	assert.Equal(t, 3, pub.calls)
	assert.Equal(t, 1, metrics.success)
	assert.Equal(t, 2, metrics.failures)
}

func TestDispatcherGivesUp(t *testing.T) {
	pub := &recordingPublisher{failures: 10}
	d := NewDispatcher(pub, nil, clockwork.NewRealClock(), testConfig())
	d.Start(context.Background())

	d.Emit(context.Background(), TypeSessionCompleted, SessionCompletedPayload{Minutes: 25})
	d.Close()

	assert.Empty(t, pub.published())
	assert.Equal(t, 3, pub.calls)
}

func TestDispatcherDeliversQueuedEventsAfterCancel(t *testing.T) {
	rec := &recordingPublisher{}
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	pub := PublisherFunc(func(ctx context.Context, e Event) error {
		once.Do(func() {
			close(started)
			<-release
		})
		if err := ctx.Err(); err != nil {
			return err
		}
		return rec.Publish(ctx, e)
	})

	d := NewDispatcher(pub, nil, clockwork.NewRealClock(), testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Emit(context.Background(), TypeSessionCompleted, SessionCompletedPayload{Minutes: 25})
	<-started
	d.Emit(context.Background(), TypeRewardRedeemed, RewardRedeemedPayload{RewardID: 1, Cost: 500})
	d.Emit(context.Background(), TypeDistractionBlocked, DistractionBlockedPayload{App: "Instagram"})
	d.Emit(context.Background(), TypeUserLoggedOut, AuthPayload{})

	cancel()
	close(release)
	d.Close()

	events := rec.published()
	require.Len(t, events, 4)
	assert.Equal(t, TypeSessionCompleted, events[0].Type)
	assert.Equal(t, TypeUserLoggedOut, events[3].Type)
}

func TestDispatcherDropsAfterClose(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, nil, clockwork.NewRealClock(), testConfig())
	d.Close()
	d.Close()

	d.Emit(context.Background(), TypeUserLoggedOut, AuthPayload{})
	assert.Empty(t, pub.published())
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewDispatcher(pub, nil, clockwork.NewRealClock(), DispatcherConfig{QueueSize: 1, RetryDelay: time.Millisecond})

	d.Emit(context.Background(), TypeUserLoggedIn, AuthPayload{Email: "a@b.co"})
	d.Emit(context.Background(), TypeUserLoggedIn, AuthPayload{Email: "c@d.co"})
	d.Start(context.Background())
	d.Close()

	require.Len(t, pub.published(), 1)
}

func TestNATSSubject(t *testing.T) {
	p := NewNATSPublisher(nil, "")
	assert.Equal(t, "nexora.session.completed", p.Subject(TypeSessionCompleted))

	p = NewNATSPublisher(nil, "focus")
	assert.Equal(t, "focus.reward.redeemed", p.Subject(TypeRewardRedeemed))
}

func TestLogPublisher(t *testing.T) {
	event := Event{Type: TypeDistractionBlocked, Payload: json.RawMessage(`{"app":"Instagram"}`)}
	assert.NoError(t, LogPublisher{}.Publish(context.Background(), event))
}

func TestFanout(t *testing.T) {
	ok := &recordingPublisher{}
	failing := &recordingPublisher{failures: 1}
	event := Event{Type: TypeRewardRedeemed}
	seen := 0
	counter := PublisherFunc(func(ctx context.Context, e Event) error {
		seen++
		return nil
	})

	err := Fanout{failing, ok, counter}.Publish(context.Background(), event)
	assert.Error(t, err)
	require.Len(t, ok.published(), 1)

	require.NoError(t, Fanout{failing, ok}.Publish(context.Background(), event))
	assert.Len(t, failing.published(), 1)
	assert.Len(t, ok.published(), 2)
	assert.Equal(t, 1, seen)
}
