package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector defines the metrics the focus daemon reports
type Collector interface {
	RecordSessionCompleted(mode string, minutes int)
	RecordRewardRedeemed(rewardID int, cost int)
	RecordTimerEvent(eventType string)
	RecordDecodeFailure(key string)
	RecordPublishAttempt(eventType string, success bool)
}

// NoOp is a no-op implementation for when metrics aren't needed
type NoOp struct{}

func (NoOp) RecordSessionCompleted(mode string, minutes int)     {}
func (NoOp) RecordRewardRedeemed(rewardID int, cost int)         {}
func (NoOp) RecordTimerEvent(eventType string)                   {}
func (NoOp) RecordDecodeFailure(key string)                      {}
func (NoOp) RecordPublishAttempt(eventType string, success bool) {}

// Prometheus implements Collector using the prometheus client library
type Prometheus struct {
	registry        *prometheus.Registry
	sessions        *prometheus.CounterVec
	focusMinutes    *prometheus.CounterVec
	redemptions     *prometheus.CounterVec
	pointsSpent     prometheus.Counter
	timerEvents     *prometheus.CounterVec
	decodeFailures  *prometheus.CounterVec
	publishAttempts *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on a private registry
func NewPrometheus() *Prometheus {
	m := &Prometheus{
		registry: prometheus.NewRegistry(),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexora",
			Name:      "sessions_completed_total",
			Help:      "Completed focus sessions by mode.",
		}, []string{"mode"}),
		focusMinutes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexora",
			Name:      "focus_minutes_total",
			Help:      "Minutes of completed focus by mode.",
		}, []string{"mode"}),
		redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexora",
			Name:      "rewards_redeemed_total",
			Help:      "Rewards redeemed by reward id.",
		}, []string{"reward_id"}),
		pointsSpent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nexora",
			Name:      "points_spent_total",
			Help:      "Points spent on rewards.",
		}),
		timerEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexora",
			Name:      "timer_events_total",
			Help:      "Timer events emitted by type.",
		}, []string{"type"}),
		decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexora",
			Name:      "store_decode_failures_total",
			Help:      "Stored values that failed to decode and fell back to defaults.",
		}, []string{"key"}),
		publishAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nexora",
			Name:      "event_publish_attempts_total",
			Help:      "Domain event publish attempts by type and status.",
		}, []string{"event_type", "status"}),
	}

	m.registry.MustRegister(
		m.sessions,
		m.focusMinutes,
		m.redemptions,
		m.pointsSpent,
		m.timerEvents,
		m.decodeFailures,
		m.publishAttempts,
		prometheus.NewGoCollector(),
	)
	return m
}

func (m *Prometheus) RecordSessionCompleted(mode string, minutes int) {
	m.sessions.WithLabelValues(mode).Inc()
	m.focusMinutes.WithLabelValues(mode).Add(float64(minutes))
}

func (m *Prometheus) RecordRewardRedeemed(rewardID int, cost int) {
	m.redemptions.WithLabelValues(strconv.Itoa(rewardID)).Inc()
	m.pointsSpent.Add(float64(cost))
}

func (m *Prometheus) RecordTimerEvent(eventType string) {
	m.timerEvents.WithLabelValues(eventType).Inc()
}

func (m *Prometheus) RecordDecodeFailure(key string) {
	m.decodeFailures.WithLabelValues(key).Inc()
}

func (m *Prometheus) RecordPublishAttempt(eventType string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.publishAttempts.WithLabelValues(eventType, status).Inc()
}

// Registry exposes the underlying registry, mostly for tests
func (m *Prometheus) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
