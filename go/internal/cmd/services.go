package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/auth"
	"github.com/mcdev12/nexora/go/internal/config"
	"github.com/mcdev12/nexora/go/internal/distractions"
	"github.com/mcdev12/nexora/go/internal/events"
	"github.com/mcdev12/nexora/go/internal/focus"
	"github.com/mcdev12/nexora/go/internal/gateway"
	"github.com/mcdev12/nexora/go/internal/kvstore"
	"github.com/mcdev12/nexora/go/internal/notifications"
	"github.com/mcdev12/nexora/go/internal/progress"
	"github.com/mcdev12/nexora/go/internal/rewards"
	"github.com/mcdev12/nexora/go/internal/rpc"
	"github.com/mcdev12/nexora/go/internal/state"
	"github.com/mcdev12/nexora/go/internal/subscriptions"
	"github.com/mcdev12/nexora/go/internal/telemetry"
	"github.com/mcdev12/nexora/go/internal/timer"
)

// Services holds every app of one daemon or CLI invocation.
type Services struct {
	Store   kvstore.WatchableStore
	Repo    *state.Repository
	Metrics *telemetry.Prometheus

	Notifications *notifications.App
	Progress      *progress.App
	Focus         *focus.App
	Rewards       *rewards.App
	Auth          *auth.App
	Guard         *auth.Guard
	Distractions  *distractions.App
	Subscriptions *subscriptions.App

	Dispatcher *events.Dispatcher
	Gateway    *gateway.ConnectionManager
	Refresher  *progress.Refresher
	Timer      *rpc.TimerService

	nats  *nats.Conn
	relay *gateway.NATSRelay
	unsub []func()
}

// liveState is the first message a websocket client receives
type liveState struct {
	Timer    *timer.Snapshot `json:"timer"`
	Progress progress.View   `json:"progress"`
}

func setupServices(ctx context.Context, cfg *config.Config, clock clockwork.Clock) (*Services, error) {
	// Wire up dependency injection chain
	// Store layer → Repository layer → App layer → Service layer
	store, err := openStore(ctx, cfg.Storage, cfg.StorageDSN(), clock)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewPrometheus()
	repo := state.NewRepository(store, metrics, state.Options{
		HistoryLimit: cfg.Progress.HistoryLimit,
		DailyGoal:    cfg.Progress.DailyGoal,
		WeeklyGoal:   cfg.Progress.WeeklyGoal,
	})

	s := &Services{Store: store, Repo: repo, Metrics: metrics}

	// Events
	publisher, err := s.setupPublisher(cfg.NATS)
	if err != nil {
		store.Close()
		return nil, err
	}
	s.Dispatcher = events.NewDispatcher(publisher, metrics, clock, events.DefaultDispatcherConfig())

	// Apps
	s.Notifications = notifications.NewApp(repo, clock)
	s.Progress = progress.NewApp(repo, clock)
	s.Focus = focus.NewApp(repo, s.Progress, s.Notifications, s.Dispatcher, metrics, clock, timer.Config{
		Break:      cfg.BreakDuration(),
		BreakDelay: cfg.Timer.BreakDelay,
	})
	s.Rewards = rewards.NewApp(repo, nil, s.Notifications, s.Dispatcher, metrics, clock)
	s.Auth = auth.NewApp(repo, auth.NewDemoCredentials(), s.Dispatcher, clock, auth.Config{SessionTTL: cfg.Auth.SessionTTL})
	s.Guard = auth.NewGuard(s.Auth, repo, clock)
	s.Distractions = distractions.NewApp(repo, nil, s.Notifications, s.Dispatcher, clock)
	s.Subscriptions = subscriptions.NewApp(repo, nil, s.Dispatcher, clock)
	s.Timer = rpc.NewTimerService(s.Focus)

	s.unsub = append(s.unsub, s.Focus.Subscribe(func(e timer.Event) {
		if e.Type != timer.EventFocusComplete {
			return
		}
		if _, err := s.Rewards.CheckAchievements(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to check achievements")
		}
	}))

	// Live push
	s.Gateway = gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), clock, gateway.StateFunc(s.liveState))
	s.unsub = append(s.unsub, s.Focus.Subscribe(s.Gateway.TimerListener()))
	s.Refresher = progress.NewRefresher(s.Progress, clock, cfg.Progress.RefreshInterval)
	s.Refresher.AddSink(s.Gateway.ProgressSink())
	if s.nats != nil {
		s.relay = gateway.NewNATSRelay(s.Gateway, s.nats, cfg.NATS.SubjectPrefix)
	}

	return s, nil
}

// setupPublisher publishes to NATS when a URL is configured. Without a broker,
// events go to the log and straight to websocket clients.
func (s *Services) setupPublisher(cfg config.NATSConfig) (events.Publisher, error) {
	if cfg.URL == "" {
		return events.Fanout{events.LogPublisher{}, events.PublisherFunc(s.publishLive)}, nil
	}
	conn, err := events.ConnectNATS(cfg.URL)
	if err != nil {
		return nil, err
	}
	s.nats = conn
	log.Info().Str("url", cfg.URL).Str("prefix", cfg.SubjectPrefix).Msg("publishing events to nats")
	return events.NewNATSPublisher(conn, cfg.SubjectPrefix), nil
}

// publishLive hands events to the gateway once it exists.
func (s *Services) publishLive(ctx context.Context, event events.Event) error {
	if s.Gateway == nil {
		return nil
	}
	return s.Gateway.Publish(ctx, event)
}

func (s *Services) liveState(ctx context.Context) (any, error) {
	st := liveState{Progress: s.Progress.View(ctx)}
	snap, err := s.Focus.Snapshot()
	switch {
	case err == nil:
		st.Timer = &snap
	case !errors.Is(err, focus.ErrNoActiveSession):
		return nil, fmt.Errorf("failed to read timer state: %w", err)
	}
	return st, nil
}

// Start begins delivering domain events.
func (s *Services) Start(ctx context.Context) {
	s.Dispatcher.Start(ctx)
}

// StartLive runs the websocket fan-out and the progress refresher until ctx is done.
func (s *Services) StartLive(ctx context.Context) error {
	go s.Gateway.Start(ctx)
	go s.Refresher.Run(ctx)
	if s.relay != nil {
		if err := s.relay.Start(); err != nil {
			return fmt.Errorf("failed to start nats relay: %w", err)
		}
	}
	return nil
}

// Close stops the timer and flushes pending events before closing the store.
func (s *Services) Close() {
	for _, fn := range s.unsub {
		fn()
	}
	s.Focus.Close()
	s.Guard.Close()
	s.Dispatcher.Close()
	if s.relay != nil {
		if err := s.relay.Stop(); err != nil {
			log.Warn().Err(err).Msg("failed to stop nats relay")
		}
	}
	if s.nats != nil {
		if err := s.nats.Drain(); err != nil {
			log.Warn().Err(err).Msg("failed to drain nats connection")
		}
	}
	if err := s.Store.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close store")
	}
}
