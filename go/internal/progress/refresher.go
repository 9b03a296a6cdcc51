package progress

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultRefreshInterval is how often aggregate stats are recomputed.
const DefaultRefreshInterval = time.Minute

// Sink receives every refreshed view
type Sink func(View)

// Refresher periodically recomputes the progress view and pushes it to sinks.
type Refresher struct {
	app      *App
	clock    clockwork.Clock
	interval time.Duration

	mu    sync.RWMutex
	sinks []Sink
}

// NewRefresher creates a refresher; interval <= 0 uses DefaultRefreshInterval
func NewRefresher(app *App, clock clockwork.Clock, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Refresher{app: app, clock: clock, interval: interval}
}

// AddSink registers a sink
func (r *Refresher) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// Run pushes a view immediately and then on every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("progress refresher started")
	r.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("progress refresher stopped")
			return
		case <-ticker.Chan():
			r.refresh(ctx)
		}
	}
}

// refresh computes one view and hands it to every sink
func (r *Refresher) refresh(ctx context.Context) {
	view := r.app.View(ctx)

	r.mu.RLock()
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.RUnlock()

	for _, s := range sinks {
		s(view)
	}
}
