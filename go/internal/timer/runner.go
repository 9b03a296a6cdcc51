package timer

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// DefaultBreakDelay is how long a finished focus phase waits before its break starts.
const DefaultBreakDelay = time.Second

// Event is delivered to listeners after every state change.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot Snapshot  `json:"snapshot"`
	At       time.Time `json:"at"`
}

// Listener receives runner events. Listeners run on the goroutine that caused the
// event and must not call Start, Pause or Stop synchronously.
type Listener func(Event)

// Config holds runner settings
type Config struct {
	Break      time.Duration
	BreakDelay time.Duration
}

// Runner drives a Machine with a one second ticker and schedules automatic break starts.
type Runner struct {
	clock      clockwork.Clock
	breakDelay time.Duration

	mu         sync.Mutex
	machine    *Machine
	ticker     clockwork.Ticker
	quit       chan struct{}
	breakTimer clockwork.Timer
	breakGen   int
	closed     bool

	// emitMu keeps listener delivery in the order the state changed
	emitMu      sync.Mutex
	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int
}

// NewRunner creates an idle runner for mode.
func NewRunner(clock clockwork.Clock, mode Mode, cfg Config) (*Runner, error) {
	machine, err := NewMachine(mode, cfg.Break)
	if err != nil {
		return nil, err
	}
	if cfg.BreakDelay <= 0 {
		cfg.BreakDelay = DefaultBreakDelay
	}
	return &Runner{
		clock:      clock,
		breakDelay: cfg.BreakDelay,
		machine:    machine,
		listeners:  make(map[int]Listener),
	}, nil
}

// Subscribe registers l and returns a func that removes it.
func (r *Runner) Subscribe(l Listener) func() {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			r.listenersMu.Lock()
			delete(r.listeners, id)
			r.listenersMu.Unlock()
		})
	}
}

// Snapshot returns the current state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.machine.Snapshot()
}

// Mode returns the mode being timed.
func (r *Runner) Mode() Mode {
	return r.machine.Mode()
}

// Start begins, resumes, or starts a pending break.
func (r *Runner) Start() (Snapshot, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Snapshot{}, ErrClosed
	}
	ev, err := r.machine.Start()
	if err != nil {
		snap := r.machine.Snapshot()
		r.mu.Unlock()
		return snap, err
	}
	r.cancelBreakLocked()
	r.startTickerLocked()
	snap := r.machine.Snapshot()
	r.emitAndUnlock(snap, ev)
	return snap, nil
}

// Pause stops the countdown keeping the remaining time and cancels a pending break.
func (r *Runner) Pause() (Snapshot, error) {
	r.mu.Lock()
	ev, err := r.machine.Pause()
	if err != nil {
		snap := r.machine.Snapshot()
		r.mu.Unlock()
		return snap, err
	}
	r.stopTickerLocked()
	r.cancelBreakLocked()
	snap := r.machine.Snapshot()
	r.emitAndUnlock(snap, ev)
	return snap, nil
}

// Stop resets to idle. It never fails.
func (r *Runner) Stop() Snapshot {
	r.mu.Lock()
	r.stopTickerLocked()
	r.cancelBreakLocked()
	ev := r.machine.Stop()
	snap := r.machine.Snapshot()
	r.emitAndUnlock(snap, ev)
	return snap
}

// Close releases the ticker and break timer without emitting events. The runner
// cannot be restarted afterwards.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopTickerLocked()
	r.cancelBreakLocked()

	r.listenersMu.Lock()
	r.listeners = make(map[int]Listener)
	r.listenersMu.Unlock()
}

func (r *Runner) startTickerLocked() {
	if r.ticker != nil {
		return
	}
	r.ticker = r.clock.NewTicker(time.Second)
	r.quit = make(chan struct{})
	go r.loop(r.ticker, r.quit)
}

func (r *Runner) stopTickerLocked() {
	if r.ticker == nil {
		return
	}
	r.ticker.Stop()
	close(r.quit)
	r.ticker = nil
	r.quit = nil
}

func (r *Runner) cancelBreakLocked() {
	if r.breakTimer == nil {
		return
	}
	r.breakTimer.Stop()
	r.breakTimer = nil
	r.breakGen++
}

func (r *Runner) loop(ticker clockwork.Ticker, quit chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case <-ticker.Chan():
			r.tick(quit)
		}
	}
}

func (r *Runner) tick(quit chan struct{}) {
	r.mu.Lock()
	// A tick can race with Pause or Stop; only the current loop may advance the machine.
	if r.quit != quit {
		r.mu.Unlock()
		return
	}

	events := r.machine.Tick()
	if r.machine.Status() != StatusRunning {
		r.stopTickerLocked()
	}
	if r.machine.PendingBreak() {
		r.scheduleBreakLocked()
	}
	snap := r.machine.Snapshot()
	r.emitAndUnlock(snap, events...)
}

func (r *Runner) scheduleBreakLocked() {
	r.cancelBreakLocked()
	gen := r.breakGen
	r.breakTimer = r.clock.AfterFunc(r.breakDelay, func() {
		r.beginBreak(gen)
	})
	log.Debug().Dur("delay", r.breakDelay).Msg("break scheduled")
}

func (r *Runner) beginBreak(gen int) {
	r.mu.Lock()
	if r.breakGen != gen || r.breakTimer == nil {
		r.mu.Unlock()
		return
	}
	r.breakTimer = nil
	ev, err := r.machine.StartBreak()
	if err != nil {
		r.mu.Unlock()
		return
	}
	r.startTickerLocked()
	snap := r.machine.Snapshot()
	r.emitAndUnlock(snap, ev)
}

// emitAndUnlock releases r.mu and delivers events in order. It must be called with r.mu held.
func (r *Runner) emitAndUnlock(snap Snapshot, events ...EventType) {
	r.emitMu.Lock()
	r.mu.Unlock()
	defer r.emitMu.Unlock()

	r.listenersMu.RLock()
	listeners := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.listenersMu.RUnlock()

	now := r.clock.Now()
	for _, ev := range events {
		e := Event{Type: ev, Snapshot: snap, At: now}
		for _, l := range listeners {
			l(e)
		}
	}
}
