package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/nexora/go/internal/kvstore"
	"github.com/mcdev12/nexora/go/internal/telemetry"
)

const (
	DefaultHistoryLimit             = 50
	DefaultNotificationHistoryLimit = 100
)

// Options tune the defaults the repository fills in.
type Options struct {
	HistoryLimit             int
	NotificationHistoryLimit int
	DailyGoal                int // minutes
	WeeklyGoal               int // minutes
}

// Repository is the typed view over the key/value store. Reads never fail:
// a missing or malformed record decodes to its defaults.
type Repository struct {
	store   kvstore.Store
	watcher kvstore.Watcher
	metrics telemetry.Collector
	opts    Options

	// mu serialises read-modify-write cycles
	mu sync.Mutex
}

// NewRepository creates a repository over store
func NewRepository(store kvstore.WatchableStore, metrics telemetry.Collector, opts Options) *Repository {
	if metrics == nil {
		metrics = telemetry.NoOp{}
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.NotificationHistoryLimit <= 0 {
		opts.NotificationHistoryLimit = DefaultNotificationHistoryLimit
	}
	return &Repository{
		store:   store,
		watcher: store,
		metrics: metrics,
		opts:    opts,
	}
}

// HistoryLimit is the maximum number of session records kept.
func (r *Repository) HistoryLimit() int {
	return r.opts.HistoryLimit
}

// Subscribe calls fn for changes to any of keys, or to every key when none are given.
func (r *Repository) Subscribe(fn func(kvstore.Change), keys ...string) func() {
	if len(keys) == 0 {
		return r.watcher.Subscribe(fn)
	}
	wanted := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}
	return r.watcher.Subscribe(func(c kvstore.Change) {
		if _, ok := wanted[c.Key]; ok {
			fn(c)
		}
	})
}

// Clear deletes the given records.
func (r *Repository) Clear(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if err := r.store.Delete(ctx, k); err != nil {
			return fmt.Errorf("failed to clear %s: %w", k, err)
		}
	}
	return nil
}

// load decodes key over the value returned by defaults. Missing, unreadable and
// malformed values all produce a fresh default.
func load[T any](ctx context.Context, r *Repository, key string, defaults func() T) T {
	raw, err := r.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return defaults()
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to read stored value, using defaults")
		return defaults()
	}

	v := defaults()
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("stored value is malformed, using defaults")
		r.metrics.RecordDecodeFailure(key)
		return defaults()
	}
	return v
}

func save[T any](ctx context.Context, r *Repository, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := r.store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// update runs a read-modify-write of one record under the repository lock.
// Returning an error from fn leaves the stored record untouched.
func update[T any](ctx context.Context, r *Repository, key string, read func(context.Context) T, fn func(*T) error) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := read(ctx)
	if err := fn(&v); err != nil {
		var zero T
		return zero, err
	}
	if err := save(ctx, r, key, v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
