package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultNamespace prefixes every key written by the daemon.
const DefaultNamespace = "nexora"

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("key not found")

// Origin tells subscribers who caused a change.
type Origin string

const (
	OriginLocal    Origin = "local"
	OriginExternal Origin = "external"
)

// Change describes a key that was written or deleted.
type Change struct {
	Key    string    `json:"key"`
	Origin Origin    `json:"origin"`
	At     time.Time `json:"at"`
}

// Store is a flat key/value store. Values are returned exactly as they were written.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Watcher delivers change notifications. The returned func cancels the subscription.
type Watcher interface {
	Subscribe(fn func(Change)) (cancel func())
}

// WatchableStore is a Store that also reports changes.
type WatchableStore interface {
	Store
	Watcher
}

type options struct {
	clock clockwork.Clock
}

// Option configures a backend.
type Option func(*options)

// WithClock sets the clock used to stamp changes.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func buildOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
