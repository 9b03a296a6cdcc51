package kvstore

import (
	"context"
	"strings"
)

// Namespaced prefixes keys with "<namespace>_" so several profiles or apps can share a backend.
type Namespaced struct {
	inner  WatchableStore
	prefix string
}

// WithNamespace wraps a store so callers use bare keys.
func WithNamespace(inner WatchableStore, namespace string) *Namespaced {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Namespaced{inner: inner, prefix: namespace + "_"}
}

// Key returns the backend key for a bare key.
func (n *Namespaced) Key(key string) string {
	return n.prefix + key
}

func (n *Namespaced) Get(ctx context.Context, key string) ([]byte, error) {
	return n.inner.Get(ctx, n.Key(key))
}

func (n *Namespaced) Set(ctx context.Context, key string, value []byte) error {
	return n.inner.Set(ctx, n.Key(key), value)
}

func (n *Namespaced) Delete(ctx context.Context, key string) error {
	return n.inner.Delete(ctx, n.Key(key))
}

// Keys lists the bare keys that belong to this namespace.
func (n *Namespaced) Keys(ctx context.Context) ([]string, error) {
	all, err := n.inner.Keys(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, n.prefix) {
			keys = append(keys, strings.TrimPrefix(k, n.prefix))
		}
	}
	return keys, nil
}

// Subscribe forwards changes in this namespace with the prefix removed.
func (n *Namespaced) Subscribe(fn func(Change)) func() {
	return n.inner.Subscribe(func(c Change) {
		if !strings.HasPrefix(c.Key, n.prefix) {
			return
		}
		c.Key = strings.TrimPrefix(c.Key, n.prefix)
		fn(c)
	})
}

func (n *Namespaced) Close() error {
	return n.inner.Close()
}
