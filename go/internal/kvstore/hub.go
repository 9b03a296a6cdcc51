package kvstore

import (
	"sync"
)

// hub fans a change out to every subscriber
type hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Change)
}

func newHub() *hub {
	return &hub{subs: make(map[int]func(Change))}
}

func (h *hub) Subscribe(fn func(Change)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	h.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

// publish calls subscribers outside the lock so they may read the store
func (h *hub) publish(change Change) {
	h.mu.RLock()
	fns := make([]func(Change), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(change)
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
