// Package state holds the plumbing shared by the client stores: change
// notification and fetch freshness tracking.
package state

import (
	"sync"

	"go.uber.org/zap"
)

// Listener receives a store snapshot after every state change
type Listener[S any] func(S)

type subscription[S any] struct {
	id uint64
	fn Listener[S]
}

// Hub fans snapshots out to subscribers in subscription order.
// A panicking listener is logged and skipped; the rest still run.
type Hub[S any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription[S]
	logger *zap.Logger
}

// NewHub creates an empty hub
func NewHub[S any](logger *zap.Logger) *Hub[S] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub[S]{logger: logger}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (h *Hub[S]) Subscribe(fn Listener[S]) (unsubscribe func()) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscription[S]{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub[S]) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers snapshot to every subscriber synchronously.
// It must not be called while holding the owning store's lock.
func (h *Hub[S]) Publish(snapshot S) {
	h.mu.RLock()
	subs := make([]subscription[S], len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, s := range subs {
		h.dispatch(s, snapshot)
	}
}

func (h *Hub[S]) dispatch(s subscription[S], snapshot S) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("state listener panicked",
				zap.Uint64("subscription", s.id),
				zap.Any("panic", r),
			)
		}
	}()
	s.fn(snapshot)
}

// Len returns the number of active subscribers
func (h *Hub[S]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
