package feed

import (
	"context"
	"sync"

	"exstats/internal/model"
	"exstats/pkg/exception"
)

// Hub is an in-process damage event stream. Publish delivers on the
// caller's goroutine, so the host keeps its own threading model.
type Hub struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]func(model.DamageEvent)
	closed   bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{handlers: make(map[uint64]func(model.DamageEvent))}
}

// Observe registers handler until unsubscribe is called or ctx ends.
func (h *Hub) Observe(ctx context.Context, handler func(model.DamageEvent)) (unsubscribe func(), err error) {
	if handler == nil {
		return nil, exception.ErrFeedNilHandler
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, exception.ErrFeedClosed
	}
	id := h.nextID
	h.nextID++
	h.handlers[id] = handler
	h.mu.Unlock()

	remove := func() {
		h.mu.Lock()
		delete(h.handlers, id)
		h.mu.Unlock()
	}
	stop := context.AfterFunc(ctx, remove)

	return func() {
		stop()
		remove()
	}, nil
}

// Publish delivers ev to every observer and returns how many received it.
// Handlers run outside the lock and may unsubscribe themselves.
func (h *Hub) Publish(ev model.DamageEvent) int {
	h.mu.RLock()
	handlers := make([]func(model.DamageEvent), 0, len(h.handlers))
	for _, handler := range h.handlers {
		handlers = append(handlers, handler)
	}
	h.mu.RUnlock()

	for _, handler := range handlers {
		handler(ev)
	}
	return len(handlers)
}

// Len returns the number of observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers)
}

// Close drops every observer and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clear(h.handlers)
	h.mu.Unlock()
}
