package realtime

import (
	"context"
	"sync"
)

// Handler receives every payload published on a restaurant's channel, in
// publish order for that channel.
type Handler func(restaurantID string, payload []byte)

// Bus fans committed deltas out to every process serving the system. A
// process subscribes to a restaurant's channel only while it has local
// viewers for it. Delivery is at-most-once, best-effort: a failed
// publish is the caller's cue to fall back to local-only delivery.
type Bus interface {
	Publish(ctx context.Context, restaurantID string, payload []byte) error
	Subscribe(restaurantID string, h Handler) error
	Unsubscribe(restaurantID string) error
	Close() error
}

// LocalBus is the single-process Bus: publish dispatches straight to the
// local handler. It is also what tests run against.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string]Handler)}
}

func (b *LocalBus) Publish(ctx context.Context, restaurantID string, payload []byte) error {
	b.mu.RLock()
	h := b.handlers[restaurantID]
	b.mu.RUnlock()
	if h != nil {
		h(restaurantID, payload)
	}
	return nil
}

func (b *LocalBus) Subscribe(restaurantID string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[restaurantID] = h
	return nil
}

func (b *LocalBus) Unsubscribe(restaurantID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers, restaurantID)
	return nil
}

func (b *LocalBus) Close() error { return nil }
