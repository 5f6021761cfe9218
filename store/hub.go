package store

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const subscriberBuffer = 32

// Change describes a key that was written or removed.
type Change struct {
	Key     string `json:"key"`
	Removed bool   `json:"removed,omitempty"`
}

// Hub fans changes out to subscribers. A subscriber that is not keeping up
// misses events rather than blocking the writer.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]chan Change
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Change)}
}

// Subscribe returns a subscriber ID and a channel of changes. The channel is
// closed when ctx is done or the hub is closed.
func (h *Hub) Subscribe(ctx context.Context) (string, <-chan Change) {
	id := uuid.NewString()
	ch := make(chan Change, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return id, ch
	}
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.unsubscribe(id)
	}()
	return id, ch
}

// Publish delivers c to every subscriber without blocking.
func (h *Hub) Publish(c Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Len reports the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close ends every subscription. Later Subscribe calls get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}

func (h *Hub) unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}
