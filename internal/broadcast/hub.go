// Package broadcast provides the fan-out hub that backs relays and state
// cells. A hub delivers every published value to every live subscriber over
// an unbounded queue, so publishers never block and subscribers that join
// late never see earlier values.
package broadcast

import (
	"sync"
	"sync/atomic"

	"github.com/gammazero/chanqueue"
	"github.com/google/uuid"
)

// Hub is a replay-free broadcast channel over values of type T.
// Safe for concurrent use by multiple publishers and subscribers.
type Hub[T any] struct {
	mu        sync.RWMutex
	subs      map[string]*chanqueue.ChanQueue[T]
	closed    bool
	published atomic.Uint64
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		subs: make(map[string]*chanqueue.ChanQueue[T]),
	}
}

// Subscribe registers a new subscriber and returns its identity together
// with its receive channel. Values published before Subscribe returns are
// never delivered to it. The optional seed values are enqueued ahead of any
// subsequent publishes; state cells use this to emit the current value first.
func (h *Hub[T]) Subscribe(seed ...T) (string, <-chan T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	q := chanqueue.New[T]()
	for _, v := range seed {
		q.In() <- v
	}

	if h.closed {
		// A subscription on a closed hub is inert: it yields the seed
		// values, then the channel closes.
		q.Close()
		return "", q.Out()
	}

	id := uuid.NewString()
	h.subs[id] = q
	return id, q.Out()
}

// Unsubscribe removes the subscriber and stops its queue. A consumer that
// unsubscribes is done reading, so values still queued are discarded, the
// receive channel closes, and the delivery goroutine exits.
func (h *Hub[T]) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	q, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	q.Stop()
}

// Publish delivers v to every live subscriber and reports how many received
// it. Publish never blocks on a slow subscriber; each subscriber queue grows
// without bound instead.
func (h *Hub[T]) Publish(v T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return 0
	}

	h.published.Add(1)
	for _, q := range h.subs {
		q.In() <- v
	}
	return len(h.subs)
}

// HasSubscribers reports whether at least one subscription is currently live.
func (h *Hub[T]) HasSubscribers() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.closed && len(h.subs) > 0
}

// SubscriberCount returns the number of live subscriptions.
func (h *Hub[T]) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return 0
	}
	return len(h.subs)
}

// Published returns the total number of values accepted by Publish.
func (h *Hub[T]) Published() uint64 {
	return h.published.Load()
}

// Closed reports whether Close has been called.
func (h *Hub[T]) Closed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Close tears the hub down. Subscriber queues are closed on the input side:
// queued values stay readable, then their channels close and their delivery
// goroutines exit. Queues stay registered so Unsubscribe can still discard
// one a consumer abandons undrained. Later publishes are dropped.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for _, q := range h.subs {
		q.Close()
	}
}
