package dataflow

import (
	"sync"

	"github.com/NovyWave/dataflow/internal/broadcast"
)

// cell is the single mutable slot owned by an actor. It holds the current
// value and broadcasts every change. All writes go through the owning
// actor's goroutine; reads happen through signal subscriptions.
type cell[T any] struct {
	mu  sync.RWMutex
	val T
	hub *broadcast.Hub[T]
}

func newCell[T any](initial T) *cell[T] {
	return &cell[T]{val: initial, hub: broadcast.NewHub[T]()}
}

func (c *cell[T]) get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *cell[T]) set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val = v
	c.hub.Publish(v)
}

func (c *cell[T]) update(f func(T) T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.val = f(c.val)
	c.hub.Publish(c.val)
}

// subscribe registers an observer seeded with the current value. Holding the
// read lock across hub registration guarantees the seed and later updates
// form a gapless sequence.
func (c *cell[T]) subscribe() (string, <-chan T) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hub.Subscribe(c.val)
}

func (c *cell[T]) close() {
	c.hub.Close()
}

// setIfChanged writes v only when it differs from the current value and
// reports whether an update was published.
func setIfChanged[T comparable](c *cell[T], v T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.val == v {
		return false
	}
	c.val = v
	c.hub.Publish(v)
	return true
}

// Signal is a read-only reactive view of an actor's current state. A new
// subscription observes the current value immediately and then every
// subsequent change. Signals never expose the value synchronously; this is
// what keeps external readers from observing mid-transition state.
type Signal[T any] struct {
	c *cell[T]
}

// Subscribe returns a stream that yields the current value first, then every
// change, until the owning actor stops.
func (s *Signal[T]) Subscribe() *Subscription[T] {
	id, out := s.c.subscribe()
	return &Subscription[T]{hub: s.c.hub, id: id, out: out}
}

// SignalMap derives a signal by projecting every emission of src through
// project. The derived signal completes when src does.
func SignalMap[T, U any](src *Signal[T], project func(T) U) *Signal[U] {
	sub := src.Subscribe()

	first, ok := <-sub.Events()
	if !ok {
		var zero U
		dst := newCell(zero)
		dst.close()
		return &Signal[U]{c: dst}
	}

	dst := newCell(project(first))
	go func() {
		defer dst.close()
		for v := range sub.Events() {
			dst.set(project(v))
		}
	}()
	return &Signal[U]{c: dst}
}

// SignalRef derives a deduplicated signal: it re-emits only when the
// projected value actually changes.
func SignalRef[T any, U comparable](src *Signal[T], project func(T) U) *Signal[U] {
	sub := src.Subscribe()

	first, ok := <-sub.Events()
	if !ok {
		var zero U
		dst := newCell(zero)
		dst.close()
		return &Signal[U]{c: dst}
	}

	dst := newCell(project(first))
	go func() {
		defer dst.close()
		for v := range sub.Events() {
			setIfChanged(dst, project(v))
		}
	}()
	return &Signal[U]{c: dst}
}
