package dataflow

import (
	"context"
	"sync"
)

// cellWriter carries the identity of the goroutine allowed to mutate a state
// cell. The checks live in diag.go / diag_debug.go.
type cellWriter struct {
	gid int64
}

// State is the exclusive write handle to an actor's cell. It is passed to
// the actor's setup function and must only be used from the processing
// goroutine; debug builds enforce this.
type State[T any] struct {
	cellWriter
	c *cell[T]
}

// Get returns the current value. Valid only inside the processing loop,
// where no mutation can be in flight.
func (s *State[T]) Get() T {
	s.assertWriter()
	return s.c.get()
}

// Set replaces the current value and notifies all signal subscriptions.
func (s *State[T]) Set(v T) {
	s.assertWriter()
	s.c.set(v)
}

// Update applies f to the current value atomically.
func (s *State[T]) Update(f func(T) T) {
	s.assertWriter()
	s.c.update(f)
}

// SetIfChanged replaces the current value only when it differs, so signal
// subscriptions are not notified for no-op writes.
func SetIfChanged[T comparable](s *State[T], v T) bool {
	s.assertWriter()
	return setIfChanged(s.c, v)
}

// Actor owns one mutable cell of type T and the single goroutine authorized
// to mutate it. External code writes by sending events into relays the
// actor's loop subscribes to, and reads through Signal.
//
// The setup function runs as the actor's processing loop for the actor's
// whole life. It should wait on one or more relay subscriptions with a
// select that also covers ctx.Done(), applying one state transition per
// received event:
//
//	incr, incrEvents := dataflow.NewRelayPair[int]()
//	counter := dataflow.NewActor(0, func(ctx context.Context, st *dataflow.State[int]) {
//		for {
//			select {
//			case <-ctx.Done():
//				return
//			case n, ok := <-incrEvents.Events():
//				if !ok {
//					return
//				}
//				st.Update(func(v int) int { return v + n })
//			}
//		}
//	})
//
// Within one actor, events are applied strictly one at a time; distinct
// actors run concurrently with respect to each other.
type Actor[T any] struct {
	c        *cell[T]
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewActor creates the actor's cell with initial and immediately starts
// setup as its background processing loop. Construction cannot fail.
//
// If setup returns before cancellation the actor becomes permanently inert:
// its signals complete and its state never changes again. That is a logic
// error in the loop, reported to the diagnostic logger.
func NewActor[T any](initial T, setup func(ctx context.Context, st *State[T])) *Actor[T] {
	a := &Actor[T]{
		c:    newCell(initial),
		done: make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	st := &State[T]{c: a.c}
	go func() {
		defer close(a.done)
		defer a.c.close()
		st.adoptWriter()
		setup(ctx, st)
		if ctx.Err() == nil {
			logger.Error("actor processing loop returned before cancellation; actor is now inert")
		}
	}()
	return a
}

// Signal returns the live read-only view of the actor's state. It emits the
// current value immediately on subscription and again on every change.
func (a *Actor[T]) Signal() *Signal[T] {
	return &Signal[T]{c: a.c}
}

// Stop cancels the processing loop and waits for it to exit. The event being
// applied at that moment runs to completion; afterwards signals complete and
// the state is frozen. Stop is idempotent.
func (a *Actor[T]) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		<-a.done
	})
}

// Done returns a channel closed once the processing loop has exited.
func (a *Actor[T]) Done() <-chan struct{} {
	return a.done
}
