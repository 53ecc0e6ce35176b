package dataflow

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/NovyWave/dataflow/internal/broadcast"
)

var (
	// ErrNoSubscribers is returned by TrySend when no subscription is live;
	// the value was discarded.
	ErrNoSubscribers = errors.New("dataflow: relay has no subscribers")

	// ErrRelayClosed is returned by TrySend after the relay has been closed.
	ErrRelayClosed = errors.New("dataflow: relay is closed")
)

// MultipleEmittersError reports that Send/TrySend was invoked on the same
// relay from more than one static call site. Only produced in builds with
// the debug tag.
type MultipleEmittersError struct {
	Previous string
	Current  string
}

func (e *MultipleEmittersError) Error() string {
	return fmt.Sprintf("dataflow: relay sent from multiple call sites: first %s, now %s", e.Previous, e.Current)
}

// Relay is a typed broadcast event channel. Values sent into a relay are
// delivered to every currently-live subscription; subscriptions created
// later never see earlier values. Producers are never blocked by slow
// consumers (subscription queues are unbounded).
//
// A relay carries no state of its own. It is the only sanctioned write path
// into an actor: producers call Send, the actor's processing loop consumes
// the subscription.
type Relay[T any] struct {
	hub      *broadcast.Hub[T]
	emitters emitterCheck
}

// NewRelay creates a relay with zero live subscriptions. Until Subscribe is
// called, every value sent is discarded.
func NewRelay[T any]() *Relay[T] {
	return &Relay[T]{hub: broadcast.NewHub[T]()}
}

// NewRelayPair creates a relay together with its first subscription,
// avoiding the race between construction and the first subscriber attaching.
// This is the usual way to wire a relay into an actor's processing loop.
func NewRelayPair[T any]() (*Relay[T], *Subscription[T]) {
	r := NewRelay[T]()
	return r, r.Subscribe()
}

// Subscribe returns a new, independent stream observing every value sent
// from this point forward. Multiple subscriptions coexist and each receives
// every subsequent value (fan-out, not load-balancing).
func (r *Relay[T]) Subscribe() *Subscription[T] {
	id, out := r.hub.Subscribe()
	return &Subscription[T]{hub: r.hub, id: id, out: out}
}

// Send delivers value to all live subscriptions, best effort. It never
// blocks and never surfaces failure: with no subscribers the value is
// dropped and reported to the diagnostic logger. Use TrySend at call sites
// that must react to delivery failure.
func (r *Relay[T]) Send(value T) {
	if err := r.emitters.check(2); err != nil {
		logger.Warn("relay has multiple emitters", zap.Error(err))
	}
	if r.hub.Closed() {
		logger.Debug("send on closed relay, value dropped")
		return
	}
	if r.hub.Publish(value) == 0 {
		logger.Debug("send with no subscribers, value dropped")
	}
}

// TrySend delivers value with the same semantics as Send but surfaces
// failure: ErrNoSubscribers when nothing is live, ErrRelayClosed when the
// relay was torn down, and (debug builds) *MultipleEmittersError when this
// relay has previously been sent from a different call site.
func (r *Relay[T]) TrySend(value T) error {
	if err := r.emitters.check(2); err != nil {
		return err
	}
	if r.hub.Closed() {
		return ErrRelayClosed
	}
	if r.hub.Publish(value) == 0 {
		if r.hub.Closed() {
			// Torn down concurrently with the send.
			return ErrRelayClosed
		}
		return ErrNoSubscribers
	}
	return nil
}

// HasSubscribers reports whether at least one subscription is currently live.
func (r *Relay[T]) HasSubscribers() bool {
	return r.hub.HasSubscribers()
}

// Close tears the relay down. Live subscriptions drain their queued values
// and then their Events channels close; later sends are dropped.
func (r *Relay[T]) Close() {
	r.hub.Close()
}

// Subscription is a receiving stream attached to a relay or signal.
type Subscription[T any] struct {
	hub *broadcast.Hub[T]
	id  string
	out <-chan T
}

// Events returns the receive channel. It is usable directly in a select
// statement, which is how an actor waits on several relays at once. The
// channel closes when the subscription or its source is closed.
func (s *Subscription[T]) Events() <-chan T {
	return s.out
}

// Close detaches the subscription from its source. A subscriber that closes
// is done reading: values still queued are discarded and Events closes.
func (s *Subscription[T]) Close() {
	s.hub.Unsubscribe(s.id)
}
