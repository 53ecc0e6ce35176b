// Package testutil is the sanctioned testing surface for the dataflow core:
// a recorder that captures everything a relay delivers, a probe that tracks
// a signal's emissions, and a harness coupling an input relay to an output
// signal so tests can drive an actor's processing loop and assert on the
// resulting state without bypassing the single-writer invariant.
package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/NovyWave/dataflow"
)

// Recorder subscribes to a relay and records every value it delivers, in
// arrival order.
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
	sub    *dataflow.Subscription[T]
	done   chan struct{}
}

// NewRecorder attaches a recorder to relay. Values sent before this call are
// not observed (relays never replay).
func NewRecorder[T any](relay *dataflow.Relay[T]) *Recorder[T] {
	return record(relay.Subscribe())
}

// RecordSubscription wraps an existing subscription in a recorder.
func RecordSubscription[T any](sub *dataflow.Subscription[T]) *Recorder[T] {
	return record(sub)
}

func record[T any](sub *dataflow.Subscription[T]) *Recorder[T] {
	r := &Recorder[T]{sub: sub, done: make(chan struct{})}
	go func() {
		defer close(r.done)
		for v := range sub.Events() {
			r.mu.Lock()
			r.values = append(r.values, v)
			r.mu.Unlock()
		}
	}()
	return r
}

// Values returns a copy of everything recorded so far.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

// Len returns how many values have been recorded.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// WaitLen blocks until at least n values were recorded.
func (r *Recorder[T]) WaitLen(n int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if r.Len() >= n {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("testutil: recorded %d of %d values within %v", r.Len(), n, timeout)
		}
		time.Sleep(time.Millisecond)
	}
}

// Close detaches the recorder from its source.
func (r *Recorder[T]) Close() {
	r.sub.Close()
	<-r.done
}

// SignalProbe tracks a signal: it records every emission and exposes the
// latest one.
type SignalProbe[T any] struct {
	rec *Recorder[T]
}

// NewSignalProbe subscribes to sig; the probe immediately records the
// current value.
func NewSignalProbe[T any](sig *dataflow.Signal[T]) *SignalProbe[T] {
	return &SignalProbe[T]{rec: record(sig.Subscribe())}
}

// Values returns every emission observed so far, oldest first.
func (p *SignalProbe[T]) Values() []T {
	return p.rec.Values()
}

// Latest returns the most recent emission, if any was observed yet.
func (p *SignalProbe[T]) Latest() (T, bool) {
	vs := p.rec.Values()
	if len(vs) == 0 {
		var zero T
		return zero, false
	}
	return vs[len(vs)-1], true
}

// WaitFor blocks until an emission satisfies pred and returns it.
func (p *SignalProbe[T]) WaitFor(pred func(T) bool, timeout time.Duration) (T, error) {
	deadline := time.Now().Add(timeout)
	seen := 0
	for {
		vs := p.rec.Values()
		for ; seen < len(vs); seen++ {
			if pred(vs[seen]) {
				return vs[seen], nil
			}
		}
		if time.Now().After(deadline) {
			var zero T
			return zero, fmt.Errorf("testutil: no matching emission within %v (observed %d)", timeout, len(vs))
		}
		time.Sleep(time.Millisecond)
	}
}

// Settle blocks until the signal has been quiet for the given window, then
// returns the latest emission.
func (p *SignalProbe[T]) Settle(quiet, timeout time.Duration) (T, error) {
	deadline := time.Now().Add(timeout)
	for {
		before := p.rec.Len()
		time.Sleep(quiet)
		if p.rec.Len() == before {
			v, ok := p.Latest()
			if !ok {
				var zero T
				return zero, fmt.Errorf("testutil: signal emitted nothing within %v", timeout)
			}
			return v, nil
		}
		if time.Now().After(deadline) {
			var zero T
			return zero, fmt.Errorf("testutil: signal did not settle within %v", timeout)
		}
	}
}

// Close detaches the probe.
func (p *SignalProbe[T]) Close() {
	p.rec.Close()
}

// Harness couples one input relay with a probe on an actor's signal so a
// test can send an event and wait for the state it expects. E is the event
// type, S the observed state type.
type Harness[E, S any] struct {
	relay *dataflow.Relay[E]
	Probe *SignalProbe[S]
}

// NewHarness wires relay (an actor input) to sig (the actor's signal).
func NewHarness[E, S any](relay *dataflow.Relay[E], sig *dataflow.Signal[S]) *Harness[E, S] {
	return &Harness[E, S]{relay: relay, Probe: NewSignalProbe(sig)}
}

// Send forwards one event to the actor under test.
func (h *Harness[E, S]) Send(event E) {
	h.relay.Send(event)
}

// ExpectState sends nothing and waits until the actor's signal emits a state
// satisfying pred.
func (h *Harness[E, S]) ExpectState(pred func(S) bool, timeout time.Duration) (S, error) {
	return h.Probe.WaitFor(pred, timeout)
}

// Close detaches the harness probe. The relay and actor under test stay up.
func (h *Harness[E, S]) Close() {
	h.Probe.Close()
}
