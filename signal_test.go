package dataflow_test

import (
	"context"
	"testing"
	"time"

	. "github.com/NovyWave/dataflow"
)

// echoActor runs a trivial actor that stores every received value.
func echoActor[T any](events *Subscription[T], initial T) *Actor[T] {
	return NewActor(initial, func(ctx context.Context, st *State[T]) {
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-events.Events():
				if !ok {
					return
				}
				st.Set(v)
			}
		}
	})
}

// Test signal emits current value immediately on subscription.
func TestSignalEmitsCurrentValueFirst(t *testing.T) {
	r, events := NewRelayPair[int]()
	defer r.Close()
	a := echoActor(events, 10)
	defer a.Stop()

	sub := a.Signal().Subscribe()
	defer sub.Close()

	if got := recvOne(t, sub); got != 10 {
		t.Errorf("expected initial 10, got %d", got)
	}

	r.Send(11)
	if got := recvOne(t, sub); got != 11 {
		t.Errorf("expected 11, got %d", got)
	}
}

// Test late subscriber sees only the current value, not history.
func TestSignalLateSubscriberSeesCurrentOnly(t *testing.T) {
	r, events := NewRelayPair[int]()
	defer r.Close()
	a := echoActor(events, 0)
	defer a.Stop()

	r.Send(1)
	r.Send(2)
	awaitValue(t, a.Signal(), 2)

	sub := a.Signal().Subscribe()
	defer sub.Close()
	if got := recvOne(t, sub); got != 2 {
		t.Errorf("expected current value 2, got %d", got)
	}
	expectQuiet(t, sub, 100*time.Millisecond)
}

// Test SignalMap projects every emission.
func TestSignalMap(t *testing.T) {
	r, events := NewRelayPair[int]()
	defer r.Close()
	a := echoActor(events, 2)
	defer a.Stop()

	doubled := SignalMap(a.Signal(), func(v int) int { return v * 2 })
	sub := doubled.Subscribe()
	defer sub.Close()

	if got := recvOne(t, sub); got != 4 {
		t.Errorf("expected projected initial 4, got %d", got)
	}

	r.Send(5)
	awaitValue(t, doubled, 10)
}

// Test SignalRef deduplicates: re-emits only when the projection changes.
func TestSignalRefDedupes(t *testing.T) {
	r, events := NewRelayPair[string]()
	defer r.Close()
	a := echoActor(events, "ab")
	defer a.Stop()

	length := SignalRef(a.Signal(), func(s string) int { return len(s) })
	sub := length.Subscribe()
	defer sub.Close()

	if got := recvOne(t, sub); got != 2 {
		t.Errorf("expected initial length 2, got %d", got)
	}

	r.Send("cd") // same length, must not re-emit
	r.Send("efg")

	if got := recvOne(t, sub); got != 3 {
		t.Errorf("expected deduped emission 3, got %d", got)
	}
}

// Test signals complete when the owning actor stops.
func TestSignalCompletesOnActorStop(t *testing.T) {
	r, events := NewRelayPair[int]()
	defer r.Close()
	a := echoActor(events, 1)

	sub := a.Signal().Subscribe()
	if got := recvOne(t, sub); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}

	a.Stop()
	expectClosed(t, sub)
}
