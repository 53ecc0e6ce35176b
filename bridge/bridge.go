// Package bridge adapts push-based external sources (timers, native
// channels) into relays. Each adapter owns the foreign resource, translates
// its callbacks into relay sends, and exposes outward only a relay handle,
// keeping foreign control flow out of the actor core.
package bridge

import (
	"context"
	"time"

	"github.com/NovyWave/dataflow"
)

// Ticker starts an adapter that forwards tick timestamps into the returned
// relay every interval until ctx is canceled, then closes the relay. Actors
// model timeouts by subscribing to a ticker relay like any other event
// source.
func Ticker(ctx context.Context, interval time.Duration) *dataflow.Relay[time.Time] {
	r := dataflow.NewRelay[time.Time]()
	go func() {
		defer r.Close()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				r.Send(now)
			}
		}
	}()
	return r
}

// After sends a single timestamp into the returned relay once d has elapsed,
// then closes it. A one-shot timeout event.
func After(ctx context.Context, d time.Duration) *dataflow.Relay[time.Time] {
	r := dataflow.NewRelay[time.Time]()
	go func() {
		defer r.Close()
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
		case now := <-t.C:
			r.Send(now)
		}
	}()
	return r
}

// FromChannel forwards every value received on src into the returned relay
// until src closes or ctx is canceled, then closes the relay. This is the
// generic wrapper for foreign APIs that already hand out a channel.
func FromChannel[T any](ctx context.Context, src <-chan T) *dataflow.Relay[T] {
	r := dataflow.NewRelay[T]()
	go func() {
		defer r.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case v, ok := <-src:
				if !ok {
					return
				}
				r.Send(v)
			}
		}
	}()
	return r
}
