package dataflow_test

import (
	"testing"
	"time"

	. "github.com/NovyWave/dataflow"
)

const testTimeout = 2 * time.Second

// recvN reads exactly n values from sub or fails the test.
func recvN[T any](t *testing.T, sub *Subscription[T], n int) []T {
	t.Helper()
	got := make([]T, 0, n)
	for len(got) < n {
		select {
		case v, ok := <-sub.Events():
			if !ok {
				t.Fatalf("subscription closed after %d of %d values", len(got), n)
			}
			got = append(got, v)
		case <-time.After(testTimeout):
			t.Fatalf("timed out after %d of %d values", len(got), n)
		}
	}
	return got
}

// recvOne reads a single value from sub or fails the test.
func recvOne[T any](t *testing.T, sub *Subscription[T]) T {
	t.Helper()
	return recvN(t, sub, 1)[0]
}

// expectQuiet asserts that sub delivers nothing within the window.
func expectQuiet[T any](t *testing.T, sub *Subscription[T], window time.Duration) {
	t.Helper()
	select {
	case v, ok := <-sub.Events():
		if ok {
			t.Fatalf("expected no value, got %v", v)
		}
	case <-time.After(window):
	}
}

// awaitValue reads sig until want is observed or the deadline passes.
func awaitValue[T comparable](t *testing.T, sig *Signal[T], want T) {
	t.Helper()
	sub := sig.Subscribe()
	defer sub.Close()

	deadline := time.After(testTimeout)
	var last T
	for {
		select {
		case v, ok := <-sub.Events():
			if !ok {
				t.Fatalf("signal completed before emitting %v (last %v)", want, last)
			}
			if v == want {
				return
			}
			last = v
		case <-deadline:
			t.Fatalf("timed out waiting for %v (last %v)", want, last)
		}
	}
}

// expectClosed asserts that sub's channel closes within the test timeout.
func expectClosed[T any](t *testing.T, sub *Subscription[T]) {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case _, ok := <-sub.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for subscription to close")
		}
	}
}
