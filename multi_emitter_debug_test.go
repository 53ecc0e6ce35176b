//go:build debug

package dataflow_test

import (
	"errors"
	"testing"

	. "github.com/NovyWave/dataflow"
)

// Test multi-emitter lint: sending the same relay from two static call
// sites surfaces MultipleEmittersError from TrySend.
func TestRelayMultipleEmittersDetected(t *testing.T) {
	r, sub := NewRelayPair[int]()
	defer r.Close()
	defer sub.Close()

	if err := r.TrySend(1); err != nil {
		t.Fatalf("first send site should pass, got %v", err)
	}

	err := r.TrySend(2)
	if err == nil {
		t.Fatal("expected MultipleEmittersError from a second call site, got nil")
	}
	var me *MultipleEmittersError
	if !errors.As(err, &me) {
		t.Fatalf("expected MultipleEmittersError, got %v", err)
	}
	if me.Previous == "" || me.Current == "" || me.Previous == me.Current {
		t.Errorf("expected two distinct call sites, got %+v", me)
	}
}

// Test same call site stays allowed: repeated sends from one site never
// trip the lint.
func TestRelaySingleSiteAllowed(t *testing.T) {
	r, sub := NewRelayPair[int]()
	defer r.Close()
	defer sub.Close()

	for i := 0; i < 10; i++ {
		if err := r.TrySend(i); err != nil {
			t.Fatalf("send %d from the loop site failed: %v", i, err)
		}
	}
}
