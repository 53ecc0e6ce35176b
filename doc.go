// Package dataflow is a reactive state-management core: every piece of
// shared state is owned by exactly one sequential processing loop, reachable
// for mutation only through typed fire-and-forget relays and observable only
// through read-only signals.
//
// The core idea is:
//   - Model each shared value as an [Actor] (or [ActorVec] / [ActorBTreeMap]
//     for collections) constructed with an initial value and a setup
//     function that runs its processing loop.
//   - Wire producers to the actor through [Relay] channels created with
//     [NewRelayPair]; the loop waits on the subscriptions with an ordinary
//     select, applying one state transition per received event.
//   - Observe state through [Signal] subscriptions, which emit the current
//     value immediately and again on every change. There is no synchronous
//     getter on Actor.
//
// Concurrency model (high level):
//   - Each actor owns a single goroutine; within one actor, events are
//     applied strictly one at a time, so no two mutations ever overlap.
//   - Relays are broadcast channels with unbounded, non-blocking delivery
//     and no replay for late subscribers.
//   - Stopping an actor cancels its loop at the next suspension point; the
//     event being applied runs to completion first.
//
// For purely local, throwaway UI state, [SimpleState] wraps one relay and
// one actor behind a Set/Signal pair. Package testutil provides the
// sanctioned harness for asserting on actor behavior, and package bridge
// adapts push-based externals (timers, channels) into relays.
package dataflow
