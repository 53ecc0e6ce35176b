package dataflow

import "context"

// simpleOp is the single event type of a SimpleState's internal relay.
type simpleOp[T comparable] struct {
	apply func(T) T
}

// SimpleState is sugar composing exactly one relay and one actor whose loop
// replaces the current value with the latest received one, only when it
// differs. It is reserved for purely local, ephemeral, non-shared state
// (a dropdown's open flag, a hover state). Any state read by more than one
// component belongs in a full Actor with named relays.
type SimpleState[T comparable] struct {
	setter *Relay[simpleOp[T]]
	actor  *Actor[T]
}

// NewSimpleState builds the internal relay/actor pair around initial.
func NewSimpleState[T comparable](initial T) *SimpleState[T] {
	setter, events := NewRelayPair[simpleOp[T]]()

	actor := NewActor(initial, func(ctx context.Context, st *State[T]) {
		for {
			select {
			case <-ctx.Done():
				return
			case op, ok := <-events.Events():
				if !ok {
					return
				}
				SetIfChanged(st, op.apply(st.Get()))
			}
		}
	})

	return &SimpleState[T]{setter: setter, actor: actor}
}

// Set forwards the new value to the internal relay. The signal emits only
// when the value actually changes.
func (s *SimpleState[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Update forwards a transformation of the current value.
func (s *SimpleState[T]) Update(f func(T) T) {
	s.setter.Send(simpleOp[T]{apply: f})
}

// Signal returns the internal actor's signal.
func (s *SimpleState[T]) Signal() *Signal[T] {
	return s.actor.Signal()
}

// Close tears down the internal relay and actor.
func (s *SimpleState[T]) Close() {
	s.actor.Stop()
	s.setter.Close()
}

// Toggle flips a boolean SimpleState.
func Toggle(s *SimpleState[bool]) {
	s.Update(func(b bool) bool { return !b })
}
