//go:build !debug

package dataflow

// emitterCheck records the static call site of the first Send/TrySend on a
// relay and flags later sends from other sites. Compiled out of release
// builds; build with -tags debug to enable.
type emitterCheck struct{}

func (c *emitterCheck) check(skip int) error { return nil }

// adoptWriter records the actor goroutine as the sole writer (debug only).
func (s *cellWriter) adoptWriter() {}

// assertWriter panics when state is mutated off the actor goroutine (debug only).
func (s *cellWriter) assertWriter() {}
