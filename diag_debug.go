//go:build debug

package dataflow

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/petermattis/goid"
)

// emitterCheck records the static call site of the first Send/TrySend on a
// relay and flags later sends from other sites. This is a heuristic lint for
// accidental multi-writer wiring, not a runtime fault.
type emitterCheck struct {
	mu   sync.Mutex
	site string
}

func (c *emitterCheck) check(skip int) error {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return nil
	}
	site := fmt.Sprintf("%s:%d", file, line)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.site {
	case "":
		c.site = site
		return nil
	case site:
		return nil
	default:
		return &MultipleEmittersError{Previous: c.site, Current: site}
	}
}

// adoptWriter records the actor goroutine as the sole writer (debug only).
func (s *cellWriter) adoptWriter() {
	s.gid = goid.Get()
}

// assertWriter panics when state is mutated off the actor goroutine (debug only).
func (s *cellWriter) assertWriter() {
	if s.gid != 0 && s.gid != goid.Get() {
		panic("dataflow: contract violation: state mutated outside its actor goroutine; send an event through a relay instead")
	}
}
