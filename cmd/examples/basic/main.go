// Minimal counter: one relay in, one actor folding events, one signal out.
package main

import (
	"context"
	"fmt"

	"github.com/NovyWave/dataflow"
)

func main() {
	incr, events := dataflow.NewRelayPair[int]()

	counter := dataflow.NewActor(0, func(ctx context.Context, st *dataflow.State[int]) {
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-events.Events():
				if !ok {
					return
				}
				st.Update(func(v int) int { return v + n })
			}
		}
	})

	sub := counter.Signal().Subscribe()
	fmt.Println("initial:", <-sub.Events())

	for i := 1; i <= 3; i++ {
		incr.Send(i)
		fmt.Println("after send:", <-sub.Events())
	}

	sub.Close()
	counter.Stop()
	incr.Close()
}
