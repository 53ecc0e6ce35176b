// Demo wires a counter actor and a tracked-items ActorVec, then drives them
// from a YAML scenario with concurrent producers. Run with:
//
//	go run ./cmd/demo -scenario cmd/demo/scenario.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/NovyWave/dataflow"
)

type scenario struct {
	Counter struct {
		Increments []int `yaml:"increments"`
		Decrements []int `yaml:"decrements"`
	} `yaml:"counter"`
	Items struct {
		Push []string `yaml:"push"`
	} `yaml:"items"`
}

func loadScenario(path string) (scenario, error) {
	var s scenario
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("parse scenario: %w", err)
	}
	return s, nil
}

func main() {
	path := flag.String("scenario", "cmd/demo/scenario.yaml", "path to the YAML scenario")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	dataflow.SetLogger(log)

	sc, err := loadScenario(*path)
	if err != nil {
		log.Fatal("load scenario", zap.Error(err))
	}

	incr, incrEvents := dataflow.NewRelayPair[int]()
	decr, decrEvents := dataflow.NewRelayPair[int]()
	counter := dataflow.NewActor(0, func(ctx context.Context, st *dataflow.State[int]) {
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-incrEvents.Events():
				if !ok {
					return
				}
				st.Update(func(v int) int { return v + n })
			case n, ok := <-decrEvents.Events():
				if !ok {
					return
				}
				st.Update(func(v int) int { return v - n })
			}
		}
	})

	pushed, pushedEvents := dataflow.NewRelayPair[string]()
	items := dataflow.NewActorVec[string](nil, func(ctx context.Context, st *dataflow.VecState[string]) {
		for {
			select {
			case <-ctx.Done():
				return
			case name, ok := <-pushedEvents.Events():
				if !ok {
					return
				}
				st.Push(name)
			}
		}
	})

	// Observers log every change as it lands.
	counterSub := counter.Signal().Subscribe()
	go func() {
		for v := range counterSub.Events() {
			log.Info("counter changed", zap.Int("value", v))
		}
	}()
	diffSub := items.SignalVec().Subscribe()
	go func() {
		for d := range diffSub.Events() {
			log.Info("items changed", zap.Stringer("op", d.Op), zap.Int("index", d.Index), zap.String("item", d.Item))
		}
	}()

	var g errgroup.Group
	g.Go(func() error {
		for _, n := range sc.Counter.Increments {
			incr.Send(n)
		}
		return nil
	})
	g.Go(func() error {
		for _, n := range sc.Counter.Decrements {
			decr.Send(n)
		}
		return nil
	})
	g.Go(func() error {
		for _, name := range sc.Items.Push {
			pushed.Send(name)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatal("producers failed", zap.Error(err))
	}

	// Let the loops drain their queues, then read the settled state.
	time.Sleep(100 * time.Millisecond)

	finalCount := <-counter.Signal().Subscribe().Events()
	finalLen := <-items.LenSignal().Subscribe().Events()
	log.Info("scenario complete", zap.Int("counter", finalCount), zap.Int("items", finalLen))

	counter.Stop()
	items.Stop()
	incr.Close()
	decr.Close()
	pushed.Close()
}
