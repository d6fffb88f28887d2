package batch

import (
	"errors"
	"time"

	"github.com/agentsim/agentsim/sim"
)

var errTick = errors.New("tick failed")

// ageAgent counts its ticks. It optionally sleeps per tick and fails on tick
// failAt (1-based) when failAt > 0.
type ageAgent struct {
	age    int
	failAt int
	delay  time.Duration
}

func (a *ageAgent) Tick() error {
	if a.delay > 0 {
		time.Sleep(a.delay)
	}
	if a.failAt > 0 && a.age+1 == a.failAt {
		return errTick
	}
	a.age++
	return nil
}

func (a *ageAgent) Collect(e sim.Emitter) error {
	return e.Emit("age", sim.Attr{Key: "age", Value: a.age})
}

func ageFactory(delay time.Duration) sim.AgentFactory {
	return func() (sim.Agent, error) { return &ageAgent{delay: delay}, nil }
}

// setupFailing gives the listed replicas agents that fail on tick failAt.
func setupFailing(failAt int, replicas ...int) Setup {
	bad := make(map[int]bool)
	for _, r := range replicas {
		bad[r] = true
	}
	return func(id int) (sim.AgentFactory, error) {
		if !bad[id] {
			return ageFactory(0), nil
		}
		return func() (sim.Agent, error) { return &ageAgent{failAt: failAt}, nil }, nil
	}
}

type panicAgent struct{}

func (panicAgent) Tick() error                 { panic("agent exploded") }
func (panicAgent) Collect(e sim.Emitter) error { return nil }
