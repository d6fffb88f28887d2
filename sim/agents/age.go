// Package agents provides ready-made sim.Agent implementations.
package agents

import "github.com/agentsim/agentsim/sim"

// Age counts the steps it has lived through.
type Age struct {
	Years int
}

// NewAge is a sim.AgentFactory for Age agents starting at zero.
func NewAge() (sim.Agent, error) {
	return &Age{}, nil
}

func (a *Age) Tick() error {
	a.Years++
	return nil
}

func (a *Age) Collect(e sim.Emitter) error {
	return e.Emit("age", sim.Attr{Key: "age", Value: a.Years})
}
