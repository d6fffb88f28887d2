package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// BuildEnvironment builds a population of popSize agents with newAgent, then
// hands it to newEnv. A nil newEnv builds a DefaultEnvironment. Any failure
// is a *ConstructionError and no environment is returned.
func BuildEnvironment(popSize int, newAgent AgentFactory, newEnv EnvironmentFactory) (Environment, error) {
	pop, err := NewPopulation(popSize, newAgent)
	if err != nil {
		return nil, err
	}
	if newEnv == nil {
		newEnv = NewDefaultEnvironment
	}
	env, err := newEnv(pop)
	if err != nil {
		return nil, &ConstructionError{Index: -1, Err: err}
	}
	if env == nil {
		return nil, &ConstructionError{Index: -1, Err: errNilEnv}
	}
	logrus.Debugf("built environment with %d agents", env.Len())
	return env, nil
}

// BuildDefaultEnvironment is BuildEnvironment with a DefaultEnvironment.
func BuildDefaultEnvironment(popSize int, newAgent AgentFactory) (Environment, error) {
	return BuildEnvironment(popSize, newAgent, NewDefaultEnvironment)
}

// Step applies exactly one Tick to env.
func Step(env Environment) error {
	return env.Tick()
}

// StepAndObserve ticks env and then collects it on the same step.
func StepAndObserve(env Environment, sink Sink) error {
	if err := env.Tick(); err != nil {
		return err
	}
	return env.Collect(sink)
}

// Observe collects env once.
func Observe(env Environment, sink Sink) error {
	return env.Collect(sink)
}

// Simulation drives a single replica: one environment, one sink.
//
// Observe is terminal. Once it has been called, successfully or not, every
// further Step, StepAndObserve or Observe returns ErrFinished. Callers that
// want periodic snapshots mid-run use StepAndObserve.
//
// A Simulation is not safe for concurrent use.
type Simulation struct {
	env      Environment
	sink     Sink
	finished bool
}

// NewSimulation wraps env. A nil sink discards every record.
func NewSimulation(env Environment, sink Sink) *Simulation {
	if sink == nil {
		sink = Discard
	}
	return &Simulation{env: env, sink: sink}
}

// Environment returns the driven environment.
func (s *Simulation) Environment() Environment { return s.env }

// Finished reports whether the terminal Observe has run.
func (s *Simulation) Finished() bool { return s.finished }

// Step applies one tick.
func (s *Simulation) Step() error {
	if s.finished {
		return ErrFinished
	}
	return Step(s.env)
}

// StepAndObserve applies one tick and then collects the same step.
func (s *Simulation) StepAndObserve() error {
	if s.finished {
		return ErrFinished
	}
	return StepAndObserve(s.env, s.sink)
}

// Observe performs the terminal collect.
func (s *Simulation) Observe() error {
	if s.finished {
		return ErrFinished
	}
	s.finished = true
	return Observe(s.env, s.sink)
}

// Run performs ticks sequential steps followed by the terminal Observe.
func (s *Simulation) Run(ticks int) error {
	if ticks < 0 {
		return fmt.Errorf("ticks must be >= 0, got %d", ticks)
	}
	for i := 0; i < ticks; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return s.Observe()
}
