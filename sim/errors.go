package sim

import (
	"errors"
	"fmt"
)

// ErrFinished is returned by a Simulation once its terminal Observe has run.
var ErrFinished = errors.New("simulation already observed")

var (
	errNilFactory = errors.New("agent factory is nil")
	errNilAgent   = errors.New("agent factory returned a nil agent")
	errNilEnv     = errors.New("environment factory returned a nil environment")
)

func errNegativePopulation(size int) error {
	return fmt.Errorf("population size must be >= 0, got %d", size)
}

// ConstructionError reports a failed agent or environment generation.
// Index is the 0-based agent construction call that failed, or -1 when the
// environment itself (or the build parameters) failed.
type ConstructionError struct {
	Index int
	Err   error
}

func (e *ConstructionError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("constructing environment: %v", e.Err)
	}
	return fmt.Sprintf("constructing agent %d: %v", e.Index, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// StepError reports an agent Tick failure. Step is the environment step that
// was in progress; Index is the agent's position in the population.
type StepError struct {
	Step  int
	Index int
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d: agent %d tick: %v", e.Step, e.Index, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// CollectError reports an agent Collect failure, including sink write
// failures.
type CollectError struct {
	Step  int
	Index int
	Err   error
}

func (e *CollectError) Error() string {
	return fmt.Sprintf("step %d: agent %d collect: %v", e.Step, e.Index, e.Err)
}

func (e *CollectError) Unwrap() error { return e.Err }
