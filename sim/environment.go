package sim

// Environment owns a Population and advances it in discrete steps.
//
// Tick applies one step to every agent, each exactly once; the first agent
// failure stops the step and is returned as a *StepError, leaving every agent
// owned by the environment. Collect calls Collect on every agent in
// population order and returns the first failure as a *CollectError.
//
// AddAgent and AddAgents are setup operations. They must not run concurrently
// with Tick or Collect on the same environment, and never add a nil agent.
type Environment interface {
	Tick() error
	Collect(sink Sink) error
	AddAgent(agent Agent)
	AddAgents(agents ...Agent)
	// Len returns the population size.
	Len() int
	// Steps returns the number of completed steps.
	Steps() int
}

// EnvironmentFactory takes ownership of an already-built population.
// On failure the population is discarded.
type EnvironmentFactory func(pop Population) (Environment, error)

// DefaultEnvironment is an Environment with no behavior beyond the contract:
// it holds a population and counts completed steps.
type DefaultEnvironment struct {
	population Population
	steps      int
}

// NewDefaultEnvironment is the EnvironmentFactory for DefaultEnvironment.
func NewDefaultEnvironment(pop Population) (Environment, error) {
	return &DefaultEnvironment{population: pop}, nil
}

// Tick mutates each agent in place by index. The slice is owned by this
// environment alone, so every agent has exclusive access during its own tick.
func (d *DefaultEnvironment) Tick() error {
	for i, agent := range d.population {
		if err := agent.Tick(); err != nil {
			return &StepError{Step: d.steps + 1, Index: i, Err: err}
		}
	}
	d.steps++
	return nil
}

// Collect emits every agent's state to sink in population order.
func (d *DefaultEnvironment) Collect(sink Sink) error {
	if sink == nil {
		sink = Discard
	}
	for i, agent := range d.population {
		if err := agent.Collect(recordEmitter{sink: sink, step: d.steps, index: i}); err != nil {
			return &CollectError{Step: d.steps, Index: i, Err: err}
		}
	}
	return nil
}

// AddAgent appends agent to the population. A nil agent is ignored.
func (d *DefaultEnvironment) AddAgent(agent Agent) {
	if agent == nil {
		return
	}
	d.population = append(d.population, agent)
}

// AddAgents appends agents in order, skipping nil entries.
func (d *DefaultEnvironment) AddAgents(agents ...Agent) {
	for _, agent := range agents {
		d.AddAgent(agent)
	}
}

func (d *DefaultEnvironment) Len() int { return len(d.population) }

func (d *DefaultEnvironment) Steps() int { return d.steps }
