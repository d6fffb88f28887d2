package sim

// Agent is a unit of local, mutable state advanced in discrete steps.
//
// Tick advances the agent by exactly one time unit. Collect emits the agent's
// currently observable state through the emitter and must not change it.
// Agents never observe or reference sibling agents.
type Agent interface {
	Tick() error
	Collect(e Emitter) error
}

// AgentFactory constructs a new agent. A factory that fails returns no agent.
type AgentFactory func() (Agent, error)

// Population is the ordered set of agents owned by exactly one Environment.
type Population []Agent

// NewPopulation calls newAgent exactly size times and returns the agents in
// construction order. The first failure aborts the build and no agents are
// returned. newAgent may be nil when size is zero.
func NewPopulation(size int, newAgent AgentFactory) (Population, error) {
	if size < 0 {
		return nil, &ConstructionError{Index: -1, Err: errNegativePopulation(size)}
	}
	if newAgent == nil && size > 0 {
		return nil, &ConstructionError{Index: -1, Err: errNilFactory}
	}
	pop := make(Population, 0, size)
	for i := 0; i < size; i++ {
		agent, err := newAgent()
		if err != nil {
			return nil, &ConstructionError{Index: i, Err: err}
		}
		if agent == nil {
			return nil, &ConstructionError{Index: i, Err: errNilAgent}
		}
		pop = append(pop, agent)
	}
	return pop, nil
}
