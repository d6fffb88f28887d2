package sim

import (
	"errors"
	"fmt"
)

var errBoom = errors.New("boom")

// counterAgent increments Age on every tick and fails on tick FailAt (1-based)
// when FailAt > 0.
type counterAgent struct {
	Age    int
	FailAt int
}

func (c *counterAgent) Tick() error {
	if c.FailAt > 0 && c.Age+1 == c.FailAt {
		return errBoom
	}
	c.Age++
	return nil
}

func (c *counterAgent) Collect(e Emitter) error {
	return e.Emit("counter", Attr{Key: "age", Value: c.Age})
}

func newCounter() (Agent, error) { return &counterAgent{}, nil }

// failingFactory succeeds k-1 times and fails on the k-th call.
func failingFactory(k int, built *int) AgentFactory {
	calls := 0
	return func() (Agent, error) {
		calls++
		if calls == k {
			return nil, fmt.Errorf("bad parameters on call %d", calls)
		}
		*built++
		return &counterAgent{}, nil
	}
}

// counters returns the default environment's agents as counters.
func counters(t interface{ Fatalf(string, ...any) }, env Environment) []*counterAgent {
	d, ok := env.(*DefaultEnvironment)
	if !ok {
		t.Fatalf("environment is %T, want *DefaultEnvironment", env)
	}
	out := make([]*counterAgent, len(d.population))
	for i, a := range d.population {
		out[i] = a.(*counterAgent)
	}
	return out
}
