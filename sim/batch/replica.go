package batch

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agentsim/agentsim/sim"
)

// State is a replica's lifecycle position:
// Created → Ticking → Collected → Done, or Failed from any step.
type State int

const (
	StateCreated State = iota
	StateTicking
	StateCollected
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateTicking:
		return "ticking"
	case StateCollected:
		return "collected"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Phase names the part of a replica that failed.
type Phase int

const (
	PhaseConstruct Phase = iota
	PhaseStep
	PhaseCollect
)

func (p Phase) String() string {
	switch p {
	case PhaseConstruct:
		return "construct"
	case PhaseStep:
		return "step"
	case PhaseCollect:
		return "collect"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ReplicaError is a failure inside one batch replica. It is terminal for
// that replica and fails the batch once the replica's wave is joined.
type ReplicaError struct {
	Replica int
	Wave    int
	Phase   Phase
	Err     error
}

func (e *ReplicaError) Error() string {
	return fmt.Sprintf("replica %d (wave %d) failed during %s: %v", e.Replica, e.Wave, e.Phase, e.Err)
}

func (e *ReplicaError) Unwrap() error { return e.Err }

// ReplicaResult records how one replica ended.
type ReplicaResult struct {
	ID       int
	Wave     int
	State    State
	Ticks    int // completed steps
	Started  time.Time
	Finished time.Time
	Err      *ReplicaError // nil unless State == StateFailed
}

// runReplica builds a fresh environment and drives it through Ticks steps and
// the terminal observe. It runs entirely on the calling goroutine and shares
// nothing with other replicas except the immutable config and the sink.
func (r *Runner) runReplica(id, wave int) (res ReplicaResult) {
	res = ReplicaResult{ID: id, Wave: wave, State: StateCreated, Started: r.now()}
	log := r.log.WithFields(logrus.Fields{"replica": id, "wave": wave})

	phase := PhaseConstruct
	fail := func(err error) {
		res.State = StateFailed
		res.Err = &ReplicaError{Replica: id, Wave: wave, Phase: phase, Err: err}
		log.Warnf("replica failed during %s: %v", phase, err)
	}
	defer func() {
		if p := recover(); p != nil {
			fail(fmt.Errorf("panic: %v", p))
		}
		res.Finished = r.now()
	}()

	newAgent, err := r.setup(id)
	if err != nil {
		fail(&sim.ConstructionError{Index: -1, Err: fmt.Errorf("replica setup: %w", err)})
		return res
	}
	env, err := sim.BuildEnvironment(r.cfg.Population, newAgent, r.newEnv)
	if err != nil {
		fail(err)
		return res
	}
	s := sim.NewSimulation(env, sim.WithReplica(r.sink, id))

	phase = PhaseStep
	res.State = StateTicking
	for i := 0; i < r.cfg.Ticks; i++ {
		if err := s.Step(); err != nil {
			fail(err)
			return res
		}
		res.Ticks++
	}

	phase = PhaseCollect
	if err := s.Observe(); err != nil {
		fail(err)
		return res
	}
	res.State = StateCollected
	log.Debugf("replica collected after %d ticks", res.Ticks)

	res.State = StateDone
	return res
}

// firstFailure returns the lowest-id failure among results, or nil.
func firstFailure(results []ReplicaResult) error {
	var first *ReplicaError
	for i := range results {
		e := results[i].Err
		if e != nil && (first == nil || e.Replica < first.Replica) {
			first = e
		}
	}
	if first == nil {
		return nil
	}
	return first
}

// IsReplicaFailure reports whether err carries a *ReplicaError and returns it.
func IsReplicaFailure(err error) (*ReplicaError, bool) {
	var re *ReplicaError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
