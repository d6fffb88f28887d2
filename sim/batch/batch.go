// Package batch runs many independent simulation replicas across a bounded
// set of goroutines and reports how each one ended.
//
// In the default ModeWaves, replicas are partitioned into ceil(Runs/Workers)
// waves. Each wave starts one goroutine per replica and the caller blocks
// until all of them have terminated before the next wave begins. A failing
// replica does not stop its siblings, but once its wave is joined the batch
// stops and Run returns a *ReplicaError. There is no retry and no
// cancellation of a running replica.
package batch

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/agentsim/agentsim/sim"
)

// Setup prepares one replica. It runs inside the replica's goroutine, so any
// expensive per-replica work (loading agent configuration, seeding RNGs) is
// done independently for each replica.
type Setup func(replica int) (sim.AgentFactory, error)

// Runner executes a batch of replicas.
type Runner struct {
	cfg    Config
	setup  Setup
	newEnv sim.EnvironmentFactory
	sink   sim.Sink
	log    *logrus.Entry
	now    func() time.Time
	id     string

	inFlight atomic.Int64
	peak     atomic.Int64
}

// Option configures a Runner.
type Option func(*Runner)

// WithEnvironment sets the environment factory used for every replica.
// The default is sim.NewDefaultEnvironment.
func WithEnvironment(newEnv sim.EnvironmentFactory) Option {
	return func(r *Runner) { r.newEnv = newEnv }
}

// WithSink sets the sink every replica's terminal observe writes to. The sink
// is shared by concurrent replicas and must be safe for concurrent use.
func WithSink(sink sim.Sink) Option {
	return func(r *Runner) { r.sink = sink }
}

// WithLogger sets the logger entry; the batch id is added as a field.
func WithLogger(log *logrus.Entry) Option {
	return func(r *Runner) { r.log = log }
}

// WithClock overrides time.Now for replica timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner validates cfg and returns a Runner.
func NewRunner(cfg Config, setup Setup, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid batch config: %w", err)
	}
	if setup == nil {
		return nil, fmt.Errorf("invalid batch config: setup is nil")
	}
	r := &Runner{
		cfg:    cfg,
		setup:  setup,
		newEnv: sim.NewDefaultEnvironment,
		sink:   sim.Discard,
		log:    logrus.NewEntry(logrus.StandardLogger()),
		now:    time.Now,
		id:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sink == nil {
		r.sink = sim.Discard
	}
	r.log = r.log.WithField("batch", r.id)
	return r, nil
}

// ID returns the batch id attached to logs and the report.
func (r *Runner) ID() string { return r.id }

// Run executes the batch. On failure it returns the report of every replica
// started so far together with the first *ReplicaError.
func (r *Runner) Run() (*Report, error) {
	report := &Report{
		ID:      r.id,
		Config:  r.cfg,
		Workers: r.cfg.WorkerCount(),
		Started: r.now(),
	}
	r.log.Infof("starting batch: %d runs x %d ticks, population %d, %d workers (%s)",
		r.cfg.Runs, r.cfg.Ticks, r.cfg.Population, report.Workers, r.cfg.mode())

	var err error
	switch r.cfg.mode() {
	case ModePool:
		err = r.runPool(report)
	default:
		err = r.runWaves(report)
	}
	report.Finished = r.now()
	report.PeakConcurrency = int(r.peak.Load())

	if err != nil {
		r.log.Errorf("batch failed: %v", err)
		return report, err
	}
	r.log.Infof("batch complete: %d replicas in %v", len(report.Replicas), report.Finished.Sub(report.Started))
	return report, nil
}

func (r *Runner) runWaves(report *Report) error {
	w := report.Workers
	waves := r.cfg.Waves()
	for wave := 0; wave < waves; wave++ {
		lo := wave * w
		hi := min(lo+w, r.cfg.Runs)
		results := make([]ReplicaResult, hi-lo)

		r.log.Debugf("wave %d/%d: replicas %d..%d", wave+1, waves, lo, hi-1)
		var g errgroup.Group
		for id := lo; id < hi; id++ {
			g.Go(func() error {
				results[id-lo] = r.track(id, wave)
				if e := results[id-lo].Err; e != nil {
					return e
				}
				return nil
			})
		}
		joinErr := g.Wait()

		report.Replicas = append(report.Replicas, results...)
		report.Waves++
		if joinErr != nil {
			return firstFailure(results)
		}
	}
	return nil
}

func (r *Runner) runPool(report *Report) error {
	results := make([]ReplicaResult, r.cfg.Runs)
	ran := make([]bool, r.cfg.Runs)

	var failed atomic.Bool
	var g errgroup.Group
	g.SetLimit(report.Workers)
	for id := 0; id < r.cfg.Runs; id++ {
		if failed.Load() {
			break
		}
		g.Go(func() error {
			// The slot may have been freed by a replica that just failed.
			if failed.Load() {
				return nil
			}
			ran[id] = true
			results[id] = r.track(id, 0)
			if e := results[id].Err; e != nil {
				failed.Store(true)
				return e
			}
			return nil
		})
	}
	joinErr := g.Wait()

	for id, ok := range ran {
		if ok {
			report.Replicas = append(report.Replicas, results[id])
		}
	}
	if joinErr != nil {
		return firstFailure(report.Replicas)
	}
	return nil
}

// track runs one replica and maintains the concurrency gauges.
func (r *Runner) track(id, wave int) ReplicaResult {
	n := r.inFlight.Add(1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}
	defer r.inFlight.Add(-1)
	return r.runReplica(id, wave)
}

// RunDefault runs cfg with DefaultEnvironment replicas that all build their
// agents with newAgent and write their terminal observation to sink.
func RunDefault(cfg Config, newAgent sim.AgentFactory, sink sim.Sink) (*Report, error) {
	r, err := NewRunner(cfg, func(int) (sim.AgentFactory, error) { return newAgent, nil }, WithSink(sink))
	if err != nil {
		return nil, err
	}
	return r.Run()
}
