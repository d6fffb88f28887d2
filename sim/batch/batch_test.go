package batch

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentsim/agentsim/sim"
	"github.com/agentsim/agentsim/sim/sinks"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zero value", Config{}, false},
		{"typical", Config{Population: 10, Ticks: 100, Runs: 8, Workers: 4, Mode: ModeWaves}, false},
		{"pool", Config{Runs: 1, Mode: ModePool}, false},
		{"negative population", Config{Population: -1}, true},
		{"negative ticks", Config{Ticks: -1}, true},
		{"negative runs", Config{Runs: -1}, true},
		{"unknown mode", Config{Mode: "fifo"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Waves(t *testing.T) {
	tests := []struct {
		runs, workers, want int
	}{
		{100, 4, 25},
		{101, 4, 26},
		{3, 4, 1},
		{0, 4, 0},
		{1, 1, 1},
	}
	for _, tt := range tests {
		cfg := Config{Runs: tt.runs, Workers: tt.workers}
		assert.Equal(t, tt.want, cfg.Waves(), "runs=%d workers=%d", tt.runs, tt.workers)
	}
}

func TestConfig_DefaultWorkers(t *testing.T) {
	assert.GreaterOrEqual(t, Config{}.WorkerCount(), 1)
	assert.Equal(t, 3, Config{Workers: 3}.WorkerCount())
}

func TestNewRunner_Rejects(t *testing.T) {
	_, err := NewRunner(Config{Runs: -1}, setupFailing(0))
	assert.Error(t, err)

	_, err = NewRunner(Config{Runs: 1}, nil)
	assert.Error(t, err)
}

func TestRun_HundredRunsFourWorkers(t *testing.T) {
	cfg := Config{Population: 2, Ticks: 1, Runs: 100, Workers: 4}
	r, err := NewRunner(cfg, func(int) (sim.AgentFactory, error) {
		return ageFactory(3 * time.Millisecond), nil
	})
	require.NoError(t, err)

	report, err := r.Run()
	require.NoError(t, err)

	assert.Equal(t, 25, report.Waves)
	assert.Len(t, report.Replicas, 100)
	assert.Equal(t, 100, report.Count(StateDone))
	assert.LessOrEqual(t, report.PeakConcurrency, 4)
	assert.Greater(t, report.PeakConcurrency, 1)

	waves := report.ByWave()
	require.Len(t, waves, 25)
	var prevEnd time.Time
	for w, wave := range waves {
		require.Len(t, wave, 4, "wave %d", w)

		var latestStart, earliestEnd, latestEnd time.Time
		for i, rep := range wave {
			assert.Equal(t, w*4+i, rep.ID)
			assert.Equal(t, w, rep.Wave)
			if latestStart.IsZero() || rep.Started.After(latestStart) {
				latestStart = rep.Started
			}
			if earliestEnd.IsZero() || rep.Finished.Before(earliestEnd) {
				earliestEnd = rep.Finished
			}
			if rep.Finished.After(latestEnd) {
				latestEnd = rep.Finished
			}
		}
		// Replicas in a wave overlap in time.
		assert.True(t, latestStart.Before(earliestEnd), "wave %d ran sequentially", w)
		// Waves do not overlap each other.
		for _, rep := range wave {
			assert.False(t, rep.Started.Before(prevEnd), "wave %d started before wave %d ended", w, w-1)
		}
		prevEnd = latestEnd
	}
}

func TestRun_ObservesEveryReplica(t *testing.T) {
	sink := sinks.NewMemory()
	cfg := Config{Population: 10, Ticks: 100, Runs: 6, Workers: 4}

	report, err := RunDefault(cfg, ageFactory(0), sink)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Waves)
	assert.Equal(t, 60, sink.Len())

	for id := 0; id < 6; id++ {
		recs := sink.ForReplica(id)
		require.Len(t, recs, 10, "replica %d", id)
		for i, rec := range recs {
			assert.Equal(t, i, rec.Index)
			assert.Equal(t, 100, rec.Step)
			age, _ := rec.Value("age")
			assert.Equal(t, 100, age)
		}
	}
	for _, rep := range report.Replicas {
		assert.Equal(t, 100, rep.Ticks)
	}
}

func TestRun_FailureOnStepSevenOfTen(t *testing.T) {
	cfg := Config{Population: 3, Ticks: 10, Runs: 4, Workers: 4}
	r, err := NewRunner(cfg, setupFailing(7, 2))
	require.NoError(t, err)

	report, err := r.Run()
	require.Error(t, err)

	re, ok := IsReplicaFailure(err)
	require.True(t, ok)
	assert.Equal(t, 2, re.Replica)
	assert.Equal(t, 0, re.Wave)
	assert.Equal(t, PhaseStep, re.Phase)
	var stepErr *sim.StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 7, stepErr.Step)
	assert.ErrorIs(t, err, errTick)

	require.Len(t, report.Replicas, 4)
	for _, rep := range report.Replicas {
		if rep.ID == 2 {
			assert.Equal(t, StateFailed, rep.State)
			assert.Equal(t, 6, rep.Ticks)
			continue
		}
		assert.Equal(t, StateDone, rep.State, "sibling replica %d", rep.ID)
		assert.Nil(t, rep.Err)
	}
}

func TestRun_FailureStopsLaterWaves(t *testing.T) {
	var setups atomic.Int32
	setup := func(id int) (sim.AgentFactory, error) {
		setups.Add(1)
		return setupFailing(1, 1)(id)
	}
	r, err := NewRunner(Config{Population: 1, Ticks: 2, Runs: 8, Workers: 2}, setup)
	require.NoError(t, err)

	report, err := r.Run()
	require.Error(t, err)
	assert.Equal(t, 1, report.Waves)
	assert.Len(t, report.Replicas, 2)
	assert.Equal(t, int32(2), setups.Load(), "no replica of a later wave may start")
}

func TestRun_LowestFailingReplicaReported(t *testing.T) {
	r, err := NewRunner(Config{Population: 1, Ticks: 3, Runs: 4, Workers: 4}, setupFailing(2, 3, 1))
	require.NoError(t, err)

	report, err := r.Run()
	re, ok := IsReplicaFailure(err)
	require.True(t, ok)
	assert.Equal(t, 1, re.Replica)
	assert.Len(t, report.Failures(), 2)
}

func TestRun_SetupFailureIsConstruction(t *testing.T) {
	setup := func(id int) (sim.AgentFactory, error) {
		if id == 0 {
			return nil, assert.AnError
		}
		return ageFactory(0), nil
	}
	r, err := NewRunner(Config{Population: 1, Ticks: 1, Runs: 2, Workers: 2}, setup)
	require.NoError(t, err)

	report, err := r.Run()
	re, ok := IsReplicaFailure(err)
	require.True(t, ok)
	assert.Equal(t, PhaseConstruct, re.Phase)
	var ce *sim.ConstructionError
	assert.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "replica setup")
	assert.Equal(t, StateDone, report.Replicas[1].State)
}

func TestRun_AgentConstructionFailure(t *testing.T) {
	calls := 0
	setup := func(int) (sim.AgentFactory, error) {
		return func() (sim.Agent, error) {
			calls++
			if calls == 3 {
				return nil, assert.AnError
			}
			return &ageAgent{}, nil
		}, nil
	}
	r, err := NewRunner(Config{Population: 5, Ticks: 1, Runs: 1, Workers: 1}, setup)
	require.NoError(t, err)

	report, err := r.Run()
	re, ok := IsReplicaFailure(err)
	require.True(t, ok)
	assert.Equal(t, PhaseConstruct, re.Phase)
	assert.Equal(t, StateFailed, report.Replicas[0].State)
	assert.Equal(t, 0, report.Replicas[0].Ticks)
}

func TestRun_CollectFailure(t *testing.T) {
	sink := sim.SinkFunc(func(rec sim.Record) error {
		if rec.Replica == 1 {
			return assert.AnError
		}
		return nil
	})
	r, err := NewRunner(Config{Population: 2, Ticks: 4, Runs: 3, Workers: 3}, setupFailing(0), WithSink(sink))
	require.NoError(t, err)

	report, err := r.Run()
	re, ok := IsReplicaFailure(err)
	require.True(t, ok)
	assert.Equal(t, PhaseCollect, re.Phase)
	var ce *sim.CollectError
	assert.ErrorAs(t, err, &ce)
	assert.Equal(t, 4, report.Replicas[1].Ticks)
	assert.Equal(t, 2, report.Count(StateDone))
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	setup := func(id int) (sim.AgentFactory, error) {
		if id == 0 {
			return func() (sim.Agent, error) { return panicAgent{}, nil }, nil
		}
		return ageFactory(0), nil
	}
	r, err := NewRunner(Config{Population: 1, Ticks: 1, Runs: 2, Workers: 2}, setup)
	require.NoError(t, err)

	report, err := r.Run()
	re, ok := IsReplicaFailure(err)
	require.True(t, ok)
	assert.Equal(t, PhaseStep, re.Phase)
	assert.Contains(t, err.Error(), "agent exploded")
	assert.False(t, report.Replicas[0].Finished.IsZero())
	assert.Equal(t, StateDone, report.Replicas[1].State)
}

func TestRun_ZeroRuns(t *testing.T) {
	r, err := NewRunner(Config{Population: 1, Ticks: 1, Workers: 2}, setupFailing(0))
	require.NoError(t, err)

	report, err := r.Run()
	require.NoError(t, err)
	assert.Empty(t, report.Replicas)
	assert.Equal(t, 0, report.Waves)
}

func TestRun_CustomEnvironmentAndClock(t *testing.T) {
	var built atomic.Int32
	newEnv := func(pop sim.Population) (sim.Environment, error) {
		built.Add(1)
		return sim.NewDefaultEnvironment(pop)
	}
	tick := time.Unix(0, 0)
	var calls atomic.Int64
	clock := func() time.Time { return tick.Add(time.Duration(calls.Add(1))) }

	r, err := NewRunner(Config{Population: 1, Ticks: 1, Runs: 5, Workers: 2}, setupFailing(0),
		WithEnvironment(newEnv), WithClock(clock))
	require.NoError(t, err)

	report, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, int32(5), built.Load())
	assert.Equal(t, 3, report.Waves)
	assert.True(t, report.Duration() > 0)
	assert.NotEmpty(t, r.ID())
	assert.Equal(t, r.ID(), report.ID)
}

func TestRun_PoolMode(t *testing.T) {
	sink := sinks.NewMemory()
	cfg := Config{Population: 2, Ticks: 3, Runs: 20, Workers: 3, Mode: ModePool}
	r, err := NewRunner(cfg, func(int) (sim.AgentFactory, error) {
		return ageFactory(time.Millisecond), nil
	}, WithSink(sink))
	require.NoError(t, err)

	report, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, report.Waves)
	assert.Equal(t, 20, report.Count(StateDone))
	assert.LessOrEqual(t, report.PeakConcurrency, 3)
	assert.Equal(t, 40, sink.Len())
	for i, rep := range report.Replicas {
		assert.Equal(t, i, rep.ID)
	}
}

func TestRun_PoolModeStopsFeedingAfterFailure(t *testing.T) {
	// One worker: replica 0 holds the only slot while it fails slowly, and the
	// next replica must not start once the slot is released.
	var setups atomic.Int32
	setup := func(id int) (sim.AgentFactory, error) {
		setups.Add(1)
		if id == 0 {
			time.Sleep(20 * time.Millisecond)
			return nil, assert.AnError
		}
		return ageFactory(0), nil
	}
	cfg := Config{Population: 1, Ticks: 2, Runs: 5, Workers: 1, Mode: ModePool}
	r, err := NewRunner(cfg, setup)
	require.NoError(t, err)

	report, err := r.Run()
	re, ok := IsReplicaFailure(err)
	require.True(t, ok)
	assert.Equal(t, 0, re.Replica)
	assert.Equal(t, int32(1), setups.Load(), "no replica may start after the failure")
	require.Len(t, report.Replicas, 1)
	assert.Equal(t, StateFailed, report.Replicas[0].State)
}

func TestStateAndPhaseStrings(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "ticking", StateTicking.String())
	assert.Equal(t, "collected", StateCollected.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.Equal(t, "construct", PhaseConstruct.String())
	assert.Equal(t, "step", PhaseStep.String())
	assert.Equal(t, "collect", PhaseCollect.String())
}
