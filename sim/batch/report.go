package batch

import (
	"sort"
	"time"
)

// Report summarizes a batch run.
type Report struct {
	ID              string
	Config          Config
	Workers         int
	Waves           int // waves executed; 0 in ModePool
	PeakConcurrency int // most replicas observed running at once
	Started         time.Time
	Finished        time.Time
	Replicas        []ReplicaResult // started replicas, in id order
}

// Count returns the number of replicas in state s.
func (r *Report) Count(s State) int {
	n := 0
	for _, rep := range r.Replicas {
		if rep.State == s {
			n++
		}
	}
	return n
}

// Failures returns the failed replicas in id order.
func (r *Report) Failures() []ReplicaResult {
	var out []ReplicaResult
	for _, rep := range r.Replicas {
		if rep.State == StateFailed {
			out = append(out, rep)
		}
	}
	return out
}

// ByWave groups replicas by wave index, in wave order.
func (r *Report) ByWave() [][]ReplicaResult {
	groups := make(map[int][]ReplicaResult)
	for _, rep := range r.Replicas {
		groups[rep.Wave] = append(groups[rep.Wave], rep)
	}
	waves := make([]int, 0, len(groups))
	for w := range groups {
		waves = append(waves, w)
	}
	sort.Ints(waves)

	out := make([][]ReplicaResult, 0, len(waves))
	for _, w := range waves {
		out = append(out, groups[w])
	}
	return out
}

// Duration returns the wall-clock duration of the batch.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
