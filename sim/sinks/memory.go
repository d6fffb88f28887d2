// Package sinks provides sim.Sink implementations. Every sink here is safe
// for concurrent use, so one sink can be shared by all replicas of a batch.
package sinks

import (
	"sync"

	"github.com/agentsim/agentsim/sim"
)

// Memory captures records in memory.
type Memory struct {
	mu      sync.Mutex
	records []sim.Record
}

// NewMemory creates an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{records: make([]sim.Record, 0)}
}

// Write appends rec.
func (m *Memory) Write(rec sim.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// Records returns a copy of the captured records in arrival order.
func (m *Memory) Records() []sim.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sim.Record, len(m.records))
	copy(out, m.records)
	return out
}

// ForReplica returns the captured records of one replica in arrival order.
func (m *Memory) ForReplica(id int) []sim.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []sim.Record
	for _, r := range m.records {
		if r.Replica == id {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of captured records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
