package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// The engine imposes no seeding strategy. PartitionedRNG is offered to
// callers that want reproducible, independent streams per replica.

// SubsystemAgents is the RNG subsystem agents draw from inside a replica.
const SubsystemAgents = "agents"

// SubsystemReplica returns the subsystem name for replica N.
func SubsystemReplica(id int) string {
	return fmt.Sprintf("replica_%d", id)
}

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation: each subsystem gets a PCG stream seeded with
// (masterSeed, fnv1a64(subsystemName)).
//
// Thread-safety: NOT thread-safe. Give each replica goroutine its own
// PartitionedRNG (see ForReplica).
type PartitionedRNG struct {
	seed       uint64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       uint64(seed),
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForReplica returns a fresh PartitionedRNG whose master seed is derived from
// this one and the replica id. Two replicas never share a stream.
func ForReplica(seed int64, replica int) *PartitionedRNG {
	return NewPartitionedRNG(seed ^ fnv1a64(SubsystemReplica(replica)))
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewPCG(p.seed, uint64(fnv1a64(name))))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed.
func (p *PartitionedRNG) Seed() int64 {
	return int64(p.seed)
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
