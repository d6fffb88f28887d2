// Package sim provides the core agent-based simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - agent.go: the Agent contract and how populations are built
//   - environment.go: the Environment contract and DefaultEnvironment
//   - driver.go: building an environment and driving it step by step
//
// # Architecture
//
// The sim package defines the contracts; implementations and drivers live in
// sub-packages:
//   - sim/batch/: runs many independent replicas across a worker pool, in waves
//   - sim/sinks/: output sinks (text, JSON lines, CSV, in-memory capture)
//   - sim/agents/: ready-made agents (age counter, stock random walk)
//
// # Key Interfaces
//
//   - Agent: Tick advances one step, Collect emits the observable state
//   - Environment: owns a Population; Tick visits every agent exactly once
//   - Sink: destination for the records emitted during Collect
//
// Agents never reference their siblings and no agent is shared between
// environments, so a replica needs no locking while it runs.
package sim
