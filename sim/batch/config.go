package batch

import (
	"fmt"
	"runtime"
)

// Mode selects how replicas are fed to workers.
type Mode string

const (
	// ModeWaves runs ceil(Runs/Workers) sequential waves of up to Workers
	// concurrent replicas, with a barrier between waves.
	ModeWaves Mode = "waves"
	// ModePool keeps up to Workers replicas running at all times, starting
	// the next replica as soon as one finishes. There are no wave boundaries.
	ModePool Mode = "pool"
)

// validModes maps accepted mode strings.
var validModes = map[Mode]bool{
	ModeWaves: true,
	ModePool:  true,
	"":        true, // empty defaults to waves
}

// IsValidMode returns true if the given string is a recognized mode.
func IsValidMode(mode string) bool {
	return validModes[Mode(mode)]
}

// Config holds the immutable batch parameters shared by every replica.
type Config struct {
	Population int  `yaml:"population"` // agents built per replica
	Ticks      int  `yaml:"ticks"`      // steps per replica before the terminal observe
	Runs       int  `yaml:"runs"`       // number of replicas
	Workers    int  `yaml:"workers"`    // concurrent replicas; <= 0 means GOMAXPROCS
	Mode       Mode `yaml:"mode"`
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Population < 0 {
		return fmt.Errorf("population must be >= 0, got %d", c.Population)
	}
	if c.Ticks < 0 {
		return fmt.Errorf("ticks must be >= 0, got %d", c.Ticks)
	}
	if c.Runs < 0 {
		return fmt.Errorf("runs must be >= 0, got %d", c.Runs)
	}
	if !IsValidMode(string(c.Mode)) {
		return fmt.Errorf("unknown mode %q; valid: waves, pool", c.Mode)
	}
	return nil
}

// WorkerCount returns the effective number of workers.
func (c Config) WorkerCount() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

// Waves returns ceil(Runs / WorkerCount()), the number of waves a full
// ModeWaves batch executes.
func (c Config) Waves() int {
	w := c.WorkerCount()
	return (c.Runs + w - 1) / w
}

func (c Config) mode() Mode {
	if c.Mode == "" {
		return ModeWaves
	}
	return c.Mode
}
