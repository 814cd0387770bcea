// Package worker implements a parallel proof-of-work search for mining
// blocks.
package worker

import "runtime"

// Config represents the settings for a Miner.
type Config struct {
	Workers     int
	MaxAttempts uint64
	EvHandler   func(v string, args ...any)
}

// Miner partitions the nonce space across a set of goroutines. The first
// goroutine to find a solution wins and the others are cancelled.
type Miner struct {
	workers     int
	maxAttempts uint64
	evHandler   func(v string, args ...any)
}

// New constructs a Miner. A Workers value of 0 or less uses one goroutine
// per CPU and a MaxAttempts of 0 means the search is unbounded.
func New(cfg Config) *Miner {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	return &Miner{
		workers:     workers,
		maxAttempts: cfg.MaxAttempts,
		evHandler:   ev,
	}
}

// Workers returns the number of goroutines used for a search.
func (m *Miner) Workers() int {
	return m.workers
}

// budget returns the number of attempts the specified worker can make. A
// value of 0 means unbounded.
func (m *Miner) budget(worker int) uint64 {
	if m.maxAttempts == 0 {
		return 0
	}

	n := uint64(m.workers)
	share := m.maxAttempts / n
	if uint64(worker) < m.maxAttempts%n {
		share++
	}

	return share
}

// solution is what a worker reports when it solves the puzzle.
type solution struct {
	worker   int
	nonce    uint64
	hash     string
	attempts uint64
}

