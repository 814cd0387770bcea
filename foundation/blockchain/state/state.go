// Package state is the core API for the ledger and implements the workflow
// of mining, appending and persisting blocks.
package state

import (
	"context"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
)

// EventHandler defines a function that is called when events
// occur in the processing of mining and persisting blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start the ledger.
// A Workers value of 0 mines on the calling goroutine. A MaxAttempts
// value of 0 means mining is unbounded.
type Config struct {
	Genesis     genesis.Genesis
	Storage     database.Storage
	Workers     int
	MaxAttempts uint64
	EvHandler   EventHandler
}

// State manages the ledger and its storage. Requests that change the
// ledger are serialized, so a block is mined over the head it was built on.
type State struct {
	sem chan struct{}

	ledger      *database.Ledger
	storage     database.Storage
	miner       *worker.Miner
	maxAttempts uint64
	evHandler   EventHandler
	loadErr     error
}

// New constructs the state by loading the ledger from storage. If the ledger
// can't be loaded a new ledger is constructed from the genesis settings.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	ledger, loadErr := database.Load(cfg.Storage, ev)
	if loadErr != nil {
		ev("state: New: load failed: starting new ledger: %s", loadErr)

		var err error
		ledger, err = database.NewWithConfig(database.Config{
			Difficulty:  cfg.Genesis.Difficulty,
			Algorithm:   cfg.Genesis.Algorithm,
			GenesisData: cfg.Genesis.Data,
			GenesisTime: cfg.Genesis.Date,
			EvHandler:   ev,
		})
		if err != nil {
			return nil, err
		}
	}

	var miner *worker.Miner
	if cfg.Workers > 0 {
		miner = worker.New(worker.Config{
			Workers:     cfg.Workers,
			MaxAttempts: cfg.MaxAttempts,
			EvHandler:   ev,
		})
	}

	state := State{
		sem:         make(chan struct{}, 1),
		ledger:      ledger,
		storage:     cfg.Storage,
		miner:       miner,
		maxAttempts: cfg.MaxAttempts,
		evHandler:   ev,
		loadErr:     loadErr,
	}

	ev("state: New: ledger ready: blocks[%d] difficulty[%d] algorithm[%s]", ledger.Len(), ledger.Difficulty(), ledger.Algorithm())

	return &state, nil
}

// LoadError returns the reason the ledger could not be loaded from storage
// when the state started, or nil if it was loaded.
func (s *State) LoadError() error {
	return s.loadErr
}

// Ledger returns the ledger being managed.
func (s *State) Ledger() *database.Ledger {
	return s.ledger
}

// Save writes the ledger to storage.
func (s *State) Save() error {
	s.sem <- struct{}{}
	defer s.unlock()

	return s.ledger.Save(s.storage)
}

// =============================================================================

// lock waits for the right to change the ledger. A caller that is queued
// behind a long mining run gives up when its context is done.
func (s *State) lock(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	// Both cases can be ready at once, so check again.
	if err := ctx.Err(); err != nil {
		s.unlock()
		return err
	}

	return nil
}

// unlock releases the right taken by lock.
func (s *State) unlock() {
	<-s.sem
}
