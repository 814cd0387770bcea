package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ErrSave is returned when a block was appended but the ledger could not
// be written to storage.
var ErrSave = errors.New("saving ledger")

// =============================================================================

// MineBlock builds a block over the data linked to the current head, solves
// the proof-of-work, appends the block and saves the ledger. Only one
// block is mined at a time and a call waiting its turn returns the
// context's error if it is done first.
func (s *State) MineBlock(ctx context.Context, data string) (database.Block, error) {
	if err := s.lock(ctx); err != nil {
		s.evHandler("state: MineBlock: MINING: CANCELLED: waiting: %s", err)
		return database.Block{}, err
	}
	defer s.unlock()

	s.evHandler("state: MineBlock: MINING: started")
	defer s.evHandler("state: MineBlock: MINING: completed")

	candidate := s.ledger.NextBlock(data)

	s.evHandler("state: MineBlock: MINING: perform POW: blk[%d]", candidate.Index())

	if err := s.mine(ctx, candidate); err != nil {
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		return database.Block{}, ctx.Err()
	}

	if err := s.appendAndSave(candidate); err != nil {
		return *candidate, err
	}

	return *candidate, nil
}

// AppendBlock appends a block that was mined elsewhere and saves the ledger.
func (s *State) AppendBlock(b *database.Block) error {
	s.sem <- struct{}{}
	defer s.unlock()

	return s.appendAndSave(b)
}

// ProposeBlock converts a block mined elsewhere using the ledger's hash
// algorithm, then appends it and saves the ledger.
func (s *State) ProposeBlock(bd database.BlockData) (database.Block, error) {
	block := s.ledger.ToBlock(bd)

	s.evHandler("state: ProposeBlock: blk[%d]: hash[%s]", block.Index(), block.Hash())

	if err := s.AppendBlock(&block); err != nil {
		return block, err
	}

	return block, nil
}

// =============================================================================

// mine performs the proof-of-work using the worker pool if one is configured.
func (s *State) mine(ctx context.Context, b *database.Block) error {
	difficulty := s.ledger.Difficulty()

	if s.miner != nil {
		return s.miner.Mine(ctx, b, difficulty)
	}

	return b.MineContext(ctx, difficulty, s.maxAttempts, s.evHandler)
}

// appendAndSave adds the block to the ledger and writes the ledger to
// storage. A save failure leaves the block in the ledger.
func (s *State) appendAndSave(b *database.Block) error {
	if err := s.ledger.Append(b); err != nil {
		return err
	}

	s.evHandler("state: appendAndSave: write to storage: blk[%d]", b.Index())

	if err := s.ledger.Save(s.storage); err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	return nil
}
