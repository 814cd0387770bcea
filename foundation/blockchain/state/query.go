package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// =============================================================================

// QueryBlocks returns all the blocks in the chain.
func (s *State) QueryBlocks() []database.Block {
	return s.ledger.Blocks()
}

// QueryBlockByIndex returns the block at the specified index. Use
// QueryLatest to get the head of the chain.
func (s *State) QueryBlockByIndex(index uint64) (database.Block, error) {
	if index == QueryLatest {
		return s.ledger.Head(), nil
	}

	return s.ledger.Block(index)
}

// QueryBlocksByIndex returns the set of blocks between from and to inclusive.
// Indexes past the head are ignored.
func (s *State) QueryBlocksByIndex(from uint64, to uint64) []database.Block {
	blocks := s.ledger.Blocks()
	head := uint64(len(blocks) - 1)

	if from == QueryLatest {
		from = head
	}
	if to == QueryLatest || to > head {
		to = head
	}
	if from > to {
		return nil
	}

	return blocks[from : to+1]
}

// Validate walks the entire chain and returns the first failure.
func (s *State) Validate() error {
	s.evHandler("state: Validate: started")
	defer s.evHandler("state: Validate: completed")

	return s.ledger.Validate()
}
