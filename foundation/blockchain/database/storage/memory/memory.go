// Package memory implements the ability to read and write the ledger to
// memory.
package memory

import (
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage"
)

// Memory represents the serialization implementation for reading and storing
// the ledger in memory. This implements the database.Storage interface.
type Memory struct {
	mu    sync.RWMutex
	saved bool
	ld    database.LedgerData
	saves int
}

// New constructs a Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Load returns a copy of the last saved ledger. It returns storage.ErrNotFound
// if nothing has been saved.
func (m *Memory) Load() (database.LedgerData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.saved {
		return database.LedgerData{}, storage.ErrNotFound
	}

	return copyData(m.ld), nil
}

// Save stores a copy of the specified ledger.
func (m *Memory) Save(ld database.LedgerData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ld = copyData(ld)
	m.saved = true
	m.saves++

	return nil
}

// Saves returns the number of times the ledger has been saved.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.saves
}

// copyData makes sure callers can't change what is stored.
func copyData(ld database.LedgerData) database.LedgerData {
	chain := make([]database.BlockData, len(ld.Chain))
	copy(chain, ld.Chain)
	ld.Chain = chain

	return ld
}
