package memory_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/memory"
)

func Test_Memory(t *testing.T) {
	m := memory.New()

	if _, err := m.Load(); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Should get ErrNotFound before a save, got %v", err)
	}

	l := database.New(1)
	if err := l.Save(m); err != nil {
		t.Fatalf("Should be able to save: %v", err)
	}

	ld, err := m.Load()
	if err != nil {
		t.Fatalf("Should be able to load: %v", err)
	}

	// Changing the loaded copy must not change what is stored.
	ld.Chain[0].Data = "changed"

	got, err := database.Load(m, nil)
	if err != nil {
		t.Fatalf("Should be able to load: %v", err)
	}
	if got.Head().Data() != database.GenesisData || !got.IsValid() {
		t.Fatalf("Should return an independent copy.")
	}

	if m.Saves() != 1 {
		t.Fatalf("Should count saves, got %d", m.Saves())
	}
}
