package worker_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/worker"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Mine(t *testing.T) {
	t.Log("Given the need to mine blocks in parallel.")
	{
		for _, workers := range []int{1, 2, 4, 0} {
			m := worker.New(worker.Config{Workers: workers})

			for difficulty := uint(0); difficulty <= 4; difficulty++ {
				l := database.New(difficulty)

				b := l.NextBlock("hello")
				if err := m.Mine(context.Background(), b, difficulty); err != nil {
					t.Fatalf("\t%s\tworkers[%d] difficulty[%d]:\tShould be able to mine: %v", failed, m.Workers(), difficulty, err)
				}

				if !database.IsHashSolved(difficulty, b.Hash()) || b.Hash() != b.ComputeHash() {
					t.Fatalf("\t%s\tworkers[%d] difficulty[%d]:\tShould have a valid sealed hash: %s", failed, m.Workers(), difficulty, b)
				}

				if err := l.Append(b); err != nil {
					t.Fatalf("\t%s\tworkers[%d] difficulty[%d]:\tShould be accepted by the ledger: %v", failed, m.Workers(), difficulty, err)
				}
			}
			t.Logf("\t%s\tworkers[%d]:\tShould mine valid blocks at every difficulty.", success, m.Workers())
		}
	}
}

func Test_MineCancel(t *testing.T) {
	m := worker.New(worker.Config{Workers: 4})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	b := database.NewBlock(1, "hello", "prev")
	err := m.Mine(ctx, b, 64)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Should get a deadline error, got %v", err)
	}

	if b.Sealed() {
		t.Fatalf("Should not seal a cancelled block.")
	}
}

func Test_MineBudget(t *testing.T) {
	var events int64
	m := worker.New(worker.Config{
		Workers:     3,
		MaxAttempts: 1000,
		EvHandler:   func(v string, args ...any) { atomic.AddInt64(&events, 1) },
	})

	b := database.NewBlock(1, "hello", "prev")
	if err := m.Mine(context.Background(), b, 64); !errors.Is(err, database.ErrBudgetExhausted) {
		t.Fatalf("Should get a budget error, got %v", err)
	}

	if b.Sealed() {
		t.Fatalf("Should not seal when the budget runs out.")
	}

	if atomic.LoadInt64(&events) == 0 {
		t.Fatalf("Should report mining events.")
	}

	// A budget smaller than the number of workers still works.
	m = worker.New(worker.Config{Workers: 8, MaxAttempts: 2})
	if err := m.Mine(context.Background(), database.NewBlock(1, "hello", "prev"), 64); !errors.Is(err, database.ErrBudgetExhausted) {
		t.Fatalf("Should get a budget error, got %v", err)
	}
}

func Test_MineSealed(t *testing.T) {
	m := worker.New(worker.Config{Workers: 2})

	b := database.NewBlock(1, "hello", "prev")
	b.Mine(1)
	hash := b.Hash()

	if err := m.Mine(context.Background(), b, 3); err != nil || b.Hash() != hash {
		t.Fatalf("Should leave a sealed block alone, got %v", err)
	}

	if err := m.Mine(context.Background(), nil, 1); !errors.Is(err, database.ErrNilBlock) {
		t.Fatalf("Should reject a nil block, got %v", err)
	}
}

func Test_MineNonceWrap(t *testing.T) {
	const (
		difficulty = 2
		workers    = 4
		start      = math.MaxUint64 - 2
	)

	// Pick data with no solution between start and the largest nonce so
	// the winning nonce has to come from past the wrap.
	var bd database.BlockData
	for i := 0; ; i++ {
		bd = database.BlockData{
			Index:     1,
			Timestamp: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			Data:      fmt.Sprintf("wrap-%d", i),
			Nonce:     start,
			PrevHash:  "prev",
		}

		b := database.ToBlock(bd)
		solved := false
		for n := uint64(start); ; n++ {
			if database.IsHashSolved(difficulty, b.HashAt(n)) {
				solved = true
			}
			if n == math.MaxUint64 {
				break
			}
		}
		if !solved {
			break
		}
	}

	b := database.ToBlock(bd)
	m := worker.New(worker.Config{Workers: workers})
	if err := m.Mine(context.Background(), &b, difficulty); err != nil {
		t.Fatalf("Should be able to mine across the wrap: %v", err)
	}

	if !b.Sealed() {
		t.Fatalf("Should seal the block.")
	}

	if b.Nonce() >= start {
		t.Fatalf("Should find a wrapped nonce, got %d", b.Nonce())
	}

	if b.Hash() != b.ComputeHash() || !database.IsHashSolved(difficulty, b.Hash()) {
		t.Fatalf("Should have a valid hash for the wrapped nonce: %s", b)
	}
}
