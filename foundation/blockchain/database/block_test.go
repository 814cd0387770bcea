package database_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var fixedTime = time.Date(2024, time.March, 1, 12, 30, 45, 123456789, time.UTC)

// =============================================================================

func Test_ComputeHashDeterminism(t *testing.T) {
	t.Log("Given the need to hash a block deterministically.")
	{
		b1 := database.NewBlock(1, "hello", "abc", database.WithTimestamp(fixedTime))
		b2 := database.NewBlock(1, "hello", "abc", database.WithTimestamp(fixedTime))

		h := b1.ComputeHash()
		for i := 0; i < 5; i++ {
			if got := b1.ComputeHash(); got != h {
				t.Fatalf("\t%s\tShould get the same hash on every call: got %s, exp %s", failed, got, h)
			}
		}
		t.Logf("\t%s\tShould get the same hash on every call.", success)

		if b2.ComputeHash() != h {
			t.Fatalf("\t%s\tShould get the same hash for identical fields.", failed)
		}
		t.Logf("\t%s\tShould get the same hash for identical fields.", success)

		if b1.HashAt(1) == h {
			t.Fatalf("\t%s\tShould get a different hash for a different nonce.", failed)
		}
		t.Logf("\t%s\tShould get a different hash for a different nonce.", success)

		if len(h) != 64 || strings.ToLower(h) != h {
			t.Fatalf("\t%s\tShould get a 64 character lowercase hex hash: %s", failed, h)
		}
		t.Logf("\t%s\tShould get a 64 character lowercase hex hash.", success)
	}
}

func Test_ComputeHashFieldBoundaries(t *testing.T) {
	t.Log("Given the need to avoid collisions between different field values.")
	{
		// With plain concatenation both blocks hash "...a10prev".
		b1 := database.NewBlock(1, "a1", "prev", database.WithTimestamp(fixedTime))
		b2 := database.NewBlock(1, "a", "prev", database.WithTimestamp(fixedTime))

		if b1.HashAt(0) == b2.HashAt(10) {
			t.Fatalf("\t%s\tShould get different hashes when bytes move between data and nonce.", failed)
		}
		t.Logf("\t%s\tShould get different hashes when bytes move between data and nonce.", success)

		// With plain concatenation both blocks hash "...a12x".
		b3 := database.NewBlock(1, "a", "2x", database.WithTimestamp(fixedTime))
		b4 := database.NewBlock(1, "a", "x", database.WithTimestamp(fixedTime))

		if b3.HashAt(1) == b4.HashAt(12) {
			t.Fatalf("\t%s\tShould get different hashes when digits move between nonce and prev_hash.", failed)
		}
		t.Logf("\t%s\tShould get different hashes when digits move between nonce and prev_hash.", success)
	}
}

func Test_Mine(t *testing.T) {
	datas := []string{"", "hello", "a longer payload with spaces", "ünïcödé"}

	t.Log("Given the need to mine blocks at different difficulties.")
	{
		for difficulty := uint(0); difficulty <= 4; difficulty++ {
			for _, data := range datas {
				b := database.NewBlock(1, data, "prev")
				if b.Sealed() {
					t.Fatalf("\t%s\tShould not be sealed before mining.", failed)
				}

				b.Mine(difficulty)

				if !strings.HasPrefix(b.Hash(), strings.Repeat("0", int(difficulty))) {
					t.Fatalf("\t%s\tdifficulty[%d]:\tShould have %d leading zeros: %s", failed, difficulty, difficulty, b.Hash())
				}

				if b.Hash() != b.ComputeHash() {
					t.Fatalf("\t%s\tdifficulty[%d]:\tShould have a hash that matches the fields.", failed, difficulty)
				}

				if !b.Sealed() {
					t.Fatalf("\t%s\tdifficulty[%d]:\tShould be sealed after mining.", failed, difficulty)
				}
			}
			t.Logf("\t%s\tdifficulty[%d]:\tShould mine a valid hash for every payload.", success, difficulty)
		}
	}
}

func Test_MineSealedIsNoop(t *testing.T) {
	b := database.NewBlock(1, "hello", "prev")
	b.Mine(1)

	nonce, hash := b.Nonce(), b.Hash()
	b.Mine(3)

	if b.Nonce() != nonce || b.Hash() != hash {
		t.Fatalf("Should not change a sealed block when mining again.")
	}

	if err := b.Seal(nonce+1, 0); !errors.Is(err, database.ErrSealed) {
		t.Fatalf("Should not be able to seal a sealed block, got %v", err)
	}
}

func Test_MineContext(t *testing.T) {
	t.Log("Given the need to mine with cancellation and a budget.")
	{
		b := database.NewBlock(1, "hello", "prev")
		if err := b.MineContext(context.Background(), 2, 0, nil); err != nil {
			t.Fatalf("\t%s\tShould be able to mine: %v", failed, err)
		}
		if !database.IsHashSolved(2, b.Hash()) || b.Hash() != b.ComputeHash() {
			t.Fatalf("\t%s\tShould be able to mine a valid block.", failed)
		}
		t.Logf("\t%s\tShould be able to mine a valid block.", success)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		b = database.NewBlock(1, "hello", "prev")
		if err := b.MineContext(ctx, 64, 0, nil); !errors.Is(err, context.Canceled) {
			t.Fatalf("\t%s\tShould get a cancelled error: %v", failed, err)
		}
		if b.Sealed() {
			t.Fatalf("\t%s\tShould not seal a cancelled block.", failed)
		}
		t.Logf("\t%s\tShould stop when the context is cancelled.", success)

		var events int
		ev := func(v string, args ...any) { events++ }

		b = database.NewBlock(1, "hello", "prev")
		if err := b.MineContext(context.Background(), 64, 1000, ev); !errors.Is(err, database.ErrBudgetExhausted) {
			t.Fatalf("\t%s\tShould get a budget error: %v", failed, err)
		}
		if b.Sealed() || b.Nonce() != 0 {
			t.Fatalf("\t%s\tShould leave the block untouched when the budget runs out.", failed)
		}
		if events == 0 {
			t.Fatalf("\t%s\tShould report mining events.", failed)
		}
		t.Logf("\t%s\tShould stop when the budget is exhausted.", success)
	}
}

func Test_Seal(t *testing.T) {
	b := database.NewBlock(1, "hello", "prev", database.WithTimestamp(fixedTime))

	var nonce uint64
	for database.IsHashSolved(1, b.HashAt(nonce)) {
		nonce++
	}

	if err := b.Seal(nonce, 1); !errors.Is(err, database.ErrNotSolved) {
		t.Fatalf("Should not seal with a nonce that misses the target, got %v", err)
	}
	if b.Sealed() {
		t.Fatalf("Should not be sealed after a failed seal.")
	}

	if err := b.Seal(nonce, 0); err != nil {
		t.Fatalf("Should be able to seal at difficulty zero: %v", err)
	}
	if b.Nonce() != nonce || b.Hash() != b.ComputeHash() {
		t.Fatalf("Should record the nonce and matching hash.")
	}
}

func Test_IsHashSolved(t *testing.T) {
	tt := []struct {
		name       string
		difficulty uint
		hash       string
		exp        bool
	}{
		{"zero", 0, strings.Repeat("f", 64), true},
		{"one", 1, "0" + strings.Repeat("f", 63), true},
		{"short", 1, "0abc", false},
		{"miss", 2, "0" + strings.Repeat("f", 63), false},
		{"all", 64, strings.Repeat("0", 64), true},
		{"too hard", 65, strings.Repeat("0", 64), false},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			if got := database.IsHashSolved(tst.difficulty, tst.hash); got != tst.exp {
				t.Fatalf("got %v, exp %v", got, tst.exp)
			}
		})
	}
}

func Test_HasherOption(t *testing.T) {
	keccak, err := signature.Lookup(signature.Keccak256)
	if err != nil {
		t.Fatalf("Should be able to lookup keccak: %v", err)
	}

	b1 := database.NewBlock(1, "hello", "prev", database.WithTimestamp(fixedTime))
	b2 := database.NewBlock(1, "hello", "prev", database.WithTimestamp(fixedTime), database.WithHasher(keccak))

	if b1.ComputeHash() == b2.ComputeHash() {
		t.Fatalf("Should get a different hash with a different algorithm.")
	}
}

func Test_BlockData(t *testing.T) {
	b := database.NewBlock(3, "hello", "prev", database.WithTimestamp(fixedTime))
	b.Mine(1)

	bd := database.NewBlockData(*b)
	got := database.ToBlock(bd)

	if got.Index() != b.Index() || got.Data() != b.Data() || got.Nonce() != b.Nonce() ||
		got.PrevHash() != b.PrevHash() || got.Hash() != b.Hash() || !got.Timestamp().Equal(b.Timestamp()) {
		t.Logf("got: %s", got)
		t.Logf("exp: %s", b)
		t.Fatalf("Should convert between Block and BlockData without loss.")
	}

	if got.ComputeHash() != b.Hash() {
		t.Fatalf("Should recompute the same hash after conversion.")
	}
}

func Test_MineNonceWrap(t *testing.T) {
	t.Log("Given the need to keep mining when the nonce overflows.")
	{
		const difficulty = 2

		// Pick data whose hash at the largest nonce isn't solved so the
		// search has to wrap around to find a solution.
		var bd database.BlockData
		for i := 0; ; i++ {
			bd = database.BlockData{
				Index:     1,
				Timestamp: fixedTime,
				Data:      fmt.Sprintf("wrap-%d", i),
				Nonce:     math.MaxUint64,
				PrevHash:  "prev",
			}
			b := database.ToBlock(bd)
			if !database.IsHashSolved(difficulty, b.HashAt(math.MaxUint64)) {
				break
			}
		}

		b1 := database.ToBlock(bd)
		b1.Mine(difficulty)

		b2 := database.ToBlock(bd)
		if err := b2.MineContext(context.Background(), difficulty, 0, nil); err != nil {
			t.Fatalf("\t%s\tShould be able to mine with a context: %v", failed, err)
		}

		for name, b := range map[string]database.Block{"Mine": b1, "MineContext": b2} {
			if !b.Sealed() {
				t.Fatalf("\t%s\t%s:\tShould seal the block.", failed, name)
			}
			if b.Nonce() >= math.MaxUint64 {
				t.Fatalf("\t%s\t%s:\tShould wrap the nonce: %d", failed, name, b.Nonce())
			}
			if b.Hash() != b.ComputeHash() || !database.IsHashSolved(difficulty, b.Hash()) {
				t.Fatalf("\t%s\t%s:\tShould have a valid hash for the wrapped nonce: %s", failed, name, b)
			}
			t.Logf("\t%s\t%s:\tShould seal the block with a wrapped nonce.", success, name)
		}

		if b1.Nonce() != b2.Nonce() {
			t.Fatalf("\t%s\tShould find the same nonce: %d != %d", failed, b1.Nonce(), b2.Nonce())
		}
		t.Logf("\t%s\tShould find the same nonce.", success)
	}
}
