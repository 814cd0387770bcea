package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// Mine performs the proof-of-work search for the block using all the
// workers and seals the block with the winning nonce. Worker i tries the
// nonces start+i, start+i+N, ... where N is the number of workers.
func (m *Miner) Mine(ctx context.Context, b *database.Block, difficulty uint) error {
	if b == nil {
		return database.ErrNilBlock
	}

	if b.Sealed() {
		return nil
	}

	m.evHandler("worker: Mine: MINING: started: blk[%d] difficulty[%d] workers[%d]", b.Index(), difficulty, m.workers)
	defer m.evHandler("worker: Mine: MINING: completed: blk[%d]", b.Index())

	// Create a context so the remaining workers can be cancelled once a
	// solution is found.
	mineCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Only the first solution is kept.
	solved := make(chan solution, 1)

	// Every worker hashes its own copy of the block.
	view := *b
	start := b.Nonce()
	step := uint64(m.workers)

	t := time.Now()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(m.workers)

	for i := 0; i < m.workers; i++ {
		go func(worker int) {
			defer wg.Done()

			s, ok := m.search(mineCtx, view, worker, start+uint64(worker), step, difficulty)
			if !ok {
				return
			}

			select {
			case solved <- s:
				cancel()
			default:
			}
		}(i)
	}

	// Wait for all the G's to terminate.
	wg.Wait()

	m.evHandler("worker: Mine: MINING: duration[%v]", time.Since(t))

	select {
	case s := <-solved:
		m.evHandler("worker: Mine: MINING: SOLVED: worker[%d] nonce[%d] hash[%s] attempts[%d]", s.worker, s.nonce, s.hash, s.attempts)
		if err := b.Seal(s.nonce, difficulty); err != nil {
			return fmt.Errorf("sealing block: %w", err)
		}
		return nil

	default:
	}

	if ctx.Err() != nil {
		m.evHandler("worker: Mine: MINING: CANCELLED")
		return ctx.Err()
	}

	m.evHandler("worker: Mine: MINING: budget exhausted: attempts[%d]", m.maxAttempts)
	return database.ErrBudgetExhausted
}

// search walks the nonce space for a single worker until a solution is
// found, the context is cancelled or the worker's budget is used up.
func (m *Miner) search(ctx context.Context, b database.Block, worker int, nonce uint64, step uint64, difficulty uint) (solution, bool) {
	budget := m.budget(worker)
	if m.maxAttempts > 0 && budget == 0 {
		return solution{}, false
	}

	var attempts uint64
	for {
		if ctx.Err() != nil {
			return solution{}, false
		}

		attempts++
		if attempts%1_000_000 == 0 {
			m.evHandler("worker: search: MINING: worker[%d] attempts[%d]", worker, attempts)
		}

		hash := b.HashAt(nonce)
		if database.IsHashSolved(difficulty, hash) {
			return solution{worker: worker, nonce: nonce, hash: hash, attempts: attempts}, true
		}

		if budget > 0 && attempts == budget {
			return solution{}, false
		}

		// The nonce wraps on overflow.
		nonce += step
	}
}
