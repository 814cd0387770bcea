// Package database handles the in memory ledger of blocks, the rules for
// mining and appending blocks, and the boundary used to persist the ledger.
package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the ledger.
type Storage interface {
	Load() (LedgerData, error)
	Save(ld LedgerData) error
}

// =============================================================================

// Config represents the settings for constructing a new ledger.
type Config struct {
	Difficulty  uint
	Algorithm   string
	GenesisData string
	GenesisTime time.Time
	EvHandler   func(v string, args ...any)
}

// Ledger manages the ordered chain of sealed blocks. The chain always
// starts with a genesis block and blocks are never removed or changed.
type Ledger struct {
	mu sync.RWMutex

	chain      []Block
	difficulty uint
	algorithm  string
	hasher     signature.Hasher
	evHandler  func(v string, args ...any)
}

// New constructs a ledger using the default hash algorithm with a genesis
// block mined at the specified difficulty.
func New(difficulty uint) *Ledger {
	l := newLedger(difficulty, signature.DefaultAlgorithm, signature.Hash, nil)
	l.mineGenesis(GenesisData, time.Time{})

	return l
}

// NewWithConfig constructs a ledger from the specified configuration. An
// error is only returned for an unknown hash algorithm.
func NewWithConfig(cfg Config) (*Ledger, error) {
	hasher, err := signature.Lookup(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	algorithm := cfg.Algorithm
	if algorithm == "" {
		algorithm = signature.DefaultAlgorithm
	}

	genesisData := cfg.GenesisData
	if genesisData == "" {
		genesisData = GenesisData
	}

	l := newLedger(cfg.Difficulty, algorithm, hasher, cfg.EvHandler)
	l.mineGenesis(genesisData, cfg.GenesisTime)

	return l, nil
}

// newLedger constructs a ledger with no blocks.
func newLedger(difficulty uint, algorithm string, hasher signature.Hasher, evHandler func(v string, args ...any)) *Ledger {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Ledger{
		difficulty: difficulty,
		algorithm:  algorithm,
		hasher:     hasher,
		evHandler:  ev,
	}
}

// mineGenesis mines the first block of the chain. A zero timestamp means
// the current time is used.
func (l *Ledger) mineGenesis(data string, timestamp time.Time) {
	l.evHandler("database: mineGenesis: MINING: difficulty[%d] algorithm[%s]", l.difficulty, l.algorithm)

	opts := []BlockOption{WithHasher(l.hasher)}
	if !timestamp.IsZero() {
		opts = append(opts, WithTimestamp(timestamp))
	}

	genesis := NewBlock(0, data, signature.ZeroHash, opts...)
	genesis.Mine(l.difficulty)
	l.chain = append(l.chain, *genesis)

	l.evHandler("database: mineGenesis: MINING: SOLVED: blk[%s]", genesis.hash)
}

// =============================================================================

// Difficulty returns the number of leading zeros required in a block hash.
func (l *Ledger) Difficulty() uint {
	return l.difficulty
}

// Algorithm returns the name of the hash algorithm used by the ledger.
func (l *Ledger) Algorithm() string {
	return l.algorithm
}

// Len returns the number of blocks in the chain.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chain)
}

// Head returns a copy of the latest block in the chain.
func (l *Ledger) Head() Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.chain[len(l.chain)-1]
}

// Blocks returns a copy of the chain.
func (l *Ledger) Blocks() []Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	blocks := make([]Block, len(l.chain))
	copy(blocks, l.chain)

	return blocks
}

// Block returns a copy of the block at the specified index.
func (l *Ledger) Block(index uint64) (Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index >= uint64(len(l.chain)) {
		return Block{}, fmt.Errorf("%w: index[%d] length[%d]", ErrBlockNotFound, index, len(l.chain))
	}

	return l.chain[index], nil
}

// NextBlock constructs an unsealed block linked to the current head that
// uses the ledger's hash algorithm.
func (l *Ledger) NextBlock(data string) *Block {
	head := l.Head()
	return NewBlock(head.index+1, data, head.hash, WithHasher(l.hasher))
}

// ToBlock converts block data received from outside the ledger into a
// block that uses the ledger's hash algorithm.
func (l *Ledger) ToBlock(bd BlockData) Block {
	return ToBlock(bd, WithHasher(l.hasher))
}

// =============================================================================

// Append validates the candidate against the current head and adds it to
// the chain. A rejected candidate is reported as a *BlockError and the
// ledger is unchanged.
func (l *Ledger) Append(candidate *Block) error {
	if candidate == nil {
		return ErrNilBlock
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	head := l.chain[len(l.chain)-1]

	l.evHandler("database: Append: validate: blk[%d]", candidate.index)

	if err := l.validateNext(head, *candidate); err != nil {
		l.evHandler("database: Append: REJECTED: blk[%d]: %s", candidate.index, err)
		return &BlockError{Index: candidate.index, Err: err}
	}

	l.chain = append(l.chain, *candidate)

	l.evHandler("database: Append: ACCEPTED: blk[%d]: hash[%s]", candidate.index, candidate.hash)

	return nil
}

// IsValid walks the entire chain and reports whether every block passes
// the linkage, sequence, integrity and proof-of-work checks.
func (l *Ledger) IsValid() bool {
	return l.Validate() == nil
}

// Validate walks the entire chain and returns a *BlockError for the first
// block that fails a check.
func (l *Ledger) Validate() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.chain) == 0 {
		return ErrEmptyChain
	}

	if err := l.validateGenesis(l.chain[0]); err != nil {
		return &BlockError{Index: 0, Err: err}
	}

	for i := 1; i < len(l.chain); i++ {
		if err := l.validateNext(l.chain[i-1], l.chain[i]); err != nil {
			return &BlockError{Index: uint64(i), Err: err}
		}
	}

	return nil
}

// validateGenesis checks the block that starts the chain.
func (l *Ledger) validateGenesis(b Block) error {
	if b.prevHash != signature.ZeroHash {
		return fmt.Errorf("%w: genesis got %s, exp %s", ErrLinkage, b.prevHash, signature.ZeroHash)
	}

	if b.index != 0 {
		return fmt.Errorf("%w: genesis got %d, exp 0", ErrSequence, b.index)
	}

	return l.validateSeal(b)
}

// validateNext checks the block can follow the previous block. The checks
// run in a fixed order and the first failure is returned.
func (l *Ledger) validateNext(prev Block, b Block) error {
	if b.prevHash != prev.hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrLinkage, b.prevHash, prev.hash)
	}

	if b.index != prev.index+1 {
		return fmt.Errorf("%w: got %d, exp %d", ErrSequence, b.index, prev.index+1)
	}

	return l.validateSeal(b)
}

// validateSeal checks the stored hash matches the block fields and
// solves the proof-of-work.
func (l *Ledger) validateSeal(b Block) error {
	if hash := b.hashWith(l.hasher, b.nonce); hash != b.hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrIntegrity, b.hash, hash)
	}

	if !IsHashSolved(l.difficulty, b.hash) {
		return fmt.Errorf("%w: hash %s, difficulty %d", ErrProofOfWork, b.hash, l.difficulty)
	}

	return nil
}

// =============================================================================

// LedgerData represents the serialized form of the ledger.
type LedgerData struct {
	Chain      []BlockData `json:"chain"`
	Difficulty uint        `json:"difficulty"`
	Algorithm  string      `json:"algorithm,omitempty"`
}

// Data returns the serialized form of the ledger.
func (l *Ledger) Data() LedgerData {
	l.mu.RLock()
	defer l.mu.RUnlock()

	chain := make([]BlockData, len(l.chain))
	for i, b := range l.chain {
		chain[i] = NewBlockData(b)
	}

	return LedgerData{
		Chain:      chain,
		Difficulty: l.difficulty,
		Algorithm:  l.algorithm,
	}
}

// FromData constructs a ledger from its serialized form. The blocks are
// not validated, call Validate to verify the chain.
func FromData(ld LedgerData, evHandler func(v string, args ...any)) (*Ledger, error) {
	if len(ld.Chain) == 0 {
		return nil, ErrEmptyChain
	}

	algorithm := ld.Algorithm
	if algorithm == "" {
		algorithm = signature.DefaultAlgorithm
	}

	hasher, err := signature.Lookup(algorithm)
	if err != nil {
		return nil, err
	}

	l := newLedger(ld.Difficulty, algorithm, hasher, evHandler)

	l.chain = make([]Block, len(ld.Chain))
	for i, bd := range ld.Chain {
		l.chain[i] = ToBlock(bd, WithHasher(hasher))
	}

	return l, nil
}

// Load reads the ledger from the specified storage.
func Load(storage Storage, evHandler func(v string, args ...any)) (*Ledger, error) {
	ld, err := storage.Load()
	if err != nil {
		return nil, err
	}

	return FromData(ld, evHandler)
}

// Save writes the ledger to the specified storage.
func (l *Ledger) Save(storage Storage) error {
	return storage.Save(l.Data())
}
