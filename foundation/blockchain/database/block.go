package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// GenesisData is the payload recorded by the genesis block.
const GenesisData = "Genesis Block"

// hashLength is the number of hex characters in a 32 byte digest.
const hashLength = 64

// =============================================================================

// Block represents a single record in the ledger. The fields can only be
// changed by the mining operations and are frozen once the hash is set.
type Block struct {
	index     uint64
	timestamp time.Time
	data      string
	nonce     uint64
	prevHash  string
	hash      string

	hasher signature.Hasher
}

// BlockOption represents options that can be applied when constructing a block.
type BlockOption func(b *Block)

// WithTimestamp sets the creation time of the block instead of using the
// current time.
func WithTimestamp(t time.Time) BlockOption {
	return func(b *Block) {
		b.timestamp = t.UTC().Round(0)
	}
}

// WithHasher sets the hash algorithm used to compute the block hash.
func WithHasher(h signature.Hasher) BlockOption {
	return func(b *Block) {
		if h != nil {
			b.hasher = h
		}
	}
}

// NewBlock constructs an unsealed block that still needs to be mined.
func NewBlock(index uint64, data string, prevHash string, opts ...BlockOption) *Block {
	b := Block{
		index:     index,
		timestamp: time.Now().UTC().Round(0),
		data:      data,
		prevHash:  prevHash,
		hasher:    signature.Hash,
	}

	for _, opt := range opts {
		opt(&b)
	}

	return &b
}

// Index returns the position of the block in the chain.
func (b Block) Index() uint64 { return b.index }

// Timestamp returns the time the block was created.
func (b Block) Timestamp() time.Time { return b.timestamp }

// Data returns the payload of the block.
func (b Block) Data() string { return b.data }

// Nonce returns the value found by the proof-of-work search.
func (b Block) Nonce() uint64 { return b.nonce }

// PrevHash returns the hash of the preceding block.
func (b Block) PrevHash() string { return b.prevHash }

// Hash returns the stored hash, which is empty until the block is sealed.
func (b Block) Hash() string { return b.hash }

// Sealed reports whether the block has been mined.
func (b Block) Sealed() bool { return b.hash != "" }

// String implements the fmt.Stringer interface.
func (b Block) String() string {
	return fmt.Sprintf("Block[%d] ts[%s] data[%q] nonce[%d] prev[%s] hash[%s]", b.index, b.timestamp.Format(time.RFC3339Nano), b.data, b.nonce, b.prevHash, b.hash)
}

// ComputeHash returns the hash of the block's current field values.
func (b Block) ComputeHash() string {
	return b.HashAt(b.nonce)
}

// HashAt returns the hash the block would have with the specified nonce.
func (b Block) HashAt(nonce uint64) string {
	return b.hashWith(b.hasher, nonce)
}

// hashWith hashes the block fields with the specified hasher and nonce.
func (b Block) hashWith(h signature.Hasher, nonce uint64) string {
	if h == nil {
		h = signature.Hash
	}

	return h(b.payload(nonce))
}

// payload encodes the hashed fields in the order index, timestamp, data,
// nonce, prev_hash. Each field is written as <len>:<bytes> so two different
// sets of values can never produce the same byte sequence.
func (b Block) payload(nonce uint64) []byte {
	fields := [...]string{
		strconv.FormatUint(b.index, 10),
		b.timestamp.UTC().Format(time.RFC3339Nano),
		b.data,
		strconv.FormatUint(nonce, 10),
		b.prevHash,
	}

	var buf bytes.Buffer
	for _, field := range fields {
		buf.WriteString(strconv.Itoa(len(field)))
		buf.WriteByte(':')
		buf.WriteString(field)
	}

	return buf.Bytes()
}

// =============================================================================

// Mine performs the proof-of-work search, incrementing the nonce until the
// hash begins with difficulty zeros. There is no upper bound on the number of
// attempts and the nonce wraps on overflow. Mining a sealed block does nothing.
func (b *Block) Mine(difficulty uint) {
	if b.Sealed() {
		return
	}

	for {
		hash := b.HashAt(b.nonce)
		if IsHashSolved(difficulty, hash) {
			b.hash = hash
			return
		}
		b.nonce++
	}
}

// MineContext performs the same search as Mine but can be cancelled through
// the context or limited to maxAttempts hashes. A maxAttempts of 0 means no
// limit. The block remains unsealed when an error is returned.
func (b *Block) MineContext(ctx context.Context, difficulty uint, maxAttempts uint64, evHandler func(v string, args ...any)) error {
	if b.Sealed() {
		return nil
	}

	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ev("database: MineContext: MINING: started: blk[%d]", b.index)
	defer ev("database: MineContext: MINING: completed: blk[%d]", b.index)

	nonce := b.nonce
	var attempts uint64
	for {
		if ctx.Err() != nil {
			ev("database: MineContext: MINING: CANCELLED: attempts[%d]", attempts)
			return ctx.Err()
		}

		if maxAttempts > 0 && attempts == maxAttempts {
			ev("database: MineContext: MINING: budget exhausted: attempts[%d]", attempts)
			return ErrBudgetExhausted
		}

		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: MineContext: MINING: attempts[%d]", attempts)
		}

		hash := b.HashAt(nonce)
		if !IsHashSolved(difficulty, hash) {
			nonce++
			continue
		}

		b.nonce = nonce
		b.hash = hash

		ev("database: MineContext: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.prevHash, hash, attempts)
		return nil
	}
}

// Seal records the nonce found by an external search and sets the hash.
// The hash is always recomputed so a sealed block can't hold a hash that
// doesn't match its fields.
func (b *Block) Seal(nonce uint64, difficulty uint) error {
	if b.Sealed() {
		return ErrSealed
	}

	hash := b.HashAt(nonce)
	if !IsHashSolved(difficulty, hash) {
		return fmt.Errorf("%w: nonce[%d] hash[%s]", ErrNotSolved, nonce, hash)
	}

	b.nonce = nonce
	b.hash = hash

	return nil
}

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty uint, hash string) bool {
	if len(hash) != hashLength || difficulty > hashLength {
		return false
	}

	for i := uint(0); i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}

	return true
}

// =============================================================================

// BlockData represents what is written to storage and returned by the
// web api for a block.
type BlockData struct {
	Index     uint64    `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Data      string    `json:"data"`
	Nonce     uint64    `json:"nonce"`
	PrevHash  string    `json:"prev_hash"`
	Hash      string    `json:"hash"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(b Block) BlockData {
	return BlockData{
		Index:     b.index,
		Timestamp: b.timestamp,
		Data:      b.data,
		Nonce:     b.nonce,
		PrevHash:  b.prevHash,
		Hash:      b.hash,
	}
}

// ToBlock converts a BlockData into a Block. The stored hash is kept as is
// and is only checked when the block is validated.
func ToBlock(bd BlockData, opts ...BlockOption) Block {
	b := Block{
		index:     bd.Index,
		timestamp: bd.Timestamp.UTC().Round(0),
		data:      bd.Data,
		nonce:     bd.Nonce,
		prevHash:  bd.PrevHash,
		hash:      bd.Hash,
		hasher:    signature.Hash,
	}

	for _, opt := range opts {
		opt(&b)
	}

	return b
}

// MarshalJSON implements the json.Marshaler interface.
func (b Block) MarshalJSON() ([]byte, error) {
	return json.Marshal(NewBlockData(b))
}

// UnmarshalJSON implements the json.Unmarshaler interface. The block is
// hashed with the default algorithm.
func (b *Block) UnmarshalJSON(data []byte) error {
	var bd BlockData
	if err := json.Unmarshal(data, &bd); err != nil {
		return err
	}

	*b = ToBlock(bd)
	return nil
}
