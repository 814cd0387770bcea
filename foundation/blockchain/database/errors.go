package database

import (
	"errors"
	"fmt"
)

// Set of errors returned when a block is rejected by the ledger. These are
// checked in this order and the first failure is reported.
var (
	ErrLinkage     = errors.New("prev_hash mismatch")
	ErrSequence    = errors.New("index mismatch")
	ErrIntegrity   = errors.New("hash invalid")
	ErrProofOfWork = errors.New("proof-of-work invalid")
)

// Set of errors related to the block life cycle and ledger access.
var (
	ErrSealed          = errors.New("block is already sealed")
	ErrNotSolved       = errors.New("nonce does not solve the proof-of-work")
	ErrBudgetExhausted = errors.New("mining attempt budget exhausted")
	ErrEmptyChain      = errors.New("ledger has no blocks")
	ErrBlockNotFound   = errors.New("block not found")
	ErrNilBlock        = errors.New("nil block")
)

// =============================================================================

// BlockError identifies the block in the chain that failed validation.
type BlockError struct {
	Index uint64
	Err   error
}

// Error implements the error interface.
func (be *BlockError) Error() string {
	return fmt.Sprintf("block %d: %s", be.Index, be.Err)
}

// Unwrap provides support for errors.Is and errors.As.
func (be *BlockError) Unwrap() error {
	return be.Err
}

// IsRejection reports whether the error is one of the block rejection errors
// returned by Append or Validate.
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrLinkage),
		errors.Is(err, ErrSequence),
		errors.Is(err, ErrIntegrity),
		errors.Is(err, ErrProofOfWork):
		return true
	}

	return false
}
