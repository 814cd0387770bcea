package ledgergrp

import (
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// NewBlock is the data required to mine a new block. Empty data is a
// valid payload.
type NewBlock struct {
	Data string `json:"data" validate:"max=4096"`
}

// ProposedBlock is a block mined outside the service.
type ProposedBlock struct {
	Index     uint64    `json:"index"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Data      string    `json:"data"`
	Nonce     uint64    `json:"nonce"`
	PrevHash  string    `json:"prev_hash" validate:"required"`
	Hash      string    `json:"hash" validate:"required,len=64,hexadecimal"`
}

func (pb ProposedBlock) toBlockData() database.BlockData {
	return database.BlockData{
		Index:     pb.Index,
		Timestamp: pb.Timestamp,
		Data:      pb.Data,
		Nonce:     pb.Nonce,
		PrevHash:  pb.PrevHash,
		Hash:      pb.Hash,
	}
}

// Status describes the current state of the ledger.
type Status struct {
	Blocks     int    `json:"blocks"`
	Difficulty uint   `json:"difficulty"`
	Algorithm  string `json:"algorithm"`
	HeadIndex  uint64 `json:"head_index"`
	HeadHash   string `json:"head_hash"`
}

// Validation is the result of walking the ledger.
type Validation struct {
	Valid  bool    `json:"valid"`
	Blocks int     `json:"blocks"`
	Index  *uint64 `json:"index,omitempty"`
	Error  string  `json:"error,omitempty"`
}
