// Package storage defines the errors shared by the implementations that read
// and write the ledger.
package storage

import "errors"

// Set of errors returned when a ledger can't be loaded.
var (
	ErrNotFound = errors.New("ledger not found")
	ErrEmpty    = errors.New("ledger is empty")
)
