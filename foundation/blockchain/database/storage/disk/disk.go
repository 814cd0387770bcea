// Package disk implements the ability to read and write the ledger to a
// single JSON file on disk.
package disk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage"
)

// Disk represents the serialization implementation for reading and storing
// the ledger in a file on disk. This implements the database.Storage
// interface.
type Disk struct {
	path string
}

// New constructs a Disk value for the specified file path. The file is not
// touched until Load or Save is called.
func New(path string) *Disk {
	return &Disk{path: path}
}

// Path returns the location of the ledger file.
func (d *Disk) Path() string {
	return d.path
}

// Load reads the ledger from disk. It returns storage.ErrNotFound if the file
// does not exist and storage.ErrEmpty if the file has no content.
func (d *Disk) Load() (database.LedgerData, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return database.LedgerData{}, fmt.Errorf("%w: %w", storage.ErrNotFound, err)
		}
		return database.LedgerData{}, fmt.Errorf("reading %s: %w", d.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return database.LedgerData{}, fmt.Errorf("%w: %s", storage.ErrEmpty, d.path)
	}

	var ld database.LedgerData
	if err := json.Unmarshal(data, &ld); err != nil {
		return database.LedgerData{}, fmt.Errorf("decoding %s: %w", d.path, err)
	}

	return ld, nil
}

// Save writes the ledger to disk, replacing any existing content. The data
// is written to a temporary file first and renamed over the target so a
// failed write never leaves a partial ledger behind.
func (d *Disk) Save(ld database.LedgerData) error {

	// Marshal the ledger for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(ld, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(d.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, d.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", d.path, err)
	}

	return nil
}
