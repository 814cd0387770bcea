// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date       time.Time `json:"date"`       // Timestamp of the genesis block. Zero means the time the ledger is created.
	Difficulty uint      `json:"difficulty"` // How difficult it needs to be to solve the work problem.
	Algorithm  string    `json:"algorithm"`  // Hash algorithm used for every block in the ledger.
	Data       string    `json:"data"`       // Payload recorded in the genesis block.
}

// Default returns the genesis settings used when no file is provided.
func Default(difficulty uint) Genesis {
	return Genesis{
		Difficulty: difficulty,
		Algorithm:  signature.DefaultAlgorithm,
		Data:       "Genesis Block",
	}
}

// =============================================================================

// Load opens and consumes the genesis file at the specified path.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis %s: %w", path, err)
	}

	return genesis, nil
}
