// Package signature provides helper functions for handling the blockchain
// hashing needs.
package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/zeebo/blake3"
)

// ZeroHash represents the previous hash recorded by the genesis block.
const ZeroHash string = "0"

// Set of supported hash algorithms.
const (
	SHA256    = "sha256"
	Keccak256 = "keccak256"
	BLAKE3    = "blake3"
)

// DefaultAlgorithm is used when no algorithm is specified.
const DefaultAlgorithm = SHA256

// ErrUnknownAlgorithm is returned when a hash algorithm name is not supported.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

// =============================================================================

// Hasher produces the lowercase hex encoding of a 32 byte digest
// of the specified data.
type Hasher func(data []byte) string

var hashers = map[string]Hasher{
	SHA256:    hashSHA256,
	Keccak256: hashKeccak256,
	BLAKE3:    hashBLAKE3,
}

// Lookup returns the hasher registered for the specified algorithm name. An
// empty name returns the default algorithm.
func Lookup(algorithm string) (Hasher, error) {
	if algorithm == "" {
		algorithm = DefaultAlgorithm
	}

	h, exists := hashers[algorithm]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}

	return h, nil
}

// Algorithms returns the sorted set of supported algorithm names.
func Algorithms() []string {
	names := make([]string, 0, len(hashers))
	for name := range hashers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Hash returns the hex digest of the data using the default algorithm.
func Hash(data []byte) string {
	return hashSHA256(data)
}

// =============================================================================

func hashSHA256(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// hashKeccak256 uses the Ethereum flavor of SHA3.
func hashKeccak256(data []byte) string {
	return hex.EncodeToString(crypto.Keccak256(data))
}

func hashBLAKE3(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}
