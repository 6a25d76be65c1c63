// Package id generates short Base62 identifiers with Stripe-style prefixes.
package id

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs.
	DefaultLength = 12
)

// Prefixes for prefixed identifiers.
const (
	PrefixTask      = "tk"
	PrefixEphemeral = "eph"
)

// Generate creates a cryptographically random Base62 string.
func Generate(length int) (string, error) {
	if length <= 0 {
		length = DefaultLength
	}

	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(alphabet)))
	for i := range result {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		result[i] = alphabet[num.Int64()]
	}
	return string(result), nil
}

// MustGenerate creates a random short ID and panics on error.
func MustGenerate(length int) string {
	s, err := Generate(length)
	if err != nil {
		panic(err)
	}
	return s
}

// GenerateWithPrefix creates an ID in the form "prefix_random".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	s, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + s, nil
}

// DeriveWithPrefix creates a deterministic ID from content, used for
// ephemeral task IDs so duplicate dispatches of the same payload collide
// instead of piling up.
func DeriveWithPrefix(prefix string, content []byte) string {
	sum := sha256.Sum256(content)
	return prefix + "_" + hex.EncodeToString(sum[:8])
}
