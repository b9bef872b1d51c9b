package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Base62 alphabet: 0-9, A-Z, a-z
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// DefaultLength is the default length for generated short IDs
	DefaultLength = 12
)

// Prefixes for externally visible identifiers (Stripe-style).
const (
	PrefixPasskey = "pk"
)

// Generate creates a cryptographically random Base62 string of the given length.
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

// GenerateWithPrefix creates an ID in the format "prefix_randomstring".
func GenerateWithPrefix(prefix string, length int) (string, error) {
	id, err := Generate(length)
	if err != nil {
		return "", err
	}
	return prefix + "_" + id, nil
}

// ParsePrefixedID splits "prefix_shortid" at the first underscore.
func ParsePrefixedID(prefixedID string) (prefix, shortID string, err error) {
	parts := strings.SplitN(prefixedID, "_", 2)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid prefixed ID format: %s", prefixedID)
	}
	return parts[0], parts[1], nil
}

// ValidatePrefix checks that prefixedID carries expectedPrefix and a non-empty Base62 body.
func ValidatePrefix(prefixedID, expectedPrefix string) error {
	prefix, shortID, err := ParsePrefixedID(prefixedID)
	if err != nil {
		return err
	}
	if prefix != expectedPrefix {
		return fmt.Errorf("invalid prefix: expected %s, got %s", expectedPrefix, prefix)
	}
	if shortID == "" || strings.Trim(shortID, alphabet) != "" {
		return fmt.Errorf("invalid short ID: %s", prefixedID)
	}
	return nil
}

// NewPasskeyID generates an external passkey identifier (pk_xxx).
func NewPasskeyID() (string, error) {
	return GenerateWithPrefix(PrefixPasskey, DefaultLength)
}
