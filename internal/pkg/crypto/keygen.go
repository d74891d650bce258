// Package crypto provides password hashing and key generation for Monedero.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
)

// Key generation defaults.
const (
	// SigningSecretSize is the number of random bytes in a generated signing secret.
	SigningSecretSize = 32

	// TemporaryPasswordLength is the length of passwords generated on admin reset.
	TemporaryPasswordLength = 16
)

// passwordChars avoids characters that are easy to confuse when read aloud.
const passwordChars = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

// ErrInvalidKeySize indicates a non-positive key size was requested.
var ErrInvalidKeySize = errors.New("key size must be positive")

// GenerateSigningSecret generates a random secret for token signing.
// Returns the key as a hex string of 2*size characters.
func GenerateSigningSecret(size int) (string, error) {
	if size <= 0 {
		return "", ErrInvalidKeySize
	}
	key := make([]byte, size)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// GeneratePassword generates a random password of the given length.
func GeneratePassword(length int) (string, error) {
	return generateRandomString(length, passwordChars)
}

// generateRandomString generates a random string of the specified length
// using characters from the provided character set without modulo bias.
func generateRandomString(length int, charset string) (string, error) {
	if length <= 0 {
		return "", ErrInvalidKeySize
	}
	result := make([]byte, length)
	max := big.NewInt(int64(len(charset)))

	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		result[i] = charset[n.Int64()]
	}

	return string(result), nil
}
