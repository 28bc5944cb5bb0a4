package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

const (
	// Prefix marks a string as a mini-ipam API token.
	Prefix = "mipam_"

	// DefaultTokenBytes is the number of random bytes in a generated token.
	DefaultTokenBytes = 32

	// MinTokenLength is the length of a token built from DefaultTokenBytes.
	MinTokenLength = len(Prefix) + 43

	fingerprintLen = 12
)

var (
	// ErrMissingPrefix is returned for strings that do not start with Prefix.
	ErrMissingPrefix = errors.New("token is missing the mipam_ prefix")

	// ErrTooShort is returned for tokens shorter than MinTokenLength.
	ErrTooShort = errors.New("token too short")
)

// Generate returns a new token with DefaultTokenBytes of entropy.
func Generate() (string, error) {
	return GenerateWithLength(DefaultTokenBytes)
}

// GenerateWithLength returns a new token with numBytes of entropy.
// numBytes must be at least DefaultTokenBytes.
func GenerateWithLength(numBytes int) (string, error) {
	if numBytes < DefaultTokenBytes {
		return "", fmt.Errorf("token length must be at least %d bytes", DefaultTokenBytes)
	}

	b := make([]byte, numBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return Prefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash returns the hex HMAC-SHA256 of token keyed by secret.
func Hash(token, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// Validate reports whether provided hashes to storedHash under secret.
// The comparison is constant time.
func Validate(provided, secret, storedHash string) bool {
	return hmac.Equal([]byte(Hash(provided, secret)), []byte(storedHash))
}

// ValidateFormat rejects strings that cannot be a token, before any lookup.
func ValidateFormat(token string) error {
	if !strings.HasPrefix(token, Prefix) {
		return ErrMissingPrefix
	}
	if len(token) < MinTokenLength {
		return fmt.Errorf("%w: got %d characters, need at least %d", ErrTooShort, len(token), MinTokenLength)
	}
	return nil
}

// Fingerprint returns the first characters of a stored hash for logs and
// listings.
func Fingerprint(hash string) string {
	if len(hash) <= fingerprintLen {
		return hash
	}
	return hash[:fingerprintLen]
}
