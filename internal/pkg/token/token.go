// Package token generates unguessable URL-safe capability tokens.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// DefaultBytes gives 256 bits of entropy.
const DefaultBytes = 32

// minBytes is 128 bits.
const minBytes = 16

// Generate returns n random bytes encoded with RawURLEncoding. n below 16 is
// raised to 16.
func Generate(n int) (string, error) {
	if n < minBytes {
		n = minBytes
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
