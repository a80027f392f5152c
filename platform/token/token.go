// Package token provides cryptographically random opaque token generation.
// Estimate approval links use these tokens as their sole access control, so
// entropy must be high enough that enumeration is infeasible.
package token

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandomToken returns a URL-safe random token built from size bytes
// of crypto/rand entropy.
func GenerateRandomToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
