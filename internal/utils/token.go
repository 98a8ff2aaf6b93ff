package utils // package utils provides helper functions for code generation and hashing

import (
	"crypto/rand"  // secure random number generation
	"encoding/hex" // hex encoding of random bytes
	"strings"      // upper-casing the code suffix
)

// orderCodePrefix tags every generated order code so customers can
// recognise a receipt code at a glance.
const orderCodePrefix = "HW-"

// NewOrderCode returns a fresh human-readable order code of the form
// HW-XXXXXXXX, where the suffix is eight uppercase hex characters from
// a cryptographically secure source.  Uniqueness is enforced by the
// database; callers retry on a duplicate-key collision.
func NewOrderCode() (string, error) {
	suffix, err := randomHex(4) // 4 bytes -> 8 hex chars
	if err != nil {
		return "", err
	}
	return orderCodePrefix + strings.ToUpper(suffix), nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  If the random number
// generator fails, an error is returned.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
