// Package common provides small utilities and the closed-set error
// classification shared by every layer of the client: crypto, backend,
// resolver, transfer engine, and batch orchestrator.
package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString generates a random hexadecimal string built from size
// random bytes. The resulting string is twice as long as size, since each
// byte expands to two hex characters.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size cryptographically random bytes.
// It panics if the system RNG fails, since a non-functional RNG leaves
// every key and IV in this module unsafe to generate.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray overwrites b with zeros in place. Used to scrub passwords
// and derived keys from memory once they are no longer needed. Safe to
// call with a nil slice.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
