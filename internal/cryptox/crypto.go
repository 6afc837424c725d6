// Package cryptox implements the cryptographic primitives the client runs
// every byte and every path component through: master-key derivation,
// authenticated chunk encryption, the versioned metadata envelope, and
// filename hashing (§4.1).
//
// None of these functions touch the network or the filesystem; callers own
// key lifetime and must wipe sensitive byte slices (common.WipeByteArray)
// once done with them.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"github.com/halvardk/vaultctl/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KDFIterations and KDFKeyLength implement §4.1's KDF exactly:
	// PBKDF2-SHA512, 200,000 iterations, 64-byte output.
	KDFIterations = 200_000
	KDFKeyLength  = 64

	// MasterKeyLength is the first half of the KDF output.
	MasterKeyLength = 32

	gcmIVLength  = 12
	gcmTagLength = 16
)

// DeriveKeys implements derive_keys(secret, salt) -> (masterKey, authToken).
// The first 32 bytes of the 64-byte PBKDF2-SHA512 output become the master
// key; the remaining 32 bytes are the auth token handed to the backend.
func DeriveKeys(secret, salt []byte) (masterKey, authToken []byte) {
	derived := pbkdf2.Key(secret, salt, KDFIterations, KDFKeyLength, sha512.New)
	masterKey = derived[:MasterKeyLength]
	authToken = derived[MasterKeyLength:]
	return masterKey, authToken
}

// EncryptChunk implements encrypt_chunk(key, plaintext) -> iv || ciphertext || tag.
// A fresh 12-byte IV is drawn from crypto/rand for every call; key must be
// 32 bytes (AES-256).
func EncryptChunk(key, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, gcmIVLength)
	if _, err := rand.Read(iv); err != nil {
		return nil, common.New(common.KindIO, err)
	}

	// Seal appends ciphertext and the 16-byte tag after iv in one buffer.
	return aead.Seal(iv, iv, plaintext, nil), nil
}

// DecryptChunk implements decrypt_chunk(key, blob) -> plaintext. An invalid
// auth tag (tampering, wrong key) is reported as KindCryptoAuth, matching
// the "corrupt_chunk" path laid out in §4.4 step 2.
func DecryptChunk(key, blob []byte) ([]byte, error) {
	if len(blob) < gcmIVLength+gcmTagLength {
		return nil, common.Newf(common.KindCryptoAuth, "ciphertext too short: %d bytes", len(blob))
	}

	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv, ciphertext := blob[:gcmIVLength], blob[gcmIVLength:]
	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, common.New(common.KindCryptoAuth, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, common.New(common.KindFatal, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, common.New(common.KindFatal, err)
	}
	return aead, nil
}

// HashName implements hash_name(masterKey, email, name) -> hex: an
// HMAC-SHA-256 of name keyed by UTF-8(master_key_hex || email), used only
// for server-side lookup, never for authorization (§4.1).
func HashName(masterKeyHex string, email string, name string) string {
	mac := hmac.New(sha256.New, []byte(masterKeyHex+email))
	mac.Write([]byte(name))
	return fmt.Sprintf("%x", mac.Sum(nil))
}
