package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKeys_Deterministic(t *testing.T) {
	secret := []byte("correct horse battery staple")
	salt := []byte("fixed-salt")

	mk1, at1 := DeriveKeys(secret, salt)
	mk2, at2 := DeriveKeys(secret, salt)

	require.Equal(t, mk1, mk2)
	require.Equal(t, at1, at2)
	require.Len(t, mk1, MasterKeyLength)
	require.Len(t, at1, KDFKeyLength-MasterKeyLength)
}

func TestDeriveKeys_DifferentSaltsDiffer(t *testing.T) {
	secret := []byte("correct horse battery staple")

	mk1, _ := DeriveKeys(secret, []byte("salt-a"))
	mk2, _ := DeriveKeys(secret, []byte("salt-b"))

	require.NotEqual(t, mk1, mk2)
}

func TestEncryptDecryptChunk_RoundTrip(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	blob, err := EncryptChunk(key, plaintext)
	require.NoError(t, err)
	require.NotEqual(t, plaintext, blob)

	got, err := DecryptChunk(key, blob)
	require.NoError(t, err)
	require.Equal(t, plaintext, got)
}

func TestEncryptChunk_IVsNeverRepeat(t *testing.T) {
	key := make([]byte, 32)
	blob1, err := EncryptChunk(key, []byte("a"))
	require.NoError(t, err)
	blob2, err := EncryptChunk(key, []byte("a"))
	require.NoError(t, err)

	require.NotEqual(t, blob1[:12], blob2[:12])
}

func TestDecryptChunk_TamperedCiphertextFailsAuth(t *testing.T) {
	key := make([]byte, 32)
	blob, err := EncryptChunk(key, []byte("hello world"))
	require.NoError(t, err)

	tampered := append([]byte{}, blob...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = DecryptChunk(key, tampered)
	require.Error(t, err)
}

func TestHashName_DeterministicAndKeyed(t *testing.T) {
	h1 := HashName("deadbeef", "alice@example.com", "report.pdf")
	h2 := HashName("deadbeef", "alice@example.com", "report.pdf")
	require.Equal(t, h1, h2)

	h3 := HashName("deadbeef", "bob@example.com", "report.pdf")
	require.NotEqual(t, h1, h3)
}
