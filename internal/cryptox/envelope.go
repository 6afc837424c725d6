package cryptox

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/halvardk/vaultctl/internal/common"
)

// EnvelopeVersion is the only metadata envelope version this client
// produces or accepts (§3, §4.1). Any other prefix is rejected as
// KindCryptoVersion.
const EnvelopeVersion = "002"

const envelopePrefixLength = len(EnvelopeVersion)

// WrapMetadata implements wrap_metadata(key, json) -> envelope: JSON-encode
// v, encrypt it under key, and prefix the result with the literal ASCII
// version tag followed by base64(IV || ciphertext || tag).
func WrapMetadata(key []byte, v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", common.New(common.KindFatal, err)
	}

	blob, err := EncryptChunk(key, plaintext)
	if err != nil {
		return "", err
	}

	return EnvelopeVersion + base64.StdEncoding.EncodeToString(blob), nil
}

// UnwrapMetadata implements unwrap_metadata(key, envelope) -> json: verify
// the version prefix, base64-decode, decrypt, and unmarshal into v.
func UnwrapMetadata(key []byte, envelope string, v any) error {
	if len(envelope) < envelopePrefixLength || !strings.HasPrefix(envelope, EnvelopeVersion) {
		return common.Newf(common.KindCryptoVersion, "unrecognized metadata envelope version in %q", safePrefix(envelope))
	}

	blob, err := base64.StdEncoding.DecodeString(envelope[envelopePrefixLength:])
	if err != nil {
		return common.New(common.KindCryptoVersion, err)
	}

	plaintext, err := DecryptChunk(key, blob)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return common.New(common.KindFatal, err)
	}
	return nil
}

func safePrefix(s string) string {
	if len(s) > envelopePrefixLength {
		return s[:envelopePrefixLength]
	}
	return s
}
