package cryptox

import (
	"testing"
	"unicode/utf8"

	"github.com/halvardk/vaultctl/internal/common"
	"github.com/stretchr/testify/require"
)

type sampleMetadata struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

func TestWrapUnwrapMetadata_RoundTrip(t *testing.T) {
	key := make([]byte, 32)
	in := sampleMetadata{Name: "résumé final (v2).pdf", Size: 123456}

	env, err := WrapMetadata(key, in)
	require.NoError(t, err)
	require.True(t, len(env) > envelopePrefixLength)
	require.Equal(t, EnvelopeVersion, env[:envelopePrefixLength])

	var out sampleMetadata
	require.NoError(t, UnwrapMetadata(key, env, &out))
	require.Equal(t, in, out)
}

func TestUnwrapMetadata_RejectsUnknownVersion(t *testing.T) {
	key := make([]byte, 32)
	err := UnwrapMetadata(key, "001somejunk", &sampleMetadata{})
	require.Error(t, err)
	require.True(t, common.IsKind(err, common.KindCryptoVersion))
}

func TestWrapMetadata_NameRoundTripsForArbitraryUnicode(t *testing.T) {
	key := make([]byte, 32)
	names := []string{
		"plain.txt",
		"with spaces and (parens).docx",
		"emoji-📁-folder-note.txt",
		"混合 unicode 名前.bin",
	}
	for _, name := range names {
		require.True(t, utf8.ValidString(name))
		env, err := WrapMetadata(key, sampleMetadata{Name: name})
		require.NoError(t, err)

		var out sampleMetadata
		require.NoError(t, UnwrapMetadata(key, env, &out))
		require.Equal(t, name, out.Name)
	}
}
