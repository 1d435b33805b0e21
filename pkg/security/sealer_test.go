package security

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSealOpenRoundTrip(t *testing.T) {
	for _, key := range []string{
		base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")),
		"a long passphrase for local development",
	} {
		s, err := NewSealer(key)
		require.NoError(t, err)

		sealed, err := s.Seal("000123456789")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(sealed, "v1:"))
		require.NotContains(t, sealed, "000123456789")

		again, err := s.Seal("000123456789")
		require.NoError(t, err)
		require.NotEqual(t, sealed, again, "nonce must differ per value")

		opened, err := s.Open(sealed)
		require.NoError(t, err)
		require.Equal(t, "000123456789", opened)
	}
}

func TestOpenRejectsTamperingAndWrongKey(t *testing.T) {
	s, err := NewSealer("first key")
	require.NoError(t, err)
	other, err := NewSealer("second key")
	require.NoError(t, err)

	sealed, err := s.Seal("secret")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	require.ErrorIs(t, err, ErrInvalidSealed)

	_, err = s.Open("v1:" + base64.StdEncoding.EncodeToString([]byte("short")))
	require.ErrorIs(t, err, ErrInvalidSealed)

	_, err = s.Open("plaintext")
	require.ErrorIs(t, err, ErrInvalidSealed)
}

func TestNewSealerRequiresKey(t *testing.T) {
	_, err := NewSealer("  ")
	require.ErrorIs(t, err, ErrSealKeyRequired)
}

func TestLast4(t *testing.T) {
	require.Equal(t, "6789", Last4("000123456789"))
	require.Equal(t, "12", Last4("12"))
}
