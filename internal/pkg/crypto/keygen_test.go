package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSigningSecret(t *testing.T) {
	a, err := GenerateSigningSecret(SigningSecretSize)
	require.NoError(t, err)
	b, err := GenerateSigningSecret(SigningSecretSize)
	require.NoError(t, err)

	require.Len(t, a, SigningSecretSize*2)
	require.NotEqual(t, a, b)
	_, err = hex.DecodeString(a)
	require.NoError(t, err)

	_, err = GenerateSigningSecret(0)
	require.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestGeneratePassword(t *testing.T) {
	p, err := GeneratePassword(TemporaryPasswordLength)
	require.NoError(t, err)
	require.Len(t, p, TemporaryPasswordLength)
	for _, r := range p {
		require.True(t, strings.ContainsRune(passwordChars, r))
	}

	_, err = GeneratePassword(-1)
	require.ErrorIs(t, err, ErrInvalidKeySize)
}
