package mfacrypto_test

import (
	"bytes"
	"testing"

	"github.com/shandysiswandi/mfacore/internal/pkg/mfacrypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	t.Parallel()

	master := bytes.Repeat([]byte{1}, mfacrypto.MasterKeySize)

	a1, err := mfacrypto.DeriveKey(master, "hmac/challenge_code", 32)
	require.NoError(t, err)
	a2, err := mfacrypto.DeriveKey(master, "hmac/challenge_code", 32)
	require.NoError(t, err)
	b, err := mfacrypto.DeriveKey(master, "aes/totp_secret", 32)
	require.NoError(t, err)

	assert.Len(t, a1, 32)
	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
	assert.NotEqual(t, master, a1)

	_, err = mfacrypto.DeriveKey(master[:16], "x", 32)
	require.ErrorIs(t, err, mfacrypto.ErrInvalidMasterKey)

	_, err = mfacrypto.DeriveKey(master, "", 32)
	require.Error(t, err)
}

func TestHKDFKeyProvider(t *testing.T) {
	t.Parallel()

	_, err := mfacrypto.NewHKDFKeyProvider([]byte("short"))
	require.ErrorIs(t, err, mfacrypto.ErrInvalidMasterKey)

	p, err := mfacrypto.NewHKDFKeyProvider(bytes.Repeat([]byte{2}, mfacrypto.MasterKeySize))
	require.NoError(t, err)

	key, err := p.Key(mfacrypto.Scope{UserID: 1, Purpose: mfacrypto.PurposeTOTPSecret})
	require.NoError(t, err)
	assert.Len(t, key, 32)

	key[0] ^= 0xFF
	again, err := p.Key(mfacrypto.Scope{UserID: 1, Purpose: mfacrypto.PurposeTOTPSecret})
	require.NoError(t, err)
	assert.NotEqual(t, key, again)

	_, err = p.Key(mfacrypto.Scope{UserID: 1, Purpose: "unknown"})
	require.Error(t, err)
}
