package hash_test

import (
	"testing"

	"github.com/shandysiswandi/mfacore/internal/pkg/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSHA256(t *testing.T) {
	t.Parallel()

	h := hash.NewHMACSHA256([]byte("key"))

	digest, err := h.Hash("The quick brown fox jumps over the lazy dog")
	require.NoError(t, err)
	assert.Equal(t, "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", string(digest))

	assert.True(t, h.Verify(string(digest), "The quick brown fox jumps over the lazy dog"))
	assert.False(t, h.Verify(string(digest), "The quick brown fox jumps over the lazy cat"))
	assert.False(t, hash.NewHMACSHA256([]byte("other")).Verify(string(digest), "The quick brown fox jumps over the lazy dog"))
}
