package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateChallengeToken(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token, err := GenerateChallengeToken(ChallengeTokenLength)
		require.NoError(t, err)
		assert.Len(t, token, 8)
		for _, r := range token {
			assert.True(t, strings.ContainsRune(challengeAlphabet, r), "unexpected rune %q", r)
		}
		seen[token] = struct{}{}
	}
	assert.Greater(t, len(seen), 95)

	token, err := GenerateChallengeToken(0)
	require.NoError(t, err)
	assert.Len(t, token, ChallengeTokenLength)
}
