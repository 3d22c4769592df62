package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	ChallengeTokenLength = 8
	challengeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// GenerateChallengeToken returns a random alphanumeric string of the given length.
func GenerateChallengeToken(length int) (string, error) {
	if length <= 0 {
		length = ChallengeTokenLength
	}

	max := big.NewInt(int64(len(challengeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate challenge token: %w", err)
		}
		buf[i] = challengeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
