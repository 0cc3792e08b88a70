package common

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// RandomString returns n symbols drawn uniformly from alphabet using
// crypto/rand.
func RandomString(alphabet string, n int) (string, error) {
	if len(alphabet) == 0 {
		return "", errors.New("empty alphabet")
	}

	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// Redact keeps the first visible characters of s and masks the rest, so
// secrets can appear in logs without being usable.
func Redact(s string, visible int) string {
	if visible < 0 {
		visible = 0
	}
	if len(s) <= visible {
		return s
	}
	return s[:visible] + "…"
}
