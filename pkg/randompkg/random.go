// Package randompkg provides functionality for generating random application common items.
package randompkg

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	alphabet         = "abcdefghijklmnopqrstuvwxyz"
	currencyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// Int64Between generates a random int64 between min and max.
func Int64Between(min, max int64) int64 {
	return min + Intn(int(max-min))
}

// String generates a random lowercase string of length n.
func String(n int) string {
	var sb strings.Builder

	k := len(alphabet)

	for i := 0; i < n; i++ {
		c := alphabet[Intn(k)]

		_ = sb.WriteByte(c) // The returned err is always nil.
	}

	return sb.String()
}

// Currency generates a random three-letter currency code.
func Currency() string {
	var sb strings.Builder

	k := len(currencyAlphabet)

	for i := 0; i < 3; i++ {
		c := currencyAlphabet[Intn(k)]

		_ = sb.WriteByte(c)
	}

	return sb.String()
}

// IdempotencyKey generates a random idempotency key.
func IdempotencyKey() string {
	return String(16)
}
