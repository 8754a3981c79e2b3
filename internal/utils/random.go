package utils

import (
	"crypto/rand"
	"math/big"
)

// slugAlphabet deliberately omits ambiguous characters (0/O, 1/l/I).
const slugAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKMNPQRSTUVWXYZ"

// RandomSlug generates a URL-safe short identifier for payment links.
func RandomSlug(length int) string {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slugAlphabet))))
		if err != nil {
			panic(err)
		}
		b[i] = slugAlphabet[num.Int64()]
	}
	return string(b)
}

// RandomNumericString generates a random string containing only digits.
func RandomNumericString(length int) string {
	const digits = "0123456789"
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(digits))))
		if err != nil {
			panic(err)
		}
		b[i] = digits[num.Int64()]
	}
	return string(b)
}
