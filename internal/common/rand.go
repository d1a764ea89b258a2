package common

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// TokenByteLength is the amount of randomness behind every opaque
// identifier (user, session, job). 16 bytes hex-encode to 32 characters.
const TokenByteLength = 16

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string, so the final string length is twice
// the size. It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// MakeRandDigits generates a random numeric string of exactly n digits,
// leading zeros included. Used for email verification codes.
func MakeRandDigits(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}

// GenerateRandByteArray returns size cryptographically random bytes.
// Failures of the system RNG are not recoverable, so it panics.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
