package common

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

// MakeRandHexString returns size random bytes encoded as hex, so the result
// is twice as long as size.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateRandByteArray returns size bytes from crypto/rand. It panics if the
// system randomness source fails, which crypto/rand documents as fatal anyway.
func GenerateRandByteArray(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// WipeByteArray zeroes b in place. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

var codeFloor = big.NewInt(100000)
var codeSpan = big.NewInt(900000)

// NewVerificationCode returns a uniformly random 6-digit numeric code in
// 100000..999999.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Add(n, codeFloor)), nil
}
