// Package cryptox wraps the primitives used for stored credentials and for
// sealing the client's session slot.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/insightpulse/internal/common"
	"golang.org/x/crypto/argon2"
)

const saltSize = 16

var ErrCiphertextTooShort = errors.New("ciphertext too short")

// DeriveKey stretches a password with argon2id into a 32-byte key.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier hashes a derived key so the key itself is never stored.
func MakeVerifier(key []byte) []byte {
	sum := sha256.Sum256(key)
	return sum[:]
}

// HashPassword returns a fresh salt and the verifier for password under it.
func HashPassword(password string) (salt, verifier []byte) {
	salt = common.GenerateRandByteArray(saltSize)
	key := DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(key)
	return salt, MakeVerifier(key)
}

// CheckPassword reports whether password produces verifier under salt.
func CheckPassword(password string, salt, verifier []byte) bool {
	if len(salt) == 0 || len(verifier) == 0 {
		return false
	}
	key := DeriveKey([]byte(password), salt)
	defer common.WipeByteArray(key)
	return subtle.ConstantTimeCompare(MakeVerifier(key), verifier) == 1
}

// SlotKey turns an arbitrary passphrase into an AES-256 key.
func SlotKey(passphrase string) []byte {
	sum := sha256.Sum256([]byte(passphrase))
	return sum[:]
}

// Seal encrypts plaintext with AES-GCM. The random nonce is prepended to the
// returned ciphertext.
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := common.GenerateRandByteArray(aead.NonceSize())
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open reverses Seal.
func Open(key, sealed []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	n := aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrCiphertextTooShort
	}
	return aead.Open(nil, sealed[:n], sealed[n:], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
