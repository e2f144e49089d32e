// Package store implements the encrypted vault store: key derivation, the
// authenticated encryption codec, and the locked/unlocked state machine over
// the on-disk vault files.
package store

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// SaltLen is the size of the per-vault key derivation salt.
	SaltLen = 32

	// KeyLen is the size of the derived master key (AES-256).
	KeyLen = 32

	// NonceLen is the AES-GCM nonce size. Every encryption uses a fresh
	// random nonce of exactly this length; reuse under the same key breaks
	// both confidentiality and authenticity.
	NonceLen = 12
)

// KDFParams controls password-based key derivation.
type KDFParams struct {
	// Iterations is the PBKDF2 round count. Higher is slower for attackers
	// and for unlocks alike.
	Iterations int `json:"iterations"`
}

// DefaultKDFParams returns the default derivation parameters:
// PBKDF2-HMAC-SHA256 with 600,000 iterations, per current OWASP guidance.
func DefaultKDFParams() KDFParams {
	return KDFParams{Iterations: 600_000}
}

// GenerateSalt returns a fresh random key-derivation salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey derives a 256-bit key from a passphrase and salt. Deterministic:
// the same inputs always reproduce the key minted at initialization.
func DeriveKey(password, salt []byte, params KDFParams) []byte {
	iterations := params.Iterations
	if iterations <= 0 {
		iterations = DefaultKDFParams().Iterations
	}
	return pbkdf2.Key(password, salt, iterations, KeyLen, sha256.New)
}

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Seal encrypts plaintext with AES-256-GCM and returns nonce‖ciphertext‖tag.
// The nonce is freshly random on every call.
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceLen)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// Open decrypts a nonce‖ciphertext‖tag blob produced by Seal. A wrong key
// and a tampered blob fail identically; callers learn nothing about which.
func Open(key, blob []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(blob) < NonceLen {
		return nil, errDecrypt
	}
	nonce, ct := blob[:NonceLen], blob[NonceLen:]

	plaintext, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, errDecrypt
	}
	return plaintext, nil
}

// errDecrypt is the single failure every bad decryption collapses into.
var errDecrypt = fmt.Errorf("decryption failed")

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	return cipher.NewGCM(block)
}
