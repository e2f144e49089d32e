// Package keywrap adds an optional second protection layer around the
// vault's on-disk artifacts using the operating system's credential store
// (Keychain on macOS, Secret Service on Linux, Credential Manager on
// Windows). A machine-bound wrapping key lives in the OS store and encrypts
// the salt file and the vault file's outer envelope.
//
// The wrap layer never sees the vault's master key or the inner AEAD
// plaintext. On platforms without a usable credential store the layer
// degrades to the identity transform.
package keywrap

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"github.com/99designs/keyring"
)

// magic prefixes every wrapped blob so Unwrap can tell wrapped data from raw
// data written by a vault that ran without a credential store.
var magic = []byte("AVWRAP1\x00")

const (
	wrapKeyName = "vault-wrap-key"
	wrapKeyLen  = 32
)

// Wrapper encrypts and decrypts small on-disk blobs.
type Wrapper interface {
	// Wrap encrypts b. Identity wrappers return b unchanged.
	Wrap(b []byte) ([]byte, error)

	// Unwrap reverses Wrap. Blobs that were never wrapped pass through
	// unchanged.
	Unwrap(b []byte) ([]byte, error)

	// Active reports whether a real platform key is in use.
	Active() bool
}

// New returns a Wrapper backed by the OS credential store under the given
// service name. When no store is usable the identity wrapper is returned and
// a warning is logged; vault operation continues with one protection layer.
func New(service string, logger *slog.Logger) Wrapper {
	if logger == nil {
		logger = slog.Default()
	}

	ring, err := keyring.Open(keyring.Config{
		ServiceName: service,
	})
	if err != nil {
		logger.Warn("platform credential store unavailable, key wrap disabled", "error", err)
		return Identity()
	}

	key, err := loadOrCreateKey(ring)
	if err != nil {
		logger.Warn("platform key wrap disabled", "error", err)
		return Identity()
	}

	return &platformWrapper{key: key}
}

// loadOrCreateKey fetches the wrapping key from the credential store,
// generating and persisting a fresh one on first use.
func loadOrCreateKey(ring keyring.Keyring) ([]byte, error) {
	item, err := ring.Get(wrapKeyName)
	if err == nil {
		if len(item.Data) != wrapKeyLen {
			return nil, fmt.Errorf("stored wrapping key has length %d, want %d", len(item.Data), wrapKeyLen)
		}
		return item.Data, nil
	}
	if !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("read wrapping key: %w", err)
	}

	key := make([]byte, wrapKeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate wrapping key: %w", err)
	}

	err = ring.Set(keyring.Item{
		Key:         wrapKeyName,
		Data:        key,
		Label:       "agentvault wrapping key",
		Description: "machine-bound key wrapping local vault files",
	})
	if err != nil {
		return nil, fmt.Errorf("store wrapping key: %w", err)
	}

	return key, nil
}

// platformWrapper encrypts blobs with AES-256-GCM under the machine-bound
// wrapping key.
type platformWrapper struct {
	key []byte
}

func (w *platformWrapper) Active() bool { return true }

func (w *platformWrapper) Wrap(b []byte) ([]byte, error) {
	aead, err := newGCM(w.key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate wrap nonce: %w", err)
	}

	out := make([]byte, 0, len(magic)+len(nonce)+len(b)+aead.Overhead())
	out = append(out, magic...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, b, nil)
	return out, nil
}

func (w *platformWrapper) Unwrap(b []byte) ([]byte, error) {
	if !bytes.HasPrefix(b, magic) {
		// Written before the wrap layer was available.
		return b, nil
	}

	aead, err := newGCM(w.key)
	if err != nil {
		return nil, err
	}

	rest := b[len(magic):]
	if len(rest) < aead.NonceSize() {
		return nil, errors.New("wrapped blob too short")
	}

	nonce, ct := rest[:aead.NonceSize()], rest[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("unwrap failed: %w", err)
	}
	return plain, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Identity returns the pass-through wrapper.
func Identity() Wrapper {
	return identityWrapper{}
}

type identityWrapper struct{}

func (identityWrapper) Active() bool                    { return false }
func (identityWrapper) Wrap(b []byte) ([]byte, error)   { return b, nil }
func (identityWrapper) Unwrap(b []byte) ([]byte, error) { return b, nil }
