package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/executiveusa/agentvault/internal/audit"
	"github.com/executiveusa/agentvault/internal/keywrap"
	"github.com/executiveusa/agentvault/internal/secmem"
	"github.com/executiveusa/agentvault/vault"
)

// PayloadVersion is the version of the encrypted payload format.
const PayloadVersion = 1

// DefaultSecretType is recorded for entries added without a declared type.
const DefaultSecretType = "generic"

// Options configures a Store.
type Options struct {
	// KDF are the key derivation parameters. Zero value means defaults.
	KDF KDFParams

	// KeyWrap is the platform wrap applied to the salt file and the vault
	// file's outer envelope. Nil means identity (no second layer).
	KeyWrap keywrap.Wrapper

	// Logger receives operational (never secret-bearing) log records.
	Logger *slog.Logger
}

// payload is the complete decrypted state of a vault. The whole payload is
// the unit of consistency: every mutation decrypts, rewrites, and re-encrypts
// it in full.
type payload struct {
	Version  int                                     `json:"version"`
	Created  *vault.Timestamp                        `json:"created"`
	Secrets  map[string]map[string]vault.SecretEntry `json:"secrets"`
	Metadata vault.Metadata                          `json:"metadata"`
}

func newPayload() *payload {
	return &payload{
		Version: PayloadVersion,
		Created: vault.Now(),
		Secrets: make(map[string]map[string]vault.SecretEntry),
	}
}

// countSecrets tallies entries across all categories, history included.
func (p *payload) countSecrets() int {
	n := 0
	for _, entries := range p.Secrets {
		n += len(entries)
	}
	return n
}

// Store owns one vault directory and its locked/unlocked state machine:
// NonExistent → Locked ⇄ Unlocked.
//
// The mutex serializes callers within this process; nothing serializes other
// processes, so at most one process may mutate a vault directory at a time.
type Store struct {
	mu      sync.RWMutex
	paths   *Paths
	kdf     KDFParams
	wrap    keywrap.Wrapper
	logger  *slog.Logger
	audit   *audit.Logger
	key     *secmem.Buffer // derived master key, nil while locked
	salt    []byte
	payload *payload // decrypted state, nil while locked
}

// New creates a Store over the given vault directory. The directory and its
// files are only created by Initialize.
func New(dir string, opts Options) *Store {
	if opts.KDF.Iterations <= 0 {
		opts.KDF = DefaultKDFParams()
	}
	if opts.KeyWrap == nil {
		opts.KeyWrap = keywrap.Identity()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	paths := PathsFor(dir)
	return &Store{
		paths:  paths,
		kdf:    opts.KDF,
		wrap:   opts.KeyWrap,
		logger: opts.Logger,
		audit:  audit.NewLogger(paths.AuditFile),
	}
}

// Dir returns the vault directory path.
func (s *Store) Dir() string {
	return s.paths.Dir
}

// Exists reports whether the vault files are present on disk.
func (s *Store) Exists() bool {
	return s.paths.Exists()
}

// IsLocked reports whether the master key is absent from memory.
func (s *Store) IsLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key == nil
}

// Initialize creates a new empty vault protected by password and leaves it
// locked. Refuses to touch an existing vault.
func (s *Store) Initialize(password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paths.Exists() {
		return vault.NewVaultError("Initialize", "", "", vault.ErrAlreadyInitialized)
	}

	if err := s.paths.EnsureDir(); err != nil {
		return s.failLocked("Initialize", "", "", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return s.failLocked("Initialize", "", "", err)
	}

	key := DeriveKey([]byte(password), salt, s.kdf)
	defer secmem.Zero(key)

	if err := s.writeSalt(salt); err != nil {
		return s.failLocked("Initialize", "", "", err)
	}
	if err := s.writePayload(key, newPayload()); err != nil {
		return s.failLocked("Initialize", "", "", err)
	}

	s.audit.Log(audit.EventVaultCreated, map[string]any{
		"kdf_iterations": s.kdf.Iterations,
		"key_wrap":       s.wrap.Active(),
	})
	s.logger.Info("vault initialized", "dir", s.paths.Dir)
	return nil
}

// Unlock derives the master key and decrypts the vault. Returns (false, nil)
// on a wrong password or a tampered file; which of the two it was is
// deliberately withheld. Success updates access metadata and re-persists.
func (s *Store) Unlock(password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key != nil {
		// Already unlocked. The password must still be right before this
		// counts as another access.
		key := DeriveKey([]byte(password), s.salt, s.kdf)
		match := secmem.Equal(key, s.key.Bytes())
		secmem.Zero(key)
		if !match {
			s.audit.Log(audit.EventUnlockFailed, nil)
			return false, nil
		}
		s.payload.Metadata.AccessCount++
		s.payload.Metadata.LastAccess = vault.Now()
		if err := s.writePayload(s.key.Bytes(), s.payload); err != nil {
			return false, s.failLocked("Unlock", "", "", err)
		}
		s.audit.Log(audit.EventVaultUnlocked, map[string]any{
			"access_count": s.payload.Metadata.AccessCount,
		})
		return true, nil
	}

	if !s.paths.Exists() {
		return false, vault.NewVaultError("Unlock", "", "", vault.ErrNotInitialized)
	}

	salt, err := s.readSalt()
	if err != nil {
		return false, s.failLocked("Unlock", "", "", err)
	}

	key := DeriveKey([]byte(password), salt, s.kdf)

	p, err := s.readPayload(key)
	if err != nil {
		secmem.Zero(key)
		if errors.Is(err, errDecrypt) {
			s.audit.Log(audit.EventUnlockFailed, nil)
			s.logger.Warn("unlock failed", "dir", s.paths.Dir)
			return false, nil
		}
		return false, s.failLocked("Unlock", "", "", err)
	}

	p.Metadata.AccessCount++
	p.Metadata.LastAccess = vault.Now()

	if err := s.writePayload(key, p); err != nil {
		secmem.Zero(key)
		return false, s.failLocked("Unlock", "", "", err)
	}

	s.key = secmem.NewBuffer(key)
	s.salt = salt
	s.payload = p

	s.audit.Log(audit.EventVaultUnlocked, map[string]any{
		"access_count": p.Metadata.AccessCount,
	})
	return true, nil
}

// Lock wipes the in-memory master key and drops the cached plaintext.
// Idempotent; locking a locked vault is a no-op.
func (s *Store) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return
	}

	s.key.Destroy()
	s.key = nil
	secmem.Zero(s.salt)
	s.salt = nil
	s.payload = nil

	s.audit.Log(audit.EventVaultLocked, nil)
}

// ChangePassword re-encrypts the whole vault under a key derived from
// newPassword and a fresh salt. The vault must be unlocked and oldPassword
// must match the key currently held.
func (s *Store) ChangePassword(oldPassword, newPassword string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return vault.NewVaultError("ChangePassword", "", "", vault.ErrVaultLocked)
	}

	oldKey := DeriveKey([]byte(oldPassword), s.salt, s.kdf)
	match := secmem.Equal(oldKey, s.key.Bytes())
	secmem.Zero(oldKey)
	if !match {
		s.audit.Log(audit.EventOperationFailed, map[string]any{
			"op": "ChangePassword", "error": "authentication failed",
		})
		return vault.NewVaultError("ChangePassword", "", "", vault.ErrAuthenticationFailed)
	}

	newSalt, err := GenerateSalt()
	if err != nil {
		return s.failLocked("ChangePassword", "", "", err)
	}
	newKey := DeriveKey([]byte(newPassword), newSalt, s.kdf)

	if err := s.writeSalt(newSalt); err != nil {
		secmem.Zero(newKey)
		return s.failLocked("ChangePassword", "", "", err)
	}
	if err := s.writePayload(newKey, s.payload); err != nil {
		secmem.Zero(newKey)
		return s.failLocked("ChangePassword", "", "", err)
	}

	s.key.Destroy()
	s.key = secmem.NewBuffer(newKey)
	secmem.Zero(s.salt)
	s.salt = newSalt

	s.audit.Log(audit.EventPasswordChanged, nil)
	return nil
}

// AddSecret stores value under (category, key), overwriting any existing
// entry.
func (s *Store) AddSecret(category, key, value, secretType string, metadata map[string]any) error {
	if category == "" || key == "" {
		return vault.NewVaultError("AddSecret", category, key, fmt.Errorf("category and key must be non-empty"))
	}
	if secretType == "" {
		secretType = DefaultSecretType
	}

	return s.mutate("AddSecret", category, key, func(p *payload) error {
		if p.Secrets[category] == nil {
			p.Secrets[category] = make(map[string]vault.SecretEntry)
		}
		p.Secrets[category][key] = vault.SecretEntry{
			Value:    value,
			Added:    vault.Now(),
			Type:     secretType,
			Metadata: metadata,
		}
		return nil
	}, audit.EventSecretAdded)
}

// GetSecret returns the value at (category, key), or fallback when absent.
func (s *Store) GetSecret(category, key, fallback string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return "", vault.NewVaultError("GetSecret", category, key, vault.ErrVaultLocked)
	}

	entry, ok := s.payload.Secrets[category][key]
	if !ok {
		return fallback, nil
	}
	return entry.Value, nil
}

// GetEntry returns the full entry at (category, key).
func (s *Store) GetEntry(category, key string) (*vault.SecretEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, vault.NewVaultError("GetEntry", category, key, vault.ErrVaultLocked)
	}

	entry, ok := s.payload.Secrets[category][key]
	if !ok {
		return nil, vault.NewVaultError("GetEntry", category, key, vault.ErrSecretNotFound)
	}
	cp := copyEntry(entry)
	return &cp, nil
}

// DeleteSecret removes the entry at (category, key).
func (s *Store) DeleteSecret(category, key string) error {
	return s.mutate("DeleteSecret", category, key, func(p *payload) error {
		if _, ok := p.Secrets[category][key]; !ok {
			return vault.ErrSecretNotFound
		}
		delete(p.Secrets[category], key)
		if len(p.Secrets[category]) == 0 {
			delete(p.Secrets, category)
		}
		return nil
	}, audit.EventSecretDeleted)
}

// ListSecrets returns sorted key names per category, never values.
func (s *Store) ListSecrets() (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, vault.NewVaultError("ListSecrets", "", "", vault.ErrVaultLocked)
	}

	out := make(map[string][]string, len(s.payload.Secrets))
	for category, entries := range s.payload.Secrets {
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out[category] = keys
	}
	return out, nil
}

// GetAllSecrets returns decrypted entries. An empty category selects all.
func (s *Store) GetAllSecrets(category string) (map[string]map[string]vault.SecretEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, vault.NewVaultError("GetAllSecrets", category, "", vault.ErrVaultLocked)
	}

	out := make(map[string]map[string]vault.SecretEntry)
	for cat, entries := range s.payload.Secrets {
		if category != "" && cat != category {
			continue
		}
		cp := make(map[string]vault.SecretEntry, len(entries))
		for k, e := range entries {
			cp[k] = copyEntry(e)
		}
		out[cat] = cp
	}
	return out, nil
}

// Metadata returns a copy of the vault metadata.
func (s *Store) Metadata() (*vault.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.key == nil {
		return nil, vault.NewVaultError("Metadata", "", "", vault.ErrVaultLocked)
	}

	meta := s.payload.Metadata
	return &meta, nil
}

// MarkRotated stamps the metadata's last rotation time during the next
// mutation cycle. Called by the manager as part of rotation.
func (s *Store) MarkRotated() error {
	return s.mutate("MarkRotated", "", "", func(p *payload) error {
		p.Metadata.LastRotation = vault.Now()
		return nil
	}, "")
}

// mutate runs one full read-modify-write cycle over the entire vault:
// decrypt the file, apply fn, recount, re-encrypt with a fresh nonce,
// atomically overwrite, then append one audit entry. fn returning an error
// aborts the cycle with nothing written.
func (s *Store) mutate(op, category, key string, fn func(p *payload) error, event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.key == nil {
		return vault.NewVaultError(op, category, key, vault.ErrVaultLocked)
	}

	p, err := s.readPayload(s.key.Bytes())
	if err != nil {
		return s.failLocked(op, category, key, err)
	}

	if err := fn(p); err != nil {
		return vault.NewVaultError(op, category, key, err)
	}

	p.Metadata.SecretCount = p.countSecrets()

	if err := s.writePayload(s.key.Bytes(), p); err != nil {
		return s.failLocked(op, category, key, err)
	}
	s.payload = p

	if event != "" {
		data := map[string]any{}
		if category != "" {
			data["category"] = category
		}
		if key != "" {
			data["key"] = key
		}
		s.audit.Log(event, data)
	}
	return nil
}

// failLocked audits a local failure and wraps it. Callers must hold the
// mutex. Per the error contract, failures are logged and surfaced, never
// allowed to panic the host.
func (s *Store) failLocked(op, category, key string, err error) error {
	s.audit.Log(audit.EventOperationFailed, map[string]any{
		"op":    op,
		"error": err.Error(),
	})
	s.logger.Error("vault operation failed", "op", op, "error", err)
	return vault.NewVaultError(op, category, key, err)
}

// writeSalt persists the salt through the platform wrap layer.
func (s *Store) writeSalt(salt []byte) error {
	wrapped, err := s.wrap.Wrap(salt)
	if err != nil {
		return fmt.Errorf("wrap salt: %w", err)
	}
	return writeFileAtomic(s.paths.SaltFile, wrapped, FileMode)
}

// readSalt loads and unwraps the salt file. Losing this file makes the vault
// permanently unrecoverable, correct passphrase or not.
func (s *Store) readSalt() ([]byte, error) {
	raw, err := os.ReadFile(s.paths.SaltFile)
	if err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	salt, err := s.wrap.Unwrap(raw)
	if err != nil {
		return nil, fmt.Errorf("unwrap salt: %w", err)
	}
	if len(salt) != SaltLen {
		return nil, fmt.Errorf("salt has length %d, want %d", len(salt), SaltLen)
	}
	return salt, nil
}

// writePayload encrypts the payload with a fresh nonce, applies the platform
// wrap, and atomically overwrites the vault file.
func (s *Store) writePayload(key []byte, p *payload) error {
	plain, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	defer secmem.Zero(plain)

	blob, err := Seal(key, plain)
	if err != nil {
		return err
	}

	wrapped, err := s.wrap.Wrap(blob)
	if err != nil {
		return fmt.Errorf("wrap vault: %w", err)
	}
	return writeFileAtomic(s.paths.VaultFile, wrapped, FileMode)
}

// readPayload loads, unwraps, and decrypts the vault file.
func (s *Store) readPayload(key []byte) (*payload, error) {
	raw, err := os.ReadFile(s.paths.VaultFile)
	if err != nil {
		return nil, fmt.Errorf("read vault: %w", err)
	}

	blob, err := s.wrap.Unwrap(raw)
	if err != nil {
		return nil, fmt.Errorf("unwrap vault: %w", err)
	}

	plain, err := Open(key, blob)
	if err != nil {
		return nil, err
	}
	defer secmem.Zero(plain)

	var p payload
	if err := json.Unmarshal(plain, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if p.Secrets == nil {
		p.Secrets = make(map[string]map[string]vault.SecretEntry)
	}
	return &p, nil
}

func copyEntry(e vault.SecretEntry) vault.SecretEntry {
	cp := e
	if e.Metadata != nil {
		cp.Metadata = make(map[string]any, len(e.Metadata))
		for k, v := range e.Metadata {
			cp.Metadata[k] = v
		}
	}
	return cp
}
