// Package agentvault provides an encrypted, password-protected local store
// for credentials (API keys, tokens, passwords) used by an automation
// platform.
//
// A vault is a directory holding a salt file, an AEAD-encrypted vault file,
// an append-only audit log, and optional encrypted backups. The master key
// is derived from the passphrase on every unlock and lives only in process
// memory until Lock or exit.
//
// Basic usage:
//
//	client := agentvault.New("/path/to/vault")
//	defer client.Close()
//
//	if err := client.Initialize("Correct-Horse-12"); err != nil {
//	    log.Fatal(err)
//	}
//	ok, err := client.Unlock("Correct-Horse-12")
//	if err != nil || !ok {
//	    log.Fatal("unlock failed")
//	}
//	_ = client.AddSecret("llm", "anthropic_api_key", "sk-abc")
//	value, _ := client.GetSecret("llm", "anthropic_api_key", "")
//
// One Client per vault directory per process; nothing serializes other
// processes against the same directory. Callers should hold Unlock only as
// long as needed and Lock on every exit path.
package agentvault

import (
	"log/slog"

	"github.com/executiveusa/agentvault/internal/keywrap"
	"github.com/executiveusa/agentvault/internal/store"
	"github.com/executiveusa/agentvault/vault"
)

// KeyWrapService is the service name registered with the OS credential
// store when platform key wrapping is enabled.
const KeyWrapService = "agentvault"

// Options holds configuration for creating a new Client. The zero value is
// usable; DefaultOptions spells out the defaults.
type Options struct {
	// KDFIterations is the PBKDF2 round count for key derivation.
	// Defaults to 600,000.
	KDFIterations int

	// HistoryRetention caps how many rotated-out values are kept per secret.
	// Zero keeps all history forever.
	HistoryRetention int

	// PlatformKeyWrap wraps the salt and vault files with a machine-bound
	// key from the OS credential store, when one is available. Off by
	// default; vaults work identically either way.
	PlatformKeyWrap bool

	// Logger is an optional structured logger. Log records never contain
	// secret values.
	Logger *slog.Logger
}

// DefaultOptions returns the default client configuration.
func DefaultOptions() Options {
	return Options{
		KDFIterations:    store.DefaultKDFParams().Iterations,
		HistoryRetention: 0,
		PlatformKeyWrap:  false,
	}
}

// Client owns one vault directory: the store with its lock state machine and
// the manager layered on top of it.
type Client struct {
	store   *store.Store
	manager *Manager
}

// New creates a Client for the vault at dir with default options. The
// directory is only created by Initialize.
func New(dir string) *Client {
	return NewWithOptions(dir, DefaultOptions())
}

// NewWithOptions creates a Client for the vault at dir.
func NewWithOptions(dir string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	wrap := keywrap.Identity()
	if opts.PlatformKeyWrap {
		wrap = keywrap.New(KeyWrapService, logger)
	}

	kdf := store.KDFParams{Iterations: opts.KDFIterations}
	s := store.New(dir, store.Options{
		KDF:     kdf,
		KeyWrap: wrap,
		Logger:  logger,
	})

	return &Client{
		store:   s,
		manager: NewManager(s, kdf, opts.HistoryRetention, logger),
	}
}

// Store returns the underlying store contract.
func (c *Client) Store() vault.Store {
	return c.store
}

// Manager returns the administrative layer.
func (c *Client) Manager() *Manager {
	return c.manager
}

// Dir returns the vault directory path.
func (c *Client) Dir() string {
	return c.store.Dir()
}

// Exists reports whether the vault files are present on disk.
func (c *Client) Exists() bool {
	return c.store.Exists()
}

// IsLocked reports whether the vault is locked.
func (c *Client) IsLocked() bool {
	return c.store.IsLocked()
}

// Initialize creates a new empty vault protected by password and leaves it
// locked. Fails with ErrAlreadyInitialized if the vault exists.
func (c *Client) Initialize(password string) error {
	return c.store.Initialize(password)
}

// Unlock opens the vault. Returns (false, nil) on a wrong password or a
// tampered vault file, without distinguishing the two.
func (c *Client) Unlock(password string) (bool, error) {
	return c.store.Unlock(password)
}

// Lock wipes the in-memory key. Always succeeds, idempotent.
func (c *Client) Lock() {
	c.store.Lock()
}

// ChangePassword re-encrypts the vault under a new password.
func (c *Client) ChangePassword(oldPassword, newPassword string) error {
	return c.store.ChangePassword(oldPassword, newPassword)
}

// AddSecret stores value under (category, key) with no declared type or
// metadata.
func (c *Client) AddSecret(category, key, value string) error {
	return c.store.AddSecret(category, key, value, "", nil)
}

// AddSecretEntry stores value with a declared type and caller metadata.
func (c *Client) AddSecretEntry(category, key, value, secretType string, metadata map[string]any) error {
	return c.store.AddSecret(category, key, value, secretType, metadata)
}

// GetSecret returns the value at (category, key), or fallback when absent.
func (c *Client) GetSecret(category, key, fallback string) (string, error) {
	return c.store.GetSecret(category, key, fallback)
}

// GetEntry returns the full entry at (category, key).
func (c *Client) GetEntry(category, key string) (*vault.SecretEntry, error) {
	return c.store.GetEntry(category, key)
}

// DeleteSecret removes the entry at (category, key).
func (c *Client) DeleteSecret(category, key string) error {
	return c.store.DeleteSecret(category, key)
}

// ListSecrets returns key names per category, never values.
func (c *Client) ListSecrets() (map[string][]string, error) {
	return c.store.ListSecrets()
}

// GetAllSecrets returns decrypted entries; empty category selects all.
func (c *Client) GetAllSecrets(category string) (map[string]map[string]vault.SecretEntry, error) {
	return c.store.GetAllSecrets(category)
}

// GetMetadata returns a copy of the vault metadata.
func (c *Client) GetMetadata() (*vault.Metadata, error) {
	return c.store.Metadata()
}

// RotateSecret replaces the live value after preserving the old one under
// the history category.
func (c *Client) RotateSecret(category, key, newValue string) error {
	return c.manager.RotateSecret(category, key, newValue)
}

// BackupVault writes an encrypted snapshot protected by backupPassword.
func (c *Client) BackupVault(backupPassword, dir string) (string, error) {
	return c.manager.BackupVault(backupPassword, dir)
}

// RestoreVault merges a backup into the unlocked vault.
func (c *Client) RestoreVault(file, backupPassword string) (*vault.RestoreResult, error) {
	return c.manager.RestoreVault(file, backupPassword)
}

// EmergencyWipe irreversibly destroys the vault. Requires WipeConfirmation.
func (c *Client) EmergencyWipe(confirmation string) error {
	return c.manager.EmergencyWipe(confirmation)
}

// HealthCheck inspects the vault without mutating it.
func (c *Client) HealthCheck() *vault.HealthReport {
	return c.manager.HealthCheck()
}

// SearchSecrets scans key names for query.
func (c *Client) SearchSecrets(query string, caseSensitive bool) ([]vault.SearchMatch, error) {
	return c.manager.SearchSecrets(query, caseSensitive)
}

// BulkImport stores every entry of mapping, tolerating individual failures.
func (c *Client) BulkImport(mapping map[string]map[string]string) (*vault.ImportResult, error) {
	return c.manager.BulkImport(mapping)
}

// ExportSecrets writes decrypted secrets as PLAINTEXT JSON to path. See
// Manager.ExportSecrets for the warning this deserves.
func (c *Client) ExportSecrets(path string, categories ...string) error {
	return c.manager.ExportSecrets(path, categories...)
}

// AuditEvents returns recent audit records, newest first.
func (c *Client) AuditEvents(limit int) ([]vault.AuditEvent, error) {
	return c.manager.AuditEvents(limit)
}

// Close locks the vault.
func (c *Client) Close() error {
	c.store.Lock()
	return nil
}
