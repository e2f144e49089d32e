// Package vault defines the public types and the store contract for the
// encrypted credential vault. External collaborators (secret scanners,
// bootstrap scripts, CLI tooling) program against this package without
// depending on the storage internals.
package vault

// HistoryPrefix marks the reserved category convention for rotation history:
// "_history_<category>" holds rotated-out versions of "<category>".
const HistoryPrefix = "_history_"

// HistoryCategory returns the companion history category for a category.
func HistoryCategory(category string) string {
	return HistoryPrefix + category
}

// Store is the contract of the vault store. The manager layer is built
// entirely on this surface, never on storage internals.
//
// A Store instance is safe for concurrent use within one process, but the
// on-disk vault has no cross-process locking: at most one process may mutate
// a given vault directory at a time.
type Store interface {
	// Exists reports whether the vault files are present on disk.
	Exists() bool

	// IsLocked reports whether the master key is absent from memory.
	IsLocked() bool

	// Initialize creates a new empty vault protected by password.
	// Returns ErrAlreadyInitialized if vault files are already present.
	// The vault is left locked.
	Initialize(password string) error

	// Unlock derives the master key and decrypts the vault. A wrong password
	// or a tampered vault file yields (false, nil) with no further detail.
	// Returns ErrNotInitialized if the vault does not exist.
	Unlock(password string) (bool, error)

	// Lock wipes the in-memory key and cached plaintext. Always succeeds and
	// is idempotent.
	Lock()

	// ChangePassword re-encrypts the vault under a new password with a fresh
	// salt. Requires the vault to be unlocked with the old password.
	ChangePassword(oldPassword, newPassword string) error

	// AddSecret stores value under (category, key), overwriting any existing
	// entry. secretType and metadata may be empty.
	AddSecret(category, key, value, secretType string, metadata map[string]any) error

	// GetSecret returns the value at (category, key), or fallback if the
	// entry does not exist. Absence is not an error.
	GetSecret(category, key, fallback string) (string, error)

	// GetEntry returns the full entry at (category, key).
	// Returns ErrSecretNotFound if absent.
	GetEntry(category, key string) (*SecretEntry, error)

	// DeleteSecret removes the entry at (category, key).
	// Returns ErrSecretNotFound if absent.
	DeleteSecret(category, key string) error

	// ListSecrets returns key names per category. Values are never included,
	// so the result is safe to enumerate or log.
	ListSecrets() (map[string][]string, error)

	// GetAllSecrets returns decrypted entries. An empty category selects
	// every category.
	GetAllSecrets(category string) (map[string]map[string]SecretEntry, error)

	// Metadata returns a copy of the vault metadata.
	Metadata() (*Metadata, error)

	// MarkRotated records the time of a completed rotation in the vault
	// metadata.
	MarkRotated() error

	// Dir returns the vault directory path.
	Dir() string
}
