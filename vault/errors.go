package vault

import (
	"errors"
	"fmt"
)

// Standard errors returned by the vault store and manager.
var (
	// ErrAlreadyInitialized is returned when initializing over an existing
	// vault. The caller must destroy the vault explicitly first.
	ErrAlreadyInitialized = errors.New("vault already initialized")

	// ErrNotInitialized is returned when operating on a vault that has never
	// been initialized.
	ErrNotInitialized = errors.New("vault not initialized")

	// ErrVaultLocked is returned by any operation that needs the master key
	// while the vault is locked.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrAuthenticationFailed is returned when a password does not decrypt
	// the vault. Deliberately carries no detail: a wrong password and a
	// tampered file are indistinguishable.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrSecretNotFound is returned when a secret does not exist.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrInvalidConfirmation is returned when an emergency wipe is requested
	// without the exact confirmation phrase.
	ErrInvalidConfirmation = errors.New("invalid wipe confirmation")

	// ErrBackupNotFound is returned when a backup file does not exist or is
	// too short to be a valid backup artifact.
	ErrBackupNotFound = errors.New("backup not found")
)

// VaultError is a structured error with additional context.
type VaultError struct {
	// Op is the operation that failed (e.g. "AddSecret", "Unlock").
	Op string

	// Category and Key identify the secret involved, when any. Values never
	// appear here.
	Category string
	Key      string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	if e.Category != "" && e.Key != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Category, e.Key, e.Err)
	}
	if e.Category != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Category, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *VaultError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target.
func (e *VaultError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewVaultError creates a new VaultError.
func NewVaultError(op, category, key string, err error) *VaultError {
	return &VaultError{
		Op:       op,
		Category: category,
		Key:      key,
		Err:      err,
	}
}
