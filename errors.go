package agentvault

import "github.com/executiveusa/agentvault/vault"

// Re-export common errors from the vault package for convenience.
var (
	ErrAlreadyInitialized   = vault.ErrAlreadyInitialized
	ErrNotInitialized       = vault.ErrNotInitialized
	ErrVaultLocked          = vault.ErrVaultLocked
	ErrAuthenticationFailed = vault.ErrAuthenticationFailed
	ErrSecretNotFound       = vault.ErrSecretNotFound
	ErrInvalidConfirmation  = vault.ErrInvalidConfirmation
	ErrBackupNotFound       = vault.ErrBackupNotFound
)
