package agentvault

import "github.com/executiveusa/agentvault/vault"

// Re-export types from the vault package for convenience. Users can import
// just "agentvault" instead of "agentvault/vault".

// SecretEntry is a single stored credential.
type SecretEntry = vault.SecretEntry

// Metadata describes the vault as a whole.
type Metadata = vault.Metadata

// HealthReport is the result of a vault health check.
type HealthReport = vault.HealthReport

// HealthStatus is the overall outcome of a health check.
type HealthStatus = vault.HealthStatus

// Health check outcomes.
const (
	HealthHealthy = vault.HealthHealthy
	HealthWarning = vault.HealthWarning
	HealthError   = vault.HealthError
)

// SearchMatch is one hit from a key-name search.
type SearchMatch = vault.SearchMatch

// RestoreResult reports what a backup restore changed.
type RestoreResult = vault.RestoreResult

// ImportResult reports the outcome of a bulk import.
type ImportResult = vault.ImportResult

// ImportFailure records one entry a bulk import could not store.
type ImportFailure = vault.ImportFailure

// BackupInfo describes one encrypted backup artifact.
type BackupInfo = vault.BackupInfo

// AuditEvent is one record from the audit trail.
type AuditEvent = vault.AuditEvent

// Timestamp wraps time.Time with stable RFC3339 JSON marshaling.
type Timestamp = vault.Timestamp

// VaultError is a structured error with operation context.
type VaultError = vault.VaultError

// HistoryCategory returns the companion history category for a category.
func HistoryCategory(category string) string {
	return vault.HistoryCategory(category)
}

// Now returns a Timestamp for the current time in UTC.
func Now() *Timestamp {
	return vault.Now()
}
