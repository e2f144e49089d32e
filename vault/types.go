package vault

import (
	"encoding/json"
	"time"
)

// SecretEntry is a single stored credential, keyed by (category, key).
type SecretEntry struct {
	// Value is the secret material itself.
	Value string `json:"value"`

	// Added is when the entry was written.
	Added *Timestamp `json:"added"`

	// Type is the caller-declared kind of secret (e.g. "api_key", "password").
	Type string `json:"type"`

	// Metadata carries caller-defined annotations. Never interpreted by the
	// vault itself.
	Metadata map[string]any `json:"metadata"`
}

// Metadata describes the vault as a whole. It lives inside the encrypted
// payload, next to the secrets.
type Metadata struct {
	// AccessCount increments once per successful unlock, not per read.
	AccessCount int `json:"access_count"`

	// LastAccess is the time of the most recent successful unlock.
	LastAccess *Timestamp `json:"last_access"`

	// LastRotation is the time of the most recent secret rotation.
	LastRotation *Timestamp `json:"last_rotation"`

	// SecretCount is the number of live entries across all categories.
	SecretCount int `json:"secret_count"`
}

// HealthStatus is the overall outcome of a health check.
type HealthStatus string

const (
	HealthHealthy HealthStatus = "healthy"
	HealthWarning HealthStatus = "warning"
	HealthError   HealthStatus = "error"
)

// HealthReport is the result of a read-only vault health check.
type HealthReport struct {
	Status   HealthStatus `json:"status"`
	Issues   []string     `json:"issues"`
	Warnings []string     `json:"warnings"`
}

// SearchMatch is one hit from a key-name search. Values are never searched,
// so a match exposes nothing sensitive.
type SearchMatch struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Path     string `json:"path"` // "<category>/<key>"
}

// RestoreResult reports what a backup restore changed in the target vault.
type RestoreResult struct {
	// Restored is the number of entries written from the backup.
	Restored int `json:"restored"`

	// Overwritten lists the "<category>/<key>" paths that already existed in
	// the target and were replaced by the backup's value.
	Overwritten []string `json:"overwritten"`
}

// ImportFailure records one entry a bulk import could not store.
type ImportFailure struct {
	Category string `json:"category"`
	Key      string `json:"key"`
	Reason   string `json:"reason"`
}

// ImportResult reports the outcome of a bulk import. A failed entry never
// aborts the batch.
type ImportResult struct {
	Imported int             `json:"imported"`
	Failures []ImportFailure `json:"failures,omitempty"`
}

// AuditEvent is one record from the vault's append-only audit trail. Data
// holds category/key names, counts, and error strings only; secret values
// never appear.
type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
}

// BackupInfo describes one encrypted backup artifact on disk.
type BackupInfo struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`
}

// Timestamp wraps time.Time to provide stable RFC3339 JSON marshaling.
type Timestamp struct {
	time.Time
}

// NewTimestamp creates a new Timestamp from a time.Time.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// Now returns a Timestamp for the current time in UTC.
func Now() *Timestamp {
	return &Timestamp{Time: time.Now().UTC()}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
