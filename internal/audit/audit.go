// Package audit maintains the vault's append-only event trail as
// newline-delimited JSON. Entries name operations and category/key names
// only; secret values must never reach this package.
package audit

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
)

// Event names recorded in the audit log.
const (
	EventVaultCreated    = "VAULT_CREATED"
	EventVaultUnlocked   = "VAULT_UNLOCKED"
	EventUnlockFailed    = "UNLOCK_FAILED"
	EventVaultLocked     = "VAULT_LOCKED"
	EventSecretAdded     = "SECRET_ADDED"
	EventSecretDeleted   = "SECRET_DELETED"
	EventSecretRotated   = "SECRET_ROTATED"
	EventPasswordChanged = "PASSWORD_CHANGED"
	EventVaultBackedUp   = "VAULT_BACKED_UP"
	EventVaultRestored   = "VAULT_RESTORED"
	EventVaultWiped      = "VAULT_WIPED"
	EventSecretsExported = "SECRETS_EXPORTED"
	EventSecretsImported = "SECRETS_IMPORTED"
	EventOperationFailed = "OPERATION_FAILED"
)

// Entry is a single audit record.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"` // RFC3339 with microseconds, UTC.
	Event     string         `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
}

// Logger appends entries to one audit log file.
type Logger struct {
	path string
}

// NewLogger creates a logger writing to path.
func NewLogger(path string) *Logger {
	return &Logger{path: path}
}

// Path returns the audit log file path.
func (l *Logger) Path() string {
	return l.path
}

// Log appends one event. Failures are swallowed: an operation must never
// fail just because its audit record could not be written.
func (l *Logger) Log(event string, data map[string]any) {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000000Z"),
		Event:     event,
		Data:      data,
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = f.Write(append(line, '\n'))
}

// Read returns all entries in the log, oldest first. A missing log yields an
// empty slice.
func (l *Logger) Read() ([]Entry, error) {
	data, err := os.ReadFile(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data), nil
}

// Tail returns the most recent entries, newest first, capped at limit.
// A non-positive limit returns everything.
func (l *Logger) Tail(limit int) ([]Entry, error) {
	entries, err := l.Read()
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Parse decodes JSON Lines data into entries. Malformed lines are skipped so
// one damaged record cannot poison the whole trail.
func Parse(data []byte) []Entry {
	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries
}
