package agentvault

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/executiveusa/agentvault/internal/audit"
	"github.com/executiveusa/agentvault/internal/secmem"
	"github.com/executiveusa/agentvault/internal/store"
	"github.com/executiveusa/agentvault/vault"
)

// WipeConfirmation is the exact phrase EmergencyWipe requires. Anything else
// leaves the vault untouched.
const WipeConfirmation = "PERMANENTLY DELETE VAULT"

// BackupVersion is the version of the encrypted backup format.
const BackupVersion = 1

const backupTimeLayout = "20060102T150405Z"

// historyTimeLayout has nanosecond resolution so rapid rotations of the same
// key never collide on a history slot. Zero-padded, so lexical order is
// chronological order.
const historyTimeLayout = "20060102T150405.000000000Z"

// backupPayload is the cleartext content of a backup before encryption.
type backupPayload struct {
	Version  int                                     `json:"version"`
	BackedUp *vault.Timestamp                        `json:"backed_up"`
	Secrets  map[string]map[string]vault.SecretEntry `json:"secrets"`
	Metadata vault.Metadata                          `json:"metadata"`
}

// Manager provides the administrative layer over a vault store: rotation
// with history, encrypted backup and restore, emergency destruction, health
// checks, search, bulk import/export, and audit queries. It is built
// entirely on the store's public contract.
type Manager struct {
	store     vault.Store
	paths     *store.Paths
	audit     *audit.Logger
	kdf       store.KDFParams
	retention int
	logger    *slog.Logger
}

// NewManager creates a manager over an existing store. retention caps the
// number of history entries kept per rotated secret; zero keeps everything.
func NewManager(s vault.Store, kdf store.KDFParams, retention int, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	paths := store.PathsFor(s.Dir())
	return &Manager{
		store:     s,
		paths:     paths,
		audit:     audit.NewLogger(paths.AuditFile),
		kdf:       kdf,
		retention: retention,
		logger:    logger,
	}
}

// RotateSecret replaces the live value at (category, key) after preserving
// the current value, if any, under the companion history category
// "_history_<category>" with a timestamp-suffixed key. The history write
// happens before the live slot is touched, so a failure mid-rotation never
// loses the old value.
func (m *Manager) RotateSecret(category, key, newValue string) error {
	prior, err := m.store.GetEntry(category, key)
	if err != nil && !errors.Is(err, vault.ErrSecretNotFound) {
		return err
	}

	secretType := store.DefaultSecretType
	if prior != nil {
		secretType = prior.Type

		histCategory := vault.HistoryCategory(category)
		histKey := fmt.Sprintf("%s_%s", key, time.Now().UTC().Format(historyTimeLayout))
		histMeta := map[string]any{
			"rotated_from": category + "/" + key,
		}
		if err := m.store.AddSecret(histCategory, histKey, prior.Value, secretType, histMeta); err != nil {
			return err
		}

		if m.retention > 0 {
			if err := m.pruneHistory(histCategory, key); err != nil {
				return err
			}
		}
	}

	if err := m.store.AddSecret(category, key, newValue, secretType, nil); err != nil {
		return err
	}
	if err := m.store.MarkRotated(); err != nil {
		return err
	}

	m.audit.Log(audit.EventSecretRotated, map[string]any{
		"category":     category,
		"key":          key,
		"had_previous": prior != nil,
	})
	return nil
}

// pruneHistory drops the oldest history entries for key beyond the
// configured retention. Timestamp-suffixed keys sort chronologically.
func (m *Manager) pruneHistory(histCategory, key string) error {
	listed, err := m.store.ListSecrets()
	if err != nil {
		return err
	}

	prefix := key + "_"
	var versions []string
	for _, histKey := range listed[histCategory] {
		if strings.HasPrefix(histKey, prefix) {
			versions = append(versions, histKey)
		}
	}
	sort.Strings(versions)

	for len(versions) > m.retention {
		if err := m.store.DeleteSecret(histCategory, versions[0]); err != nil {
			return err
		}
		versions = versions[1:]
	}
	return nil
}

// BackupVault writes a full encrypted snapshot of secrets and metadata,
// protected by its own passphrase, never the vault's. The artifact is
// salt‖nonce‖ciphertext and is immutable once written. dir defaults to the
// vault's backups subdirectory. Returns the backup file path.
func (m *Manager) BackupVault(backupPassword, dir string) (string, error) {
	secrets, err := m.store.GetAllSecrets("")
	if err != nil {
		return "", err
	}
	meta, err := m.store.Metadata()
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = m.paths.BackupsDir
	}
	if err := os.MkdirAll(dir, store.DirMode); err != nil {
		return "", m.fail("BackupVault", err)
	}

	snap := backupPayload{
		Version:  BackupVersion,
		BackedUp: vault.Now(),
		Secrets:  secrets,
		Metadata: *meta,
	}
	plain, err := json.Marshal(snap)
	if err != nil {
		return "", m.fail("BackupVault", err)
	}
	defer secmem.Zero(plain)

	salt, err := store.GenerateSalt()
	if err != nil {
		return "", m.fail("BackupVault", err)
	}
	key := store.DeriveKey([]byte(backupPassword), salt, m.kdf)
	defer secmem.Zero(key)

	blob, err := store.Seal(key, plain)
	if err != nil {
		return "", m.fail("BackupVault", err)
	}

	name := fmt.Sprintf("vault_backup_%s.enc", time.Now().UTC().Format(backupTimeLayout))
	path := filepath.Join(dir, name)

	out := make([]byte, 0, len(salt)+len(blob))
	out = append(out, salt...)
	out = append(out, blob...)
	if err := os.WriteFile(path, out, store.FileMode); err != nil {
		return "", m.fail("BackupVault", err)
	}

	m.audit.Log(audit.EventVaultBackedUp, map[string]any{
		"file":         name,
		"secret_count": meta.SecretCount,
	})
	return path, nil
}

// RestoreVault decrypts a backup and re-adds every secret into the already
// unlocked target vault. The merge is additive: keys absent from the backup
// stay untouched, keys present in both are overwritten and reported.
func (m *Manager) RestoreVault(file, backupPassword string) (*vault.RestoreResult, error) {
	raw, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, vault.NewVaultError("RestoreVault", "", "", vault.ErrBackupNotFound)
	}
	if err != nil {
		return nil, m.fail("RestoreVault", err)
	}
	if len(raw) <= store.SaltLen+store.NonceLen {
		return nil, vault.NewVaultError("RestoreVault", "", "", vault.ErrBackupNotFound)
	}

	salt, blob := raw[:store.SaltLen], raw[store.SaltLen:]
	key := store.DeriveKey([]byte(backupPassword), salt, m.kdf)
	defer secmem.Zero(key)

	plain, err := store.Open(key, blob)
	if err != nil {
		return nil, vault.NewVaultError("RestoreVault", "", "", vault.ErrAuthenticationFailed)
	}
	defer secmem.Zero(plain)

	var snap backupPayload
	if err := json.Unmarshal(plain, &snap); err != nil {
		return nil, m.fail("RestoreVault", err)
	}

	result := &vault.RestoreResult{}
	for _, category := range sortedKeys(snap.Secrets) {
		entries := snap.Secrets[category]
		for _, k := range sortedKeys(entries) {
			entry := entries[k]
			if _, err := m.store.GetEntry(category, k); err == nil {
				result.Overwritten = append(result.Overwritten, category+"/"+k)
			}
			if err := m.store.AddSecret(category, k, entry.Value, entry.Type, entry.Metadata); err != nil {
				return nil, err
			}
			result.Restored++
		}
	}

	m.audit.Log(audit.EventVaultRestored, map[string]any{
		"file":        filepath.Base(file),
		"restored":    result.Restored,
		"overwritten": len(result.Overwritten),
	})
	return result, nil
}

// ListBackups returns the backup artifacts in the vault's backups directory,
// newest first.
func (m *Manager) ListBackups() ([]vault.BackupInfo, error) {
	entries, err := os.ReadDir(m.paths.BackupsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var backups []vault.BackupInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "vault_backup_") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, vault.BackupInfo{
			Path:    filepath.Join(m.paths.BackupsDir, e.Name()),
			Size:    info.Size(),
			Created: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Created.After(backups[j].Created)
	})
	return backups, nil
}

// EmergencyWipe irreversibly destroys the vault: the salt and vault files
// are overwritten with random bytes three times, unlinked, and the vault
// directory removed. Requires the exact WipeConfirmation phrase.
//
// Best effort only: wear-leveling flash, copy-on-write filesystems, and
// external copies are beyond its reach.
func (m *Manager) EmergencyWipe(confirmation string) error {
	if confirmation != WipeConfirmation {
		m.audit.Log(audit.EventOperationFailed, map[string]any{
			"op":    "EmergencyWipe",
			"error": "invalid confirmation",
		})
		return vault.NewVaultError("EmergencyWipe", "", "", vault.ErrInvalidConfirmation)
	}

	m.store.Lock()

	// The trail goes down with the directory; record the event anyway so a
	// forwarded or copied log shows the wipe.
	m.audit.Log(audit.EventVaultWiped, nil)
	m.logger.Warn("emergency wipe", "dir", m.paths.Dir)

	if err := shredFile(m.paths.SaltFile); err != nil {
		return m.fail("EmergencyWipe", err)
	}
	if err := shredFile(m.paths.VaultFile); err != nil {
		return m.fail("EmergencyWipe", err)
	}
	if err := os.RemoveAll(m.paths.Dir); err != nil {
		return m.fail("EmergencyWipe", err)
	}
	return nil
}

// shredFile overwrites a file with fresh random bytes three times, syncing
// each pass, then unlinks it. Missing files are fine.
func shredFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}

	size := int(info.Size())
	for pass := 0; pass < 3; pass++ {
		junk, err := store.RandomBytes(size)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := f.WriteAt(junk, 0); err != nil {
			f.Close()
			return err
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return err
		}
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}

// HealthCheck inspects the vault without mutating it.
func (m *Manager) HealthCheck() *vault.HealthReport {
	report := &vault.HealthReport{
		Status:   vault.HealthHealthy,
		Issues:   []string{},
		Warnings: []string{},
	}

	if !m.store.Exists() {
		report.Status = vault.HealthError
		report.Issues = append(report.Issues, "vault not initialized")
		return report
	}

	checkFile := func(path, name string, minSize int64) {
		info, err := os.Stat(path)
		if err != nil {
			report.Issues = append(report.Issues, fmt.Sprintf("%s missing: %v", name, err))
			return
		}
		if info.Size() < minSize {
			report.Issues = append(report.Issues, fmt.Sprintf("%s truncated (%d bytes)", name, info.Size()))
		}
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s is accessible by group/other (%04o)", name, perm))
		}
	}
	checkFile(m.paths.SaltFile, "salt file", store.SaltLen)
	// Smallest valid vault file: nonce plus the AEAD tag.
	checkFile(m.paths.VaultFile, "vault file", store.NonceLen+16)

	if m.store.IsLocked() {
		report.Warnings = append(report.Warnings, "vault is locked; live counts not verified")
	} else {
		meta, err := m.store.Metadata()
		if err != nil {
			report.Issues = append(report.Issues, fmt.Sprintf("metadata unreadable: %v", err))
		} else if all, err := m.store.GetAllSecrets(""); err == nil {
			live := 0
			for _, entries := range all {
				live += len(entries)
			}
			if live != meta.SecretCount {
				report.Issues = append(report.Issues,
					fmt.Sprintf("secret count mismatch: metadata says %d, found %d", meta.SecretCount, live))
			}
		}
	}

	switch {
	case len(report.Issues) > 0:
		report.Status = vault.HealthError
	case len(report.Warnings) > 0:
		report.Status = vault.HealthWarning
	}
	return report
}

// SearchSecrets scans key names (never values) for query and returns the
// matches sorted by path.
func (m *Manager) SearchSecrets(query string, caseSensitive bool) ([]vault.SearchMatch, error) {
	listed, err := m.store.ListSecrets()
	if err != nil {
		return nil, err
	}

	needle := query
	if !caseSensitive {
		needle = strings.ToLower(needle)
	}

	var matches []vault.SearchMatch
	for category, keys := range listed {
		for _, k := range keys {
			hay := k
			if !caseSensitive {
				hay = strings.ToLower(hay)
			}
			if strings.Contains(hay, needle) {
				matches = append(matches, vault.SearchMatch{
					Category: category,
					Key:      k,
					Path:     category + "/" + k,
				})
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Path < matches[j].Path })
	return matches, nil
}

// BulkImport stores every entry of mapping (category → key → value).
// Individual failures are collected and logged; the batch never aborts.
func (m *Manager) BulkImport(mapping map[string]map[string]string) (*vault.ImportResult, error) {
	if m.store.IsLocked() {
		return nil, vault.NewVaultError("BulkImport", "", "", vault.ErrVaultLocked)
	}

	result := &vault.ImportResult{}
	for _, category := range sortedKeys(mapping) {
		for _, k := range sortedKeys(mapping[category]) {
			if err := m.store.AddSecret(category, k, mapping[category][k], "", nil); err != nil {
				m.logger.Warn("bulk import entry failed", "category", category, "key", k, "error", err)
				result.Failures = append(result.Failures, vault.ImportFailure{
					Category: category,
					Key:      k,
					Reason:   err.Error(),
				})
				continue
			}
			result.Imported++
		}
	}

	m.audit.Log(audit.EventSecretsImported, map[string]any{
		"imported": result.Imported,
		"failed":   len(result.Failures),
	})
	return result, nil
}

// ExportSecrets writes decrypted secrets as PLAINTEXT JSON to path.
//
// DANGEROUS: the output holds every exported value unprotected. Intended
// only for deliberate migrations to a destination the caller already
// trusts. The export is audited by count, never by value.
func (m *Manager) ExportSecrets(path string, categories ...string) error {
	all, err := m.store.GetAllSecrets("")
	if err != nil {
		return err
	}

	selected := make(map[string]map[string]string)
	count := 0
	for category, entries := range all {
		if len(categories) > 0 && !contains(categories, category) {
			continue
		}
		selected[category] = make(map[string]string, len(entries))
		for k, e := range entries {
			selected[category][k] = e.Value
			count++
		}
	}

	data, err := json.MarshalIndent(selected, "", "  ")
	if err != nil {
		return m.fail("ExportSecrets", err)
	}
	if err := os.WriteFile(path, data, store.FileMode); err != nil {
		return m.fail("ExportSecrets", err)
	}

	m.audit.Log(audit.EventSecretsExported, map[string]any{
		"file":  filepath.Base(path),
		"count": count,
	})
	m.logger.Warn("secrets exported as plaintext", "file", path, "count", count)
	return nil
}

// AuditEvents returns the most recent audit records, newest first, capped at
// limit. A non-positive limit returns everything.
func (m *Manager) AuditEvents(limit int) ([]vault.AuditEvent, error) {
	entries, err := m.audit.Tail(limit)
	if err != nil {
		return nil, err
	}
	events := make([]vault.AuditEvent, len(entries))
	for i, e := range entries {
		events[i] = vault.AuditEvent{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Event:     e.Event,
			Data:      e.Data,
		}
	}
	return events, nil
}

func (m *Manager) fail(op string, err error) error {
	m.audit.Log(audit.EventOperationFailed, map[string]any{
		"op":    op,
		"error": err.Error(),
	})
	m.logger.Error("manager operation failed", "op", op, "error", err)
	return vault.NewVaultError(op, "", "", err)
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
