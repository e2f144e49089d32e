package agentvault_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/executiveusa/agentvault"
)

const backupPassword = "backup-pw-different-999"

func TestRotateSecretPreservesHistory(t *testing.T) {
	c := newUnlockedClient(t)

	require.NoError(t, c.AddSecretEntry("llm", "anthropic_api_key", "v1", "api_key", nil))
	require.NoError(t, c.RotateSecret("llm", "anthropic_api_key", "v2"))

	value, err := c.GetSecret("llm", "anthropic_api_key", "")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)

	entry, err := c.GetEntry("llm", "anthropic_api_key")
	require.NoError(t, err)
	assert.Equal(t, "api_key", entry.Type, "rotation keeps the declared type")

	listed, err := c.ListSecrets()
	require.NoError(t, err)
	histKeys := listed[agentvault.HistoryCategory("llm")]
	require.Len(t, histKeys, 1, "exactly one history entry after one rotation")
	assert.True(t, strings.HasPrefix(histKeys[0], "anthropic_api_key_"))

	hist, err := c.GetEntry(agentvault.HistoryCategory("llm"), histKeys[0])
	require.NoError(t, err)
	assert.Equal(t, "v1", hist.Value)
	assert.Equal(t, "llm/anthropic_api_key", hist.Metadata["rotated_from"])

	meta, err := c.GetMetadata()
	require.NoError(t, err)
	assert.NotNil(t, meta.LastRotation)
}

func TestRotateSecretWithoutPrior(t *testing.T) {
	c := newUnlockedClient(t)

	require.NoError(t, c.RotateSecret("llm", "brand_new_key", "v1"))

	value, err := c.GetSecret("llm", "brand_new_key", "")
	require.NoError(t, err)
	assert.Equal(t, "v1", value)

	listed, err := c.ListSecrets()
	require.NoError(t, err)
	assert.Empty(t, listed[agentvault.HistoryCategory("llm")], "nothing to preserve, no history entry")
}

func TestRotateSecretHistoryRetention(t *testing.T) {
	c := agentvault.NewWithOptions(t.TempDir(), agentvault.Options{
		KDFIterations:    testIterations,
		HistoryRetention: 2,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.Initialize(testPassword))
	ok, err := c.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.AddSecret("llm", "key", "v1"))
	require.NoError(t, c.RotateSecret("llm", "key", "v2"))
	require.NoError(t, c.RotateSecret("llm", "key", "v3"))
	require.NoError(t, c.RotateSecret("llm", "key", "v4"))

	listed, err := c.ListSecrets()
	require.NoError(t, err)
	histKeys := listed[agentvault.HistoryCategory("llm")]
	require.Len(t, histKeys, 2, "retention caps history at two entries")

	// Oldest (v1) pruned; v2 and v3 remain, lexical order is chronological.
	first, err := c.GetEntry(agentvault.HistoryCategory("llm"), histKeys[0])
	require.NoError(t, err)
	assert.Equal(t, "v2", first.Value)
	second, err := c.GetEntry(agentvault.HistoryCategory("llm"), histKeys[1])
	require.NoError(t, err)
	assert.Equal(t, "v3", second.Value)
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	src := newUnlockedClient(t)
	require.NoError(t, src.AddSecretEntry("llm", "anthropic_api_key", "sk-abc", "api_key", map[string]any{"provider": "anthropic"}))
	require.NoError(t, src.AddSecret("db", "postgres", "hunter2"))

	path, err := src.BackupVault(backupPassword, "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "vault_backup_"))
	assert.True(t, strings.HasSuffix(path, ".enc"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-abc", "backup artifact must be opaque")

	dst := newUnlockedClient(t)
	result, err := dst.RestoreVault(path, backupPassword)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Restored)
	assert.Empty(t, result.Overwritten)

	value, err := dst.GetSecret("llm", "anthropic_api_key", "")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", value)

	entry, err := dst.GetEntry("llm", "anthropic_api_key")
	require.NoError(t, err)
	assert.Equal(t, "api_key", entry.Type)
	assert.Equal(t, "anthropic", entry.Metadata["provider"])
}

func TestRestoreReportsConflicts(t *testing.T) {
	src := newUnlockedClient(t)
	require.NoError(t, src.AddSecret("llm", "shared_key", "from-backup"))
	require.NoError(t, src.AddSecret("llm", "only_in_backup", "x"))

	path, err := src.BackupVault(backupPassword, "")
	require.NoError(t, err)

	dst := newUnlockedClient(t)
	require.NoError(t, dst.AddSecret("llm", "shared_key", "pre-existing"))
	require.NoError(t, dst.AddSecret("db", "untouched", "y"))

	result, err := dst.RestoreVault(path, backupPassword)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Restored)
	assert.Equal(t, []string{"llm/shared_key"}, result.Overwritten)

	value, err := dst.GetSecret("llm", "shared_key", "")
	require.NoError(t, err)
	assert.Equal(t, "from-backup", value, "backup wins on conflict")

	value, err = dst.GetSecret("db", "untouched", "")
	require.NoError(t, err)
	assert.Equal(t, "y", value, "restore is additive, not a replacement")
}

func TestRestoreWrongPassword(t *testing.T) {
	src := newUnlockedClient(t)
	require.NoError(t, src.AddSecret("llm", "key", "v"))

	path, err := src.BackupVault(backupPassword, "")
	require.NoError(t, err)

	dst := newUnlockedClient(t)
	_, err = dst.RestoreVault(path, "not-the-backup-password")
	require.Error(t, err)
	assert.ErrorIs(t, err, agentvault.ErrAuthenticationFailed)
}

func TestRestoreMissingFile(t *testing.T) {
	c := newUnlockedClient(t)

	_, err := c.RestoreVault(filepath.Join(t.TempDir(), "nope.enc"), backupPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, agentvault.ErrBackupNotFound)
}

func TestBackupToCustomDirAndListing(t *testing.T) {
	c := newUnlockedClient(t)
	require.NoError(t, c.AddSecret("llm", "key", "v"))

	custom := t.TempDir()
	path, err := c.BackupVault(backupPassword, custom)
	require.NoError(t, err)
	assert.Equal(t, custom, filepath.Dir(path))

	// Custom-dir backups are not in the vault's own backups directory.
	backups, err := c.Manager().ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)

	inVault, err := c.BackupVault(backupPassword, "")
	require.NoError(t, err)

	backups, err = c.Manager().ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, inVault, backups[0].Path)
	assert.Greater(t, backups[0].Size, int64(0))
}

func TestEmergencyWipeRequiresExactPhrase(t *testing.T) {
	c := newUnlockedClient(t)
	require.NoError(t, c.AddSecret("llm", "key", "v"))

	for _, phrase := range []string{
		"",
		"permanently delete vault",
		"PERMANENTLY DELETE VAULT ",
		"DELETE VAULT",
	} {
		err := c.EmergencyWipe(phrase)
		require.Error(t, err)
		assert.ErrorIs(t, err, agentvault.ErrInvalidConfirmation)
		assert.True(t, c.Exists(), "refused wipe must leave the vault untouched")
	}

	value, err := c.GetSecret("llm", "key", "")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}

func TestEmergencyWipeDestroysVault(t *testing.T) {
	c := newUnlockedClient(t)
	require.NoError(t, c.AddSecret("llm", "key", "v"))
	dir := c.Dir()

	require.NoError(t, c.EmergencyWipe(agentvault.WipeConfirmation))

	assert.False(t, c.Exists())
	assert.True(t, c.IsLocked())
	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err), "vault directory must be gone")
}

func TestHealthCheckStates(t *testing.T) {
	c := newTestClient(t)

	report := c.HealthCheck()
	assert.Equal(t, agentvault.HealthError, report.Status)
	assert.NotEmpty(t, report.Issues)

	require.NoError(t, c.Initialize(testPassword))
	report = c.HealthCheck()
	assert.Equal(t, agentvault.HealthWarning, report.Status, "locked vault cannot have live counts verified")
	assert.Empty(t, report.Issues)

	ok, err := c.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, c.AddSecret("llm", "key", "v"))

	report = c.HealthCheck()
	assert.Equal(t, agentvault.HealthHealthy, report.Status)
	assert.Empty(t, report.Issues)
	assert.Empty(t, report.Warnings)
}

func TestSearchSecrets(t *testing.T) {
	c := newUnlockedClient(t)

	require.NoError(t, c.AddSecret("llm", "Anthropic_API_Key", "1"))
	require.NoError(t, c.AddSecret("llm", "openai_api_key", "2"))
	require.NoError(t, c.AddSecret("db", "postgres_password", "3"))

	matches, err := c.SearchSecrets("api", false)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "llm/Anthropic_API_Key", matches[0].Path)
	assert.Equal(t, "llm/openai_api_key", matches[1].Path)

	matches, err = c.SearchSecrets("API", true)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Anthropic_API_Key", matches[0].Key)

	matches, err = c.SearchSecrets("no-such-key", false)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestBulkImportToleratesFailures(t *testing.T) {
	c := newUnlockedClient(t)

	result, err := c.BulkImport(map[string]map[string]string{
		"llm": {
			"anthropic_api_key": "sk-abc",
			"":                  "key-less entry",
		},
		"db": {
			"postgres": "hunter2",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "llm", result.Failures[0].Category)
	assert.Empty(t, result.Failures[0].Key)

	value, err := c.GetSecret("db", "postgres", "")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", value)
}

func TestBulkImportRequiresUnlock(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.Initialize(testPassword))

	_, err := c.BulkImport(map[string]map[string]string{"llm": {"k": "v"}})
	assert.ErrorIs(t, err, agentvault.ErrVaultLocked)
}

func TestExportSecrets(t *testing.T) {
	c := newUnlockedClient(t)

	require.NoError(t, c.AddSecret("llm", "anthropic_api_key", "sk-abc"))
	require.NoError(t, c.AddSecret("db", "postgres", "hunter2"))

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, c.ExportSecrets(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var exported map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &exported))
	assert.Equal(t, "sk-abc", exported["llm"]["anthropic_api_key"])
	assert.Equal(t, "hunter2", exported["db"]["postgres"])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestExportSecretsCategoryFilter(t *testing.T) {
	c := newUnlockedClient(t)

	require.NoError(t, c.AddSecret("llm", "key", "v"))
	require.NoError(t, c.AddSecret("db", "postgres", "w"))

	path := filepath.Join(t.TempDir(), "export.json")
	require.NoError(t, c.ExportSecrets(path, "llm"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var exported map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &exported))
	assert.Contains(t, exported, "llm")
	assert.NotContains(t, exported, "db")
}
