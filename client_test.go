package agentvault_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/executiveusa/agentvault"
)

const testPassword = "unit-test-pw-123456"

// Fewer KDF rounds than production; the derivation path is identical.
const testIterations = 1000

func newTestClient(t *testing.T) *agentvault.Client {
	t.Helper()
	return newTestClientAt(t, t.TempDir())
}

func newTestClientAt(t *testing.T, dir string) *agentvault.Client {
	t.Helper()
	c := agentvault.NewWithOptions(dir, agentvault.Options{
		KDFIterations: testIterations,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { c.Close() })
	return c
}

func newUnlockedClient(t *testing.T) *agentvault.Client {
	t.Helper()
	c := newTestClient(t)
	require.NoError(t, c.Initialize(testPassword))
	ok, err := c.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)
	return c
}

func TestClientLifecycle(t *testing.T) {
	c := newTestClient(t)

	assert.False(t, c.Exists())
	assert.True(t, c.IsLocked())

	require.NoError(t, c.Initialize(testPassword))
	assert.True(t, c.Exists())
	assert.True(t, c.IsLocked())

	ok, err := c.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, c.IsLocked())

	require.NoError(t, c.AddSecret("llm", "anthropic_api_key", "sk-abc"))

	value, err := c.GetSecret("llm", "anthropic_api_key", "")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", value)

	require.NoError(t, c.Close())
	assert.True(t, c.IsLocked())
}

func TestClientSurvivesProcessRestart(t *testing.T) {
	dir := t.TempDir()

	c1 := newTestClientAt(t, dir)
	require.NoError(t, c1.Initialize(testPassword))
	ok, err := c1.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, c1.AddSecretEntry("llm", "anthropic_api_key", "sk-abc", "api_key", nil))
	require.NoError(t, c1.Close())

	// Fresh client over the same directory, as after a restart.
	c2 := newTestClientAt(t, dir)
	ok, err = c2.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)

	entry, err := c2.GetEntry("llm", "anthropic_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", entry.Value)
	assert.Equal(t, "api_key", entry.Type)
}

func TestClientAuditTrail(t *testing.T) {
	c := newUnlockedClient(t)

	require.NoError(t, c.AddSecret("llm", "anthropic_api_key", "sk-abc"))
	require.NoError(t, c.DeleteSecret("llm", "anthropic_api_key"))

	events, err := c.AuditEvents(0)
	require.NoError(t, err)
	require.NotEmpty(t, events)

	// Newest first.
	assert.Equal(t, "SECRET_DELETED", events[0].Event)
	assert.Equal(t, "SECRET_ADDED", events[1].Event)
	assert.Equal(t, "VAULT_UNLOCKED", events[2].Event)
	assert.Equal(t, "VAULT_CREATED", events[3].Event)

	limited, err := c.AuditEvents(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestAuditLogNeverHoldsValues(t *testing.T) {
	c := newUnlockedClient(t)

	require.NoError(t, c.AddSecret("llm", "anthropic_api_key", "sk-abc"))
	require.NoError(t, c.RotateSecret("llm", "anthropic_api_key", "sk-def"))

	raw, err := os.ReadFile(filepath.Join(c.Dir(), "audit.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-abc")
	assert.NotContains(t, string(raw), "sk-def")
	assert.Contains(t, string(raw), "anthropic_api_key", "key names are fair game")
}

func TestVaultFileNeverHoldsPlaintext(t *testing.T) {
	c := newUnlockedClient(t)

	require.NoError(t, c.AddSecret("llm", "anthropic_api_key", "sk-abc"))

	raw, err := os.ReadFile(filepath.Join(c.Dir(), "secrets.vault"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "sk-abc")
	assert.NotContains(t, string(raw), "anthropic_api_key")
}
