package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	return NewLogger(filepath.Join(t.TempDir(), "audit.log"))
}

func TestLogAndRead(t *testing.T) {
	l := newTestLogger(t)

	l.Log(EventVaultCreated, map[string]any{"kdf_iterations": 1000})
	l.Log(EventSecretAdded, map[string]any{"category": "llm", "key": "anthropic_api_key"})

	entries, err := l.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, EventVaultCreated, entries[0].Event)
	assert.Equal(t, EventSecretAdded, entries[1].Event)
	assert.Equal(t, "llm", entries[1].Data["category"])

	assert.NotEmpty(t, entries[0].ID)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
	assert.NotEmpty(t, entries[0].Timestamp)
}

func TestReadMissingFile(t *testing.T) {
	l := newTestLogger(t)

	entries, err := l.Read()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMalformedLinesSkipped(t *testing.T) {
	l := newTestLogger(t)

	l.Log(EventVaultUnlocked, nil)

	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_WRONLY, 0600)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	l.Log(EventVaultLocked, nil)

	entries, err := l.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2, "malformed and blank lines must be skipped")
	assert.Equal(t, EventVaultUnlocked, entries[0].Event)
	assert.Equal(t, EventVaultLocked, entries[1].Event)
}

func TestTailNewestFirst(t *testing.T) {
	l := newTestLogger(t)

	l.Log(EventVaultCreated, nil)
	l.Log(EventVaultUnlocked, nil)
	l.Log(EventVaultLocked, nil)

	entries, err := l.Tail(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, EventVaultLocked, entries[0].Event)
	assert.Equal(t, EventVaultUnlocked, entries[1].Event)

	all, err := l.Tail(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestLogSwallowsWriteFailure(t *testing.T) {
	l := NewLogger(filepath.Join(t.TempDir(), "no-such-dir", "audit.log"))

	// Must not panic or error; the operation outlives its audit record.
	l.Log(EventVaultLocked, nil)
}
