package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *HistoryManager {
	t.Helper()
	m, err := NewHistoryManager(InMemory)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func record(t *testing.T, m *HistoryManager, command string) *HistoryEntry {
	t.Helper()
	entry, err := m.StartCommand(command, "/tmp")
	require.NoError(t, err)
	return entry
}

func TestStartAndFinishCommand(t *testing.T) {
	m := newTestManager(t)

	entry := record(t, m, "git status")
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.ExitCode.Valid)

	code := 0
	_, err := m.FinishCommand(entry, Finish{
		ExitCode: &code,
		Outcome:  "ok",
		Duration: 1500 * time.Millisecond,
	})
	require.NoError(t, err)

	entries, err := m.GetRecentEntries("", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "git status", entries[0].Command)
	assert.Equal(t, "/tmp", entries[0].Directory)
	assert.True(t, entries[0].ExitCode.Valid)
	assert.Equal(t, int32(0), entries[0].ExitCode.Int32)
	assert.Equal(t, "ok", entries[0].Outcome)
	assert.Equal(t, int64(1500), entries[0].DurationMs)
}

func TestFinishWithoutExitCode(t *testing.T) {
	m := newTestManager(t)

	entry := record(t, m, "sleep 100")
	_, err := m.FinishCommand(entry, Finish{Outcome: "timeout", Error: "command execution timed out"})
	require.NoError(t, err)

	entries, err := m.GetRecentEntries("", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].ExitCode.Valid)
	assert.Equal(t, "command execution timed out", entries[0].Error)
}

func TestGetRecentEntries(t *testing.T) {
	m := newTestManager(t)

	for _, c := range []string{"one", "two", "three"} {
		record(t, m, c)
	}
	_, err := m.StartCommand("elsewhere", "/var")
	require.NoError(t, err)

	entries, err := m.GetRecentEntries("/tmp", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "two", entries[0].Command)
	assert.Equal(t, "three", entries[1].Command)
}

func TestSearchHistory(t *testing.T) {
	m := newTestManager(t)

	record(t, m, "git status")
	record(t, m, "ls -la")
	record(t, m, "git log --oneline")

	entries, err := m.SearchHistory("gitlog", 10)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "git log --oneline", entries[0].Command)
	for _, e := range entries {
		assert.NotEqual(t, "ls -la", e.Command)
	}

	all, err := m.SearchHistory("", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "git log --oneline", all[0].Command)
}

func TestDeleteAndReset(t *testing.T) {
	m := newTestManager(t)

	a := record(t, m, "a")
	record(t, m, "b")

	require.NoError(t, m.DeleteEntry(a.ID))
	assert.Error(t, m.DeleteEntry(a.ID))

	entries, err := m.GetRecentEntries("", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].Command)

	require.NoError(t, m.ResetHistory())
	entries, err = m.GetRecentEntries("", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSchemaVersionMarker(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")

	m, err := NewHistoryManager(dbPath)
	require.NoError(t, err)
	record(t, m, "first")
	require.NoError(t, m.Close())

	data, err := os.ReadFile(filepath.Join(dir, "history_schema_version"))
	require.NoError(t, err)
	assert.Equal(t, "2", string(data))

	// warm start reuses the existing table
	m, err = NewHistoryManager(dbPath)
	require.NoError(t, err)
	defer m.Close()

	entries, err := m.GetRecentEntries("", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "first", entries[0].Command)
}
