package context

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinylittleshell/gshctx/internal/history"
)

func setupTestHistoryManager(t *testing.T) *history.HistoryManager {
	hm, err := history.NewHistoryManager(history.InMemory)
	require.NoError(t, err)
	t.Cleanup(func() { hm.Close() })

	finish := func(command, directory string, f history.Finish) {
		entry, err := hm.StartCommand(command, directory)
		require.NoError(t, err)
		_, err = hm.FinishCommand(entry, f)
		require.NoError(t, err)
	}

	zero, failed := 0, 2
	finish("ls -l", "/home", history.Finish{ExitCode: &zero, Outcome: "ok"})
	finish("ls missing", "/home", history.Finish{ExitCode: &failed, Outcome: "failed"})
	finish("sleep 100", "/tmp", history.Finish{Outcome: "timeout"})

	return hm
}

type failingHistory struct{}

func (failingHistory) GetRecentEntries(string, int) ([]history.HistoryEntry, error) {
	return nil, errors.New("db closed")
}

func TestTerminalHistoryRetriever(t *testing.T) {
	t.Run("Name returns correct value", func(t *testing.T) {
		retriever := NewTerminalHistoryRetriever(nil, 10)
		assert.Equal(t, "terminal_history", retriever.Name())
	})

	t.Run("GetContext returns formatted history", func(t *testing.T) {
		hm := setupTestHistoryManager(t)
		retriever := NewTerminalHistoryRetriever(hm, 10)

		ctx, err := retriever.GetContext()
		require.NoError(t, err)

		expected := `<terminal_history>
#sequence,outcome,exit_code,command
# /home
1,ok,0,ls -l
2,failed,2,ls missing
# /tmp
3,timeout,-,sleep 100
</terminal_history>`
		assert.Equal(t, expected, ctx)
	})

	t.Run("respects limit", func(t *testing.T) {
		hm := setupTestHistoryManager(t)
		retriever := NewTerminalHistoryRetriever(hm, 1)

		ctx, err := retriever.GetContext()
		require.NoError(t, err)
		assert.Contains(t, ctx, "sleep 100")
		assert.NotContains(t, ctx, "ls -l")
	})

	t.Run("uses default limit when zero", func(t *testing.T) {
		retriever := NewTerminalHistoryRetriever(nil, 0)
		assert.Equal(t, DefaultHistoryLimit, retriever.limit)
	})

	t.Run("propagates store errors", func(t *testing.T) {
		retriever := NewTerminalHistoryRetriever(failingHistory{}, 10)
		_, err := retriever.GetContext()
		assert.Error(t, err)
	})
}
