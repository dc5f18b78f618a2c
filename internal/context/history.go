package context

import (
	"fmt"
	"strings"

	"github.com/atinylittleshell/gshctx/internal/history"
)

// DefaultHistoryLimit is the default number of entries shown by
// TerminalHistoryRetriever.
const DefaultHistoryLimit = 20

// HistoryReader lists recorded executions, oldest first.
type HistoryReader interface {
	GetRecentEntries(directory string, limit int) ([]history.HistoryEntry, error)
}

// TerminalHistoryRetriever lists recent executions made for terminal context,
// with their outcome and exit code.
type TerminalHistoryRetriever struct {
	history HistoryReader
	limit   int
}

// NewTerminalHistoryRetriever creates a new TerminalHistoryRetriever.
// If limit is 0 or negative, DefaultHistoryLimit is used.
func NewTerminalHistoryRetriever(h HistoryReader, limit int) *TerminalHistoryRetriever {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &TerminalHistoryRetriever{
		history: h,
		limit:   limit,
	}
}

// Name returns the retriever name.
func (r *TerminalHistoryRetriever) Name() string {
	return "terminal_history"
}

// GetContext returns recent executions grouped by directory.
func (r *TerminalHistoryRetriever) GetContext() (string, error) {
	entries, err := r.history.GetRecentEntries("", r.limit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("#sequence,outcome,exit_code,command\n")
	var lastDirectory string
	for _, entry := range entries {
		if entry.Directory != lastDirectory {
			fmt.Fprintf(&b, "# %s\n", entry.Directory)
			lastDirectory = entry.Directory
		}
		exitCode := "-"
		if entry.ExitCode.Valid {
			exitCode = fmt.Sprint(entry.ExitCode.Int32)
		}
		fmt.Fprintf(&b, "%d,%s,%s,%s\n", entry.ID, entry.Outcome, exitCode, entry.Command)
	}

	return fmt.Sprintf("<terminal_history>\n%s\n</terminal_history>", strings.TrimSpace(b.String())), nil
}
