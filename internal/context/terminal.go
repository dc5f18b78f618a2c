package context

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/atinylittleshell/gshctx/internal/history"
	"github.com/atinylittleshell/gshctx/internal/shell"
	"github.com/atinylittleshell/gshctx/internal/tokens"
)

// Executor runs a command in a shell and returns its output.
type Executor interface {
	Execute(ctx context.Context, command string) (string, error)
}

// HistoryRecorder stores executions. *history.HistoryManager implements it.
type HistoryRecorder interface {
	StartCommand(command string, directory string) (*history.HistoryEntry, error)
	FinishCommand(entry *history.HistoryEntry, finish history.Finish) (*history.HistoryEntry, error)
}

// TerminalOptions configures a TerminalProvider.
type TerminalOptions struct {
	Disabled bool
	// Directory is recorded in history. Empty means the process working
	// directory.
	Directory string
	History   HistoryRecorder
	Counter   tokens.Counter
	Logger    *zap.Logger
}

// TerminalProvider produces terminal context items by running commands.
type TerminalProvider struct {
	executor  Executor
	disabled  bool
	directory string
	history   HistoryRecorder
	counter   tokens.Counter
	logger    *zap.Logger
}

// NewTerminalProvider creates a TerminalProvider on top of exec.
func NewTerminalProvider(exec Executor, opts TerminalOptions) *TerminalProvider {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	directory := opts.Directory
	if directory == "" {
		directory, _ = os.Getwd()
	}
	return &TerminalProvider{
		executor:  exec,
		disabled:  opts.Disabled,
		directory: directory,
		history:   opts.History,
		counter:   opts.Counter,
		logger:    logger,
	}
}

// GetContextItems runs command and returns a single item holding either its
// wrapped output or the error text. Failures never surface as errors except
// ErrDisabled, which comes with no items.
func (p *TerminalProvider) GetContextItems(ctx context.Context, command string) ([]Item, error) {
	if p.disabled {
		p.logger.Debug("shell context disabled, skipping command", zap.String("command", command))
		return nil, ErrDisabled
	}

	entry := p.startHistory(command)
	started := time.Now()

	output, err := p.executor.Execute(ctx, command)
	if errors.Is(err, ErrDisabled) {
		p.finishHistory(entry, err, time.Since(started))
		return nil, ErrDisabled
	}
	if err == nil && output == "" {
		err = ErrEmptyOutput
	}
	p.finishHistory(entry, err, time.Since(started))

	var content string
	if err != nil {
		p.logger.Warn("failed to get terminal context",
			zap.String("command", command),
			zap.Error(err))
		content = err.Error()
	} else {
		content = WrapOutput(command, output)
	}

	return []Item{{
		Type:    ItemTypeFile,
		Content: content,
		Title:   TerminalTitle,
		URI:     TerminalURI(command),
		Source:  TerminalSource,
		Size:    p.countTokens(content),
	}}, nil
}

func (p *TerminalProvider) countTokens(content string) int {
	if p.counter == nil {
		return 0
	}
	n, err := p.counter.Count(content)
	if err != nil {
		p.logger.Warn("failed to count tokens", zap.Error(err))
		return 0
	}
	return n
}

func (p *TerminalProvider) startHistory(command string) *history.HistoryEntry {
	if p.history == nil {
		return nil
	}
	entry, err := p.history.StartCommand(command, p.directory)
	if err != nil {
		p.logger.Warn("failed to record command in history", zap.Error(err))
		return nil
	}
	return entry
}

func (p *TerminalProvider) finishHistory(entry *history.HistoryEntry, err error, duration time.Duration) {
	if entry == nil {
		return
	}

	finish := history.Finish{
		Outcome:  Outcome(err),
		Duration: duration,
	}
	if err != nil {
		finish.Error = err.Error()
	}

	var cmdErr *shell.CommandError
	switch {
	case err == nil, errors.Is(err, ErrEmptyOutput):
		code := 0
		finish.ExitCode = &code
	case errors.As(err, &cmdErr):
		code := cmdErr.ExitCode
		finish.ExitCode = &code
	}

	if _, err := p.history.FinishCommand(entry, finish); err != nil {
		p.logger.Warn("failed to update history entry", zap.Error(err))
	}
}

// Outcome classifies an execution error for history, adding "empty" to the
// shell outcomes.
func Outcome(err error) string {
	if errors.Is(err, ErrEmptyOutput) {
		return "empty"
	}
	return shell.Outcome(err)
}
