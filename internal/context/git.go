package context

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// GitStatusRetriever retrieves git repository status context.
type GitStatusRetriever struct {
	executor Executor
	logger   *zap.Logger
}

// NewGitStatusRetriever creates a new GitStatusRetriever.
func NewGitStatusRetriever(exec Executor, logger *zap.Logger) *GitStatusRetriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitStatusRetriever{
		executor: exec,
		logger:   logger,
	}
}

// Name returns the retriever name.
func (r *GitStatusRetriever) Name() string {
	return "git_status"
}

// GetContext returns the git status formatted for LLM context.
// Returns a message indicating not in a git repository if git commands fail.
func (r *GitStatusRetriever) GetContext() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), retrieverTimeout)
	defer cancel()

	root, err := r.executor.Execute(ctx, "git rev-parse --show-toplevel")
	if errors.Is(err, ErrDisabled) {
		return "", err
	}
	if err != nil {
		r.logger.Debug("error running `git rev-parse --show-toplevel`", zap.Error(err))
		return "<git_status>not in a git repository</git_status>", nil
	}

	status, err := r.executor.Execute(ctx, "git status --short --branch")
	if err != nil {
		r.logger.Debug("error running `git status`", zap.Error(err))
		return "", err
	}

	return fmt.Sprintf("<git_status>Project root: %s\n%s</git_status>", root, status), nil
}
