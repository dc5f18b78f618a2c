package context

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWorkingDirectoryRetriever(t *testing.T) {
	t.Run("Name returns correct value", func(t *testing.T) {
		retriever := NewWorkingDirectoryRetriever(nil)
		assert.Equal(t, "working_directory", retriever.Name())
	})

	t.Run("GetContext asks the shell", func(t *testing.T) {
		exec := &fakeExecutor{outputs: map[string]string{"pwd": "/home/user/project"}}
		retriever := NewWorkingDirectoryRetriever(exec)

		ctx, err := retriever.GetContext()
		require.NoError(t, err)
		assert.Equal(t, "<working_dir>/home/user/project</working_dir>", ctx)
		assert.Equal(t, []string{"pwd"}, exec.commands)
	})

	t.Run("GetContext fails with the shell", func(t *testing.T) {
		exec := &fakeExecutor{errs: map[string]error{"pwd": errors.New("boom")}}
		retriever := NewWorkingDirectoryRetriever(exec)

		_, err := retriever.GetContext()
		assert.Error(t, err)
	})
}

func TestGitStatusRetriever(t *testing.T) {
	t.Run("Name returns correct value", func(t *testing.T) {
		retriever := NewGitStatusRetriever(nil, nil)
		assert.Equal(t, "git_status", retriever.Name())
	})

	t.Run("not in a git repository", func(t *testing.T) {
		exec := &fakeExecutor{errs: map[string]error{
			"git rev-parse --show-toplevel": errors.New("fatal: not a git repository"),
		}}
		retriever := NewGitStatusRetriever(exec, zaptest.NewLogger(t))

		ctx, err := retriever.GetContext()
		require.NoError(t, err)
		assert.Equal(t, "<git_status>not in a git repository</git_status>", ctx)
	})

	t.Run("disabled shell is an error", func(t *testing.T) {
		exec := &fakeExecutor{errs: map[string]error{
			"git rev-parse --show-toplevel": ErrDisabled,
		}}
		retriever := NewGitStatusRetriever(exec, zaptest.NewLogger(t))

		_, err := retriever.GetContext()
		assert.ErrorIs(t, err, ErrDisabled)
	})

	t.Run("in a git repository", func(t *testing.T) {
		exec := &fakeExecutor{outputs: map[string]string{
			"git rev-parse --show-toplevel": "/repo",
			"git status --short --branch":   "## main\n M file.go",
		}}
		retriever := NewGitStatusRetriever(exec, zaptest.NewLogger(t))

		ctx, err := retriever.GetContext()
		require.NoError(t, err)
		assert.Equal(t, "<git_status>Project root: /repo\n## main\n M file.go</git_status>", ctx)
	})
}
