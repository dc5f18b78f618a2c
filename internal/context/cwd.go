package context

import (
	"context"
	"fmt"
	"time"
)

// retrieverTimeout bounds the shell commands a retriever runs.
const retrieverTimeout = 5 * time.Second

// WorkingDirectoryRetriever reports the working directory of the shell
// session, which follows any `cd` run through it.
type WorkingDirectoryRetriever struct {
	executor Executor
}

// NewWorkingDirectoryRetriever creates a new WorkingDirectoryRetriever.
func NewWorkingDirectoryRetriever(exec Executor) *WorkingDirectoryRetriever {
	return &WorkingDirectoryRetriever{
		executor: exec,
	}
}

// Name returns the retriever name.
func (r *WorkingDirectoryRetriever) Name() string {
	return "working_directory"
}

// GetContext returns the current working directory formatted for LLM context.
func (r *WorkingDirectoryRetriever) GetContext() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), retrieverTimeout)
	defer cancel()

	pwd, err := r.executor.Execute(ctx, "pwd")
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return fmt.Sprintf("<working_dir>%s</working_dir>", pwd), nil
}
