package context

import (
	"context"
	"sync"
)

// fakeExecutor answers commands from a table and records what it ran.
type fakeExecutor struct {
	mu       sync.Mutex
	outputs  map[string]string
	errs     map[string]error
	commands []string
}

func (f *fakeExecutor) Execute(_ context.Context, command string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if err, ok := f.errs[command]; ok {
		return "", err
	}
	return f.outputs[command], nil
}
