package shell

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when neither the sentinel nor an error pattern
	// shows up before the session timeout. The shell is restarted.
	ErrTimeout = errors.New("command execution timed out")

	// ErrCanceled is returned when the caller's context is done before the
	// command completes. The shell process is killed.
	ErrCanceled = errors.New("command execution aborted")

	// ErrClosed is returned by Execute after Close.
	ErrClosed = errors.New("shell session is closed")

	// ErrShellExited is returned when the shell process dies while a command
	// is in flight, e.g. after the command itself ran `exit`.
	ErrShellExited = errors.New("shell process exited")

	// ErrDisabled is returned by every call on a session created with
	// Options.Disabled. No shell is ever spawned.
	ErrDisabled = errors.New("shell context is disabled")
)

// DeniedError reports a command whose leading token is on the denylist, or
// one that cannot be checked against it.
type DeniedError struct {
	Token   string
	Command string
	// Reason replaces the default explanation when set.
	Reason string
}

func (e *DeniedError) Error() string {
	if e.Reason != "" {
		return "cannot execute this command: " + e.Reason
	}
	return fmt.Sprintf("cannot execute this command: %q is not allowed", e.Token)
}

// ShellError reports output that matched one of the known shell error
// patterns before the command finished.
type ShellError struct {
	Category ErrorCategory
	Command  string
}

func (e *ShellError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Command)
}

// CommandError reports a command that completed with output on stderr.
type CommandError struct {
	Stderr   string
	ExitCode int
}

func (e *CommandError) Error() string {
	return e.Stderr
}

// Outcome classifies the result of an execution for history and metrics.
func Outcome(err error) string {
	var (
		denied   *DeniedError
		shellErr *ShellError
		cmdErr   *CommandError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &denied):
		return "denied"
	case errors.As(err, &shellErr):
		return "shell_error"
	case errors.As(err, &cmdErr):
		return "failed"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrDisabled):
		return "disabled"
	case errors.Is(err, ErrShellExited):
		return "exited"
	default:
		return "error"
	}
}
