package shell

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Dialect renders a command plus the trailer that reports its completion.
//
// The trailer must, in order: capture the exit code, write
// "Command failed with exit code N" to stderr when it is non-zero, write
// "<sentinel> N" as a line on stdout and "<sentinel>" as a line on stderr.
// The stderr copy of the sentinel lets the reader know that stderr has been
// flushed up to the end of the command.
type Dialect interface {
	Name() string
	Script(command, sentinel string) string
}

// Posix is the dialect for bash, zsh and other POSIX shells. The command
// runs as a group in the current shell, so `cd` and exports persist, with
// stdin from /dev/null so it cannot swallow the trailer. The blank line
// after the command absorbs a trailing backslash that would otherwise join
// the closing brace.
type Posix struct{}

func (Posix) Name() string { return "posix" }

func (Posix) Script(command, sentinel string) string {
	if strings.TrimSpace(command) == "" {
		command = ":"
	}
	return fmt.Sprintf(`{
%s

} < /dev/null
__gshctx_exit=$?
if [ $__gshctx_exit -ne 0 ]; then echo "Command failed with exit code $__gshctx_exit" >&2; fi
echo "%s $__gshctx_exit"
echo "%s" >&2
`, command, sentinel, sentinel)
}

// PowerShell is the dialect for powershell.exe and pwsh.
type PowerShell struct{}

func (PowerShell) Name() string { return "powershell" }

func (PowerShell) Script(command, sentinel string) string {
	return fmt.Sprintf(`%s
$__gshctx_exit = if ($?) { 0 } elseif ($LASTEXITCODE) { $LASTEXITCODE } else { 1 }
if ($__gshctx_exit -ne 0) { [Console]::Error.WriteLine("Command failed with exit code $__gshctx_exit") }
[Console]::Out.WriteLine("%s $__gshctx_exit")
[Console]::Error.WriteLine("%s")
`, command, sentinel, sentinel)
}

// DialectFor picks the dialect matching a shell binary.
func DialectFor(shell string) Dialect {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(shell), filepath.Ext(shell)))
	switch name {
	case "pwsh", "powershell":
		return PowerShell{}
	default:
		return Posix{}
	}
}

const sentinelPrefix = "__END_OF_COMMAND_"

// newSentinel returns a completion marker unique to one command.
func newSentinel() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%d_%s__", sentinelPrefix, time.Now().UnixNano(), id)
}

// findSentinel looks for a complete sentinel line in stdout. It returns the
// text before the sentinel and the exit code written after it.
func findSentinel(stdout, sentinel string) (before string, exitCode int, ok bool) {
	idx := strings.Index(stdout, sentinel)
	if idx < 0 {
		return "", 0, false
	}
	rest := stdout[idx+len(sentinel):]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return "", 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(rest[:nl]))
	if err != nil {
		code = -1
	}
	return stdout[:idx], code, true
}

// findStderrSentinel returns the stderr text written before the sentinel.
func findStderrSentinel(stderr, sentinel string) (string, bool) {
	idx := strings.Index(stderr, sentinel)
	if idx < 0 {
		return "", false
	}
	return stderr[:idx], true
}
