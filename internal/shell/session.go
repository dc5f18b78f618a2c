// Package shell runs commands in a persistent interactive shell and reports
// their output. A Session owns at most one shell subprocess, runs one
// command at a time, and detects completion through a per-command sentinel
// line that also carries the exit code.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultTimeout bounds how long a single command may run.
	DefaultTimeout = 30 * time.Second

	// DefaultScanInterval is how often output is rescanned when no new
	// output arrives.
	DefaultScanInterval = 100 * time.Millisecond
)

// Observer receives execution events, e.g. for metrics.
type Observer interface {
	ObserveExecution(outcome string, duration time.Duration)
	IncRestarts()
}

type nopObserver struct{}

func (nopObserver) ObserveExecution(string, time.Duration) {}
func (nopObserver) IncRestarts()                           {}

// Options configures a Session. Zero values select the defaults.
type Options struct {
	Shell        string
	Args         []string
	Dialect      Dialect
	Dir          string
	Env          map[string]string
	Timeout      time.Duration
	ScanInterval time.Duration

	// Disabled makes every Execute and Restart fail with ErrDisabled.
	Disabled bool

	Denylist      *Denylist
	ErrorPatterns []ErrorPattern

	Logger   *zap.Logger
	Observer Observer
}

// Session is a persistent shell. It is safe for concurrent use; commands
// are queued and run one at a time.
type Session struct {
	opts     Options
	logger   *zap.Logger
	observer Observer
	queue    *semaphore.Weighted

	mu     sync.Mutex
	proc   *process
	closed bool
}

// New creates a Session. The shell is spawned on first use.
func New(opts Options) *Session {
	if opts.Shell == "" {
		shell, args, dialect := defaultShell()
		opts.Shell = shell
		if opts.Args == nil {
			opts.Args = args
		}
		if opts.Dialect == nil {
			opts.Dialect = dialect
		}
	}
	if opts.Dialect == nil {
		_, _, opts.Dialect = defaultShell()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ScanInterval <= 0 {
		opts.ScanInterval = DefaultScanInterval
	}
	if opts.Denylist == nil {
		opts.Denylist = DefaultDenylist()
	}
	if opts.ErrorPatterns == nil {
		opts.ErrorPatterns = DefaultErrorPatterns()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}

	return &Session{
		opts:     opts,
		logger:   opts.Logger,
		observer: opts.Observer,
		queue:    semaphore.NewWeighted(1),
	}
}

// Execute sanitizes command, rejects it if denylisted, runs it in the shell
// and returns its trimmed stdout.
//
// Failures are one of *DeniedError, *ShellError, *CommandError, ErrTimeout,
// ErrCanceled, ErrClosed, ErrShellExited or ErrDisabled. A timeout restarts the shell; a
// cancellation kills it and the next call starts a fresh one.
func (s *Session) Execute(ctx context.Context, command string) (string, error) {
	started := time.Now()
	output, err := s.execute(ctx, command)
	s.observer.ObserveExecution(Outcome(err), time.Since(started))
	return output, err
}

func (s *Session) execute(ctx context.Context, command string) (string, error) {
	if s.opts.Disabled {
		return "", ErrDisabled
	}

	command = Sanitize(ConvertQuotes(command))
	if err := s.opts.Denylist.Check(command); err != nil {
		s.logger.Info("command denied", zap.String("command", command), zap.Error(err))
		return "", err
	}

	if err := s.queue.Acquire(ctx, 1); err != nil {
		return "", ErrCanceled
	}
	defer s.queue.Release(1)

	// Acquire may succeed even though ctx is already done.
	if ctx.Err() != nil {
		return "", ErrCanceled
	}

	proc, err := s.ensureProcess(ctx)
	if err != nil {
		return "", err
	}
	return s.run(ctx, proc, command)
}

// Restart replaces the shell with a fresh one, discarding any shell state
// such as the working directory.
func (s *Session) Restart(ctx context.Context) error {
	if s.opts.Disabled {
		return ErrDisabled
	}
	if err := s.queue.Acquire(ctx, 1); err != nil {
		return ErrCanceled
	}
	defer s.queue.Release(1)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.proc
	s.proc = nil
	s.mu.Unlock()

	if old != nil {
		old.close()
	}
	_, err := s.ensureProcess(ctx)
	if err == nil {
		s.observer.IncRestarts()
	}
	return err
}

// Close kills the shell and releases its resources. Later calls to Execute
// return ErrClosed. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	proc := s.proc
	s.proc = nil
	s.mu.Unlock()

	if proc != nil {
		s.logger.Debug("closing shell session", zap.Int("pid", proc.pid()))
		proc.close()
	}
	return nil
}

// PID returns the pid of the live shell, or 0 if there is none.
func (s *Session) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return 0
	}
	return s.proc.pid()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ensureProcess returns a live shell with no abandoned command in flight,
// spawning one if needed. The caller must hold the queue.
func (s *Session) ensureProcess(ctx context.Context) (*process, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	proc := s.proc
	s.mu.Unlock()

	if proc != nil && proc.exited() {
		s.logger.Debug("shell process gone, respawning", zap.Int("pid", proc.pid()))
		s.discard(proc)
		proc = nil
	}

	if proc != nil {
		if pending := proc.pendingSentinel(); pending != "" {
			if _, err := s.wait(ctx, proc, pending, false); err != nil {
				s.logger.Debug("abandoned command did not finish, discarding shell",
					zap.Int("pid", proc.pid()), zap.Error(err))
				s.discard(proc)
				if errors.Is(err, ErrCanceled) || errors.Is(err, ErrClosed) {
					return nil, err
				}
				proc = nil
			} else {
				proc.setPending("")
			}
		}
	}

	if proc != nil {
		return proc, nil
	}
	return s.spawn(ctx)
}

// spawn starts a shell and waits for an empty command to complete, which
// drains whatever the shell prints on startup.
func (s *Session) spawn(ctx context.Context) (*process, error) {
	proc, err := spawnProcess(processConfig{
		Shell: s.opts.Shell,
		Args:  s.opts.Args,
		Dir:   s.opts.Dir,
		Env:   s.opts.Env,
	}, s.logger)
	if err != nil {
		return nil, err
	}

	sentinel := newSentinel()
	if err := proc.write(s.opts.Dialect.Script("", sentinel)); err != nil {
		proc.close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}
	if _, err := s.wait(ctx, proc, sentinel, false); err != nil {
		proc.close()
		if errors.Is(err, ErrCanceled) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}
	proc.reset()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		proc.close()
		return nil, ErrClosed
	}
	s.proc = proc
	s.mu.Unlock()

	return proc, nil
}

// discard drops proc from the session and kills it.
func (s *Session) discard(proc *process) {
	s.mu.Lock()
	if s.proc == proc {
		s.proc = nil
	}
	s.mu.Unlock()
	proc.close()
}

// restart replaces a stuck shell so the next command gets a clean one.
func (s *Session) restart(proc *process) {
	s.discard(proc)

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()
	if _, err := s.spawn(ctx); err != nil {
		s.logger.Warn("failed to restart shell, will retry on next command", zap.Error(err))
		return
	}
	s.observer.IncRestarts()
}

func (s *Session) run(ctx context.Context, proc *process, command string) (string, error) {
	sentinel := newSentinel()
	proc.reset()

	s.logger.Debug("executing command",
		zap.String("command", command),
		zap.Int("pid", proc.pid()))

	if err := proc.write(s.opts.Dialect.Script(command, sentinel)); err != nil {
		s.discard(proc)
		return "", err
	}

	res, err := s.wait(ctx, proc, sentinel, true)
	if err != nil {
		var shellErr *ShellError
		switch {
		case errors.As(err, &shellErr):
			shellErr.Command = command
			proc.setPending(sentinel)
		case errors.Is(err, ErrTimeout):
			s.logger.Warn("command timed out, restarting shell",
				zap.String("command", command),
				zap.Duration("timeout", s.opts.Timeout))
			s.restart(proc)
		case errors.Is(err, ErrCanceled):
			s.logger.Debug("command canceled, killing shell", zap.String("command", command))
			s.discard(proc)
		default:
			s.discard(proc)
		}
		return "", err
	}

	stderr := strings.TrimSpace(res.stderr)
	if stderr != "" {
		return "", &CommandError{Stderr: stderr, ExitCode: res.exitCode}
	}
	return strings.TrimSpace(res.stdout), nil
}

type waitResult struct {
	stdout   string
	stderr   string
	exitCode int
}

// wait blocks until the command marked by sentinel completes, an error
// pattern shows up (when checkPatterns is set), the timeout passes, ctx is
// done or the shell exits. It has no side effects on the session.
func (s *Session) wait(ctx context.Context, proc *process, sentinel string, checkPatterns bool) (waitResult, error) {
	timer := time.NewTimer(s.opts.Timeout)
	defer timer.Stop()
	ticker := time.NewTicker(s.opts.ScanInterval)
	defer ticker.Stop()

	for {
		if res, done, err := s.scan(proc, sentinel, checkPatterns); done {
			return res, err
		}

		select {
		case <-proc.notify:
		case <-ticker.C:
		case <-proc.done:
			if res, done, err := s.scan(proc, sentinel, checkPatterns); done {
				return res, err
			}
			if s.isClosed() {
				return waitResult{}, ErrClosed
			}
			// e.g. a syntax error, which ends a non-interactive shell
			if _, stderr := proc.output(); strings.TrimSpace(stderr) != "" {
				return waitResult{}, &CommandError{
					Stderr:   strings.TrimSpace(stderr),
					ExitCode: exitCode(proc.waitErr),
				}
			}
			return waitResult{}, fmt.Errorf("%w: %v", ErrShellExited, proc.waitErr)
		case <-timer.C:
			return waitResult{}, ErrTimeout
		case <-ctx.Done():
			return waitResult{}, ErrCanceled
		}
	}
}

func (s *Session) scan(proc *process, sentinel string, checkPatterns bool) (waitResult, bool, error) {
	stdout, stderr := proc.output()

	if checkPatterns {
		if category, ok := MatchError(s.opts.ErrorPatterns, stdout+stderr); ok {
			return waitResult{}, true, &ShellError{Category: category}
		}
	}

	out, code, ok := findSentinel(stdout, sentinel)
	if !ok {
		return waitResult{}, false, nil
	}
	errOut, ok := findStderrSentinel(stderr, sentinel)
	if !ok {
		return waitResult{}, false, nil
	}
	return waitResult{stdout: out, stderr: errOut, exitCode: code}, true, nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
