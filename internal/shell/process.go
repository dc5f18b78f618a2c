package shell

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// outputBuffer accumulates one stream of the shell's output and pokes
// notify after every write.
type outputBuffer struct {
	mu     sync.Mutex
	buf    bytes.Buffer
	notify chan<- struct{}
}

// Write implements io.Writer interface
func (b *outputBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	n, err := b.buf.Write(p)
	b.mu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
	return n, err
}

func (b *outputBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *outputBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// processConfig describes how to spawn the shell.
type processConfig struct {
	Shell string
	Args  []string
	Dir   string
	Env   map[string]string
}

// process is one live shell subprocess with its own output buffers.
// Output written by a process is only ever visible through that process,
// so dropping a process drops everything it still writes.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *outputBuffer
	stderr *outputBuffer
	logger *zap.Logger

	group  processGroup
	notify chan struct{}
	done   chan struct{}

	waitErr error

	mu      sync.Mutex
	closed  bool
	pending string
}

// spawnProcess starts the shell with piped stdio.
func spawnProcess(config processConfig, logger *zap.Logger) (*process, error) {
	if config.Shell == "" {
		return nil, fmt.Errorf("shell is required")
	}

	cmd := exec.Command(config.Shell, config.Args...)
	if config.Dir != "" {
		cmd.Dir = config.Dir
	}

	cmd.Env = append(os.Environ(), "LANG=en_US.UTF-8")
	for k, v := range config.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	// Bound Wait when a grandchild keeps the output pipes open after the
	// shell is gone.
	cmd.WaitDelay = 2 * time.Second
	setProcessGroup(cmd)

	notify := make(chan struct{}, 1)
	p := &process{
		cmd:    cmd,
		stdout: &outputBuffer{notify: notify},
		stderr: &outputBuffer{notify: notify},
		logger: logger,
		notify: notify,
		done:   make(chan struct{}),
	}
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	p.stdin = stdin

	if err := cmd.Start(); err != nil {
		stdin.Close()
		return nil, fmt.Errorf("failed to start shell: %w", err)
	}

	if p.group, err = newProcessGroup(cmd); err != nil {
		logger.Warn("shell children will not be killed with it", zap.Error(err))
	}

	logger.Debug("shell process spawned",
		zap.String("shell", config.Shell),
		zap.Strings("args", config.Args),
		zap.String("dir", config.Dir),
		zap.Int("pid", cmd.Process.Pid))

	go func() {
		p.waitErr = p.cmd.Wait()
		p.logger.Debug("shell process exited",
			zap.Int("pid", p.cmd.Process.Pid),
			zap.NamedError("exitError", p.waitErr))
		close(p.done)
	}()

	return p, nil
}

func (p *process) pid() int {
	return p.cmd.Process.Pid
}

func (p *process) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *process) write(script string) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return fmt.Errorf("process is closed")
	}
	if _, err := io.WriteString(p.stdin, script); err != nil {
		return fmt.Errorf("failed to write command: %w", err)
	}
	return nil
}

func (p *process) reset() {
	p.stdout.Reset()
	p.stderr.Reset()
}

func (p *process) output() (stdout, stderr string) {
	return p.stdout.String(), p.stderr.String()
}

// setPending records the sentinel of a command that was abandoned before
// it finished. An empty string clears it.
func (p *process) setPending(sentinel string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = sentinel
}

func (p *process) pendingSentinel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// close ends stdin, kills the process group and waits for the process to
// be reaped. It is safe to call more than once.
func (p *process) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		<-p.done
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.stdin.Close()
	if err := p.group.kill(p.cmd); err != nil {
		p.logger.Debug("failed to kill shell process", zap.Error(err))
	}
	<-p.done
	p.group.release()
	p.reset()
}
