//go:build !windows

package shell

import (
	"errors"
	"os/exec"
	"syscall"
)

// setProcessGroup puts the shell in its own process group so that killing
// it also takes down whatever it is running.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// processGroup is the shell's process group, whose id is the shell's pid.
type processGroup struct{}

func newProcessGroup(cmd *exec.Cmd) (processGroup, error) {
	return processGroup{}, nil
}

func (processGroup) kill(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}

func (processGroup) release() {}

func defaultShell() (string, []string, Dialect) {
	return "bash", []string{"-l"}, Posix{}
}
