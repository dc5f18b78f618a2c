//go:build windows

package shell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"unsafe"

	"golang.org/x/sys/windows"
)

// setProcessGroup is a no-op on Windows. The shell joins a job object once
// it has started instead.
func setProcessGroup(cmd *exec.Cmd) {}

// processGroup is a job object holding the shell and every process it
// starts. Closing the last handle to the job kills them all.
type processGroup struct {
	job windows.Handle
}

func newProcessGroup(cmd *exec.Cmd) (processGroup, error) {
	job, err := windows.CreateJobObject(nil, nil)
	if err != nil {
		return processGroup{}, fmt.Errorf("failed to create job object: %w", err)
	}

	info := windows.JOBOBJECT_EXTENDED_LIMIT_INFORMATION{
		BasicLimitInformation: windows.JOBOBJECT_BASIC_LIMIT_INFORMATION{
			LimitFlags: windows.JOB_OBJECT_LIMIT_KILL_ON_JOB_CLOSE,
		},
	}
	if _, err := windows.SetInformationJobObject(job,
		windows.JobObjectExtendedLimitInformation,
		uintptr(unsafe.Pointer(&info)),
		uint32(unsafe.Sizeof(info))); err != nil {
		windows.CloseHandle(job)
		return processGroup{}, fmt.Errorf("failed to configure job object: %w", err)
	}

	proc, err := windows.OpenProcess(windows.PROCESS_SET_QUOTA|windows.PROCESS_TERMINATE, false, uint32(cmd.Process.Pid))
	if err != nil {
		windows.CloseHandle(job)
		return processGroup{}, fmt.Errorf("failed to open shell process: %w", err)
	}
	defer windows.CloseHandle(proc)

	if err := windows.AssignProcessToJobObject(job, proc); err != nil {
		windows.CloseHandle(job)
		return processGroup{}, fmt.Errorf("failed to assign shell to job object: %w", err)
	}
	return processGroup{job: job}, nil
}

func (g processGroup) kill(cmd *exec.Cmd) error {
	if g.job != 0 {
		if err := windows.TerminateJobObject(g.job, 1); err == nil {
			return nil
		}
	}
	if cmd.Process == nil {
		return nil
	}
	err := cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (g processGroup) release() {
	if g.job != 0 {
		windows.CloseHandle(g.job)
	}
}

func defaultShell() (string, []string, Dialect) {
	return "powershell.exe", []string{"-NoLogo", "-NoProfile", "-NonInteractive", "-Command", "-"}, PowerShell{}
}
