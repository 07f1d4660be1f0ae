//go:build !windows

package mpv

import (
	"os/exec"
	"syscall"
)

// setupProcess puts mpv in its own process group so terminal signals aimed at us do not reach it.
func setupProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// stopProcess terminates the whole process group.
func stopProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}
