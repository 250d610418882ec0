//go:build windows

package sandbox

import (
	"os"
	"os/exec"
	"strconv"
	"syscall"
)

func configureProcessTree(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		if err := kill.Run(); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}

// killProcessTree is a no-op: the tree can only be walked while the leader is alive.
func killProcessTree(*exec.Cmd) error {
	return nil
}

func exitCode(state *os.ProcessState) int {
	return state.ExitCode()
}

func signalName(*os.ProcessState) string {
	return ""
}
