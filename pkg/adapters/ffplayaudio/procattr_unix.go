//go:build !windows

package ffplayaudio

import (
	"os/exec"
	"syscall"
)

// configureProcAttr detaches the player into its own process group so
// terminal signals aimed at termplay do not reach it.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
