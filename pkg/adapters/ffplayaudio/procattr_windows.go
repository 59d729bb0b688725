//go:build windows

package ffplayaudio

import "os/exec"

func configureProcAttr(cmd *exec.Cmd) {}
