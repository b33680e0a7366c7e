//go:build windows

package sidecar

import "os/exec"

func setProcGroup(cmd *exec.Cmd) {}

// terminate kills outright: Windows has no SIGTERM for arbitrary processes.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func killProcessGroup(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
