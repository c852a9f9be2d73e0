//go:build windows

package runner

import "os/exec"

// setProcessGroup keeps the default cancel, which kills the worker process
// only.
func setProcessGroup(cmd *exec.Cmd) {}
