//go:build !windows

package shutdown

import (
	"golang.org/x/sys/unix"
)

// replaceProcess execve()s the shutdown program: same PID, inherited fds and environment
func replaceProcess(path string, argv []string, envv []string) error {
	return unix.Exec(path, argv, envv)
}
