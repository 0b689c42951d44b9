//go:build windows

package shutdown

import (
	"errors"
	"os"
	"os/exec"
)

// replaceProcess approximates execve: run the program as a child, wait for it,
// and exit with its exit code. Signals sent to the watchdog are not forwarded.
func replaceProcess(path string, argv []string, envv []string) error {
	cmd := exec.Command(path, argv[1:]...)
	cmd.Env = envv
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return err
	}

	err := cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.ExitCode())
	}
	if err != nil {
		return err
	}
	os.Exit(0)
	return nil
}
