package shutdown

import (
	"os"
	"os/exec"

	"github.com/core-tools/hsu-watchdog/pkg/errors"
	"github.com/core-tools/hsu-watchdog/pkg/logging"
)

// Executor runs the shutdown command. A successful Execute does not return.
type Executor interface {
	Execute(command Command) error
}

// ExecFunc matches unix.Exec and syscall.Exec
type ExecFunc func(argv0 string, argv []string, envv []string) error

// ProcessExecutor hands the process over to the shutdown command
type ProcessExecutor struct {
	logger logging.Logger

	// Swappable so tests can capture the call instead of losing the test binary
	execFunc ExecFunc
	lookPath func(file string) (string, error)

	// beforeExec runs right before the process is replaced, e.g. to flush logs
	beforeExec func()
}

type ProcessExecutorOption func(*ProcessExecutor)

// WithBeforeExec registers a hook that runs just before the process image is replaced
func WithBeforeExec(hook func()) ProcessExecutorOption {
	return func(e *ProcessExecutor) {
		e.beforeExec = hook
	}
}

func NewProcessExecutor(logger logging.Logger, opts ...ProcessExecutorOption) *ProcessExecutor {
	e := &ProcessExecutor{
		logger:   logger,
		execFunc: replaceProcess,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *ProcessExecutor) Execute(command Command) error {
	if command.Program == "" {
		return errors.NewShutdownCommandInvalidError("shutdown command has no program", nil)
	}

	path, err := e.lookPath(command.Program)
	if err != nil {
		return errors.NewProcessError("shutdown program not found", err).WithContext("program", command.Program)
	}

	argv := append([]string{command.Program}, command.Args...)
	e.logger.Infof("Executing shutdown command, path: %s, argv: %v", path, argv)

	if e.beforeExec != nil {
		e.beforeExec()
	}

	err = e.execFunc(path, argv, os.Environ())

	// Reaching this point means the process was not replaced
	return errors.NewProcessError("failed to execute shutdown command", err).WithContext("path", path)
}
