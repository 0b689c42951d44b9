package shutdown

import (
	"strings"

	"github.com/core-tools/hsu-watchdog/pkg/errors"
)

// Command is a shutdown command line split into program and arguments
type Command struct {
	Program string
	Args    []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Program}, c.Args...), " ")
}

// ParseCommand splits line on whitespace. There is no quoting or escaping.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, errors.NewShutdownCommandInvalidError("shutdown command is empty", nil).WithContext("command", line)
	}
	return Command{
		Program: fields[0],
		Args:    fields[1:],
	}, nil
}
