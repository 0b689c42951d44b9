package logging

import (
	"fmt"
	"strings"
)

// Level is the severity of a log line
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts a configured level name into a Level
func ParseLevel(name string) (Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for level, levelName := range levelNames {
		if levelName == normalized {
			return level, nil
		}
	}
	return LevelInfo, fmt.Errorf("invalid log level: %q", name)
}

type Logger interface {
	Logf(level Level, format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type LogFunc func(format string, args ...interface{})

// LogFuncs binds a Logger to a backend; nil entries drop lines of that level
type LogFuncs struct {
	Debugf LogFunc
	Infof  LogFunc
	Warnf  LogFunc
	Errorf LogFunc
}

func (f LogFuncs) forLevel(level Level) LogFunc {
	switch level {
	case LevelDebug:
		return f.Debugf
	case LevelInfo:
		return f.Infof
	case LevelWarn:
		return f.Warnf
	case LevelError:
		return f.Errorf
	}
	return nil
}

type logger struct {
	prefix string
	funcs  LogFuncs
}

func NewLogger(prefix string, funcs LogFuncs) Logger {
	return &logger{
		prefix: prefix,
		funcs:  funcs,
	}
}

// NewNopLogger returns a Logger that discards everything
func NewNopLogger() Logger {
	return &logger{}
}

func (l *logger) Logf(level Level, format string, args ...interface{}) {
	fn := l.funcs.forLevel(level)
	if fn == nil {
		return
	}
	fn(l.prefix+format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.Logf(LevelDebug, format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.Logf(LevelInfo, format, args...)
}

func (l *logger) Warnf(format string, args ...interface{}) {
	l.Logf(LevelWarn, format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.Logf(LevelError, format, args...)
}
