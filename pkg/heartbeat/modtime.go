package heartbeat

import (
	"os"
	"time"

	"github.com/core-tools/hsu-watchdog/pkg/errors"
)

const StrategyModTime = "modtime"

// ModTimeSource uses the marker's last-modified time; contents are ignored
type ModTimeSource struct {
	path string
}

func NewModTimeSource(path string) *ModTimeSource {
	return &ModTimeSource{path: path}
}

func (s *ModTimeSource) Path() string {
	return s.path
}

func (s *ModTimeSource) Strategy() string {
	return StrategyModTime
}

func (s *ModTimeSource) Read() (time.Time, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return time.Time{}, errors.NewHeartbeatUnavailableError("failed to stat heartbeat file", err).WithContext("path", s.path)
	}
	return info.ModTime(), nil
}

func (s *ModTimeSource) Initialize(now time.Time) error {
	file, err := os.Create(s.path)
	if err != nil {
		return errors.NewHeartbeatWriteError("failed to create heartbeat file", err).WithContext("path", s.path)
	}
	if err := file.Close(); err != nil {
		return errors.NewHeartbeatWriteError("failed to close heartbeat file", err).WithContext("path", s.path)
	}

	// Truncating an already empty file does not reliably bump mtime everywhere
	if err := os.Chtimes(s.path, now, now); err != nil {
		return errors.NewHeartbeatWriteError("failed to set heartbeat file times", err).WithContext("path", s.path)
	}
	return nil
}
