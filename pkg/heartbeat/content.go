package heartbeat

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/core-tools/hsu-watchdog/pkg/errors"
)

const StrategyContent = "content"

// ContentSource stores the heartbeat as decimal Unix seconds inside the marker
type ContentSource struct {
	path string
}

func NewContentSource(path string) *ContentSource {
	return &ContentSource{path: path}
}

func (s *ContentSource) Path() string {
	return s.path
}

func (s *ContentSource) Strategy() string {
	return StrategyContent
}

func (s *ContentSource) Read() (time.Time, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return time.Time{}, errors.NewHeartbeatUnavailableError("failed to read heartbeat file", err).WithContext("path", s.path)
	}

	seconds, err := ParseTimestamp(string(content))
	if err != nil {
		return time.Time{}, errors.NewHeartbeatUnavailableError("invalid heartbeat file contents", err).WithContext("path", s.path)
	}

	return time.Unix(seconds, 0), nil
}

func (s *ContentSource) Initialize(now time.Time) error {
	seconds := now.Unix()
	if seconds < 0 {
		seconds = 0
	}

	// os.WriteFile creates or truncates, never touches the parent directory
	content := strconv.FormatInt(seconds, 10)
	if err := os.WriteFile(s.path, []byte(content), 0644); err != nil {
		return errors.NewHeartbeatWriteError("failed to write heartbeat file", err).WithContext("path", s.path)
	}
	return nil
}

// ParseTimestamp parses marker contents as non-negative Unix seconds.
// Surrounding whitespace such as the newline left by `date +%s > file` is ignored.
func ParseTimestamp(content string) (int64, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return 0, errors.NewParseError("empty heartbeat timestamp", nil)
	}

	seconds, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, errors.NewParseError("heartbeat timestamp is not a non-negative integer", err).WithContext("content", trimmed)
	}
	if seconds > uint64(maxUnixSeconds) {
		return 0, errors.NewParseError("heartbeat timestamp out of range", nil).WithContext("content", trimmed)
	}

	return int64(seconds), nil
}

// Roughly year 36800; anything larger is a corrupt marker
const maxUnixSeconds = int64(1) << 40
