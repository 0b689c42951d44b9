package processfile

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/core-tools/hsu-watchdog/pkg/errors"
	"github.com/core-tools/hsu-watchdog/pkg/logging"
)

const (
	DefaultAppName = "hsu-watchdog"

	// DefaultHeartbeatFileName is the marker name inside the run directory
	DefaultHeartbeatFileName = "last_heartbeat"
)

// ServiceContext defines the context in which the watchdog runs
type ServiceContext string

const (
	// SystemService runs as a system daemon; markers live in /run
	SystemService ServiceContext = "system"

	// UserService runs as a user service; markers live in XDG_RUNTIME_DIR
	UserService ServiceContext = "user"

	// SessionService runs inside a login session
	SessionService ServiceContext = "session"
)

// ParseServiceContext validates a service context name
func ParseServiceContext(name string) (ServiceContext, error) {
	switch ServiceContext(strings.ToLower(name)) {
	case SystemService, "":
		return SystemService, nil
	case UserService:
		return UserService, nil
	case SessionService:
		return SessionService, nil
	}
	return "", errors.NewValidationError(fmt.Sprintf("unsupported service context: %s", name), nil).
		WithContext("supported_contexts", "system, user, session")
}

// ProcessFileConfig holds configuration for run-directory files
type ProcessFileConfig struct {
	// Base directory for run files. If empty, uses OS-appropriate default
	BaseDirectory string

	ServiceContext ServiceContext

	AppName string
}

// ProcessFileManager resolves run-directory paths and manages the watchdog's PID file
type ProcessFileManager struct {
	config ProcessFileConfig
	logger logging.Logger
}

func NewProcessFileManager(config ProcessFileConfig, logger logging.Logger) *ProcessFileManager {
	if config.AppName == "" {
		config.AppName = DefaultAppName
	}
	if config.ServiceContext == "" {
		config.ServiceContext = SystemService
	}

	return &ProcessFileManager{
		config: config,
		logger: logger,
	}
}

// GenerateHeartbeatFilePath returns the default heartbeat marker location.
// On Linux system services this is /run/last_heartbeat.
func (m *ProcessFileManager) GenerateHeartbeatFilePath() string {
	return filepath.Join(m.getBaseDirectory(), DefaultHeartbeatFileName)
}

// WritePIDFile records pid at path. The PID survives process replacement,
// so the file then names the shutdown command.
func (m *ProcessFileManager) WritePIDFile(path string, pid int) error {
	m.logger.Debugf("Writing PID file, pid: %d, path: %s", pid, path)

	if err := ValidateFileDirectory(path); err != nil {
		return errors.NewIOError("PID file directory validation failed", err).WithContext("pid_file", path)
	}

	content := fmt.Sprintf("%d\n", pid)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.NewIOError("failed to write PID file", err).WithContext("pid_file", path).WithContext("pid", pid)
	}

	m.logger.Infof("PID file written, pid: %d, path: %s", pid, path)
	return nil
}

// ReadPIDFile reads a PID written by WritePIDFile
func (m *ProcessFileManager) ReadPIDFile(path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.NewIOError("failed to read PID file", err).WithContext("pid_file", path)
	}

	pidStr := strings.TrimSpace(string(content))
	pid, err := strconv.Atoi(pidStr)
	if err != nil || pid <= 0 {
		return 0, errors.NewValidationError("invalid PID in PID file", err).WithContext("pid_file", path).WithContext("content", pidStr)
	}
	return pid, nil
}

func (m *ProcessFileManager) getBaseDirectory() string {
	if m.config.BaseDirectory != "" {
		return m.config.BaseDirectory
	}

	switch m.config.ServiceContext {
	case UserService:
		return m.getUserServiceDirectory()
	case SessionService:
		return m.getSessionServiceDirectory()
	default:
		return m.getSystemServiceDirectory()
	}
}

func (m *ProcessFileManager) getSystemServiceDirectory() string {
	switch runtime.GOOS {
	case "windows":
		programData := os.Getenv("PROGRAMDATA")
		if programData == "" {
			programData = "C:\\ProgramData"
		}
		return filepath.Join(programData, m.config.AppName)

	case "darwin":
		return "/var/run"

	default:
		// Modern standard is /run, with fallback to /var/run
		if _, err := os.Stat("/run"); err == nil {
			return "/run"
		}
		return "/var/run"
	}
}

func (m *ProcessFileManager) getUserServiceDirectory() string {
	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = os.TempDir()
		}
		return filepath.Join(localAppData, m.config.AppName)

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return os.TempDir()
		}
		return filepath.Join(homeDir, "Library", "Application Support", m.config.AppName)

	default:
		if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
			return runtimeDir
		}
		return "/tmp"
	}
}

func (m *ProcessFileManager) getSessionServiceDirectory() string {
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return os.TempDir()
	}

	sessionDir := fmt.Sprintf("/run/user/%d", os.Getuid())
	if _, err := os.Stat(sessionDir); err == nil {
		return sessionDir
	}
	return "/tmp"
}

// ValidateFileDirectory checks that the parent of path exists and is a directory.
// It never creates directories.
func ValidateFileDirectory(path string) error {
	dir := filepath.Dir(path)

	info, err := os.Stat(dir)
	if err != nil {
		return errors.NewIOError("directory not accessible", err).WithContext("directory", dir)
	}
	if !info.IsDir() {
		return errors.NewValidationError("parent path is not a directory", nil).WithContext("path", dir)
	}
	return nil
}
