package watchdog

import (
	"fmt"
	"os"
	"time"

	"github.com/core-tools/hsu-watchdog/pkg/errors"
	"github.com/core-tools/hsu-watchdog/pkg/heartbeat"
	"github.com/core-tools/hsu-watchdog/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	DefaultCheckInterval   = time.Minute
	DefaultGraceDuration   = 5 * time.Minute
	DefaultShutdownCommand = "poweroff"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = logging.FormatConsole
)

// Config is loaded once at startup and never modified afterwards
type Config struct {
	HeartbeatPath   string   `yaml:"heartbeat_path"`
	CheckInterval   Duration `yaml:"check_interval"`
	GraceDuration   Duration `yaml:"grace_duration"`
	ShutdownCommand string   `yaml:"shutdown_command"`

	LogLevel  string `yaml:"log_level,omitempty"`
	LogFormat string `yaml:"log_format,omitempty"`
	PIDFile   string `yaml:"pid_file,omitempty"`
}

// Overrides carries explicitly given command line values; empty means unset
type Overrides struct {
	HeartbeatPath   string
	CheckInterval   string
	GraceDuration   string
	ShutdownCommand string
	LogLevel        string
	LogFormat       string
	PIDFile         string
}

// DefaultConfig returns the built-in configuration
func DefaultConfig(heartbeatPath string) Config {
	return Config{
		HeartbeatPath:   heartbeatPath,
		CheckInterval:   Duration(DefaultCheckInterval),
		GraceDuration:   Duration(DefaultGraceDuration),
		ShutdownCommand: DefaultShutdownCommand,
		LogLevel:        DefaultLogLevel,
		LogFormat:       DefaultLogFormat,
	}
}

// LoadConfigFromFile reads a YAML file on top of defaults. Keys missing from
// the file keep their default value.
func LoadConfigFromFile(filename string, defaults Config) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.NewIOError("failed to read configuration file", err).WithContext("filename", filename)
	}

	config := defaults
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.NewValidationError("failed to parse YAML configuration", err).WithContext("filename", filename)
	}

	setConfigDefaults(&config, defaults)
	return &config, nil
}

// ApplyOverrides applies command line values on top of config.
// Duration strings that do not parse are returned as errors.
func ApplyOverrides(config *Config, overrides Overrides) error {
	if overrides.HeartbeatPath != "" {
		config.HeartbeatPath = overrides.HeartbeatPath
	}
	if overrides.CheckInterval != "" {
		d, err := ParseDuration(overrides.CheckInterval)
		if err != nil {
			return errors.NewValidationError("invalid check interval", err).WithContext("check_interval", overrides.CheckInterval)
		}
		config.CheckInterval = Duration(d)
	}
	if overrides.GraceDuration != "" {
		d, err := ParseDuration(overrides.GraceDuration)
		if err != nil {
			return errors.NewValidationError("invalid grace duration", err).WithContext("grace_duration", overrides.GraceDuration)
		}
		config.GraceDuration = Duration(d)
	}
	if overrides.ShutdownCommand != "" {
		config.ShutdownCommand = overrides.ShutdownCommand
	}
	if overrides.LogLevel != "" {
		config.LogLevel = overrides.LogLevel
	}
	if overrides.LogFormat != "" {
		config.LogFormat = overrides.LogFormat
	}
	if overrides.PIDFile != "" {
		config.PIDFile = overrides.PIDFile
	}
	return nil
}

func setConfigDefaults(config *Config, defaults Config) {
	if config.HeartbeatPath == "" {
		config.HeartbeatPath = defaults.HeartbeatPath
	}
	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevel
	}
	if config.LogFormat == "" {
		config.LogFormat = DefaultLogFormat
	}
}

// ValidateConfig rejects configurations the loop cannot run with.
// The shutdown command is checked only when a shutdown is triggered.
func ValidateConfig(config *Config) error {
	if config == nil {
		return errors.NewValidationError("configuration cannot be nil", nil)
	}

	if config.HeartbeatPath == "" {
		return errors.NewValidationError("heartbeat path is required", nil)
	}

	if config.CheckInterval <= 0 {
		return errors.NewValidationError(
			fmt.Sprintf("check interval must be positive: %s", config.CheckInterval),
			nil,
		).WithContext("check_interval", config.CheckInterval.String())
	}

	if config.GraceDuration < 0 {
		return errors.NewValidationError(
			fmt.Sprintf("grace duration cannot be negative: %s", config.GraceDuration),
			nil,
		).WithContext("grace_duration", config.GraceDuration.String())
	}

	if _, err := logging.ParseLevel(config.LogLevel); err != nil {
		return errors.NewValidationError("invalid log level", err).WithContext("valid_levels", "debug, info, warn, error")
	}

	switch config.LogFormat {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return errors.NewValidationError(
			fmt.Sprintf("invalid log format: %s", config.LogFormat),
			nil,
		).WithContext("valid_formats", "console, json")
	}

	return nil
}

// ConfigSummary provides a high-level overview of configuration
type ConfigSummary struct {
	HeartbeatPath     string `json:"heartbeat_path"`
	HeartbeatStrategy string `json:"heartbeat_strategy"`
	CheckInterval     string `json:"check_interval"`
	GraceDuration     string `json:"grace_duration"`
	ShutdownCommand   string `json:"shutdown_command"`
	LogLevel          string `json:"log_level"`
	PIDFile           string `json:"pid_file,omitempty"`
}

// GetConfigSummary returns a human-readable summary of the configuration
func GetConfigSummary(config *Config) ConfigSummary {
	return ConfigSummary{
		HeartbeatPath:     config.HeartbeatPath,
		HeartbeatStrategy: heartbeat.DefaultStrategy,
		CheckInterval:     config.CheckInterval.String(),
		GraceDuration:     config.GraceDuration.String(),
		ShutdownCommand:   config.ShutdownCommand,
		LogLevel:          config.LogLevel,
		PIDFile:           config.PIDFile,
	}
}
