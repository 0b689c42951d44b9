package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/core-tools/hsu-watchdog/pkg/heartbeat"
	"github.com/core-tools/hsu-watchdog/pkg/logging"
	"github.com/core-tools/hsu-watchdog/pkg/processfile"
	"github.com/core-tools/hsu-watchdog/pkg/shutdown"
	"github.com/core-tools/hsu-watchdog/pkg/watchdog"

	flags "github.com/jessevdk/go-flags"
)

// Empty values mean "not given"; defaults come from the config layer
type flagOptions struct {
	Config          string `long:"config" description:"path to a YAML configuration file"`
	HeartbeatPath   string `long:"heartbeat-path" description:"heartbeat marker file (default: <run dir>/last_heartbeat)"`
	CheckInterval   string `long:"check-interval" description:"time between checks, e.g. 30s, 1m (default: 1m)"`
	GraceDuration   string `long:"grace-duration" description:"maximum heartbeat age before shutdown (default: 5m)"`
	ShutdownCommand string `long:"shutdown-command" description:"command executed on timeout (default: poweroff)"`
	ServiceContext  string `long:"service-context" description:"run directory for the default heartbeat path: system, user or session" default:"system"`
	LogLevel        string `long:"log-level" description:"debug, info, warn or error (default: info)"`
	LogFormat       string `long:"log-format" description:"console or json (default: console)"`
	PIDFile         string `long:"pid-file" description:"write the watchdog PID to this file"`
	CheckConfig     bool   `long:"check-config" description:"validate the configuration, print it and exit"`
}

func main() {
	var opts flagOptions
	var parser = flags.NewParser(&opts, flags.HelpFlag)
	parser.ShortDescription = "Automatically shut down after a period of inactivity"

	_, err := parser.ParseArgs(os.Args[1:])
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, flagsErr.Message)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Command line flags parsing failed: %v\n", err)
		os.Exit(1)
	}

	config, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if opts.CheckConfig {
		summary, _ := json.MarshalIndent(watchdog.GetConfigSummary(config), "", "  ")
		fmt.Fprintln(os.Stdout, string(summary))
		os.Exit(0)
	}

	level, _ := logging.ParseLevel(config.LogLevel)
	backend := logging.NewZapBackend(logging.ZapConfig{
		Level:  level,
		Format: config.LogFormat,
		Output: os.Stderr,
	})
	logger := logging.NewLogger("", backend.LogFuncs())

	if config.PIDFile != "" {
		files := processfile.NewProcessFileManager(processfile.ProcessFileConfig{}, logger)
		if err := files.WritePIDFile(config.PIDFile, os.Getpid()); err != nil {
			logger.Errorf("Failed to write PID file: %v", err)
			_ = backend.Sync()
			os.Exit(1)
		}
	}

	executor := shutdown.NewProcessExecutor(logger, shutdown.WithBeforeExec(func() {
		_ = backend.Sync()
	}))
	source := heartbeat.NewDefaultSource(config.HeartbeatPath)

	watchdog.NewWatchdog(*config, source, executor, logger).Run()
}

// loadConfig layers defaults, the optional config file and explicit flags, then validates
func loadConfig(opts flagOptions) (*watchdog.Config, error) {
	serviceContext, err := processfile.ParseServiceContext(opts.ServiceContext)
	if err != nil {
		return nil, err
	}
	runFiles := processfile.NewProcessFileManager(processfile.ProcessFileConfig{
		ServiceContext: serviceContext,
	}, logging.NewNopLogger())

	defaults := watchdog.DefaultConfig(runFiles.GenerateHeartbeatFilePath())
	config := &defaults
	if opts.Config != "" {
		config, err = watchdog.LoadConfigFromFile(opts.Config, defaults)
		if err != nil {
			return nil, err
		}
	}

	err = watchdog.ApplyOverrides(config, watchdog.Overrides{
		HeartbeatPath:   opts.HeartbeatPath,
		CheckInterval:   opts.CheckInterval,
		GraceDuration:   opts.GraceDuration,
		ShutdownCommand: opts.ShutdownCommand,
		LogLevel:        opts.LogLevel,
		LogFormat:       opts.LogFormat,
		PIDFile:         opts.PIDFile,
	})
	if err != nil {
		return nil, err
	}

	if err := watchdog.ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}
