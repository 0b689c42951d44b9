// Package watchdog implements the inactivity poll loop: read the heartbeat
// marker, compare it against the grace deadline, and hand the process over to
// the shutdown command once the host has been idle for too long.
//
// The loop is single-threaded. Sleeping between cycles is the only suspension
// point and nothing cancels it; the loop ends only when the shutdown command
// replaces the process or the process is killed.
package watchdog

import (
	"time"

	"github.com/core-tools/hsu-watchdog/pkg/heartbeat"
	"github.com/core-tools/hsu-watchdog/pkg/logging"
	"github.com/core-tools/hsu-watchdog/pkg/shutdown"
)

// CheckResult is the outcome of one poll cycle
type CheckResult string

const (
	// CheckResultFresh means the heartbeat is within the grace window
	CheckResultFresh CheckResult = "fresh"

	// CheckResultShutdown means the executor accepted the shutdown command
	CheckResultShutdown CheckResult = "shutdown"

	// CheckResultShutdownFailed means the heartbeat was stale but no shutdown happened
	CheckResultShutdownFailed CheckResult = "shutdown_failed"

	// CheckResultInitialized means the read failed and the marker was re-created
	CheckResultInitialized CheckResult = "initialized"

	// CheckResultInitFailed means both the read and the re-creation failed
	CheckResultInitFailed CheckResult = "init_failed"
)

type Watchdog struct {
	config   Config
	source   heartbeat.Source
	executor shutdown.Executor
	logger   logging.Logger

	now   func() time.Time
	sleep func(time.Duration)
}

type Option func(*Watchdog)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(w *Watchdog) {
		w.now = now
	}
}

// WithSleep replaces time.Sleep
func WithSleep(sleep func(time.Duration)) Option {
	return func(w *Watchdog) {
		w.sleep = sleep
	}
}

func NewWatchdog(config Config, source heartbeat.Source, executor shutdown.Executor, logger logging.Logger, opts ...Option) *Watchdog {
	w := &Watchdog{
		config:   config,
		source:   source,
		executor: executor,
		logger:   logger,
		now:      time.Now,
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls forever
func (w *Watchdog) Run() {
	w.logger.Infof("Watchdog started, heartbeat: %s (%s), check interval: %s, grace duration: %s, shutdown command: %q",
		w.source.Path(), w.source.Strategy(), w.config.CheckInterval, w.config.GraceDuration, w.config.ShutdownCommand)

	for {
		w.cycle()
	}
}

func (w *Watchdog) cycle() CheckResult {
	result := w.Check()
	w.sleep(w.config.CheckInterval.Std())
	return result
}

// Check runs one poll cycle without the trailing sleep
func (w *Watchdog) Check() CheckResult {
	lastHeartbeat, err := w.source.Read()
	if err != nil {
		w.logger.Warnf("Failed to read heartbeat, path: %s, error: %v", w.source.Path(), err)
		return w.initialize()
	}

	deadline := lastHeartbeat.Add(w.config.GraceDuration.Std())
	now := w.now()
	if !now.After(deadline) {
		w.logger.Debugf("Heartbeat is fresh, last: %s, deadline in: %s",
			lastHeartbeat.Format(time.RFC3339), deadline.Sub(now).Truncate(time.Second))
		return CheckResultFresh
	}

	w.logger.Infof("Heartbeat is stale, last: %s, idle for: %s, grace duration: %s",
		lastHeartbeat.Format(time.RFC3339), now.Sub(lastHeartbeat).Truncate(time.Second), w.config.GraceDuration)
	return w.shutdown()
}

func (w *Watchdog) initialize() CheckResult {
	if err := w.source.Initialize(w.now()); err != nil {
		w.logger.Errorf("Failed to initialize heartbeat, path: %s, error: %v", w.source.Path(), err)
		return CheckResultInitFailed
	}
	w.logger.Infof("Heartbeat initialized, path: %s", w.source.Path())
	return CheckResultInitialized
}

// shutdown returns only if the process was not replaced; polling then resumes
func (w *Watchdog) shutdown() CheckResult {
	command, err := shutdown.ParseCommand(w.config.ShutdownCommand)
	if err != nil {
		w.logger.Errorf("Failed to parse shutdown command, will retry next cycle, error: %v", err)
		return CheckResultShutdownFailed
	}

	if err := w.executor.Execute(command); err != nil {
		w.logger.Errorf("Failed to execute shutdown command, will retry next cycle, command: %q, error: %v", command.String(), err)
		return CheckResultShutdownFailed
	}
	return CheckResultShutdown
}
