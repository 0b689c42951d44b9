package watchdog

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/core-tools/hsu-watchdog/pkg/heartbeat"
	"github.com/core-tools/hsu-watchdog/pkg/logging"
	"github.com/core-tools/hsu-watchdog/pkg/shutdown"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// WatchdogMockLogger records formatted lines per level
type WatchdogMockLogger struct {
	lines map[logging.Level][]string
}

func newWatchdogMockLogger() *WatchdogMockLogger {
	return &WatchdogMockLogger{lines: make(map[logging.Level][]string)}
}

func (m *WatchdogMockLogger) Logf(level logging.Level, format string, args ...interface{}) {
	m.lines[level] = append(m.lines[level], fmt.Sprintf(format, args...))
}
func (m *WatchdogMockLogger) Debugf(format string, args ...interface{}) {
	m.Logf(logging.LevelDebug, format, args...)
}
func (m *WatchdogMockLogger) Infof(format string, args ...interface{}) {
	m.Logf(logging.LevelInfo, format, args...)
}
func (m *WatchdogMockLogger) Warnf(format string, args ...interface{}) {
	m.Logf(logging.LevelWarn, format, args...)
}
func (m *WatchdogMockLogger) Errorf(format string, args ...interface{}) {
	m.Logf(logging.LevelError, format, args...)
}

type fakeExecutor struct {
	commands []shutdown.Command
	err      error
}

func (e *fakeExecutor) Execute(command shutdown.Command) error {
	e.commands = append(e.commands, command)
	return e.err
}

type fakeClock struct {
	current time.Time
	sleeps  []time.Duration
}

func (c *fakeClock) Now() time.Time {
	return c.current
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.current = c.current.Add(d)
}

type watchdogFixture struct {
	path     string
	clock    *fakeClock
	executor *fakeExecutor
	logger   *WatchdogMockLogger
	watchdog *Watchdog
}

func newWatchdogFixture(t *testing.T, config Config, source func(path string) heartbeat.Source) *watchdogFixture {
	t.Helper()
	path := filepath.Join(t.TempDir(), "last_heartbeat")
	config.HeartbeatPath = path

	f := &watchdogFixture{
		path:     path,
		clock:    &fakeClock{current: time.Unix(1700000000, 0)},
		executor: &fakeExecutor{},
		logger:   newWatchdogMockLogger(),
	}
	f.watchdog = NewWatchdog(config, source(path), f.executor, f.logger,
		WithClock(f.clock.Now), WithSleep(f.clock.Sleep))
	return f
}

func (f *watchdogFixture) writeHeartbeat(t *testing.T, ts time.Time) {
	t.Helper()
	require.NoError(t, os.WriteFile(f.path, []byte(strconv.FormatInt(ts.Unix(), 10)), 0644))
}

func contentSource(path string) heartbeat.Source {
	return heartbeat.NewContentSource(path)
}

func modTimeSource(path string) heartbeat.Source {
	return heartbeat.NewModTimeSource(path)
}

func testConfig() Config {
	config := DefaultConfig("")
	config.CheckInterval = Duration(time.Minute)
	config.GraceDuration = Duration(5 * time.Minute)
	config.ShutdownCommand = "shutdown -h now"
	return config
}

func TestWatchdog_MissingMarkerIsInitializedThenFresh(t *testing.T) {
	for name, source := range map[string]func(string) heartbeat.Source{
		"content": contentSource,
		"modtime": modTimeSource,
	} {
		t.Run(name, func(t *testing.T) {
			f := newWatchdogFixture(t, testConfig(), source)

			assert.Equal(t, CheckResultInitialized, f.watchdog.cycle())
			require.Len(t, f.logger.lines[logging.LevelWarn], 1)
			assert.Contains(t, f.logger.lines[logging.LevelWarn][0], "Failed to read heartbeat")
			_, err := os.Stat(f.path)
			require.NoError(t, err, "marker must be created")

			assert.Equal(t, CheckResultFresh, f.watchdog.cycle())
			assert.Empty(t, f.executor.commands)
		})
	}
}

func TestWatchdog_StaleHeartbeatTriggersShutdownOnce(t *testing.T) {
	f := newWatchdogFixture(t, testConfig(), contentSource)
	f.writeHeartbeat(t, f.clock.current.Add(-6*time.Minute))

	result := f.watchdog.Check()

	assert.Equal(t, CheckResultShutdown, result)
	require.Len(t, f.executor.commands, 1)
	assert.Equal(t, "shutdown", f.executor.commands[0].Program)
	assert.Equal(t, []string{"-h", "now"}, f.executor.commands[0].Args)
}

func TestWatchdog_HeartbeatWithinGraceWindow(t *testing.T) {
	f := newWatchdogFixture(t, testConfig(), contentSource)
	f.writeHeartbeat(t, f.clock.current.Add(-4*time.Minute))

	assert.Equal(t, CheckResultFresh, f.watchdog.cycle())
	assert.Empty(t, f.executor.commands)
	assert.Equal(t, []time.Duration{time.Minute}, f.clock.sleeps)
}

func TestWatchdog_DeadlineIsInclusive(t *testing.T) {
	f := newWatchdogFixture(t, testConfig(), contentSource)
	f.writeHeartbeat(t, f.clock.current.Add(-5*time.Minute))

	assert.Equal(t, CheckResultFresh, f.watchdog.Check())

	f.clock.current = f.clock.current.Add(time.Second)
	assert.Equal(t, CheckResultShutdown, f.watchdog.Check())
}

func TestWatchdog_ZeroGraceShutsDownOnAnyAge(t *testing.T) {
	config := testConfig()
	config.GraceDuration = 0
	f := newWatchdogFixture(t, config, contentSource)
	f.writeHeartbeat(t, f.clock.current.Add(-time.Second))

	assert.Equal(t, CheckResultShutdown, f.watchdog.Check())
}

func TestWatchdog_ContinuouslyRefreshedNeverShutsDown(t *testing.T) {
	f := newWatchdogFixture(t, testConfig(), contentSource)

	for i := 0; i < 100; i++ {
		f.writeHeartbeat(t, f.clock.current)
		assert.Equal(t, CheckResultFresh, f.watchdog.cycle())
	}

	assert.Empty(t, f.executor.commands)
	assert.Len(t, f.clock.sleeps, 100)
}

func TestWatchdog_IdleAfterInitializationEventuallyShutsDown(t *testing.T) {
	f := newWatchdogFixture(t, testConfig(), contentSource)

	var results []CheckResult
	for i := 0; i < 7; i++ {
		results = append(results, f.watchdog.cycle())
	}

	// initialized at t0, fresh through t0+5m, stale at t0+6m
	assert.Equal(t, []CheckResult{
		CheckResultInitialized,
		CheckResultFresh, CheckResultFresh, CheckResultFresh, CheckResultFresh, CheckResultFresh,
		CheckResultShutdown,
	}, results)
	assert.Len(t, f.executor.commands, 1)
}

func TestWatchdog_CorruptMarkerIsReinitialized(t *testing.T) {
	f := newWatchdogFixture(t, testConfig(), contentSource)
	require.NoError(t, os.WriteFile(f.path, []byte("garbage"), 0644))

	assert.Equal(t, CheckResultInitialized, f.watchdog.Check())

	content, err := os.ReadFile(f.path)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(f.clock.current.Unix(), 10), string(content))
}

func TestWatchdog_InitializeFailureIsNotFatal(t *testing.T) {
	config := testConfig()
	f := newWatchdogFixture(t, config, contentSource)
	unwritable := filepath.Join(filepath.Dir(f.path), "missing", "last_heartbeat")
	w := NewWatchdog(config, heartbeat.NewContentSource(unwritable), f.executor, f.logger,
		WithClock(f.clock.Now), WithSleep(f.clock.Sleep))

	assert.Equal(t, CheckResultInitFailed, w.cycle())
	assert.Equal(t, CheckResultInitFailed, w.cycle())

	assert.Len(t, f.logger.lines[logging.LevelError], 2)
	assert.Len(t, f.clock.sleeps, 2)
	assert.Empty(t, f.executor.commands)
}

func TestWatchdog_EmptyShutdownCommandResumesPolling(t *testing.T) {
	config := testConfig()
	config.ShutdownCommand = "   "
	f := newWatchdogFixture(t, config, contentSource)
	f.writeHeartbeat(t, f.clock.current.Add(-time.Hour))

	assert.Equal(t, CheckResultShutdownFailed, f.watchdog.cycle())
	assert.Equal(t, CheckResultShutdownFailed, f.watchdog.cycle())

	assert.Empty(t, f.executor.commands, "no process may be launched")
	require.Len(t, f.logger.lines[logging.LevelError], 2)
	assert.Contains(t, f.logger.lines[logging.LevelError][0], "Failed to parse shutdown command")
}

func TestWatchdog_ExecutorFailureResumesPolling(t *testing.T) {
	f := newWatchdogFixture(t, testConfig(), contentSource)
	f.executor.err = stderrors.New("exec failed")
	f.writeHeartbeat(t, f.clock.current.Add(-time.Hour))

	assert.Equal(t, CheckResultShutdownFailed, f.watchdog.cycle())
	assert.Equal(t, CheckResultShutdownFailed, f.watchdog.cycle())

	assert.Len(t, f.executor.commands, 2)
	assert.Len(t, f.clock.sleeps, 2)
}

func TestWatchdog_ModTimeStrategy(t *testing.T) {
	f := newWatchdogFixture(t, testConfig(), modTimeSource)
	require.NoError(t, os.WriteFile(f.path, nil, 0644))

	stale := f.clock.current.Add(-10 * time.Minute)
	require.NoError(t, os.Chtimes(f.path, stale, stale))
	assert.Equal(t, CheckResultShutdown, f.watchdog.Check())

	fresh := f.clock.current.Add(-time.Minute)
	require.NoError(t, os.Chtimes(f.path, fresh, fresh))
	assert.Equal(t, CheckResultFresh, f.watchdog.Check())
}
