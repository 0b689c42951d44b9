//go:build heartbeat_mtime

package heartbeat

// DefaultStrategy is the strategy compiled into this build
const DefaultStrategy = StrategyModTime

// NewDefaultSource returns the marker reader selected at build time
func NewDefaultSource(path string) Source {
	return NewModTimeSource(path)
}
