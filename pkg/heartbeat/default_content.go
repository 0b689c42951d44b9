//go:build !heartbeat_mtime

package heartbeat

// DefaultStrategy is the strategy compiled into this build
const DefaultStrategy = StrategyContent

// NewDefaultSource returns the marker reader selected at build time
func NewDefaultSource(path string) Source {
	return NewContentSource(path)
}
