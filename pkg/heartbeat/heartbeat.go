// Package heartbeat reads and re-creates the activity marker file that the
// watchdog polls. The marker is owned by an external producer; this package only
// reads it, and re-creates it after a failed read.
package heartbeat

import (
	"time"
)

// Source is one freshness strategy for the heartbeat marker
type Source interface {
	// Path returns the marker location
	Path() string

	// Strategy names the freshness strategy, for diagnostics
	Strategy() string

	// Read returns the time of last observed activity
	Read() (time.Time, error)

	// Initialize creates or truncates the marker so that now becomes the baseline
	Initialize(now time.Time) error
}
