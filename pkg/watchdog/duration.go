package watchdog

import (
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/core-tools/hsu-watchdog/pkg/errors"

	"gopkg.in/yaml.v3"
)

var durationPattern = regexp.MustCompile(`^\s*(\d+)(\w)\s*$`)

var unitSeconds = map[string]uint64{
	"h": 60 * 60,
	"H": 60 * 60,
	"m": 60,
	"M": 60,
	"s": 1,
	"S": 1,
}

const maxDurationSeconds = uint64(math.MaxInt64 / int64(time.Second))

// ParseDuration parses "<integer><unit>" with unit one of h, m, s (either case).
// Fractions and composites such as "1h30m" are rejected.
func ParseDuration(input string) (time.Duration, error) {
	match := durationPattern.FindStringSubmatch(input)
	if match == nil {
		return 0, errors.NewParseError("failed to parse duration", nil).WithContext("input", input)
	}

	num, err := strconv.ParseUint(match[1], 10, 64)
	if err != nil {
		return 0, errors.NewParseError("duration value out of range", err).WithContext("input", input)
	}

	multiplier, ok := unitSeconds[match[2]]
	if !ok {
		return 0, errors.NewParseError("unknown duration unit: "+match[2], nil).
			WithContext("input", input).
			WithContext("supported_units", "h, m, s")
	}

	if num > maxDurationSeconds/multiplier {
		return 0, errors.NewParseError("duration too large", nil).WithContext("input", input)
	}

	return time.Duration(num*multiplier) * time.Second, nil
}

// Duration is a time.Duration written in the "<integer><unit>" form in config files
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return formatDuration(time.Duration(d)), nil
}

// formatDuration renders d in the largest whole unit ParseDuration accepts
func formatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	switch {
	case seconds != 0 && seconds%3600 == 0:
		return strconv.FormatInt(seconds/3600, 10) + "h"
	case seconds != 0 && seconds%60 == 0:
		return strconv.FormatInt(seconds/60, 10) + "m"
	default:
		return strconv.FormatInt(seconds, 10) + "s"
	}
}
