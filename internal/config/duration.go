package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Duration wraps time.Duration for config files. Strings are Go durations
// ("1.5s", "3000ms"); bare integers are milliseconds.
type Duration struct {
	time.Duration
}

// UnmarshalTOML implements toml.Unmarshaler.
func (d *Duration) UnmarshalTOML(v interface{}) error {
	switch val := v.(type) {
	case string:
		return d.UnmarshalText([]byte(val))
	case int64:
		d.Duration = time.Duration(val) * time.Millisecond
		return nil
	case float64:
		d.Duration = time.Duration(val * float64(time.Millisecond))
		return nil
	default:
		return fmt.Errorf("invalid duration value %v (%T)", v, v)
	}
}

// UnmarshalText parses a duration string; a plain integer is read as milliseconds.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		d.Duration = 0
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		d.Duration = time.Duration(ms) * time.Millisecond
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", s)
	}
	d.Duration = parsed
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
