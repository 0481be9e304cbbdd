package utils

import (
	"fmt"
	"time"
)

// FormatAge renders d truncated to its largest whole unit, e.g. "45s", "12m", "3h", "2d".
// Negative durations are formatted by magnitude.
func FormatAge(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int64(d/(24*time.Hour)))
	}
}

// FormatMillis renders d as whole milliseconds, the unit shake timings are configured in.
func FormatMillis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}
