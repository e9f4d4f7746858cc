package cache

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// TTL configuration constants and defaults.
const (
	// DefaultTTLDays is the default results cache expiration (one week),
	// matching availability data that changes on a daily rhythm.
	DefaultTTLDays = 7

	// MinTTLDays is the minimum allowed TTL.
	MinTTLDays = 1

	// MaxTTLDays is the maximum allowed TTL (one season).
	MaxTTLDays = 180

	// EnvTTLDays is the environment variable overriding the TTL.
	EnvTTLDays = "CHAMANNAS_CACHE_TTL_DAYS"

	hoursPerDay = 24
)

// ErrInvalidTTL is returned when a configured TTL is out of range.
var ErrInvalidTTL = fmt.Errorf("cache TTL must be between %d and %d days", MinTTLDays, MaxTTLDays)

// ValidateTTLDays checks a configured TTL against the allowed range.
func ValidateTTLDays(days int) error {
	if days < MinTTLDays || days > MaxTTLDays {
		return fmt.Errorf("%w: got %d", ErrInvalidTTL, days)
	}
	return nil
}

// IsFresh reports whether an entry is still valid at the given time.
// The inequality is strict: an entry aged exactly ttlDays is stale, so
// boundary-aged data forces a refresh instead of being served silently.
func IsFresh(e *Entry, now time.Time, ttlDays int) bool {
	if e == nil {
		return false
	}
	return now.Sub(e.FetchedAt) < time.Duration(ttlDays)*hoursPerDay*time.Hour
}

// TTLDaysFromEnv reads the TTL override from the environment, falling
// back to the given value when unset or out of range.
func TTLDaysFromEnv(fallback int) int {
	envVal := os.Getenv(EnvTTLDays)
	if envVal == "" {
		return fallback
	}

	days, err := strconv.Atoi(envVal)
	if err != nil {
		return fallback
	}
	if ValidateTTLDays(days) != nil {
		return fallback
	}
	return days
}

// FormatAge formats an entry age for display, e.g. "3d2h" or "45m".
func FormatAge(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	if d < hoursPerDay*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	days := int(d.Hours()) / hoursPerDay
	hours := int(d.Hours()) % hoursPerDay
	if hours == 0 {
		return fmt.Sprintf("%dd", days)
	}
	return fmt.Sprintf("%dd%dh", days, hours)
}
