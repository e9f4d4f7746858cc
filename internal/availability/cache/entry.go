package cache

import (
	"time"

	"github.com/kofflo/chamannas/internal/availability"
)

// Entry is one cached availability result together with the time it was
// fetched. Entries are immutable once written: a refresh stores a
// replacement entry, never mutates the payload in place.
type Entry struct {
	// Fingerprint is the cache key the entry was stored under.
	Fingerprint string `yaml:"fingerprint" json:"fingerprint"`

	// Payload is the availability result for the query.
	Payload availability.Payload `yaml:"payload" json:"payload"`

	// FetchedAt is when the payload was retrieved from the site.
	FetchedAt time.Time `yaml:"fetched_at" json:"fetched_at"`
}

// NewEntry builds an entry for a freshly fetched payload. FetchedAt is
// truncated to second precision so the YAML round-trip is lossless.
func NewEntry(fingerprint string, payload availability.Payload, fetchedAt time.Time) *Entry {
	return &Entry{
		Fingerprint: fingerprint,
		Payload:     payload,
		FetchedAt:   fetchedAt.UTC().Truncate(time.Second),
	}
}

// Age returns how long ago the entry was fetched.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.FetchedAt)
}
