package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/kofflo/chamannas/internal/availability"
)

// Result is what GetOrFetch hands back to the caller: the payload plus
// enough metadata for the UI to flag last-known data.
type Result struct {
	Payload     availability.Payload
	Fingerprint string
	FetchedAt   time.Time

	// Stale is set when the payload is older than the TTL and was served
	// only because a refresh failed.
	Stale bool
}

// ResultCache combines the store, the expiration policy and the fetcher:
// fresh hits return immediately with no network access; misses and stale
// entries trigger a fetch through a singleflight group so concurrent
// identical queries share one in-flight request.
type ResultCache struct {
	store   *Store
	fetcher availability.Fetcher
	ttlDays int
	clock   func() time.Time
	group   singleflight.Group
	log     zerolog.Logger
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *ResultCache) { c.clock = clock }
}

// WithLogger sets the cache logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *ResultCache) { c.log = log }
}

// New creates a result cache over the given store and fetcher. An
// out-of-range ttlDays falls back to DefaultTTLDays.
func New(store *Store, fetcher availability.Fetcher, ttlDays int, opts ...Option) *ResultCache {
	if ValidateTTLDays(ttlDays) != nil {
		ttlDays = DefaultTTLDays
	}
	c := &ResultCache{
		store:   store,
		fetcher: fetcher,
		ttlDays: ttlDays,
		clock:   time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the underlying results dictionary, e.g. for persistence
// at shutdown or for cache maintenance commands.
func (c *ResultCache) Store() *Store {
	return c.store
}

// TTLDays returns the configured expiration in days.
func (c *ResultCache) TTLDays() int {
	return c.ttlDays
}

// GetOrFetch returns the availability for a query, serving a fresh
// cached entry without any network access, fetching on miss or
// staleness, and falling back to the stale entry when the fetch fails.
// An error matching availability.ErrInvalidQuery is returned for
// malformed queries before anything else happens.
func (c *ResultCache) GetOrFetch(ctx context.Context, q availability.Query) (*Result, error) {
	fp, err := Fingerprint(q)
	if err != nil {
		return nil, err
	}

	if e, ok := c.store.Get(fp); ok && IsFresh(e, c.clock(), c.ttlDays) {
		c.log.Debug().Str("fingerprint", fp).Msg("cache hit")
		return c.result(e, false), nil
	}

	v, err, shared := c.group.Do(fp, func() (interface{}, error) {
		// A concurrent call may have refreshed the entry while this one
		// waited to enter the group.
		if e, ok := c.store.Get(fp); ok && IsFresh(e, c.clock(), c.ttlDays) {
			return e, nil
		}

		payload, fetchErr := c.fetcher.Fetch(ctx, q)
		if fetchErr != nil {
			return nil, fetchErr
		}

		// The session may have ended while the fetch was in flight;
		// discard the result rather than write into a store that is
		// already being persisted.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		entry := NewEntry(fp, *payload, c.clock())
		if putErr := c.store.Put(fp, entry); putErr != nil {
			return nil, putErr
		}
		return entry, nil
	})
	if err != nil {
		if e, ok := c.store.Get(fp); ok {
			c.log.Warn().
				Str("fingerprint", fp).
				Str("age", FormatAge(e.Age(c.clock()))).
				Err(err).
				Msg("fetch failed, serving stale availability")
			return c.result(e, true), nil
		}
		c.log.Error().Str("fingerprint", fp).Err(err).Msg("fetch failed with no cached fallback")
		return nil, err
	}

	entry := v.(*Entry)
	if shared {
		c.log.Debug().Str("fingerprint", fp).Msg("coalesced with in-flight fetch")
	}
	return c.result(entry, false), nil
}

func (c *ResultCache) result(e *Entry, stale bool) *Result {
	return &Result{
		Payload:     e.Payload,
		Fingerprint: e.Fingerprint,
		FetchedAt:   e.FetchedAt,
		Stale:       stale,
	}
}
