// Package model manages the application state: which huts are selected,
// the requested date range and occupant count, and the availability
// known for each hut via the result cache.
package model

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kofflo/chamannas/internal/availability"
	"github.com/kofflo/chamannas/internal/availability/cache"
	"github.com/kofflo/chamannas/internal/config"
	"github.com/kofflo/chamannas/internal/huts"
)

// fetchParallelism bounds concurrent availability fetches during a
// batch update. The fetcher's own rate limit spaces the requests.
const fetchParallelism = 4

// HutInfo is everything the UI needs to render one hut for the current
// request dates.
type HutInfo struct {
	Hut       huts.Hut
	Distance  float64
	Status    availability.HutStatus
	Available int
	PerRoom   map[availability.RoomType]int

	// Stale is set when the shown data is older than the cache TTL.
	Stale     bool
	FetchedAt time.Time
	Warning   string
}

// Model wires the hut catalog and the availability result cache and
// tracks the user's selection and request parameters. Safe for
// concurrent use: background fetch completions and UI reads share it.
type Model struct {
	catalog *huts.Catalog
	cache   *cache.ResultCache
	log     zerolog.Logger

	mu         sync.RWMutex
	selected   []string
	refLat     float64
	refLon     float64
	startDate  time.Time
	numberDays int
	occupants  int
	lastErr    map[string]error
}

// New builds a model from the catalog, the result cache and the loaded
// preferences. Selected huts unknown to the catalog are dropped.
func New(catalog *huts.Catalog, resultCache *cache.ResultCache, prefs config.Preferences, log zerolog.Logger) *Model {
	m := &Model{
		catalog:    catalog,
		cache:      resultCache,
		log:        log,
		refLat:     prefs.ReferenceLat,
		refLon:     prefs.ReferenceLon,
		startDate:  tomorrow(),
		numberDays: prefs.NumberDays,
		occupants:  prefs.Occupants,
		lastErr:    make(map[string]error),
	}
	if m.numberDays < 1 {
		m.numberDays = 1
	}
	if m.occupants < 1 {
		m.occupants = 1
	}
	for _, id := range prefs.Selected {
		if _, ok := catalog.Hut(id); ok {
			m.selected = append(m.selected, id)
		}
	}
	return m
}

func tomorrow() time.Time {
	y, mo, d := time.Now().UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
}

// Catalog returns the hut catalog.
func (m *Model) Catalog() *huts.Catalog {
	return m.catalog
}

// Cache returns the availability result cache.
func (m *Model) Cache() *cache.ResultCache {
	return m.cache
}

// RequestDates returns the currently requested dates.
func (m *Model) RequestDates() []time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	dates := make([]time.Time, m.numberDays)
	for i := range dates {
		dates[i] = m.startDate.AddDate(0, 0, i)
	}
	return dates
}

// SetDates updates the requested date range.
func (m *Model) SetDates(start time.Time, numberDays int) {
	if numberDays < 1 {
		numberDays = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	y, mo, d := start.UTC().Date()
	m.startDate = time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
	m.numberDays = numberDays
}

// SetOccupants updates the occupant count for queries.
func (m *Model) SetOccupants(n int) error {
	if n <= 0 {
		return &availability.InvalidQueryError{Reason: "occupants must be positive"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.occupants = n
	return nil
}

// SetReferenceLocation moves the reference location, ignoring
// coordinates outside the valid range.
func (m *Model) SetReferenceLocation(lat, lon float64) {
	if lat <= -90 || lat >= 90 || lon <= -180 || lon >= 180 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refLat, m.refLon = lat, lon
}

// SetReferenceLocationFromHut moves the reference location to a hut.
func (m *Model) SetReferenceLocationFromHut(id string) {
	if h, ok := m.catalog.Hut(id); ok {
		m.SetReferenceLocation(h.Lat, h.Lon)
	}
}

// ReferenceLocation returns the current reference coordinates.
func (m *Model) ReferenceLocation() (lat, lon float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refLat, m.refLon
}

// Selected returns a copy of the selected hut ids.
func (m *Model) Selected() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.selected...)
}

// Select adds a hut to the selection. Unknown ids are ignored.
func (m *Model) Select(id string) {
	if _, ok := m.catalog.Hut(id); !ok {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.selected {
		if s == id {
			return
		}
	}
	m.selected = append(m.selected, id)
}

// Deselect removes a hut from the selection.
func (m *Model) Deselect(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.selected {
		if s == id {
			m.selected = append(m.selected[:i], m.selected[i+1:]...)
			return
		}
	}
}

// SelectAll selects every hut in the catalog.
func (m *Model) SelectAll() {
	ids := m.catalog.IDs()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = ids
}

// ClearSelected empties the selection.
func (m *Model) ClearSelected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = nil
}

// QueryFor builds the availability query for a hut from the current
// request parameters.
func (m *Model) QueryFor(id string) availability.Query {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return availability.Query{
		HutID:     id,
		StartDate: m.startDate,
		EndDate:   m.startDate.AddDate(0, 0, m.numberDays-1),
		Occupants: m.occupants,
	}
}

// Info derives the display data for a hut from the cache without
// touching the network. Data older than the TTL is still shown,
// flagged stale.
func (m *Model) Info(id string) (HutInfo, error) {
	hut, ok := m.catalog.Hut(id)
	if !ok {
		return HutInfo{}, fmt.Errorf("unknown hut %s", id)
	}

	m.mu.RLock()
	refLat, refLon := m.refLat, m.refLon
	lastErr := m.lastErr[id]
	m.mu.RUnlock()

	info := HutInfo{
		Hut:      hut,
		Distance: hut.DistanceFrom(refLat, refLon),
		Status:   availability.StatusNoRequest,
	}

	q := m.QueryFor(id)
	dates := mustNormalizedDates(q)

	fp, err := cache.Fingerprint(q)
	if err != nil {
		return HutInfo{}, err
	}
	entry, ok := m.cache.Store().Get(fp)
	switch {
	case ok && entry.Payload.Covers(dates):
		info.FetchedAt = entry.FetchedAt
		info.Stale = !cache.IsFresh(entry, time.Now(), m.cache.TTLDays())
		info.Warning = entry.Payload.Warning
		info.Available = entry.Payload.Available(dates)
		info.PerRoom = entry.Payload.AvailablePerRoom(dates)
		switch {
		case !entry.Payload.Open(dates):
			info.Status = availability.StatusClosed
		case info.Available == 0:
			info.Status = availability.StatusNotAvailable
		default:
			info.Status = availability.StatusAvailable
		}
	case lastErr != nil:
		info.Status = availability.StatusNoResponse
	}
	return info, nil
}

func mustNormalizedDates(q availability.Query) []time.Time {
	n, err := q.Normalize()
	if err != nil {
		return nil
	}
	return n.Dates()
}

// UpdateResults refreshes availability for the given huts through the
// result cache, with bounded parallelism. Individual hut failures are
// recorded and reported by Info and HutErrors, not returned; the only
// error returned is context cancellation.
func (m *Model) UpdateResults(ctx context.Context, ids []string, progress func(done, total int)) error {
	total := len(ids)
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)
	for _, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := m.cache.GetOrFetch(ctx, m.QueryFor(id))

			m.mu.Lock()
			if err != nil {
				m.lastErr[id] = err
			} else {
				delete(m.lastErr, id)
			}
			m.mu.Unlock()

			if err != nil {
				m.log.Warn().Str("hut_id", id).Err(err).Msg("availability update failed")
			}
			if progress != nil {
				progress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	return g.Wait()
}

// UpdateSelected refreshes availability for the selected huts.
func (m *Model) UpdateSelected(ctx context.Context, progress func(done, total int)) error {
	return m.UpdateResults(ctx, m.Selected(), progress)
}

// HutErrors returns the huts whose most recent fetch failed, with the
// failure, ordered by hut id.
func (m *Model) HutErrors() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var msgs []string
	for id, err := range m.lastErr {
		hut, _ := m.catalog.Hut(id)
		msgs = append(msgs, fmt.Sprintf("%s (%s): %v", id, hut.Name, err))
	}
	sort.Strings(msgs)
	return msgs
}

// Preferences snapshots the persistable user state for shutdown.
func (m *Model) Preferences() config.Preferences {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return config.Preferences{
		Selected:     append([]string(nil), m.selected...),
		ReferenceLat: m.refLat,
		ReferenceLon: m.refLon,
		NumberDays:   m.numberDays,
		Occupants:    m.occupants,
	}
}
