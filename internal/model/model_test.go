package model

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofflo/chamannas/internal/availability"
	"github.com/kofflo/chamannas/internal/availability/cache"
	"github.com/kofflo/chamannas/internal/config"
	"github.com/kofflo/chamannas/internal/huts"
)

const testCatalogData = "10\tTesthuette\tCH\tUri\tUrner Alpen\t0\t46.614\t8.456\t2542\tde_CH\n" +
	"21\tOlpererhuette\tAT\tTirol\tZillertaler Alpen\t0\t47.028\t11.681\t2389\tde_AT\n" +
	"42\tRifugio Brentei\tIT\tTrentino\tBrenta\t1\t46.176\t10.878\t2182\tit_IT\n"

func testCatalog(t *testing.T) *huts.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "huts.txt")
	require.NoError(t, os.WriteFile(path, []byte(testCatalogData), 0o600))
	c, err := huts.LoadCatalog(path)
	require.NoError(t, err)
	return c
}

// scriptedFetcher returns a payload covering the queried dates, or the
// configured error for specific huts.
type scriptedFetcher struct {
	calls atomic.Int64
	fail  map[string]error

	mu   sync.Mutex
	beds int
}

func (f *scriptedFetcher) Fetch(_ context.Context, q availability.Query) (*availability.Payload, error) {
	f.calls.Add(1)
	if err, ok := f.fail[q.HutID]; ok {
		return nil, err
	}
	n, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	beds := f.beds
	f.mu.Unlock()

	p := &availability.Payload{
		HutName: "Testhuette",
		Places:  make(map[string]availability.DayPlaces),
	}
	for _, d := range n.Dates() {
		key := d.Format(availability.DateFormat)
		p.RequestedDates = append(p.RequestedDates, key)
		p.Places[key] = availability.DayPlaces{
			Beds: map[availability.RoomType]int{availability.RoomShared: beds},
		}
	}
	return p, nil
}

func testPrefs() config.Preferences {
	return config.Preferences{
		Selected:     []string{"10", "21"},
		ReferenceLat: 48.1,
		ReferenceLon: 11.6,
		NumberDays:   2,
		Occupants:    2,
	}
}

func newTestModel(t *testing.T, fetcher availability.Fetcher, prefs config.Preferences) *Model {
	t.Helper()
	c := cache.New(cache.NewStore(), fetcher, 7)
	return New(testCatalog(t), c, prefs, zerolog.Nop())
}

func TestNew(t *testing.T) {
	prefs := testPrefs()
	prefs.Selected = []string{"10", "999", "21"}
	m := newTestModel(t, &scriptedFetcher{}, prefs)

	assert.Equal(t, []string{"10", "21"}, m.Selected(), "unknown ids are dropped")

	dates := m.RequestDates()
	require.Len(t, dates, 2)
	assert.True(t, dates[0].After(time.Now().UTC().Truncate(24*time.Hour)), "requests start tomorrow")
}

func TestNew_ClampsInvalidPrefs(t *testing.T) {
	m := newTestModel(t, &scriptedFetcher{}, config.Preferences{NumberDays: 0, Occupants: -3})
	assert.Len(t, m.RequestDates(), 1)
	q := m.QueryFor("10")
	assert.Equal(t, 1, q.Occupants)
}

func TestSelection(t *testing.T) {
	m := newTestModel(t, &scriptedFetcher{}, config.Preferences{NumberDays: 1, Occupants: 1})

	m.Select("42")
	m.Select("42")
	m.Select("999")
	assert.Equal(t, []string{"42"}, m.Selected())

	m.Deselect("42")
	assert.Empty(t, m.Selected())

	m.SelectAll()
	assert.Equal(t, []string{"10", "21", "42"}, m.Selected())

	m.ClearSelected()
	assert.Empty(t, m.Selected())
}

func TestSetReferenceLocation(t *testing.T) {
	m := newTestModel(t, &scriptedFetcher{}, testPrefs())

	m.SetReferenceLocation(46.0, 10.0)
	lat, lon := m.ReferenceLocation()
	assert.Equal(t, 46.0, lat)
	assert.Equal(t, 10.0, lon)

	m.SetReferenceLocation(95.0, 200.0)
	lat, lon = m.ReferenceLocation()
	assert.Equal(t, 46.0, lat, "out-of-range coordinates are ignored")
	assert.Equal(t, 10.0, lon)

	m.SetReferenceLocationFromHut("21")
	lat, lon = m.ReferenceLocation()
	assert.InDelta(t, 47.028, lat, 1e-9)
	assert.InDelta(t, 11.681, lon, 1e-9)
}

func TestQueryFor(t *testing.T) {
	m := newTestModel(t, &scriptedFetcher{}, testPrefs())
	m.SetDates(time.Date(2024, 7, 1, 15, 0, 0, 0, time.UTC), 3)
	require.NoError(t, m.SetOccupants(4))

	q := m.QueryFor("10")
	assert.Equal(t, "10", q.HutID)
	assert.True(t, q.StartDate.Equal(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, q.EndDate.Equal(time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 4, q.Occupants)

	assert.Error(t, m.SetOccupants(0))
}

func TestUpdateResultsAndInfo(t *testing.T) {
	fetcher := &scriptedFetcher{beds: 5}
	m := newTestModel(t, fetcher, testPrefs())
	m.SetDates(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 2)

	var progressCalls atomic.Int64
	err := m.UpdateSelected(context.Background(), func(done, total int) {
		progressCalls.Add(1)
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetcher.calls.Load())
	assert.Equal(t, int64(2), progressCalls.Load())

	info, err := m.Info("10")
	require.NoError(t, err)
	assert.Equal(t, availability.StatusAvailable, info.Status)
	assert.Equal(t, 5, info.Available)
	assert.Equal(t, 5, info.PerRoom[availability.RoomShared])
	assert.False(t, info.Stale)
	assert.False(t, info.FetchedAt.IsZero())
	assert.Greater(t, info.Distance, 0.0)

	t.Run("NoRequestForUnfetchedHut", func(t *testing.T) {
		info, err := m.Info("42")
		require.NoError(t, err)
		assert.Equal(t, availability.StatusNoRequest, info.Status)
	})

	t.Run("UnknownHut", func(t *testing.T) {
		_, err := m.Info("999")
		assert.Error(t, err)
	})
}

func TestInfoStatuses(t *testing.T) {
	t.Run("NotAvailable", func(t *testing.T) {
		fetcher := &scriptedFetcher{beds: 0}
		m := newTestModel(t, fetcher, testPrefs())
		require.NoError(t, m.UpdateResults(context.Background(), []string{"10"}, nil))

		info, err := m.Info("10")
		require.NoError(t, err)
		assert.Equal(t, availability.StatusNotAvailable, info.Status)
	})

	t.Run("NoResponse", func(t *testing.T) {
		fetcher := &scriptedFetcher{
			beds: 5,
			fail: map[string]error{"21": &availability.FetchError{HutID: "21", Err: errors.New("timeout")}},
		}
		m := newTestModel(t, fetcher, testPrefs())
		require.NoError(t, m.UpdateResults(context.Background(), []string{"10", "21"}, nil))

		info, err := m.Info("21")
		require.NoError(t, err)
		assert.Equal(t, availability.StatusNoResponse, info.Status)

		msgs := m.HutErrors()
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "21 (Olpererhuette)")

		// A later successful update clears the failure.
		fetcher.fail = nil
		require.NoError(t, m.UpdateResults(context.Background(), []string{"21"}, nil))
		assert.Empty(t, m.HutErrors())
	})

	t.Run("ChangedDatesFallBackToNoRequest", func(t *testing.T) {
		fetcher := &scriptedFetcher{beds: 5}
		m := newTestModel(t, fetcher, testPrefs())
		m.SetDates(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 2)
		require.NoError(t, m.UpdateResults(context.Background(), []string{"10"}, nil))

		m.SetDates(time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), 2)
		info, err := m.Info("10")
		require.NoError(t, err)
		assert.Equal(t, availability.StatusNoRequest, info.Status)
	})
}

func TestUpdateResults_Cancelled(t *testing.T) {
	fetcher := &scriptedFetcher{beds: 5}
	m := newTestModel(t, fetcher, testPrefs())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.UpdateResults(ctx, []string{"10", "21"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreferencesSnapshot(t *testing.T) {
	m := newTestModel(t, &scriptedFetcher{}, testPrefs())
	m.Select("42")
	m.SetReferenceLocation(46.0, 10.0)
	m.SetDates(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 5)
	require.NoError(t, m.SetOccupants(3))

	prefs := m.Preferences()
	assert.Equal(t, []string{"10", "21", "42"}, prefs.Selected)
	assert.Equal(t, 46.0, prefs.ReferenceLat)
	assert.Equal(t, 5, prefs.NumberDays)
	assert.Equal(t, 3, prefs.Occupants)
}
