package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kofflo/chamannas/internal/availability"
	"github.com/kofflo/chamannas/internal/huts"
)

const testCalendarPage = `<!DOCTYPE html>
<html><body>
<h4> Testhuette </h4>
<div id="room0-1"><label class="item-label">Mehrbettzimmer</label></div>
<div id="room0-2"><label class="item-label">Matratzenlager</label></div>
</body></html>`

const testBookingData = `{
  "0": [
    {"closed": false, "bedCategoryId": 1, "freeRoom": 4},
    {"closed": false, "bedCategoryId": 2, "freeRoom": 10}
  ],
  "1": [
    {"closed": true, "bedCategoryId": 1, "freeRoom": 0}
  ],
  "2": [
    {"closed": false, "bedCategoryId": 1, "freeRoom": 0},
    {"closed": false, "bedCategoryId": 2, "freeRoom": 6}
  ]
}`

var testRoomTypes = map[string]string{
	"Mehrbettzimmer": "shared",
	"Matratzenlager": "dormitory",
	"default_type":   "shared",
}

type fakeCatalog map[string]huts.Hut

func (f fakeCatalog) Hut(id string) (huts.Hut, bool) {
	h, ok := f[id]
	return h, ok
}

func testCatalog() fakeCatalog {
	return fakeCatalog{
		"10": {ID: "10", Name: "Testhuette", LangCode: "CH"},
	}
}

// siteServer serves the two endpoints the fetcher talks to and records
// the query parameters it saw.
func siteServer(t *testing.T, page, booking string) (*httptest.Server, *atomic.Value) {
	t.Helper()
	var seen atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/calendar", func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.RawQuery)
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/selectDate", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(booking))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &seen
}

func testClient(t *testing.T, srv *httptest.Server, maxNights int) *Client {
	t.Helper()
	return NewClient(srv.URL+"/", maxNights, testRoomTypes, testCatalog(),
		WithHTTPClient(srv.Client()), WithRequestDelay(0))
}

func testFetchQuery() availability.Query {
	return availability.Query{
		HutID:     "10",
		StartDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC),
		Occupants: 2,
	}
}

func TestClientFetch(t *testing.T) {
	srv, seen := siteServer(t, testCalendarPage, testBookingData)
	c := testClient(t, srv, 3)

	payload, err := c.Fetch(context.Background(), testFetchQuery())
	require.NoError(t, err)

	assert.Equal(t, "Testhuette", payload.HutName)
	assert.Empty(t, payload.Warning)
	assert.Equal(t, []string{"2024-07-01", "2024-07-02", "2024-07-03"}, payload.RequestedDates)

	first := payload.Places["2024-07-01"]
	assert.False(t, first.Closed)
	assert.Equal(t, 4, first.Beds[availability.RoomShared])
	assert.Equal(t, 10, first.Beds[availability.RoomDormitory])

	assert.True(t, payload.Places["2024-07-02"].Closed)

	third := payload.Places["2024-07-03"]
	assert.Equal(t, 0, third.Beds[availability.RoomShared])
	assert.Equal(t, 6, third.Beds[availability.RoomDormitory])

	query := seen.Load().(string)
	assert.Contains(t, query, "hut_id=10")
	assert.Contains(t, query, "lang=de_CH")
}

func TestClientFetch_UnknownHut(t *testing.T) {
	srv, _ := siteServer(t, testCalendarPage, testBookingData)
	c := testClient(t, srv, 3)

	q := testFetchQuery()
	q.HutID = "999"
	_, err := c.Fetch(context.Background(), q)
	assert.ErrorIs(t, err, availability.ErrNotFound)
}

func TestClientFetch_NoRoomsOnPage(t *testing.T) {
	srv, _ := siteServer(t, "<html><body><h4>Leer</h4></body></html>", testBookingData)
	c := testClient(t, srv, 3)

	_, err := c.Fetch(context.Background(), testFetchQuery())
	assert.ErrorIs(t, err, availability.ErrNotFound)
}

func TestClientFetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := testClient(t, srv, 3)

	_, err := c.Fetch(context.Background(), testFetchQuery())
	require.Error(t, err)
	var fe *availability.FetchError
	assert.ErrorAs(t, err, &fe)
	assert.Equal(t, "10", fe.HutID)
}

func TestClientFetch_BadBookingData(t *testing.T) {
	tests := []struct {
		name    string
		booking string
		wantErr string
	}{
		{
			"NegativeFreeRoom",
			`{"0": [{"closed": false, "bedCategoryId": 1, "freeRoom": -2}]}`,
			"negative free bed count",
		},
		{
			"UnknownBedCategory",
			`{"0": [{"closed": false, "bedCategoryId": 7, "freeRoom": 3}]}`,
			"unknown bed category",
		},
		{
			"MalformedJSON",
			`{"0": [`,
			"decoding booking data",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := siteServer(t, testCalendarPage, tt.booking)
			c := testClient(t, srv, 3)

			_, err := c.Fetch(context.Background(), testFetchQuery())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClientFetch_Warnings(t *testing.T) {
	t.Run("UnknownRoomLabel", func(t *testing.T) {
		page := strings.Replace(testCalendarPage, "Matratzenlager", "Suite Deluxe", 1)
		srv, _ := siteServer(t, page, testBookingData)
		c := testClient(t, srv, 1)

		payload, err := c.Fetch(context.Background(), testFetchQuery())
		require.NoError(t, err)
		assert.Contains(t, payload.Warning, "unexpected room type: Suite Deluxe")
		// Unknown labels count against the default basic type.
		assert.Equal(t, 14, payload.Places["2024-07-01"].Beds[availability.RoomShared])
	})

	t.Run("NameMismatch", func(t *testing.T) {
		page := strings.Replace(testCalendarPage, "Testhuette", "Andere Huette", 1)
		srv, _ := siteServer(t, page, testBookingData)
		c := testClient(t, srv, 1)

		payload, err := c.Fetch(context.Background(), testFetchQuery())
		require.NoError(t, err)
		assert.Contains(t, payload.Warning, "unexpected hut name")
	})
}

func TestClientFetch_MissingOffsetsLeaveGaps(t *testing.T) {
	srv, _ := siteServer(t, testCalendarPage, `{"0": [{"closed": false, "bedCategoryId": 1, "freeRoom": 2}]}`)
	c := testClient(t, srv, 3)

	payload, err := c.Fetch(context.Background(), testFetchQuery())
	require.NoError(t, err)
	assert.Len(t, payload.RequestedDates, 3)
	assert.Contains(t, payload.Places, "2024-07-01")
	assert.NotContains(t, payload.Places, "2024-07-02")
	assert.NotContains(t, payload.Places, "2024-07-03")
}

func TestClientFetch_RequestSpacing(t *testing.T) {
	srv, _ := siteServer(t, testCalendarPage, testBookingData)
	c := NewClient(srv.URL+"/", 1, testRoomTypes, testCatalog(),
		WithHTTPClient(srv.Client()), WithRequestDelay(80*time.Millisecond))

	_, err := c.Fetch(context.Background(), testFetchQuery())
	require.NoError(t, err)

	// The second fetch has to wait for the configured slot.
	start := time.Now()
	_, err = c.Fetch(context.Background(), testFetchQuery())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestClientFetch_ContextCancelled(t *testing.T) {
	srv, _ := siteServer(t, testCalendarPage, testBookingData)
	c := NewClient(srv.URL+"/", 1, testRoomTypes, testCatalog(),
		WithHTTPClient(srv.Client()), WithRequestDelay(time.Hour))

	// Prime the rate limiter so the next fetch has to wait.
	c.mu.Lock()
	c.lastRequest = time.Now()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Fetch(ctx, testFetchQuery())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestParseHutPage(t *testing.T) {
	page, err := parseHutPage(strings.NewReader(testCalendarPage))
	require.NoError(t, err)
	assert.Equal(t, "Testhuette", page.Name)
	assert.Equal(t, map[int]string{1: "Mehrbettzimmer", 2: "Matratzenlager"}, page.Rooms)
}

func TestParseHutPage_NestedMarkup(t *testing.T) {
	const nested = `<html><body>
<h4><span>Berg</span>huette</h4>
<div id="room0-3"><div><label class="item-label"> Doppelzimmer </label></div></div>
<div id="other"><label class="item-label">ignored</label></div>
</body></html>`
	page, err := parseHutPage(strings.NewReader(nested))
	require.NoError(t, err)
	assert.Equal(t, "Berghuette", page.Name)
	assert.Equal(t, map[int]string{3: "Doppelzimmer"}, page.Rooms)
}
