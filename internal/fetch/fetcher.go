// Package fetch implements the availability fetcher against the hut
// reservation site. One fetch combines the calendar HTML page (room
// labels) with the booking JSON (free beds per day) and produces a
// typed, validated payload.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/kofflo/chamannas/internal/availability"
	"github.com/kofflo/chamannas/internal/huts"
)

// webDateFormat is the date layout the reservation site expects.
const webDateFormat = "02.01.2006"

// defaultRequestDelay is the minimum spacing between site requests.
const defaultRequestDelay = time.Second

// defaultTimeout bounds a single HTTP request.
const defaultTimeout = 5 * time.Second

// defaultTypeKey names the fallback room type in the basic-types map.
const defaultTypeKey = "default_type"

// HutLookup provides catalog access for the fetcher: the hut name is
// verified against the page and the language code selects the page
// locale.
type HutLookup interface {
	Hut(id string) (huts.Hut, bool)
}

// Client fetches availability from the reservation site. It implements
// availability.Fetcher. Requests are rate limited so consecutive
// fetches keep the configured minimum spacing.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxNights      int
	roomBasicTypes map[string]string
	catalog        HutLookup
	log            zerolog.Logger

	mu          sync.Mutex
	lastRequest time.Time
	minDelay    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithRequestDelay overrides the minimum spacing between requests.
func WithRequestDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.minDelay = d }
}

// WithLogger sets the fetcher logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient builds a fetcher for the given site. roomBasicTypes maps
// the site's room labels to basic room types and must contain a
// "default_type" fallback; a nil map gets a shared-dormitory default.
func NewClient(baseURL string, maxNights int, roomBasicTypes map[string]string, catalog HutLookup, opts ...ClientOption) *Client {
	if roomBasicTypes == nil {
		roomBasicTypes = map[string]string{defaultTypeKey: string(availability.RoomShared)}
	}
	c := &Client{
		httpClient:     &http.Client{Timeout: defaultTimeout},
		baseURL:        baseURL,
		maxNights:      maxNights,
		roomBasicTypes: roomBasicTypes,
		catalog:        catalog,
		log:            zerolog.Nop(),
		minDelay:       defaultRequestDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves availability for the queried hut starting at the
// query's start date, covering the site's full booking window.
func (c *Client) Fetch(ctx context.Context, q availability.Query) (*availability.Payload, error) {
	n, err := q.Normalize()
	if err != nil {
		return nil, err
	}

	hut, ok := c.catalog.Hut(n.HutID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown hut %s", availability.ErrNotFound, n.HutID)
	}

	if err := c.waitForSlot(ctx); err != nil {
		return nil, &availability.FetchError{HutID: n.HutID, Err: err}
	}

	reqID := ulid.Make().String()
	log := c.log.With().Str("request_id", reqID).Str("hut_id", n.HutID).Logger()
	log.Debug().Time("start_date", n.StartDate).Msg("fetching availability")

	page, err := c.fetchHutPage(ctx, n.HutID, hut.LangCode)
	if err != nil {
		return nil, &availability.FetchError{HutID: n.HutID, Err: err}
	}
	if len(page.Rooms) == 0 {
		return nil, fmt.Errorf("%w: hut %s has no rooms on the reservation site", availability.ErrNotFound, n.HutID)
	}

	days, err := c.fetchBookingData(ctx, n.StartDate)
	if err != nil {
		return nil, &availability.FetchError{HutID: n.HutID, Err: err}
	}

	payload, err := c.buildPayload(hut, page, days, n.StartDate)
	if err != nil {
		return nil, &availability.FetchError{HutID: n.HutID, Err: err}
	}
	log.Debug().Int("dates", len(payload.RequestedDates)).Msg("availability fetched")
	return payload, nil
}

// waitForSlot enforces the minimum spacing between site requests.
func (c *Client) waitForSlot(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	wait := c.minDelay - now.Sub(c.lastRequest)
	if wait < 0 {
		wait = 0
	}
	c.lastRequest = now.Add(wait)
	c.mu.Unlock()

	if wait == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) fetchHutPage(ctx context.Context, hutID, langCode string) (*hutPage, error) {
	pageURL := fmt.Sprintf("%scalendar?hut_id=%s&lang=%s", c.baseURL, url.QueryEscape(hutID), url.QueryEscape("de_"+langCode))
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseHutPage(body)
}

// bookingRoom is one room entry in the site's booking JSON.
type bookingRoom struct {
	Closed        bool `json:"closed"`
	BedCategoryID int  `json:"bedCategoryId"`
	FreeRoom      int  `json:"freeRoom"`
}

// fetchBookingData retrieves the booking JSON: a mapping from day
// offset ("0", "1", ...) to the rooms on that day.
func (c *Client) fetchBookingData(ctx context.Context, startDate time.Time) (map[string][]bookingRoom, error) {
	dataURL := fmt.Sprintf("%sselectDate?date=%s", c.baseURL, url.QueryEscape(startDate.Format(webDateFormat)))
	body, err := c.get(ctx, dataURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var days map[string][]bookingRoom
	if err := json.NewDecoder(body).Decode(&days); err != nil {
		return nil, fmt.Errorf("decoding booking data: %w", err)
	}
	return days, nil
}

func (c *Client) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}

// buildPayload merges page room labels with the booking data into a
// typed payload, validating bed counts at this boundary.
func (c *Client) buildPayload(hut huts.Hut, page *hutPage, days map[string][]bookingRoom, startDate time.Time) (*availability.Payload, error) {
	payload := &availability.Payload{
		HutName: page.Name,
		Places:  make(map[string]availability.DayPlaces, c.maxNights),
	}
	if page.Name != hut.Name {
		payload.Warning = "unexpected hut name: " + page.Name
	}

	for offset := 0; offset < c.maxNights; offset++ {
		date := startDate.AddDate(0, 0, offset).Format(availability.DateFormat)
		payload.RequestedDates = append(payload.RequestedDates, date)

		rooms, ok := days[strconv.Itoa(offset)]
		if !ok {
			continue
		}

		day := availability.DayPlaces{Beds: make(map[availability.RoomType]int)}
		for _, room := range rooms {
			if room.Closed {
				day = availability.DayPlaces{Closed: true}
				break
			}
			if room.FreeRoom < 0 {
				return nil, fmt.Errorf("negative free bed count %d on %s", room.FreeRoom, date)
			}
			label, ok := page.Rooms[room.BedCategoryID]
			if !ok {
				return nil, fmt.Errorf("unknown bed category %d on %s", room.BedCategoryID, date)
			}
			roomType := c.normalizeRoomType(label, payload)
			day.Beds[roomType] += room.FreeRoom
		}
		payload.Places[date] = day
	}
	return payload, nil
}

// normalizeRoomType maps a site room label onto a basic room type,
// falling back to the configured default with a payload warning.
func (c *Client) normalizeRoomType(label string, payload *availability.Payload) availability.RoomType {
	if basic, ok := c.roomBasicTypes[label]; ok {
		return availability.RoomType(basic)
	}
	if payload.Warning == "" {
		payload.Warning = "unexpected room type: " + label
	}
	return availability.RoomType(c.roomBasicTypes[defaultTypeKey])
}
