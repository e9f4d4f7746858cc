package availability

import (
	"time"
)

// DateFormat is the canonical date layout used for payload keys and
// fingerprints. Dates are day-granular; time-of-day never participates.
const DateFormat = "2006-01-02"

// RoomType classifies the sleeping arrangement a hut offers.
type RoomType string

// Room types recognized by the reservation site, after normalization
// through the configured basic-type mapping.
const (
	RoomSingle    RoomType = "single"
	RoomDouble    RoomType = "double"
	RoomShared    RoomType = "shared"
	RoomDormitory RoomType = "dormitory"
)

// RoomTypes lists all recognized room types in display order.
func RoomTypes() []RoomType {
	return []RoomType{RoomSingle, RoomDouble, RoomShared, RoomDormitory}
}

// Query identifies one availability lookup: which hut, which nights,
// for how many people. Values are compared by value; Normalize must be
// applied before a Query is used as a cache identity.
type Query struct {
	HutID     string
	StartDate time.Time
	EndDate   time.Time
	Occupants int
}

// Normalize returns a canonical copy of the query: dates truncated to
// day granularity in UTC and ordered so that StartDate <= EndDate.
// It returns ErrInvalidQuery when the hut id is empty, the occupant
// count is not positive, or either date is unset.
func (q Query) Normalize() (Query, error) {
	if q.HutID == "" {
		return Query{}, &InvalidQueryError{Reason: "hut id is empty"}
	}
	if q.Occupants <= 0 {
		return Query{}, &InvalidQueryError{Reason: "occupants must be positive"}
	}
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return Query{}, &InvalidQueryError{Reason: "start and end dates are required"}
	}

	start := truncateToDay(q.StartDate)
	end := truncateToDay(q.EndDate)
	if end.Before(start) {
		start, end = end, start
	}

	return Query{
		HutID:     q.HutID,
		StartDate: start,
		EndDate:   end,
		Occupants: q.Occupants,
	}, nil
}

// Dates returns every date covered by the query, inclusive of both ends.
// The query must already be normalized.
func (q Query) Dates() []time.Time {
	var dates []time.Time
	for d := q.StartDate; !d.After(q.EndDate); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// Nights returns the number of nights the query spans.
func (q Query) Nights() int {
	return int(q.EndDate.Sub(q.StartDate).Hours()/24) + 1
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayPlaces holds the free beds for a single date, broken down by room
// type. A date on which the hut does not take bookings is marked Closed
// and carries no bed counts.
type DayPlaces struct {
	Closed bool             `yaml:"closed,omitempty" json:"closed,omitempty"`
	Beds   map[RoomType]int `yaml:"beds,omitempty" json:"beds,omitempty"`
}

// Payload is the typed availability result for one hut as returned by a
// fetch: per-room-type free bed counts keyed by date. Payloads are
// immutable once stored in the cache; a refresh produces a replacement.
type Payload struct {
	// HutName is the hut name as reported by the reservation site.
	HutName string `yaml:"hut_name" json:"hut_name"`

	// Places maps a date (DateFormat) to the free beds on that date.
	Places map[string]DayPlaces `yaml:"places" json:"places"`

	// RequestedDates lists every date (DateFormat) the fetch covered,
	// including dates for which the site reported nothing.
	RequestedDates []string `yaml:"requested_dates" json:"requested_dates"`

	// Warning carries a non-fatal anomaly detected while parsing the
	// site response, e.g. an unexpected room type.
	Warning string `yaml:"warning,omitempty" json:"warning,omitempty"`
}

// Covers reports whether the payload holds data for every given date.
func (p *Payload) Covers(dates []time.Time) bool {
	requested := make(map[string]bool, len(p.RequestedDates))
	for _, d := range p.RequestedDates {
		requested[d] = true
	}
	for _, d := range dates {
		if !requested[d.Format(DateFormat)] {
			return false
		}
	}
	return true
}

// Open reports whether the hut accepts bookings on all given dates.
// Dates without data count as not open.
func (p *Payload) Open(dates []time.Time) bool {
	for _, d := range dates {
		day, ok := p.Places[d.Format(DateFormat)]
		if !ok || day.Closed {
			return false
		}
	}
	return true
}

// Available returns the number of beds bookable across all given dates,
// i.e. the minimum over the dates of the per-date totals. A closed or
// missing date yields zero.
func (p *Payload) Available(dates []time.Time) int {
	minBeds := -1
	for _, d := range dates {
		day, ok := p.Places[d.Format(DateFormat)]
		if !ok || day.Closed {
			return 0
		}
		total := 0
		for _, n := range day.Beds {
			total += n
		}
		if minBeds < 0 || total < minBeds {
			minBeds = total
		}
	}
	if minBeds < 0 {
		return 0
	}
	return minBeds
}

// AvailablePerRoom returns, per room type, the number of beds bookable
// across all given dates. Room types absent on some date count as zero
// for that date.
func (p *Payload) AvailablePerRoom(dates []time.Time) map[RoomType]int {
	var result map[RoomType]int
	for _, d := range dates {
		day, ok := p.Places[d.Format(DateFormat)]
		if !ok || day.Closed {
			return map[RoomType]int{}
		}
		if result == nil {
			result = make(map[RoomType]int, len(day.Beds))
			for room, n := range day.Beds {
				result[room] = n
			}
			continue
		}
		for room := range result {
			n, ok := day.Beds[room]
			if !ok {
				result[room] = 0
			} else if n < result[room] {
				result[room] = n
			}
		}
	}
	if result == nil {
		return map[RoomType]int{}
	}
	return result
}

// HutStatus summarizes what is known about a hut for the current
// request dates.
type HutStatus int

// Hut status values in increasing order of usefulness to the user.
const (
	// StatusNoRequest means no data has been fetched for the dates.
	StatusNoRequest HutStatus = iota
	// StatusNoResponse means the last fetch for the hut failed.
	StatusNoResponse
	// StatusClosed means the hut is closed on at least one date.
	StatusClosed
	// StatusNotAvailable means the hut is open but fully booked.
	StatusNotAvailable
	// StatusAvailable means beds are free on every requested date.
	StatusAvailable
)

// String returns the lowercase status name.
func (s HutStatus) String() string {
	switch s {
	case StatusNoRequest:
		return "no request"
	case StatusNoResponse:
		return "no response"
	case StatusClosed:
		return "closed"
	case StatusNotAvailable:
		return "not available"
	case StatusAvailable:
		return "available"
	default:
		return "unknown"
	}
}
