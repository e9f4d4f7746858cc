package ui

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/kofflo/chamannas/internal/availability"
	"github.com/kofflo/chamannas/internal/model"
)

// JSON emits one JSON document with the availability of the selected
// huts, for scripting around the tool.
type JSON struct {
	out io.Writer
}

// NewJSON builds the JSON toolkit.
func NewJSON(out io.Writer) *JSON {
	return &JSON{out: out}
}

// Name implements Toolkit.
func (j *JSON) Name() string { return ToolkitJSON }

// jsonHut is the per-hut output record.
type jsonHut struct {
	ID        string                        `json:"id"`
	Name      string                        `json:"name"`
	Country   string                        `json:"country"`
	Height    float64                       `json:"height"`
	DistanceM float64                       `json:"distance_m"`
	Status    string                        `json:"status"`
	Available int                           `json:"available"`
	PerRoom   map[availability.RoomType]int `json:"per_room,omitempty"`
	Stale     bool                          `json:"stale,omitempty"`
	FetchedAt *time.Time                    `json:"fetched_at,omitempty"`
	Warning   string                        `json:"warning,omitempty"`
}

type jsonDocument struct {
	Dates  []string  `json:"dates"`
	Huts   []jsonHut `json:"huts"`
	Errors []string  `json:"errors,omitempty"`
}

// Run refreshes availability for the selected huts and writes the
// document.
func (j *JSON) Run(ctx context.Context, m *model.Model) error {
	ids := m.Selected()
	if len(ids) == 0 {
		ids = m.Catalog().IDs()
	}
	if err := m.UpdateResults(ctx, ids, nil); err != nil {
		return err
	}

	doc := jsonDocument{Errors: m.HutErrors()}
	for _, d := range m.RequestDates() {
		doc.Dates = append(doc.Dates, d.Format(availability.DateFormat))
	}
	for _, id := range ids {
		info, err := m.Info(id)
		if err != nil {
			continue
		}
		rec := jsonHut{
			ID:        info.Hut.ID,
			Name:      info.Hut.Name,
			Country:   info.Hut.Country,
			Height:    info.Hut.Height,
			DistanceM: info.Distance,
			Status:    info.Status.String(),
			Available: info.Available,
			PerRoom:   info.PerRoom,
			Stale:     info.Stale,
			Warning:   info.Warning,
		}
		if !info.FetchedAt.IsZero() {
			t := info.FetchedAt
			rec.FetchedAt = &t
		}
		doc.Huts = append(doc.Huts, rec)
	}

	enc := json.NewEncoder(j.out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
