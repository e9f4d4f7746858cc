package huts

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// skipCode marks catalog rows that must be ignored.
const skipCode = "SKIP"

// catalogColumns is the expected number of fields per row.
const catalogColumns = 10

// Catalog is the loaded hut catalog. Immutable after load; safe for
// concurrent reads.
type Catalog struct {
	huts map[string]Hut

	// warnings collects rows that could not be parsed. Bad rows are
	// skipped, never fatal.
	warnings []string
}

// LoadCatalog reads the tab-separated huts data file. Each row holds
// id, name, country, region, mountain range, self-catering flag,
// latitude, longitude, height and language code. A missing file is
// fatal to the caller; malformed rows are collected as warnings.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening huts data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	c := &Catalog{huts: make(map[string]Hut)}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading huts data file: %w", err)
	}

	for _, rec := range records {
		if len(rec) > 1 && rec[1] == skipCode {
			continue
		}
		hut, err := parseRow(rec)
		if err != nil {
			c.warnings = append(c.warnings, fmt.Sprintf("%v: %v", rec, err))
			continue
		}
		c.huts[hut.ID] = hut
	}
	return c, nil
}

func parseRow(rec []string) (Hut, error) {
	if len(rec) != catalogColumns {
		return Hut{}, fmt.Errorf("expected %d fields, got %d", catalogColumns, len(rec))
	}

	if _, err := strconv.Atoi(rec[0]); err != nil {
		return Hut{}, fmt.Errorf("hut id %q is not numeric", rec[0])
	}
	selfCatering, err := parseBool(rec[5])
	if err != nil {
		return Hut{}, err
	}
	lat, err := strconv.ParseFloat(rec[6], 64)
	if err != nil {
		return Hut{}, fmt.Errorf("latitude %q: %w", rec[6], err)
	}
	lon, err := strconv.ParseFloat(rec[7], 64)
	if err != nil {
		return Hut{}, fmt.Errorf("longitude %q: %w", rec[7], err)
	}
	height, err := strconv.ParseFloat(rec[8], 64)
	if err != nil {
		return Hut{}, fmt.Errorf("height %q: %w", rec[8], err)
	}

	return Hut{
		ID:            rec[0],
		Name:          rec[1],
		Country:       rec[2],
		Region:        rec[3],
		MountainRange: rec[4],
		SelfCatering:  selfCatering,
		Lat:           lat,
		Lon:           lon,
		Height:        height,
		LangCode:      rec[9],
	}, nil
}

// parseBool accepts the truthy/falsy spellings used in the data file.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "t", "on":
		return true, nil
	case "0", "false", "no", "n", "f", "off":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

// Hut returns a catalog entry by id.
func (c *Catalog) Hut(id string) (Hut, bool) {
	h, ok := c.huts[id]
	return h, ok
}

// IDs returns all catalog ids in numeric order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.huts))
	for id := range c.huts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, _ := strconv.Atoi(ids[i])
		b, _ := strconv.Atoi(ids[j])
		return a < b
	})
	return ids
}

// Len returns the number of huts in the catalog.
func (c *Catalog) Len() int {
	return len(c.huts)
}

// Warnings returns the parse warnings collected during load.
func (c *Catalog) Warnings() []string {
	return c.warnings
}
