package huts

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortKey names a hut characteristic to order by.
type SortKey string

// Supported sort keys.
const (
	SortByName     SortKey = "name"
	SortByCountry  SortKey = "country"
	SortByHeight   SortKey = "height"
	SortByDistance SortKey = "distance"
)

// Sort orders hut ids by the given key. Name and country use
// locale-aware, case-insensitive collation since hut names mix German,
// Italian and Romansh spellings. Distance requires a reference
// location. The input slice is sorted in place and returned.
func Sort(c *Catalog, ids []string, key SortKey, ascending bool, latRef, lonRef float64) []string {
	coll := collate.New(language.German, collate.IgnoreCase)

	var less func(a, b Hut) bool
	switch key {
	case SortByName:
		less = func(a, b Hut) bool { return coll.CompareString(a.Name, b.Name) < 0 }
	case SortByCountry:
		less = func(a, b Hut) bool { return coll.CompareString(a.Country, b.Country) < 0 }
	case SortByHeight:
		less = func(a, b Hut) bool { return a.Height < b.Height }
	case SortByDistance:
		less = func(a, b Hut) bool {
			return a.DistanceFrom(latRef, lonRef) < b.DistanceFrom(latRef, lonRef)
		}
	default:
		return ids
	}

	sort.SliceStable(ids, func(i, j int) bool {
		a, b := c.huts[ids[i]], c.huts[ids[j]]
		if ascending {
			return less(a, b)
		}
		return less(b, a)
	})
	return ids
}
