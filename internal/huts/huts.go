// Package huts holds the static hut catalog: identity, location and
// characteristics of every known mountain hut, loaded from a tab-separated
// data file shipped with the application.
package huts

import (
	"github.com/kofflo/chamannas/internal/geo"
)

// Hut describes one mountain hut from the catalog.
type Hut struct {
	ID            string
	Name          string
	Country       string
	Region        string
	MountainRange string
	SelfCatering  bool
	Lat           float64
	Lon           float64
	Height        float64

	// LangCode is the hut's native language, needed to open the correct
	// reservation page.
	LangCode string
}

// DistanceFrom returns the great-circle distance in meters from the
// given reference location to the hut.
func (h Hut) DistanceFrom(lat, lon float64) float64 {
	return geo.Distance(h.Lat, h.Lon, lat, lon)
}
