// Package geo provides great-circle math on a spherical Earth.
package geo

import "math"

const earthRadiusMeters = 6371000

// hav is the haversine of an angle in radians.
func hav(phi float64) float64 {
	s := math.Sin(phi / 2)
	return s * s
}

// Distance returns the great-circle distance in meters between two
// points given as latitude/longitude in degrees.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180
	h := hav(lat2Rad-lat1Rad) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*hav(lon2Rad-lon1Rad)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// MetersToDegrees converts distances in meters along the parallel (x)
// and the meridian (y) at a given latitude into differences in latitude
// and longitude, both in degrees.
func MetersToDegrees(x, y, lat float64) (dLat, dLon float64) {
	dLat = y / earthRadiusMeters * 180 / math.Pi
	dLon = x / (earthRadiusMeters * math.Cos(lat*math.Pi/180)) * 180 / math.Pi
	return dLat, dLon
}
