package huts

// Filter selects a subset of hut ids based on catalog characteristics.
// Filters compose by chaining; each returns a new slice and leaves its
// input untouched.
type Filter func(c *Catalog, ids []string) []string

// ByCountry keeps huts in the given country.
func ByCountry(country string) Filter {
	return func(c *Catalog, ids []string) []string {
		return keep(c, ids, func(h Hut) bool { return h.Country == country })
	}
}

// ByRegion keeps huts in the given region.
func ByRegion(region string) Filter {
	return func(c *Catalog, ids []string) []string {
		return keep(c, ids, func(h Hut) bool { return h.Region == region })
	}
}

// ByMountainRange keeps huts in the given mountain range.
func ByMountainRange(mountainRange string) Filter {
	return func(c *Catalog, ids []string) []string {
		return keep(c, ids, func(h Hut) bool { return h.MountainRange == mountainRange })
	}
}

// ByHeight keeps huts inside the given height interval in meters. Pass
// a negative bound to leave that side open.
func ByHeight(minHeight, maxHeight float64) Filter {
	if minHeight < 0 {
		minHeight = 0
	}
	if maxHeight < 0 {
		maxHeight = 10000
	}
	return func(c *Catalog, ids []string) []string {
		return keep(c, ids, func(h Hut) bool {
			return h.Height >= minHeight && h.Height <= maxHeight
		})
	}
}

// BySelfCatering keeps huts with the given self-catering flag.
func BySelfCatering(selfCatering bool) Filter {
	return func(c *Catalog, ids []string) []string {
		return keep(c, ids, func(h Hut) bool { return h.SelfCatering == selfCatering })
	}
}

// ByDistance keeps huts whose distance from the reference location lies
// inside the given interval in kilometers. Pass a negative bound to
// leave that side open.
func ByDistance(minKm, maxKm, latRef, lonRef float64) Filter {
	if minKm < 0 {
		minKm = 0
	}
	if maxKm < 0 {
		maxKm = 20000
	}
	return func(c *Catalog, ids []string) []string {
		return keep(c, ids, func(h Hut) bool {
			d := h.DistanceFrom(latRef, lonRef)
			return d >= minKm*1000 && d <= maxKm*1000
		})
	}
}

// Apply runs the filters in order over the given ids.
func Apply(c *Catalog, ids []string, filters ...Filter) []string {
	out := append([]string(nil), ids...)
	for _, f := range filters {
		out = f(c, out)
	}
	return out
}

func keep(c *Catalog, ids []string, pred func(Hut) bool) []string {
	var out []string
	for _, id := range ids {
		if h, ok := c.huts[id]; ok && pred(h) {
			out = append(out, id)
		}
	}
	return out
}
