package catalog

import (
	"math"

	"routecatalog.transit.hk/internal/models"
	"routecatalog.transit.hk/internal/utils"
)

// StopResolver decides whether two stop ids denote the same physical stop.
// It reads the catalog's stop list and stop map directly, so aliases written
// during a pass are visible to later lookups in the same pass.
type StopResolver struct {
	catalog *models.Catalog
}

func NewStopResolver(c *models.Catalog) *StopResolver {
	return &StopResolver{catalog: c}
}

// Matches reports whether a and b are the same stop and the distance between
// them. An alias in either direction matches at distance 0. Otherwise the
// stops match when they are at most GeneralMatchKm apart. Unknown stops never
// match and report an infinite distance.
func (r *StopResolver) Matches(a, b string) (bool, float64) {
	if r.catalog.StopMap.Links(a, b) {
		return true, 0
	}
	d, ok := r.Distance(a, b)
	if !ok {
		return false, math.Inf(1)
	}
	return d <= GeneralMatchKm, d
}

// Distance returns the great-circle distance in km between two known stops.
func (r *StopResolver) Distance(a, b string) (float64, bool) {
	la, ok := r.catalog.Location(a)
	if !ok {
		return 0, false
	}
	lb, ok := r.catalog.Location(b)
	if !ok {
		return 0, false
	}
	return utils.Haversine(la.Lat, la.Lng, lb.Lat, lb.Lng), true
}

// SequencesMatch reports whether two stop sequences have equal length and
// match position by position.
func (r *StopResolver) SequencesMatch(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if ok, _ := r.Matches(a[i], b[i]); !ok {
			return false
		}
	}
	return true
}

// Contains reports whether small occurs as a contiguous run inside big.
func Contains(small, big []string) bool {
	for i := 0; i+len(small) <= len(big); i++ {
		match := true
		for j := range small {
			if big[i+j] != small[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
