package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"routecatalog.transit.hk/internal/models"
)

// Subsidiary codes of the reference operator.
const (
	SubsidiaryLongWin = "LWB"
	SubsidiarySunBus  = "SUNB"
)

var sunBusRoutes = map[string]struct{}{
	"331": {}, "331S": {}, "917": {}, "918": {}, "945": {},
}

// notLongWinPrefixes are route number prefixes never run by Long Win even
// when they terminate inside its service area.
var notLongWinPrefixes = []string{"PB", "PN"}

// longWinArea covers Lantau and the airport. Points are lng/lat.
var longWinArea = orb.Polygon{orb.Ring{
	{114.04468147886547, 22.353035101615237},
	{114.06412468869647, 22.33535147194486},
	{114.06444874219365, 22.188100849108828},
	{113.82594536826676, 22.18870096192713},
	{113.83145427771888, 22.35273539776945},
	{114.04468147886547, 22.353035101615237},
}}

// InLongWinArea reports whether a location lies inside the Long Win service area.
func InLongWinArea(loc models.Location) bool {
	return planar.PolygonContains(longWinArea, orb.Point{loc.Lng, loc.Lat})
}

// SubsidiaryStage lists reference operator route numbers run by its
// subsidiaries. It does not modify the catalog.
type SubsidiaryStage struct {
	// LongWinRoutes are route numbers the headway feed attributes to Long Win.
	LongWinRoutes map[string]struct{}

	// Result is filled by Run with sorted route numbers per subsidiary.
	Result map[string][]string
}

func (s *SubsidiaryStage) Name() string { return "subsidiaries" }

func (s *SubsidiaryStage) Run(ctx context.Context, c *models.Catalog) error {
	found := map[string]map[string]struct{}{
		SubsidiaryLongWin: {},
		SubsidiarySunBus:  {},
	}
	for _, r := range c.RouteList {
		if _, ok := r.Bound[models.KMB]; !ok {
			continue
		}
		number := r.Route
		if _, ok := sunBusRoutes[number]; ok {
			found[SubsidiarySunBus][number] = struct{}{}
			continue
		}
		if _, ok := s.LongWinRoutes[number]; ok {
			found[SubsidiaryLongWin][number] = struct{}{}
			continue
		}
		if hasAnyPrefix(number, notLongWinPrefixes) {
			continue
		}
		stops := r.Stops[models.KMB]
		if len(stops) == 0 {
			continue
		}
		first, okFirst := c.Location(stops[0])
		last, okLast := c.Location(stops[len(stops)-1])
		if (okFirst && InLongWinArea(first)) || (okLast && InLongWinArea(last)) {
			found[SubsidiaryLongWin][number] = struct{}{}
		}
	}

	s.Result = make(map[string][]string, len(found))
	for code, set := range found {
		numbers := make([]string, 0, len(set))
		for n := range set {
			numbers = append(numbers, n)
		}
		slices.Sort(numbers)
		s.Result[code] = numbers
	}
	return nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
