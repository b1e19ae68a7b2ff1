package models

import (
	"slices"
	"sort"

	"github.com/goccy/go-json"
)

// BilingualText holds a Traditional Chinese and English rendering of a label.
type BilingualText struct {
	En string `json:"en"`
	Zh string `json:"zh"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Stop struct {
	Location Location       `json:"location"`
	Name     BilingualText  `json:"name"`
	Remark   *BilingualText `json:"remark,omitempty"`
	Stations []string       `json:"stations,omitempty"`
}

// Route is one record of the route list, keyed in the catalog by
// "{route}+{serviceType}+{orig.en}+{dest.en}".
type Route struct {
	Route         string                `json:"route"`
	ServiceType   string                `json:"serviceType"`
	Bound         map[Operator]string   `json:"bound"`
	Co            []Operator            `json:"co"`
	Orig          BilingualText         `json:"orig"`
	Dest          BilingualText         `json:"dest"`
	Stops         map[Operator][]string `json:"stops"`
	Fares         []string              `json:"fares"`
	FaresHoliday  []string              `json:"faresHoliday"`
	Freq          json.RawMessage       `json:"freq"`
	JT            *string               `json:"jt,omitempty"`
	GtfsID        *string               `json:"gtfsId"`
	NlbID         *string               `json:"nlbId"`
	FakeRoute     bool                  `json:"fakeRoute,omitempty"`
	KmbCtbJoint   bool                  `json:"kmbCtbJoint,omitempty"`
	CtbIsCircular bool                  `json:"ctbIsCircular,omitempty"`
	LrtCircular   *BilingualText        `json:"lrtCircular,omitempty"`
	GmbRegion     string                `json:"gmbRegion,omitempty"`
}

// HasFreq reports whether the record carries a non-null frequency table.
func (r *Route) HasFreq() bool {
	return len(r.Freq) > 0 && string(r.Freq) != "null"
}

// ServesOperator reports whether op is listed in the record's co list.
func (r *Route) ServesOperator(op Operator) bool {
	return slices.Contains(r.Co, op)
}

// InvolvesOperator reports whether op appears in the co list, the bound map
// or the stop map.
func (r *Route) InvolvesOperator(op Operator) bool {
	if r.ServesOperator(op) {
		return true
	}
	if _, ok := r.Bound[op]; ok {
		return true
	}
	_, ok := r.Stops[op]
	return ok
}

// AddOperator appends op to the co list unless it is already present.
func (r *Route) AddOperator(op Operator) {
	if !r.ServesOperator(op) {
		r.Co = append(r.Co, op)
	}
}

// RemoveOperator drops op from the co list.
func (r *Route) RemoveOperator(op Operator) {
	r.Co = slices.DeleteFunc(r.Co, func(o Operator) bool { return o == op })
}

// PrimaryOperator returns the first operator in PrimaryOperatorOrder present
// in the bound map.
func (r *Route) PrimaryOperator() (Operator, bool) {
	for _, op := range PrimaryOperatorOrder {
		if _, ok := r.Bound[op]; ok {
			return op, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the record.
func (r *Route) Clone() *Route {
	c := *r
	c.Bound = make(map[Operator]string, len(r.Bound))
	for op, b := range r.Bound {
		c.Bound[op] = b
	}
	c.Co = slices.Clone(r.Co)
	c.Stops = make(map[Operator][]string, len(r.Stops))
	for op, s := range r.Stops {
		c.Stops[op] = slices.Clone(s)
	}
	c.Fares = slices.Clone(r.Fares)
	c.FaresHoliday = slices.Clone(r.FaresHoliday)
	c.Freq = slices.Clone(r.Freq)
	if r.LrtCircular != nil {
		lrt := *r.LrtCircular
		c.LrtCircular = &lrt
	}
	return &c
}

// Catalog is the data sheet: route list, stop list and stop identity map.
// A reconciliation run owns it exclusively.
type Catalog struct {
	Holidays      json.RawMessage   `json:"holidays,omitempty"`
	RouteList     map[string]*Route `json:"routeList"`
	ServiceDayMap json.RawMessage   `json:"serviceDayMap,omitempty"`
	StopList      map[string]*Stop  `json:"stopList"`
	StopMap       StopMap           `json:"stopMap"`
}

func NewCatalog() *Catalog {
	return &Catalog{
		RouteList: make(map[string]*Route),
		StopList:  make(map[string]*Stop),
		StopMap:   make(StopMap),
	}
}

// SortedRouteKeys returns the route list keys in lexical order so that passes
// never depend on map iteration order.
func (c *Catalog) SortedRouteKeys() []string {
	keys := make([]string, 0, len(c.RouteList))
	for k := range c.RouteList {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RouteNumbers returns the distinct route numbers in lexical order.
func (c *Catalog) RouteNumbers() []string {
	seen := make(map[string]struct{})
	for _, r := range c.RouteList {
		seen[r.Route] = struct{}{}
	}
	numbers := make([]string, 0, len(seen))
	for n := range seen {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)
	return numbers
}

// Location returns the coordinates of a stop, or false when the stop is unknown.
func (c *Catalog) Location(stopID string) (Location, bool) {
	stop, ok := c.StopList[stopID]
	if !ok || stop == nil {
		return Location{}, false
	}
	return stop.Location, true
}

// RoutesByNumber returns the keys of every record for a route number, sorted.
func (c *Catalog) RoutesByNumber(number string) []string {
	var keys []string
	for k, r := range c.RouteList {
		if r.Route == number {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// CatalogStats summarizes a catalog for logging and the stats endpoint.
type CatalogStats struct {
	Routes       int `json:"routes"`
	RouteNumbers int `json:"routeNumbers"`
	Stops        int `json:"stops"`
	StopAliases  int `json:"stopAliases"`
	JointRoutes  int `json:"jointRoutes"`
	FakeRoutes   int `json:"fakeRoutes"`
}

func (c *Catalog) Stats() CatalogStats {
	stats := CatalogStats{
		Routes:       len(c.RouteList),
		RouteNumbers: len(c.RouteNumbers()),
		Stops:        len(c.StopList),
	}
	for _, entries := range c.StopMap {
		stats.StopAliases += len(entries)
	}
	for _, r := range c.RouteList {
		if r.KmbCtbJoint {
			stats.JointRoutes++
		}
		if r.FakeRoute {
			stats.FakeRoutes++
		}
	}
	return stats
}
