package models

import "github.com/goccy/go-json"

// CatalogFile is the published document. Fields are declared in key order so
// the encoded top level is sorted.
type CatalogFile struct {
	BusRoute        []string            `json:"busRoute"`
	CtbEtaStops     LiveSequences       `json:"ctbEtaStops"`
	DataSheet       *Catalog            `json:"dataSheet"`
	KmbSubsidiary   map[string][]string `json:"kmbSubsidiary"`
	MtrBusStopAlias map[string][]string `json:"mtrBusStopAlias"`
}

// StripFares returns a copy of the document whose routes encode without fare
// tables. The receiver is not modified.
func (f *CatalogFile) StripFares() *StrippedCatalogFile {
	routes := make(map[string]strippedRoute, len(f.DataSheet.RouteList))
	for key, r := range f.DataSheet.RouteList {
		routes[key] = newStrippedRoute(r)
	}
	return &StrippedCatalogFile{
		BusRoute:    f.BusRoute,
		CtbEtaStops: f.CtbEtaStops,
		DataSheet: strippedCatalog{
			RouteList:     routes,
			StopList:      f.DataSheet.StopList,
			StopMap:       f.DataSheet.StopMap,
			Holidays:      f.DataSheet.Holidays,
			ServiceDayMap: f.DataSheet.ServiceDayMap,
		},
		KmbSubsidiary:   f.KmbSubsidiary,
		MtrBusStopAlias: f.MtrBusStopAlias,
	}
}

// StrippedCatalogFile is CatalogFile without fares.
type StrippedCatalogFile struct {
	BusRoute        []string            `json:"busRoute"`
	CtbEtaStops     LiveSequences       `json:"ctbEtaStops"`
	DataSheet       strippedCatalog     `json:"dataSheet"`
	KmbSubsidiary   map[string][]string `json:"kmbSubsidiary"`
	MtrBusStopAlias map[string][]string `json:"mtrBusStopAlias"`
}

type strippedCatalog struct {
	Holidays      json.RawMessage          `json:"holidays,omitempty"`
	RouteList     map[string]strippedRoute `json:"routeList"`
	ServiceDayMap json.RawMessage          `json:"serviceDayMap,omitempty"`
	StopList      map[string]*Stop         `json:"stopList"`
	StopMap       StopMap                  `json:"stopMap"`
}

// strippedRoute is Route without the fare fields.
type strippedRoute struct {
	Route         string                `json:"route"`
	ServiceType   string                `json:"serviceType"`
	Bound         map[Operator]string   `json:"bound"`
	Co            []Operator            `json:"co"`
	Orig          BilingualText         `json:"orig"`
	Dest          BilingualText         `json:"dest"`
	Stops         map[Operator][]string `json:"stops"`
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

func newStrippedRoute(r *Route) strippedRoute {
	return strippedRoute{
		Route:         r.Route,
		ServiceType:   r.ServiceType,
		Bound:         r.Bound,
		Co:            r.Co,
		Orig:          r.Orig,
		Dest:          r.Dest,
		Stops:         r.Stops,
		Freq:          r.Freq,
		JT:            r.JT,
		GtfsID:        r.GtfsID,
		NlbID:         r.NlbID,
		FakeRoute:     r.FakeRoute,
		KmbCtbJoint:   r.KmbCtbJoint,
		CtbIsCircular: r.CtbIsCircular,
		LrtCircular:   r.LrtCircular,
		GmbRegion:     r.GmbRegion,
	}
}
