package catalog

import (
	"regexp"
	"strings"

	"routecatalog.transit.hk/internal/models"
)

// PlaceholderLocation is where sentinel and backfilled stops are placed.
var PlaceholderLocation = models.Location{Lat: 22.203615, Lng: 114.415195}

var pendingRemark = models.BilingualText{
	En: "(Usually details will be updated in a few days)",
	Zh: "(資訊通常會在數日後更新出現)",
}

// SentinelStops is the reserved stop pair each operator's placeholder routes use.
var SentinelStops = map[models.Operator][2]string{
	models.KMB:       {"ZZZZZZZZZZZZZZZY", "ZZZZZZZZZZZZZZZZ"},
	models.CTB:       {"999998", "999999"},
	models.NLB:       {"9998", "9999"},
	models.MTRBus:    {"Z99-Z998", "Z99-Z999"},
	models.GMB:       {"99999998", "99999999"},
	models.LightRail: {"LR99998", "LR99999"},
	models.MTR:       {"ZZY", "ZZZ"},
}

// operatorRemarks tag stops synthesized from another operator's stop.
var operatorRemarks = map[models.Operator]models.BilingualText{
	models.CTB: {En: "(Citybus)", Zh: "(城巴)"},
	models.KMB: {En: "(KMB)", Zh: "(九巴)"},
	models.NLB: {En: "(NLB)", Zh: "(嶼巴)"},
}

var syntheticStopPattern = regexp.MustCompile(`^ZZ[A-Z0-9]{8}[0-9]{6}$`)

// IsSyntheticStopID reports whether id was produced by SyntheticStopID for a
// six digit partner stop id.
func IsSyntheticStopID(id string) bool {
	return syntheticStopPattern.MatchString(id)
}

// Factory synthesizes stop ids and minimal records against one catalog.
type Factory struct {
	catalog *models.Catalog
}

func NewFactory(c *models.Catalog) *Factory {
	return &Factory{catalog: c}
}

// SyntheticStopID returns the id under which partnerStopID is represented in
// a reference operator's sequence when no counterpart exists. An id already
// recorded in the stop map for partnerStopID is reused, so repeated merges do
// not mint new stops.
func (f *Factory) SyntheticStopID(partnerStopID string) (string, error) {
	for _, e := range f.catalog.StopMap[partnerStopID] {
		if strings.HasPrefix(e.StopID, "ZZ") && strings.HasSuffix(e.StopID, partnerStopID) && len(e.StopID) == len(partnerStopID)+10 {
			return e.StopID, nil
		}
	}
	code, err := GenerateID(partnerStopID, 8, Alphanumeric, func(s string) bool {
		_, taken := f.catalog.StopList["ZZ"+s+partnerStopID]
		return !taken
	})
	if err != nil {
		return "", err
	}
	return "ZZ" + code + partnerStopID, nil
}

// CopyStop returns a copy of the source stop tagged with the operator remark.
func (f *Factory) CopyStop(sourceID string, source models.Operator) (*models.Stop, bool) {
	stop, ok := f.catalog.StopList[sourceID]
	if !ok || stop == nil {
		return nil, false
	}
	c := *stop
	c.Stations = append([]string(nil), stop.Stations...)
	remark, ok := operatorRemarks[source]
	if !ok {
		remark = models.BilingualText{En: "(" + string(source) + ")", Zh: "(" + string(source) + ")"}
	}
	c.Remark = &remark
	return &c, true
}

// NewSentinelStop is the record stored under every SentinelStops id.
func NewSentinelStop() *models.Stop {
	remark := pendingRemark
	return &models.Stop{
		Location: PlaceholderLocation,
		Name:     models.BilingualText{En: "Route Details TBD", Zh: "未有路線資訊"},
		Remark:   &remark,
	}
}

// NewPendingStop is the record backfilled for a referenced but unknown stop id.
func NewPendingStop() *models.Stop {
	remark := pendingRemark
	return &models.Stop{
		Location: PlaceholderLocation,
		Name:     models.BilingualText{En: "Stop Details TBD", Zh: "未有車站資訊"},
		Remark:   &remark,
	}
}

// RouteKey builds the route list key for a record.
func RouteKey(number, serviceType string, orig, dest models.BilingualText) string {
	return number + "+" + serviceType + "+" + orig.En + "+" + dest.En
}

// NewFabricatedRoute returns an empty single-operator record with every
// carried-through field set to null.
func NewFabricatedRoute(number, serviceType string, op models.Operator, bound string, name models.RouteName, stops []string) *models.Route {
	return &models.Route{
		Route:       number,
		ServiceType: serviceType,
		Bound:       map[models.Operator]string{op: bound},
		Co:          []models.Operator{op},
		Orig:        name.Orig,
		Dest:        name.Dest,
		Stops:       map[models.Operator][]string{op: stops},
	}
}

// NewPlaceholderRoute describes a route an operator lists but has published no
// stops for. It returns false for operators without a sentinel pair.
func NewPlaceholderRoute(number string, op models.Operator, name models.RouteName) (string, *models.Route, bool) {
	pair, ok := SentinelStops[op]
	if !ok {
		return "", nil, false
	}
	route := NewFabricatedRoute(number, "99", op, "O", name, []string{pair[0], pair[1]})
	return RouteKey(number, "99", name.Orig, name.Dest), route, true
}
