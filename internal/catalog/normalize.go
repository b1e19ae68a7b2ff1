package catalog

import (
	"context"
	"log/slog"
	"regexp"
	"slices"
	"sort"
	"strings"

	"routecatalog.transit.hk/internal/models"
)

var (
	stkFCARemark = models.BilingualText{
		En: "(STK FCA - Closed Area Permit Required)",
		Zh: "(沙頭角邊境禁區 - 需持邊境禁區許可證)",
	}
	sBayRemark = models.BilingualText{
		En: "(S-Bay Control Point - Border Crossing Passengers Only)",
		Zh: "(深圳灣管制站 - 僅限過境旅客)",
	}
	lmcSpurLineRemark = models.BilingualText{
		En: "(LMC SL Immigration Control Point - Border Crossing Passengers Only)",
		Zh: "(落馬洲支線出入境管制站 - 僅限過境旅客)",
	}
	lmcRemark = models.BilingualText{
		En: "(LMC Control Point - Border Crossing Passengers Only)",
		Zh: "(落馬洲管制站 - 僅限過境旅客)",
	}
)

// fixedStopRemarks annotates border crossing stops.
var fixedStopRemarks = map[string]models.BilingualText{
	"AC1FD9BDD09D1DD6": stkFCARemark,
	"20001477":         stkFCARemark,
	"152":              sBayRemark,
	"20015453":         sBayRemark,
	"003208":           sBayRemark,
	"81567ACCCF40DD4B": lmcSpurLineRemark,
	"20015420":         lmcSpurLineRemark,
	"20011698":         lmcRemark,
	"20015598":         lmcRemark,
}

// RacecourseStopID is the MTR station served only on race days.
const RacecourseStopID = "RAC"

var lrtCircularRoutes = []string{
	"705+1+Tin Shui Wai+Tin Shui Wai (Circular)",
	"706+1+Tin Shui Wai+Tin Shui Wai (Circular)",
}

var airportExpressNames = map[string]models.RouteName{
	"AEL+1+AsiaWorld-Expo+Hong Kong": {
		Orig: models.BilingualText{En: "Airport & AsiaWorld-Expo", Zh: "機場及博覽館"},
		Dest: models.BilingualText{En: "city", Zh: "市區"},
	},
	"AEL+1+Hong Kong+AsiaWorld-Expo": {
		Orig: models.BilingualText{En: "city", Zh: "市區"},
		Dest: models.BilingualText{En: "Airport & AsiaWorld-Expo", Zh: "機場及博覽館"},
	},
}

var mtrBusStopPattern = regexp.MustCompile(`^[A-Z]?[0-9]{1,3}[A-Z]?-[a-zA-Z]+[0-9]{3}$`)

// NormalizeStage brings the imported data sheet into the shape later stages
// expect.
//
// Postconditions: no record uses the lrtfeeder operator, MTR branch bounds are
// plain direction codes, ferry records list their operator, and light rail
// circular routes end where they start. Routes published only through the
// data sheet (light rail, MTR, MTR bus) are registered in Index.
type NormalizeStage struct {
	Index  models.RouteIndex
	Logger *slog.Logger

	// MTRBusStopAlias is filled by Run.
	MTRBusStopAlias map[string][]string
}

func (s *NormalizeStage) Name() string { return "normalize" }

func (s *NormalizeStage) Run(ctx context.Context, c *models.Catalog) error {
	for id, remark := range fixedStopRemarks {
		if stop, ok := c.StopList[id]; ok {
			r := remark
			stop.Remark = &r
		}
	}
	c.StopList[RacecourseStopID] = &models.Stop{
		Location: models.Location{Lat: 22.4003487, Lng: 114.2030287},
		Name:     models.BilingualText{En: "Racecourse", Zh: "馬場"},
		Remark:   &models.BilingualText{En: "(Race Days Only)", Zh: "(只限賽馬日)"},
	}

	for key, name := range airportExpressNames {
		if r, ok := c.RouteList[key]; ok {
			r.Orig, r.Dest = name.Orig, name.Dest
		}
	}

	for _, key := range lrtCircularRoutes {
		r, ok := c.RouteList[key]
		if !ok {
			continue
		}
		stops := r.Stops[models.LightRail]
		if len(stops) > 0 && stops[0] != stops[len(stops)-1] {
			r.Stops[models.LightRail] = append(stops, stops[0])
		}
		r.LrtCircular = &models.BilingualText{En: "TSW Circular", Zh: "天水圍循環綫"}
	}

	s.renameFeederBus(c)
	s.normalizeOperators(c)
	s.normalizeMTRBranches(c)

	s.MTRBusStopAlias = make(map[string][]string)
	for id := range c.StopList {
		if mtrBusStopPattern.MatchString(id) {
			s.MTRBusStopAlias[id] = []string{id}
		}
	}
	return nil
}

func (s *NormalizeStage) register(number string, op models.Operator, r *models.Route) {
	if s.Index != nil {
		s.Index.Register(number, op, models.RouteName{Orig: r.Orig, Dest: r.Dest})
	}
}

// renameFeederBus moves lrtfeeder records to the mtr-bus operator.
func (s *NormalizeStage) renameFeederBus(c *models.Catalog) {
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		direction, ok := r.Bound[models.LRTFeeder]
		if !ok {
			continue
		}
		s.register(r.Route, models.MTRBus, r)
		delete(r.Bound, models.LRTFeeder)
		r.Bound[models.MTRBus] = direction
		if r.ServesOperator(models.LRTFeeder) {
			r.RemoveOperator(models.LRTFeeder)
			r.AddOperator(models.MTRBus)
		}
		if stops, ok := r.Stops[models.LRTFeeder]; ok {
			delete(r.Stops, models.LRTFeeder)
			r.Stops[models.MTRBus] = stops
		}
	}
}

func (s *NormalizeStage) normalizeOperators(c *models.Catalog) {
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		for _, ferry := range models.Ferries {
			if _, ok := r.Bound[ferry]; ok && !r.ServesOperator(ferry) {
				r.Co = []models.Operator{ferry}
			}
		}
		if _, ok := r.Bound[models.LightRail]; ok {
			s.register(r.Route, models.LightRail, r)
		}
	}
}

type mtrLineBound struct {
	origs     []models.BilingualText
	dests     []models.BilingualText
	stopNames [][]string
}

// normalizeMTRBranches strips branch prefixes from MTR bounds ("LMC-DT"
// becomes "DT") and gives every record of a line direction the joined names
// of all its terminals.
func (s *NormalizeStage) normalizeMTRBranches(c *models.Catalog) {
	lines := make(map[string]*mtrLineBound)
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		bound, ok := r.Bound[models.MTR]
		if !ok {
			continue
		}
		s.register(r.Route, models.MTR, r)
		stops := r.Stops[models.MTR]

		branch := false
		if i := strings.Index(bound, "-"); i >= 0 {
			if strings.HasPrefix(bound, "LMC-") {
				if j := slices.Index(stops, "FOT"); j >= 0 {
					stops[j] = RacecourseStopID
				}
			}
			bound = bound[i+1:]
			r.Bound[models.MTR] = bound
			r.ServiceType = "2"
			branch = true
		}

		lineKey := r.Route + "_" + bound
		lb := lines[lineKey]
		if lb == nil {
			lb = &mtrLineBound{}
			lines[lineKey] = lb
		}
		if branch {
			lb.origs = append(lb.origs, r.Orig)
			lb.dests = append(lb.dests, r.Dest)
		} else {
			lb.origs = append([]models.BilingualText{r.Orig}, lb.origs...)
			lb.dests = append([]models.BilingualText{r.Dest}, lb.dests...)
		}
		names := make([]string, 0, len(stops))
		for _, id := range stops {
			if stop, ok := c.StopList[id]; ok {
				names = append(names, stop.Name.Zh)
			} else {
				names = append(names, "")
			}
		}
		lb.stopNames = append(lb.stopNames, names)
	}

	joinedOrig := make(map[string]models.BilingualText)
	joinedDest := make(map[string]models.BilingualText)
	for lineKey, lb := range lines {
		if len(lb.origs) > 1 {
			joinedOrig[lineKey] = joinTerminals(lb.origs, lb.stopNames)
		}
		if len(lb.dests) > 1 {
			joinedDest[lineKey] = joinTerminals(lb.dests, lb.stopNames)
		}
	}

	for _, r := range c.RouteList {
		bound, ok := r.Bound[models.MTR]
		if !ok {
			continue
		}
		lineKey := r.Route + "_" + bound
		if name, ok := joinedOrig[lineKey]; ok && name.Zh != "" {
			r.Orig = name
		}
		if name, ok := joinedDest[lineKey]; ok && name.Zh != "" {
			r.Dest = name
		}
	}

	if s.Logger != nil && len(lines) > 0 {
		keys := make([]string, 0, len(lines))
		for k := range lines {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		s.Logger.Debug("mtr_lines_normalized", slog.Any("lines", keys))
	}
}

// joinTerminals joins the distinct terminal names that are never an
// intermediate station of any sequence on the line.
func joinTerminals(names []models.BilingualText, sequences [][]string) models.BilingualText {
	var zh, en []string
	for _, n := range names {
		mid := false
		for _, seq := range sequences {
			if i := slices.Index(seq, n.Zh); i > 0 && i < len(seq)-1 {
				mid = true
				break
			}
		}
		if mid {
			continue
		}
		if !slices.Contains(zh, n.Zh) {
			zh = append(zh, n.Zh)
		}
		if !slices.Contains(en, n.En) {
			en = append(en, n.En)
		}
	}
	return models.BilingualText{Zh: strings.Join(zh, "/"), En: strings.Join(en, "/")}
}
