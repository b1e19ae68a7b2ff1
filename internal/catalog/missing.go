package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"routecatalog.transit.hk/internal/models"
)

// MissingRoutesStage adds a placeholder record for every route an operator
// lists in Index that the catalog has no record for. Placeholders use the
// operator's sentinel stop pair. Jointly operated route numbers never get
// placeholders for either joint operator.
type MissingRoutesStage struct {
	Index  models.RouteIndex
	Logger *slog.Logger
}

func (s *MissingRoutesStage) Name() string { return "missing_routes" }

func (s *MissingRoutesStage) Run(ctx context.Context, c *models.Catalog) error {
	missing := s.Index.Clone()
	joint := make(map[string]struct{})

	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		ops, ok := missing[r.Route]
		if !ok {
			continue
		}
		for _, op := range r.Co {
			if _, listed := ops[op]; !listed {
				continue
			}
			if r.KmbCtbJoint {
				joint[r.Route] = struct{}{}
			}
			delete(ops, op)
			if len(ops) == 0 {
				delete(missing, r.Route)
			}
			break
		}
	}
	for number := range joint {
		if ops, ok := missing[number]; ok {
			delete(ops, models.KMB)
			delete(ops, models.CTB)
			if len(ops) == 0 {
				delete(missing, number)
			}
		}
	}

	for _, pair := range SentinelStops {
		for _, id := range pair {
			c.StopList[id] = NewSentinelStop()
		}
	}

	added := 0
	for _, number := range missing.Numbers() {
		ops := make([]models.Operator, 0, len(missing[number]))
		for op := range missing[number] {
			ops = append(ops, op)
		}
		slices.Sort(ops)
		for _, op := range ops {
			key, route, ok := NewPlaceholderRoute(number, op, missing[number][op])
			if !ok {
				continue
			}
			c.RouteList[key] = route
			added++
		}
	}
	if s.Logger != nil {
		s.Logger.Info("placeholder_routes_added", slog.Int("count", added))
	}
	return nil
}

type boundInfo struct {
	count int
	name  models.RouteName
}

type liveRouteStops struct {
	known  map[string]struct{}
	bounds map[string]*boundInfo
}

// OrphanStopsStage adds a fabricated record for every live partner sequence
// that serves a stop no partner record of the route number references. For
// jointly operated route numbers the fabricated record must merge or it is
// dropped. Fabricated single-direction records on route numbers that have a
// circular record then adopt the circular bound when they are at least as
// long as the shortest circular record or share its terminals within
// EndpointProximityKm; otherwise they are tagged CtbIsCircular.
type OrphanStopsStage struct {
	Live   models.LiveSequences
	Logger *slog.Logger
}

func (s *OrphanStopsStage) Name() string { return "orphan_live_stops" }

func (s *OrphanStopsStage) Run(ctx context.Context, c *models.Catalog) error {
	if len(s.Live) == 0 {
		return nil
	}
	engine := NewMergeEngine(c, s.Logger)
	partner := engine.Partner

	routes := make(map[string]*liveRouteStops)
	joint := make(map[string]struct{})
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		if !r.ServesOperator(partner) {
			continue
		}
		if _, ok := r.Bound[engine.Reference]; ok || r.ServesOperator(engine.Reference) {
			joint[r.Route] = struct{}{}
		}
		var bounds []string
		if b, ok := r.Bound[partner]; !ok {
			bounds = []string{"O"}
		} else if len(b) > 1 {
			bounds = []string{"O", "I"}
		} else {
			bounds = []string{b}
		}
		stops, ok := r.Stops[partner]
		if !ok {
			continue
		}
		info := routes[r.Route]
		if info == nil {
			info = &liveRouteStops{known: make(map[string]struct{}), bounds: make(map[string]*boundInfo)}
			routes[r.Route] = info
		}
		for _, id := range stops {
			info.known[id] = struct{}{}
		}
		for _, b := range bounds {
			bi, ok := info.bounds[b]
			if !ok {
				info.bounds[b] = &boundInfo{count: len(stops), name: models.RouteName{Orig: r.Orig, Dest: r.Dest}}
			} else if len(stops) > bi.count {
				bi.count = len(stops)
				bi.name = models.RouteName{Orig: r.Orig, Dest: r.Dest}
			}
		}
	}

	numbers := make([]string, 0, len(routes))
	for n := range routes {
		numbers = append(numbers, n)
	}
	sort.Strings(numbers)

	added := 0
	for _, number := range numbers {
		info := routes[number]
		for _, bound := range []string{"O", "I"} {
			bi, ok := info.bounds[bound]
			if !ok {
				continue
			}
			sequence := s.Live.Get(number, bound)
			orphan := false
			for _, id := range sequence {
				if _, ok := info.known[id]; !ok {
					orphan = true
					break
				}
			}
			if !orphan {
				continue
			}
			key := RouteKey(number, "98", bi.name.Orig, bi.name.Dest)
			route := NewFabricatedRoute(number, "98", partner, bound, bi.name, slices.Clone(sequence))
			route.FakeRoute = true
			c.RouteList[key] = route
			if _, ok := joint[number]; ok {
				merged, err := engine.Merge(route)
				if err != nil {
					return fmt.Errorf("merge fabricated %s: %w", key, err)
				}
				if !merged {
					delete(c.RouteList, key)
					continue
				}
			}
			added++
		}
	}

	s.adoptCircularBounds(c, partner)

	if s.Logger != nil {
		s.Logger.Info("orphan_live_routes_added", slog.Int("count", added))
	}
	return nil
}

type circularInfo struct {
	bound  string
	length int
	origs  []string
	dests  []string
}

func (s *OrphanStopsStage) adoptCircularBounds(c *models.Catalog, partner models.Operator) {
	resolver := NewStopResolver(c)
	classifier := NewBoundClassifier(c, s.Logger)
	classifier.Operator = partner
	hasFake := make(map[string]struct{})
	circular := make(map[string]*circularInfo)
	keysByNumber := make(map[string][]string)

	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		bound, hasBound := r.Bound[partner]
		stops := r.Stops[partner]
		if !hasBound || len(stops) == 0 {
			continue
		}
		if r.FakeRoute {
			hasFake[r.Route] = struct{}{}
		}
		if len(bound) > 1 {
			ci := circular[r.Route]
			if ci == nil {
				ci = &circularInfo{bound: bound, length: len(stops)}
				circular[r.Route] = ci
			}
			ci.length = min(ci.length, len(stops))
			if !slices.Contains(ci.origs, stops[0]) {
				ci.origs = append(ci.origs, stops[0])
			}
			if !slices.Contains(ci.dests, stops[len(stops)-1]) {
				ci.dests = append(ci.dests, stops[len(stops)-1])
			}
		}
		keysByNumber[r.Route] = append(keysByNumber[r.Route], key)
	}

	near := func(id string, candidates []string) bool {
		for _, other := range candidates {
			if d, ok := resolver.Distance(id, other); ok && d < EndpointProximityKm {
				return true
			}
		}
		return false
	}

	numbers := make([]string, 0, len(keysByNumber))
	for number := range keysByNumber {
		numbers = append(numbers, number)
	}
	slices.Sort(numbers)

	for _, number := range numbers {
		keys := keysByNumber[number]
		ci, ok := circular[number]
		if _, fake := hasFake[number]; !fake || !ok {
			continue
		}
		for _, key := range keys {
			r := c.RouteList[key]
			if !r.FakeRoute || len(r.Bound[partner]) > 1 {
				continue
			}
			stops := r.Stops[partner]
			if len(stops) >= ci.length || (near(stops[0], ci.origs) && near(stops[len(stops)-1], ci.dests)) {
				classifier.setBound(key, r, ci.bound, "adopt_circular_bound",
					slog.Int("stops", len(stops)),
					slog.Int("shortest_circular_stops", ci.length))
			} else {
				r.CtbIsCircular = true
			}
		}
	}
}
