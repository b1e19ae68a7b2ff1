package catalog

import (
	"log/slog"
	"sort"

	"routecatalog.transit.hk/internal/models"
)

// MergeEngine joins a partner operator's record onto the reference operator's
// stop-by-stop sequence for the same route number, producing one joint record.
type MergeEngine struct {
	Reference models.Operator
	Partner   models.Operator

	catalog  *models.Catalog
	resolver *StopResolver
	factory  *Factory
	logger   *slog.Logger
}

// NewMergeEngine returns an engine that aligns CTB records onto KMB sequences.
func NewMergeEngine(c *models.Catalog, logger *slog.Logger) *MergeEngine {
	return &MergeEngine{
		Reference: models.KMB,
		Partner:   models.CTB,
		catalog:   c,
		resolver:  NewStopResolver(c),
		factory:   NewFactory(c),
		logger:    logger,
	}
}

// Candidate is a reference record considered for one merge decision.
type Candidate struct {
	Key        string
	Route      *models.Route
	FirstMatch bool
	LastMatch  bool
}

// Accepted reports whether both terminals of the candidate were matched.
func (c Candidate) Accepted() bool {
	return c.FirstMatch && c.LastMatch
}

// Candidates returns every reference record of the same route number, ordered
// by reference stop count descending, then by whether it already carries
// partner stops, then by key.
func (e *MergeEngine) Candidates(route *models.Route) []Candidate {
	partnerStops := route.Stops[e.Partner]
	head := headWindow(partnerStops)
	tail := tailWindow(partnerStops)

	var out []Candidate
	for _, key := range e.catalog.RoutesByNumber(route.Route) {
		cand := e.catalog.RouteList[key]
		if cand == route {
			continue
		}
		if _, ok := cand.Bound[e.Reference]; !ok {
			continue
		}
		ref := cand.Stops[e.Reference]
		if len(ref) == 0 {
			continue
		}
		out = append(out, Candidate{
			Key:        key,
			Route:      cand,
			FirstMatch: e.anyMatches(head, ref[0]),
			LastMatch:  e.anyMatches(tail, ref[len(ref)-1]),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		li, lj := len(out[i].Route.Stops[e.Reference]), len(out[j].Route.Stops[e.Reference])
		if li != lj {
			return li > lj
		}
		pi, pj := len(out[i].Route.Stops[e.Partner]) > 0, len(out[j].Route.Stops[e.Partner]) > 0
		if pi != pj {
			return pi
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Merge aligns route's partner sequence onto the best matching reference
// record. On success route gains the reference operator, its aligned
// sequence and the joint flags, and every alias discovered is written back to
// the stop map. It returns false, leaving the catalog untouched, when no
// candidate matches or the alignment does not cover the reference sequence.
// The only error is ErrIDSpaceExhausted.
func (e *MergeEngine) Merge(route *models.Route) (bool, error) {
	partnerStops := route.Stops[e.Partner]
	if len(partnerStops) == 0 {
		return false, nil
	}

	candidates := e.Candidates(route)
	chosen := -1
	for i, c := range candidates {
		if c.Accepted() {
			chosen = i
			break
		}
	}
	if chosen < 0 {
		return false, nil
	}
	match := candidates[chosen]
	hints := e.hints(candidates, chosen)

	ref := match.Route.Stops[e.Reference]
	refPartner := match.Route.Stops[e.Partner]

	cursor := 0
	generated := make([]string, 0, len(partnerStops))
	var aliases [][2]string
	minted := make(map[string]string)
	newStops := make(map[string]*models.Stop)

	for i, partnerID := range partnerStops {
		nextID, hasNext := at(partnerStops, i+1)
		refID, hasRef := at(ref, cursor)

		matches, distance := false, 0.0
		if hasRef && !excluded(refPartner, cursor, partnerID) {
			matches, distance = e.resolver.Matches(partnerID, refID)
		}

		aligned, offset := refID, 0
		if !matches && hasRef {
			for probe := 1; probe <= ProbeDepth; probe++ {
				probeID, ok := at(ref, cursor+probe)
				if !ok || excluded(refPartner, cursor+probe, partnerID) {
					continue
				}
				ok, d := e.resolver.Matches(partnerID, probeID)
				if ok && d < TightProbeKm && (!hasNext || d < e.distance(nextID, refID)) {
					aligned, offset = probeID, probe
					break
				}
			}
		}

		if offset > 0 || (matches && (!hasNext || distance < e.distance(nextID, refID))) {
			generated = append(generated, aligned)
			cursor += offset + 1
			continue
		}

		id, ok := hints[partnerID]
		if !ok {
			if id, ok = minted[partnerID]; !ok {
				var err error
				id, err = e.factory.SyntheticStopID(partnerID)
				if err != nil {
					return false, err
				}
				if _, exists := e.catalog.StopList[id]; !exists {
					stop, known := e.factory.CopyStop(partnerID, e.Partner)
					if !known {
						return false, nil
					}
					newStops[id] = stop
				}
				minted[partnerID] = id
			}
		}
		generated = append(generated, id)
		aliases = append(aliases, [2]string{partnerID, id})
	}

	if cursor < len(ref)-1 {
		return false, nil
	}

	route.Stops[e.Reference] = generated
	route.FakeRoute = true
	route.KmbCtbJoint = true
	route.AddOperator(e.Reference)
	if _, ok := route.Bound[e.Reference]; !ok {
		route.Bound[e.Reference] = match.Route.Bound[e.Reference]
	}
	for _, pair := range aliases {
		e.catalog.StopMap.AddPair(e.Partner, pair[0], e.Reference, pair[1])
	}
	for id, stop := range newStops {
		e.catalog.StopList[id] = stop
	}

	if e.logger != nil {
		e.logger.Debug("route_merged",
			slog.String("route", route.Route),
			slog.String("reference_key", match.Key),
			slog.Int("synthesized_stops", len(newStops)),
			slog.Int("aliases", len(aliases)))
	}
	return true, nil
}

// hints maps partner stops to reference stops using records that already
// carry both sequences. The chosen candidate overrides the others.
func (e *MergeEngine) hints(candidates []Candidate, chosen int) map[string]string {
	out := make(map[string]string)
	for i, c := range candidates {
		ref := c.Route.Stops[e.Reference]
		partner := c.Route.Stops[e.Partner]
		for j := 0; j < len(ref) && j < len(partner); j++ {
			if IsSyntheticStopID(ref[j]) {
				continue
			}
			if _, seen := out[partner[j]]; !seen || i == chosen {
				out[partner[j]] = ref[j]
			}
		}
	}
	return out
}

func (e *MergeEngine) anyMatches(window []string, target string) bool {
	for _, id := range window {
		if ok, _ := e.resolver.Matches(id, target); ok {
			return true
		}
	}
	return false
}

func (e *MergeEngine) distance(a, b string) float64 {
	_, d := e.resolver.Matches(a, b)
	return d
}

// headWindow is the first EndWindow stops, never including the last stop.
func headWindow(stops []string) []string {
	return stops[:max(0, min(EndWindow, len(stops)-1))]
}

// tailWindow is the last EndWindow stops, never including the first stop.
func tailWindow(stops []string) []string {
	if len(stops) < 2 {
		return nil
	}
	return stops[max(1, len(stops)-EndWindow):]
}

func at(s []string, i int) (string, bool) {
	if i < 0 || i >= len(s) {
		return "", false
	}
	return s[i], true
}

// excluded reports whether the reference record already pairs position i
// with a different partner stop.
func excluded(refPartner []string, i int, partnerID string) bool {
	actual, ok := at(refPartner, i)
	return ok && actual != partnerID
}
