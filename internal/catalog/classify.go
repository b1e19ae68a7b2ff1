package catalog

import (
	"context"
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

// BoundState is the circularity classification of a single record.
type BoundState string

const (
	Unidirectional            BoundState = "unidirectional"
	BidirectionalDistinctEnds BoundState = "bidirectional-distinct-ends"
	Circular                  BoundState = "circular"
	CircularCollapsed         BoundState = "circular-collapsed-to-bidirectional"
)

// CombinedBound marks a record that covers both directions.
const CombinedBound = "OI"

const (
	circularMarkerZh = "循環線"
	circularMarkerEn = "Circular"
)

var (
	circularSuffixZh = regexp.MustCompile(` *\(?循環線\)?$`)
	circularSuffixEn = regexp.MustCompile(` *\(?Circular\)?$`)
)

func hasCircularSuffix(dest models.BilingualText) bool {
	return strings.Contains(dest.Zh, circularMarkerZh)
}

func addCircularSuffix(dest *models.BilingualText) {
	if !hasCircularSuffix(*dest) {
		dest.Zh += " (" + circularMarkerZh + ")"
		dest.En += " (" + circularMarkerEn + ")"
	}
}

func stripCircularSuffix(dest *models.BilingualText) {
	dest.Zh = circularSuffixZh.ReplaceAllString(dest.Zh, "")
	dest.En = circularSuffixEn.ReplaceAllString(dest.En, "")
}

// BoundClassifier decides whether partner operator records are directional or
// circular. Every change to an operator-declared bound is logged.
type BoundClassifier struct {
	Operator models.Operator

	catalog  *models.Catalog
	resolver *StopResolver
	logger   *slog.Logger
}

func NewBoundClassifier(c *models.Catalog, logger *slog.Logger) *BoundClassifier {
	return &BoundClassifier{
		Operator: models.CTB,
		catalog:  c,
		resolver: NewStopResolver(c),
		logger:   logger,
	}
}

// State reports the current classification of a record.
func (b *BoundClassifier) State(r *models.Route) BoundState {
	bound := r.Bound[b.Operator]
	if len(bound) > 1 {
		stops := r.Stops[b.Operator]
		if len(stops) > 1 && stops[0] != stops[len(stops)-1] {
			if d, ok := b.resolver.Distance(stops[0], stops[len(stops)-1]); ok && d > GeneralMatchKm {
				return BidirectionalDistinctEnds
			}
		}
		return Circular
	}
	if r.CtbIsCircular && hasCircularSuffix(r.Dest) {
		return CircularCollapsed
	}
	return Unidirectional
}

func (b *BoundClassifier) setBound(key string, r *models.Route, bound string, reason string, attrs ...slog.Attr) {
	old := r.Bound[b.Operator]
	if old == bound {
		return
	}
	r.Bound[b.Operator] = bound
	all := append([]slog.Attr{
		slog.String("route_key", key),
		slog.String("old_bound", old),
		slog.String("new_bound", bound),
		slog.String("reason", reason),
	}, attrs...)
	logging.LogOperation(b.logger, "bound_reclassified", all...)
}

// eligible reports whether the geometric pass applies to r.
func (b *BoundClassifier) eligible(r *models.Route) bool {
	if _, ok := r.Bound[models.KMB]; ok {
		return false
	}
	_, ok := r.Bound[b.Operator]
	return ok
}

type circularTally struct {
	minCircular int
	minSingle   int
	refs        [][]string
}

func serviceTypeRank(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return math.MaxInt
	}
	return n
}

// ClassifyGeometry applies the declared-bound rules. A record declaring both
// directions whose terminals are more than GeneralMatchKm apart is split to
// its terminal direction. Then, per route number, whichever of the circular
// and single-direction records has the lowest service type decides whether
// the number is circular: if single, circular records are cut to their first
// direction; if circular, single-direction records contained in a circular
// record are tagged CtbIsCircular and the rest are widened to both directions.
func (b *BoundClassifier) ClassifyGeometry() {
	c := b.catalog
	tallies := make(map[string]*circularTally)
	keys := c.SortedRouteKeys()

	for _, key := range keys {
		r := c.RouteList[key]
		if !b.eligible(r) {
			continue
		}
		t := tallies[r.Route]
		if t == nil {
			t = &circularTally{minCircular: math.MaxInt, minSingle: math.MaxInt}
			tallies[r.Route] = t
		}
		rank := serviceTypeRank(r.ServiceType)
		bound := r.Bound[b.Operator]
		if len(bound) <= 1 {
			t.minSingle = min(t.minSingle, rank)
			continue
		}
		if stops := r.Stops[b.Operator]; len(stops) > 0 {
			t.refs = append(t.refs, stops)
			first, last := stops[0], stops[len(stops)-1]
			if first != last {
				if d, ok := b.resolver.Distance(first, last); ok && d > GeneralMatchKm {
					r.Dest.Zh = strings.TrimSpace(strings.ReplaceAll(r.Dest.Zh, "("+circularMarkerZh+")", ""))
					r.Dest.En = strings.TrimSpace(strings.ReplaceAll(r.Dest.En, "("+circularMarkerEn+")", ""))
					b.setBound(key, r, bound[len(bound)-1:], "terminals_apart", slog.Float64("terminal_distance_km", d))
					continue
				}
			}
		}
		t.minCircular = min(t.minCircular, rank)
	}

	for _, key := range keys {
		r := c.RouteList[key]
		if !b.eligible(r) {
			continue
		}
		t := tallies[r.Route]
		if t == nil || (t.minCircular == math.MaxInt && t.minSingle == math.MaxInt) {
			continue
		}
		bound := r.Bound[b.Operator]
		switch {
		case t.minSingle < t.minCircular:
			if len(bound) >= 2 {
				b.setBound(key, r, bound[:1], "single_direction_service_dominates")
			}
		case len(bound) < 2:
			stops := r.Stops[b.Operator]
			contained := false
			for _, ref := range t.refs {
				if Contains(stops, ref) {
					contained = true
					break
				}
			}
			if contained {
				r.CtbIsCircular = true
			} else {
				b.setBound(key, r, CombinedBound, "circular_service_dominates")
			}
		default:
			b.setBound(key, r, CombinedBound, "circular_service_dominates")
			addCircularSuffix(&r.Dest)
		}
	}
}

func membership(stops []string, set map[string]struct{}) int {
	n := 0
	for _, id := range stops {
		if _, ok := set[id]; ok {
			n++
		}
	}
	return n
}

func toSet(ids ...[]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, list := range ids {
		for _, id := range list {
			set[id] = struct{}{}
		}
	}
	return set
}

// ClassifyLive cross-checks records against authoritative per-direction stop
// sequences. Route numbers without live data are left as they are.
//
// A directional record is flipped when more of its stops belong to the
// opposite direction. A circular record (combined bound or CtbIsCircular)
// with distinct terminals stays circular only if the outbound, inbound and
// union membership fractions all exceed CircularFraction; otherwise it is cut
// to the direction with more members and tagged CtbIsCircular.
func (b *BoundClassifier) ClassifyLive(live models.LiveSequences) {
	c := b.catalog
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		stops := r.Stops[b.Operator]
		bound, hasBound := r.Bound[b.Operator]
		if len(stops) == 0 || !hasBound || bound == "" || !live.Has(r.Route) {
			continue
		}

		if !r.CtbIsCircular && len(bound) == 1 {
			reverse := "O"
			if bound == "O" {
				reverse = "I"
			}
			right := membership(stops, toSet(live.Get(r.Route, bound)))
			wrong := membership(stops, toSet(live.Get(r.Route, reverse)))
			if wrong > right {
				b.setBound(key, r, reverse, "live_direction_mismatch",
					slog.Int("matched_declared", right),
					slog.Int("matched_reverse", wrong))
			}
			continue
		}

		if stops[0] == stops[len(stops)-1] {
			continue
		}
		outbound := toSet(live.Get(r.Route, "O"))
		inbound := toSet(live.Get(r.Route, "I"))
		if len(outbound) == 0 || len(inbound) == 0 {
			continue
		}
		union := toSet(live.Get(r.Route, "O"), live.Get(r.Route, "I"))

		outCount := membership(stops, outbound)
		inCount := membership(stops, inbound)
		unionCount := membership(stops, union)
		outFraction := float64(outCount) / float64(len(outbound))
		inFraction := float64(inCount) / float64(len(inbound))
		unionFraction := float64(unionCount) / float64(len(union))

		if unionFraction > CircularFraction && outFraction > CircularFraction && inFraction > CircularFraction {
			if len(bound) == 1 {
				r.CtbIsCircular = false
				addCircularSuffix(&r.Dest)
				b.setBound(key, r, CombinedBound, "live_covers_both_directions",
					slog.Float64("union_fraction", unionFraction),
					slog.Float64("outbound_fraction", outFraction),
					slog.Float64("inbound_fraction", inFraction))
			}
			continue
		}

		direction := "I"
		if outCount > inCount {
			direction = "O"
		}
		r.CtbIsCircular = true
		stripCircularSuffix(&r.Dest)
		b.setBound(key, r, direction, "live_split_circular",
			slog.Int("matched_outbound", outCount),
			slog.Int("matched_inbound", inCount))
	}
}

// CollapseCircular is the experimental display mode: circular records of
// route numbers with live data in both directions are shown as outbound
// records that keep their circular suffix. Other records of those route
// numbers lose their circular tag, and those without a timetable are marked
// fabricated.
func (b *BoundClassifier) CollapseCircular(live models.LiveSequences) {
	c := b.catalog
	keys := c.SortedRouteKeys()
	collapsed := make(map[string]struct{})
	numbers := make(map[string]struct{})

	for _, key := range keys {
		r := c.RouteList[key]
		if !r.ServesOperator(b.Operator) || len(r.Bound[b.Operator]) <= 1 {
			continue
		}
		if len(live.Get(r.Route, "O")) == 0 || len(live.Get(r.Route, "I")) == 0 {
			continue
		}
		addCircularSuffix(&r.Dest)
		r.CtbIsCircular = true
		b.setBound(key, r, "O", "experimental_circular_collapse")
		collapsed[key] = struct{}{}
		numbers[r.Route] = struct{}{}
	}

	for _, key := range keys {
		r := c.RouteList[key]
		if _, ok := numbers[r.Route]; !ok || !r.ServesOperator(b.Operator) {
			continue
		}
		if _, ok := collapsed[key]; ok || !r.CtbIsCircular {
			continue
		}
		r.CtbIsCircular = false
		if !r.HasFreq() {
			r.FakeRoute = true
		}
	}
}

// ClassifyStage runs the geometric pass, then the live pass when live
// sequences are available, then the experimental collapse when enabled.
//
// Preconditions: merge is complete, so partner sequences are final.
type ClassifyStage struct {
	Live         models.LiveSequences
	Experimental bool
	Logger       *slog.Logger
}

func (s *ClassifyStage) Name() string { return "classify_bounds" }

func (s *ClassifyStage) Run(ctx context.Context, c *models.Catalog) error {
	classifier := NewBoundClassifier(c, s.Logger)
	classifier.ClassifyGeometry()
	if len(s.Live) > 0 {
		classifier.ClassifyLive(s.Live)
		if s.Experimental {
			classifier.CollapseCircular(s.Live)
		}
	}
	return nil
}
