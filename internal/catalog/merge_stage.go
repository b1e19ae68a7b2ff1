package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"routecatalog.transit.hk/internal/models"
)

// JoinStage folds a partner-only record into a reference-only record of the
// same route number when both sequences have the same length and match stop
// by stop. The partner record is removed.
type JoinStage struct {
	Logger *slog.Logger
}

func (s *JoinStage) Name() string { return "equal_length_join" }

func (s *JoinStage) Run(ctx context.Context, c *models.Catalog) error {
	resolver := NewStopResolver(c)
	kmbOnly := make(map[string][]string)
	ctbOnly := make(map[string][]string)
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		_, kmb := r.Bound[models.KMB]
		_, ctb := r.Bound[models.CTB]
		switch {
		case kmb && !ctb:
			kmbOnly[r.Route] = append(kmbOnly[r.Route], key)
		case ctb && !kmb:
			ctbOnly[r.Route] = append(ctbOnly[r.Route], key)
		}
	}

	removed := make(map[string]struct{})
	for _, number := range c.RouteNumbers() {
		partners, ok := ctbOnly[number]
		if !ok {
			continue
		}
		for _, kmbKey := range kmbOnly[number] {
			kmbRoute := c.RouteList[kmbKey]
			kmbStops := kmbRoute.Stops[models.KMB]
			if len(kmbStops) == 0 {
				continue
			}
			for _, ctbKey := range partners {
				if _, gone := removed[ctbKey]; gone {
					continue
				}
				ctbRoute := c.RouteList[ctbKey]
				if !resolver.SequencesMatch(ctbRoute.Stops[models.CTB], kmbStops) {
					continue
				}
				removed[ctbKey] = struct{}{}
				kmbRoute.Bound[models.CTB] = ctbRoute.Bound[models.CTB]
				kmbRoute.AddOperator(models.CTB)
				kmbRoute.Stops[models.CTB] = ctbRoute.Stops[models.CTB]
				fillNulls(kmbRoute, ctbRoute)
				if s.Logger != nil {
					s.Logger.Debug("routes_joined",
						slog.String("reference_key", kmbKey),
						slog.String("partner_key", ctbKey))
				}
			}
		}
	}
	for key := range removed {
		delete(c.RouteList, key)
	}
	return nil
}

// fillNulls copies carried-through fields that dst lacks from src.
func fillNulls(dst, src *models.Route) {
	if dst.Fares == nil {
		dst.Fares = src.Fares
	}
	if dst.FaresHoliday == nil {
		dst.FaresHoliday = src.FaresHoliday
	}
	if !dst.HasFreq() {
		dst.Freq = src.Freq
	}
	if dst.GtfsID == nil {
		dst.GtfsID = src.GtfsID
	}
	if dst.JT == nil {
		dst.JT = src.JT
	}
	if dst.NlbID == nil {
		dst.NlbID = src.NlbID
	}
}

// MergeStage runs the merge engine over every route number jointly operated
// by the reference and partner operators.
//
// Preconditions: JoinStage has run. Postconditions: reference records of
// joint route numbers are flagged KmbCtbJoint; partner-only records of joint
// route numbers are either merged into joint records or, when the merge
// fails, donate missing fields to a pairwise matching reference record and
// stay in the catalog as independent, unjoined records.
type MergeStage struct {
	Logger *slog.Logger
}

func (s *MergeStage) Name() string { return "merge" }

func (s *MergeStage) Run(ctx context.Context, c *models.Catalog) error {
	engine := NewMergeEngine(c, s.Logger)
	resolver := NewStopResolver(c)

	joint := make(map[string][]*models.Route)
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		if _, ok := r.Bound[engine.Reference]; ok && r.ServesOperator(engine.Partner) {
			r.KmbCtbJoint = true
			joint[r.Route] = append(joint[r.Route], r)
		}
	}
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		if _, ok := r.Bound[engine.Reference]; !ok || r.KmbCtbJoint {
			continue
		}
		if _, ok := joint[r.Route]; ok {
			r.KmbCtbJoint = true
			joint[r.Route] = append(joint[r.Route], r)
		}
	}

	var failed []string
	merged := 0
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		_, hasPartner := r.Bound[engine.Partner]
		_, hasReference := r.Bound[engine.Reference]
		refs, isJoint := joint[r.Route]
		if !hasPartner || hasReference || !isJoint {
			continue
		}
		for _, ref := range refs {
			if ref.ServiceType != r.ServiceType {
				continue
			}
			if !ref.HasFreq() && r.HasFreq() {
				ref.Freq = r.Freq
			}
			if ref.Fares == nil && r.Fares != nil {
				ref.Fares = r.Fares
			}
		}
		ok, err := engine.Merge(r)
		if err != nil {
			return fmt.Errorf("merge %s: %w", key, err)
		}
		if ok {
			merged++
		} else {
			failed = append(failed, key)
		}
	}

	for _, key := range failed {
		r := c.RouteList[key]
		if partnerStops := r.Stops[engine.Partner]; len(partnerStops) > 0 {
			for _, ref := range joint[r.Route] {
				if resolver.SequencesMatch(partnerStops, ref.Stops[engine.Reference]) {
					fillNulls(ref, r)
					break
				}
			}
		}
	}

	if s.Logger != nil {
		s.Logger.Info("merge_summary",
			slog.Int("joint_route_numbers", len(joint)),
			slog.Int("merged", merged),
			slog.Int("unresolved", len(failed)))
	}
	return nil
}
