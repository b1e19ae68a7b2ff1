package catalog

import (
	"context"
	"log/slog"

	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
	"routecatalog.transit.hk/internal/utils"
)

// PruneStage removes records that cannot be served and the aliases left
// pointing nowhere.
//
// A record is dropped when none of its bound operators is a known operator,
// when its primary operator's sequence is empty, or when a stop of that
// sequence has invalid coordinates. Synthesized stops no longer referenced by
// any record are deleted. Afterwards no stop map entry references a stop
// missing from the stop list.
type PruneStage struct {
	Logger *slog.Logger
}

func (s *PruneStage) Name() string { return "prune" }

func (s *PruneStage) Run(ctx context.Context, c *models.Catalog) error {
	dropped := 0
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		reason := s.invalidReason(c, r)
		if reason == "" {
			continue
		}
		delete(c.RouteList, key)
		dropped++
		logging.LogWarning(s.Logger, "route_pruned", slog.String("route_key", key), slog.String("reason", reason))
	}

	referenced := make(map[string]struct{})
	for _, r := range c.RouteList {
		for _, stops := range r.Stops {
			for _, id := range stops {
				referenced[id] = struct{}{}
			}
		}
	}
	removed := make(map[string]struct{})
	for id := range c.StopList {
		if _, ok := referenced[id]; !ok && IsSyntheticStopID(id) {
			delete(c.StopList, id)
			removed[id] = struct{}{}
		}
	}
	for _, id := range c.StopMap.Dangling(c.StopList) {
		removed[id] = struct{}{}
	}
	aliases := c.StopMap.Prune(removed)

	if s.Logger != nil {
		s.Logger.Info("prune_summary",
			slog.Int("routes_dropped", dropped),
			slog.Int("stops_removed", len(removed)),
			slog.Int("aliases_removed", aliases))
	}
	return nil
}

func (s *PruneStage) invalidReason(c *models.Catalog, r *models.Route) string {
	op, ok := r.PrimaryOperator()
	if !ok {
		return "no_known_operator"
	}
	stops := r.Stops[op]
	if len(stops) == 0 {
		return "empty_stop_sequence"
	}
	for _, id := range stops {
		loc, ok := c.Location(id)
		if !ok {
			continue
		}
		if err := utils.ValidateCoordinate(loc.Lat, loc.Lng); err != nil {
			return "invalid_coordinate"
		}
	}
	return ""
}
