package catalog

import (
	"context"
	"log/slog"
	"slices"

	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

// BackfillStage gives every stop id referenced by a route but absent from the
// stop list a pending placeholder record, and drops stop map entries that
// point at those ids since their aliases cannot be trusted.
type BackfillStage struct {
	Logger *slog.Logger
}

func (s *BackfillStage) Name() string { return "backfill_stops" }

func (s *BackfillStage) Run(ctx context.Context, c *models.Catalog) error {
	missing := make(map[string]struct{})
	for _, key := range c.SortedRouteKeys() {
		r := c.RouteList[key]
		ops := make([]models.Operator, 0, len(r.Stops))
		for op := range r.Stops {
			ops = append(ops, op)
		}
		slices.Sort(ops)
		for _, op := range ops {
			for _, id := range r.Stops[op] {
				if _, ok := c.StopList[id]; ok {
					continue
				}
				c.StopList[id] = NewPendingStop()
				missing[id] = struct{}{}
				logging.LogWarning(s.Logger, "stop_backfilled",
					slog.String("route_key", key),
					slog.String("operator", string(op)),
					slog.String("stop_id", id))
			}
		}
	}

	removed := c.StopMap.Prune(missing)
	if s.Logger != nil && len(missing) > 0 {
		s.Logger.Info("backfill_summary",
			slog.Int("stops_backfilled", len(missing)),
			slog.Int("aliases_removed", removed))
	}
	return nil
}
