package feeds

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

// Sources lists where each input is fetched from. Empty URLs disable the
// corresponding input, except DataSheetURL which is required.
type Sources struct {
	DataSheetURL    string
	RouteLists      []RouteListSource
	CTBRouteStopURL string
	HeadwayGTFSURL  string
}

// GatherOptions bound the fan-out.
type GatherOptions struct {
	Workers           int
	RequestsPerSecond float64
	Logger            *slog.Logger
}

// Inputs is everything reconciliation reads besides constants.
type Inputs struct {
	Catalog       *models.Catalog
	Index         models.RouteIndex
	LongWinRoutes map[string]struct{}
	Live          models.LiveSequences
}

// Gather fetches the data sheet, the route lists and the headway feed
// concurrently, then prefetches live sequences for the data sheet's Citybus
// records. It returns only once every result is collected. A failed headway
// feed is logged and leaves LongWinRoutes empty.
func (c *Client) Gather(ctx context.Context, src Sources, opts GatherOptions) (*Inputs, error) {
	in := &Inputs{LongWinRoutes: map[string]struct{}{}, Live: models.LiveSequences{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		catalog, err := c.FetchDataSheet(gctx, src.DataSheetURL)
		if err != nil {
			return err
		}
		in.Catalog = catalog
		return nil
	})
	g.Go(func() error {
		index, err := c.FetchRouteIndex(gctx, src.RouteLists, opts.Workers)
		if err != nil {
			return err
		}
		in.Index = index
		return nil
	})
	if src.HeadwayGTFSURL != "" {
		g.Go(func() error {
			routes, err := c.FetchLongWinRoutes(gctx, src.HeadwayGTFSURL)
			if err != nil {
				logging.LogError(opts.Logger, "headway feed unavailable", err)
				return nil
			}
			in.LongWinRoutes = routes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if src.CTBRouteStopURL != "" {
		var limiter *rate.Limiter
		if opts.RequestsPerSecond > 0 {
			limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), max(1, int(opts.RequestsPerSecond)))
		}
		p := &Prefetcher{
			Source:  &CTBRouteStops{Client: c, URLTemplate: src.CTBRouteStopURL},
			Workers: opts.Workers,
			Limiter: limiter,
			Logger:  opts.Logger,
		}
		live, err := p.Prefetch(ctx, CTBSequenceRequests(in.Catalog))
		if err != nil {
			return nil, err
		}
		in.Live = live
	}

	if opts.Logger != nil {
		stats := in.Catalog.Stats()
		opts.Logger.Info("inputs_gathered",
			slog.Int("routes", stats.Routes),
			slog.Int("stops", stats.Stops),
			slog.Int("indexed_route_numbers", len(in.Index)),
			slog.Int("long_win_routes", len(in.LongWinRoutes)),
			slog.Int("live_route_numbers", len(in.Live)))
	}
	return in, nil
}
