package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

// StopSequenceSource answers the authoritative stop sequence of a route
// number in one direction ("O" or "I").
type StopSequenceSource interface {
	StopSequence(ctx context.Context, number, bound string) ([]string, error)
}

// CTBRouteStops reads the Citybus route-stop endpoint. URLTemplate contains
// the placeholders {route} and {direction}; direction is "outbound" or
// "inbound".
type CTBRouteStops struct {
	Client      *Client
	URLTemplate string
}

type routeStopResponse struct {
	Data []struct {
		Stop string `json:"stop"`
		Seq  int    `json:"seq"`
	} `json:"data"`
}

func (s *CTBRouteStops) StopSequence(ctx context.Context, number, bound string) ([]string, error) {
	direction := "outbound"
	if bound == "I" {
		direction = "inbound"
	}
	url := strings.NewReplacer("{route}", number, "{direction}", direction).Replace(s.URLTemplate)

	var resp routeStopResponse
	if err := s.Client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	sort.SliceStable(resp.Data, func(i, j int) bool { return resp.Data[i].Seq < resp.Data[j].Seq })
	stops := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		stops = append(stops, d.Stop)
	}
	return stops, nil
}

// SequenceRequest names one route number and direction to look up.
type SequenceRequest struct {
	Route string
	Bound string
}

// CTBSequenceRequests asks for both directions of every route number with a
// record that Citybus serves, binds or lists stops for. Both directions are
// always needed: the live pass compares a record against the opposite
// direction too.
func CTBSequenceRequests(c *models.Catalog) []SequenceRequest {
	numbers := make(map[string]struct{})
	for _, r := range c.RouteList {
		if r.InvolvesOperator(models.CTB) {
			numbers[r.Route] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(numbers))
	for n := range numbers {
		sorted = append(sorted, n)
	}
	slices.Sort(sorted)

	out := make([]SequenceRequest, 0, 2*len(sorted))
	for _, n := range sorted {
		out = append(out, SequenceRequest{Route: n, Bound: "O"}, SequenceRequest{Route: n, Bound: "I"})
	}
	return out
}

// Prefetcher collects live sequences before reconciliation starts. Lookups run
// with at most Workers in flight and are paced by Limiter.
type Prefetcher struct {
	Source  StopSequenceSource
	Workers int
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// Prefetch looks up every request. A failed or empty lookup is logged and
// left out of the result, so the route is treated as having no live data.
// Only context cancellation fails the whole prefetch.
func (p *Prefetcher) Prefetch(ctx context.Context, requests []SequenceRequest) (models.LiveSequences, error) {
	results := make([][]string, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, p.Workers))
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			if p.Limiter != nil {
				if err := p.Limiter.Wait(gctx); err != nil {
					return err
				}
			}
			stops, err := p.Source.StopSequence(gctx, req.Route, req.Bound)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logging.LogWarning(p.Logger, "live_sequence_unavailable",
					slog.String("route", req.Route),
					slog.String("bound", req.Bound),
					slog.String("error", err.Error()))
				return nil
			}
			results[i] = stops
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("prefetch live sequences: %w", err)
	}

	live := models.LiveSequences{}
	for i, req := range requests {
		if len(results[i]) > 0 {
			live.Set(req.Route, req.Bound, results[i])
		}
	}
	if p.Logger != nil {
		p.Logger.Info("live_sequences_prefetched",
			slog.Int("requested", len(requests)),
			slog.Int("routes", len(live)))
	}
	return live, nil
}
