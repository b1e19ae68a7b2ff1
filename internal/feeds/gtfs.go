package feeds

import (
	"context"
	"fmt"
	"strings"

	"github.com/jamespfennell/gtfs"
)

// LongWinAgency is the headway feed agency id fragment of Long Win Bus.
// Jointly run routes list several agencies in one id, e.g. "KMB+LWB".
const LongWinAgency = "LWB"

// ParseHeadwayRoutes returns the short names of every route in the headway
// GTFS archive whose agency id contains agency.
func ParseHeadwayRoutes(b []byte, agency string) (map[string]struct{}, error) {
	static, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	routes := make(map[string]struct{})
	for _, route := range static.Routes {
		if route.Agency == nil || route.ShortName == "" {
			continue
		}
		if strings.Contains(route.Agency.Id, agency) {
			routes[route.ShortName] = struct{}{}
		}
	}
	return routes, nil
}

// FetchLongWinRoutes downloads the headway GTFS archive and lists the Long
// Win route numbers.
func (c *Client) FetchLongWinRoutes(ctx context.Context, source string) (map[string]struct{}, error) {
	b, err := c.Get(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("fetch headway GTFS: %w", err)
	}
	return ParseHeadwayRoutes(b, LongWinAgency)
}
