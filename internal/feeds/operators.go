package feeds

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"routecatalog.transit.hk/internal/models"
)

// RouteListSource is one operator's published route list.
type RouteListSource struct {
	Operator models.Operator
	URL      string
	Decode   func(body []byte, op models.Operator) (models.RouteIndex, error)
}

type etaRouteList struct {
	Data []struct {
		Route  string `json:"route"`
		OrigEn string `json:"orig_en"`
		OrigTc string `json:"orig_tc"`
		DestEn string `json:"dest_en"`
		DestTc string `json:"dest_tc"`
	} `json:"data"`
}

// DecodeETARouteList reads the KMB and CTB route list format.
func DecodeETARouteList(body []byte, op models.Operator) (models.RouteIndex, error) {
	var list etaRouteList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode %s route list: %w", op, err)
	}
	index := models.RouteIndex{}
	for _, r := range list.Data {
		if r.Route == "" {
			continue
		}
		index.Register(r.Route, op, models.RouteName{
			Orig: models.BilingualText{En: r.OrigEn, Zh: r.OrigTc},
			Dest: models.BilingualText{En: r.DestEn, Zh: r.DestTc},
		})
	}
	return index, nil
}

type nlbRouteList struct {
	Routes []struct {
		RouteNo     string `json:"routeNo"`
		RouteID     string `json:"routeId"`
		RouteNameZh string `json:"routeName_c"`
		RouteNameEn string `json:"routeName_e"`
	} `json:"routes"`
}

// DecodeNLBRouteList reads the NLB route list. Names are published as
// "origin > destination"; the first entry of a route number wins.
func DecodeNLBRouteList(body []byte, op models.Operator) (models.RouteIndex, error) {
	var list nlbRouteList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode %s route list: %w", op, err)
	}
	index := models.RouteIndex{}
	for _, r := range list.Routes {
		if r.RouteNo == "" {
			continue
		}
		if _, seen := index[r.RouteNo][op]; seen {
			continue
		}
		origZh, destZh := splitRouteName(r.RouteNameZh)
		origEn, destEn := splitRouteName(r.RouteNameEn)
		index.Register(r.RouteNo, op, models.RouteName{
			Orig: models.BilingualText{En: origEn, Zh: origZh},
			Dest: models.BilingualText{En: destEn, Zh: destZh},
		})
	}
	return index, nil
}

func splitRouteName(name string) (string, string) {
	orig, dest, _ := strings.Cut(name, ">")
	return strings.TrimSpace(orig), strings.TrimSpace(dest)
}

type gmbRouteList struct {
	Data struct {
		Routes map[string][]string `json:"routes"`
	} `json:"data"`
}

var unknownPlace = models.BilingualText{En: "Unknown Place", Zh: "未知地點"}

// DecodeGMBRouteList reads the minibus route list, which publishes route
// numbers per region without terminal names.
func DecodeGMBRouteList(body []byte, op models.Operator) (models.RouteIndex, error) {
	var list gmbRouteList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode %s route list: %w", op, err)
	}
	index := models.RouteIndex{}
	for _, numbers := range list.Data.Routes {
		for _, number := range numbers {
			index.Register(number, op, models.RouteName{Orig: unknownPlace, Dest: unknownPlace})
		}
	}
	return index, nil
}

// DefaultRouteListSources pairs each operator with its decoder.
func DefaultRouteListSources(kmbURL, ctbURL, nlbURL, gmbURL string) []RouteListSource {
	return []RouteListSource{
		{Operator: models.KMB, URL: kmbURL, Decode: DecodeETARouteList},
		{Operator: models.CTB, URL: ctbURL, Decode: DecodeETARouteList},
		{Operator: models.NLB, URL: nlbURL, Decode: DecodeNLBRouteList},
		{Operator: models.GMB, URL: gmbURL, Decode: DecodeGMBRouteList},
	}
}

// FetchRouteIndex downloads every route list with at most workers requests in
// flight and merges them in source order. Sources with an empty URL are
// skipped.
func (c *Client) FetchRouteIndex(ctx context.Context, sources []RouteListSource, workers int) (models.RouteIndex, error) {
	parts := make([]models.RouteIndex, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, src := range sources {
		i, src := i, src
		if src.URL == "" {
			continue
		}
		g.Go(func() error {
			body, err := c.Get(ctx, src.URL)
			if err != nil {
				return fmt.Errorf("fetch %s route list: %w", src.Operator, err)
			}
			part, err := src.Decode(body, src.Operator)
			if err != nil {
				return err
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := models.RouteIndex{}
	for _, part := range parts {
		for number, ops := range part {
			for op, name := range ops {
				index.Register(number, op, name)
			}
		}
	}
	return index, nil
}
