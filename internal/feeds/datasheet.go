package feeds

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"routecatalog.transit.hk/internal/models"
)

// DecodeDataSheet reads the route and fare data sheet. Fields the catalog
// does not carry, such as per-record sequence numbers, are dropped.
func DecodeDataSheet(body []byte) (*models.Catalog, error) {
	c := models.NewCatalog()
	if err := json.Unmarshal(body, c); err != nil {
		return nil, fmt.Errorf("decode data sheet: %w", err)
	}
	if c.RouteList == nil {
		c.RouteList = make(map[string]*models.Route)
	}
	if c.StopList == nil {
		c.StopList = make(map[string]*models.Stop)
	}
	if c.StopMap == nil {
		c.StopMap = models.StopMap{}
	}
	for key, r := range c.RouteList {
		if r == nil {
			delete(c.RouteList, key)
			continue
		}
		if r.Bound == nil {
			r.Bound = make(map[models.Operator]string)
		}
		if r.Stops == nil {
			r.Stops = make(map[models.Operator][]string)
		}
	}
	for id, s := range c.StopList {
		if s == nil {
			delete(c.StopList, id)
		}
	}
	return c, nil
}

// FetchDataSheet downloads and decodes the data sheet.
func (c *Client) FetchDataSheet(ctx context.Context, source string) (*models.Catalog, error) {
	body, err := c.Get(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("fetch data sheet: %w", err)
	}
	return DecodeDataSheet(body)
}
