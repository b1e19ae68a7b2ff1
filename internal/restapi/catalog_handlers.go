package restapi

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"routecatalog.transit.hk/internal/catalog"
	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
	"routecatalog.transit.hk/internal/utils"
)

type statsEntry struct {
	models.CatalogStats
	BusRoutes          int            `json:"busRoutes"`
	LiveSequenceRoutes int            `json:"liveSequenceRoutes"`
	MTRBusStopAliases  int            `json:"mtrBusStopAliases"`
	Subsidiaries       map[string]int `json:"subsidiaries"`
}

type routeEntry struct {
	Key        string              `json:"key"`
	BoundState catalog.BoundState  `json:"boundState"`
	Route      *models.Route       `json:"route"`
	LiveStops  map[string][]string `json:"liveStops,omitempty"`
}

type stopEntry struct {
	ID      string                `json:"id"`
	Stop    *models.Stop          `json:"stop"`
	Aliases []models.StopMapEntry `json:"aliases"`
	Routes  []string              `json:"routes"`
}

func (api *RestAPI) statsHandler(w http.ResponseWriter, r *http.Request) {
	file := api.Catalog
	entry := statsEntry{
		CatalogStats:       file.DataSheet.Stats(),
		BusRoutes:          len(file.BusRoute),
		LiveSequenceRoutes: len(file.CtbEtaStops),
		MTRBusStopAliases:  len(file.MtrBusStopAlias),
		Subsidiaries:       make(map[string]int, len(file.KmbSubsidiary)),
	}
	for name, routes := range file.KmbSubsidiary {
		entry.Subsidiaries[name] = len(routes)
	}
	api.sendResponse(w, r, models.NewEntryResponse(entry))
}

func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	number := utils.PathParam(r, "number")
	if err := utils.ValidateID(number); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"number": {err.Error()}})
		return
	}

	c := api.Catalog.DataSheet
	keys := c.RoutesByNumber(number)
	if len(keys) == 0 {
		api.sendNotFound(w, r)
		return
	}

	live := api.Catalog.CtbEtaStops[number]
	entries := make([]routeEntry, 0, len(keys))
	for _, key := range keys {
		route := c.RouteList[key]
		entry := routeEntry{
			Key:        key,
			BoundState: api.Bounds.State(route),
			Route:      route,
		}
		if route.ServesOperator(models.CTB) && len(live) > 0 {
			entry.LiveStops = live
		}
		entries = append(entries, entry)
	}
	api.sendResponse(w, r, models.NewListResponse(entries))
}

func (api *RestAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.PathParam(r, "id")
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	c := api.Catalog.DataSheet
	stop, ok := c.StopList[id]
	if !ok || stop == nil {
		logging.FromContext(r.Context()).Debug("stop not found", slog.String("stop_id", id))
		api.sendNotFound(w, r)
		return
	}

	entry := stopEntry{
		ID:      id,
		Stop:    stop,
		Aliases: c.StopMap[id],
		Routes:  []string{},
	}
	if entry.Aliases == nil {
		entry.Aliases = []models.StopMapEntry{}
	}
	for _, key := range c.SortedRouteKeys() {
		for _, stops := range c.RouteList[key].Stops {
			if slices.Contains(stops, id) {
				entry.Routes = append(entry.Routes, key)
				break
			}
		}
	}
	api.sendResponse(w, r, models.NewEntryResponse(entry))
}

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	api.sendResponse(w, r, models.NewEntryResponse(models.NewServerTime(time.Now())))
}
