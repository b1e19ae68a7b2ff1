package restapi

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"routecatalog.transit.hk/internal/app"
	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

func testCatalogFile() *models.CatalogFile {
	c := models.NewCatalog()
	stops := map[string]models.Location{
		"KMB01":  {Lat: 22.3000, Lng: 114.1700},
		"KMB02":  {Lat: 22.3200, Lng: 114.1700},
		"001001": {Lat: 22.3001, Lng: 114.1701},
		"001002": {Lat: 22.3300, Lng: 114.1900},
	}
	for id, loc := range stops {
		c.StopList[id] = &models.Stop{Location: loc, Name: models.BilingualText{En: id, Zh: id}}
	}
	c.StopMap.AddPair(models.KMB, "KMB01", models.CTB, "001001")

	c.RouteList["1+1+Chuk Yuen Estate+Star Ferry"] = &models.Route{
		Route:       "1",
		ServiceType: "1",
		Bound:       map[models.Operator]string{models.KMB: "O"},
		Co:          []models.Operator{models.KMB},
		Orig:        models.BilingualText{En: "Chuk Yuen Estate", Zh: "竹園邨"},
		Dest:        models.BilingualText{En: "Star Ferry", Zh: "尖沙咀碼頭"},
		Stops:       map[models.Operator][]string{models.KMB: {"KMB01", "KMB02"}},
	}
	c.RouteList["969+1+Tin Shui Wai+Causeway Bay"] = &models.Route{
		Route:       "969",
		ServiceType: "1",
		Bound:       map[models.Operator]string{models.CTB: "OI"},
		Co:          []models.Operator{models.CTB},
		Orig:        models.BilingualText{En: "Tin Shui Wai", Zh: "天水圍"},
		Dest:        models.BilingualText{En: "Causeway Bay", Zh: "銅鑼灣"},
		Stops:       map[models.Operator][]string{models.CTB: {"001001", "001002"}},
	}

	return &models.CatalogFile{
		BusRoute:        []string{"1", "969"},
		CtbEtaStops:     models.LiveSequences{"969": {"O": {"001001", "001002"}}},
		DataSheet:       c,
		KmbSubsidiary:   map[string][]string{"LWB": {}, "SUNB": {}},
		MtrBusStopAlias: map[string][]string{},
	}
}

// createTestApi builds a RestAPI over a small in-memory catalog.
func createTestApi(t *testing.T, cfg app.Config) (*RestAPI, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, slog.LevelDebug)
	api := NewRestAPI(app.New(cfg, logger, testCatalogFile()))
	t.Cleanup(api.Shutdown)
	return api, &buf
}

// serveApiAndRetrieveEndpoint serves the full middleware chain, requests
// endpoint and decodes the response envelope.
func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()
	handler, err := api.Handler()
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var response models.ResponseModel
	require.NoError(t, json.Unmarshal(body, &response), string(body))
	return resp, response
}

func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*http.Response, models.ResponseModel) {
	api, _ := createTestApi(t, app.Config{})
	return serveApiAndRetrieveEndpoint(t, api, endpoint)
}

func dataMap(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object, got %T", model.Data)
	return data
}
