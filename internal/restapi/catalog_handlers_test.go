package restapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecatalog.transit.hk/internal/app"
)

func TestStatsHandler(t *testing.T) {
	resp, model := serveAndRetrieveEndpoint(t, "/api/catalog/stats")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusOK, model.Code)
	assert.Equal(t, "OK", model.Text)
	assert.Equal(t, 2, model.Version)

	entry, ok := dataMap(t, model)["entry"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 2, entry["routes"])
	assert.EqualValues(t, 2, entry["routeNumbers"])
	assert.EqualValues(t, 4, entry["stops"])
	assert.EqualValues(t, 2, entry["stopAliases"])
	assert.EqualValues(t, 2, entry["busRoutes"])
	assert.EqualValues(t, 1, entry["liveSequenceRoutes"])
	assert.Equal(t, map[string]interface{}{"LWB": float64(0), "SUNB": float64(0)}, entry["subsidiaries"])
}

func TestRoutesHandler(t *testing.T) {
	t.Run("known route", func(t *testing.T) {
		resp, model := serveAndRetrieveEndpoint(t, "/api/catalog/routes/969")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		data := dataMap(t, model)
		assert.Equal(t, false, data["limitExceeded"])
		list, ok := data["list"].([]interface{})
		require.True(t, ok)
		require.Len(t, list, 1)

		entry := list[0].(map[string]interface{})
		assert.Equal(t, "969+1+Tin Shui Wai+Causeway Bay", entry["key"])
		assert.Equal(t, "bidirectional-distinct-ends", entry["boundState"])
		route := entry["route"].(map[string]interface{})
		assert.Equal(t, "969", route["route"])
		assert.Equal(t, map[string]interface{}{"O": []interface{}{"001001", "001002"}}, entry["liveStops"])
	})

	t.Run("route without live data", func(t *testing.T) {
		_, model := serveAndRetrieveEndpoint(t, "/api/catalog/routes/1.json")
		list := dataMap(t, model)["list"].([]interface{})
		require.Len(t, list, 1)
		entry := list[0].(map[string]interface{})
		assert.Equal(t, "unidirectional", entry["boundState"])
		assert.NotContains(t, entry, "liveStops")
	})

	t.Run("unknown route", func(t *testing.T) {
		resp, model := serveAndRetrieveEndpoint(t, "/api/catalog/routes/999X")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, http.StatusNotFound, model.Code)
		assert.Equal(t, "resource not found", model.Text)
	})

	t.Run("invalid route number", func(t *testing.T) {
		resp, model := serveAndRetrieveEndpoint(t, "/api/catalog/routes/bad$id")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		fieldErrors := dataMap(t, model)["fieldErrors"].(map[string]interface{})
		assert.Contains(t, fieldErrors, "number")
	})
}

func TestStopHandler(t *testing.T) {
	t.Run("known stop", func(t *testing.T) {
		resp, model := serveAndRetrieveEndpoint(t, "/api/catalog/stops/KMB01")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		entry := dataMap(t, model)["entry"].(map[string]interface{})
		assert.Equal(t, "KMB01", entry["id"])
		assert.Equal(t, []interface{}{[]interface{}{"ctb", "001001"}}, entry["aliases"])
		assert.Equal(t, []interface{}{"1+1+Chuk Yuen Estate+Star Ferry"}, entry["routes"])
		stop := entry["stop"].(map[string]interface{})
		assert.Equal(t, map[string]interface{}{"lat": 22.3, "lng": 114.17}, stop["location"])
	})

	t.Run("stop without aliases", func(t *testing.T) {
		_, model := serveAndRetrieveEndpoint(t, "/api/catalog/stops/KMB02")
		entry := dataMap(t, model)["entry"].(map[string]interface{})
		assert.Equal(t, []interface{}{}, entry["aliases"])
	})

	t.Run("unknown stop", func(t *testing.T) {
		resp, _ := serveAndRetrieveEndpoint(t, "/api/catalog/stops/NOPE")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid stop id", func(t *testing.T) {
		resp, model := serveAndRetrieveEndpoint(t, "/api/catalog/stops/a%20b")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, http.StatusBadRequest, model.Code)
	})
}

func TestCurrentTimeHandler(t *testing.T) {
	before := time.Now().UnixMilli()
	resp, model := serveAndRetrieveEndpoint(t, "/api/catalog/current-time")
	after := time.Now().UnixMilli()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	entry := dataMap(t, model)["entry"].(map[string]interface{})
	ts := int64(entry["time"].(float64))
	assert.GreaterOrEqual(t, ts, before)
	assert.LessOrEqual(t, ts, after)
	_, err := time.Parse(time.RFC3339, entry["readableTime"].(string))
	assert.NoError(t, err)
	assert.Len(t, entry["serviceDate"], 8)
}

func TestUnknownPath(t *testing.T) {
	resp, model := serveAndRetrieveEndpoint(t, "/api/catalog/nothing-here")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, model.Code)
}

func TestAPIKeyValidation(t *testing.T) {
	api, _ := createTestApi(t, app.Config{APIKeys: []string{"TEST"}})

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/catalog/stats")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "permission denied", model.Text)

	resp, _ = serveApiAndRetrieveEndpoint(t, api, "/api/catalog/stats?key=TEST")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
