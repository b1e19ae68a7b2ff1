package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

const sampleCatalogFile = `{
  "busRoute": ["1"],
  "ctbEtaStops": {},
  "dataSheet": {
    "routeList": {
      "1+1+Chuk Yuen Estate+Star Ferry": {
        "route": "1", "serviceType": "1", "bound": {"kmb": "O"}, "co": ["kmb"],
        "orig": {"en": "Chuk Yuen Estate", "zh": "竹園邨"},
        "dest": {"en": "Star Ferry", "zh": "尖沙咀碼頭"},
        "stops": {"kmb": ["A1", "A2"]},
        "fares": null, "faresHoliday": null, "freq": null, "gtfsId": null, "nlbId": null
      }
    },
    "stopList": {
      "A1": {"location": {"lat": 22.34, "lng": 114.19}, "name": {"en": "Chuk Yuen", "zh": "竹園"}}
    },
    "stopMap": {"A1": [["ctb", "001001"]]}
  },
  "kmbSubsidiary": {"LWB": [], "SUNB": []},
  "mtrBusStopAlias": {}
}`

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "data_full.json")
		require.NoError(t, os.WriteFile(path, []byte(sampleCatalogFile), 0o644))

		file, err := LoadCatalog(path)
		require.NoError(t, err)
		require.NotNil(t, file.DataSheet)
		assert.Equal(t, []string{"1"}, file.BusRoute)
		assert.Len(t, file.DataSheet.RouteList, 1)
		assert.Equal(t, "竹園", file.DataSheet.StopList["A1"].Name.Zh)
		assert.Equal(t, "001001", file.DataSheet.StopMap["A1"][0].StopID)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})

	t.Run("missing data sheet", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"busRoute": []}`), 0o644))
		_, err := LoadCatalog(path)
		assert.ErrorContains(t, err, "no dataSheet")
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"dataSheet":`), 0o644))
		_, err := LoadCatalog(path)
		assert.ErrorContains(t, err, "error decoding catalog file")
	})
}

func TestNewFillsEmptyCatalog(t *testing.T) {
	logger := logging.NewStructuredLogger(io.Discard, slog.LevelInfo)
	a := New(Config{Port: 4000}, logger, &models.CatalogFile{})
	require.NotNil(t, a.Catalog.DataSheet)
	assert.NotNil(t, a.Bounds)
	assert.False(t, a.AuthEnabled())
}
