package main

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecatalog.transit.hk/internal/models"
)

func sampleFile() *models.CatalogFile {
	c := models.NewCatalog()
	c.RouteList["1+1+Chuk Yuen Estate+Star Ferry"] = &models.Route{
		Route:       "1",
		ServiceType: "1",
		Bound:       map[models.Operator]string{models.KMB: "O"},
		Co:          []models.Operator{models.KMB},
		Orig:        models.BilingualText{En: "Chuk Yuen Estate", Zh: "竹園邨"},
		Dest:        models.BilingualText{En: "Star Ferry", Zh: "尖沙咀碼頭"},
		Stops:       map[models.Operator][]string{models.KMB: {"A1"}},
		Fares:       []string{"6.8"},
	}
	c.StopList["A1"] = &models.Stop{Name: models.BilingualText{En: "Mong Kok <Argyle St>", Zh: "旺角"}}
	return &models.CatalogFile{
		BusRoute:        []string{"1"},
		CtbEtaStops:     models.LiveSequences{},
		DataSheet:       c,
		KmbSubsidiary:   map[string][]string{"LWB": {}, "SUNB": {}},
		MtrBusStopAlias: map[string][]string{},
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestWriteOutputs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	now := time.UnixMilli(1700000000123)

	written, err := writeOutputs(dir, "", sampleFile(), now)
	require.NoError(t, err)
	require.Len(t, written, 6)
	assert.Equal(t, filepath.Join(dir, "data_full.json"), written[0])

	full := readFile(t, filepath.Join(dir, "data_full.json"))
	assert.Contains(t, full, `"fares":["6.8"]`)
	assert.Contains(t, full, "尖沙咀碼頭", "non-ASCII text is not escaped")
	assert.Contains(t, full, "Mong Kok <Argyle St>", "HTML characters are not escaped")
	assert.NotContains(t, full, "\n")

	data := readFile(t, filepath.Join(dir, "data.json"))
	assert.NotContains(t, data, `"fares"`)
	assert.NotContains(t, data, `"faresHoliday"`)

	formatted := readFile(t, filepath.Join(dir, "data_formatted.json"))
	assert.True(t, strings.HasPrefix(formatted, "{\n    \"busRoute\""), formatted[:40])
	assert.NotContains(t, formatted, `"fares"`)
	assert.Contains(t, readFile(t, filepath.Join(dir, "data_full_formatted.json")), "\n    \"dataSheet\"")

	sum := md5.Sum([]byte(data))
	assert.Equal(t, hex.EncodeToString(sum[:]), readFile(t, filepath.Join(dir, "checksum.md5")))
	assert.Equal(t, "1700000000123", readFile(t, filepath.Join(dir, "last_updated.txt")))

	var decoded models.CatalogFile
	require.NoError(t, json.Unmarshal([]byte(full), &decoded))
	assert.Equal(t, []string{"6.8"}, decoded.DataSheet.RouteList["1+1+Chuk Yuen Estate+Star Ferry"].Fares)
}

func TestWriteOutputsExperimentalPrefix(t *testing.T) {
	dir := t.TempDir()
	written, err := writeOutputs(dir, "experimental_", sampleFile(), time.Now())
	require.NoError(t, err)

	for _, path := range written {
		assert.True(t, strings.HasPrefix(filepath.Base(path), "experimental_"), path)
	}
	_, err = os.Stat(filepath.Join(dir, "data.json"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "experimental_checksum.md5"))
	assert.NoError(t, err)
}

func TestWriteOutputsBadDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := writeOutputs(filepath.Join(blocker, "out"), "", sampleFile(), time.Now())
	assert.ErrorContains(t, err, "create output dir")
}
