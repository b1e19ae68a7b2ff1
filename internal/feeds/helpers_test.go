package feeds

import (
	"archive/zip"
	"bytes"
	"log/slog"

	"routecatalog.transit.hk/internal/logging"
)

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logging.NewStructuredLogger(&buf, slog.LevelDebug), &buf
}

// buildZip writes a GTFS archive. Every file the parser looks for is present
// with at least its header row.
func buildZip(files map[string]string) []byte {
	all := map[string]string{
		"agency.txt":     "agency_id,agency_name,agency_url,agency_timezone",
		"routes.txt":     "route_id,route_type",
		"stops.txt":      "stop_id",
		"transfers.txt":  "from_stop_id,to_stop_id",
		"trips.txt":      "route_id,service_id,trip_id",
		"stop_times.txt": "stop_id,trip_id,stop_sequence",
	}
	for name, content := range files {
		all[name] = content
	}

	var b bytes.Buffer
	w := zip.NewWriter(&b)
	for name, content := range all {
		f, err := w.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			panic(err)
		}
	}
	if err := w.Close(); err != nil {
		panic(err)
	}
	return b.Bytes()
}
