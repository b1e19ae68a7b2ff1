package catalog

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

// Reference stops are laid out about 1.1 km apart along a meridian; partner
// stops sit about 11 m north of their reference counterpart.
const (
	baseLat      = 22.30
	baseLng      = 114.17
	stopSpacing  = 0.01
	partnerShift = 0.0001
)

func newTestCatalog() *models.Catalog {
	return models.NewCatalog()
}

func addStop(c *models.Catalog, id string, lat, lng float64) {
	c.StopList[id] = &models.Stop{
		Location: models.Location{Lat: lat, Lng: lng},
		Name:     models.BilingualText{En: id, Zh: id},
	}
}

// addLine adds n reference stops and n partner stops for a numbered line,
// returning both id lists. Partner ids are six digits like CTB stop ids.
func addLine(c *models.Catalog, line int, n int) (ref []string, partner []string) {
	for i := 0; i < n; i++ {
		kid := fmt.Sprintf("K%02dS%02d", line, i)
		cid := fmt.Sprintf("%02d%04d", line, i)
		lat := baseLat + float64(i)*stopSpacing
		addStop(c, kid, lat, baseLng+float64(line)*0.1)
		addStop(c, cid, lat+partnerShift, baseLng+float64(line)*0.1)
		ref = append(ref, kid)
		partner = append(partner, cid)
	}
	return ref, partner
}

func newRoute(number, serviceType string, op models.Operator, bound string, stops ...string) *models.Route {
	return &models.Route{
		Route:       number,
		ServiceType: serviceType,
		Bound:       map[models.Operator]string{op: bound},
		Co:          []models.Operator{op},
		Orig:        models.BilingualText{En: "ORIGIN", Zh: "起點"},
		Dest:        models.BilingualText{En: "DESTINATION", Zh: "終點"},
		Stops:       map[models.Operator][]string{op: stops},
	}
}

func testLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return logging.NewStructuredLogger(&buf, slog.LevelDebug), &buf
}
