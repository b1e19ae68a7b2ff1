package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecatalog.transit.hk/internal/models"
)

func TestInLongWinArea(t *testing.T) {
	tests := []struct {
		name string
		loc  models.Location
		want bool
	}{
		{"tung chung", models.Location{Lat: 22.289, Lng: 113.94}, true},
		{"airport", models.Location{Lat: 22.3080, Lng: 113.9185}, true},
		{"mong kok", models.Location{Lat: 22.3193, Lng: 114.1694}, false},
		{"shenzhen", models.Location{Lat: 22.54, Lng: 114.05}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InLongWinArea(tt.loc))
		})
	}
}

func TestSubsidiaryStage(t *testing.T) {
	c := newTestCatalog()
	addStop(c, "TC", 22.289, 113.94)
	addStop(c, "MK", 22.3193, 114.1694)

	c.RouteList["331+1"] = newRoute("331", "1", models.KMB, "O", "MK", "TC")
	c.RouteList["A33X+1"] = newRoute("A33X", "1", models.KMB, "O", "MK", "MK")
	c.RouteList["E31+1"] = newRoute("E31", "1", models.KMB, "O", "MK", "TC")
	c.RouteList["E31+2"] = newRoute("E31", "2", models.KMB, "I", "TC", "MK")
	c.RouteList["PB1+1"] = newRoute("PB1", "1", models.KMB, "O", "TC", "MK")
	c.RouteList["1+1"] = newRoute("1", "1", models.KMB, "O", "MK", "MK")
	c.RouteList["E11+1"] = newRoute("E11", "1", models.CTB, "O", "TC", "MK")

	stage := &SubsidiaryStage{LongWinRoutes: map[string]struct{}{"A33X": {}}}
	require.NoError(t, stage.Run(context.Background(), c))

	assert.Equal(t, map[string][]string{
		SubsidiaryLongWin: {"A33X", "E31"},
		SubsidiarySunBus:  {"331"},
	}, stage.Result)
}
