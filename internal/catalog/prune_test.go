package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecatalog.transit.hk/internal/models"
)

func TestPruneStage(t *testing.T) {
	c := newTestCatalog()
	ref, partner := addLine(c, 1, 3)
	addStop(c, "BAD", 95, 114.2)

	kept := "ZZAAAAAAAA010001"
	orphan := "ZZBBBBBBBB010002"
	addStop(c, kept, 22.31, 114.27)
	addStop(c, orphan, 22.32, 114.27)
	c.StopMap.AddPair(models.CTB, partner[1], models.KMB, kept)
	c.StopMap.AddPair(models.CTB, partner[2], models.KMB, orphan)
	c.StopMap.AddPair(models.CTB, partner[0], models.KMB, "GHOST")

	c.RouteList["1+1+valid"] = newRoute("1", "1", models.KMB, "O", ref[0], kept, ref[2])
	c.RouteList["T1+1+unknown"] = newRoute("T1", "1", "tram", "O", ref...)
	c.RouteList["2+1+empty"] = newRoute("2", "1", models.KMB, "O")
	c.RouteList["3+1+bad"] = newRoute("3", "1", models.CTB, "O", partner[0], "BAD")

	noPrimary := newRoute("4", "1", models.NLB, "O", ref...)
	noPrimary.Bound = map[models.Operator]string{models.KMB: "O"}
	c.RouteList["4+1+noPrimary"] = noPrimary

	logger, buf := testLogger(t)
	require.NoError(t, (&PruneStage{Logger: logger}).Run(context.Background(), c))

	assert.Contains(t, c.RouteList, "1+1+valid")
	assert.NotContains(t, c.RouteList, "T1+1+unknown")
	assert.NotContains(t, c.RouteList, "2+1+empty")
	assert.NotContains(t, c.RouteList, "3+1+bad")
	assert.NotContains(t, c.RouteList, "4+1+noPrimary", "the primary operator's sequence is checked")

	assert.Contains(t, c.StopList, kept)
	assert.NotContains(t, c.StopList, orphan)
	assert.Contains(t, c.StopList, "BAD", "only synthesized stops are deleted")

	assert.True(t, c.StopMap.Links(partner[1], kept))
	assert.False(t, c.StopMap.Links(partner[2], orphan))
	assert.False(t, c.StopMap.Links(partner[0], "GHOST"))
	assert.Empty(t, c.StopMap.Dangling(c.StopList))

	for _, reason := range []string{"no_known_operator", "empty_stop_sequence", "invalid_coordinate"} {
		assert.Contains(t, buf.String(), `"reason":"`+reason+`"`)
	}
	assert.Contains(t, buf.String(), `"routes_dropped":4`)
}
