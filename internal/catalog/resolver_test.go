package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"routecatalog.transit.hk/internal/models"
)

func TestStopResolverMatches(t *testing.T) {
	c := newTestCatalog()
	addStop(c, "X", 22.2800, 114.1700)
	addStop(c, "Y", 22.2810, 114.1695)
	addStop(c, "FAR", 22.3000, 114.1700)
	addStop(c, "ALIASED", 22.4000, 114.3000)
	c.StopMap.Add("ALIASED", models.KMB, "X")
	r := NewStopResolver(c)

	tests := []struct {
		name      string
		a, b      string
		wantMatch bool
		wantDist  float64
		tolerance float64
	}{
		{name: "nearby stops without alias", a: "X", b: "Y", wantMatch: true, wantDist: 0.12, tolerance: 0.02},
		{name: "stops over threshold", a: "X", b: "FAR", wantMatch: false, wantDist: 2.22, tolerance: 0.05},
		{name: "alias wins over distance", a: "ALIASED", b: "X", wantMatch: true, wantDist: 0, tolerance: 0},
		{name: "alias in reverse direction", a: "X", b: "ALIASED", wantMatch: true, wantDist: 0, tolerance: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, d := r.Matches(tt.a, tt.b)
			assert.Equal(t, tt.wantMatch, ok)
			assert.InDelta(t, tt.wantDist, d, tt.tolerance)
		})
	}
}

func TestStopResolverUnknownStops(t *testing.T) {
	c := newTestCatalog()
	addStop(c, "X", 22.28, 114.17)
	r := NewStopResolver(c)

	ok, d := r.Matches("X", "missing")
	assert.False(t, ok)
	assert.True(t, math.IsInf(d, 1))

	ok, _ = r.Matches("missing", "other")
	assert.False(t, ok)

	c.StopMap.AddPair(models.CTB, "missing", models.KMB, "X")
	ok, d = r.Matches("missing", "X")
	assert.True(t, ok, "an alias matches even when one side has no record")
	assert.Equal(t, 0.0, d)
}

func TestStopResolverSeesNewAliases(t *testing.T) {
	c := newTestCatalog()
	addStop(c, "A", 22.28, 114.17)
	addStop(c, "B", 22.38, 114.17)
	r := NewStopResolver(c)

	ok, _ := r.Matches("A", "B")
	assert.False(t, ok)

	c.StopMap.AddPair(models.CTB, "A", models.KMB, "B")
	ok, _ = r.Matches("A", "B")
	assert.True(t, ok)
}

func TestSequencesMatch(t *testing.T) {
	c := newTestCatalog()
	ref, partner := addLine(c, 1, 4)
	r := NewStopResolver(c)

	assert.True(t, r.SequencesMatch(partner, ref))
	assert.False(t, r.SequencesMatch(partner[:3], ref))
	assert.False(t, r.SequencesMatch([]string{partner[1], partner[0], partner[2], partner[3]}, ref))
}

func TestContains(t *testing.T) {
	big := []string{"a", "b", "c", "d"}

	assert.True(t, Contains([]string{"b", "c"}, big))
	assert.True(t, Contains([]string{"a", "b", "c", "d"}, big))
	assert.True(t, Contains(nil, big))
	assert.False(t, Contains([]string{"b", "d"}, big))
	assert.False(t, Contains([]string{"c", "d", "e"}, big))
}
