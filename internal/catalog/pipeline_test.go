package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routecatalog.transit.hk/internal/models"
)

type recordingStage struct {
	name string
	log  *[]string
	err  error
	hook func()
}

func (s *recordingStage) Name() string { return s.name }

func (s *recordingStage) Run(ctx context.Context, c *models.Catalog) error {
	*s.log = append(*s.log, s.name)
	if s.hook != nil {
		s.hook()
	}
	return s.err
}

func TestAssemblerRunsStagesInOrder(t *testing.T) {
	var ran []string
	logger, buf := testLogger(t)
	a := NewAssembler(logger,
		&recordingStage{name: "first", log: &ran},
		&recordingStage{name: "second", log: &ran},
		&recordingStage{name: "third", log: &ran},
	)

	require.NoError(t, a.Run(context.Background(), newTestCatalog()))

	assert.Equal(t, []string{"first", "second", "third"}, ran)
	assert.Equal(t, ran, a.Stages())
	assert.Contains(t, buf.String(), `"msg":"stage_completed"`)
	assert.Contains(t, buf.String(), `"stage":"third"`)
}

func TestAssemblerStopsOnError(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	a := NewAssembler(nil,
		&recordingStage{name: "first", log: &ran, err: boom},
		&recordingStage{name: "second", log: &ran},
	)

	err := a.Run(context.Background(), newTestCatalog())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "stage first")
	assert.Equal(t, []string{"first"}, ran)
}

func TestAssemblerHonoursCancellation(t *testing.T) {
	var ran []string
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a := NewAssembler(nil,
		&recordingStage{name: "first", log: &ran, hook: cancel},
		&recordingStage{name: "second", log: &ran},
	)

	err := a.Run(ctx, newTestCatalog())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"first"}, ran)
}

func TestBuild(t *testing.T) {
	c := newTestCatalog()
	ref, partner := addLine(c, 1, 6)
	addStop(c, "TC", 22.289, 113.94)

	joint := newRoute("69X", "1", models.KMB, "O", ref...)
	joint.Co = append(joint.Co, models.CTB)
	joint.Freq = []byte(`{"31":{"0600":null}}`)
	c.RouteList["69X+1+A+B"] = joint
	c.RouteList["69X+1+A+B+ctb"] = newRoute("69X", "1", models.CTB, "O", partner...)
	c.RouteList["E31+1+A+B"] = newRoute("E31", "1", models.KMB, "O", "TC", "UNLISTED")
	c.RouteList["T1+1+A+B"] = newRoute("T1", "1", "tram", "O", ref...)

	name := models.RouteName{
		Orig: models.BilingualText{En: "A", Zh: "甲"},
		Dest: models.BilingualText{En: "B", Zh: "乙"},
	}
	index := models.RouteIndex{}
	index.Register("69X", models.KMB, name)
	index.Register("69X", models.CTB, name)
	index.Register("E31", models.KMB, name)
	index.Register("N8", models.NLB, name)

	live := models.LiveSequences{}
	live.Set("69X", "O", partner)

	logger, _ := testLogger(t)
	result, err := Build(context.Background(), c, Options{
		Index:  index,
		Live:   live,
		Logger: logger,
	})
	require.NoError(t, err)
	require.Same(t, c, result.Catalog)

	assert.NotContains(t, c.RouteList, "69X+1+A+B+ctb", "equal length sequences are joined")
	assert.True(t, joint.KmbCtbJoint)
	assert.Equal(t, partner, joint.Stops[models.CTB])
	assert.Equal(t, []models.Operator{models.KMB, models.CTB}, joint.Co)

	assert.Contains(t, c.RouteList, "N8+99+A+B")
	assert.NotContains(t, c.RouteList, "T1+1+A+B")
	assert.Equal(t, "Stop Details TBD", c.StopList["UNLISTED"].Name.En)
	assert.Empty(t, c.StopMap.Dangling(c.StopList))

	for key, r := range c.RouteList {
		op, ok := r.PrimaryOperator()
		require.True(t, ok, key)
		assert.NotEmpty(t, r.Stops[op], key)
	}

	assert.Equal(t, []string{"E31"}, result.Subsidiaries[SubsidiaryLongWin])
	assert.Equal(t, []string{"69X", "E31", "N8"}, result.BusRoutes)
	assert.Equal(t, partner, result.EtaStops.Get("69X", "O"))
	assert.Empty(t, result.MTRBusStopAlias)
}

func TestEtaStops(t *testing.T) {
	c := newTestCatalog()
	c.RouteList["E11+1"] = newRoute("E11", "1", models.CTB, "O", "001000")
	c.RouteList["1+1"] = newRoute("1", "1", models.KMB, "O", "K")
	live := models.LiveSequences{}
	live.Set("E11", "O", []string{"001000"})
	live.Set("E11", "I", []string{"001001"})
	live.Set("1", "O", []string{"001002"})

	got := EtaStops(c, live)

	assert.Equal(t, models.LiveSequences{"E11": {"O": {"001000"}, "I": {"001001"}}}, got)
}
