package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

// Stage is one pass over the catalog. Stages run strictly in order and each
// may rely on the postconditions of the stages before it.
type Stage interface {
	Name() string
	Run(ctx context.Context, c *models.Catalog) error
}

// Assembler runs stages sequentially over a catalog it owns for the duration
// of Run.
type Assembler struct {
	stages []Stage
	logger *slog.Logger
}

func NewAssembler(logger *slog.Logger, stages ...Stage) *Assembler {
	return &Assembler{stages: stages, logger: logger}
}

// Stages returns the stage names in run order.
func (a *Assembler) Stages() []string {
	names := make([]string, len(a.stages))
	for i, s := range a.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes every stage. A cancelled context stops the run between stages;
// the catalog is then partially reconciled and should be discarded.
func (a *Assembler) Run(ctx context.Context, c *models.Catalog) error {
	for _, stage := range a.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before stage %s: %w", stage.Name(), err)
		}
		if a.logger != nil {
			a.logger.Debug("stage_started", slog.String("stage", stage.Name()))
		}
		start := time.Now()
		if err := stage.Run(ctx, c); err != nil {
			logging.LogError(a.logger, "stage failed", err, slog.String("stage", stage.Name()))
			return fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		stats := c.Stats()
		logging.LogStage(a.logger, stage.Name(), time.Since(start),
			slog.Int("routes", stats.Routes),
			slog.Int("stops", stats.Stops),
			slog.Int("stop_aliases", stats.StopAliases))
	}
	return nil
}

// Options are the inputs gathered before reconciliation starts.
type Options struct {
	// Index lists every route number each operator publishes. Normalize
	// extends it with data sheet operators.
	Index models.RouteIndex

	// Live holds authoritative partner stop sequences. Empty disables the
	// live classification and orphan stop passes.
	Live models.LiveSequences

	LongWinRoutes map[string]struct{}
	Experimental  bool
	Logger        *slog.Logger
}

// Result is the finished catalog plus the listings derived from it.
type Result struct {
	Catalog         *models.Catalog
	MTRBusStopAlias map[string][]string
	Subsidiaries    map[string][]string
	EtaStops        models.LiveSequences
	BusRoutes       []string
}

// Build reconciles c in place.
func Build(ctx context.Context, c *models.Catalog, opts Options) (*Result, error) {
	if opts.Index == nil {
		opts.Index = models.RouteIndex{}
	}
	normalize := &NormalizeStage{Index: opts.Index, Logger: opts.Logger}
	subsidiaries := &SubsidiaryStage{LongWinRoutes: opts.LongWinRoutes}

	assembler := NewAssembler(opts.Logger,
		normalize,
		&JoinStage{Logger: opts.Logger},
		&MergeStage{Logger: opts.Logger},
		&ClassifyStage{Live: opts.Live, Experimental: opts.Experimental, Logger: opts.Logger},
		&MissingRoutesStage{Index: opts.Index, Logger: opts.Logger},
		&OrphanStopsStage{Live: opts.Live, Logger: opts.Logger},
		&BackfillStage{Logger: opts.Logger},
		&PruneStage{Logger: opts.Logger},
		subsidiaries,
	)
	if err := assembler.Run(ctx, c); err != nil {
		return nil, err
	}

	return &Result{
		Catalog:         c,
		MTRBusStopAlias: normalize.MTRBusStopAlias,
		Subsidiaries:    subsidiaries.Result,
		EtaStops:        EtaStops(c, opts.Live),
		BusRoutes:       opts.Index.Numbers(),
	}, nil
}

// EtaStops selects the live sequences of every route number CTB serves.
func EtaStops(c *models.Catalog, live models.LiveSequences) models.LiveSequences {
	out := models.LiveSequences{}
	for _, r := range c.RouteList {
		if !r.InvolvesOperator(models.CTB) {
			continue
		}
		for bound, stops := range live[r.Route] {
			out.Set(r.Route, bound, stops)
		}
	}
	return out
}
