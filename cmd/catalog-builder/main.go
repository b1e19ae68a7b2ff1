package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"routecatalog.transit.hk/catalogdb"
	"routecatalog.transit.hk/internal/appconf"
	"routecatalog.transit.hk/internal/catalog"
	"routecatalog.transit.hk/internal/feeds"
	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	flag.Parse()

	cfg, err := appconf.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Env == appconf.Development {
		level = slog.LevelDebug
	}
	runID := uuid.NewString()
	logger := logging.NewStructuredLogger(os.Stdout, level).With(
		slog.String("run_id", runID),
		slog.String("env", cfg.Env),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runID, logger); err != nil {
		logging.LogError(logger, "catalog build failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg appconf.Config, runID string, logger *slog.Logger) error {
	start := time.Now()

	client := feeds.NewClient(nil, cfg.Retries, cfg.RetryDelay, logger)
	in, err := client.Gather(ctx, feeds.Sources{
		DataSheetURL: cfg.Feeds.DataSheetURL,
		RouteLists: feeds.DefaultRouteListSources(
			cfg.Feeds.KMBRoutesURL,
			cfg.Feeds.CTBRoutesURL,
			cfg.Feeds.NLBRoutesURL,
			cfg.Feeds.GMBRoutesURL,
		),
		CTBRouteStopURL: cfg.Feeds.CTBRouteStopURL,
		HeadwayGTFSURL:  cfg.Feeds.HeadwayGTFSURL,
	}, feeds.GatherOptions{
		Workers:           cfg.Workers,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("gather inputs: %w", err)
	}

	result, err := catalog.Build(ctx, in.Catalog, catalog.Options{
		Index:         in.Index,
		Live:          in.Live,
		LongWinRoutes: in.LongWinRoutes,
		Experimental:  cfg.Experimental,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	file := &models.CatalogFile{
		BusRoute:        result.BusRoutes,
		CtbEtaStops:     result.EtaStops,
		DataSheet:       result.Catalog,
		KmbSubsidiary:   result.Subsidiaries,
		MtrBusStopAlias: result.MTRBusStopAlias,
	}
	written, err := writeOutputs(cfg.OutputDir, cfg.OutputPrefix(), file, time.Now())
	if err != nil {
		return err
	}

	if cfg.SQLitePath != "" {
		if err := storeCatalog(ctx, cfg, runID, result.Catalog, logger); err != nil {
			return err
		}
	}

	stats := result.Catalog.Stats()
	logging.LogOperation(logger, "catalog_build_completed",
		slog.Int("routes", stats.Routes),
		slog.Int("stops", stats.Stops),
		slog.Int("joint_routes", stats.JointRoutes),
		slog.Int("fake_routes", stats.FakeRoutes),
		slog.Any("files", written),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func storeCatalog(ctx context.Context, cfg appconf.Config, runID string, c *models.Catalog, logger *slog.Logger) (err error) {
	db, err := catalogdb.NewClient(catalogdb.NewConfig(cfg.SQLitePath, cfg.Env), logger)
	if err != nil {
		return fmt.Errorf("open catalog database: %w", err)
	}
	defer logging.HandleDeferredError(&err, db.Close, logger, "close_catalog_db")

	if err := db.StoreCatalog(ctx, runID, c); err != nil {
		return fmt.Errorf("store catalog: %w", err)
	}

	counts, err := db.TableCounts(ctx)
	if err != nil {
		return fmt.Errorf("count catalog tables: %w", err)
	}
	attrs := make([]slog.Attr, 0, len(counts))
	for _, table := range catalogdb.Tables {
		attrs = append(attrs, slog.Int(table, counts[table]))
	}
	logging.LogOperation(logger, "catalog_db_totals", attrs...)
	return nil
}
