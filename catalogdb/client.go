// Package catalogdb persists finished route catalogs to SQLite so a run can
// be inspected with SQL after the JSON files are written.
package catalogdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"routecatalog.transit.hk/internal/logging"
	"routecatalog.transit.hk/internal/models"
)

//go:embed schema.sql
var ddl string

// Client is the main entry point for the library
type Client struct {
	config  Config
	DB      *sql.DB
	Queries *Queries
	logger  *slog.Logger
}

// NewClient opens the database and applies the schema.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if config.DBPath == InMemory {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := performDatabaseMigration(context.Background(), db); err != nil {
		logging.SafeCloseWithLogging(db, logger, "catalog_db")
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return &Client{
		config:  config,
		DB:      db,
		Queries: New(db),
		logger:  logger,
	}, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(ddl, "-- migrate") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmed); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmed, err)
		}
	}
	return nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// StoreCatalog writes every route, route stop, stop and alias of c under
// runID, plus a builds row, in a single transaction.
func (c *Client) StoreCatalog(ctx context.Context, runID string, cat *models.Catalog) error {
	start := time.Now()

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, c.logger, "store_catalog")

	q := c.Queries.WithTx(tx)
	stats := cat.Stats()
	if err := q.CreateBuild(ctx, Build{
		RunID:       runID,
		CreatedAt:   start.UnixMilli(),
		Routes:      stats.Routes,
		Stops:       stats.Stops,
		StopAliases: stats.StopAliases,
	}); err != nil {
		return fmt.Errorf("error inserting build %s: %w", runID, err)
	}

	routeStops := 0
	for _, key := range cat.SortedRouteKeys() {
		r := cat.RouteList[key]
		if err := q.CreateRoute(ctx, runID, routeRow(key, r)); err != nil {
			return fmt.Errorf("error inserting route %s: %w", key, err)
		}
		for _, op := range sortedOperators(r.Stops) {
			for seq, stopID := range r.Stops[op] {
				if err := q.CreateRouteStop(ctx, runID, key, string(op), seq, stopID); err != nil {
					return fmt.Errorf("error inserting route stop %s/%s/%d: %w", key, op, seq, err)
				}
				routeStops++
			}
		}
	}

	for _, id := range sortedKeys(cat.StopList) {
		s := cat.StopList[id]
		if s == nil {
			continue
		}
		if err := q.CreateStop(ctx, runID, stopRow(id, s)); err != nil {
			return fmt.Errorf("error inserting stop %s: %w", id, err)
		}
	}

	for _, id := range sortedKeys(cat.StopMap) {
		for _, e := range cat.StopMap[id] {
			if err := q.CreateAlias(ctx, runID, id, Alias{Operator: string(e.Operator), AliasID: e.StopID}); err != nil {
				return fmt.Errorf("error inserting alias %s: %w", id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	logging.LogOperation(c.logger, "catalog_stored",
		slog.String("run_id", runID),
		slog.Int("routes", stats.Routes),
		slog.Int("route_stops", routeStops),
		slog.Int("stops", stats.Stops),
		slog.Int("stop_aliases", stats.StopAliases),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Tables lists the catalog tables in insertion order.
var Tables = []string{"builds", "routes", "route_stops", "stops", "stop_map"}

// TableCounts returns the row count of every table in Tables.
func (c *Client) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(Tables))
	for _, table := range Tables {
		var n int
		if err := c.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("error counting %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

func routeRow(key string, r *models.Route) Route {
	row := Route{
		Key:           key,
		Route:         r.Route,
		ServiceType:   r.ServiceType,
		Bound:         make(map[string]string, len(r.Bound)),
		OrigEn:        r.Orig.En,
		OrigZh:        r.Orig.Zh,
		DestEn:        r.Dest.En,
		DestZh:        r.Dest.Zh,
		GtfsID:        r.GtfsID,
		NlbID:         r.NlbID,
		FakeRoute:     r.FakeRoute,
		KmbCtbJoint:   r.KmbCtbJoint,
		CtbIsCircular: r.CtbIsCircular,
	}
	for _, op := range r.Co {
		row.Co = append(row.Co, string(op))
	}
	for op, b := range r.Bound {
		row.Bound[string(op)] = b
	}
	return row
}

func stopRow(id string, s *models.Stop) Stop {
	row := Stop{
		ID:     id,
		NameEn: s.Name.En,
		NameZh: s.Name.Zh,
		Lat:    s.Location.Lat,
		Lng:    s.Location.Lng,
	}
	if s.Remark != nil {
		row.RemarkEn = &s.Remark.En
		row.RemarkZh = &s.Remark.Zh
	}
	return row
}

func sortedOperators(m map[models.Operator][]string) []models.Operator {
	ops := make([]models.Operator, 0, len(m))
	for op := range m {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
