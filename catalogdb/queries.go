package catalogdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries runs the catalog statements against a database or transaction.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const createBuild = `
INSERT INTO builds (run_id, created_at, routes, stops, stop_aliases)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateBuild(ctx context.Context, b Build) error {
	_, err := q.db.ExecContext(ctx, createBuild, b.RunID, b.CreatedAt, b.Routes, b.Stops, b.StopAliases)
	return err
}

const createRoute = `
INSERT INTO routes (
    run_id, route_key, route, service_type, co, bound,
    orig_en, orig_zh, dest_en, dest_zh, gtfs_id, nlb_id,
    fake_route, kmb_ctb_joint, ctb_is_circular
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRoute(ctx context.Context, runID string, r Route) error {
	bound, err := json.Marshal(r.Bound)
	if err != nil {
		return fmt.Errorf("error encoding bound of %s: %w", r.Key, err)
	}
	_, err = q.db.ExecContext(ctx, createRoute,
		runID, r.Key, r.Route, r.ServiceType, strings.Join(r.Co, ","), string(bound),
		r.OrigEn, r.OrigZh, r.DestEn, r.DestZh, r.GtfsID, r.NlbID,
		r.FakeRoute, r.KmbCtbJoint, r.CtbIsCircular,
	)
	return err
}

const createRouteStop = `
INSERT INTO route_stops (run_id, route_key, operator, stop_sequence, stop_id)
VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateRouteStop(ctx context.Context, runID, routeKey, operator string, seq int, stopID string) error {
	_, err := q.db.ExecContext(ctx, createRouteStop, runID, routeKey, operator, seq, stopID)
	return err
}

const createStop = `
INSERT INTO stops (run_id, stop_id, name_en, name_zh, lat, lng, remark_en, remark_zh)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateStop(ctx context.Context, runID string, s Stop) error {
	_, err := q.db.ExecContext(ctx, createStop,
		runID, s.ID, s.NameEn, s.NameZh, s.Lat, s.Lng, s.RemarkEn, s.RemarkZh)
	return err
}

const createAlias = `
INSERT OR IGNORE INTO stop_map (run_id, stop_id, operator, alias_id)
VALUES (?, ?, ?, ?)`

func (q *Queries) CreateAlias(ctx context.Context, runID, stopID string, a Alias) error {
	_, err := q.db.ExecContext(ctx, createAlias, runID, stopID, a.Operator, a.AliasID)
	return err
}

const latestBuild = `
SELECT run_id, created_at, routes, stops, stop_aliases
FROM builds
ORDER BY created_at DESC, rowid DESC
LIMIT 1`

// LatestBuild returns the most recently stored run, or sql.ErrNoRows.
func (q *Queries) LatestBuild(ctx context.Context) (Build, error) {
	var b Build
	err := q.db.QueryRowContext(ctx, latestBuild).
		Scan(&b.RunID, &b.CreatedAt, &b.Routes, &b.Stops, &b.StopAliases)
	return b, err
}

const getStop = `
SELECT stop_id, name_en, name_zh, lat, lng, remark_en, remark_zh
FROM stops
WHERE run_id = ? AND stop_id = ?`

// GetStop returns a stop of a run, or sql.ErrNoRows.
func (q *Queries) GetStop(ctx context.Context, runID, stopID string) (Stop, error) {
	var s Stop
	err := q.db.QueryRowContext(ctx, getStop, runID, stopID).
		Scan(&s.ID, &s.NameEn, &s.NameZh, &s.Lat, &s.Lng, &s.RemarkEn, &s.RemarkZh)
	return s, err
}

const listRoutesByNumber = `
SELECT route_key, route, service_type, co, bound,
       orig_en, orig_zh, dest_en, dest_zh, gtfs_id, nlb_id,
       fake_route, kmb_ctb_joint, ctb_is_circular
FROM routes
WHERE run_id = ? AND route = ?
ORDER BY route_key`

func (q *Queries) ListRoutesByNumber(ctx context.Context, runID, number string) ([]Route, error) {
	rows, err := q.db.QueryContext(ctx, listRoutesByNumber, runID, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var routes []Route
	for rows.Next() {
		var r Route
		var co, bound string
		if err := rows.Scan(&r.Key, &r.Route, &r.ServiceType, &co, &bound,
			&r.OrigEn, &r.OrigZh, &r.DestEn, &r.DestZh, &r.GtfsID, &r.NlbID,
			&r.FakeRoute, &r.KmbCtbJoint, &r.CtbIsCircular); err != nil {
			return nil, err
		}
		if co != "" {
			r.Co = strings.Split(co, ",")
		}
		if err := json.Unmarshal([]byte(bound), &r.Bound); err != nil {
			return nil, fmt.Errorf("error decoding bound of %s: %w", r.Key, err)
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

const listRouteStops = `
SELECT operator, stop_id
FROM route_stops
WHERE run_id = ? AND route_key = ?
ORDER BY operator, stop_sequence`

// ListRouteStops returns the stop sequences of a route keyed by operator.
func (q *Queries) ListRouteStops(ctx context.Context, runID, routeKey string) (map[string][]string, error) {
	rows, err := q.db.QueryContext(ctx, listRouteStops, runID, routeKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	stops := make(map[string][]string)
	for rows.Next() {
		var op, id string
		if err := rows.Scan(&op, &id); err != nil {
			return nil, err
		}
		stops[op] = append(stops[op], id)
	}
	return stops, rows.Err()
}

const listAliases = `
SELECT operator, alias_id
FROM stop_map
WHERE run_id = ? AND stop_id = ?
ORDER BY operator, alias_id`

func (q *Queries) ListAliases(ctx context.Context, runID, stopID string) ([]Alias, error) {
	rows, err := q.db.QueryContext(ctx, listAliases, runID, stopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var aliases []Alias
	for rows.Next() {
		var a Alias
		if err := rows.Scan(&a.Operator, &a.AliasID); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// IsNotFound reports whether err means a lookup matched no row.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
