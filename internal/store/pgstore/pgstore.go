// Package pgstore implements a RouteStore on PostgreSQL.
//
// Node records live in route_nodes, adjacency lists in route_edges (ordered by
// seq), the node index in route_index (ordered by position) and the build
// record in the single-row route_build table. Every write
// runs in its own committed transaction, so Commit has nothing left to do.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/dbpool"
	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

const uniqueViolation = "23505"

var (
	_ domain.RouteStore     = (*Store)(nil)
	_ domain.OriginInserter = (*Store)(nil)
	_ domain.HealthChecker  = (*Store)(nil)
)

// Store is a Postgres-backed RouteStore.
type Store struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// New creates a Store over pool. The schema must already be migrated.
func New(pool *dbpool.Pool, log *logrus.Logger) *Store {
	return &Store{Pool: pool, Log: log}
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

const upsertNodeSQL = `INSERT INTO route_nodes (id, name, latitude, longitude, items)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name, latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude, items = EXCLUDED.items`

const insertNodeSQL = `INSERT INTO route_nodes (id, name, latitude, longitude, items)
	VALUES ($1, $2, $3, $4, $5)`

const insertEdgesSQL = `INSERT INTO route_edges (node_id, seq, neighbor_id, length_km)
	SELECT $1, e.ord - 1, e.neighbor_id, e.length_km
	FROM unnest($2::text[], $3::float8[]) WITH ORDINALITY AS e(neighbor_id, length_km, ord)`

func items(n models.Node) []string {
	if n.Items == nil {
		return []string{}
	}

	return n.Items
}

func edgeColumns(edges []models.Edge) ([]string, []float64) {
	ids := make([]string, len(edges))
	lengths := make([]float64, len(edges))

	for i, e := range edges {
		ids[i] = e.NeighborID
		lengths[i] = e.LengthKm
	}

	return ids, lengths
}

// StoreNode upserts a node record.
func (s *Store) StoreNode(ctx context.Context, node models.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx, upsertNodeSQL, node.ID, node.Name, node.Latitude, node.Longitude, items(node))
	if err != nil {
		return fmt.Errorf("storing node %q: %w", node.ID, err)
	}

	return nil
}

// InsertNode writes a node and its edges in one transaction unless the id exists.
func (s *Store) InsertNode(ctx context.Context, node models.Node, edges []models.Edge) error {
	if err := node.Validate(); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	_, err = tx.Exec(ctx, insertNodeSQL, node.ID, node.Name, node.Latitude, node.Longitude, items(node))
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrDuplicateKey
		}

		return fmt.Errorf("inserting node %q: %w", node.ID, err)
	}

	if err := replaceEdges(ctx, tx, node.ID, edges); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing insert node: %w", err)
	}

	return nil
}

// GetNode returns the node record for id.
func (s *Store) GetNode(ctx context.Context, id string) (*models.Node, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n models.Node

	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, latitude, longitude, items FROM route_nodes WHERE id = $1`, id,
	).Scan(&n.ID, &n.Name, &n.Latitude, &n.Longitude, &n.Items)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNodeNotFound
		}

		return nil, fmt.Errorf("getting node %q: %w", id, err)
	}

	return &n, nil
}

// StoreEdges replaces the adjacency list of id.
func (s *Store) StoreEdges(ctx context.Context, id string, edges []models.Edge) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if _, err := tx.Exec(ctx, `DELETE FROM route_edges WHERE node_id = $1`, id); err != nil {
		return fmt.Errorf("clearing edges of %q: %w", id, err)
	}

	if err := replaceEdges(ctx, tx, id, edges); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing edges: %w", err)
	}

	return nil
}

func replaceEdges(ctx context.Context, tx pgx.Tx, id string, edges []models.Edge) error {
	if len(edges) == 0 {
		return nil
	}

	ids, lengths := edgeColumns(edges)
	if _, err := tx.Exec(ctx, insertEdgesSQL, id, ids, lengths); err != nil {
		return fmt.Errorf("storing edges of %q: %w", id, err)
	}

	return nil
}

// GetEdges returns the adjacency list of id, empty when none is stored.
func (s *Store) GetEdges(ctx context.Context, id string) ([]models.Edge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx,
		`SELECT neighbor_id, length_km FROM route_edges WHERE node_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("getting edges of %q: %w", id, err)
	}
	defer rows.Close()

	edges := []models.Edge{}

	for rows.Next() {
		var e models.Edge
		if err := rows.Scan(&e.NeighborID, &e.LengthKm); err != nil {
			return nil, fmt.Errorf("scanning edge: %w", err)
		}

		edges = append(edges, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating edges: %w", err)
	}

	return edges, nil
}

// StoreNodeIDs replaces the node index.
func (s *Store) StoreNodeIDs(ctx context.Context, ids []string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if _, err := tx.Exec(ctx, `DELETE FROM route_index`); err != nil {
		return fmt.Errorf("clearing node index: %w", err)
	}

	if len(ids) > 0 {
		_, err = tx.Exec(ctx, `INSERT INTO route_index (position, node_id)
			SELECT i.ord - 1, i.node_id FROM unnest($1::text[]) WITH ORDINALITY AS i(node_id, ord)`, ids)
		if err != nil {
			return fmt.Errorf("storing node index: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing node index: %w", err)
	}

	return nil
}

// ListNodeIDs returns the node index in stored order.
func (s *Store) ListNodeIDs(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.Pool.Query(ctx, `SELECT node_id FROM route_index ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing node ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning node ids: %w", err)
	}

	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}

// StoreBuildInfo replaces the build record.
func (s *Store) StoreBuildInfo(ctx context.Context, info models.BuildInfo) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := s.Pool.Exec(ctx, `INSERT INTO route_build (singleton, build_id, max_distance_km)
		VALUES (TRUE, $1, $2)
		ON CONFLICT (singleton) DO UPDATE
		SET build_id = EXCLUDED.build_id, max_distance_km = EXCLUDED.max_distance_km`,
		info.ID, info.MaxDistance)
	if err != nil {
		return fmt.Errorf("storing build info: %w", err)
	}

	return nil
}

// GetBuildInfo returns the build record.
func (s *Store) GetBuildInfo(ctx context.Context) (*models.BuildInfo, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var info models.BuildInfo

	err := s.Pool.QueryRow(ctx, `SELECT build_id, max_distance_km FROM route_build WHERE singleton`).
		Scan(&info.ID, &info.MaxDistance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrBuildInfoNotFound
		}

		return nil, fmt.Errorf("getting build info: %w", err)
	}

	return &info, nil
}

// DeleteNode removes the node record and its adjacency list.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx, `DELETE FROM route_nodes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting node %q: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrNodeNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM route_edges WHERE node_id = $1`, id); err != nil {
		return fmt.Errorf("deleting edges of %q: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete node: %w", err)
	}

	return nil
}

// Commit is a no-op: every write above has already committed.
func (s *Store) Commit(_ context.Context) error {
	return nil
}

// HealthCheck verifies database connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return s.Pool.HealthCheck(ctx)
}

// Truncate removes every route record. Used before a full rebuild.
func (s *Store) Truncate(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if _, err := s.Pool.Exec(ctx, `TRUNCATE route_nodes, route_edges, route_index, route_build`); err != nil {
		return fmt.Errorf("truncating route tables: %w", err)
	}

	s.Log.Debug("route tables truncated")

	return nil
}
