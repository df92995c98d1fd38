// Package dbpool manages the PostgreSQL connection pool behind the route store.
package dbpool

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool defaults.
const (
	DefaultMaxConns         = 21
	DefaultStatementTimeout = 30 * time.Second
)

// Pool is the subset of pgxpool.Pool the route store uses, plus health and
// stats reporting.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool connects to databaseURL with at most maxConns connections and verifies
// the connection. A non-positive maxConns selects DefaultMaxConns.
func NewPool(ctx context.Context, databaseURL string, maxConns int32) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}

	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}

	// Walks issue many short point reads; a long-running statement means a stuck query.
	cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(DefaultStatementTimeout.Milliseconds(), 10)
	cfg.ConnConfig.RuntimeParams["application_name"] = "orienteer"
	cfg.MaxConns = maxConns
	cfg.MinConns = min(2, maxConns)
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	p := &Pool{pool: pool}
	if err := p.HealthCheck(ctx); err != nil {
		pool.Close()

		return nil, err
	}

	return p, nil
}

// Exec executes a statement that returns no rows.
func (p *Pool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return p.pool.Exec(ctx, sql, args...)
}

// Query executes a query that returns rows.
func (p *Pool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return p.pool.Query(ctx, sql, args...)
}

// QueryRow executes a query that returns at most one row.
func (p *Pool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return p.pool.QueryRow(ctx, sql, args...)
}

// Begin starts a read-write transaction.
func (p *Pool) Begin(ctx context.Context) (pgx.Tx, error) {
	return p.pool.Begin(ctx)
}

// HealthCheck round-trips a trivial query.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var one int
	if err := p.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}

	return nil
}

// Stat returns a snapshot of pool usage.
func (p *Pool) Stat() *pgxpool.Stat {
	return p.pool.Stat()
}

// ConnString returns the connection string the pool was created from; the
// migration runner opens its own database/sql handle with it.
func (p *Pool) ConnString() string {
	return p.pool.Config().ConnString()
}

// Close closes every connection in the pool.
func (p *Pool) Close() {
	p.pool.Close()
}
