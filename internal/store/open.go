// Package store selects and assembles the route store backend: embedded
// Badger, PostgreSQL or in-memory, optionally behind a ristretto read cache.
// The backends live in subpackages and never import each other.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/db"
	"github.com/persistorai/orienteer/internal/dbpool"
	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/store/badgerstore"
	"github.com/persistorai/orienteer/internal/store/memstore"
	"github.com/persistorai/orienteer/internal/store/pgstore"
)

// Backend names a store implementation.
type Backend string

// Supported backends.
const (
	BackendBadger   Backend = "badger"
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Options configures Open.
type Options struct {
	Backend     Backend
	BadgerDir   string
	DatabaseURL string
	MaxConns    int32
	// CacheSize enables the read cache when positive.
	CacheSize int64
	Log       *logrus.Logger
}

// Handle is an opened store plus the resources behind it.
type Handle struct {
	Store   domain.RouteStore
	Backend Backend

	truncate func(context.Context) error
	cache    *Cached
	closers  []func() error
}

// Open connects the configured backend. Postgres schemas are migrated first.
func Open(ctx context.Context, opts Options) (*Handle, error) {
	h := &Handle{Backend: opts.Backend}

	switch opts.Backend {
	case BackendBadger:
		s, err := badgerstore.Open(badgerstore.Options{Dir: opts.BadgerDir, Log: opts.Log})
		if err != nil {
			return nil, err
		}

		h.Store, h.truncate = s, s.Truncate
		h.closers = append(h.closers, s.Close)
	case BackendPostgres:
		pool, err := dbpool.NewPool(ctx, opts.DatabaseURL, opts.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}

		if err := db.Migrate(ctx, pool, opts.Log); err != nil {
			pool.Close()

			return nil, err
		}

		collector := dbpool.NewCollector(pool)
		if err := prometheus.Register(collector); err != nil {
			opts.Log.WithError(err).Warn("pool metrics not registered")
		}

		s := pgstore.New(pool, opts.Log)
		h.Store, h.truncate = s, s.Truncate
		h.closers = append(h.closers, func() error {
			prometheus.Unregister(collector)
			pool.Close()

			return nil
		})
	case BackendMemory:
		s := memstore.New()
		h.Store, h.truncate = s, s.Truncate
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}

	if opts.CacheSize > 0 {
		c, err := NewCached(h.Store, opts.CacheSize)
		if err != nil {
			h.Close() //nolint:errcheck // already failing.

			return nil, err
		}

		h.Store, h.cache = c, c
		h.closers = append(h.closers, func() error { c.Close(); return nil })
	}

	opts.Log.WithFields(logrus.Fields{
		"backend":    opts.Backend,
		"cache_size": opts.CacheSize,
	}).Info("route store opened")

	return h, nil
}

// Reset empties the store before a full rebuild.
func (h *Handle) Reset(ctx context.Context) error {
	if h.cache != nil {
		defer h.cache.Purge()
	}

	if h.truncate == nil {
		return nil
	}

	return h.truncate(ctx)
}

// Close releases resources in reverse order of acquisition.
func (h *Handle) Close() error {
	var errs []error

	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
