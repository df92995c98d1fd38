package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/geo"
	"github.com/persistorai/orienteer/internal/graph"
	"github.com/persistorai/orienteer/internal/models"
)

// originPrefix marks the ids of transient query origins.
const originPrefix = "origin-"

// DefaultMaxRuns is the largest accepted run count.
const DefaultMaxRuns = 20

// Query is one route request.
type Query struct {
	Latitude  float64
	Longitude float64
	Runs      int
	// OriginID names the transient origin node. It must be unique among concurrent
	// queries; a fresh id is generated when empty.
	OriginID string
}

// FinderConfig configures a Finder.
type FinderConfig struct {
	MaxDistance float64
	MaxRuns     int
}

// Finder answers route queries: it inserts a transient origin node into the
// store, runs the weight search from it and removes it again.
type Finder struct {
	store       domain.RouteStore
	search      *WeightSearch
	maxDistance float64
	maxRuns     int
	locks       *keyedMutex
	log         *logrus.Logger
}

// NewFinder creates a Finder over store.
func NewFinder(store domain.RouteStore, search *WeightSearch, cfg FinderConfig, log *logrus.Logger) *Finder {
	if cfg.MaxRuns <= 0 {
		cfg.MaxRuns = DefaultMaxRuns
	}

	return &Finder{
		store:       store,
		search:      search,
		maxDistance: cfg.MaxDistance,
		maxRuns:     cfg.MaxRuns,
		locks:       newKeyedMutex(),
		log:         log,
	}
}

// NewOriginID returns a fresh transient origin id.
func NewOriginID() string {
	return originPrefix + uuid.New().String()
}

// Accepts reports whether q is inside the accepted input domain.
func (f *Finder) Accepts(q Query) bool {
	return geo.Valid(q.Latitude, q.Longitude) && q.Runs >= 0 && q.Runs <= f.maxRuns
}

// FindPath runs one query. Input outside the accepted domain, and zero runs,
// produce an empty route rather than an error. A failure to remove the origin
// node afterwards is always returned, wrapped in models.ErrOriginCleanup.
func (f *Finder) FindPath(ctx context.Context, q Query) (result *Result, err error) {
	if !f.Accepts(q) || q.Runs == 0 {
		return &Result{Best: models.EmptyRoute(), BestWeight: f.search.cfg.DefaultWeight}, nil
	}

	originID := q.OriginID
	if originID == "" {
		originID = NewOriginID()
	}

	unlock := f.locks.lock(originID)
	defer unlock()

	origin := models.NewNode(originID, "", q.Latitude, q.Longitude)

	inserted, err := f.insertOrigin(ctx, &origin)
	if inserted {
		defer func() {
			if cerr := f.removeOrigin(context.WithoutCancel(ctx), originID); cerr != nil {
				result = nil
				err = errors.Join(err, fmt.Errorf("%w: %q: %w", models.ErrOriginCleanup, originID, cerr))
			}
		}()
	}

	if err != nil {
		return nil, err
	}

	stored, err := f.store.GetNode(ctx, originID)
	if err != nil {
		if errors.Is(err, models.ErrNodeNotFound) {
			return nil, fmt.Errorf("origin %q missing after insert: %w", originID, models.ErrStoreInconsistent)
		}

		return nil, fmt.Errorf("reading origin %q: %w", originID, err)
	}

	return f.search.Run(ctx, stored, q.Runs)
}

// insertOrigin writes the origin node and its adjacency and commits. The returned
// flag reports whether anything was written and therefore needs removal.
func (f *Finder) insertOrigin(ctx context.Context, origin *models.Node) (bool, error) {
	edges, err := graph.Connect(ctx, f.store, origin, f.maxDistance)
	if err != nil {
		return false, fmt.Errorf("connecting origin: %w", err)
	}

	if inserter, ok := f.store.(domain.OriginInserter); ok {
		if err := inserter.InsertNode(ctx, *origin, edges); err != nil {
			return false, fmt.Errorf("inserting origin %q: %w", origin.ID, err)
		}
	} else {
		_, err := f.store.GetNode(ctx, origin.ID)
		switch {
		case err == nil:
			return false, fmt.Errorf("inserting origin %q: %w", origin.ID, models.ErrDuplicateKey)
		case !errors.Is(err, models.ErrNodeNotFound):
			return false, fmt.Errorf("checking origin %q: %w", origin.ID, err)
		}

		if err := f.store.StoreNode(ctx, *origin); err != nil {
			return false, fmt.Errorf("storing origin %q: %w", origin.ID, err)
		}

		if err := f.store.StoreEdges(ctx, origin.ID, edges); err != nil {
			return true, fmt.Errorf("storing origin edges: %w", err)
		}
	}

	if err := f.store.Commit(ctx); err != nil {
		return true, fmt.Errorf("committing origin: %w", err)
	}

	if f.log != nil {
		f.log.WithFields(logrus.Fields{
			"origin_id": origin.ID,
			"edges":     len(edges),
		}).Debug("search.origin_inserted")
	}

	return true, nil
}

func (f *Finder) removeOrigin(ctx context.Context, originID string) error {
	if err := f.store.DeleteNode(ctx, originID); err != nil {
		return fmt.Errorf("deleting: %w", err)
	}

	if err := f.store.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}

	return nil
}
