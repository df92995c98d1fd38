package api

import (
	"context"

	"github.com/persistorai/orienteer/internal/models"
)

// RouteFinder answers route queries for RouteHandler.
type RouteFinder interface {
	FindPath(ctx context.Context, lat, lon float64, runs int) (*models.Route, error)
	DefaultRuns() int
}

// GraphStatter reports on the persisted graph for StatsHandler and readiness.
type GraphStatter interface {
	Stats(ctx context.Context) (*models.GraphStats, error)
}

// GraphVerifier is optionally implemented by a GraphStatter that can tell when the
// persisted graph was built for a different search radius.
type GraphVerifier interface {
	Verify(ctx context.Context) error
}
