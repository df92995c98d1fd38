package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/geo"
	"github.com/persistorai/orienteer/internal/graph"
	"github.com/persistorai/orienteer/internal/metrics"
	"github.com/persistorai/orienteer/internal/models"
)

// GraphService builds the route graph and reports on it.
type GraphService struct {
	store       domain.RouteStore
	maxDistance float64
	log         *logrus.Logger
}

// NewGraphService creates a GraphService over store.
func NewGraphService(store domain.RouteStore, maxDistance float64, log *logrus.Logger) *GraphService {
	return &GraphService{store: store, maxDistance: maxDistance, log: log}
}

// Build computes the pruned graph over nodes and persists it.
func (s *GraphService) Build(ctx context.Context, nodes []models.Node) (*models.GraphStats, error) {
	cache := geo.NewDistanceCache()

	g, err := graph.Build(nodes, s.maxDistance, cache)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}

	if err := graph.Persist(ctx, s.store, g); err != nil {
		return nil, fmt.Errorf("persisting graph: %w", err)
	}

	stats := &models.GraphStats{Nodes: len(g.IDs), Edges: g.EdgeCount(), MaxDistance: s.maxDistance}
	metrics.NodeCount.Set(float64(stats.Nodes))

	s.log.WithFields(logrus.Fields{
		"nodes":                 stats.Nodes,
		"edges":                 stats.Edges,
		"distance_computations": cache.Computations(),
		"max_distance_km":       s.maxDistance,
	}).Info("graph.build")

	return stats, nil
}

// Stats reports the size of the persisted graph and the radius it was built
// with. Graphs that predate the recorded radius report the configured one.
func (s *GraphService) Stats(ctx context.Context) (*models.GraphStats, error) {
	ids, err := s.store.ListNodeIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing node ids: %w", err)
	}

	built, err := s.builtMaxDistance(ctx)
	if err != nil {
		return nil, err
	}

	metrics.NodeCount.Set(float64(len(ids)))

	s.log.WithFields(logrus.Fields{
		"nodes":           len(ids),
		"max_distance_km": built,
	}).Debug("graph.stats")

	return &models.GraphStats{Nodes: len(ids), MaxDistance: built}, nil
}

// Verify fails with models.ErrMaxDistanceMismatch when the persisted graph was
// pruned with a radius other than the configured one.
func (s *GraphService) Verify(ctx context.Context) error {
	built, err := s.builtMaxDistance(ctx)
	if err != nil {
		return err
	}

	if built != s.maxDistance {
		return fmt.Errorf("graph built with max distance %g km, configured %g km: %w",
			built, s.maxDistance, models.ErrMaxDistanceMismatch)
	}

	return nil
}

func (s *GraphService) builtMaxDistance(ctx context.Context) (float64, error) {
	info, err := s.store.GetBuildInfo(ctx)
	if errors.Is(err, models.ErrBuildInfoNotFound) {
		return s.maxDistance, nil
	}

	if err != nil {
		return 0, fmt.Errorf("reading build info: %w", err)
	}

	return info.MaxDistance, nil
}
