// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/httputil"
	"github.com/persistorai/orienteer/internal/metrics"
	"github.com/persistorai/orienteer/internal/models"
	"github.com/persistorai/orienteer/internal/search"
)

// PathFinder answers a single route query.
type PathFinder interface {
	FindPath(ctx context.Context, q search.Query) (*search.Result, error)
}

// RouteService wraps a PathFinder with logging and search metrics.
type RouteService struct {
	finder      PathFinder
	defaultRuns int
	log         *logrus.Logger
}

// NewRouteService creates a RouteService. defaultRuns is used when a query
// does not name a run count.
func NewRouteService(finder PathFinder, defaultRuns int, log *logrus.Logger) *RouteService {
	return &RouteService{finder: finder, defaultRuns: defaultRuns, log: log}
}

// DefaultRuns returns the run count used when a query omits one.
func (s *RouteService) DefaultRuns() int {
	return s.defaultRuns
}

// FindPath returns the best round trip from (lat, lon) found in runs walks.
func (s *RouteService) FindPath(ctx context.Context, lat, lon float64, runs int) (*models.Route, error) {
	start := time.Now()

	res, err := s.finder.FindPath(ctx, search.Query{Latitude: lat, Longitude: lon, Runs: runs})

	elapsed := time.Since(start)
	metrics.SearchDuration.Observe(elapsed.Seconds())

	fields := logrus.Fields{
		"request_id": httputil.RequestIDFrom(ctx),
		"lat":        lat,
		"lon":        lon,
		"runs":       runs,
		"duration":   elapsed,
	}

	if err != nil {
		if errors.Is(err, models.ErrOriginCleanup) {
			metrics.OriginCleanupFailures.Inc()
		}

		s.log.WithFields(fields).WithError(err).Error("route.find_path failed")

		return nil, err
	}

	metrics.WalksTotal.Add(float64(len(res.Trace)))
	metrics.CheckpointsTotal.Add(float64(res.Checkpoints))

	if len(res.Trace) > 0 {
		metrics.BestItems.Observe(float64(res.BestItems))
	}

	fields["items"] = res.Best.ItemCount()
	fields["stops"] = len(res.Best.Path)
	fields["distance_km"] = res.Best.TotalDistance()
	fields["best_weight"] = res.BestWeight
	s.log.WithFields(fields).Debug("route.find_path")

	return res.Best, nil
}
