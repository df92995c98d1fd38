package client

import (
	"context"
	"fmt"
	"strconv"
)

// RouteService queries round-trip routes.
type RouteService struct{ c *Client }

// FindPath asks for a route from (lat, lon) using the server's default run count.
func (s *RouteService) FindPath(ctx context.Context, lat, lon float64) (*Route, error) {
	return s.find(ctx, fmt.Sprintf("/api/v1/find-path/%s/%s", formatCoord(lat), formatCoord(lon)))
}

// FindPathRuns asks for a route with an explicit number of weight-search runs.
func (s *RouteService) FindPathRuns(ctx context.Context, lat, lon float64, runs int) (*Route, error) {
	return s.find(ctx, fmt.Sprintf("/api/v1/find-path/%s/%s/%d", formatCoord(lat), formatCoord(lon), runs))
}

func (s *RouteService) find(ctx context.Context, path string) (*Route, error) {
	var r Route
	if err := s.c.get(ctx, path, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GraphService reads graph metadata.
type GraphService struct{ c *Client }

// Stats returns node count and neighbor radius of the served graph.
func (s *GraphService) Stats(ctx context.Context) (*GraphStats, error) {
	var resp GraphStats
	if err := s.c.get(ctx, "/api/v1/graph/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
