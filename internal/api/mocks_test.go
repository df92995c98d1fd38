package api_test

import (
	"context"
	"sync"

	"github.com/persistorai/orienteer/internal/models"
)

type findCall struct {
	lat, lon float64
	runs     int
}

type mockRouteFinder struct {
	mu          sync.Mutex
	calls       []findCall
	defaultRuns int
	findFn      func(ctx context.Context, lat, lon float64, runs int) (*models.Route, error)
}

func (m *mockRouteFinder) FindPath(ctx context.Context, lat, lon float64, runs int) (*models.Route, error) {
	m.mu.Lock()
	m.calls = append(m.calls, findCall{lat: lat, lon: lon, runs: runs})
	m.mu.Unlock()

	if m.findFn != nil {
		return m.findFn(ctx, lat, lon, runs)
	}

	return models.EmptyRoute(), nil
}

func (m *mockRouteFinder) DefaultRuns() int {
	if m.defaultRuns == 0 {
		return 10
	}

	return m.defaultRuns
}

func (m *mockRouteFinder) recorded() []findCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]findCall(nil), m.calls...)
}

type mockGraph struct {
	statsFn  func(ctx context.Context) (*models.GraphStats, error)
	verifyFn func(ctx context.Context) error
}

func (m *mockGraph) Verify(ctx context.Context) error {
	if m.verifyFn != nil {
		return m.verifyFn(ctx)
	}

	return nil
}

func (m *mockGraph) Stats(ctx context.Context) (*models.GraphStats, error) {
	if m.statsFn != nil {
		return m.statsFn(ctx)
	}

	return &models.GraphStats{Nodes: 3, MaxDistance: 1000}, nil
}

type mockHealth struct {
	err error
}

func (m *mockHealth) HealthCheck(context.Context) error { return m.err }
