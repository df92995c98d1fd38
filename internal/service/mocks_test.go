package service

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/search"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// mockFinder records queries and returns configured responses.
type mockFinder struct {
	mu      sync.Mutex
	queries []search.Query

	findPath func(ctx context.Context, q search.Query) (*search.Result, error)
}

func (m *mockFinder) FindPath(ctx context.Context, q search.Query) (*search.Result, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	return m.findPath(ctx, q)
}
