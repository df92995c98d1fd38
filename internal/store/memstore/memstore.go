// Package memstore implements an in-process RouteStore backed by maps.
package memstore

import (
	"context"
	"sync"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/models"
)

var (
	_ domain.RouteStore     = (*Store)(nil)
	_ domain.OriginInserter = (*Store)(nil)
)

// Store keeps every record in memory. Commit is a no-op.
type Store struct {
	mu      sync.RWMutex
	nodes   map[string]models.Node
	edges   map[string][]models.Edge
	ids     []string
	build   *models.BuildInfo
	commits int
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		nodes: make(map[string]models.Node),
		edges: make(map[string][]models.Edge),
	}
}

// StoreNode upserts a node record.
func (s *Store) StoreNode(_ context.Context, node models.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes[node.ID] = node.Clone()

	return nil
}

// InsertNode stores a node and its edges unless the id is already taken.
func (s *Store) InsertNode(_ context.Context, node models.Node, edges []models.Edge) error {
	if err := node.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.ID]; ok {
		return models.ErrDuplicateKey
	}

	s.nodes[node.ID] = node.Clone()
	s.edges[node.ID] = copyEdges(edges)

	return nil
}

// GetNode returns a copy of the node record.
func (s *Store) GetNode(_ context.Context, id string) (*models.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return nil, models.ErrNodeNotFound
	}

	c := n.Clone()

	return &c, nil
}

// StoreEdges replaces the adjacency list of id.
func (s *Store) StoreEdges(_ context.Context, id string, edges []models.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edges[id] = copyEdges(edges)

	return nil
}

// GetEdges returns a copy of the adjacency list of id.
func (s *Store) GetEdges(_ context.Context, id string) ([]models.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return copyEdges(s.edges[id]), nil
}

// StoreNodeIDs replaces the node index.
func (s *Store) StoreNodeIDs(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = append([]string(nil), ids...)

	return nil
}

// ListNodeIDs returns the node index.
func (s *Store) ListNodeIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string{}, s.ids...), nil
}

// StoreBuildInfo replaces the build record.
func (s *Store) StoreBuildInfo(_ context.Context, info models.BuildInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.build = &info

	return nil
}

// GetBuildInfo returns a copy of the build record.
func (s *Store) GetBuildInfo(_ context.Context) (*models.BuildInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.build == nil {
		return nil, models.ErrBuildInfoNotFound
	}

	info := *s.build

	return &info, nil
}

// DeleteNode removes the node record and its edge list.
func (s *Store) DeleteNode(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[id]; !ok {
		return models.ErrNodeNotFound
	}

	delete(s.nodes, id)
	delete(s.edges, id)

	return nil
}

// Commit records the call for tests; memory writes are already visible.
func (s *Store) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commits++

	return nil
}

// Commits returns how many times Commit was called.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.commits
}

// Has reports whether a node record exists for id.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.nodes[id]

	return ok
}

// Len returns the number of stored node records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodes)
}

// HealthCheck always succeeds.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

func copyEdges(edges []models.Edge) []models.Edge {
	out := make([]models.Edge, len(edges))
	copy(out, edges)

	return out
}

// Truncate drops every record.
func (s *Store) Truncate(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.nodes)
	clear(s.edges)
	s.ids = nil
	s.build = nil

	return nil
}
