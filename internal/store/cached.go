package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/metrics"
	"github.com/persistorai/orienteer/internal/models"
)

var (
	_ domain.RouteStore     = (*Cached)(nil)
	_ domain.OriginInserter = (*Cached)(nil)
	_ domain.HealthChecker  = (*Cached)(nil)
)

// Cached wraps a RouteStore with a ristretto read cache for graph nodes and
// their adjacency lists. Only ids in the node index are cached; transient
// origins always go to the backend. Writes and deletes invalidate.
//
// Entries are keyed by the build id of the persisted graph. ListNodeIDs, which
// every query calls before walking, re-reads the build record, so a rebuild by
// another process retires the old entries instead of serving them.
type Cached struct {
	domain.RouteStore

	nodes *ristretto.Cache[string, models.Node]
	edges *ristretto.Cache[string, []models.Edge]

	mu      sync.RWMutex
	build   string
	indexed map[string]struct{}
}

// NewCached wraps inner with caches holding up to size nodes and size edge lists.
// Every entry costs 1, so MaxCost counts entries.
func NewCached(inner domain.RouteStore, size int64) (*Cached, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}

	nodes, err := ristretto.NewCache(&ristretto.Config[string, models.Node]{
		NumCounters:        size * 10,
		MaxCost:            size,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("creating node cache: %w", err)
	}

	edges, err := ristretto.NewCache(&ristretto.Config[string, []models.Edge]{
		NumCounters:        size * 10,
		MaxCost:            size,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		nodes.Close()

		return nil, fmt.Errorf("creating edge cache: %w", err)
	}

	return &Cached{RouteStore: inner, nodes: nodes, edges: edges}, nil
}

// Close releases the caches. The wrapped store is left open.
func (c *Cached) Close() {
	c.nodes.Close()
	c.edges.Close()
}

// Purge drops every cached entry and the cached index.
func (c *Cached) Purge() {
	c.nodes.Clear()
	c.edges.Clear()

	c.mu.Lock()
	c.build = ""
	c.indexed = nil
	c.mu.Unlock()
}

// Wait blocks until buffered cache writes are applied.
func (c *Cached) Wait() {
	c.nodes.Wait()
	c.edges.Wait()
}

// lookup returns the cache key of id under the current build and whether id is
// a persisted graph node, loading the index on first use.
func (c *Cached) lookup(ctx context.Context, id string) (string, bool, error) {
	c.mu.RLock()
	build, indexed := c.build, c.indexed
	c.mu.RUnlock()

	if indexed == nil {
		var err error

		build, indexed, _, err = c.refresh(ctx)
		if err != nil {
			return "", false, err
		}
	}

	_, ok := indexed[id]

	return cacheKey(build, id), ok, nil
}

// key returns the cache key of id under the current build.
func (c *Cached) key(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return cacheKey(c.build, id)
}

func cacheKey(build, id string) string {
	return build + "/" + id
}

// refresh reloads the build record and the node index from the backend.
func (c *Cached) refresh(ctx context.Context) (string, map[string]struct{}, []string, error) {
	build := ""

	info, err := c.RouteStore.GetBuildInfo(ctx)
	switch {
	case err == nil:
		build = info.ID
	case !errors.Is(err, models.ErrBuildInfoNotFound):
		return "", nil, nil, err
	}

	ids, err := c.RouteStore.ListNodeIDs(ctx)
	if err != nil {
		return "", nil, nil, err
	}

	indexed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		indexed[id] = struct{}{}
	}

	c.mu.Lock()
	c.build = build
	c.indexed = indexed
	c.mu.Unlock()

	return build, indexed, ids, nil
}

// GetNode serves graph nodes from the cache when possible.
func (c *Cached) GetNode(ctx context.Context, id string) (*models.Node, error) {
	key, ok, err := c.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if ok {
		if n, hit := c.nodes.Get(key); hit {
			metrics.NodeCacheRequests.WithLabelValues("hit").Inc()

			clone := n.Clone()

			return &clone, nil
		}

		metrics.NodeCacheRequests.WithLabelValues("miss").Inc()
	}

	n, err := c.RouteStore.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}

	if ok {
		c.nodes.Set(key, n.Clone(), 1)
	}

	return n, nil
}

// GetEdges serves graph adjacency lists from the cache when possible.
func (c *Cached) GetEdges(ctx context.Context, id string) ([]models.Edge, error) {
	key, ok, err := c.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if ok {
		if edges, hit := c.edges.Get(key); hit {
			metrics.NodeCacheRequests.WithLabelValues("hit").Inc()

			return append([]models.Edge{}, edges...), nil
		}

		metrics.NodeCacheRequests.WithLabelValues("miss").Inc()
	}

	edges, err := c.RouteStore.GetEdges(ctx, id)
	if err != nil {
		return nil, err
	}

	if ok {
		c.edges.Set(key, append([]models.Edge{}, edges...), 1)
	}

	return edges, nil
}

// ListNodeIDs reads the index from the backend and resynchronizes the cache with
// the persisted build.
func (c *Cached) ListNodeIDs(ctx context.Context) ([]string, error) {
	_, _, ids, err := c.refresh(ctx)
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// StoreNode writes through and invalidates.
func (c *Cached) StoreNode(ctx context.Context, node models.Node) error {
	c.nodes.Del(c.key(node.ID))

	return c.RouteStore.StoreNode(ctx, node)
}

// StoreEdges writes through and invalidates.
func (c *Cached) StoreEdges(ctx context.Context, id string, edges []models.Edge) error {
	c.edges.Del(c.key(id))

	return c.RouteStore.StoreEdges(ctx, id, edges)
}

// StoreNodeIDs writes through and replaces the cached index.
func (c *Cached) StoreNodeIDs(ctx context.Context, ids []string) error {
	if err := c.RouteStore.StoreNodeIDs(ctx, ids); err != nil {
		return err
	}

	indexed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		indexed[id] = struct{}{}
	}

	c.mu.Lock()
	c.indexed = indexed
	c.mu.Unlock()

	return nil
}

// StoreBuildInfo writes through and moves the cache to the new build.
func (c *Cached) StoreBuildInfo(ctx context.Context, info models.BuildInfo) error {
	if err := c.RouteStore.StoreBuildInfo(ctx, info); err != nil {
		return err
	}

	c.mu.Lock()
	c.build = info.ID
	c.mu.Unlock()

	return nil
}

// DeleteNode deletes through and invalidates.
func (c *Cached) DeleteNode(ctx context.Context, id string) error {
	key := c.key(id)
	c.nodes.Del(key)
	c.edges.Del(key)

	return c.RouteStore.DeleteNode(ctx, id)
}

// InsertNode delegates to the backend's insert when it has one. Otherwise the
// id is checked and the node and edges written separately.
func (c *Cached) InsertNode(ctx context.Context, node models.Node, edges []models.Edge) error {
	if inserter, ok := c.RouteStore.(domain.OriginInserter); ok {
		return inserter.InsertNode(ctx, node, edges)
	}

	_, err := c.RouteStore.GetNode(ctx, node.ID)
	switch {
	case err == nil:
		return models.ErrDuplicateKey
	case !errors.Is(err, models.ErrNodeNotFound):
		return fmt.Errorf("checking node %q: %w", node.ID, err)
	}

	if err := c.RouteStore.StoreNode(ctx, node); err != nil {
		return err
	}

	return c.RouteStore.StoreEdges(ctx, node.ID, edges)
}

// HealthCheck delegates to the backend when it supports health checks.
func (c *Cached) HealthCheck(ctx context.Context) error {
	if hc, ok := c.RouteStore.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}

	return nil
}
