// Package graph builds the point-of-interest adjacency structure and moves it
// into a RouteStore.
package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/geo"
	"github.com/persistorai/orienteer/internal/models"
)

// Graph is the built network: the node index in input order, the nodes by id and
// each node's adjacency list.
type Graph struct {
	IDs         []string
	Nodes       map[string]models.Node
	Adjacency   map[string][]models.Edge
	MaxDistance float64
}

// EdgeCount returns the number of undirected connections.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, edges := range g.Adjacency {
		total += len(edges)
	}

	return total / 2
}

// Build connects every pair of nodes whose distance is at most maxDistance.
// Each unordered pair is evaluated once through cache; neighbors appear in each
// adjacency list in input order.
func Build(nodes []models.Node, maxDistance float64, cache *geo.DistanceCache) (*Graph, error) {
	if maxDistance <= 0 {
		return nil, models.ErrInvalidMaxDistance
	}

	if cache == nil {
		cache = geo.NewDistanceCache()
	}

	g := &Graph{
		IDs:         make([]string, 0, len(nodes)),
		Nodes:       make(map[string]models.Node, len(nodes)),
		Adjacency:   make(map[string][]models.Edge, len(nodes)),
		MaxDistance: maxDistance,
	}

	for i := range nodes {
		n := &nodes[i]
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}

		if _, dup := g.Nodes[n.ID]; dup {
			return nil, fmt.Errorf("node %q: %w", n.ID, models.ErrDuplicateKey)
		}

		g.IDs = append(g.IDs, n.ID)
		g.Nodes[n.ID] = n.Clone()
		g.Adjacency[n.ID] = []models.Edge{}
	}

	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			a, b := &nodes[i], &nodes[j]

			d := cache.Between(a, b)
			if d > maxDistance {
				continue
			}

			g.Adjacency[a.ID] = append(g.Adjacency[a.ID], models.Edge{NeighborID: b.ID, LengthKm: d})
			g.Adjacency[b.ID] = append(g.Adjacency[b.ID], models.Edge{NeighborID: a.ID, LengthKm: d})
		}
	}

	return g, nil
}

// Persist writes one node record and one adjacency record per node, then the
// build record and the node index, and commits. Every call records a fresh build id.
func Persist(ctx context.Context, store domain.RouteStore, g *Graph) error {
	for _, id := range g.IDs {
		if err := store.StoreNode(ctx, g.Nodes[id]); err != nil {
			return fmt.Errorf("storing node %q: %w", id, err)
		}

		if err := store.StoreEdges(ctx, id, g.Adjacency[id]); err != nil {
			return fmt.Errorf("storing edges for %q: %w", id, err)
		}
	}

	info := models.BuildInfo{ID: uuid.NewString(), MaxDistance: g.MaxDistance}
	if err := store.StoreBuildInfo(ctx, info); err != nil {
		return fmt.Errorf("storing build info: %w", err)
	}

	if err := store.StoreNodeIDs(ctx, g.IDs); err != nil {
		return fmt.Errorf("storing node index: %w", err)
	}

	if err := store.Commit(ctx); err != nil {
		return fmt.Errorf("committing graph: %w", err)
	}

	return nil
}

// Connect computes the adjacency of a node that is not part of the persisted
// graph, such as a query origin: every indexed node within maxDistance, in index order.
func Connect(ctx context.Context, reader domain.GraphReader, origin *models.Node, maxDistance float64) ([]models.Edge, error) {
	ids, err := reader.ListNodeIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing node ids: %w", err)
	}

	edges := make([]models.Edge, 0)

	for _, id := range ids {
		if id == origin.ID {
			continue
		}

		n, err := reader.GetNode(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading indexed node %q: %w", id, err)
		}

		d := geo.Between(n, origin)
		if d <= maxDistance {
			edges = append(edges, models.Edge{NeighborID: id, LengthKm: d})
		}
	}

	return edges, nil
}
