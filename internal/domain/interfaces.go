// Package domain defines the canonical interfaces shared by the route engine,
// the store backends and the API layer. Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/persistorai/orienteer/internal/models"
)

// GraphReader is the read side of the persisted graph.
type GraphReader interface {
	// GetNode returns models.ErrNodeNotFound when id is absent.
	GetNode(ctx context.Context, id string) (*models.Node, error)
	// GetEdges returns an empty slice when id has no adjacency record.
	GetEdges(ctx context.Context, id string) ([]models.Edge, error)
	// ListNodeIDs returns the "contains" index in stored order.
	ListNodeIDs(ctx context.Context) ([]string, error)
}

// RouteStore is a key-addressed store for nodes, adjacency lists and the node index.
// Writes are visible to reads as soon as the call returns; Commit makes them durable.
type RouteStore interface {
	GraphReader

	StoreNode(ctx context.Context, node models.Node) error
	StoreEdges(ctx context.Context, id string, edges []models.Edge) error
	StoreNodeIDs(ctx context.Context, ids []string) error
	// StoreBuildInfo records which build, and which pruning radius, the graph holds.
	StoreBuildInfo(ctx context.Context, info models.BuildInfo) error
	// GetBuildInfo returns models.ErrBuildInfoNotFound when nothing is recorded.
	GetBuildInfo(ctx context.Context) (*models.BuildInfo, error)
	// DeleteNode removes both the node record and its edge list.
	DeleteNode(ctx context.Context, id string) error
	Commit(ctx context.Context) error
}

// OriginInserter is implemented by stores that can insert a node only when its id
// is unused, returning models.ErrDuplicateKey otherwise.
type OriginInserter interface {
	InsertNode(ctx context.Context, node models.Node, edges []models.Edge) error
}

// HealthChecker is implemented by stores that can report backend connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
