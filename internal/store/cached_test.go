package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/models"
	"github.com/persistorai/orienteer/internal/store"
	"github.com/persistorai/orienteer/internal/store/memstore"
	"github.com/persistorai/orienteer/internal/store/storetest"
)

// countingStore counts backend reads.
type countingStore struct {
	*memstore.Store
	nodeReads int
	edgeReads int
}

func (c *countingStore) GetNode(ctx context.Context, id string) (*models.Node, error) {
	c.nodeReads++

	return c.Store.GetNode(ctx, id)
}

func (c *countingStore) GetEdges(ctx context.Context, id string) ([]models.Edge, error) {
	c.edgeReads++

	return c.Store.GetEdges(ctx, id)
}

func newCached(t *testing.T, inner domain.RouteStore) *store.Cached {
	t.Helper()

	c, err := store.NewCached(inner, 100)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	t.Cleanup(c.Close)

	return c
}

func TestCached_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.RouteStore {
		return newCached(t, memstore.New())
	})
}

func TestCached_ServesIndexedNodesFromCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memstore.New()}
	c := newCached(t, inner)

	if err := c.StoreNode(ctx, models.NewNode("1", "One", 1, 1)); err != nil {
		t.Fatalf("StoreNode: %v", err)
	}
	if err := c.StoreEdges(ctx, "1", []models.Edge{{NeighborID: "2", LengthKm: 5}}); err != nil {
		t.Fatalf("StoreEdges: %v", err)
	}
	if err := c.StoreNodeIDs(ctx, []string{"1"}); err != nil {
		t.Fatalf("StoreNodeIDs: %v", err)
	}

	if _, err := c.GetNode(ctx, "1"); err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if _, err := c.GetEdges(ctx, "1"); err != nil {
		t.Fatalf("GetEdges: %v", err)
	}
	c.Wait()

	for range 3 {
		n, err := c.GetNode(ctx, "1")
		if err != nil || n.Name != "One" {
			t.Fatalf("cached GetNode = %+v, %v", n, err)
		}

		n.Name = "mutated"

		if _, err := c.GetEdges(ctx, "1"); err != nil {
			t.Fatalf("cached GetEdges: %v", err)
		}
	}

	if inner.nodeReads != 1 || inner.edgeReads != 1 {
		t.Errorf("backend reads = %d nodes / %d edges, want 1 / 1", inner.nodeReads, inner.edgeReads)
	}

	n, err := c.GetNode(ctx, "1")
	if err != nil || n.Name != "One" {
		t.Errorf("caller mutation leaked into the cache: %+v, %v", n, err)
	}
}

func TestCached_OriginsBypassCache(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: memstore.New()}
	c := newCached(t, inner)

	if err := c.InsertNode(ctx, models.NewNode("origin-x", "", 0, 0), nil); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	if _, err := c.GetNode(ctx, "origin-x"); err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	c.Wait()

	if err := c.DeleteNode(ctx, "origin-x"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	if _, err := c.GetNode(ctx, "origin-x"); !errors.Is(err, models.ErrNodeNotFound) {
		t.Errorf("deleted origin still visible: %v", err)
	}

	if inner.nodeReads != 2 {
		t.Errorf("backend node reads = %d, want 2", inner.nodeReads)
	}
}

// plainStore hides the backend's InsertNode and can fail node reads.
type plainStore struct {
	domain.RouteStore
	getErr error
}

func (p *plainStore) GetNode(ctx context.Context, id string) (*models.Node, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}

	return p.RouteStore.GetNode(ctx, id)
}

func TestCached_InsertWithoutBackendInsert(t *testing.T) {
	ctx := context.Background()
	readErr := errors.New("connection reset")

	tests := []struct {
		name     string
		existing bool
		getErr   error
		wantErr  error
		wantNode bool
	}{
		{"free id", false, nil, nil, true},
		{"taken id", true, nil, models.ErrDuplicateKey, true},
		{"read failure is not a free id", false, readErr, readErr, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := memstore.New()
			if tc.existing {
				if err := inner.StoreNode(ctx, models.NewNode("origin-y", "", 0, 0)); err != nil {
					t.Fatalf("StoreNode: %v", err)
				}
			}

			c := newCached(t, &plainStore{RouteStore: inner, getErr: tc.getErr})

			err := c.InsertNode(ctx, models.NewNode("origin-y", "", 1, 1), []models.Edge{{NeighborID: "a", LengthKm: 1}})
			if tc.wantErr == nil && err != nil {
				t.Fatalf("InsertNode: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("InsertNode: expected %v, got %v", tc.wantErr, err)
			}

			if inner.Has("origin-y") != tc.wantNode {
				t.Errorf("node stored = %v, want %v", inner.Has("origin-y"), tc.wantNode)
			}
		})
	}
}

func TestCached_FollowsRebuildByAnotherWriter(t *testing.T) {
	ctx := context.Background()
	inner := memstore.New()
	c := newCached(t, inner)

	if err := c.StoreNode(ctx, models.NewNode("1", "Old", 1, 1)); err != nil {
		t.Fatalf("StoreNode: %v", err)
	}
	if err := c.StoreEdges(ctx, "1", []models.Edge{{NeighborID: "2", LengthKm: 5}}); err != nil {
		t.Fatalf("StoreEdges: %v", err)
	}
	if err := c.StoreBuildInfo(ctx, models.BuildInfo{ID: "b1", MaxDistance: 1000}); err != nil {
		t.Fatalf("StoreBuildInfo: %v", err)
	}
	if err := c.StoreNodeIDs(ctx, []string{"1"}); err != nil {
		t.Fatalf("StoreNodeIDs: %v", err)
	}

	if _, err := c.GetNode(ctx, "1"); err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if _, err := c.GetEdges(ctx, "1"); err != nil {
		t.Fatalf("GetEdges: %v", err)
	}
	c.Wait()

	// A build in another process writes straight to the backend.
	if err := inner.StoreNode(ctx, models.NewNode("1", "New", 1, 1)); err != nil {
		t.Fatalf("inner StoreNode: %v", err)
	}
	if err := inner.StoreEdges(ctx, "1", []models.Edge{}); err != nil {
		t.Fatalf("inner StoreEdges: %v", err)
	}
	if err := inner.StoreNode(ctx, models.NewNode("3", "Three", 2, 2)); err != nil {
		t.Fatalf("inner StoreNode: %v", err)
	}
	if err := inner.StoreBuildInfo(ctx, models.BuildInfo{ID: "b2", MaxDistance: 500}); err != nil {
		t.Fatalf("inner StoreBuildInfo: %v", err)
	}
	if err := inner.StoreNodeIDs(ctx, []string{"1", "3"}); err != nil {
		t.Fatalf("inner StoreNodeIDs: %v", err)
	}

	ids, err := c.ListNodeIDs(ctx)
	if err != nil || len(ids) != 2 || ids[1] != "3" {
		t.Fatalf("ListNodeIDs = %v, %v, want [1 3]", ids, err)
	}

	n, err := c.GetNode(ctx, "1")
	if err != nil || n.Name != "New" {
		t.Errorf("GetNode after rebuild = %+v, %v, want the rebuilt node", n, err)
	}

	edges, err := c.GetEdges(ctx, "1")
	if err != nil || len(edges) != 0 {
		t.Errorf("GetEdges after rebuild = %v, %v, want none", edges, err)
	}

	n, err = c.GetNode(ctx, "3")
	if err != nil || n.Name != "Three" {
		t.Errorf("GetNode of new node = %+v, %v", n, err)
	}
}

func TestCached_RejectsNonPositiveSize(t *testing.T) {
	if _, err := store.NewCached(memstore.New(), 0); err == nil {
		t.Error("expected error for zero cache size")
	}
}

func TestOpen_Memory(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	h, err := store.Open(context.Background(), store.Options{Backend: store.BackendMemory, CacheSize: 10, Log: log})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, ok := h.Store.(*store.Cached); !ok {
		t.Errorf("store = %T, want *store.Cached", h.Store)
	}

	ctx := context.Background()
	if err := h.Store.StoreNode(ctx, models.NewNode("a", "A", 1, 1)); err != nil {
		t.Fatalf("StoreNode: %v", err)
	}
	if err := h.Store.StoreNodeIDs(ctx, []string{"a"}); err != nil {
		t.Fatalf("StoreNodeIDs: %v", err)
	}
	if _, err := h.Store.GetNode(ctx, "a"); err != nil {
		t.Fatalf("GetNode: %v", err)
	}

	if err := h.Reset(ctx); err != nil {
		t.Errorf("Reset: %v", err)
	}

	if _, err := h.Store.GetNode(ctx, "a"); !errors.Is(err, models.ErrNodeNotFound) {
		t.Errorf("GetNode after reset = %v, want ErrNodeNotFound", err)
	}

	if err := h.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := store.Open(context.Background(), store.Options{Backend: "floppy", Log: logrus.New()}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestOpen_BadgerDir(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	h, err := store.Open(context.Background(), store.Options{Backend: store.BackendBadger, BadgerDir: t.TempDir(), Log: log})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close() //nolint:errcheck // test teardown.

	if err := h.Store.StoreNodeIDs(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("StoreNodeIDs: %v", err)
	}

	if err := h.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	ids, err := h.Store.ListNodeIDs(context.Background())
	if err != nil || len(ids) != 0 {
		t.Errorf("ids after reset = %v, %v", ids, err)
	}
}
