// Package storetest holds behaviour checks shared by every RouteStore backend.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/models"
)

// Opener returns an empty store for one subtest.
type Opener func(t *testing.T) domain.RouteStore

// Run exercises the RouteStore contract against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	t.Run("node round trip", func(t *testing.T) { testNodeRoundTrip(t, open(t)) })
	t.Run("missing node", func(t *testing.T) { testMissingNode(t, open(t)) })
	t.Run("edges keep order", func(t *testing.T) { testEdges(t, open(t)) })
	t.Run("node index keeps order", func(t *testing.T) { testNodeIDs(t, open(t)) })
	t.Run("delete removes node and edges", func(t *testing.T) { testDelete(t, open(t)) })
	t.Run("insert refuses duplicates", func(t *testing.T) { testInsert(t, open(t)) })
	t.Run("build info", func(t *testing.T) { testBuildInfo(t, open(t)) })
	t.Run("commit", func(t *testing.T) {
		if err := open(t).Commit(context.Background()); err != nil {
			t.Fatalf("Commit: %v", err)
		}
	})
}

func testNodeRoundTrip(t *testing.T, s domain.RouteStore) {
	ctx := context.Background()
	want := models.NewNode("n1", "Brewery", 35.5, -2.25, "pils", "stout", "pils")

	if err := s.StoreNode(ctx, want); err != nil {
		t.Fatalf("StoreNode: %v", err)
	}

	got, err := s.GetNode(ctx, "n1")
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}

	if got.ID != want.ID || got.Name != want.Name || got.Latitude != want.Latitude || got.Longitude != want.Longitude {
		t.Errorf("GetNode = %+v, want %+v", got, want)
	}

	if len(got.Items) != 3 || got.Items[2] != "pils" {
		t.Errorf("items = %v, want duplicates preserved", got.Items)
	}

	want.Name = "Renamed"
	if err := s.StoreNode(ctx, want); err != nil {
		t.Fatalf("StoreNode overwrite: %v", err)
	}

	got, err = s.GetNode(ctx, "n1")
	if err != nil {
		t.Fatalf("GetNode after overwrite: %v", err)
	}

	if got.Name != "Renamed" {
		t.Errorf("name = %q, want overwrite to win", got.Name)
	}
}

func testMissingNode(t *testing.T, s domain.RouteStore) {
	ctx := context.Background()

	if _, err := s.GetNode(ctx, "nope"); !errors.Is(err, models.ErrNodeNotFound) {
		t.Errorf("GetNode missing: expected ErrNodeNotFound, got %v", err)
	}

	edges, err := s.GetEdges(ctx, "nope")
	if err != nil {
		t.Fatalf("GetEdges missing: %v", err)
	}

	if edges == nil || len(edges) != 0 {
		t.Errorf("GetEdges missing = %#v, want empty slice", edges)
	}

	ids, err := s.ListNodeIDs(ctx)
	if err != nil {
		t.Fatalf("ListNodeIDs on empty store: %v", err)
	}

	if len(ids) != 0 {
		t.Errorf("ListNodeIDs on empty store = %v", ids)
	}
}

func testEdges(t *testing.T, s domain.RouteStore) {
	ctx := context.Background()

	if err := s.StoreNode(ctx, models.NewNode("a", "", 0, 0)); err != nil {
		t.Fatalf("StoreNode: %v", err)
	}

	want := []models.Edge{{NeighborID: "c", LengthKm: 3.5}, {NeighborID: "b", LengthKm: 1.25}}
	if err := s.StoreEdges(ctx, "a", want); err != nil {
		t.Fatalf("StoreEdges: %v", err)
	}

	got, err := s.GetEdges(ctx, "a")
	if err != nil {
		t.Fatalf("GetEdges: %v", err)
	}

	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("GetEdges = %v, want %v", got, want)
	}

	if err := s.StoreEdges(ctx, "a", nil); err != nil {
		t.Fatalf("StoreEdges empty: %v", err)
	}

	got, err = s.GetEdges(ctx, "a")
	if err != nil {
		t.Fatalf("GetEdges after clear: %v", err)
	}

	if len(got) != 0 {
		t.Errorf("GetEdges after clear = %v", got)
	}
}

func testNodeIDs(t *testing.T, s domain.RouteStore) {
	ctx := context.Background()
	want := []string{"z", "a", "m"}

	for _, id := range want {
		if err := s.StoreNode(ctx, models.NewNode(id, "", 1, 1)); err != nil {
			t.Fatalf("StoreNode: %v", err)
		}
	}

	if err := s.StoreNodeIDs(ctx, want); err != nil {
		t.Fatalf("StoreNodeIDs: %v", err)
	}

	got, err := s.ListNodeIDs(ctx)
	if err != nil {
		t.Fatalf("ListNodeIDs: %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("ListNodeIDs = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ListNodeIDs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func testBuildInfo(t *testing.T, s domain.RouteStore) {
	ctx := context.Background()

	if _, err := s.GetBuildInfo(ctx); !errors.Is(err, models.ErrBuildInfoNotFound) {
		t.Errorf("GetBuildInfo on empty store: expected ErrBuildInfoNotFound, got %v", err)
	}

	for _, want := range []models.BuildInfo{{ID: "b1", MaxDistance: 500}, {ID: "b2", MaxDistance: 1000}} {
		if err := s.StoreBuildInfo(ctx, want); err != nil {
			t.Fatalf("StoreBuildInfo(%+v): %v", want, err)
		}

		got, err := s.GetBuildInfo(ctx)
		if err != nil {
			t.Fatalf("GetBuildInfo: %v", err)
		}

		if *got != want {
			t.Errorf("GetBuildInfo = %+v, want %+v", *got, want)
		}
	}
}

func testDelete(t *testing.T, s domain.RouteStore) {
	ctx := context.Background()

	if err := s.StoreNode(ctx, models.NewNode("gone", "", 0, 0)); err != nil {
		t.Fatalf("StoreNode: %v", err)
	}

	if err := s.StoreEdges(ctx, "gone", []models.Edge{{NeighborID: "x", LengthKm: 1}}); err != nil {
		t.Fatalf("StoreEdges: %v", err)
	}

	if err := s.DeleteNode(ctx, "gone"); err != nil {
		t.Fatalf("DeleteNode: %v", err)
	}

	if _, err := s.GetNode(ctx, "gone"); !errors.Is(err, models.ErrNodeNotFound) {
		t.Errorf("GetNode after delete: expected ErrNodeNotFound, got %v", err)
	}

	edges, err := s.GetEdges(ctx, "gone")
	if err != nil {
		t.Fatalf("GetEdges after delete: %v", err)
	}

	if len(edges) != 0 {
		t.Errorf("edges survived delete: %v", edges)
	}

	if err := s.DeleteNode(ctx, "gone"); !errors.Is(err, models.ErrNodeNotFound) {
		t.Errorf("second DeleteNode: expected ErrNodeNotFound, got %v", err)
	}
}

func testInsert(t *testing.T, s domain.RouteStore) {
	inserter, ok := s.(domain.OriginInserter)
	if !ok {
		t.Skip("store does not implement InsertNode")
	}

	ctx := context.Background()
	origin := models.NewNode("origin-1", "", 10, 10)
	edges := []models.Edge{{NeighborID: "n", LengthKm: 2}}

	if err := inserter.InsertNode(ctx, origin, edges); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	if err := inserter.InsertNode(ctx, origin, nil); !errors.Is(err, models.ErrDuplicateKey) {
		t.Errorf("second InsertNode: expected ErrDuplicateKey, got %v", err)
	}

	got, err := s.GetEdges(ctx, "origin-1")
	if err != nil {
		t.Fatalf("GetEdges: %v", err)
	}

	if len(got) != 1 || got[0] != edges[0] {
		t.Errorf("edges = %v, want %v", got, edges)
	}

	ids, err := s.ListNodeIDs(ctx)
	if err != nil {
		t.Fatalf("ListNodeIDs: %v", err)
	}

	for _, id := range ids {
		if id == "origin-1" {
			t.Error("inserted origin leaked into the node index")
		}
	}
}
