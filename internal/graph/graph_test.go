package graph_test

import (
	"context"
	"errors"
	"testing"

	"github.com/persistorai/orienteer/internal/geo"
	"github.com/persistorai/orienteer/internal/graph"
	"github.com/persistorai/orienteer/internal/models"
	"github.com/persistorai/orienteer/internal/store/memstore"
)

// scenarioNodes are three points used throughout the engine tests:
// 1–3 is 820.731 km, 2–3 is 501.905 km, 1–2 is 1105.583 km.
func scenarioNodes() []models.Node {
	return []models.Node{
		models.NewNode("1", "One", 34, 2),
		models.NewNode("2", "Two", 34, 14),
		models.NewNode("3", "Three", 31, 10),
	}
}

func TestBuild_PrunesAndMirrorsEdges(t *testing.T) {
	cache := geo.NewDistanceCache()

	g, err := graph.Build(scenarioNodes(), 1000, cache)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := map[string][]models.Edge{
		"1": {{NeighborID: "3", LengthKm: 820.731}},
		"2": {{NeighborID: "3", LengthKm: 501.905}},
		"3": {{NeighborID: "1", LengthKm: 820.731}, {NeighborID: "2", LengthKm: 501.905}},
	}

	for id, wantEdges := range want {
		got := g.Adjacency[id]
		if len(got) != len(wantEdges) {
			t.Fatalf("adjacency[%s] = %v, want %v", id, got, wantEdges)
		}

		for i := range got {
			if got[i] != wantEdges[i] {
				t.Errorf("adjacency[%s][%d] = %v, want %v", id, i, got[i], wantEdges[i])
			}
		}
	}

	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", g.EdgeCount())
	}

	if cache.Computations() != 3 {
		t.Errorf("distance computations = %d, want 3 (one per pair)", cache.Computations())
	}
}

func TestBuild_EdgeInvariants(t *testing.T) {
	nodes := []models.Node{
		models.NewNode("a", "", 50, 0),
		models.NewNode("b", "", 51, 1),
		models.NewNode("c", "", 52, 3),
		models.NewNode("d", "", 40, -3),
		models.NewNode("e", "", 50.5, 0.5),
	}
	const maxDistance = 200.0

	g, err := graph.Build(nodes, maxDistance, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for id, edges := range g.Adjacency {
		for _, e := range edges {
			if e.NeighborID == id {
				t.Errorf("self loop on %s", id)
			}
			if e.LengthKm > maxDistance {
				t.Errorf("edge %s->%s length %v exceeds %v", id, e.NeighborID, e.LengthKm, maxDistance)
			}

			mirrored := false
			for _, back := range g.Adjacency[e.NeighborID] {
				if back.NeighborID == id && back.LengthKm == e.LengthKm {
					mirrored = true
				}
			}
			if !mirrored {
				t.Errorf("edge %s->%s has no mirror", id, e.NeighborID)
			}
		}
	}

	for i := range nodes {
		for j := range nodes {
			if i == j {
				continue
			}
			d := geo.Between(&nodes[i], &nodes[j])
			found := false
			for _, e := range g.Adjacency[nodes[i].ID] {
				if e.NeighborID == nodes[j].ID {
					found = true
				}
			}
			if (d <= maxDistance) != found {
				t.Errorf("pair %s-%s: distance %v, edge present %v", nodes[i].ID, nodes[j].ID, d, found)
			}
		}
	}
}

func TestBuild_Errors(t *testing.T) {
	if _, err := graph.Build(scenarioNodes(), 0, nil); !errors.Is(err, models.ErrInvalidMaxDistance) {
		t.Errorf("zero max distance: got %v", err)
	}

	dup := []models.Node{models.NewNode("1", "", 0, 0), models.NewNode("1", "", 1, 1)}
	if _, err := graph.Build(dup, 100, nil); !errors.Is(err, models.ErrDuplicateKey) {
		t.Errorf("duplicate ids: got %v", err)
	}

	missing := []models.Node{models.NewNode("", "", 0, 0)}
	if _, err := graph.Build(missing, 100, nil); !errors.Is(err, models.ErrMissingID) {
		t.Errorf("missing id: got %v", err)
	}
}

func TestPersistAndConnect(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	g, err := graph.Build(scenarioNodes(), 1000, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if err := graph.Persist(ctx, store, g); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	ids, err := store.ListNodeIDs(ctx)
	if err != nil || len(ids) != 3 || ids[0] != "1" || ids[2] != "3" {
		t.Fatalf("ListNodeIDs = %v, %v", ids, err)
	}

	if store.Commits() != 1 {
		t.Errorf("commits = %d, want 1", store.Commits())
	}

	first, err := store.GetBuildInfo(ctx)
	if err != nil || first.MaxDistance != 1000 || first.ID == "" {
		t.Fatalf("GetBuildInfo = %+v, %v, want a 1000 km build", first, err)
	}

	if err := graph.Persist(ctx, store, g); err != nil {
		t.Fatalf("second Persist: %v", err)
	}

	second, err := store.GetBuildInfo(ctx)
	if err != nil || second.ID == first.ID {
		t.Errorf("rebuild kept build id %q (%v)", first.ID, err)
	}

	origin := models.NewNode("origin", "", 35, 2)

	edges, err := graph.Connect(ctx, store, &origin, 1000)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	want := []models.Edge{{NeighborID: "1", LengthKm: 111.195}, {NeighborID: "3", LengthKm: 868.121}}
	if len(edges) != len(want) {
		t.Fatalf("origin edges = %v, want %v", edges, want)
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("origin edge %d = %v, want %v", i, edges[i], want[i])
		}
	}
}
