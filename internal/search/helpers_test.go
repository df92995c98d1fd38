package search

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/graph"
	"github.com/persistorai/orienteer/internal/models"
	"github.com/persistorai/orienteer/internal/store/memstore"
)

const testMaxDistance = 1000.0

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

// scenarioNodes: 1–3 is 820.731 km, 2–3 is 501.905 km, 1–2 exceeds 1000 km.
func scenarioNodes() []models.Node {
	return []models.Node{
		models.NewNode("1", "One", 34, 2),
		models.NewNode("2", "Two", 34, 14),
		models.NewNode("3", "Three", 31, 10),
	}
}

// seedStore builds and persists a graph into a fresh memstore.
func seedStore(t *testing.T, nodes []models.Node, maxDistance float64) *memstore.Store {
	t.Helper()

	g, err := graph.Build(nodes, maxDistance, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	s := memstore.New()
	if err := graph.Persist(context.Background(), s, g); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	return s
}

// addOrigin connects and stores an origin node the way Finder does.
func addOrigin(t *testing.T, s *memstore.Store, origin models.Node, maxDistance float64) *models.Node {
	t.Helper()

	ctx := context.Background()

	edges, err := graph.Connect(ctx, s, &origin, maxDistance)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := s.InsertNode(ctx, origin, edges); err != nil {
		t.Fatalf("InsertNode: %v", err)
	}

	return &origin
}

func pathIDs(r *models.Route) []string {
	ids := make([]string, len(r.Path))
	for i := range r.Path {
		ids[i] = r.Path[i].ID
	}

	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// randomNodes scatters n nodes over a small region with a few items each.
func randomNodes(rng *rand.Rand, n int) []models.Node {
	labels := []string{"pils", "stout", "porter", "ipa", "saison", "bock", "gose", "lambic", "dubbel", "tripel"}
	nodes := make([]models.Node, 0, n)

	for i := range n {
		items := make([]string, rng.IntN(4))
		for j := range items {
			items[j] = labels[rng.IntN(len(labels))]
		}

		nodes = append(nodes, models.NewNode(
			string(rune('a'+i%26))+string(rune('0'+i/26)),
			"",
			45+rng.Float64()*6,
			rng.Float64()*8,
			items...,
		))
	}

	return nodes
}
