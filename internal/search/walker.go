// Package search implements the budgeted route search: a greedy walker that
// checkpoints every feasible stopping point, a stochastic bias tuner that repeats
// it, and the Finder that runs one query against a RouteStore.
package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/geo"
	"github.com/persistorai/orienteer/internal/models"
)

// State is the walker's position in its state machine.
type State int

// Walker states. Checkpointed and Exhausted are terminal.
const (
	StateWalking State = iota
	StateCheckpointed
	StateExhausted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateWalking:
		return "walking"
	case StateCheckpointed:
		return "checkpointed"
	case StateExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome is the result of one walk.
type Outcome struct {
	// Best is the selected checkpoint.
	Best *models.Route
	// Checkpoints holds every closed candidate in the order it was produced.
	Checkpoints []*models.Route
	// Final is the terminal state the walk stopped in.
	Final State
}

// Walker performs a single greedy walk from an origin within a round-trip budget.
type Walker struct {
	graph  domain.GraphReader
	budget float64
	log    *logrus.Logger
}

// NewWalker creates a Walker whose round-trip budget is twice maxDistance.
func NewWalker(graph domain.GraphReader, maxDistance float64, log *logrus.Logger) *Walker {
	return &Walker{graph: graph, budget: 2 * maxDistance, log: log}
}

// Budget returns the round-trip budget in kilometres.
func (w *Walker) Budget() float64 {
	return w.budget
}

// Walk advances greedily from origin, always to the unvisited neighbor with the
// lowest edge length minus its distinct item count times weight. Whenever the
// chosen step would make the round trip exceed the budget, a closed copy of the
// route so far is recorded as a checkpoint and the walk continues anyway. The
// walk ends when the outbound distance reaches the budget or no unvisited
// neighbor remains.
func (w *Walker) Walk(ctx context.Context, origin *models.Node, weight float64) (*Outcome, error) {
	current := models.NewRoute(*origin)
	visited := map[string]struct{}{origin.ID: {}}
	checkpoints := make([]*models.Route, 0, 4)
	outbound := 0.0
	state := StateWalking

	for state == StateWalking {
		here := current.Current()

		if outbound >= w.budget {
			state = StateCheckpointed

			break
		}

		edges, err := w.graph.GetEdges(ctx, here.ID)
		if err != nil {
			return nil, fmt.Errorf("loading edges of %q: %w", here.ID, err)
		}

		next, hop, err := w.nearest(ctx, edges, visited, weight)
		if err != nil {
			return nil, err
		}

		if next == nil {
			state = StateExhausted

			break
		}

		if outbound+hop+geo.Between(next, origin) > w.budget {
			snapshot := current.Clone()
			snapshot.Close(geo.Between(&here, origin))
			checkpoints = append(checkpoints, snapshot)
		}

		current.Extend(*next, hop)
		visited[next.ID] = struct{}{}
		outbound += hop
	}

	last := current.Current()
	current.Close(geo.Between(&last, origin))
	checkpoints = append(checkpoints, current)

	best := selectCheckpoint(checkpoints, w.budget)

	if w.log != nil {
		w.log.WithFields(logrus.Fields{
			"origin_id":   origin.ID,
			"weight":      weight,
			"state":       state.String(),
			"checkpoints": len(checkpoints),
			"items":       best.ItemCount(),
			"distance_km": best.TotalDistance(),
		}).Debug("search.walk")
	}

	return &Outcome{Best: best, Checkpoints: checkpoints, Final: state}, nil
}

// nearest returns the unvisited neighbor with the strictly lowest adjusted cost,
// scanning edges in adjacency order so the first of equal candidates wins.
func (w *Walker) nearest(
	ctx context.Context,
	edges []models.Edge,
	visited map[string]struct{},
	weight float64,
) (*models.Node, float64, error) {
	var (
		best     *models.Node
		bestHop  float64
		bestCost float64
	)

	for _, e := range edges {
		if _, seen := visited[e.NeighborID]; seen {
			continue
		}

		n, err := w.graph.GetNode(ctx, e.NeighborID)
		if err != nil {
			if errors.Is(err, models.ErrNodeNotFound) {
				return nil, 0, fmt.Errorf("neighbor %q: %w", e.NeighborID, models.ErrStoreInconsistent)
			}

			return nil, 0, fmt.Errorf("loading neighbor %q: %w", e.NeighborID, err)
		}

		cost := e.LengthKm - float64(n.DistinctItems())*weight
		if best == nil || cost < bestCost {
			best, bestHop, bestCost = n, e.LengthKm, cost
		}
	}

	return best, bestHop, nil
}

// selectCheckpoint picks the in-budget checkpoint with the most distinct items,
// first wins on ties. Without any in-budget checkpoint the first one is returned.
func selectCheckpoint(checkpoints []*models.Route, budget float64) *models.Route {
	var best *models.Route

	for _, c := range checkpoints {
		if c.TotalDistance() > budget {
			continue
		}

		if best == nil || c.ItemCount() > best.ItemCount() {
			best = c
		}
	}

	if best == nil {
		return checkpoints[0]
	}

	return best
}
