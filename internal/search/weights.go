package search

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/models"
)

// Bias weight defaults.
const (
	DefaultWeight   = 10.0
	StartWeight     = 0.504597714410906
	MaxPerturbation = 10.0
)

// WeightConfig tunes the bias search.
type WeightConfig struct {
	// DefaultWeight seeds the best-known weight before any run improves on it.
	DefaultWeight float64
	// StartWeight is the weight of the first walk.
	StartWeight float64
	// MaxPerturbation bounds the random step applied to the best weight.
	MaxPerturbation float64
}

// DefaultWeightConfig returns the standard tuning constants.
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		DefaultWeight:   DefaultWeight,
		StartWeight:     StartWeight,
		MaxPerturbation: MaxPerturbation,
	}
}

// Iteration records one walk of a weight search.
type Iteration struct {
	Weight   float64
	Items    int
	Improved bool
}

// Result is the outcome of a weight search.
type Result struct {
	Best        *models.Route
	BestWeight  float64
	BestItems   int
	Trace       []Iteration
	Checkpoints int
}

// WeightSearch repeats the walker under a randomly perturbed bias weight, keeping
// the best route seen. It is a hill climb with random-walk steps.
type WeightSearch struct {
	walker *Walker
	cfg    WeightConfig
	log    *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWeightSearch creates a WeightSearch. A nil rng is replaced by a time-seeded one.
func NewWeightSearch(walker *Walker, cfg WeightConfig, rng *rand.Rand, log *logrus.Logger) *WeightSearch {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}

	if cfg.MaxPerturbation <= 0 {
		cfg.MaxPerturbation = MaxPerturbation
	}

	return &WeightSearch{walker: walker, cfg: cfg, rng: rng, log: log}
}

// Run performs exactly runs walks from origin. Zero runs yields an empty route.
func (s *WeightSearch) Run(ctx context.Context, origin *models.Node, runs int) (*Result, error) {
	res := &Result{
		Best:       models.EmptyRoute(),
		BestWeight: s.cfg.DefaultWeight,
		Trace:      make([]Iteration, 0, max(runs, 0)),
	}

	if runs <= 0 {
		return res, nil
	}

	weight := s.cfg.StartWeight
	found := false

	for range runs {
		out, err := s.walker.Walk(ctx, origin, weight)
		if err != nil {
			return nil, err
		}

		res.Checkpoints += len(out.Checkpoints)
		items := out.Best.ItemCount()
		improved := items > res.BestItems

		switch {
		case improved:
			res.BestItems = items
			res.BestWeight = weight
			res.Best = out.Best
		case !found:
			// Nothing beats zero items yet; keep the earliest route so ties go to the first found.
			res.Best = out.Best
		}

		found = true

		res.Trace = append(res.Trace, Iteration{Weight: weight, Items: items, Improved: improved})

		weight = res.BestWeight + s.perturbation()
	}

	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"origin_id":   origin.ID,
			"runs":        runs,
			"best_weight": res.BestWeight,
			"best_items":  res.BestItems,
		}).Debug("search.weights")
	}

	return res, nil
}

// perturbation draws a step uniformly from (-MaxPerturbation, MaxPerturbation).
func (s *WeightSearch) perturbation() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	step := s.rng.Float64() * s.cfg.MaxPerturbation
	if s.rng.IntN(2) == 0 {
		step = -step
	}

	return step
}
