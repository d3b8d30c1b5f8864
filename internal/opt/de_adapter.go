package opt

import (
	"github.com/cwbudde/devolve/internal/de"
	"github.com/cwbudde/devolve/internal/objective"
	"github.com/cwbudde/devolve/internal/polish"
)

// DEAdapter runs the differential evolution solver behind the Optimizer
// interface. The scalar objective is lifted to batches with a concurrent
// evaluator, so batch parallelism stays inside the evaluation backend.
type DEAdapter struct {
	cfg     de.Config
	workers int
}

// NewDE creates a differential evolution adapter. maxIters and popSize of
// zero fall back to the solver defaults.
func NewDE(strategy de.Strategy, maxIters, popSize int, seed int64, doPolish bool) Optimizer {
	cfg := de.DefaultConfig()
	if strategy != "" {
		cfg.Strategy = strategy
	}
	if maxIters > 0 {
		cfg.MaxIter = maxIters
	}
	cfg.PopSize = popSize
	cfg.Seed = seed
	if doPolish {
		cfg.Polish = &polish.NelderMead{}
	}
	return &DEAdapter{cfg: cfg}
}

// Run executes the DE solver over the given box.
func (a *DEAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64, error) {
	evaluator := objective.NewConcurrent(eval, a.workers)
	solver, err := de.New(evaluator, lower[:dim], upper[:dim], a.cfg)
	if err != nil {
		return nil, 0, err
	}
	result, err := solver.Solve()
	if err != nil {
		return nil, 0, err
	}
	return result.X, result.Cost, nil
}
