// Package de implements differential evolution, a derivative-free global
// optimizer for box-constrained continuous objectives. The solver owns a
// normalized population in the unit hypercube and delegates all objective
// work to a batch Evaluator, issuing exactly one evaluator call per
// generation so that array- or accelerator-parallel backends see full
// batches.
package de

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Evaluator scores a batch of candidate parameter vectors. Evaluate receives
// one row per population member, in real parameter space, and must return one
// cost per row in the same order. The solver blocks on the call and never
// proceeds with partial results; errors are propagated out of Solve
// unchanged.
type Evaluator interface {
	Evaluate(params [][]float64) ([]float64, error)
}

// Status messages carried by Result.Message.
const (
	msgConverged = "convergence tolerance reached"
	msgMaxIter   = "maximum number of generations reached"
	msgEarlyStop = "stopped early by early-stop predicate"
)

// Result is the outcome of a solve.
type Result struct {
	// X is the best parameter vector found, in real space.
	X []float64

	// Cost is the objective value at X.
	Cost float64

	// NumEvals counts objective evaluations, including the initial batch and
	// any spent by polishing.
	NumEvals int

	// Generations is the number of completed generations.
	Generations int

	// Message describes how the run terminated.
	Message string

	// Success reports whether the convergence tolerance was reached. Hitting
	// the generation limit or an early stop yields a valid result with
	// Success false.
	Success bool

	// Gradient is the objective gradient at X, present only when polishing
	// improved the result.
	Gradient []float64
}

// Solver evolves a candidate population toward the minimum of a bounded
// objective. Construct with New, run with Solve. A Solver is single-use and
// not safe for concurrent use; batch parallelism belongs to the Evaluator.
type Solver struct {
	cfg    Config
	eval   Evaluator
	strat  strategySpec
	scaler *Scaler
	rng    *rand.Rand

	lower, upper []float64
	dim          int

	// pop rows live in the unit hypercube; costs is index-aligned with pop
	// and slot 0 always holds the lowest cost seen in-population, restored by
	// swapping after every cost update.
	pop   [][]float64
	costs []float64

	// trial and real are per-generation scratch, storage-disjoint from pop
	// until selection commits improvements row by row.
	trial  [][]float64
	real   [][]float64
	mutant []float64
	picks  []int

	nfev       int
	generation int
}

// New validates the configuration, builds the scaler from bounds, and samples
// the initial population. No objective evaluation happens here; the initial
// batch is evaluated by Solve so that evaluator failures surface from the
// call that runs the machine.
func New(eval Evaluator, lower, upper []float64, cfg Config) (*Solver, error) {
	if eval == nil {
		return nil, fmt.Errorf("evaluator is nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	scaler, err := NewScaler(lower, upper)
	if err != nil {
		return nil, fmt.Errorf("invalid bounds: %w", err)
	}

	dim := scaler.Dim()
	n := cfg.popSize(dim)
	strat := strategies[cfg.Strategy]
	// Every strategy needs its partner count plus the excluded reference.
	if n < strat.partners+1 {
		return nil, fmt.Errorf("population size %d too small for strategy %q (needs at least %d)",
			n, cfg.Strategy, strat.partners+1)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	s := &Solver{
		cfg:    cfg,
		eval:   eval,
		strat:  strat,
		scaler: scaler,
		rng:    rng,
		lower:  append([]float64(nil), lower...),
		upper:  append([]float64(nil), upper...),
		dim:    dim,
		costs:  make([]float64, n),
		trial:  makeMatrix(n, dim),
		real:   makeMatrix(n, dim),
		mutant: make([]float64, dim),
		picks:  make([]int, 0, n-1),
	}

	switch cfg.Init {
	case InitLatinHypercube:
		s.pop = latinHypercube(rng, n, dim)
	case InitRandom:
		s.pop = randomInit(rng, n, dim)
	}
	for i := range s.costs {
		s.costs[i] = math.Inf(1)
	}

	return s, nil
}

// PopSize returns the resolved population size.
func (s *Solver) PopSize() int {
	return len(s.pop)
}

// Best returns a copy of the current best candidate in real space.
func (s *Solver) Best() []float64 {
	return s.scaler.Real(s.pop[0])
}

// BestCost returns the cost of the current best candidate.
func (s *Solver) BestCost() float64 {
	return s.costs[0]
}

// Costs returns a copy of the current cost vector.
func (s *Solver) Costs() []float64 {
	return append([]float64(nil), s.costs...)
}

// Convergence returns the current stopping statistic.
func (s *Solver) Convergence() float64 {
	return convergence(s.costs)
}

// NumEvals returns the objective evaluations spent so far.
func (s *Solver) NumEvals() int {
	return s.nfev
}

// Solve runs the state machine to completion: initial evaluation, then one
// generation per iteration until the tolerance is met, the generation limit
// is hit, or the early-stop predicate fires, followed by optional polishing.
func (s *Solver) Solve() (*Result, error) {
	slog.Info("Starting differential evolution",
		"strategy", s.cfg.Strategy,
		"dim", s.dim,
		"pop_size", len(s.pop),
		"max_iter", s.cfg.MaxIter,
		"tol", s.cfg.Tol,
	)

	if err := s.evaluateInitial(); err != nil {
		return nil, err
	}

	res := &Result{
		Message: msgMaxIter,
	}

	for s.generation = 1; s.generation <= s.cfg.MaxIter; s.generation++ {
		if err := s.evolve(); err != nil {
			return nil, err
		}

		conv := s.Convergence()
		best := s.Best()
		slog.Debug("Generation complete",
			"generation", s.generation,
			"best_cost", s.costs[0],
			"convergence", conv,
		)

		for _, cb := range s.cfg.Callbacks {
			cb(s.generation, best, s.costs[0])
		}

		if s.cfg.EarlyStop != nil && s.cfg.EarlyStop(best, fraction(s.cfg.Tol, conv)) {
			res.Message = msgEarlyStop
			break
		}
		if conv < s.cfg.Tol {
			res.Message = msgConverged
			res.Success = true
			break
		}
	}
	if s.generation > s.cfg.MaxIter {
		s.generation = s.cfg.MaxIter
	}

	res.X = s.Best()
	res.Cost = s.costs[0]
	res.Generations = s.generation

	if s.cfg.Polish != nil {
		if err := s.polish(res); err != nil {
			return nil, err
		}
	}
	res.NumEvals = s.nfev

	slog.Info("Differential evolution finished",
		"generations", res.Generations,
		"nfev", res.NumEvals,
		"best_cost", res.Cost,
		"success", res.Success,
		"message", res.Message,
	)
	return res, nil
}

// evaluateInitial scores the freshly sampled population and establishes the
// best-at-slot-0 invariant.
func (s *Solver) evaluateInitial() error {
	for i := range s.pop {
		s.scaler.RealInto(s.real[i], s.pop[i])
	}
	costs, err := s.callEvaluator(s.real)
	if err != nil {
		return err
	}
	copy(s.costs, costs)
	s.promoteBest()
	return nil
}

// evolve runs one generation. The entire trial population is assembled from
// prior-generation state before the single batch evaluation; canonical DE
// instead folds each accepted trial back into the population mid-generation.
// The generational form trades some convergence speed for whole-batch
// evaluator calls and is deliberate, not a deviation to fix.
func (s *Solver) evolve() error {
	f := s.cfg.Mutation
	if s.cfg.Dither != nil {
		f = s.cfg.Dither[0] + s.rng.Float64()*(s.cfg.Dither[1]-s.cfg.Dither[0])
	}

	n := len(s.pop)
	for i := 0; i < n; i++ {
		copy(s.trial[i], s.pop[i])
		r := drawIndices(s.picks, s.rng, n, i, s.strat.partners)
		s.strat.mutate(s.pop, i, r, f, s.mutant)
		switch s.strat.crossover {
		case binomial:
			crossBinomial(s.rng, s.trial[i], s.mutant, s.cfg.Recombination)
		case exponential:
			crossExponential(s.rng, s.trial[i], s.mutant, s.cfg.Recombination)
		}
		repair(s.rng, s.trial[i])
		s.scaler.RealInto(s.real[i], s.trial[i])
	}

	costs, err := s.callEvaluator(s.real)
	if err != nil {
		return err
	}

	// Strict-improvement selection; ties keep the incumbent.
	for i, c := range costs {
		if c < s.costs[i] {
			copy(s.pop[i], s.trial[i])
			s.costs[i] = c
		}
	}
	s.promoteBest()
	return nil
}

func (s *Solver) callEvaluator(params [][]float64) ([]float64, error) {
	costs, err := s.eval.Evaluate(params)
	if err != nil {
		return nil, fmt.Errorf("batch evaluation failed: %w", err)
	}
	if len(costs) != len(params) {
		return nil, fmt.Errorf("evaluator returned %d costs for %d candidates", len(costs), len(params))
	}
	s.nfev += len(costs)
	return costs, nil
}

// promoteBest swaps the lowest-cost slot into slot 0, candidate and cost
// together, so slot identity of the best is restored after every update.
func (s *Solver) promoteBest() {
	best := 0
	for i, c := range s.costs {
		if c < s.costs[best] {
			best = i
		}
	}
	if best != 0 {
		s.pop[0], s.pop[best] = s.pop[best], s.pop[0]
		s.costs[0], s.costs[best] = s.costs[best], s.costs[0]
	}
}

// polish hands the best candidate to the configured refiner and adopts the
// refined point only on strict improvement, keeping population state
// consistent with the reported result.
func (s *Solver) polish(res *Result) error {
	var evalErr error
	obj := func(x []float64) float64 {
		costs, err := s.eval.Evaluate([][]float64{x})
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return math.Inf(1)
		}
		return costs[0]
	}

	x, cost, grad, nfev, err := s.cfg.Polish.Refine(obj, res.X, s.lower, s.upper)
	s.nfev += nfev
	if evalErr != nil {
		return fmt.Errorf("batch evaluation failed: %w", evalErr)
	}
	if err != nil {
		return fmt.Errorf("polishing failed: %w", err)
	}

	if cost < res.Cost {
		slog.Info("Polishing improved result", "before", res.Cost, "after", cost)
		res.X = x
		res.Cost = cost
		res.Gradient = grad
		s.costs[0] = cost
		s.scaler.UnitInto(s.pop[0], x)
	}
	return nil
}

// fraction is the convergence fraction handed to the early-stop predicate:
// tol over the current statistic, infinite once the population has fully
// collapsed.
func fraction(tol, conv float64) float64 {
	if conv == 0 {
		return math.Inf(1)
	}
	return tol / conv
}
