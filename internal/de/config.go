package de

import (
	"fmt"
	"math"
)

// Strategy selects the mutation variant and crossover mode. The name suffix
// (bin/exp) fixes the crossover mode; the prefix fixes the mutation formula.
type Strategy string

const (
	Best1Bin       Strategy = "best1bin"
	Best1Exp       Strategy = "best1exp"
	Rand1Bin       Strategy = "rand1bin"
	Rand1Exp       Strategy = "rand1exp"
	RandToBest1Bin Strategy = "randtobest1bin"
	RandToBest1Exp Strategy = "randtobest1exp"
	Best2Bin       Strategy = "best2bin"
	Best2Exp       Strategy = "best2exp"
	Rand2Bin       Strategy = "rand2bin"
	Rand2Exp       Strategy = "rand2exp"
)

// Init selects how the initial population is sampled.
type Init string

const (
	// InitLatinHypercube stratifies each dimension into one segment per
	// population member, decorrelated by an independent permutation per
	// dimension. This maximizes coverage of the parameter space.
	InitLatinHypercube Init = "latinhypercube"

	// InitRandom draws every coordinate independently and uniformly.
	InitRandom Init = "random"
)

// Callback is invoked after every generation with the best candidate in real
// parameter space and its cost. Callbacks must not retain the vector.
type Callback func(generation int, best []float64, bestCost float64)

// EarlyStopFunc is polled after every generation with the best candidate and
// the convergence fraction tol/convergence. Returning true halts the solver
// with a non-success status; the best solution found so far is still returned.
type EarlyStopFunc func(best []float64, convergence float64) bool

// Refiner locally improves a candidate within bounds after the evolution loop
// halts. Implementations report the refined point, its cost, the gradient at
// that point, and how many objective evaluations they spent.
type Refiner interface {
	Refine(obj func([]float64) float64, start, lower, upper []float64) (x []float64, cost float64, grad []float64, nfev int, err error)
}

// Config holds the solver parameters. All fields are validated eagerly by New;
// no evaluation happens before validation passes.
type Config struct {
	// Strategy names the mutation/crossover variant, e.g. Best1Bin.
	Strategy Strategy

	// Init names the population initializer.
	Init Init

	// Mutation is the scale factor F in [0, 2). Ignored when Dither is set.
	Mutation float64

	// Dither, when non-nil, gives the [min, max) range F is redrawn from at
	// the start of every generation. Requires min < max, both in [0, 2).
	Dither []float64

	// Recombination is the crossover probability CR in [0, 1].
	Recombination float64

	// Tol is the convergence tolerance. The solver halts successfully when
	// stddev(costs)/(|mean(costs)|+eps) drops below Tol. Zero never converges.
	Tol float64

	// MaxIter caps the number of generations.
	MaxIter int

	// PopSize is the absolute population size. When zero, the population is
	// Multiplier × dimensions.
	PopSize int

	// Multiplier sizes the population relative to the dimension count when
	// PopSize is zero. Zero means the default of 15.
	Multiplier int

	// Seed initializes the solver's owned random source. Zero seeds from the
	// clock, making results non-reproducible; pass an explicit seed for tests.
	Seed int64

	// Callbacks are invoked in order after every generation.
	Callbacks []Callback

	// EarlyStop, when non-nil, can halt the run after any generation.
	EarlyStop EarlyStopFunc

	// Polish, when non-nil, locally refines the final best candidate. The
	// refined point is adopted only if it strictly improves the cost.
	Polish Refiner
}

// DefaultConfig returns the conventional DE settings: best1bin with Latin
// Hypercube initialization and dithered mutation in [0.5, 1).
func DefaultConfig() Config {
	return Config{
		Strategy:      Best1Bin,
		Init:          InitLatinHypercube,
		Dither:        []float64{0.5, 1.0},
		Recombination: 0.7,
		Tol:           0.01,
		MaxIter:       1000,
		Multiplier:    15,
	}
}

func (c *Config) validate() error {
	if _, ok := strategies[c.Strategy]; !ok {
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}
	switch c.Init {
	case InitLatinHypercube, InitRandom:
	default:
		return fmt.Errorf("unknown init method %q", c.Init)
	}

	if c.Dither != nil {
		if len(c.Dither) != 2 {
			return fmt.Errorf("dither needs exactly two values, got %d", len(c.Dither))
		}
		lo, hi := c.Dither[0], c.Dither[1]
		if !(lo >= 0 && hi < 2 && lo < hi) {
			return fmt.Errorf("dither range [%g, %g) must satisfy 0 <= min < max < 2", lo, hi)
		}
	} else if !(c.Mutation >= 0 && c.Mutation < 2) {
		return fmt.Errorf("mutation constant %g outside [0, 2)", c.Mutation)
	}

	if c.Recombination < 0 || c.Recombination > 1 {
		return fmt.Errorf("recombination probability %g outside [0, 1]", c.Recombination)
	}
	if c.Tol < 0 || math.IsNaN(c.Tol) {
		return fmt.Errorf("tolerance %g must be >= 0", c.Tol)
	}
	if c.MaxIter < 1 {
		return fmt.Errorf("maxiter %d must be positive", c.MaxIter)
	}
	if c.PopSize < 0 {
		return fmt.Errorf("population size %d must not be negative", c.PopSize)
	}
	return nil
}

// popSize resolves the population size for a dim-dimensional problem.
func (c *Config) popSize(dim int) int {
	if c.PopSize > 0 {
		return c.PopSize
	}
	mult := c.Multiplier
	if mult == 0 {
		mult = 15
	}
	return mult * dim
}
