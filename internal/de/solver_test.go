package de

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// evalFunc adapts a plain function to the Evaluator interface.
type evalFunc func(params [][]float64) ([]float64, error)

func (f evalFunc) Evaluate(params [][]float64) ([]float64, error) {
	return f(params)
}

func sphereEvaluator() Evaluator {
	return evalFunc(func(params [][]float64) ([]float64, error) {
		costs := make([]float64, len(params))
		for i, x := range params {
			for _, v := range x {
				costs[i] += v * v
			}
		}
		return costs, nil
	})
}

func sphereBounds() (lower, upper []float64) {
	return []float64{-5, -5}, []float64{5, 5}
}

func TestSolveSphereConverges(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Strategy = Best1Bin
	cfg.Seed = 42
	cfg.Tol = 0.01
	cfg.MaxIter = 1000

	solver, err := New(sphereEvaluator(), lower, upper, cfg)
	require.NoError(t, err)

	res, err := solver.Solve()
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, msgConverged, res.Message)
	assert.Less(t, res.Cost, 1e-6)
	for i, v := range res.X {
		assert.InDeltaf(t, 0, v, 1e-2, "dim %d", i)
	}
	assert.Equal(t, res.NumEvals, solver.NumEvals())
	assert.Nil(t, res.Gradient)
}

func TestSolveBestAtSlotZeroEveryGeneration(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Seed = 1
	cfg.MaxIter = 40
	cfg.Tol = 0 // never converge, exercise all generations

	var solver *Solver
	cfg.Callbacks = []Callback{func(generation int, best []float64, bestCost float64) {
		costs := solver.Costs()
		for i, c := range costs {
			if c < costs[0] {
				t.Fatalf("generation %d: slot %d cost %v beats slot 0 cost %v", generation, i, c, costs[0])
			}
		}
		if bestCost != costs[0] {
			t.Fatalf("generation %d: callback cost %v != slot 0 cost %v", generation, bestCost, costs[0])
		}
	}}

	var err error
	solver, err = New(sphereEvaluator(), lower, upper, cfg)
	require.NoError(t, err)

	_, err = solver.Solve()
	require.NoError(t, err)
}

func TestSolveEarlyStop(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.EarlyStop = func(best []float64, convergence float64) bool {
		return true
	}

	solver, err := New(sphereEvaluator(), lower, upper, cfg)
	require.NoError(t, err)

	res, err := solver.Solve()
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, msgEarlyStop, res.Message)
	assert.Equal(t, 1, res.Generations)
	// One initial batch plus one generation batch.
	assert.Equal(t, 2*solver.PopSize(), res.NumEvals)
}

func TestSolveMaxIterReached(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Tol = 0 // unreachable
	cfg.MaxIter = 50

	solver, err := New(sphereEvaluator(), lower, upper, cfg)
	require.NoError(t, err)

	res, err := solver.Solve()
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, 50, res.Generations)
	assert.Equal(t, msgMaxIter, res.Message)
	assert.Equal(t, 51*solver.PopSize(), res.NumEvals)
}

// stubRefiner returns a canned refinement result.
type stubRefiner struct {
	x    []float64
	cost float64
	grad []float64
	nfev int
	err  error
}

func (r *stubRefiner) Refine(obj func([]float64) float64, start, lower, upper []float64) ([]float64, float64, []float64, int, error) {
	if r.err != nil {
		return nil, 0, nil, 0, r.err
	}
	return r.x, r.cost, r.grad, r.nfev, nil
}

func TestSolvePolishAdoptsImprovement(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Tol = 0
	cfg.MaxIter = 10
	cfg.Polish = &stubRefiner{
		x:    []float64{0, 0},
		cost: -1, // beats any sphere cost
		grad: []float64{0, 0},
		nfev: 7,
	}

	solver, err := New(sphereEvaluator(), lower, upper, cfg)
	require.NoError(t, err)

	res, err := solver.Solve()
	require.NoError(t, err)

	assert.Equal(t, -1.0, res.Cost)
	assert.Equal(t, []float64{0, 0}, res.X)
	require.NotNil(t, res.Gradient)
	assert.Equal(t, 11*solver.PopSize()+7, res.NumEvals)

	// Population state stays consistent with the adopted result.
	assert.Equal(t, -1.0, solver.BestCost())
	best := solver.Best()
	for i, v := range best {
		assert.InDeltaf(t, 0, v, 1e-12, "dim %d", i)
	}
}

func TestSolvePolishKeepsBetterIncumbent(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Tol = 0
	cfg.MaxIter = 10
	cfg.Polish = &stubRefiner{
		x:    []float64{3, 3},
		cost: math.Inf(1),
		grad: []float64{1, 1},
		nfev: 3,
	}

	solver, err := New(sphereEvaluator(), lower, upper, cfg)
	require.NoError(t, err)

	res, err := solver.Solve()
	require.NoError(t, err)

	assert.Nil(t, res.Gradient)
	assert.Less(t, res.Cost, math.Inf(1))
	assert.Equal(t, res.Cost, solver.BestCost())
}

func TestSolvePolishErrorPropagates(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Tol = 0
	cfg.MaxIter = 5
	sentinel := errors.New("refiner exploded")
	cfg.Polish = &stubRefiner{err: sentinel}

	solver, err := New(sphereEvaluator(), lower, upper, cfg)
	require.NoError(t, err)

	_, err = solver.Solve()
	require.ErrorIs(t, err, sentinel)
}

func TestSolveEvaluatorErrorPropagates(t *testing.T) {
	lower, upper := sphereBounds()
	sentinel := errors.New("backend unavailable")
	eval := evalFunc(func(params [][]float64) ([]float64, error) {
		return nil, sentinel
	})

	solver, err := New(eval, lower, upper, DefaultConfig())
	require.NoError(t, err)

	_, err = solver.Solve()
	require.ErrorIs(t, err, sentinel)
}

func TestSolveRejectsShortCostVector(t *testing.T) {
	lower, upper := sphereBounds()
	eval := evalFunc(func(params [][]float64) ([]float64, error) {
		return make([]float64, len(params)-1), nil
	})

	solver, err := New(eval, lower, upper, DefaultConfig())
	require.NoError(t, err)

	_, err = solver.Solve()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "costs")
}

func TestSolveReproducibleWithSeed(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Seed = 99
	cfg.MaxIter = 30
	cfg.Tol = 0

	run := func() *Result {
		solver, err := New(sphereEvaluator(), lower, upper, cfg)
		require.NoError(t, err)
		res, err := solver.Solve()
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()
	assert.Equal(t, a.Cost, b.Cost)
	assert.Equal(t, a.X, b.X)
	assert.Equal(t, a.NumEvals, b.NumEvals)
}

func TestSolveExponentialStrategies(t *testing.T) {
	lower, upper := sphereBounds()
	for _, strat := range []Strategy{Rand1Exp, Best2Exp, RandToBest1Exp} {
		cfg := DefaultConfig()
		cfg.Strategy = strat
		cfg.Seed = 5
		cfg.MaxIter = 100
		cfg.Tol = 0.01

		solver, err := New(sphereEvaluator(), lower, upper, cfg)
		require.NoErrorf(t, err, "strategy %s", strat)

		res, err := solver.Solve()
		require.NoErrorf(t, err, "strategy %s", strat)
		assert.Lessf(t, res.Cost, 1.0, "strategy %s made no progress", strat)
	}
}

func TestSolveFixedMutationConstant(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Dither = nil
	cfg.Mutation = 0.8
	cfg.Seed = 42
	cfg.MaxIter = 200

	solver, err := New(sphereEvaluator(), lower, upper, cfg)
	require.NoError(t, err)

	res, err := solver.Solve()
	require.NoError(t, err)
	assert.Less(t, res.Cost, 1.0)
}

func TestNewValidatesConfig(t *testing.T) {
	lower, upper := sphereBounds()
	cases := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"unknown strategy", func(c *Config) { c.Strategy = "best9bin" }},
		{"unknown init", func(c *Config) { c.Init = "sobol" }},
		{"mutation too large", func(c *Config) { c.Dither = nil; c.Mutation = 2.0 }},
		{"mutation negative", func(c *Config) { c.Dither = nil; c.Mutation = -0.1 }},
		{"dither reversed", func(c *Config) { c.Dither = []float64{1.0, 0.5} }},
		{"dither out of range", func(c *Config) { c.Dither = []float64{0.5, 2.5} }},
		{"dither wrong arity", func(c *Config) { c.Dither = []float64{0.5} }},
		{"recombination above one", func(c *Config) { c.Recombination = 1.5 }},
		{"negative tolerance", func(c *Config) { c.Tol = -0.1 }},
		{"zero maxiter", func(c *Config) { c.MaxIter = 0 }},
		{"population too small for rand2", func(c *Config) { c.Strategy = Rand2Bin; c.PopSize = 4 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			_, err := New(sphereEvaluator(), lower, upper, cfg)
			require.Error(t, err)
		})
	}

	t.Run("nil evaluator", func(t *testing.T) {
		_, err := New(nil, lower, upper, DefaultConfig())
		require.Error(t, err)
	})
	t.Run("bad bounds", func(t *testing.T) {
		_, err := New(sphereEvaluator(), []float64{math.NaN()}, []float64{1}, DefaultConfig())
		require.Error(t, err)
	})
}

func TestPopSizeResolution(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30, cfg.popSize(2))

	cfg.Multiplier = 10
	assert.Equal(t, 40, cfg.popSize(4))

	cfg.PopSize = 25
	assert.Equal(t, 25, cfg.popSize(4))
}

func TestEarlyStopReceivesConvergenceFraction(t *testing.T) {
	lower, upper := sphereBounds()
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Tol = 0.01
	cfg.MaxIter = 3

	var fractions []float64
	cfg.EarlyStop = func(best []float64, convergence float64) bool {
		fractions = append(fractions, convergence)
		return false
	}

	solver, err := New(sphereEvaluator(), lower, upper, cfg)
	require.NoError(t, err)
	_, err = solver.Solve()
	require.NoError(t, err)

	require.Len(t, fractions, 3)
	for _, f := range fractions {
		assert.Greater(t, f, 0.0)
	}
}
