// Package polish provides local refinement of an optimizer's best candidate.
// Refiners are bounded local minimizers behind a small interface, so any
// conforming implementation can substitute for the shipped Nelder-Mead one.
package polish

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"
)

// NelderMead refines a point with gonum's Nelder-Mead simplex under bound
// projection: every probe is clipped into the box before evaluation, so the
// refined point always stays feasible. The gradient at the refined point is
// estimated by finite differences.
type NelderMead struct {
	// MaxEvals caps objective evaluations spent by the simplex search.
	// Zero means gonum's default termination criteria only.
	MaxEvals int
}

// Refine minimizes obj from start within [lower, upper]. It returns the
// refined point, its cost, the finite-difference gradient there, and the
// number of objective evaluations spent, including those of the gradient
// estimate.
func (nm *NelderMead) Refine(obj func([]float64) float64, start, lower, upper []float64) ([]float64, float64, []float64, int, error) {
	dim := len(start)
	lo := make([]float64, dim)
	hi := make([]float64, dim)
	for i := 0; i < dim; i++ {
		lo[i] = math.Min(lower[i], upper[i])
		hi[i] = math.Max(lower[i], upper[i])
	}
	clip := func(x []float64) []float64 {
		c := make([]float64, dim)
		for i, v := range x {
			c[i] = math.Max(lo[i], math.Min(hi[i], v))
		}
		return c
	}

	nfev := 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			nfev++
			return obj(clip(x))
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: nm.MaxEvals,
		Concurrent:      0, // sequential evaluation
	}

	result, err := optimize.Minimize(problem, clip(start), settings, &optimize.NelderMead{})
	if err != nil {
		return nil, 0, nil, nfev, fmt.Errorf("nelder-mead: %w", err)
	}

	x := clip(result.X)
	cost := result.F

	grad := make([]float64, dim)
	fd.Gradient(grad, func(p []float64) float64 {
		nfev++
		return obj(clip(p))
	}, x, nil)

	slog.Debug("Local refinement done", "cost", cost, "nfev", nfev, "status", result.Status)
	return x, cost, grad, nfev, nil
}
