package de

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// macheps is the double-precision machine epsilon, used to keep the
// convergence statistic finite when the mean cost is zero.
var macheps = math.Nextafter(1, 2) - 1

// convergence is the stopping statistic: the population standard deviation of
// the costs relative to their mean magnitude. The solver halts successfully
// once this drops below the configured tolerance.
func convergence(costs []float64) float64 {
	mean := stat.Mean(costs, nil)
	std := stat.PopStdDev(costs, nil)
	return std / (math.Abs(mean) + macheps)
}
