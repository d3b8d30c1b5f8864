package objective

import (
	"fmt"
	"math"
	"sort"
)

// Benchmark is a named analytic objective with its customary search box.
type Benchmark struct {
	Name string
	Fn   Func

	// Lower, Upper give the customary per-dimension search box.
	Lower, Upper float64

	// Dim fixes the dimensionality; zero means any dimension works.
	Dim int
}

// Sphere is sum(x_i^2), minimum 0 at the origin.
func Sphere(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return sum
}

// Rosenbrock is the banana valley, minimum 0 at (1, ..., 1).
func Rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}
	return sum
}

// Rastrigin is highly multimodal, minimum 0 at the origin.
func Rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

// Ackley is multimodal with a narrow global basin, minimum 0 at the origin.
func Ackley(x []float64) float64 {
	n := float64(len(x))
	var sq, cs float64
	for _, v := range x {
		sq += v * v
		cs += math.Cos(2 * math.Pi * v)
	}
	return -20*math.Exp(-0.2*math.Sqrt(sq/n)) - math.Exp(cs/n) + 20 + math.E
}

// Eggholder is a hard 2-D test with minimum about -959.6407 at
// (512, 404.2319).
func Eggholder(x []float64) float64 {
	a := x[1] + 47
	return -a*math.Sin(math.Sqrt(math.Abs(x[0]/2+a))) -
		x[0]*math.Sin(math.Sqrt(math.Abs(x[0]-a)))
}

var benchmarks = map[string]Benchmark{
	"sphere":     {Name: "sphere", Fn: Sphere, Lower: -5, Upper: 5},
	"rosenbrock": {Name: "rosenbrock", Fn: Rosenbrock, Lower: -2.048, Upper: 2.048},
	"rastrigin":  {Name: "rastrigin", Fn: Rastrigin, Lower: -5.12, Upper: 5.12},
	"ackley":     {Name: "ackley", Fn: Ackley, Lower: -32.768, Upper: 32.768},
	"eggholder":  {Name: "eggholder", Fn: Eggholder, Lower: -512, Upper: 512, Dim: 2},
}

// Lookup returns the benchmark registered under name.
func Lookup(name string) (Benchmark, error) {
	b, ok := benchmarks[name]
	if !ok {
		return Benchmark{}, fmt.Errorf("unknown objective %q (have %v)", name, Names())
	}
	return b, nil
}

// Names lists the registered benchmarks in sorted order.
func Names() []string {
	names := make([]string, 0, len(benchmarks))
	for name := range benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bounds expands the benchmark's scalar box to dim-length bound vectors.
func (b Benchmark) Bounds(dim int) (lower, upper []float64) {
	lower = make([]float64, dim)
	upper = make([]float64, dim)
	for i := 0; i < dim; i++ {
		lower[i] = b.Lower
		upper[i] = b.Upper
	}
	return lower, upper
}
