// Package objective provides batch evaluation backends for the optimizer:
// adapters that lift a scalar objective function to whole-population batches,
// serially or across a worker pool, plus a registry of analytic benchmark
// functions.
package objective

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// Func is a scalar objective: one parameter vector in, one cost out.
type Func func(x []float64) float64

// BatchEvaluator scores a batch of parameter vectors, one cost per row in
// matching order.
type BatchEvaluator interface {
	Evaluate(params [][]float64) ([]float64, error)
}

// Serial evaluates a scalar objective row by row on the calling goroutine.
type Serial struct {
	fn Func
}

// NewSerial wraps fn as a serial batch evaluator.
func NewSerial(fn Func) *Serial {
	return &Serial{fn: fn}
}

func (e *Serial) Evaluate(params [][]float64) ([]float64, error) {
	costs := make([]float64, len(params))
	for i, x := range params {
		costs[i] = e.fn(x)
	}
	return costs, nil
}

// Concurrent fans a batch out across a bounded worker pool. The objective
// function must be safe for concurrent calls.
type Concurrent struct {
	fn      Func
	workers int
}

// NewConcurrent wraps fn as a concurrent batch evaluator running at most
// workers evaluations in parallel. workers <= 0 means one worker per CPU.
func NewConcurrent(fn Func, workers int) *Concurrent {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Concurrent{fn: fn, workers: workers}
}

func (e *Concurrent) Evaluate(params [][]float64) ([]float64, error) {
	costs := make([]float64, len(params))
	p := pool.New().WithMaxGoroutines(e.workers)
	for i := range params {
		p.Go(func() {
			costs[i] = e.fn(params[i])
		})
	}
	p.Wait()
	return costs, nil
}
