package de

import (
	"fmt"
	"math"
)

// Scaler maps candidates between the normalized unit hypercube the solver
// works in and the real bounded parameter space the objective sees. The
// mapping is symmetric in the bound order: center and span are derived from
// midpoint and absolute difference, so swapped bounds describe the same box.
type Scaler struct {
	center []float64
	span   []float64
}

// NewScaler builds a scaler from the parameter bounds. Bounds must be
// non-empty, of equal length, and finite.
func NewScaler(lower, upper []float64) (*Scaler, error) {
	if len(lower) == 0 {
		return nil, fmt.Errorf("bounds are empty")
	}
	if len(lower) != len(upper) {
		return nil, fmt.Errorf("bounds length mismatch: %d vs %d", len(lower), len(upper))
	}
	s := &Scaler{
		center: make([]float64, len(lower)),
		span:   make([]float64, len(lower)),
	}
	for i := range lower {
		if math.IsNaN(lower[i]) || math.IsInf(lower[i], 0) ||
			math.IsNaN(upper[i]) || math.IsInf(upper[i], 0) {
			return nil, fmt.Errorf("bound %d is not finite: [%g, %g]", i, lower[i], upper[i])
		}
		s.center[i] = 0.5 * (lower[i] + upper[i])
		s.span[i] = math.Abs(lower[i] - upper[i])
	}
	return s, nil
}

// Dim returns the parameter count.
func (s *Scaler) Dim() int {
	return len(s.center)
}

// RealInto writes the real-space image of the unit-cube vector u into dst.
func (s *Scaler) RealInto(dst, u []float64) {
	for i := range u {
		dst[i] = s.center[i] + (u[i]-0.5)*s.span[i]
	}
}

// Real returns the real-space image of u as a new vector.
func (s *Scaler) Real(u []float64) []float64 {
	dst := make([]float64, len(u))
	s.RealInto(dst, u)
	return dst
}

// UnitInto writes the unit-cube preimage of the real-space vector x into dst.
// Inverse of RealInto up to floating-point rounding.
func (s *Scaler) UnitInto(dst, x []float64) {
	for i := range x {
		dst[i] = (x[i]-s.center[i])/s.span[i] + 0.5
	}
}

// Unit returns the unit-cube preimage of x as a new vector.
func (s *Scaler) Unit(x []float64) []float64 {
	dst := make([]float64, len(x))
	s.UnitInto(dst, x)
	return dst
}
