package de

import (
	"math"
	"math/rand"
	"testing"
)

func TestScalerRoundTrip(t *testing.T) {
	lower := []float64{-5, 0, 100}
	upper := []float64{5, 1, 250}
	s, err := NewScaler(lower, upper)
	if err != nil {
		t.Fatalf("NewScaler failed: %v", err)
	}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 100; trial++ {
		u := []float64{rng.Float64(), rng.Float64(), rng.Float64()}
		back := s.Unit(s.Real(u))
		for i := range u {
			if math.Abs(back[i]-u[i]) > 1e-12 {
				t.Fatalf("round trip drifted at dim %d: %v -> %v", i, u[i], back[i])
			}
		}
	}
}

func TestScalerMapsIntoBounds(t *testing.T) {
	s, err := NewScaler([]float64{-5, -5}, []float64{5, 5})
	if err != nil {
		t.Fatalf("NewScaler failed: %v", err)
	}

	x := s.Real([]float64{0, 1})
	if x[0] != -5 {
		t.Errorf("u=0 should map to the lower bound, got %v", x[0])
	}
	if x[1] != 5 {
		t.Errorf("u=1 should map to the upper bound, got %v", x[1])
	}
}

func TestScalerInvertedBounds(t *testing.T) {
	// Bound order is irrelevant: center and span come from midpoint and
	// absolute difference.
	a, err := NewScaler([]float64{-5}, []float64{5})
	if err != nil {
		t.Fatalf("NewScaler failed: %v", err)
	}
	b, err := NewScaler([]float64{5}, []float64{-5})
	if err != nil {
		t.Fatalf("NewScaler with swapped bounds failed: %v", err)
	}

	for _, u := range []float64{0, 0.25, 0.5, 0.99} {
		xa := a.Real([]float64{u})[0]
		xb := b.Real([]float64{u})[0]
		if xa != xb {
			t.Errorf("u=%v: swapped bounds changed mapping: %v vs %v", u, xa, xb)
		}
	}
}

func TestScalerRejectsBadBounds(t *testing.T) {
	cases := []struct {
		name         string
		lower, upper []float64
	}{
		{"empty", nil, nil},
		{"mismatched", []float64{0, 1}, []float64{1}},
		{"nan", []float64{math.NaN()}, []float64{1}},
		{"inf", []float64{0}, []float64{math.Inf(1)}},
	}
	for _, tc := range cases {
		if _, err := NewScaler(tc.lower, tc.upper); err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
	}
}
