package de

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

type crossoverMode int

const (
	binomial crossoverMode = iota
	exponential
)

// mutateFunc writes the mutant for candidate cand into m, using the distinct
// partner indices r and scale factor f. "best" is always the candidate at
// slot 0.
type mutateFunc func(pop [][]float64, cand int, r []int, f float64, m []float64)

type strategySpec struct {
	partners  int
	mutate    mutateFunc
	crossover crossoverMode
}

// strategies maps every valid strategy name to its mutation formula, the
// number of distinct partner indices it consumes, and its crossover mode.
// Resolved once at construction; unknown names are configuration errors.
var strategies = map[Strategy]strategySpec{
	Best1Bin:       {2, mutateBest1, binomial},
	Best1Exp:       {2, mutateBest1, exponential},
	Rand1Bin:       {3, mutateRand1, binomial},
	Rand1Exp:       {3, mutateRand1, exponential},
	RandToBest1Bin: {2, mutateRandToBest1, binomial},
	RandToBest1Exp: {2, mutateRandToBest1, exponential},
	Best2Bin:       {4, mutateBest2, binomial},
	Best2Exp:       {4, mutateBest2, exponential},
	Rand2Bin:       {5, mutateRand2, binomial},
	Rand2Exp:       {5, mutateRand2, exponential},
}

// best + F·(r0 − r1)
func mutateBest1(pop [][]float64, _ int, r []int, f float64, m []float64) {
	floats.SubTo(m, pop[r[0]], pop[r[1]])
	floats.Scale(f, m)
	floats.Add(m, pop[0])
}

// r0 + F·(r1 − r2)
func mutateRand1(pop [][]float64, _ int, r []int, f float64, m []float64) {
	floats.SubTo(m, pop[r[1]], pop[r[2]])
	floats.Scale(f, m)
	floats.Add(m, pop[r[0]])
}

// cand + F·(best − cand) + F·(r0 − r1)
func mutateRandToBest1(pop [][]float64, cand int, r []int, f float64, m []float64) {
	floats.SubTo(m, pop[0], pop[cand])
	floats.Add(m, pop[r[0]])
	floats.Sub(m, pop[r[1]])
	floats.Scale(f, m)
	floats.Add(m, pop[cand])
}

// best + F·(r0 + r1 − r2 − r3)
func mutateBest2(pop [][]float64, _ int, r []int, f float64, m []float64) {
	floats.SubTo(m, pop[r[0]], pop[r[2]])
	floats.Add(m, pop[r[1]])
	floats.Sub(m, pop[r[3]])
	floats.Scale(f, m)
	floats.Add(m, pop[0])
}

// r0 + F·(r1 + r2 − r3 − r4)
func mutateRand2(pop [][]float64, _ int, r []int, f float64, m []float64) {
	floats.SubTo(m, pop[r[1]], pop[r[3]])
	floats.Add(m, pop[r[2]])
	floats.Sub(m, pop[r[4]])
	floats.Scale(f, m)
	floats.Add(m, pop[r[0]])
}

// crossBinomial blends mutant into trial with an independent Bernoulli(cr)
// draw per dimension. The fill point is always taken from the mutant, so the
// trial differs from the target in at least one dimension.
func crossBinomial(rng *rand.Rand, trial, mutant []float64, cr float64) {
	fill := rng.Intn(len(trial))
	for d := range trial {
		if d == fill || rng.Float64() < cr {
			trial[d] = mutant[d]
		}
	}
}

// crossExponential copies a consecutive run of mutant dimensions into trial,
// starting at a random fill point and wrapping, for as long as Bernoulli(cr)
// draws keep succeeding, up to the full dimension count.
func crossExponential(rng *rand.Rand, trial, mutant []float64, cr float64) {
	dim := len(trial)
	fill := rng.Intn(dim)
	for i := 0; i < dim && rng.Float64() < cr; i++ {
		trial[fill] = mutant[fill]
		fill = (fill + 1) % dim
	}
}

// repair restores feasibility of a trial vector: every coordinate outside
// [0, 1) is replaced by a fresh uniform draw rather than clamped, avoiding
// pileup of candidates on the domain faces.
func repair(rng *rand.Rand, trial []float64) {
	for d, v := range trial {
		if v < 0 || v >= 1 {
			trial[d] = rng.Float64()
		}
	}
}
