package de

import "math/rand"

// latinHypercube samples n points in the unit hypercube with one point per
// 1/n-wide segment in every dimension. Segment assignments are permuted
// independently per dimension so dimensions stay decorrelated; only the
// per-dimension stratification is guaranteed.
func latinHypercube(rng *rand.Rand, n, dim int) [][]float64 {
	pop := makeMatrix(n, dim)
	seg := 1.0 / float64(n)
	for d := 0; d < dim; d++ {
		perm := rng.Perm(n)
		for i := 0; i < n; i++ {
			pop[perm[i]][d] = (float64(i) + rng.Float64()) * seg
		}
	}
	return pop
}

// randomInit samples n points uniformly in the unit hypercube.
func randomInit(rng *rand.Rand, n, dim int) [][]float64 {
	pop := makeMatrix(n, dim)
	for i := range pop {
		for d := range pop[i] {
			pop[i][d] = rng.Float64()
		}
	}
	return pop
}

// drawIndices fills dst with k distinct indices from [0, n) excluding ref,
// drawn without replacement. dst must have capacity for n-1 indices. The
// exclusion keeps mutation strategies from using their own base vector as a
// perturbation term.
func drawIndices(dst []int, rng *rand.Rand, n, ref, k int) []int {
	dst = dst[:0]
	for i := 0; i < n; i++ {
		if i != ref {
			dst = append(dst, i)
		}
	}
	rng.Shuffle(len(dst), func(i, j int) {
		dst[i], dst[j] = dst[j], dst[i]
	})
	return dst[:k]
}

func makeMatrix(n, dim int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, dim)
	}
	return m
}
