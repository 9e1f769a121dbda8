package tick

import (
	"math/rand"

	"github.com/manifoldweb/node/internal/agent"
)

// evolveOffspring derives a child genome from two parent parameter vectors
// by single-point crossover followed by per-byte bit-flip mutation. The
// child always inherits parent a's content address, since crossover mixes
// only the evolvable parameter bytes, never the behavior program itself.
//
// If either parent's parameter vector is empty, the child is a clone of a
// (asexual reproduction, or a malformed partner, produce identical
// offspring rather than an error).
//
// forcedPoint, when >= 0, forces the crossover split index instead of
// drawing one uniformly from rng; this lets tests exercise a specific
// split deterministically.
func evolveOffspring(a, b agent.Genome, rng *rand.Rand, mutationRate float64, forcedPoint int) agent.Genome {
	if len(a.Parameters) == 0 || len(b.Parameters) == 0 {
		return cloneGenome(a, rng, mutationRate)
	}

	limit := len(a.Parameters)
	if len(b.Parameters) < limit {
		limit = len(b.Parameters)
	}

	point := forcedPoint
	if point < 0 {
		point = rng.Intn(limit)
	}
	if point > limit {
		point = limit
	}

	child := make([]byte, 0, len(b.Parameters))
	child = append(child, a.Parameters[:point]...)
	child = append(child, b.Parameters[point:]...)

	mutate(child, rng, mutationRate)

	return agent.Genome{CID: a.CID, Parameters: child}
}

// cloneGenome copies a's parameters, applying the same mutation pass an
// offspring would otherwise receive.
func cloneGenome(a agent.Genome, rng *rand.Rand, mutationRate float64) agent.Genome {
	child := make([]byte, len(a.Parameters))
	copy(child, a.Parameters)
	mutate(child, rng, mutationRate)
	return agent.Genome{CID: a.CID, Parameters: child}
}

// mutate rolls once per byte against rate; on success it flips a single
// uniformly chosen bit of that byte.
func mutate(buf []byte, rng *rand.Rand, rate float64) {
	if rate <= 0 {
		return
	}
	for i := range buf {
		if rng.Float64() < rate {
			buf[i] ^= 1 << uint(rng.Intn(8))
		}
	}
}
