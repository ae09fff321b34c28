// Package sim advances a fixed-size population through discrete generations
// of mutation, ecological fitness evaluation and Wright-Fisher resampling.
package sim

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"ecoscape/internal/eco"
	"ecoscape/internal/genotype"
	"ecoscape/internal/model"
)

// Population is a multiset of genotypes of fixed total size, held as a flat
// count table indexed by genotype.
type Population struct {
	space  genotype.Space
	counts []int64
	size   int64
}

// NewPopulation allocates an empty population of the given size.
func NewPopulation(space genotype.Space, size int64) (*Population, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: population size must be > 0, got %d", model.ErrInvalidParameters, size)
	}
	return &Population{
		space:  space,
		counts: make([]int64, space.Size()),
		size:   size,
	}, nil
}

// Space returns the genotype space.
func (p *Population) Space() genotype.Space { return p.space }

// Size returns the fixed population size N.
func (p *Population) Size() int64 { return p.size }

// Count returns the number of individuals carrying g.
func (p *Population) Count(g genotype.Genotype) int64 { return p.counts[g] }

// InitSingle seeds the whole population with one genotype.
func (p *Population) InitSingle(g genotype.Genotype) {
	clear(p.counts)
	p.counts[g] = p.size
}

// InitSingleRandom seeds the whole population with one uniformly drawn
// genotype.
func (p *Population) InitSingleRandom(rng *rand.Rand) {
	p.InitSingle(genotype.Genotype(rng.Intn(p.space.Size())))
}

// InitBernoulli seeds every individual independently, with each locus
// carrying the derived allele with the given probability.
func (p *Population) InitBernoulli(rng *rand.Rand, prob float64) error {
	if prob < 0 || prob > 1 || math.IsNaN(prob) {
		return fmt.Errorf("%w: allele probability must be in [0,1], got %v", model.ErrInvalidParameters, prob)
	}
	clear(p.counts)
	for i := int64(0); i < p.size; i++ {
		var g genotype.Genotype
		for l := 0; l < p.space.Loci(); l++ {
			if rng.Float64() < prob {
				g |= 1 << l
			}
		}
		p.counts[g]++
	}
	return nil
}

// Classes returns the occupied genotype classes in ascending genotype order.
func (p *Population) Classes() eco.Composition {
	c := eco.Composition{Size: p.size}
	for idx, n := range p.counts {
		if n > 0 {
			c.Genotypes = append(c.Genotypes, genotype.Genotype(idx))
			c.Counts = append(c.Counts, n)
		}
	}
	return c
}

// NGenotypes returns the number of distinct genotypes present.
func (p *Population) NGenotypes() int {
	n := 0
	for _, c := range p.counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// Fixed reports whether a single genotype comprises the entire population.
func (p *Population) Fixed() (genotype.Genotype, bool) {
	for idx, n := range p.counts {
		if n == p.size {
			return genotype.Genotype(idx), true
		}
		if n > 0 {
			return 0, false
		}
	}
	return 0, false
}

// ShannonEntropy returns the absolute Shannon entropy of the genotype
// frequencies.
func (p *Population) ShannonEntropy() float64 {
	var entropy float64
	size := float64(p.size)
	for _, n := range p.counts {
		if n > 0 {
			f := float64(n) / size
			entropy -= f * math.Log(f)
		}
	}
	return entropy
}

// HaplotypeDiversity returns 1 minus the sum of squared genotype frequencies.
// No sample-size correction is applied since the full population is observed.
func (p *Population) HaplotypeDiversity() float64 {
	h := 1.0
	size := float64(p.size)
	for _, n := range p.counts {
		if n > 0 {
			f := float64(n) / size
			h -= f * f
		}
	}
	return h
}

// NucleotideDiversity returns the mean pairwise Hamming distance weighted by
// genotype frequencies.
func (p *Population) NucleotideDiversity() float64 {
	c := p.Classes()
	size := float64(p.size)
	var pi float64
	for i, gi := range c.Genotypes {
		xi := float64(c.Counts[i]) / size
		for k, gk := range c.Genotypes {
			xk := float64(c.Counts[k]) / size
			pi += xi * xk * float64(p.space.Distance(gi, gk))
		}
	}
	return pi
}
