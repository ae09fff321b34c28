// Package eco converts per-resource landscape values and the population's
// resource use into realized fitness. Landscape values are log-fitness;
// phenotypes are their exponentials, so realized fitness is never negative.
package eco

import (
	"fmt"
	"math"

	"github.com/sourcegraph/conc"

	"ecoscape/internal/fitness"
	"ecoscape/internal/genotype"
	"ecoscape/internal/landscape"
	"ecoscape/internal/model"
)

// Composition is a read-only view of the genotype classes present in a
// population. Genotypes are listed in ascending index order.
type Composition struct {
	Genotypes []genotype.Genotype
	Counts    []int64
	Size      int64
}

// Evaluator combines one landscape replicate with a trade-off strategy. The
// phenotype table (exp of every landscape value) is precomputed once, so
// per-generation evaluation never calls exp on the hot path.
type Evaluator struct {
	land     *landscape.Landscape
	amounts  []float64
	tradeoff Tradeoff
	workers  int

	phen []float64 // exp of the landscape table, genotype-major
}

// NewEvaluator validates the configuration and precomputes phenotypes.
func NewEvaluator(land *landscape.Landscape, amounts []float64, tradeoff Tradeoff, workers int) (*Evaluator, error) {
	if land == nil {
		return nil, fmt.Errorf("%w: landscape is required", model.ErrInvalidParameters)
	}
	if tradeoff == nil {
		return nil, fmt.Errorf("%w: trade-off strategy is required", model.ErrInvalidParameters)
	}
	if len(amounts) != land.Resources() {
		return nil, fmt.Errorf("%w: %d resource amounts for %d resources",
			model.ErrInvalidParameters, len(amounts), land.Resources())
	}
	for j, a := range amounts {
		if a <= 0 || math.IsNaN(a) || math.IsInf(a, 0) {
			return nil, fmt.Errorf("%w: resource %d amount must be positive and finite, got %v",
				model.ErrInvalidParameters, j, a)
		}
	}
	if workers <= 0 {
		workers = 1
	}

	e := &Evaluator{
		land:     land,
		amounts:  append([]float64(nil), amounts...),
		tradeoff: tradeoff,
		workers:  workers,
		phen:     make([]float64, len(land.Table())),
	}
	table := land.Table()
	e.parallel(len(table), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			e.phen[i] = math.Exp(table[i])
		}
	})
	return e, nil
}

// Landscape returns the genetic landscape the evaluator reads.
func (e *Evaluator) Landscape() *landscape.Landscape { return e.land }

// Tradeoff returns the active trade-off strategy.
func (e *Evaluator) Tradeoff() Tradeoff { return e.tradeoff }

// Amounts returns the configured resource amounts.
func (e *Evaluator) Amounts() []float64 {
	return append([]float64(nil), e.amounts...)
}

// Phenotype returns the per-resource phenotype row of g. Read-only.
func (e *Evaluator) Phenotype(g genotype.Genotype) []float64 {
	r := e.land.Resources()
	off := int(g) * r
	return e.phen[off : off+r]
}

// Usage returns the population-wide phenotype mass per resource.
func (e *Evaluator) Usage(c Composition) []float64 {
	usage := make([]float64, e.land.Resources())
	for i, g := range c.Genotypes {
		n := float64(c.Counts[i])
		for j, p := range e.Phenotype(g) {
			usage[j] += n * p
		}
	}
	return usage
}

// ResourceWeights computes the effective per-resource weights for the given
// composition. Pure function of composition and configuration.
func (e *Evaluator) ResourceWeights(c Composition) []float64 {
	return e.tradeoff.Weights(e.amounts, e.Usage(c))
}

// ClassWeights fills dst with the normalized resampling weight of every
// occupied class: frequency times resource-weighted phenotype. The weights
// sum to one. A zero or non-finite total is a degenerate generation.
func (e *Evaluator) ClassWeights(c Composition, rw []float64, dst []float64) ([]float64, error) {
	if cap(dst) < len(c.Genotypes) {
		dst = make([]float64, len(c.Genotypes))
	}
	dst = dst[:len(c.Genotypes)]

	size := float64(c.Size)
	var total float64
	for i, g := range c.Genotypes {
		var s float64
		for j, p := range e.Phenotype(g) {
			s += p * rw[j]
		}
		w := s * float64(c.Counts[i]) / size
		dst[i] = w
		total += w
	}
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil, fmt.Errorf("%w: class weight total is %v", model.ErrDegenerateFitness, total)
	}
	for i := range dst {
		dst[i] /= total
	}
	return dst, nil
}

// FullLandscape realizes fitness for every genotype of the space under the
// given resource weights, normalized by the population mean so 1 is the
// neutral level.
func (e *Evaluator) FullLandscape(c Composition, rw []float64) (*fitness.Landscape, error) {
	space := e.land.Space()
	raw := make([]float64, space.Size())
	e.parallel(space.Size(), func(lo, hi int) {
		for idx := lo; idx < hi; idx++ {
			var s float64
			for j, p := range e.Phenotype(genotype.Genotype(idx)) {
				s += p * rw[j]
			}
			raw[idx] = s
		}
	})

	var norm float64
	for i, g := range c.Genotypes {
		norm += float64(c.Counts[i]) * raw[g]
	}
	norm /= float64(c.Size)
	if norm <= 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: population mean fitness is %v", model.ErrDegenerateFitness, norm)
	}
	for i := range raw {
		raw[i] /= norm
	}
	return fitness.New(space, raw)
}

// MeanPhenotypicDistance returns the population mean of pairwise Euclidean
// phenotype distances.
func (e *Evaluator) MeanPhenotypicDistance(c Composition) float64 {
	var sum float64
	for i, g1 := range c.Genotypes {
		p1 := e.Phenotype(g1)
		for k, g2 := range c.Genotypes {
			var d2 float64
			for j, v := range e.Phenotype(g2) {
				diff := p1[j] - v
				d2 += diff * diff
			}
			sum += math.Sqrt(d2) * float64(c.Counts[i]) * float64(c.Counts[k])
		}
	}
	return sum / float64(c.Size*(c.Size-1))
}

// parallel splits [0,n) into contiguous chunks, one per worker. Chunks write
// disjoint ranges, so results do not depend on scheduling order.
func (e *Evaluator) parallel(n int, fn func(lo, hi int)) {
	if e.workers == 1 || n < 1024 {
		fn(0, n)
		return
	}
	var wg conc.WaitGroup
	chunk := (n + e.workers - 1) / e.workers
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, lo+chunk
		if hi > n {
			hi = n
		}
		wg.Go(func() { fn(lo, hi) })
	}
	wg.Wait()
}
