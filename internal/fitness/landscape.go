// Package fitness holds realized fitness landscapes: one multiplicative
// fitness value per genotype of the full hypercube, plus the topology
// statistics computed on them.
package fitness

import (
	"fmt"
	"math"
	"sort"

	"ecoscape/internal/genotype"
	"ecoscape/internal/model"
)

// Landscape is a realized fitness landscape over the full genotype space.
// Values are multiplicative: 1 is the selection-neutral level.
type Landscape struct {
	space  genotype.Space
	values []float64
}

// New wraps a full value table. The table is owned by the landscape after the
// call.
func New(space genotype.Space, values []float64) (*Landscape, error) {
	if len(values) != space.Size() {
		return nil, fmt.Errorf("%w: realized landscape has %d values, want %d",
			model.ErrInvalidParameters, len(values), space.Size())
	}
	return &Landscape{space: space, values: values}, nil
}

// Space returns the genotype space.
func (l *Landscape) Space() genotype.Space { return l.space }

// Get returns the realized fitness of g.
func (l *Landscape) Get(g genotype.Genotype) float64 { return l.values[g] }

// Max returns the fittest genotype and its fitness.
func (l *Landscape) Max() (genotype.Genotype, float64) {
	best, bestV := genotype.Genotype(0), l.values[0]
	for idx, v := range l.values {
		if v > bestV {
			best, bestV = genotype.Genotype(idx), v
		}
	}
	return best, bestV
}

// Min returns the least fit genotype and its fitness.
func (l *Landscape) Min() (genotype.Genotype, float64) {
	worst, worstV := genotype.Genotype(0), l.values[0]
	for idx, v := range l.values {
		if v < worstV {
			worst, worstV = genotype.Genotype(idx), v
		}
	}
	return worst, worstV
}

// MeanVar returns the mean and population variance of the landscape values.
func (l *Landscape) MeanVar() (mean, variance float64) {
	n := float64(len(l.values))
	var sum, sumSq float64
	for _, v := range l.values {
		sum += v
		sumSq += v * v
	}
	mean = sum / n
	variance = sumSq/n - mean*mean
	return mean, variance
}

// Maxima lists the local fitness peaks: genotypes strictly fitter than every
// Hamming neighbor.
func (l *Landscape) Maxima() []genotype.Genotype {
	return l.extrema(func(v, n float64) bool { return v > n })
}

// Minima lists the local fitness valleys.
func (l *Landscape) Minima() []genotype.Genotype {
	return l.extrema(func(v, n float64) bool { return v < n })
}

func (l *Landscape) extrema(beats func(v, neighbor float64) bool) []genotype.Genotype {
	var out []genotype.Genotype
	for idx, v := range l.values {
		g := genotype.Genotype(idx)
		ok := true
		for i := 0; i < l.space.Loci(); i++ {
			if !beats(v, l.values[l.space.Neighbor(g, i)]) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, g)
		}
	}
	return out
}

// Selected lists genotypes under positive selection (fitness above the
// neutral level).
func (l *Landscape) Selected() []genotype.Genotype {
	var out []genotype.Genotype
	for idx, v := range l.values {
		if v > 1 {
			out = append(out, genotype.Genotype(idx))
		}
	}
	return out
}

// LogEffect returns the additive (log-scale) fitness effect of flipping the
// given locus of g.
func (l *Landscape) LogEffect(g genotype.Genotype, locus int) float64 {
	return math.Log(l.values[l.space.Neighbor(g, locus)]) - math.Log(l.values[g])
}

// Effects returns the log-scale fitness effects of every single-locus flip.
func (l *Landscape) Effects() []float64 {
	out := make([]float64, 0, len(l.values)*l.space.Loci())
	for idx := range l.values {
		g := genotype.Genotype(idx)
		for i := 0; i < l.space.Loci(); i++ {
			out = append(out, l.LogEffect(g, i))
		}
	}
	return out
}

// Gamma returns the gamma statistic of epistasis: the correlation between
// the effect of a locus and the same effect measured one mutation away.
func (l *Landscape) Gamma() float64 {
	var cov, variance float64
	loci := l.space.Loci()
	for idx := range l.values {
		g := genotype.Genotype(idx)
		for j := 0; j < loci; j++ {
			sj := l.LogEffect(g, j)
			for i := 0; i < loci; i++ {
				if i == j {
					continue
				}
				sij := l.LogEffect(l.space.Neighbor(g, i), j)
				cov += sj * sij
				variance += sj * sj
			}
		}
	}
	return cov / variance
}

// RankOrder returns all genotypes sorted by ascending fitness. Ties are
// broken by genotype index so the order is deterministic.
func (l *Landscape) RankOrder() []genotype.Genotype {
	order := make([]genotype.Genotype, len(l.values))
	for i := range order {
		order[i] = genotype.Genotype(i)
	}
	sort.Slice(order, func(a, b int) bool {
		va, vb := l.values[order[a]], l.values[order[b]]
		if va != vb {
			return va < vb
		}
		return order[a] < order[b]
	})
	return order
}

// SpearmanRho returns the Spearman rank correlation between two landscapes
// over the same space.
func (l *Landscape) SpearmanRho(other *Landscape) (float64, error) {
	if l.space != other.space {
		return 0, fmt.Errorf("%w: landscapes are defined over different spaces", model.ErrInvalidParameters)
	}
	n := len(l.values)
	pos1 := make([]int, n)
	pos2 := make([]int, n)
	for i, g := range l.RankOrder() {
		pos1[g] = i
	}
	for i, g := range other.RankOrder() {
		pos2[g] = i
	}
	var d2 float64
	for g := 0; g < n; g++ {
		d := float64(pos1[g] - pos2[g])
		d2 += d * d
	}
	nf := float64(n)
	return 1 - 6*d2/(nf*(nf*nf-1)), nil
}
