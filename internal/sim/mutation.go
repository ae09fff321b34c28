package sim

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/combin"
	"gonum.org/v1/gonum/stat/distuv"

	"ecoscape/internal/genotype"
	"ecoscape/internal/model"
)

// mutator applies independent per-locus mutation with a fixed rate. Instead
// of drawing L coin flips per individual it samples, per genotype class, how
// many individuals mutate at all (binomial) and then how many loci each
// mutant flips (binomial truncated at >= 1). The two schemes are
// distributionally identical.
type mutator struct {
	space genotype.Space
	rate  float64

	// pAny is the probability that an individual acquires at least one
	// mutation; cum is the cumulative weight of k = 1..L mutations.
	pAny float64
	cum  []float64

	classG []genotype.Genotype
	classN []int64
	loci   []int
}

func newMutator(space genotype.Space, rate float64) (*mutator, error) {
	if rate < 0 || rate > 1 || math.IsNaN(rate) {
		return nil, fmt.Errorf("%w: mutation rate must be in [0,1], got %v", model.ErrInvalidParameters, rate)
	}
	m := &mutator{space: space, rate: rate}
	if rate == 0 {
		return m, nil
	}

	L := space.Loci()
	m.pAny = 1 - math.Pow(1-rate, float64(L))
	m.cum = make([]float64, L)
	acc := 0.0
	for k := 1; k <= L; k++ {
		acc += combin.GeneralizedBinomial(float64(L), float64(k)) *
			math.Pow(1-rate, float64(L-k)) * math.Pow(rate, float64(k))
		m.cum[k-1] = acc
	}
	m.loci = make([]int, L)
	for i := range m.loci {
		m.loci[i] = i
	}
	return m, nil
}

// apply mutates the population in place. Classes are visited in ascending
// genotype order so the draw sequence is reproducible.
func (m *mutator) apply(pop *Population, rng *rand.Rand) {
	if m.rate == 0 {
		return
	}

	m.classG = m.classG[:0]
	m.classN = m.classN[:0]
	for idx, n := range pop.counts {
		if n > 0 {
			m.classG = append(m.classG, genotype.Genotype(idx))
			m.classN = append(m.classN, n)
		}
	}

	total := m.cum[len(m.cum)-1]
	for i, g := range m.classG {
		bin := distuv.Binomial{N: float64(m.classN[i]), P: m.pAny, Src: rng}
		mutants := int64(bin.Rand())
		if mutants == 0 {
			continue
		}
		pop.counts[g] -= mutants
		for k := int64(0); k < mutants; k++ {
			n := 1 + sort.SearchFloat64s(m.cum, rng.Float64()*total)
			pop.counts[m.flip(g, n, rng)]++
		}
	}
}

// flip returns g with n distinct loci flipped, chosen uniformly by a partial
// Fisher-Yates shuffle.
func (m *mutator) flip(g genotype.Genotype, n int, rng *rand.Rand) genotype.Genotype {
	L := m.space.Loci()
	for i := 0; i < n; i++ {
		j := i + rng.Intn(L-i)
		m.loci[i], m.loci[j] = m.loci[j], m.loci[i]
		g = m.space.Neighbor(g, m.loci[i])
	}
	return g
}
