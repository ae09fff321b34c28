// Package genotype indexes the combinatorial space of binary-locus genomes.
// A genotype is a fixed-width integer whose bit i is the allele at locus i,
// so the full hypercube of 2^L genotypes maps onto flat arrays without any
// per-locus allocation.
package genotype

import (
	"fmt"
	"math/bits"
	"strings"

	"ecoscape/internal/model"
)

// Genotype identifies one point of the hypercube. Bit i is locus i.
type Genotype uint32

// MaxLoci bounds the genotype length so the full value table of a landscape
// stays addressable.
const MaxLoci = 30

// Space describes the hypercube of all genotypes with a fixed number of loci.
type Space struct {
	loci int
	size int
}

// NewSpace validates the genotype length and returns the corresponding space.
func NewSpace(loci int) (Space, error) {
	if loci <= 0 || loci > MaxLoci {
		return Space{}, fmt.Errorf("%w: loci must be in [1,%d], got %d", model.ErrInvalidParameters, MaxLoci, loci)
	}
	return Space{loci: loci, size: 1 << loci}, nil
}

// Loci returns the genotype length L.
func (s Space) Loci() int { return s.loci }

// Size returns the genotype count 2^L.
func (s Space) Size() int { return s.size }

// Contains reports whether g is a valid genotype of this space.
func (s Space) Contains(g Genotype) bool { return int(g) < s.size }

// Allele returns the allele at the given locus.
func (s Space) Allele(g Genotype, locus int) uint8 {
	return uint8(g >> locus & 1)
}

// Alleles decodes g into a per-locus allele slice, reusing dst when it has
// sufficient capacity.
func (s Space) Alleles(g Genotype, dst []uint8) []uint8 {
	if cap(dst) < s.loci {
		dst = make([]uint8, s.loci)
	}
	dst = dst[:s.loci]
	for i := 0; i < s.loci; i++ {
		dst[i] = uint8(g >> i & 1)
	}
	return dst
}

// FromAlleles is the inverse of Alleles.
func (s Space) FromAlleles(seq []uint8) (Genotype, error) {
	if len(seq) != s.loci {
		return 0, fmt.Errorf("%w: allele sequence length %d, want %d", model.ErrInvalidParameters, len(seq), s.loci)
	}
	var g Genotype
	for i, a := range seq {
		if a > 1 {
			return 0, fmt.Errorf("%w: allele at locus %d is %d, want 0 or 1", model.ErrInvalidParameters, i, a)
		}
		g |= Genotype(a) << i
	}
	return g, nil
}

// Neighbor returns the genotype differing from g at exactly the given locus.
func (s Space) Neighbor(g Genotype, locus int) Genotype {
	return g ^ 1<<locus
}

// AlleleSum counts the derived (1) alleles of g.
func (s Space) AlleleSum(g Genotype) int {
	return bits.OnesCount32(uint32(g))
}

// Distance returns the Hamming distance between two genotypes.
func (s Space) Distance(g1, g2 Genotype) int {
	return bits.OnesCount32(uint32(g1 ^ g2))
}

// Format renders g as space-separated alleles, locus 0 first.
func (s Space) Format(g Genotype) string {
	var b strings.Builder
	for i := 0; i < s.loci; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('0' + byte(g>>i&1))
	}
	return b.String()
}
