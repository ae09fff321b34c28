// Package stats turns per-generation simulation snapshots into tabular
// records: a summary collector for long statistical runs and a detailed
// collector that dumps full landscape and population trajectories.
package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"ecoscape/internal/eco"
	"ecoscape/internal/genotype"
	"ecoscape/internal/model"
	"ecoscape/internal/sim"
)

const (
	// DefaultStableWindow is how many consecutive generations the dominant
	// genotype set must stay unchanged before a run counts as stable.
	DefaultStableWindow = 500

	// DefaultPersistMin is the population frequency a genotype needs to be
	// considered part of the dominant set.
	DefaultPersistMin = 0.1

	// DefaultMaxTop caps the dominant set size.
	DefaultMaxTop = 10
)

// SummaryConfig identifies the run a collector belongs to and tunes the
// stable-state detector. Zero detector fields fall back to the defaults.
type SummaryConfig struct {
	LandscapeIndex int
	Replicate      int

	StableWindow int
	PersistMin   float64
	MaxTop       int
}

// SummaryCollector accumulates one GenerationStats row per observed
// generation and tracks whether the population has settled on a stable set
// of dominant genotypes. It implements sim.Observer; its Stable method is
// meant to be passed as the simulator's convergence check.
type SummaryCollector struct {
	cfg  SummaryConfig
	rows []model.GenerationStats

	top          []genotype.Genotype
	unchangedFor int
}

// NewSummaryCollector returns a collector for one run.
func NewSummaryCollector(cfg SummaryConfig) (*SummaryCollector, error) {
	if cfg.StableWindow == 0 {
		cfg.StableWindow = DefaultStableWindow
	}
	if cfg.PersistMin == 0 {
		cfg.PersistMin = DefaultPersistMin
	}
	if cfg.MaxTop == 0 {
		cfg.MaxTop = DefaultMaxTop
	}
	if cfg.StableWindow < 0 {
		return nil, fmt.Errorf("%w: stable window %d", model.ErrInvalidParameters, cfg.StableWindow)
	}
	if cfg.PersistMin < 0 || cfg.PersistMin > 1 {
		return nil, fmt.Errorf("%w: persistence threshold %v", model.ErrInvalidParameters, cfg.PersistMin)
	}
	if cfg.MaxTop < 0 {
		return nil, fmt.Errorf("%w: max top genotypes %d", model.ErrInvalidParameters, cfg.MaxTop)
	}
	return &SummaryCollector{cfg: cfg}, nil
}

// OnGeneration implements sim.Observer.
func (c *SummaryCollector) OnGeneration(snap sim.Snapshot) {
	space := snap.Realized.Space()
	top := c.dominant(snap)
	c.trackStable(top)

	maxima := snap.Realized.Maxima()
	minima := snap.Realized.Minima()
	_, maxVal := snap.Realized.Max()
	_, minVal := snap.Realized.Min()
	mean, variance := snap.Realized.MeanVar()

	row := model.GenerationStats{
		Generation:          snap.Generation,
		PopulationSize:      snap.PopulationSize,
		LandscapeIndex:      c.cfg.LandscapeIndex,
		Replicate:           c.cfg.Replicate,
		Entropy:             ShannonEntropy(snap.Composition.Counts, snap.Composition.Size),
		HaplotypeDiversity:  HaplotypeDiversity(snap.Composition.Counts, snap.Composition.Size),
		NucleotideDiversity: NucleotideDiversity(space, snap.Composition),
		Strains:             len(snap.Composition.Genotypes),
		MaximaCount:         len(maxima),
		MinimaCount:         len(minima),
		Maximum:             maxVal,
		Minimum:             minVal,
		Gamma:               snap.Realized.Gamma(),
		MeanFitness:         mean,
		VarFitness:          variance,
		WildtypeFitness:     snap.Realized.Get(0),
		MeanPhenotypicDist:  snap.MeanPhenotypicDistance,
		TopGenotypes:        formatGenotypes(space, top),
	}
	c.rows = append(c.rows, row)
}

// Rows returns the accumulated records in generation order. The slice is
// owned by the collector.
func (c *SummaryCollector) Rows() []model.GenerationStats { return c.rows }

// Stable reports whether the dominant genotype set has been non-empty and
// unchanged for at least the configured window of generations.
func (c *SummaryCollector) Stable() bool {
	return len(c.top) > 0 && c.unchangedFor >= c.cfg.StableWindow
}

// TopGenotypes returns the current dominant set, sorted by descending
// realized fitness.
func (c *SummaryCollector) TopGenotypes() []genotype.Genotype {
	out := make([]genotype.Genotype, len(c.top))
	copy(out, c.top)
	return out
}

// dominant selects the genotypes that are both selected for (realized
// fitness above the population mean of one) and common enough to persist.
func (c *SummaryCollector) dominant(snap sim.Snapshot) []genotype.Genotype {
	comp := snap.Composition
	var out []genotype.Genotype
	for i, g := range comp.Genotypes {
		freq := float64(comp.Counts[i]) / float64(comp.Size)
		if freq >= c.cfg.PersistMin && snap.Realized.Get(g) > 1 {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		fi, fj := snap.Realized.Get(out[i]), snap.Realized.Get(out[j])
		if fi != fj {
			return fi > fj
		}
		return out[i] < out[j]
	})
	if len(out) > c.cfg.MaxTop {
		out = out[:c.cfg.MaxTop]
	}
	return out
}

func (c *SummaryCollector) trackStable(top []genotype.Genotype) {
	if sameSet(c.top, top) {
		c.unchangedFor++
	} else {
		c.top = top
		c.unchangedFor = 1
	}
}

func sameSet(a, b []genotype.Genotype) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[genotype.Genotype]bool, len(a))
	for _, g := range a {
		seen[g] = true
	}
	for _, g := range b {
		if !seen[g] {
			return false
		}
	}
	return true
}

func formatGenotypes(space genotype.Space, gs []genotype.Genotype) string {
	if len(gs) == 0 {
		return ""
	}
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = space.Format(g)
	}
	return strings.Join(parts, ";")
}

// ShannonEntropy is the entropy of the class frequency distribution in nats.
func ShannonEntropy(counts []int64, size int64) float64 {
	if size <= 0 {
		return 0
	}
	var h float64
	for _, n := range counts {
		if n == 0 {
			continue
		}
		p := float64(n) / float64(size)
		h -= p * math.Log(p)
	}
	return h
}

// HaplotypeDiversity is the probability that two individuals drawn at random
// belong to different genotype classes.
func HaplotypeDiversity(counts []int64, size int64) float64 {
	if size <= 0 {
		return 0
	}
	var sq float64
	for _, n := range counts {
		p := float64(n) / float64(size)
		sq += p * p
	}
	return 1 - sq
}

// NucleotideDiversity is the frequency-weighted mean Hamming distance over
// all ordered pairs of genotype classes.
func NucleotideDiversity(space genotype.Space, comp eco.Composition) float64 {
	if comp.Size <= 0 {
		return 0
	}
	var d float64
	for i, gi := range comp.Genotypes {
		pi := float64(comp.Counts[i]) / float64(comp.Size)
		for j, gj := range comp.Genotypes {
			if i == j {
				continue
			}
			pj := float64(comp.Counts[j]) / float64(comp.Size)
			d += pi * pj * float64(space.Distance(gi, gj))
		}
	}
	return d
}
