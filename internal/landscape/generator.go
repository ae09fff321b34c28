package landscape

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"

	"ecoscape/internal/genotype"
	"ecoscape/internal/model"
)

// GeneratorConfig collects everything needed to draw landscape replicates.
type GeneratorConfig struct {
	Space     genotype.Space
	Resources int
	Model     Model
	Seed      uint64
	Workers   int
}

// Generator draws independent landscape replicates. Replicate k owns an RNG
// stream derived from (Seed, k), so generating replicates in parallel or in
// any order yields byte-identical tables.
type Generator struct {
	cfg  GeneratorConfig
	name string
}

// NewGenerator validates the configuration eagerly; no draw happens before
// every parameter has been checked.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Space.Size() == 0 {
		return nil, fmt.Errorf("%w: genotype space is required", model.ErrInvalidParameters)
	}
	if err := cfg.Model.Validate(cfg.Resources); err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Generator{cfg: cfg, name: cfg.Model.Name(cfg.Resources)}, nil
}

// Name returns the landscape family name for this generator.
func (g *Generator) Name() string { return g.name }

// Generate draws one replicate.
func (g *Generator) Generate(replicate int) (*Landscape, error) {
	if replicate < 0 {
		return nil, fmt.Errorf("%w: replicate index must be >= 0, got %d", model.ErrInvalidParameters, replicate)
	}

	space := g.cfg.Space
	resources := g.cfg.Resources
	m := g.cfg.Model
	src := rand.NewSource(deriveSeed(g.cfg.Seed, replicate))

	var additive []float64 // per-locus effects, locus-major
	if m.HasAdditive() {
		mu := make([]float64, resources)
		for i := range mu {
			mu[i] = m.Mu
		}
		mvn, ok := distmv.NewNormal(mu, covMatrix(resources, m.AdditiveDiag, m.AdditiveOff), src)
		if !ok {
			return nil, fmt.Errorf("%w: additive covariance is not positive definite", model.ErrInvalidParameters)
		}
		additive = make([]float64, space.Loci()*resources)
		for i := 0; i < space.Loci(); i++ {
			mvn.Rand(additive[i*resources : (i+1)*resources])
		}
	}

	var epistatic *distmv.Normal
	if m.HasEpistatic() {
		var ok bool
		epistatic, ok = distmv.NewNormal(make([]float64, resources), covMatrix(resources, m.EpistaticDiag, m.EpistaticOff), src)
		if !ok {
			return nil, fmt.Errorf("%w: epistatic covariance is not positive definite", model.ErrInvalidParameters)
		}
	}

	values := make([]float64, space.Size()*resources)
	draw := make([]float64, resources)
	for idx := 0; idx < space.Size(); idx++ {
		gt := genotype.Genotype(idx)
		row := values[idx*resources : (idx+1)*resources]
		if epistatic != nil {
			epistatic.Rand(draw)
			for r := range row {
				row[r] = m.EpistaticWeight * draw[r]
			}
		}
		if additive != nil {
			for i := 0; i < space.Loci(); i++ {
				if space.Allele(gt, i) == 0 {
					continue
				}
				eff := additive[i*resources : (i+1)*resources]
				for r := range row {
					row[r] += m.AdditiveWeight * eff[r]
				}
			}
		}
	}

	return &Landscape{
		space:     space,
		resources: resources,
		replicate: replicate,
		name:      g.name,
		values:    values,
	}, nil
}

// GenerateRange draws count replicates starting at first, in parallel across
// workers. Results are ordered by replicate index.
func (g *Generator) GenerateRange(ctx context.Context, first, count int) ([]*Landscape, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: replicate count must be > 0, got %d", model.ErrInvalidParameters, count)
	}
	if first < 0 {
		return nil, fmt.Errorf("%w: first replicate must be >= 0, got %d", model.ErrInvalidParameters, first)
	}

	out := make([]*Landscape, count)
	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(g.cfg.Workers)
	for i := 0; i < count; i++ {
		i := i
		p.Go(func(context.Context) error {
			l, err := g.Generate(first + i)
			if err != nil {
				return err
			}
			out[i] = l
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// deriveSeed mixes the base seed with the replicate index (splitmix64 finalizer)
// so per-replicate streams are independent of generation order.
func deriveSeed(seed uint64, replicate int) uint64 {
	z := seed + 0x9E3779B97F4A7C15*uint64(replicate+1)
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
