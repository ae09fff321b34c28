package stats

import (
	"fmt"
	"os"
	"path/filepath"

	"ecoscape/internal/genotype"
	"ecoscape/internal/model"
	"ecoscape/internal/sim"
)

// LandscapeRow is one genotype of the realized landscape at one generation.
type LandscapeRow struct {
	Generation int     `csv:"generation"`
	Genotype   string  `csv:"genotype"`
	Fitness    float64 `csv:"fitness"`
}

// PopulationRow is one genotype class of the population at one generation.
type PopulationRow struct {
	Generation int     `csv:"generation"`
	Genotype   string  `csv:"genotype"`
	Count      int64   `csv:"count"`
	Frequency  float64 `csv:"frequency"`
}

// ResourceRow is the resource weight vector at one generation, one row per
// resource.
type ResourceRow struct {
	Generation int     `csv:"generation"`
	Resource   int     `csv:"resource"`
	Weight     float64 `csv:"weight"`
}

// DetailedCollector records the full realized landscape, the population
// distribution and the resource weights at every generation, and flushes
// them as CSV files into an output directory on Close. Observer callbacks
// cannot return errors, so write failures are held and reported by Err.
type DetailedCollector struct {
	dir string
	err error

	landscape  []LandscapeRow
	population []PopulationRow
	resources  []ResourceRow
}

// NewDetailedCollector creates the output directory if needed.
func NewDetailedCollector(dir string) (*DetailedCollector, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: empty output directory", model.ErrInvalidParameters)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", model.ErrIO, dir, err)
	}
	return &DetailedCollector{dir: dir}, nil
}

// OnGeneration implements sim.Observer.
func (c *DetailedCollector) OnGeneration(snap sim.Snapshot) {
	space := snap.Realized.Space()
	for i := 0; i < space.Size(); i++ {
		g := genotype.Genotype(i)
		c.landscape = append(c.landscape, LandscapeRow{
			Generation: snap.Generation,
			Genotype:   space.Format(g),
			Fitness:    snap.Realized.Get(g),
		})
	}
	for i, g := range snap.Composition.Genotypes {
		n := snap.Composition.Counts[i]
		c.population = append(c.population, PopulationRow{
			Generation: snap.Generation,
			Genotype:   space.Format(g),
			Count:      n,
			Frequency:  float64(n) / float64(snap.Composition.Size),
		})
	}
	for j, w := range snap.ResourceWeights {
		c.resources = append(c.resources, ResourceRow{
			Generation: snap.Generation,
			Resource:   j,
			Weight:     w,
		})
	}
}

// Close writes the accumulated trajectories to landscape.csv, population.csv
// and resources.csv under the output directory.
func (c *DetailedCollector) Close() error {
	if err := writeCSV(filepath.Join(c.dir, "landscape.csv"), &c.landscape); err != nil {
		c.fail(err)
	}
	if err := writeCSV(filepath.Join(c.dir, "population.csv"), &c.population); err != nil {
		c.fail(err)
	}
	if err := writeCSV(filepath.Join(c.dir, "resources.csv"), &c.resources); err != nil {
		c.fail(err)
	}
	return c.err
}

// Err returns the first error seen since the collector was created.
func (c *DetailedCollector) Err() error { return c.err }

func (c *DetailedCollector) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}
