package landscape

import (
	"fmt"

	"ecoscape/internal/genotype"
	"ecoscape/internal/model"
)

// Landscape is one immutable replicate: a flat table of log-fitness values
// indexed genotype*resources + resource.
type Landscape struct {
	space     genotype.Space
	resources int
	replicate int
	name      string
	values    []float64
}

// Space returns the genotype space the landscape is defined over.
func (l *Landscape) Space() genotype.Space { return l.space }

// Resources returns the resource dimension R.
func (l *Landscape) Resources() int { return l.resources }

// Replicate returns the replicate index of this landscape.
func (l *Landscape) Replicate() int { return l.replicate }

// Name returns the landscape family name.
func (l *Landscape) Name() string { return l.name }

// Value returns the log-fitness contribution of genotype g on resource r.
func (l *Landscape) Value(g genotype.Genotype, r int) float64 {
	return l.values[int(g)*l.resources+r]
}

// Row returns the per-resource value slice of genotype g. The slice aliases
// the landscape table and must not be modified.
func (l *Landscape) Row(g genotype.Genotype) []float64 {
	off := int(g) * l.resources
	return l.values[off : off+l.resources]
}

// Table returns the full flat value table. Read-only.
func (l *Landscape) Table() []float64 { return l.values }

// Record converts the landscape into its persisted form.
func (l *Landscape) Record(seed uint64) model.LandscapeRecord {
	values := make([]float64, len(l.values))
	copy(values, l.values)
	return model.LandscapeRecord{
		Name:      l.name,
		Replicate: l.replicate,
		Loci:      l.space.Loci(),
		Resources: l.resources,
		Seed:      seed,
		Values:    values,
	}
}

// FromRecord reconstructs a landscape from its persisted form. The value
// table length must match the declared dimensions exactly.
func FromRecord(rec model.LandscapeRecord) (*Landscape, error) {
	space, err := genotype.NewSpace(rec.Loci)
	if err != nil {
		return nil, err
	}
	if rec.Resources <= 0 {
		return nil, fmt.Errorf("%w: landscape %s replicate %d declares %d resources",
			model.ErrIO, rec.Name, rec.Replicate, rec.Resources)
	}
	want := space.Size() * rec.Resources
	if len(rec.Values) != want {
		return nil, fmt.Errorf("%w: landscape %s replicate %d has %d values, want %d",
			model.ErrIO, rec.Name, rec.Replicate, len(rec.Values), want)
	}
	values := make([]float64, want)
	copy(values, rec.Values)
	return &Landscape{
		space:     space,
		resources: rec.Resources,
		replicate: rec.Replicate,
		name:      rec.Name,
		values:    values,
	}, nil
}
