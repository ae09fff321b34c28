package landscape

import (
	"fmt"
	"sort"

	"ecoscape/internal/genotype"
	"ecoscape/internal/model"
)

// Aggregates are the precomputed per-replicate summaries kept alongside the
// value table.
type Aggregates struct {
	// MaxValue and MaxGenotype give the global maximum per resource.
	MaxValue    []float64
	MaxGenotype []genotype.Genotype
	// PeakCount counts local maxima per resource: genotypes whose value
	// strictly exceeds every Hamming neighbor.
	PeakCount []int
}

// Store is a read-only index over landscape replicates of one family.
// Lookups by (replicate, genotype, resource) and aggregate access are O(1).
type Store struct {
	space      genotype.Space
	resources  int
	name       string
	replicates map[int]*Landscape
	aggregates map[int]Aggregates
	ids        []int
}

// NewStore indexes the given replicates. All replicates must share the same
// space, resource dimension and family name, and replicate indices must be
// unique.
func NewStore(landscapes ...*Landscape) (*Store, error) {
	if len(landscapes) == 0 {
		return nil, fmt.Errorf("%w: at least one landscape is required", model.ErrInvalidParameters)
	}

	first := landscapes[0]
	s := &Store{
		space:      first.Space(),
		resources:  first.Resources(),
		name:       first.Name(),
		replicates: make(map[int]*Landscape, len(landscapes)),
		aggregates: make(map[int]Aggregates, len(landscapes)),
	}
	for _, l := range landscapes {
		if l.Space() != s.space || l.Resources() != s.resources || l.Name() != s.name {
			return nil, fmt.Errorf("%w: landscape replicate %d does not match store family %s",
				model.ErrInvalidParameters, l.Replicate(), s.name)
		}
		if _, dup := s.replicates[l.Replicate()]; dup {
			return nil, fmt.Errorf("%w: duplicate replicate %d", model.ErrInvalidParameters, l.Replicate())
		}
		s.replicates[l.Replicate()] = l
		s.aggregates[l.Replicate()] = aggregate(l)
		s.ids = append(s.ids, l.Replicate())
	}
	sort.Ints(s.ids)
	return s, nil
}

// Space returns the genotype space shared by all replicates.
func (s *Store) Space() genotype.Space { return s.space }

// Resources returns the resource dimension.
func (s *Store) Resources() int { return s.resources }

// Name returns the landscape family name.
func (s *Store) Name() string { return s.name }

// IDs returns the sorted replicate indices present in the store.
func (s *Store) IDs() []int {
	ids := make([]int, len(s.ids))
	copy(ids, s.ids)
	return ids
}

// Replicate returns the landscape with the given replicate index.
func (s *Store) Replicate(id int) (*Landscape, bool) {
	l, ok := s.replicates[id]
	return l, ok
}

// Aggregates returns the precomputed summaries of one replicate.
func (s *Store) Aggregates(id int) (Aggregates, bool) {
	a, ok := s.aggregates[id]
	return a, ok
}

// Value looks up the log-fitness of (replicate, genotype, resource).
func (s *Store) Value(id int, g genotype.Genotype, r int) (float64, error) {
	l, ok := s.replicates[id]
	if !ok {
		return 0, fmt.Errorf("%w: replicate %d not in store %s", model.ErrIO, id, s.name)
	}
	return l.Value(g, r), nil
}

func aggregate(l *Landscape) Aggregates {
	space := l.Space()
	resources := l.Resources()
	a := Aggregates{
		MaxValue:    make([]float64, resources),
		MaxGenotype: make([]genotype.Genotype, resources),
		PeakCount:   make([]int, resources),
	}
	for r := 0; r < resources; r++ {
		a.MaxValue[r] = l.Value(0, r)
	}
	for idx := 0; idx < space.Size(); idx++ {
		g := genotype.Genotype(idx)
		for r := 0; r < resources; r++ {
			v := l.Value(g, r)
			if v > a.MaxValue[r] {
				a.MaxValue[r] = v
				a.MaxGenotype[r] = g
			}
			peak := true
			for i := 0; i < space.Loci(); i++ {
				if l.Value(space.Neighbor(g, i), r) >= v {
					peak = false
					break
				}
			}
			if peak {
				a.PeakCount[r]++
			}
		}
	}
	return a
}
