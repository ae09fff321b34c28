package sim

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/exp/rand"

	"ecoscape/internal/eco"
	"ecoscape/internal/fitness"
	"ecoscape/internal/genotype"
	"ecoscape/internal/model"
)

// State is the simulator lifecycle stage.
type State int

const (
	StateInitialized State = iota
	StateEvolving
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateEvolving:
		return "evolving"
	default:
		return "terminated"
	}
}

// InitMode selects how generation 0 is seeded.
type InitMode string

const (
	// InitSingleRandom fills the population with one uniformly drawn genotype.
	InitSingleRandom InitMode = "single-random"
	// InitSingleGenotype fills the population with Config.InitGenotype.
	InitSingleGenotype InitMode = "single"
	// InitBernoulli draws every individual locus-wise with
	// Config.InitAlleleProb per derived allele.
	InitBernoulli InitMode = "bernoulli"
)

// Snapshot is the read-only per-generation view handed to observers.
type Snapshot struct {
	Generation             int
	PopulationSize         int64
	Composition            eco.Composition
	Realized               *fitness.Landscape
	ResourceWeights        []float64
	MeanPhenotypicDistance float64
}

// Observer consumes generation snapshots. Observers must not retain or
// modify the composition slices.
type Observer interface {
	OnGeneration(Snapshot)
}

// Config assembles one simulation run.
type Config struct {
	Evaluator      *eco.Evaluator
	PopulationSize int64
	MutationRate   float64
	Generations    int
	// MinGenerations gates the convergence check so short-lived transients
	// do not stop a run early.
	MinGenerations int
	Seed           uint64

	Init           InitMode
	InitGenotype   genotype.Genotype
	InitAlleleProb float64

	// TerminateOnFixation stops the run once a single genotype comprises
	// the whole population.
	TerminateOnFixation bool
	// Converged, when set, is polled after each generation past
	// MinGenerations; returning true terminates the run.
	Converged func() bool

	Observers []Observer
}

// Simulator is the Wright-Fisher engine: mutation, ecological evaluation and
// multinomial resampling, advanced one generation per Step.
type Simulator struct {
	cfg   Config
	space genotype.Space
	pop   *Population
	mut   *mutator
	rng   *rand.Rand

	state State
	gen   int

	weights []float64
	cum     []float64
	next    []int64
}

// NewSimulator validates the configuration eagerly and seeds generation 0.
func NewSimulator(cfg Config) (*Simulator, error) {
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator is required", model.ErrInvalidParameters)
	}
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("%w: generations must be > 0, got %d", model.ErrInvalidParameters, cfg.Generations)
	}
	if cfg.MinGenerations < 0 || cfg.MinGenerations > cfg.Generations {
		return nil, fmt.Errorf("%w: min generations must be in [0,%d], got %d",
			model.ErrInvalidParameters, cfg.Generations, cfg.MinGenerations)
	}

	space := cfg.Evaluator.Landscape().Space()
	pop, err := NewPopulation(space, cfg.PopulationSize)
	if err != nil {
		return nil, err
	}
	mut, err := newMutator(space, cfg.MutationRate)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:   cfg,
		space: space,
		pop:   pop,
		mut:   mut,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		next:  make([]int64, space.Size()),
	}

	switch cfg.Init {
	case "", InitSingleRandom:
		pop.InitSingleRandom(s.rng)
	case InitSingleGenotype:
		if !space.Contains(cfg.InitGenotype) {
			return nil, fmt.Errorf("%w: seed genotype %d outside space of size %d",
				model.ErrInvalidParameters, cfg.InitGenotype, space.Size())
		}
		pop.InitSingle(cfg.InitGenotype)
	case InitBernoulli:
		if err := pop.InitBernoulli(s.rng, cfg.InitAlleleProb); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown init mode %q", model.ErrInvalidParameters, cfg.Init)
	}
	return s, nil
}

// State returns the lifecycle stage.
func (s *Simulator) State() State { return s.state }

// Generation returns the index of the last completed generation.
func (s *Simulator) Generation() int { return s.gen }

// Population returns the live population. Callers must treat it as read-only.
func (s *Simulator) Population() *Population { return s.pop }

// Step advances one generation: mutation, resource-weight update from the
// pre-mutation composition, realized-fitness evaluation, and resampling.
func (s *Simulator) Step() error {
	if s.state == StateTerminated {
		return fmt.Errorf("simulator is terminated after generation %d", s.gen)
	}
	s.state = StateEvolving

	rw := s.cfg.Evaluator.ResourceWeights(s.pop.Classes())
	s.mut.apply(s.pop, s.rng)

	comp := s.pop.Classes()
	weights, err := s.cfg.Evaluator.ClassWeights(comp, rw, s.weights)
	if err != nil {
		s.state = StateTerminated
		return fmt.Errorf("generation %d: %w", s.gen, err)
	}
	s.weights = weights

	s.resample(comp, weights)
	s.gen++

	if err := s.observe(); err != nil {
		s.state = StateTerminated
		return err
	}

	switch {
	case s.gen >= s.cfg.Generations:
		s.state = StateTerminated
	case s.cfg.TerminateOnFixation && s.isFixed():
		s.state = StateTerminated
	case s.cfg.Converged != nil && s.gen >= s.cfg.MinGenerations && s.cfg.Converged():
		s.state = StateTerminated
	}
	return nil
}

// Run steps until termination, checking for cancellation at generation
// boundaries only; all state is generation-consistent on return.
func (s *Simulator) Run(ctx context.Context) error {
	for s.state != StateTerminated {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// resample draws the next generation multinomially with class probabilities
// proportional to realized fitness. Population size is preserved exactly.
func (s *Simulator) resample(comp eco.Composition, weights []float64) {
	if cap(s.cum) < len(weights) {
		s.cum = make([]float64, len(weights))
	}
	s.cum = s.cum[:len(weights)]
	acc := 0.0
	for i, w := range weights {
		acc += w
		s.cum[i] = acc
	}
	total := s.cum[len(s.cum)-1]

	clear(s.next)
	for i := int64(0); i < s.pop.size; i++ {
		idx := sort.SearchFloat64s(s.cum, s.rng.Float64()*total)
		s.next[comp.Genotypes[idx]]++
	}
	copy(s.pop.counts, s.next)
}

func (s *Simulator) isFixed() bool {
	_, ok := s.pop.Fixed()
	return ok
}

func (s *Simulator) observe() error {
	if len(s.cfg.Observers) == 0 {
		return nil
	}
	comp := s.pop.Classes()
	rw := s.cfg.Evaluator.ResourceWeights(comp)
	full, err := s.cfg.Evaluator.FullLandscape(comp, rw)
	if err != nil {
		return fmt.Errorf("generation %d: %w", s.gen, err)
	}
	snap := Snapshot{
		Generation:             s.gen,
		PopulationSize:         s.pop.Size(),
		Composition:            comp,
		Realized:               full,
		ResourceWeights:        rw,
		MeanPhenotypicDistance: s.cfg.Evaluator.MeanPhenotypicDistance(comp),
	}
	for _, o := range s.cfg.Observers {
		o.OnGeneration(snap)
	}
	return nil
}
