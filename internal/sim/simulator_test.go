package sim

import (
	"context"
	"errors"
	"testing"

	"ecoscape/internal/eco"
	"ecoscape/internal/genotype"
	"ecoscape/internal/landscape"
	"ecoscape/internal/model"
)

func makeLandscape(t *testing.T, loci, resources int, values []float64) *landscape.Landscape {
	t.Helper()
	l, err := landscape.FromRecord(model.LandscapeRecord{
		Name:      "test",
		Loci:      loci,
		Resources: resources,
		Values:    values,
	})
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func makeEvaluator(t *testing.T, l *landscape.Landscape, amounts []float64, tr eco.Tradeoff, workers int) *eco.Evaluator {
	t.Helper()
	e, err := eco.NewEvaluator(l, amounts, tr, workers)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// generatedEvaluator draws a real landscape so simulator tests run on the
// same construction the programs use.
func generatedEvaluator(t *testing.T, loci int, seed uint64, tr eco.Tradeoff, workers int) *eco.Evaluator {
	t.Helper()
	s := space(t, loci)
	gen, err := landscape.NewGenerator(landscape.GeneratorConfig{
		Space:     s,
		Resources: 2,
		Model: landscape.Model{
			Kind:            landscape.KindRoughMountFuji,
			EpistaticWeight: 1,
			EpistaticDiag:   0.1,
			EpistaticOff:    0.05,
		},
		Seed: seed,
	})
	if err != nil {
		t.Fatal(err)
	}
	l, err := gen.Generate(0)
	if err != nil {
		t.Fatal(err)
	}
	return makeEvaluator(t, l, []float64{1, 1}, tr, workers)
}

type captureObserver struct {
	generations []int
}

func (c *captureObserver) OnGeneration(snap Snapshot) {
	c.generations = append(c.generations, snap.Generation)
}

func TestNewSimulatorValidation(t *testing.T) {
	e := generatedEvaluator(t, 4, 1, eco.Competitive{}, 1)
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing evaluator", Config{PopulationSize: 10, Generations: 5}},
		{"zero generations", Config{Evaluator: e, PopulationSize: 10}},
		{"zero population", Config{Evaluator: e, Generations: 5}},
		{"bad mutation rate", Config{Evaluator: e, PopulationSize: 10, Generations: 5, MutationRate: 2}},
		{"bad min generations", Config{Evaluator: e, PopulationSize: 10, Generations: 5, MinGenerations: 9}},
		{"seed genotype outside space", Config{Evaluator: e, PopulationSize: 10, Generations: 5,
			Init: InitSingleGenotype, InitGenotype: 1 << 20}},
		{"unknown init mode", Config{Evaluator: e, PopulationSize: 10, Generations: 5, Init: "mystery"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSimulator(tc.cfg); !errors.Is(err, model.ErrInvalidParameters) {
				t.Fatalf("expected ErrInvalidParameters, got %v", err)
			}
		})
	}
}

func TestPopulationSizeIsExactEveryGeneration(t *testing.T) {
	for _, n := range []int64{1, 20, 333} {
		e := generatedEvaluator(t, 5, 7, eco.Competitive{}, 1)
		s, err := NewSimulator(Config{
			Evaluator:      e,
			PopulationSize: n,
			MutationRate:   0.02,
			Generations:    40,
			Seed:           5,
		})
		if err != nil {
			t.Fatal(err)
		}
		for s.State() != StateTerminated {
			if err := s.Step(); err != nil {
				t.Fatal(err)
			}
			var total int64
			for idx := 0; idx < s.Population().Space().Size(); idx++ {
				total += s.Population().Count(genotype.Genotype(idx))
			}
			if total != n {
				t.Fatalf("N=%d: generation %d has %d individuals", n, s.Generation(), total)
			}
		}
	}
}

func TestStateMachine(t *testing.T) {
	e := generatedEvaluator(t, 4, 2, eco.Competitive{}, 1)
	s, err := NewSimulator(Config{
		Evaluator:      e,
		PopulationSize: 10,
		Generations:    3,
		Seed:           1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.State() != StateInitialized {
		t.Fatalf("initial state: %v", s.State())
	}
	if err := s.Step(); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateEvolving {
		t.Fatalf("state after one step: %v", s.State())
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.State() != StateTerminated || s.Generation() != 3 {
		t.Fatalf("final state %v at generation %d", s.State(), s.Generation())
	}
	if err := s.Step(); err == nil {
		t.Fatal("Step after termination must fail")
	}
}

func TestSelectionOnlyRunFixesTheBestSeededGenotype(t *testing.T) {
	// Strongly separated fitness ranks and no mutation: the fittest
	// genotype present at generation 0 must fix.
	l := makeLandscape(t, 2, 1, []float64{0, 2, 4, 6})
	e := makeEvaluator(t, l, []float64{1}, eco.Fixed{}, 1)
	s, err := NewSimulator(Config{
		Evaluator:           e,
		PopulationSize:      300,
		MutationRate:        0,
		Generations:         500,
		Seed:                42,
		Init:                InitBernoulli,
		InitAlleleProb:      0.5,
		TerminateOnFixation: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	seeded := s.Population().Classes()
	best := seeded.Genotypes[0]
	for _, g := range seeded.Genotypes[1:] {
		if l.Value(g, 0) > l.Value(best, 0) {
			best = g
		}
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	fixed, ok := s.Population().Fixed()
	if !ok {
		t.Fatalf("population did not fix within %d generations", s.Generation())
	}
	if fixed != best {
		t.Fatalf("fixed genotype %d, want %d", fixed, best)
	}
}

func TestEcologicalFeedbackSustainsDiversity(t *testing.T) {
	// Two mirror specialists; the second is worse on aggregate. Without
	// feedback the first excludes it; with feedback both persist.
	values := []float64{
		2, -2,
		-2, 1.5,
	}
	run := func(tr eco.Tradeoff) int {
		l := makeLandscape(t, 1, 2, values)
		e := makeEvaluator(t, l, []float64{1, 1}, tr, 1)
		s, err := NewSimulator(Config{
			Evaluator:      e,
			PopulationSize: 200,
			MutationRate:   0,
			Generations:    100,
			Seed:           9,
			Init:           InitBernoulli,
			InitAlleleProb: 0.5,
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		return s.Population().NGenotypes()
	}

	if got := run(eco.Fixed{}); got != 1 {
		t.Fatalf("fixed allocation: %d genotypes survived, want 1", got)
	}
	if got := run(eco.Competitive{}); got != 2 {
		t.Fatalf("competitive allocation: %d genotypes survived, want 2", got)
	}
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	// L=4, two resources, epistatic-only landscape, N=20, m=0.01,
	// 200 generations, seed 42: repeated runs must agree exactly.
	run := func(workers int) []int64 {
		e := generatedEvaluator(t, 4, 42, eco.Competitive{}, workers)
		s, err := NewSimulator(Config{
			Evaluator:      e,
			PopulationSize: 20,
			MutationRate:   0.01,
			Generations:    200,
			Seed:           42,
			Init:           InitSingleGenotype,
			InitGenotype:   0,
		})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		counts := make([]int64, s.Population().Space().Size())
		for idx := range counts {
			counts[idx] = s.Population().Count(genotype.Genotype(idx))
		}
		return counts
	}

	first := run(1)
	second := run(1)
	parallel := run(4)
	for idx := range first {
		if first[idx] != second[idx] {
			t.Fatalf("repeated runs disagree at genotype %d: %d vs %d", idx, first[idx], second[idx])
		}
		if first[idx] != parallel[idx] {
			t.Fatalf("parallel evaluation changed the outcome at genotype %d: %d vs %d",
				idx, first[idx], parallel[idx])
		}
	}
}

func TestDegenerateFitnessIsReportedWithGeneration(t *testing.T) {
	l := makeLandscape(t, 1, 1, []float64{-1e9, -1e9})
	e := makeEvaluator(t, l, []float64{1}, eco.Fixed{}, 1)
	s, err := NewSimulator(Config{
		Evaluator:      e,
		PopulationSize: 10,
		Generations:    5,
		Seed:           1,
		Init:           InitSingleGenotype,
		InitGenotype:   0,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = s.Step()
	if !errors.Is(err, model.ErrDegenerateFitness) {
		t.Fatalf("expected ErrDegenerateFitness, got %v", err)
	}
	if s.State() != StateTerminated {
		t.Fatalf("state after degenerate generation: %v", s.State())
	}
}

func TestObserversSeeEveryGeneration(t *testing.T) {
	e := generatedEvaluator(t, 4, 3, eco.Competitive{}, 1)
	cap1 := &captureObserver{}
	s, err := NewSimulator(Config{
		Evaluator:      e,
		PopulationSize: 30,
		MutationRate:   0.05,
		Generations:    10,
		Seed:           4,
		Observers:      []Observer{cap1},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(cap1.generations) != 10 {
		t.Fatalf("observer saw %d generations, want 10", len(cap1.generations))
	}
	for i, g := range cap1.generations {
		if g != i+1 {
			t.Fatalf("generation sequence: %v", cap1.generations)
		}
	}
}

func TestConvergedCallbackTerminatesAfterMinGenerations(t *testing.T) {
	e := generatedEvaluator(t, 4, 6, eco.Competitive{}, 1)
	s, err := NewSimulator(Config{
		Evaluator:      e,
		PopulationSize: 20,
		MutationRate:   0.01,
		Generations:    100,
		MinGenerations: 7,
		Seed:           2,
		Converged:      func() bool { return true },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.Generation() != 7 {
		t.Fatalf("terminated at generation %d, want 7", s.Generation())
	}
}
