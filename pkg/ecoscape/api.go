// Package ecoscape is the public entry point of the engine. A Client owns a
// store and an output directory and exposes the three workflows the CLI
// drives: landscape generation, batched statistical evolution runs and
// single detailed convergence runs.
package ecoscape

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ecoscape/internal/eco"
	"ecoscape/internal/genotype"
	"ecoscape/internal/landscape"
	"ecoscape/internal/model"
	"ecoscape/internal/sim"
	"ecoscape/internal/stats"
	"ecoscape/internal/storage"
)

const (
	defaultOutputDir = "out"
	defaultDBPath    = "ecoscape.db"
)

type Options struct {
	StoreKind string
	DBPath    string
	OutputDir string
}

type Client struct {
	store     storage.Store
	outputDir string
}

// LandscapeRequest identifies one landscape family and how many replicates
// of it to draw.
type LandscapeRequest struct {
	Loci      int
	Resources int
	Model     landscape.Model
	Count     int
	Seed      uint64
	Workers   int
}

type LandscapeSummary struct {
	Name      string
	Generated []int
	Skipped   []int
}

// EvolveRequest runs the full statistical sweep: every combination of
// population size, landscape replicate in [FirstLandscape, LastLandscape]
// and run replicate.
type EvolveRequest struct {
	Landscape LandscapeRequest

	PopulationSizes []int64
	MutationRate    float64
	ResourceAmounts []float64
	Generations     int
	MinGenerations  int
	Replicates      int
	FirstLandscape  int
	LastLandscape   int
	Tradeoff        string
	Init            string
	InitAlleleProb  float64
	Seed            uint64
	Workers         int
	StableWindow    int
}

type EvolveSummary struct {
	Runs     []model.RunSummary
	IndexCSV string
}

// ConvergeRequest runs one landscape replicate to fixation or the
// generation cap, dumping full per-generation trajectories.
type ConvergeRequest struct {
	Landscape LandscapeRequest

	LandscapeIndex  int
	PopulationSize  int64
	MutationRate    float64
	ResourceAmounts []float64
	Generations     int
	Tradeoff        string
	Init            string
	InitAlleleProb  float64
	Seed            uint64
	Workers         int
}

type ConvergeSummary struct {
	RunID       string
	OutputDir   string
	Generations int
	Fixed       bool
}

type RunsRequest struct {
	Limit int
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = defaultOutputDir
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{store: store, outputDir: outputDir}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// GenerateLandscapes draws the requested replicates and persists them.
// Replicates already in the store are left untouched, so a family can be
// grown incrementally without redrawing earlier replicates.
func (c *Client) GenerateLandscapes(ctx context.Context, req LandscapeRequest) (LandscapeSummary, error) {
	gen, err := newGenerator(req)
	if err != nil {
		return LandscapeSummary{}, err
	}
	if req.Count <= 0 {
		return LandscapeSummary{}, fmt.Errorf("%w: landscape count must be > 0, got %d",
			model.ErrInvalidParameters, req.Count)
	}

	summary := LandscapeSummary{Name: gen.Name()}
	for replicate := 0; replicate < req.Count; replicate++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if _, ok, err := c.store.GetLandscape(ctx, gen.Name(), replicate); err != nil {
			return summary, err
		} else if ok {
			summary.Skipped = append(summary.Skipped, replicate)
			continue
		}

		land, err := gen.Generate(replicate)
		if err != nil {
			return summary, err
		}
		record := land.Record(req.Seed)
		record.VersionedRecord = storage.Stamp()
		if err := c.store.SaveLandscape(ctx, record); err != nil {
			return summary, err
		}
		summary.Generated = append(summary.Generated, replicate)
	}
	return summary, nil
}

// RunStatistical executes the sweep and records, per run, a summary row in
// the store, the generation statistics blob, and a CSV file under the
// output directory. It finishes with a run index CSV covering the sweep.
func (c *Client) RunStatistical(ctx context.Context, req EvolveRequest) (EvolveSummary, error) {
	if len(req.PopulationSizes) == 0 {
		req.PopulationSizes = []int64{1000}
	}
	if req.Replicates <= 0 {
		req.Replicates = 1
	}
	if req.LastLandscape < 0 {
		req.LastLandscape = req.Landscape.Count - 1
	}
	tradeoff, ok := eco.ByName(req.Tradeoff)
	if !ok {
		return EvolveSummary{}, fmt.Errorf("%w: unknown trade-off %q", model.ErrInvalidParameters, req.Tradeoff)
	}

	name, err := familyName(req.Landscape)
	if err != nil {
		return EvolveSummary{}, err
	}
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return EvolveSummary{}, fmt.Errorf("%w: create %s: %v", model.ErrIO, c.outputDir, err)
	}

	var summary EvolveSummary
	run := 0
	for index := req.FirstLandscape; index <= req.LastLandscape; index++ {
		record, ok, err := c.store.GetLandscape(ctx, name, index)
		if err != nil {
			return summary, err
		}
		if !ok {
			return summary, fmt.Errorf("%w: landscape %s replicate %d not found; generate it first",
				model.ErrIO, name, index)
		}
		land, err := landscape.FromRecord(record)
		if err != nil {
			return summary, err
		}
		evaluator, err := eco.NewEvaluator(land, c.amounts(req.ResourceAmounts, req.Landscape.Resources), tradeoff, req.Workers)
		if err != nil {
			return summary, err
		}

		for _, popSize := range req.PopulationSizes {
			for replicate := 0; replicate < req.Replicates; replicate++ {
				if err := ctx.Err(); err != nil {
					return summary, err
				}

				collector, err := stats.NewSummaryCollector(stats.SummaryConfig{
					LandscapeIndex: index,
					Replicate:      replicate,
					StableWindow:   req.StableWindow,
				})
				if err != nil {
					return summary, err
				}

				runSeed := mixSeed(req.Seed, uint64(run))
				run++
				started := time.Now()
				sm, err := sim.NewSimulator(sim.Config{
					Evaluator:      evaluator,
					PopulationSize: popSize,
					MutationRate:   req.MutationRate,
					Generations:    req.Generations,
					MinGenerations: req.MinGenerations,
					Seed:           runSeed,
					Init:           sim.InitMode(req.Init),
					InitAlleleProb: req.InitAlleleProb,
					Converged:      collector.Stable,
					Observers:      []sim.Observer{collector},
				})
				if err != nil {
					return summary, err
				}
				if err := sm.Run(ctx); err != nil {
					return summary, err
				}

				runSummary, err := c.finishRun(ctx, req, record, collector, sm, popSize, runSeed, started)
				if err != nil {
					return summary, err
				}
				summary.Runs = append(summary.Runs, runSummary)
			}
		}
	}

	indexCSV := filepath.Join(c.outputDir, "runs.csv")
	if err := stats.WriteRunIndexCSV(indexCSV, summary.Runs); err != nil {
		return summary, err
	}
	summary.IndexCSV = indexCSV
	return summary, nil
}

// RunConvergence evolves one landscape replicate until fixation or the
// generation cap and writes the full trajectory into a run directory.
func (c *Client) RunConvergence(ctx context.Context, req ConvergeRequest) (ConvergeSummary, error) {
	tradeoff, ok := eco.ByName(req.Tradeoff)
	if !ok {
		return ConvergeSummary{}, fmt.Errorf("%w: unknown trade-off %q", model.ErrInvalidParameters, req.Tradeoff)
	}
	name, err := familyName(req.Landscape)
	if err != nil {
		return ConvergeSummary{}, err
	}
	record, ok, err := c.store.GetLandscape(ctx, name, req.LandscapeIndex)
	if err != nil {
		return ConvergeSummary{}, err
	}
	if !ok {
		return ConvergeSummary{}, fmt.Errorf("%w: landscape %s replicate %d not found; generate it first",
			model.ErrIO, name, req.LandscapeIndex)
	}
	land, err := landscape.FromRecord(record)
	if err != nil {
		return ConvergeSummary{}, err
	}
	evaluator, err := eco.NewEvaluator(land, c.amounts(req.ResourceAmounts, req.Landscape.Resources), tradeoff, req.Workers)
	if err != nil {
		return ConvergeSummary{}, err
	}

	runID := uuid.NewString()
	runDir := filepath.Join(c.outputDir, "converge-"+runID)
	collector, err := stats.NewDetailedCollector(runDir)
	if err != nil {
		return ConvergeSummary{}, err
	}

	sm, err := sim.NewSimulator(sim.Config{
		Evaluator:           evaluator,
		PopulationSize:      req.PopulationSize,
		MutationRate:        req.MutationRate,
		Generations:         req.Generations,
		Seed:                req.Seed,
		Init:                sim.InitMode(req.Init),
		InitAlleleProb:      req.InitAlleleProb,
		TerminateOnFixation: true,
		Observers:           []sim.Observer{collector},
	})
	if err != nil {
		return ConvergeSummary{}, err
	}
	if err := sm.Run(ctx); err != nil {
		return ConvergeSummary{}, err
	}
	if err := collector.Close(); err != nil {
		return ConvergeSummary{}, err
	}

	_, fixed := sm.Population().Fixed()
	return ConvergeSummary{
		RunID:       runID,
		OutputDir:   runDir,
		Generations: sm.Generation(),
		Fixed:       fixed,
	}, nil
}

// Runs lists stored run summaries, newest first.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunSummary, error) {
	return c.store.ListRunSummaries(ctx, req.Limit)
}

func (c *Client) finishRun(ctx context.Context, req EvolveRequest, record model.LandscapeRecord,
	collector *stats.SummaryCollector, sm *sim.Simulator, popSize int64, runSeed uint64, started time.Time) (model.RunSummary, error) {

	runID := uuid.NewString()
	rows := collector.Rows()

	runSummary := model.RunSummary{
		VersionedRecord: storage.Stamp(),
		RunID:           runID,
		CreatedAtUTC:    started.UTC().Format(time.RFC3339),
		LandscapeName:   record.Name,
		LandscapeIndex:  record.Replicate,
		PopulationSize:  popSize,
		MutationRate:    req.MutationRate,
		Tradeoff:        req.Tradeoff,
		Seed:            runSeed,
		Generations:     sm.Generation(),
		Stable:          collector.Stable(),
		FinalStrains:    sm.Population().NGenotypes(),
		FinalEntropy:    sm.Population().ShannonEntropy(),
		ElapsedSeconds:  time.Since(started).Seconds(),
	}
	if len(rows) > 0 {
		runSummary.Replicate = rows[0].Replicate
	}

	if err := c.store.SaveRunSummary(ctx, runSummary); err != nil {
		return model.RunSummary{}, err
	}
	if err := c.store.SaveGenerationStats(ctx, runID, rows); err != nil {
		return model.RunSummary{}, err
	}
	csvPath := filepath.Join(c.outputDir, runID+"_generations.csv")
	if err := stats.WriteSummaryCSV(csvPath, rows); err != nil {
		return model.RunSummary{}, err
	}
	return runSummary, nil
}

func (c *Client) amounts(explicit []float64, resources int) []float64 {
	if len(explicit) > 0 {
		return explicit
	}
	amounts := make([]float64, resources)
	for i := range amounts {
		amounts[i] = 1
	}
	return amounts
}

func newGenerator(req LandscapeRequest) (*landscape.Generator, error) {
	space, err := genotype.NewSpace(req.Loci)
	if err != nil {
		return nil, err
	}
	return landscape.NewGenerator(landscape.GeneratorConfig{
		Space:     space,
		Resources: req.Resources,
		Model:     req.Model,
		Seed:      req.Seed,
		Workers:   req.Workers,
	})
}

func familyName(req LandscapeRequest) (string, error) {
	gen, err := newGenerator(req)
	if err != nil {
		return "", err
	}
	return gen.Name(), nil
}

// mixSeed derives an independent seed per run so the sweep order does not
// couple the replicates.
func mixSeed(seed, run uint64) uint64 {
	z := seed + 0x9E3779B97F4A7C15*(run+1)
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
