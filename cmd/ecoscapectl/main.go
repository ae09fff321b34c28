package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ecoscape/internal/config"
	ecoapi "ecoscape/pkg/ecoscape"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "landscape":
		return runLandscape(ctx, args[1:])
	case "evolve":
		return runEvolve(ctx, args[1:])
	case "converge":
		return runConverge(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runLandscape(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("landscape", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	count := fs.Int("count", 0, "override replicate count")
	seed := fs.Uint64("seed", 0, "override landscape seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *count > 0 {
		cfg.Landscape.Count = *count
	}
	if *seed > 0 {
		cfg.Landscape.Seed = *seed
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.GenerateLandscapes(ctx, landscapeRequest(cfg))
	if err != nil {
		return err
	}
	fmt.Printf("family %s: generated %d replicates, skipped %d existing\n",
		summary.Name, len(summary.Generated), len(summary.Skipped))
	return nil
}

func runEvolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("evolve", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	generations := fs.Int("generations", 0, "override generation cap")
	seed := fs.Uint64("seed", 0, "override simulation seed")
	tradeoff := fs.String("tradeoff", "", "override trade-off: competitive|fixed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *generations > 0 {
		cfg.Simulation.Generations = *generations
	}
	if *seed > 0 {
		cfg.Simulation.Seed = *seed
	}
	if *tradeoff != "" {
		cfg.Simulation.Tradeoff = *tradeoff
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.RunStatistical(ctx, evolveRequest(cfg))
	if err != nil {
		return err
	}
	for _, run := range summary.Runs {
		fmt.Printf("run %s: landscape %d N=%d generations=%d stable=%v strains=%d\n",
			run.RunID, run.LandscapeIndex, run.PopulationSize, run.Generations, run.Stable, run.FinalStrains)
	}
	fmt.Printf("wrote run index to %s\n", summary.IndexCSV)
	return nil
}

func runConverge(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("converge", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	index := fs.Int("landscape", 0, "landscape replicate to evolve on")
	population := fs.Int64("population", 0, "override population size")
	seed := fs.Uint64("seed", 0, "override simulation seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *seed > 0 {
		cfg.Simulation.Seed = *seed
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	req := convergeRequest(cfg, *index)
	if *population > 0 {
		req.PopulationSize = *population
	}
	summary, err := client.RunConvergence(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: %d generations, fixed=%v, trajectories in %s\n",
		summary.RunID, summary.Generations, summary.Fixed, summary.OutputDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML configuration file")
	limit := fs.Int("limit", 20, "maximum runs to list, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	runs, err := client.Runs(ctx, ecoapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	for _, run := range runs {
		fmt.Printf("%s  %s  %s[%d]  N=%d  m=%g  %s  gen=%d  stable=%v\n",
			run.CreatedAtUTC, run.RunID, run.LandscapeName, run.LandscapeIndex,
			run.PopulationSize, run.MutationRate, run.Tradeoff, run.Generations, run.Stable)
	}
	return nil
}

func newClient(ctx context.Context, cfg config.Config) (*ecoapi.Client, error) {
	client, err := ecoapi.New(ecoapi.Options{
		StoreKind: cfg.Output.Store,
		DBPath:    cfg.Output.DBPath,
		OutputDir: cfg.Output.Dir,
	})
	if err != nil {
		return nil, err
	}
	if err := client.Init(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: ecoscapectl <landscape|evolve|converge|runs> [flags]", msg)
}
