package main

import (
	"ecoscape/internal/config"
	ecoapi "ecoscape/pkg/ecoscape"
)

func landscapeRequest(cfg config.Config) ecoapi.LandscapeRequest {
	return ecoapi.LandscapeRequest{
		Loci:      cfg.Landscape.Loci,
		Resources: cfg.Landscape.Resources,
		Model:     cfg.Landscape.Model.Model(),
		Count:     cfg.Landscape.Count,
		Seed:      cfg.Landscape.Seed,
		Workers:   cfg.Landscape.Workers,
	}
}

func evolveRequest(cfg config.Config) ecoapi.EvolveRequest {
	first, last := cfg.LandscapeRange()
	return ecoapi.EvolveRequest{
		Landscape:       landscapeRequest(cfg),
		PopulationSizes: cfg.Simulation.PopulationSizes,
		MutationRate:    cfg.Simulation.MutationRate,
		ResourceAmounts: cfg.Amounts(),
		Generations:     cfg.Simulation.Generations,
		MinGenerations:  cfg.Simulation.MinGenerations,
		Replicates:      cfg.Simulation.Replicates,
		FirstLandscape:  first,
		LastLandscape:   last,
		Tradeoff:        cfg.Simulation.Tradeoff,
		Init:            cfg.Simulation.Init,
		InitAlleleProb:  cfg.Simulation.InitAlleleProb,
		Seed:            cfg.Simulation.Seed,
		Workers:         cfg.Simulation.Workers,
		StableWindow:    cfg.Simulation.StableWindow,
	}
}

func convergeRequest(cfg config.Config, index int) ecoapi.ConvergeRequest {
	population := int64(1000)
	if len(cfg.Simulation.PopulationSizes) > 0 {
		population = cfg.Simulation.PopulationSizes[0]
	}
	return ecoapi.ConvergeRequest{
		Landscape:       landscapeRequest(cfg),
		LandscapeIndex:  index,
		PopulationSize:  population,
		MutationRate:    cfg.Simulation.MutationRate,
		ResourceAmounts: cfg.Amounts(),
		Generations:     cfg.Simulation.Generations,
		Tradeoff:        cfg.Simulation.Tradeoff,
		Init:            cfg.Simulation.Init,
		InitAlleleProb:  cfg.Simulation.InitAlleleProb,
		Seed:            cfg.Simulation.Seed,
		Workers:         cfg.Simulation.Workers,
	}
}
