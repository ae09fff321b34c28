package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ecoscape/internal/landscape"
	"ecoscape/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if cfg.Landscape.Loci != 4 || cfg.Landscape.Resources != 2 {
		t.Fatalf("landscape defaults = %+v", cfg.Landscape)
	}
	if cfg.Landscape.Model.Kind != "rmf" || cfg.Landscape.Model.EpistaticDiag != 0.1 {
		t.Fatalf("model defaults = %+v", cfg.Landscape.Model)
	}
	if cfg.Simulation.Tradeoff != "competitive" || cfg.Simulation.Generations != 10000 {
		t.Fatalf("simulation defaults = %+v", cfg.Simulation)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := `
landscape:
  loci: 6
simulation:
  population_sizes: [100, 1000]
  mutation_rate: 0.01
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Landscape.Loci != 6 {
		t.Fatalf("loci = %d, want overridden 6", cfg.Landscape.Loci)
	}
	if len(cfg.Simulation.PopulationSizes) != 2 || cfg.Simulation.MutationRate != 0.01 {
		t.Fatalf("simulation overrides = %+v", cfg.Simulation)
	}
	// Untouched sections keep their defaults.
	if cfg.Landscape.Resources != 2 || cfg.Output.Store != "sqlite" {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, model.ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	def, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if cfg.Landscape != def.Landscape || cfg.Output != def.Output {
		t.Fatalf("Load(\"\") differs from defaults")
	}
}

func TestValidate(t *testing.T) {
	base, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero landscape count", func(c *Config) { c.Landscape.Count = 0 }},
		{"no population sizes", func(c *Config) { c.Simulation.PopulationSizes = nil }},
		{"negative population size", func(c *Config) { c.Simulation.PopulationSizes = []int64{-5} }},
		{"zero replicates", func(c *Config) { c.Simulation.Replicates = 0 }},
		{"range past count", func(c *Config) { c.Simulation.LastLandscape = 99 }},
		{"inverted range", func(c *Config) { c.Simulation.FirstLandscape = 5; c.Simulation.LastLandscape = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, model.ErrInvalidParameters) {
				t.Fatalf("err = %v, want ErrInvalidParameters", err)
			}
		})
	}
}

func TestLandscapeRange(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	first, last := cfg.LandscapeRange()
	if first != 0 || last != cfg.Landscape.Count-1 {
		t.Fatalf("range = [%d, %d]", first, last)
	}

	cfg.Simulation.FirstLandscape = 2
	cfg.Simulation.LastLandscape = 5
	first, last = cfg.LandscapeRange()
	if first != 2 || last != 5 {
		t.Fatalf("explicit range = [%d, %d]", first, last)
	}
}

func TestModelMapping(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	m := cfg.Landscape.Model.Model()
	if m.Kind != landscape.KindRoughMountFuji {
		t.Fatalf("kind = %q", m.Kind)
	}
	if err := m.Validate(cfg.Landscape.Resources); err != nil {
		t.Fatalf("default model invalid: %v", err)
	}
}

func TestAmounts(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	amounts := cfg.Amounts()
	if len(amounts) != cfg.Landscape.Resources {
		t.Fatalf("got %d amounts, want %d", len(amounts), cfg.Landscape.Resources)
	}
	for _, a := range amounts {
		if a != 1 {
			t.Fatalf("default amounts = %v", amounts)
		}
	}

	cfg.Simulation.ResourceAmounts = []float64{2, 3}
	amounts = cfg.Amounts()
	if amounts[0] != 2 || amounts[1] != 3 {
		t.Fatalf("explicit amounts = %v", amounts)
	}
}
