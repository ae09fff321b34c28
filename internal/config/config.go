// Package config loads engine configuration from YAML. Values missing from
// a file fall back to the embedded defaults.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ecoscape/internal/landscape"
	"ecoscape/internal/model"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Landscape  LandscapeConfig  `yaml:"landscape"`
	Simulation SimulationConfig `yaml:"simulation"`
	Output     OutputConfig     `yaml:"output"`
}

// LandscapeConfig describes one landscape family and how many replicates of
// it to generate.
type LandscapeConfig struct {
	Loci      int         `yaml:"loci"`
	Resources int         `yaml:"resources"`
	Count     int         `yaml:"count"`
	Seed      uint64      `yaml:"seed"`
	Workers   int         `yaml:"workers"`
	Model     ModelConfig `yaml:"model"`
}

type ModelConfig struct {
	Kind            string  `yaml:"kind"`
	Mu              float64 `yaml:"mu"`
	AdditiveWeight  float64 `yaml:"additive_weight"`
	EpistaticWeight float64 `yaml:"epistatic_weight"`
	AdditiveDiag    float64 `yaml:"additive_diag"`
	AdditiveOff     float64 `yaml:"additive_offdiag"`
	EpistaticDiag   float64 `yaml:"epistatic_diag"`
	EpistaticOff    float64 `yaml:"epistatic_offdiag"`
}

// SimulationConfig drives evolution runs. A run is executed for every
// combination of population size, landscape replicate in
// [first_landscape, last_landscape] and simulation replicate.
type SimulationConfig struct {
	PopulationSizes []int64   `yaml:"population_sizes"`
	MutationRate    float64   `yaml:"mutation_rate"`
	ResourceAmounts []float64 `yaml:"resource_amounts"`
	Generations     int       `yaml:"generations"`
	MinGenerations  int       `yaml:"min_generations"`
	Replicates      int       `yaml:"replicates"`
	FirstLandscape  int       `yaml:"first_landscape"`
	LastLandscape   int       `yaml:"last_landscape"`
	Tradeoff        string    `yaml:"tradeoff"`
	Init            string    `yaml:"init"`
	InitAlleleProb  float64   `yaml:"init_allele_prob"`
	Seed            uint64    `yaml:"seed"`
	Workers         int       `yaml:"workers"`
	StableWindow    int       `yaml:"stable_window"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Store  string `yaml:"store"`
	DBPath string `yaml:"db_path"`
}

// Default returns the embedded default configuration.
func Default() (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load reads path on top of the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: read config %s: %v", model.ErrIO, path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse config %s: %v", model.ErrIO, path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the cross-field constraints the constructors downstream
// cannot see, such as the landscape replicate range.
func (c Config) Validate() error {
	if c.Landscape.Count <= 0 {
		return fmt.Errorf("%w: landscape count must be > 0, got %d", model.ErrInvalidParameters, c.Landscape.Count)
	}
	if len(c.Simulation.PopulationSizes) == 0 {
		return fmt.Errorf("%w: at least one population size is required", model.ErrInvalidParameters)
	}
	for _, n := range c.Simulation.PopulationSizes {
		if n <= 0 {
			return fmt.Errorf("%w: population size must be > 0, got %d", model.ErrInvalidParameters, n)
		}
	}
	if c.Simulation.Replicates <= 0 {
		return fmt.Errorf("%w: replicates must be > 0, got %d", model.ErrInvalidParameters, c.Simulation.Replicates)
	}
	first, last := c.LandscapeRange()
	if first < 0 || last >= c.Landscape.Count || first > last {
		return fmt.Errorf("%w: landscape range [%d, %d] outside [0, %d)",
			model.ErrInvalidParameters, first, last, c.Landscape.Count)
	}
	return nil
}

// LandscapeRange resolves the configured replicate range; a negative last
// index means all generated replicates.
func (c Config) LandscapeRange() (first, last int) {
	first = c.Simulation.FirstLandscape
	last = c.Simulation.LastLandscape
	if last < 0 {
		last = c.Landscape.Count - 1
	}
	return first, last
}

// Model maps the YAML model block onto a landscape model.
func (m ModelConfig) Model() landscape.Model {
	return landscape.Model{
		Kind:            landscape.Kind(m.Kind),
		Mu:              m.Mu,
		AdditiveWeight:  m.AdditiveWeight,
		EpistaticWeight: m.EpistaticWeight,
		AdditiveDiag:    m.AdditiveDiag,
		AdditiveOff:     m.AdditiveOff,
		EpistaticDiag:   m.EpistaticDiag,
		EpistaticOff:    m.EpistaticOff,
	}
}

// Amounts returns the configured resource amounts, defaulting to one unit
// of every resource.
func (c Config) Amounts() []float64 {
	if len(c.Simulation.ResourceAmounts) > 0 {
		amounts := make([]float64, len(c.Simulation.ResourceAmounts))
		copy(amounts, c.Simulation.ResourceAmounts)
		return amounts
	}
	amounts := make([]float64, c.Landscape.Resources)
	for i := range amounts {
		amounts[i] = 1
	}
	return amounts
}
