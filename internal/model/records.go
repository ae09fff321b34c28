// Package model holds the plain record types shared by the storage codec and
// the collectors, plus the engine-wide error sentinels.
package model

// VersionedRecord tags persisted payloads so incompatible files are rejected
// instead of being half-loaded.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// LandscapeRecord is the persisted form of one landscape replicate: the model
// identity plus the flat value table, indexed genotype*resources + resource.
type LandscapeRecord struct {
	VersionedRecord

	Name      string    `json:"name"`
	Replicate int       `json:"replicate"`
	Loci      int       `json:"loci"`
	Resources int       `json:"resources"`
	Seed      uint64    `json:"seed"`
	Values    []float64 `json:"values"`
}

// RunSummary describes one finished simulation run.
type RunSummary struct {
	VersionedRecord `csv:"-"`

	RunID          string  `json:"run_id" csv:"run_id"`
	CreatedAtUTC   string  `json:"created_at_utc" csv:"created_at_utc"`
	LandscapeName  string  `json:"landscape_name" csv:"landscape_name"`
	LandscapeIndex int     `json:"landscape_index" csv:"landscape_index"`
	Replicate      int     `json:"replicate" csv:"replicate"`
	PopulationSize int64   `json:"population_size" csv:"population_size"`
	MutationRate   float64 `json:"mutation_rate" csv:"mutation_rate"`
	Tradeoff       string  `json:"tradeoff" csv:"tradeoff"`
	Seed           uint64  `json:"seed" csv:"seed"`
	Generations    int     `json:"generations" csv:"generations"`
	Stable         bool    `json:"stable" csv:"stable"`
	FinalStrains   int     `json:"final_strains" csv:"final_strains"`
	FinalEntropy   float64 `json:"final_entropy" csv:"final_entropy"`
	ElapsedSeconds float64 `json:"elapsed_seconds" csv:"elapsed_seconds"`
}

// GenerationStats is one row of the statistical collector's output. The same
// record is written to CSV for downstream analysis and stored as a blob with
// the run summary.
type GenerationStats struct {
	Generation           int     `json:"generation" csv:"generation"`
	PopulationSize       int64   `json:"population_size" csv:"population_size"`
	LandscapeIndex       int     `json:"landscape_index" csv:"landscape_index"`
	Replicate            int     `json:"replicate" csv:"replicate"`
	Entropy              float64 `json:"entropy" csv:"entropy"`
	HaplotypeDiversity   float64 `json:"haplotype_diversity" csv:"haplotype_diversity"`
	NucleotideDiversity  float64 `json:"nucleotide_diversity" csv:"nucleotide_diversity"`
	Strains              int     `json:"strains" csv:"strains"`
	MaximaCount          int     `json:"n_maxima" csv:"n_maxima"`
	MinimaCount          int     `json:"n_minima" csv:"n_minima"`
	Maximum              float64 `json:"maximum" csv:"maximum"`
	Minimum              float64 `json:"minimum" csv:"minimum"`
	Gamma                float64 `json:"gamma" csv:"gamma"`
	MeanFitness          float64 `json:"mean_fitness" csv:"mean_fitness"`
	VarFitness           float64 `json:"var_fitness" csv:"var_fitness"`
	WildtypeFitness      float64 `json:"fitness_wildtype" csv:"fitness_wildtype"`
	MeanPhenotypicDist   float64 `json:"mean_phenotypic_distance" csv:"mean_phenotypic_distance"`
	TopGenotypes         string  `json:"top_genotypes" csv:"top_genotypes"`
}
