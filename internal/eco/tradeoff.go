package eco

// Tradeoff maps configured resource amounts and the population's current
// phenotype usage to effective per-resource weights. The weight of resource j
// multiplies every genotype's phenotype on j when realized fitness is
// assembled, so the functional form here is what shapes the ecological
// trade-off.
type Tradeoff interface {
	Name() string
	Weights(amounts, usage []float64) []float64
}

// Competitive divides each resource's amount by how heavily the population
// already draws on it. Genotypes specializing in an abundant, under-used
// resource gain weight; crowded resources are devalued. This is the feedback
// that makes the realized landscape dynamic.
type Competitive struct{}

func (Competitive) Name() string { return "competitive" }

func (Competitive) Weights(amounts, usage []float64) []float64 {
	w := make([]float64, len(amounts))
	for j := range w {
		w[j] = amounts[j] / usage[j]
	}
	return w
}

// Fixed ignores usage entirely: resource weights stay at the configured
// amounts, so realized fitness depends only on the genotype. This disables
// the ecological feedback.
type Fixed struct{}

func (Fixed) Name() string { return "fixed" }

func (Fixed) Weights(amounts, _ []float64) []float64 {
	w := make([]float64, len(amounts))
	copy(w, amounts)
	return w
}

// ByName returns the registered trade-off with the given name.
func ByName(name string) (Tradeoff, bool) {
	switch name {
	case "", "competitive":
		return Competitive{}, true
	case "fixed", "null":
		return Fixed{}, true
	default:
		return nil, false
	}
}
