// Package landscape builds and indexes Rough-Mount-Fuji fitness landscapes
// over a genotype space. A landscape assigns every genotype one log-fitness
// value per resource; the additive component is smooth across Hamming
// neighbors while the epistatic component is an independent correlated draw
// per genotype.
package landscape

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"ecoscape/internal/model"
)

// Kind selects the fitness-model variant.
type Kind string

const (
	// KindHouseOfCards uses only the per-genotype epistatic field.
	KindHouseOfCards Kind = "hoc"
	// KindAdditive uses only the per-locus additive effects.
	KindAdditive Kind = "additive"
	// KindRoughMountFuji combines both components.
	KindRoughMountFuji Kind = "rmf"
)

// Model parameterizes one landscape family. Per-locus additive effects are
// R-dimensional normal draws with mean Mu and covariance built from
// AdditiveDiag/AdditiveOff; the epistatic field is one zero-mean draw per
// genotype with covariance from EpistaticDiag/EpistaticOff. Per-resource
// value = AdditiveWeight*additive + EpistaticWeight*epistatic.
type Model struct {
	Kind Kind

	Mu              float64
	AdditiveWeight  float64
	EpistaticWeight float64

	AdditiveDiag  float64
	AdditiveOff   float64
	EpistaticDiag float64
	EpistaticOff  float64
}

// HasAdditive reports whether the additive component is active. A zero
// diagonal disables the component rather than degenerating the draw.
func (m Model) HasAdditive() bool {
	return (m.Kind == KindAdditive || m.Kind == KindRoughMountFuji) && m.AdditiveDiag > 0
}

// HasEpistatic reports whether the epistatic component is active.
func (m Model) HasEpistatic() bool {
	return (m.Kind == KindHouseOfCards || m.Kind == KindRoughMountFuji) && m.EpistaticDiag > 0
}

// Validate rejects unusable model parameters before any draw happens.
func (m Model) Validate(resources int) error {
	if resources <= 0 {
		return fmt.Errorf("%w: resource count must be > 0, got %d", model.ErrInvalidParameters, resources)
	}
	switch m.Kind {
	case KindHouseOfCards, KindAdditive, KindRoughMountFuji:
	default:
		return fmt.Errorf("%w: unknown model kind %q", model.ErrInvalidParameters, m.Kind)
	}
	for _, v := range []float64{m.Mu, m.AdditiveWeight, m.EpistaticWeight, m.AdditiveDiag, m.AdditiveOff, m.EpistaticDiag, m.EpistaticOff} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: model parameters must be finite", model.ErrInvalidParameters)
		}
	}
	if m.AdditiveDiag < 0 || m.EpistaticDiag < 0 {
		return fmt.Errorf("%w: covariance diagonals must be >= 0", model.ErrInvalidParameters)
	}
	if m.Kind != KindHouseOfCards && m.AdditiveDiag > 0 {
		if err := checkPositiveDefinite(resources, m.AdditiveDiag, m.AdditiveOff, "additive"); err != nil {
			return err
		}
	}
	if m.Kind != KindAdditive && m.EpistaticDiag > 0 {
		if err := checkPositiveDefinite(resources, m.EpistaticDiag, m.EpistaticOff, "epistatic"); err != nil {
			return err
		}
	}
	if !m.HasAdditive() && !m.HasEpistatic() {
		return fmt.Errorf("%w: model %q has no active component", model.ErrInvalidParameters, m.Kind)
	}
	return nil
}

// Name renders the canonical landscape family name. Parameters are truncated
// to five decimals so the name is stable across float formatting quirks.
func (m Model) Name(resources int) string {
	switch m.Kind {
	case KindHouseOfCards:
		return fmt.Sprintf("HoC_S%d_cd%.5f_co%.5f",
			resources, trunc5(m.EpistaticDiag), trunc5(m.EpistaticOff))
	case KindAdditive:
		return fmt.Sprintf("additive_S%d_mu%.5f_cd%.5f_co%.5f",
			resources, trunc5(m.Mu), trunc5(m.AdditiveDiag), trunc5(m.AdditiveOff))
	default:
		return fmt.Sprintf("RMF_S%d_mu%.5f_cad%.5f_cao%.5f_cbd%.5f_cbo%.5f",
			resources, trunc5(m.Mu),
			trunc5(m.AdditiveDiag), trunc5(m.AdditiveOff),
			trunc5(m.EpistaticDiag), trunc5(m.EpistaticOff))
	}
}

func trunc5(v float64) float64 {
	return math.Trunc(v*100_000) / 100_000
}

// covMatrix builds the exchangeable covariance matrix with the given diagonal
// and off-diagonal entries.
func covMatrix(dim int, diag, off float64) *mat.SymDense {
	c := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		c.SetSym(i, i, diag)
		for j := i + 1; j < dim; j++ {
			c.SetSym(i, j, off)
		}
	}
	return c
}

func checkPositiveDefinite(dim int, diag, off float64, component string) error {
	var ch mat.Cholesky
	if !ch.Factorize(covMatrix(dim, diag, off)) {
		return fmt.Errorf("%w: %s covariance (diag %g, off %g, dim %d) is not positive definite",
			model.ErrInvalidParameters, component, diag, off, dim)
	}
	return nil
}
