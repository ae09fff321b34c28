package fitness

import (
	"math"
	"testing"

	"ecoscape/internal/genotype"
)

func space(t *testing.T, loci int) genotype.Space {
	t.Helper()
	s, err := genotype.NewSpace(loci)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewRejectsWrongLength(t *testing.T) {
	s := space(t, 3)
	if _, err := New(s, make([]float64, 7)); err == nil {
		t.Fatal("expected error for short value table")
	}
}

func TestMaxMinMeanVar(t *testing.T) {
	s := space(t, 2)
	l, err := New(s, []float64{1, 4, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if g, v := l.Max(); g != 1 || v != 4 {
		t.Fatalf("Max: got (%d,%v)", g, v)
	}
	if g, v := l.Min(); g != 0 || v != 1 {
		t.Fatalf("Min: got (%d,%v)", g, v)
	}
	mean, variance := l.MeanVar()
	if mean != 2.5 {
		t.Fatalf("mean: got %v", mean)
	}
	if math.Abs(variance-1.25) > 1e-12 {
		t.Fatalf("variance: got %v", variance)
	}
}

func TestMaximaMinimaOnTwoPeakLandscape(t *testing.T) {
	s := space(t, 2)
	// 00 and 11 are peaks, 01 and 10 are valleys.
	l, err := New(s, []float64{3, 1, 1.5, 4})
	if err != nil {
		t.Fatal(err)
	}
	maxima := l.Maxima()
	if len(maxima) != 2 || maxima[0] != 0 || maxima[1] != 3 {
		t.Fatalf("maxima: got %v", maxima)
	}
	minima := l.Minima()
	if len(minima) != 2 || minima[0] != 1 || minima[1] != 2 {
		t.Fatalf("minima: got %v", minima)
	}
}

func TestSelected(t *testing.T) {
	s := space(t, 2)
	l, _ := New(s, []float64{0.5, 1, 1.2, 2})
	sel := l.Selected()
	if len(sel) != 2 || sel[0] != 2 || sel[1] != 3 {
		t.Fatalf("selected: got %v", sel)
	}
}

func TestGammaIsOneForMultiplicativeLandscape(t *testing.T) {
	// A landscape with purely multiplicative (log-additive) loci has no
	// epistasis, so gamma must be exactly 1.
	s := space(t, 4)
	effects := []float64{0.1, -0.2, 0.3, 0.05}
	values := make([]float64, s.Size())
	for idx := range values {
		g := genotype.Genotype(idx)
		logf := 0.0
		for i := 0; i < s.Loci(); i++ {
			if s.Allele(g, i) == 1 {
				logf += effects[i]
			}
		}
		values[idx] = math.Exp(logf)
	}
	l, err := New(s, values)
	if err != nil {
		t.Fatal(err)
	}
	if gamma := l.Gamma(); math.Abs(gamma-1) > 1e-9 {
		t.Fatalf("gamma: got %v, want 1", gamma)
	}
}

func TestSpearmanRho(t *testing.T) {
	s := space(t, 2)
	l1, _ := New(s, []float64{1, 2, 3, 4})
	same, _ := New(s, []float64{10, 20, 30, 40})
	reversed, _ := New(s, []float64{4, 3, 2, 1})

	rho, err := l1.SpearmanRho(same)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rho-1) > 1e-12 {
		t.Fatalf("identical ranking: got rho %v", rho)
	}
	rho, err = l1.SpearmanRho(reversed)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(rho+1) > 1e-12 {
		t.Fatalf("reversed ranking: got rho %v", rho)
	}

	other := space(t, 3)
	l3, _ := New(other, make([]float64, 8))
	if _, err := l1.SpearmanRho(l3); err == nil {
		t.Fatal("expected space mismatch error")
	}
}
