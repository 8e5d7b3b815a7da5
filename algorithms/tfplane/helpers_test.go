package tfplane

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/windowing"
)

var testEpoch = time.Date(2007, 5, 18, 0, 0, 0, 0, time.UTC)

// randomSeries returns a frequency series of n bins of complex Gaussian noise.
func randomSeries(t *testing.T, f0, deltaF float64, n int, seed uint64) *series.FrequencySeries {
	t.Helper()
	s, err := series.NewFrequencySeries("H1:LSC-STRAIN", testEpoch, f0, deltaF, "strain s", n)
	if err != nil {
		t.Fatal(err)
	}
	rng := rand.New(rand.NewPCG(seed, seed+1))
	for i := range s.Data {
		s.Data[i] = complex(rng.NormFloat64(), rng.NormFloat64())
	}
	return s
}

// flatPSD returns a PSD of value p on the given grid.
func flatPSD(t *testing.T, f0, deltaF float64, n int, p float64) *series.RealFrequencySeries {
	t.Helper()
	psd, err := series.NewRealFrequencySeries("psd", testEpoch, f0, deltaF, "strain^2 s", n)
	if err != nil {
		t.Fatal(err)
	}
	for i := range psd.Data {
		psd.Data[i] = p
	}
	return psd
}

// colouredPSD returns a PSD that rises quadratically with frequency.
func colouredPSD(t *testing.T, f0, deltaF float64, n int) *series.RealFrequencySeries {
	t.Helper()
	psd := flatPSD(t, f0, deltaF, n, 1)
	for i := range psd.Data {
		f := f0 + float64(i)*deltaF
		psd.Data[i] = 1 + 1e-3*f*f
	}
	return psd
}

func hannCorrelation(t *testing.T, n int) series.SpectralCorrelation {
	t.Helper()
	w, err := windowing.NewHann(n, true)
	if err != nil {
		t.Fatal(err)
	}
	c, err := WindowTwoPointSpectralCorrelation(w.GetCoefficients())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

var whiteCorrelation = series.SpectralCorrelation{1}
