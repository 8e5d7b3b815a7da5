package spectral

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat"
)

func ones(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

func TestWhiteNoiseLevel(t *testing.T) {
	const (
		n      = 256
		sigma  = 2.0
		deltaT = 1.0 / 512
	)
	data := randomSeries(n*256, 17)
	floats.Scale(sigma, data)
	want := 2 * sigma * sigma * deltaT

	for _, method := range []string{AverageMean, AverageMedian} {
		ps, err := NewPowerSpectrum(hann(n), n/2, method)
		if err != nil {
			t.Fatal(err)
		}
		psd, err := ps.Estimate(data, deltaT)
		if err != nil {
			t.Fatal(err)
		}
		if len(psd) != n/2+1 {
			t.Fatalf("%s: %d bins, want %d", method, len(psd), n/2+1)
		}

		level := stat.Mean(psd[1:n/2], nil)
		if !scalar.EqualWithinRel(level, want, 0.05) {
			t.Errorf("%s: mean level %v, want %v", method, level, want)
		}
	}
}

func TestSinusoidPeak(t *testing.T) {
	const n = 128
	data := make([]float64, 4*n)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * 16 * float64(i) / n)
	}

	ps, _ := NewPowerSpectrum(ones(n), n, AverageMean)
	psd, err := ps.Estimate(data, 1)
	if err != nil {
		t.Fatal(err)
	}
	if floats.MaxIdx(psd) != 16 {
		t.Errorf("peak at bin %d, want 16", floats.MaxIdx(psd))
	}
	// a unit sinusoid has power 1/2, all of it in one bin of width 1/n
	if !scalar.EqualWithinRel(psd[16], float64(n)/2, 1e-9) {
		t.Errorf("peak = %v, want %v", psd[16], float64(n)/2)
	}
}

func TestSegments(t *testing.T) {
	ps, _ := NewPowerSpectrum(ones(8), 4, AverageMedian)
	tests := map[int]int{7: 0, 8: 1, 11: 1, 12: 2, 20: 4}
	for n, want := range tests {
		if got := ps.Segments(n); got != want {
			t.Errorf("Segments(%d) = %d, want %d", n, got, want)
		}
	}
	if _, err := ps.Estimate(make([]float64, 7), 1); !errors.Is(err, ErrSegments) {
		t.Errorf("err = %v, want ErrSegments", err)
	}
}

func TestMedianBias(t *testing.T) {
	if MedianBias(1) != 1 {
		t.Errorf("MedianBias(1) = %v", MedianBias(1))
	}
	if !scalar.EqualWithinAbs(MedianBias(3), 1-0.5+1.0/3, 1e-15) {
		t.Errorf("MedianBias(3) = %v", MedianBias(3))
	}
	if MedianBias(4) != MedianBias(3) {
		t.Error("even counts should use the bias of n-1")
	}
	if !scalar.EqualWithinAbs(MedianBias(100001), math.Ln2, 1e-4) {
		t.Errorf("MedianBias tends to %v, want ln 2", MedianBias(100001))
	}
}

func TestNewPowerSpectrumErrors(t *testing.T) {
	if _, err := NewPowerSpectrum(ones(1), 1, AverageMean); err == nil {
		t.Error("accepted a one sample window")
	}
	if _, err := NewPowerSpectrum(ones(8), 0, AverageMean); err == nil {
		t.Error("accepted a zero stride")
	}
	if _, err := NewPowerSpectrum(ones(8), 4, "mode"); err == nil {
		t.Error("accepted an unknown method")
	}
	if _, err := NewPowerSpectrum(make([]float64, 8), 4, AverageMean); err == nil {
		t.Error("accepted a zero window")
	}
}
