package spectral

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrSegments is returned when data cannot be split into PSD segments.
var ErrSegments = errors.New("data too short for PSD segments")

// Averaging methods for PowerSpectrum.
const (
	AverageMean   = "mean"
	AverageMedian = "median"
)

// PowerSpectrum estimates one-sided power spectral densities with Welch's
// method: the data is cut into segments of the window's length, each segment
// is windowed and transformed, and the periodograms are averaged bin by bin.
type PowerSpectrum struct {
	window       []float64
	sumOfSquares float64
	stride       int
	method       string
}

// NewPowerSpectrum creates an estimator whose segments start stride samples
// apart. method is AverageMean or AverageMedian.
func NewPowerSpectrum(window []float64, stride int, method string) (*PowerSpectrum, error) {
	if len(window) < 2 {
		return nil, fmt.Errorf("%w: window of %d samples", ErrPlanLength, len(window))
	}
	if stride < 1 {
		return nil, fmt.Errorf("segment stride must be positive, got %d", stride)
	}
	switch method {
	case AverageMean, AverageMedian:
	default:
		return nil, fmt.Errorf("unknown PSD averaging method %q", method)
	}

	sumOfSquares := floats.Dot(window, window)
	if sumOfSquares == 0 {
		return nil, errors.New("window is identically zero")
	}

	return &PowerSpectrum{
		window:       slices.Clone(window),
		sumOfSquares: sumOfSquares,
		stride:       stride,
		method:       method,
	}, nil
}

// Segments returns how many segments data of length n yields.
func (ps *PowerSpectrum) Segments(n int) int {
	if n < len(ps.window) {
		return 0
	}
	return (n-len(ps.window))/ps.stride + 1
}

// Estimate returns the one-sided PSD of data sampled at deltaT on the
// len(window)/2+1 non-negative frequency bins of one segment. White noise of
// variance sigma^2 gives 2 sigma^2 deltaT in every bin but DC and Nyquist.
func (ps *PowerSpectrum) Estimate(data []float64, deltaT float64) ([]float64, error) {
	segments := ps.Segments(len(data))
	if segments < 1 {
		return nil, fmt.Errorf("%w: %d samples, segment length %d", ErrSegments, len(data), len(ps.window))
	}
	if !(deltaT > 0) {
		return nil, fmt.Errorf("sample spacing must be positive, got %v", deltaT)
	}

	n := len(ps.window)
	bins := n/2 + 1
	periodograms := make([][]float64, bins)
	for k := range periodograms {
		periodograms[k] = make([]float64, segments)
	}

	segment := make([]float64, n)
	coeffs := make([]complex128, bins)
	fft := fourier.NewFFT(n)

	for s := range segments {
		floats.MulTo(segment, ps.window, data[s*ps.stride:s*ps.stride+n])
		coeffs = fft.Coefficients(coeffs, segment)
		for k, c := range coeffs {
			periodograms[k][s] = real(c)*real(c) + imag(c)*imag(c)
		}
	}

	norm := 2 * deltaT / ps.sumOfSquares
	psd := make([]float64, bins)
	for k, p := range periodograms {
		psd[k] = norm * ps.average(p)
	}

	// DC and Nyquist have no negative frequency partner
	psd[0] /= 2
	if n%2 == 0 {
		psd[bins-1] /= 2
	}

	return psd, nil
}

// average combines the periodogram values of one bin. p is reordered.
func (ps *PowerSpectrum) average(p []float64) float64 {
	if ps.method == AverageMean {
		return stat.Mean(p, nil)
	}
	slices.Sort(p)
	return medianOfSorted(p) / MedianBias(len(p))
}

func medianOfSorted(p []float64) float64 {
	n := len(p)
	if n%2 == 1 {
		return p[n/2]
	}
	return (p[n/2-1] + p[n/2]) / 2
}

// MedianBias returns the ratio of the median to the mean of n independent
// exponentially distributed periodogram values, for odd n. Even n uses the
// bias of n-1. A single value has no bias.
func MedianBias(n int) float64 {
	if n%2 == 0 {
		n--
	}
	bias := 1.0
	for i := 1; i <= (n-1)/2; i++ {
		bias -= 1 / float64(2*i)
		bias += 1 / float64(2*i+1)
	}
	return bias
}
