package tfplane

import (
	"fmt"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/spectral"
	"gonum.org/v1/gonum/floats"
)

// WindowTwoPointSpectralCorrelation returns the two-point spectral
// correlation of stationary white noise after it has been multiplied by
// window in the time domain: the real part of the Fourier transform of the
// squared window, normalised by its sum of squares. Entry 0 is 1. A window
// of n samples gives n/2+1 entries.
func WindowTwoPointSpectralCorrelation(window []float64) (series.SpectralCorrelation, error) {
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: empty window", ErrInvalidArgument)
	}

	wsquared := make([]float64, len(window))
	floats.MulTo(wsquared, window, window)

	sumOfSquares := floats.Sum(wsquared)
	if sumOfSquares == 0 {
		return nil, fmt.Errorf("%w: window is identically zero", ErrInvalidArgument)
	}

	tilde, err := spectral.ForwardReal(wsquared)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransform, err)
	}

	correlation := make(series.SpectralCorrelation, len(tilde))
	for i, c := range tilde {
		correlation[i] = real(c) / sumOfSquares
	}

	return correlation, nil
}
