package windowing

import (
	"fmt"

	"github.com/mjibson/go-dsp/window"
)

// Rectangular represents a rectangular (boxcar) window function
type Rectangular struct {
	size         int
	coefficients []float64
}

// NewRectangular creates a new rectangular window
func NewRectangular(size int) (*Rectangular, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: rectangular window needs at least 1 sample, got %d", ErrInvalidSize, size)
	}
	return &Rectangular{
		size:         size,
		coefficients: window.Rectangular(size),
	}, nil
}

func (r *Rectangular) ApplyInPlace(signal []float64) error {
	return applyInPlace(r.coefficients, signal)
}

func (r *Rectangular) GetCoefficients() []float64 {
	return copyCoefficients(r.coefficients)
}

func (r *Rectangular) GetSize() int {
	return r.size
}

func (r *Rectangular) GetType() string {
	return TypeRectangular
}
