package windowing

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"
)

// Hann represents a Hann window function. The symmetric form is zero at
// both ends and peaks at 1 in the centre.
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
}

// NewHann creates a new Hann window. The symmetric form needs at least two
// samples to reach zero at both ends.
func NewHann(size int, symmetric bool) (*Hann, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: hann window needs at least 2 samples, got %d", ErrInvalidSize, size)
	}
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h, nil
}

func (h *Hann) generate() {
	if h.symmetric {
		h.coefficients = window.Hann(h.size)
		return
	}

	// periodic form, for FFT framing
	h.coefficients = make([]float64, h.size)
	for i := range h.size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/float64(h.size)))
	}
}

// ApplyInPlace applies the window to a signal in-place
func (h *Hann) ApplyInPlace(signal []float64) error {
	return applyInPlace(h.coefficients, signal)
}

// GetCoefficients returns a copy of the window coefficients
func (h *Hann) GetCoefficients() []float64 {
	return copyCoefficients(h.coefficients)
}

func (h *Hann) GetSize() int {
	return h.size
}

func (h *Hann) GetType() string {
	return TypeHann
}
