package windowing

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// ErrInvalidSize is returned when a window is requested with too few samples.
var ErrInvalidSize = errors.New("invalid window size")

// Window is a precomputed real window function.
type Window interface {
	// ApplyInPlace multiplies signal by the window coefficients.
	ApplyInPlace(signal []float64) error
	GetCoefficients() []float64
	GetSize() int
	GetType() string
}

// Type names accepted by New.
const (
	TypeHann        = "hann"
	TypeTukey       = "tukey"
	TypeRectangular = "rectangular"
)

// New builds a symmetric window by name. alpha is only used by Tukey.
func New(kind string, size int, alpha float64) (Window, error) {
	switch kind {
	case TypeHann:
		return NewHann(size, true)
	case TypeTukey:
		return NewTukey(size, alpha)
	case TypeRectangular:
		return NewRectangular(size)
	default:
		return nil, fmt.Errorf("unknown window type %q", kind)
	}
}

// SumOfSquares returns the sum of the squared coefficients of w.
func SumOfSquares(w Window) float64 {
	c := w.GetCoefficients()
	return floats.Dot(c, c)
}

func applyInPlace(coefficients, signal []float64) error {
	if len(signal) != len(coefficients) {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), len(coefficients))
	}
	floats.Mul(signal, coefficients)
	return nil
}

func copyCoefficients(c []float64) []float64 {
	out := make([]float64, len(c))
	copy(out, c)
	return out
}
