package windowing

import (
	"fmt"
	"math"
)

// Tukey is a cosine-tapered rectangular window. alpha is the fraction of the
// window occupied by the two tapers together: 0 gives a rectangular window,
// 1 gives a Hann window.
type Tukey struct {
	size         int
	alpha        float64
	coefficients []float64
}

// NewTukey creates a new symmetric Tukey window
func NewTukey(size int, alpha float64) (*Tukey, error) {
	if size < 2 {
		return nil, fmt.Errorf("%w: tukey window needs at least 2 samples, got %d", ErrInvalidSize, size)
	}
	if alpha < 0 || alpha > 1 || math.IsNaN(alpha) {
		return nil, fmt.Errorf("tukey alpha must be in [0,1]: %f", alpha)
	}
	t := &Tukey{
		size:  size,
		alpha: alpha,
	}
	t.generate()
	return t, nil
}

func (t *Tukey) generate() {
	t.coefficients = make([]float64, t.size)

	n := float64(t.size - 1)
	taper := t.alpha * n / 2

	for i := range t.size {
		// distance from the nearest end
		x := math.Min(float64(i), n-float64(i))
		if x < taper {
			t.coefficients[i] = 0.5 * (1 - math.Cos(math.Pi*x/taper))
		} else {
			t.coefficients[i] = 1.0
		}
	}
}

// ApplyInPlace applies the window to a signal in-place
func (t *Tukey) ApplyInPlace(signal []float64) error {
	return applyInPlace(t.coefficients, signal)
}

// GetCoefficients returns a copy of the window coefficients
func (t *Tukey) GetCoefficients() []float64 {
	return copyCoefficients(t.coefficients)
}

func (t *Tukey) GetSize() int {
	return t.size
}

func (t *Tukey) GetType() string {
	return TypeTukey
}

// GetAlpha returns the Tukey alpha parameter
func (t *Tukey) GetAlpha() float64 {
	return t.alpha
}
