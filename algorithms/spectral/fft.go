package spectral

import (
	"errors"
	"fmt"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrPlanLength is returned when buffers handed to a plan do not match the
// length the plan was built for.
var ErrPlanLength = errors.New("buffer length does not match FFT plan")

// ReversePlan is an inverse real FFT bound to a time-domain length n. It
// turns the n/2+1 non-negative frequency bins of a real signal into n time
// samples without applying the 1/n normalisation.
type ReversePlan interface {
	Len() int
	Reverse(dst []float64, src []complex128) error
	// Clone returns a plan of the same length that is safe to use from
	// another goroutine.
	Clone() ReversePlan
}

// Engine names for NewReversePlan.
const (
	EngineGonum = "gonum"
	EngineGoDSP = "go-dsp"
)

// NewReversePlan builds a reverse plan for the named engine.
func NewReversePlan(engine string, n int) (ReversePlan, error) {
	switch engine {
	case EngineGonum, "":
		return NewGonumReversePlan(n)
	case EngineGoDSP:
		return NewDSPReversePlan(n)
	default:
		return nil, fmt.Errorf("unknown FFT engine %q", engine)
	}
}

func checkReverse(n int, dst []float64, src []complex128) error {
	if len(dst) != n {
		return fmt.Errorf("%w: output has %d samples, plan length is %d", ErrPlanLength, len(dst), n)
	}
	if len(src) != n/2+1 {
		return fmt.Errorf("%w: input has %d bins, plan needs %d", ErrPlanLength, len(src), n/2+1)
	}
	return nil
}

// GonumReversePlan computes the inverse real FFT with gonum's fourier
// package. The gonum transform is unnormalised in both directions.
type GonumReversePlan struct {
	n   int
	fft *fourier.FFT
}

// NewGonumReversePlan creates a gonum backed reverse plan of length n.
func NewGonumReversePlan(n int) (*GonumReversePlan, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: plan length %d", ErrPlanLength, n)
	}
	return &GonumReversePlan{n: n, fft: fourier.NewFFT(n)}, nil
}

func (p *GonumReversePlan) Len() int {
	return p.n
}

// Reverse writes the unnormalised inverse transform of src into dst.
func (p *GonumReversePlan) Reverse(dst []float64, src []complex128) error {
	if err := checkReverse(p.n, dst, src); err != nil {
		return err
	}
	p.fft.Sequence(dst, src)
	return nil
}

// Clone returns an independent plan; gonum plans keep internal work space.
func (p *GonumReversePlan) Clone() ReversePlan {
	return &GonumReversePlan{n: p.n, fft: fourier.NewFFT(p.n)}
}

// DSPReversePlan computes the inverse real FFT with mjibson/go-dsp by
// rebuilding the Hermitian spectrum. go-dsp normalises its inverse by 1/n,
// which is undone here so both engines agree.
type DSPReversePlan struct {
	n    int
	full []complex128
}

// NewDSPReversePlan creates a go-dsp backed reverse plan of length n.
func NewDSPReversePlan(n int) (*DSPReversePlan, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: plan length %d", ErrPlanLength, n)
	}
	return &DSPReversePlan{n: n, full: make([]complex128, n)}, nil
}

func (p *DSPReversePlan) Len() int {
	return p.n
}

// Reverse writes the unnormalised inverse transform of src into dst.
func (p *DSPReversePlan) Reverse(dst []float64, src []complex128) error {
	if err := checkReverse(p.n, dst, src); err != nil {
		return err
	}

	// DC and Nyquist carry no phase in a real signal
	p.full[0] = complex(real(src[0]), 0)
	for k := 1; k < len(src); k++ {
		p.full[k] = src[k]
		p.full[p.n-k] = complex(real(src[k]), -imag(src[k]))
	}
	if p.n%2 == 0 {
		p.full[p.n/2] = complex(real(src[p.n/2]), 0)
	}

	out := fft.IFFT(p.full)
	scale := float64(p.n)
	for i, v := range out {
		dst[i] = real(v) * scale
	}
	return nil
}

func (p *DSPReversePlan) Clone() ReversePlan {
	return &DSPReversePlan{n: p.n, full: make([]complex128, p.n)}
}

// ForwardReal computes the n/2+1 non-negative frequency Fourier coefficients
// of a real sequence, unnormalised.
func ForwardReal(x []float64) ([]complex128, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrPlanLength)
	}
	return fourier.NewFFT(len(x)).Coefficients(nil, x), nil
}
