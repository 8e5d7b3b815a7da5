package series

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// MaxLength bounds the number of samples a series constructor will allocate.
const MaxLength = 1 << 30

// ErrAllocation is returned when a series cannot be allocated with the
// requested length.
var ErrAllocation = errors.New("series allocation failed")

// FrequencySeries is a uniformly sampled complex frequency-domain signal.
// Bin k represents frequency F0 + k*DeltaF.
type FrequencySeries struct {
	Name   string       `json:"name"`
	Epoch  time.Time    `json:"epoch"`
	F0     float64      `json:"f0"`
	DeltaF float64      `json:"delta_f"`
	Units  string       `json:"units"`
	Data   []complex128 `json:"-"`
}

// RealFrequencySeries is a uniformly sampled real frequency-domain signal,
// typically a one-sided power spectral density.
type RealFrequencySeries struct {
	Name   string    `json:"name"`
	Epoch  time.Time `json:"epoch"`
	F0     float64   `json:"f0"`
	DeltaF float64   `json:"delta_f"`
	Units  string    `json:"units"`
	Data   []float64 `json:"data"`
}

// TimeSeries is a uniformly sampled real time-domain signal.
type TimeSeries struct {
	Name   string    `json:"name"`
	Epoch  time.Time `json:"epoch"`
	F0     float64   `json:"f0"` // heterodyne frequency
	DeltaT float64   `json:"delta_t"`
	Units  string    `json:"units"`
	Data   []float64 `json:"data"`
}

// SpectralCorrelation holds the two-point spectral correlation of whitened
// noise indexed by bin separation. Separations past the end of the table
// have zero correlation.
type SpectralCorrelation []float64

// At returns the correlation for a bin separation of deltaK bins.
func (c SpectralCorrelation) At(deltaK int) float64 {
	if deltaK < 0 {
		deltaK = -deltaK
	}
	if deltaK >= len(c) {
		return 0
	}
	return c[deltaK]
}

func checkLength(length int) error {
	if length < 1 || length > MaxLength {
		return fmt.Errorf("%w: length %d outside [1, %d]", ErrAllocation, length, MaxLength)
	}
	return nil
}

// NewFrequencySeries allocates a zeroed complex frequency series.
func NewFrequencySeries(name string, epoch time.Time, f0, deltaF float64, units string, length int) (*FrequencySeries, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}
	return &FrequencySeries{
		Name:   name,
		Epoch:  epoch,
		F0:     f0,
		DeltaF: deltaF,
		Units:  units,
		Data:   make([]complex128, length),
	}, nil
}

// NewRealFrequencySeries allocates a zeroed real frequency series.
func NewRealFrequencySeries(name string, epoch time.Time, f0, deltaF float64, units string, length int) (*RealFrequencySeries, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}
	return &RealFrequencySeries{
		Name:   name,
		Epoch:  epoch,
		F0:     f0,
		DeltaF: deltaF,
		Units:  units,
		Data:   make([]float64, length),
	}, nil
}

// NewTimeSeries allocates a zeroed time series.
func NewTimeSeries(name string, epoch time.Time, f0, deltaT float64, units string, length int) (*TimeSeries, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}
	return &TimeSeries{
		Name:   name,
		Epoch:  epoch,
		F0:     f0,
		DeltaT: deltaT,
		Units:  units,
		Data:   make([]float64, length),
	}, nil
}

// NewComplexSequence allocates a zeroed complex scratch buffer.
func NewComplexSequence(length int) ([]complex128, error) {
	if err := checkLength(length); err != nil {
		return nil, err
	}
	return make([]complex128, length), nil
}

// BinIndex maps an absolute frequency onto the index of the bin it falls on
// in a grid of spacing deltaF anchored at 0 Hz. Frequencies round to the
// nearest bin and exact half bins round down, on either side of 0 Hz, so a
// series starting on a half bin maps onto the grid the same way wherever it
// sits. For non-negative half bins this is truncation.
func BinIndex(f, deltaF float64) int {
	r := f / deltaF
	// ratios within rounding error of a half bin count as the half bin
	return int(math.Ceil(r - 0.5 - halfBinTolerance*math.Max(1, math.Abs(r))))
}

const halfBinTolerance = 1e-12

// FrequencyToBin returns the index of the bin of s holding frequency f.
// The result may lie outside [0, len(s.Data)).
func (s *FrequencySeries) FrequencyToBin(f float64) int {
	return BinIndex(f-s.F0, s.DeltaF)
}

// FrequencyToBin returns the index of the bin of s holding frequency f.
// The result may lie outside [0, len(s.Data)).
func (s *RealFrequencySeries) FrequencyToBin(f float64) int {
	return BinIndex(f-s.F0, s.DeltaF)
}

// FHigh returns the upper edge of the frequency support of s.
func (s *FrequencySeries) FHigh() float64 {
	return s.F0 + float64(len(s.Data))*s.DeltaF
}

// Duration returns the time spanned by the series.
func (t *TimeSeries) Duration() time.Duration {
	return time.Duration(float64(len(t.Data)) * t.DeltaT * float64(time.Second))
}

// IsMultiple reports whether a is an integer multiple of b to within
// floating point rounding of the ratio.
func IsMultiple(a, b float64) bool {
	if b == 0 || math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) {
		return false
	}
	r := a / b
	return math.Abs(r-math.Round(r)) <= 1e-9*math.Max(1, math.Abs(r))
}
