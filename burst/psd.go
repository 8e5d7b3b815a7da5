package burst

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
)

// WhiteNoisePSD returns the one-sided PSD of white Gaussian noise of standard
// deviation sigma sampled at sampleRate, on the bins of a transform of length
// samples.
func WhiteNoisePSD(sigma, sampleRate float64, length int) (*series.RealFrequencySeries, error) {
	if !(sampleRate > 0) || length < 1 {
		return nil, fmt.Errorf("invalid PSD grid: %v Hz, %d samples", sampleRate, length)
	}

	psd, err := series.NewRealFrequencySeries("white noise PSD", time.Time{}, 0, sampleRate/float64(length), "strain^2 s", length/2+1)
	if err != nil {
		return nil, err
	}

	level := 2 * sigma * sigma / sampleRate
	for i := range psd.Data {
		psd.Data[i] = level
	}
	return psd, nil
}
