package tfplane

import (
	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
)

// ChannelMeanSquare returns the expected mean square of a channel's output
// for stationary noise described by psd.
//
// A one-sided PSD obeys the convention that for Gaussian noise the mean
// square of a frequency bin is psd[k]/(2 deltaF). After multiplication by
// the filter c[k] that becomes psd[k] |c[k]|^2 / (2 deltaF), and the mean
// square of the channel is the sum over its bins. Cross terms vanish because
// the bins of stationary noise are independent.
//
// psd and filter must share a bin spacing. Filter bins outside the PSD's
// support contribute nothing.
func ChannelMeanSquare(psd *series.RealFrequencySeries, filter *series.FrequencySeries) float64 {
	offset := psd.FrequencyToBin(filter.F0)

	sum := 0.0
	for i, c := range filter.Data {
		k := offset + i
		if k < 0 || k >= len(psd.Data) {
			continue
		}
		sum += psd.Data[k] * (real(c)*real(c) + imag(c)*imag(c))
	}

	return sum / (2 * psd.DeltaF)
}
