package tfplane

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/windowing"
)

// GenerateFilter builds the frequency-domain filter for the channel
// [channelFlow, channelFlow+channelWidth].
//
// The filter is a Hann window twice the channel's width centred on the
// channel's centre frequency, on the bins of template. Its length is odd,
// one more than the number of bins in twice the channel width, so that the
// filters of adjacent channels add up to a Tukey window over their combined
// span. Summing across any number of channels therefore gives the same
// window shape, which lets channels of different widths tile the same band.
//
// If psd is not nil the filter is divided by the square root of the PSD
// before normalisation ("over whitening"), de-emphasising noisy bins. psd
// must have the same bin spacing as template.
//
// The filter is normalised so that its inner product with itself, under
// correlation, is 1.
func GenerateFilter(template *series.FrequencySeries, channelFlow, channelWidth float64, psd *series.RealFrequencySeries, correlation series.SpectralCorrelation) (*series.FrequencySeries, error) {
	filter, err := newHannFilter(template, channelFlow, channelWidth)
	if err != nil {
		return nil, err
	}

	if psd != nil {
		if err := overWhiten(filter, psd); err != nil {
			return nil, err
		}
	}

	norm := math.Sqrt(InnerProduct(filter, filter, correlation))
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: %s: filter norm is %v", ErrInvalidArgument, filter.Name, norm)
	}
	scale := complex(1/norm, 0)
	for i := range filter.Data {
		filter.Data[i] *= scale
	}

	return filter, nil
}

// newHannFilter returns the un-normalised, un-whitened channel filter.
func newHannFilter(template *series.FrequencySeries, channelFlow, channelWidth float64) (*series.FrequencySeries, error) {
	if !(template.DeltaF > 0) || !(channelWidth > 0) || math.IsInf(channelWidth, 0) {
		return nil, fmt.Errorf("%w: channel width %v at bin spacing %v", ErrInvalidArgument, channelWidth, template.DeltaF)
	}

	name := fmt.Sprintf("channel %g +/- %g Hz", channelFlow+channelWidth/2, channelWidth/2)
	length := series.BinIndex(2*channelWidth, template.DeltaF) + 1

	filter, err := series.NewFrequencySeries(name, template.Epoch, channelFlow-channelWidth/2, template.DeltaF, "", length)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAllocation, name, err)
	}
	hann, err := windowing.NewHann(length, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAllocation, name, err)
	}

	for i, w := range hann.GetCoefficients() {
		filter.Data[i] = complex(w, 0)
	}

	return filter, nil
}

// overWhiten divides filter by sqrt(psd). Filter bins outside the PSD's
// support have no noise estimate and are zeroed.
func overWhiten(filter *series.FrequencySeries, psd *series.RealFrequencySeries) error {
	if psd.DeltaF != filter.DeltaF {
		return fmt.Errorf("%w: PSD bin spacing %v does not match filter bin spacing %v", ErrInvalidArgument, psd.DeltaF, filter.DeltaF)
	}

	offset := psd.FrequencyToBin(filter.F0)
	for i := range filter.Data {
		k := offset + i
		if k < 0 || k >= len(psd.Data) {
			filter.Data[i] = 0
			continue
		}
		p := psd.Data[k]
		if !(p > 0) {
			return fmt.Errorf("%w: PSD is %v at %g Hz", ErrInvalidArgument, p, psd.F0+float64(k)*psd.DeltaF)
		}
		filter.Data[i] /= complex(math.Sqrt(p), 0)
	}

	return nil
}
