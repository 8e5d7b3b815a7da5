package tfplane

import (
	"math/cmplx"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
	"github.com/RyanBlaney/sonido-tfplane/logging"
	"gonum.org/v1/gonum/stat"
)

// Tracer receives intermediate data from FreqSeriesToTFPlane. Calls happen
// on the calling goroutine, before projection starts.
type Tracer interface {
	// InputBand receives the input bins covering the plane's band. bins[0]
	// is at flow and the slice must not be modified or retained.
	InputBand(flow, deltaF float64, bins []complex128)

	// ChannelFilter receives each normalised channel filter.
	ChannelFilter(channel int, filter *series.FrequencySeries)
}

// TwoPointAverages returns <s_k s*_{k+dk}> over bins for dk = 0..maxLag.
// Lags with no pairs are left out.
func TwoPointAverages(bins []complex128, maxLag int) []complex128 {
	maxLag = min(maxLag, len(bins)-1)
	if maxLag < 0 {
		return nil
	}

	avgs := make([]complex128, maxLag+1)
	for dk := range avgs {
		var sum complex128
		n := len(bins) - dk
		for k := 0; k < n; k++ {
			sum += bins[k] * cmplx.Conj(bins[k+dk])
		}
		avgs[dk] = sum / complex(float64(n), 0)
	}
	return avgs
}

// LogTracer writes input statistics and filter shapes to a logger at debug
// level.
type LogTracer struct {
	Logger logging.Logger
	// MaxLag is the largest bin separation reported by InputBand.
	MaxLag int
}

func (t *LogTracer) InputBand(flow, deltaF float64, bins []complex128) {
	re := make([]float64, len(bins))
	im := make([]float64, len(bins))
	for i, s := range bins {
		re[i] = real(s)
		im[i] = imag(s)
	}
	reMean, reStd := stat.MeanStdDev(re, nil)
	imMean, imStd := stat.MeanStdDev(im, nil)

	t.Logger.Debug("input band", logging.Fields{
		"flow":    flow,
		"delta_f": deltaF,
		"bins":    len(bins),
		"re_mean": reMean,
		"re_std":  reStd,
		"im_mean": imMean,
		"im_std":  imStd,
	})

	for dk, avg := range TwoPointAverages(bins, t.MaxLag) {
		t.Logger.Debug("two point average", logging.Fields{
			"dk": dk,
			"re": real(avg),
			"im": imag(avg),
		})
	}
}

func (t *LogTracer) ChannelFilter(channel int, filter *series.FrequencySeries) {
	peak := 0.0
	for _, c := range filter.Data {
		peak = max(peak, cmplx.Abs(c))
	}
	t.Logger.Debug("channel filter", logging.Fields{
		"channel": channel,
		"name":    filter.Name,
		"f0":      filter.F0,
		"bins":    len(filter.Data),
		"peak":    peak,
	})
}
