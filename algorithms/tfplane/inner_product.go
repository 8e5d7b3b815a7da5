package tfplane

import (
	"math/cmplx"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
)

// InnerProduct returns the magnitude of the inner product of two channel
// filters in the presence of noise whose bins are correlated according to
// correlation. The sums run over positive frequencies only, so the result
// is doubled to give the full inner product. filter1 and filter2 may be the
// same series.
//
// Correlation between bins an odd number of bins apart enters with a
// negative sign. Cost is len(filter1)*len(filter2).
func InnerProduct(filter1, filter2 *series.FrequencySeries, correlation series.SpectralCorrelation) float64 {
	k10 := series.BinIndex(filter1.F0, filter1.DeltaF)
	k20 := series.BinIndex(filter2.F0, filter2.DeltaF)

	var sum complex128
	for k1, f1 := range filter1.Data {
		for k2, f2 := range filter2.Data {
			deltaK := k10 + k1 - k20 - k2
			if deltaK < 0 {
				deltaK = -deltaK
			}
			if deltaK >= len(correlation) {
				continue
			}
			sksk := correlation[deltaK]
			if deltaK&1 == 1 {
				sksk = -sksk
			}

			// f1 * conj(f2)
			sum += complex(sksk, 0) * f1 * cmplx.Conj(f2)
		}
	}

	return 2 * cmplx.Abs(sum)
}
