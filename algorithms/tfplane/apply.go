package tfplane

import (
	"fmt"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
)

// ApplyFilter sets output to input * conj(filter) where the two overlap and
// to zero everywhere else. output must be as long as input. The last bin of
// output (the Nyquist bin of a real signal's spectrum) is always zero.
//
// Filter bins below the start of input are skipped.
func ApplyFilter(output []complex128, input, filter *series.FrequencySeries) error {
	if len(output) != len(input.Data) {
		return fmt.Errorf("%w: output has %d bins, input has %d", ErrLengthMismatch, len(output), len(input.Data))
	}

	clear(output)

	fstart := series.BinIndex(filter.F0-input.F0, filter.DeltaF)
	outStart := max(fstart, 0)
	filterStart := max(-fstart, 0)

	// one bin short of the end keeps the Nyquist bin at zero
	bins := min(len(output)-outStart-1, len(filter.Data)-filterStart)

	for i := 0; i < bins; i++ {
		output[outStart+i] = input.Data[outStart+i] * cmplx.Conj(filter.Data[filterStart+i])
	}

	return nil
}
