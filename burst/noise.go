package burst

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
)

// Injection is a sinusoid added to synthetic noise.
type Injection struct {
	Frequency float64 `json:"frequency" msgpack:"frequency"` // Hz
	Amplitude float64 `json:"amplitude" msgpack:"amplitude"`
	Phase     float64 `json:"phase,omitempty" msgpack:"phase,omitempty"` // radians
}

// SyntheticNoise returns length samples of white Gaussian noise of standard
// deviation sigma at sampleRate, plus any injections. The same seed always
// gives the same series.
func SyntheticNoise(name string, epoch time.Time, sigma, sampleRate float64, length int, seed uint64, injections ...Injection) (*series.TimeSeries, error) {
	ts, err := series.NewTimeSeries(name, epoch, 0, 1/sampleRate, "strain", length)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
	for i := range ts.Data {
		ts.Data[i] = sigma * rng.NormFloat64()
	}

	for _, inj := range injections {
		w := 2 * math.Pi * inj.Frequency
		for i := range ts.Data {
			ts.Data[i] += inj.Amplitude * math.Sin(w*float64(i)*ts.DeltaT+inj.Phase)
		}
	}

	return ts, nil
}
