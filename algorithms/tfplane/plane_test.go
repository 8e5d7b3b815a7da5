package tfplane

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tfplane/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// fixture holds the inputs of one plane computation: an input series with
// bins bins at spacing 1 Hz starting at 0 Hz, a PSD on the same grid, and a
// reverse plan for the matching time series length.
type fixture struct {
	fseries *series.FrequencySeries
	psd     *series.RealFrequencySeries
	plan    spectral.ReversePlan
	corr    series.SpectralCorrelation
	samples int
}

func newFixture(t *testing.T, bins int) *fixture {
	t.Helper()
	samples := 2 * (bins - 1)
	plan, err := spectral.NewGonumReversePlan(samples)
	if err != nil {
		t.Fatal(err)
	}
	return &fixture{
		fseries: randomSeries(t, 0, 1, bins, 42),
		psd:     colouredPSD(t, 0, 1, bins),
		plan:    plan,
		corr:    hannCorrelation(t, samples),
		samples: samples,
	}
}

func (fx *fixture) plane(t *testing.T, flow, deltaF float64, channels int) *Plane {
	t.Helper()
	plane, err := NewPlane("tfplane", flow, deltaF, channels, fx.samples, 1.0/float64(fx.samples), fx.corr)
	if err != nil {
		t.Fatal(err)
	}
	return plane
}

func quiet() Option {
	return WithLogger(&logging.NoOpLogger{})
}

func TestGridValidation(t *testing.T) {
	fx := newFixture(t, 1024)

	tests := []struct {
		name     string
		flow     float64
		deltaF   float64
		channels int
		want     error
	}{
		{"span inside series", 10, 2, 100, nil},
		{"flow off channel grid", 10, 3, 1, ErrInvalidArgument},
		{"width not a bin multiple", 9, 1.5, 4, ErrInvalidArgument},
		{"flow between bins", 10.5, 1, 4, ErrInvalidArgument},
		{"span past the end", 1000, 2, 20, ErrOutOfBand},
		{"flow below f0", -10, 2, 1, ErrOutOfBand},
		{"span reaches the end", 1016, 2, 4, nil},
		{"flow at f0 with odd bin width", 0, 3, 8, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plane := fx.plane(t, tt.flow, tt.deltaF, tt.channels)
			err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, false, quiet())
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPlaneContents(t *testing.T) {
	fx := newFixture(t, 257)

	for _, overWhiten := range []bool{false, true} {
		plane := fx.plane(t, 32, 8, 12)
		if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, overWhiten, quiet()); err != nil {
			t.Fatal(err)
		}

		if plane.Name != fx.fseries.Name || !plane.Epoch.Equal(fx.fseries.Epoch) {
			t.Errorf("plane name/epoch = %q/%v, want %q/%v", plane.Name, plane.Epoch, fx.fseries.Name, fx.fseries.Epoch)
		}

		var whitening *series.RealFrequencySeries
		if overWhiten {
			whitening = fx.psd
		}

		filters := make([]*series.FrequencySeries, plane.Channels)
		for i := range filters {
			f, err := GenerateFilter(fx.fseries, plane.ChannelFlow(i), plane.DeltaF, whitening, fx.corr)
			if err != nil {
				t.Fatal(err)
			}
			filters[i] = f
		}

		product := make([]complex128, len(fx.fseries.Data))
		want := make([]float64, fx.samples)
		for i, f := range filters {
			if i < len(filters)-1 {
				if got, want := plane.TwiceChannelOverlap[i], 2*InnerProduct(f, filters[i+1], fx.corr); got != want {
					t.Errorf("overlap %d = %v, want exactly %v", i, got, want)
				}
			}
			if got, want := plane.ChannelRMS[i], math.Sqrt(ChannelMeanSquare(fx.psd, f)); got != want {
				t.Errorf("rms %d = %v, want %v", i, got, want)
			}

			if err := ApplyFilter(product, fx.fseries, f); err != nil {
				t.Fatal(err)
			}
			if err := fx.plan.Reverse(want, product); err != nil {
				t.Fatal(err)
			}
			if !floats.Equal(plane.Channel[i].Data, want) {
				t.Errorf("channel %d time series differs from filter+reverse FFT", i)
			}
		}
	}
}

// Channels three bins wide have filters starting on half bins. Starting the
// plane at the series' first bin must not shift channel 0 against the rest.
func TestOddWidthChannelsAreTranslates(t *testing.T) {
	fx := newFixture(t, 257)
	fx.psd = flatPSD(t, 0, 1, 257, 4)

	plane := fx.plane(t, 0, 3, 12)
	if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, false, quiet()); err != nil {
		t.Fatal(err)
	}

	for i, overlap := range plane.TwiceChannelOverlap {
		if !scalar.EqualWithinRel(overlap, plane.TwiceChannelOverlap[len(plane.TwiceChannelOverlap)-1], 1e-12) {
			t.Errorf("overlap %d = %v, want %v like every other pair", i, overlap, plane.TwiceChannelOverlap[len(plane.TwiceChannelOverlap)-1])
		}
	}

	// channel 0's filter reaches below 0 Hz where the PSD has no bins
	for i := 2; i < plane.Channels; i++ {
		if !scalar.EqualWithinRel(plane.ChannelRMS[i], plane.ChannelRMS[1], 1e-12) {
			t.Errorf("rms %d = %v, want %v", i, plane.ChannelRMS[i], plane.ChannelRMS[1])
		}
	}

	// a tone on bin 4 sits at the centre of channel 1 (origin 1.5 Hz rounds
	// down to bin 1, centre three bins on)
	clear(fx.fseries.Data)
	fx.fseries.Data[4] = 1e3
	if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, false, quiet()); err != nil {
		t.Fatal(err)
	}
	energy := make([]float64, plane.Channels)
	for i, ch := range plane.Channel {
		energy[i] = floats.Dot(ch.Data, ch.Data)
	}
	if floats.MaxIdx(energy) != 1 {
		t.Errorf("loudest channel %d, want 1 (energies %v)", floats.MaxIdx(energy), energy)
	}
	if !scalar.EqualWithinRel(energy[0], energy[2], 1e-9) {
		t.Errorf("neighbours of the tone channel differ: %v and %v", energy[0], energy[2])
	}
}

func TestPlaneDeterministic(t *testing.T) {
	fx := newFixture(t, 513)

	run := func(opts ...Option) *Plane {
		plane := fx.plane(t, 64, 16, 20)
		if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, true, append(opts, quiet())...); err != nil {
			t.Fatal(err)
		}
		return plane
	}

	a := run()
	b := run()
	c := run(WithWorkers(4))
	d := run(WithWorkers(0))

	for _, other := range []*Plane{b, c, d} {
		if !floats.Equal(a.ChannelRMS, other.ChannelRMS) {
			t.Error("channel RMS differs between runs")
		}
		if !floats.Equal(a.TwiceChannelOverlap, other.TwiceChannelOverlap) {
			t.Error("channel overlap differs between runs")
		}
		for i := range a.Channel {
			if !floats.Equal(a.Channel[i].Data, other.Channel[i].Data) {
				t.Fatalf("channel %d differs between runs", i)
			}
		}
	}
}

func TestToneLandsInItsChannel(t *testing.T) {
	fx := newFixture(t, 513)
	clear(fx.fseries.Data)

	// channel 5 spans [84, 88] Hz; its centre bin is 86
	fx.fseries.Data[86] = 1e3

	plane := fx.plane(t, 64, 4, 10)
	if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, false, quiet()); err != nil {
		t.Fatal(err)
	}

	energy := make([]float64, plane.Channels)
	for i, ch := range plane.Channel {
		energy[i] = floats.Dot(ch.Data, ch.Data)
	}
	if floats.MaxIdx(energy) != 5 {
		t.Fatalf("loudest channel %d, want 5 (energies %v)", floats.MaxIdx(energy), energy)
	}
	for i, e := range energy {
		if i != 5 && e > 1e-20*energy[5] {
			t.Errorf("channel %d energy %v leaks from the tone", i, e)
		}
	}
}

func TestChannelRMSForWhiteNoise(t *testing.T) {
	fx := newFixture(t, 257)
	fx.psd = flatPSD(t, 0, 1, 257, 2)
	fx.corr = whiteCorrelation

	plane := fx.plane(t, 40, 8, 4)
	if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, false, quiet()); err != nil {
		t.Fatal(err)
	}

	// a white filter has sum |c|^2 = 1/2, so the mean square is P/(4 deltaF)
	for i, rms := range plane.ChannelRMS {
		if !scalar.EqualWithinRel(rms, math.Sqrt(2.0/4), 1e-12) {
			t.Errorf("channel %d rms = %v, want %v", i, rms, math.Sqrt(0.5))
		}
	}
}

type failingPlan struct {
	spectral.ReversePlan
}

func (p failingPlan) Reverse([]float64, []complex128) error {
	return errors.New("plan exploded")
}

func (p failingPlan) Clone() spectral.ReversePlan {
	return p
}

func TestPlaneFailures(t *testing.T) {
	fx := newFixture(t, 129)

	t.Run("transform", func(t *testing.T) {
		for _, workers := range []int{1, 3} {
			plane := fx.plane(t, 16, 4, 6)
			err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, failingPlan{fx.plan}, false, WithWorkers(workers), quiet())
			if !errors.Is(err, ErrTransform) {
				t.Fatalf("workers=%d: err = %v, want ErrTransform", workers, err)
			}
		}
	})

	t.Run("plan length", func(t *testing.T) {
		plan, _ := spectral.NewGonumReversePlan(100)
		plane := fx.plane(t, 16, 4, 6)
		err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, plan, false, quiet())
		if !errors.Is(err, ErrTransform) || !errors.Is(err, spectral.ErrPlanLength) {
			t.Fatalf("err = %v, want ErrTransform wrapping ErrPlanLength", err)
		}
	})

	t.Run("filter generation", func(t *testing.T) {
		psd := flatPSD(t, 0, 1, 129, 1)
		psd.Data[30] = 0

		plane := fx.plane(t, 16, 4, 6)
		err := FreqSeriesToTFPlane(plane, fx.fseries, psd, fx.plan, true, quiet())
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
		if plane.Name == fx.fseries.Name {
			t.Error("failed call stamped the plane name")
		}

		// without over whitening the PSD only scales the RMS
		plane = fx.plane(t, 16, 4, 6)
		if err := FreqSeriesToTFPlane(plane, fx.fseries, psd, fx.plan, false, quiet()); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("unallocated plane", func(t *testing.T) {
		plane := fx.plane(t, 16, 4, 6)
		plane.ChannelRMS = plane.ChannelRMS[:5]
		if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, false, quiet()); !errors.Is(err, ErrLengthMismatch) {
			t.Fatalf("err = %v, want ErrLengthMismatch", err)
		}

		plane = fx.plane(t, 16, 4, 6)
		plane.Channel[2] = nil
		if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, false, quiet()); !errors.Is(err, ErrLengthMismatch) {
			t.Fatalf("err = %v, want ErrLengthMismatch", err)
		}
	})

	t.Run("missing inputs", func(t *testing.T) {
		plane := fx.plane(t, 16, 4, 6)
		if err := FreqSeriesToTFPlane(plane, fx.fseries, nil, fx.plan, false, quiet()); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestNewPlane(t *testing.T) {
	plane, err := NewPlane("p", 16, 4, 3, 64, 1.0/64, whiteCorrelation)
	if err != nil {
		t.Fatal(err)
	}
	if len(plane.Channel) != 3 || len(plane.ChannelRMS) != 3 || len(plane.TwiceChannelOverlap) != 2 {
		t.Fatalf("bad plane arrays: %d %d %d", len(plane.Channel), len(plane.ChannelRMS), len(plane.TwiceChannelOverlap))
	}
	if plane.ChannelFlow(2) != 24 || plane.FHigh() != 28 {
		t.Errorf("ChannelFlow(2) = %v, FHigh = %v", plane.ChannelFlow(2), plane.FHigh())
	}
	for _, ch := range plane.Channel {
		if len(ch.Data) != 64 || ch.DeltaT != 1.0/64 {
			t.Fatalf("channel series %d samples at %v", len(ch.Data), ch.DeltaT)
		}
	}

	if _, err := NewPlane("p", 16, 4, 0, 64, 1, whiteCorrelation); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero channels: err = %v", err)
	}
	if _, err := NewPlane("p", 16, 4, 2, 0, 1, whiteCorrelation); !errors.Is(err, ErrAllocation) {
		t.Errorf("zero samples: err = %v", err)
	}
}

type recordingTracer struct {
	bins    int
	flow    float64
	filters []int
}

func (r *recordingTracer) InputBand(flow, deltaF float64, bins []complex128) {
	r.flow = flow
	r.bins = len(bins)
}

func (r *recordingTracer) ChannelFilter(channel int, filter *series.FrequencySeries) {
	r.filters = append(r.filters, channel)
}

func TestTracerSeesBandAndFilters(t *testing.T) {
	fx := newFixture(t, 129)
	plane := fx.plane(t, 16, 4, 6)

	rec := &recordingTracer{}
	if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, false, WithTracer(rec), quiet()); err != nil {
		t.Fatal(err)
	}
	if rec.flow != 16 || rec.bins != 24 {
		t.Errorf("tracer saw %d bins from %v Hz, want 24 from 16", rec.bins, rec.flow)
	}
	if len(rec.filters) != 6 || rec.filters[5] != 5 {
		t.Errorf("tracer saw filters %v", rec.filters)
	}
}

func TestLogTracer(t *testing.T) {
	fx := newFixture(t, 129)
	plane := fx.plane(t, 16, 4, 2)

	var out bytes.Buffer
	logger := logging.NewWriterLogger(&out, &out, false)
	logger.SetLevel(logging.DebugLevel)

	tracer := &LogTracer{Logger: logger, MaxLag: 2}
	if err := FreqSeriesToTFPlane(plane, fx.fseries, fx.psd, fx.plan, false, WithTracer(tracer), WithLogger(logger)); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"input band", "two point average", "channel filter", "projecting data onto time-frequency plane"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("log missing %q", want)
		}
	}
}
