package tfplane

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tfplane/logging"
)

// Plane is a time-frequency plane: one time series per frequency channel,
// channel i spanning [FLow + i*DeltaF, FLow + (i+1)*DeltaF].
type Plane struct {
	Name     string    `json:"name"`
	Epoch    time.Time `json:"epoch"`
	FLow     float64   `json:"flow"`
	DeltaF   float64   `json:"delta_f"`
	Channels int       `json:"channels"`

	// Channel holds the filtered time series of each channel. The inverse
	// transform omits the 1/N factor.
	Channel []*series.TimeSeries `json:"-"`

	// ChannelRMS is the expected root mean square of each channel for
	// noise described by the PSD the plane was built with.
	ChannelRMS []float64 `json:"channel_rms"`

	// TwiceChannelOverlap[i] is twice the inner product of the filters of
	// channels i and i+1.
	TwiceChannelOverlap []float64 `json:"twice_channel_overlap"`

	// TwoPointSpectralCorrelation is used for every inner product computed
	// for this plane.
	TwoPointSpectralCorrelation series.SpectralCorrelation `json:"-"`
}

// NewPlane allocates a plane of channels channels, each holding samples time
// samples at spacing deltaT.
func NewPlane(name string, flow, deltaF float64, channels, samples int, deltaT float64, correlation series.SpectralCorrelation) (*Plane, error) {
	if channels < 1 {
		return nil, fmt.Errorf("%w: plane needs at least one channel, got %d", ErrInvalidArgument, channels)
	}

	plane := &Plane{
		Name:                        name,
		FLow:                        flow,
		DeltaF:                      deltaF,
		Channels:                    channels,
		Channel:                     make([]*series.TimeSeries, channels),
		ChannelRMS:                  make([]float64, channels),
		TwiceChannelOverlap:         make([]float64, channels-1),
		TwoPointSpectralCorrelation: correlation,
	}

	for i := range plane.Channel {
		ts, err := series.NewTimeSeries(fmt.Sprintf("%s channel %d", name, i), time.Time{}, 0, deltaT, "", samples)
		if err != nil {
			return nil, fmt.Errorf("%w: channel %d: %w", ErrAllocation, i, err)
		}
		plane.Channel[i] = ts
	}

	return plane, nil
}

// ChannelFlow returns the lower edge of channel i.
func (p *Plane) ChannelFlow(i int) float64 {
	return p.FLow + float64(i)*p.DeltaF
}

// FHigh returns the upper edge of the last channel.
func (p *Plane) FHigh() float64 {
	return p.FLow + float64(p.Channels)*p.DeltaF
}

// Option configures FreqSeriesToTFPlane.
type Option func(*options)

type options struct {
	workers int
	tracer  Tracer
	logger  logging.Logger
}

// WithWorkers projects channels on n goroutines once all filters exist.
// n <= 0 uses one worker per CPU. The result does not depend on n.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		o.workers = n
	}
}

// WithTracer reports intermediate data to t.
func WithTracer(t Tracer) Option {
	return func(o *options) {
		o.tracer = t
	}
}

// WithLogger replaces the package logger for one call.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// validateGrid checks the plane's channel grid against the input series.
func validateGrid(plane *Plane, fseries *series.FrequencySeries) error {
	if plane.Channels < 1 || !(plane.DeltaF > 0) || !(fseries.DeltaF > 0) {
		return fmt.Errorf("%w: %d channels of %v Hz over bins of %v Hz", ErrInvalidArgument, plane.Channels, plane.DeltaF, fseries.DeltaF)
	}
	if !series.IsMultiple(plane.DeltaF, fseries.DeltaF) {
		return fmt.Errorf("%w: channel width %v Hz is not a multiple of bin spacing %v Hz", ErrInvalidArgument, plane.DeltaF, fseries.DeltaF)
	}
	offset := plane.FLow - fseries.F0
	if !series.IsMultiple(offset, fseries.DeltaF) || !series.IsMultiple(offset, plane.DeltaF) {
		return fmt.Errorf("%w: flow %v Hz is not on the channel grid anchored at %v Hz", ErrInvalidArgument, plane.FLow, fseries.F0)
	}
	if plane.FLow < fseries.F0 || plane.FHigh() > fseries.FHigh() {
		return fmt.Errorf("%w: channels span [%v, %v) Hz, series spans [%v, %v) Hz", ErrOutOfBand, plane.FLow, plane.FHigh(), fseries.F0, fseries.FHigh())
	}
	return nil
}

func validateBuffers(plane *Plane) error {
	if len(plane.Channel) != plane.Channels || len(plane.ChannelRMS) != plane.Channels || len(plane.TwiceChannelOverlap) != plane.Channels-1 {
		return fmt.Errorf("%w: plane arrays not allocated for %d channels", ErrLengthMismatch, plane.Channels)
	}
	for i, ch := range plane.Channel {
		if ch == nil {
			return fmt.Errorf("%w: channel %d not allocated", ErrLengthMismatch, i)
		}
	}
	return nil
}

// FreqSeriesToTFPlane projects fseries onto the channels of plane.
//
// For each channel a filter is generated (over-whitened by psd when
// overWhiten is set), fseries is multiplied by the conjugate filter and
// inverse transformed with plan into plane.Channel[i]. plan omits the 1/N
// normalisation and no renormalisation is applied here. The expected RMS of
// each channel for noise described by psd goes into plane.ChannelRMS, and
// twice the inner product of adjacent filters into plane.TwiceChannelOverlap.
// The name and epoch of fseries are copied onto the plane last.
//
// plane.DeltaF must be a multiple of fseries.DeltaF, and plane.FLow-fseries.F0
// must be a multiple of both fseries.DeltaF and plane.DeltaF, otherwise
// ErrInvalidArgument is returned. A band reaching outside fseries returns
// ErrOutOfBand.
//
// plane must be fully allocated. On error plane's contents are unspecified.
func FreqSeriesToTFPlane(plane *Plane, fseries *series.FrequencySeries, psd *series.RealFrequencySeries, plan spectral.ReversePlan, overWhiten bool, opts ...Option) error {
	if plane == nil || fseries == nil || psd == nil || plan == nil {
		return fmt.Errorf("%w: plane, frequency series, PSD and plan are required", ErrInvalidArgument)
	}

	o := options{workers: 1, logger: logging.WithFields(logging.Fields{"component": "tfplane"})}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateGrid(plane, fseries); err != nil {
		return err
	}
	if err := validateBuffers(plane); err != nil {
		return err
	}

	logger := o.logger.WithFields(logging.Fields{
		"function": "FreqSeriesToTFPlane",
		"series":   fseries.Name,
		"channels": plane.Channels,
		"flow":     plane.FLow,
		"delta_f":  plane.DeltaF,
	})

	if o.tracer != nil {
		lo := fseries.FrequencyToBin(plane.FLow)
		hi := fseries.FrequencyToBin(plane.FHigh())
		o.tracer.InputBand(plane.FLow, fseries.DeltaF, fseries.Data[lo:hi])
	}

	logger.Info("generating channel filters")

	var whitening *series.RealFrequencySeries
	if overWhiten {
		whitening = psd
	}

	// filters live only for this call
	filters := make([]*series.FrequencySeries, plane.Channels)
	for i := range filters {
		filter, err := GenerateFilter(fseries, plane.ChannelFlow(i), plane.DeltaF, whitening, plane.TwoPointSpectralCorrelation)
		if err != nil {
			logger.Error(err, "filter generation failed", logging.Fields{"channel": i})
			return fmt.Errorf("channel %d: %w", i, err)
		}
		filters[i] = filter
		if o.tracer != nil {
			o.tracer.ChannelFilter(i, filter)
		}
	}

	logger.Info("projecting data onto time-frequency plane", logging.Fields{"workers": o.workers})

	var err error
	if o.workers <= 1 || plane.Channels == 1 {
		err = projectSequential(plane, fseries, psd, plan, filters)
	} else {
		err = projectParallel(plane, fseries, psd, plan, filters, o.workers)
	}
	if err != nil {
		logger.Error(err, "projection failed")
		return err
	}

	plane.Name = fseries.Name
	plane.Epoch = fseries.Epoch

	return nil
}

// projectChannel fills the overlap with the next channel (if any), the time
// series and the RMS of channel i. product is scratch space.
func projectChannel(plane *Plane, fseries *series.FrequencySeries, psd *series.RealFrequencySeries, plan spectral.ReversePlan, filters []*series.FrequencySeries, i int, product []complex128) error {
	if i < len(filters)-1 {
		plane.TwiceChannelOverlap[i] = 2 * InnerProduct(filters[i], filters[i+1], plane.TwoPointSpectralCorrelation)
	}

	if err := ApplyFilter(product, fseries, filters[i]); err != nil {
		return fmt.Errorf("channel %d: %w", i, err)
	}
	if err := plan.Reverse(plane.Channel[i].Data, product); err != nil {
		return fmt.Errorf("%w: channel %d: %w", ErrTransform, i, err)
	}

	plane.ChannelRMS[i] = math.Sqrt(ChannelMeanSquare(psd, filters[i]))

	return nil
}

func projectSequential(plane *Plane, fseries *series.FrequencySeries, psd *series.RealFrequencySeries, plan spectral.ReversePlan, filters []*series.FrequencySeries) error {
	product, err := series.NewComplexSequence(len(fseries.Data))
	if err != nil {
		return fmt.Errorf("%w: product buffer: %w", ErrAllocation, err)
	}

	for i := range filters {
		if err := projectChannel(plane, fseries, psd, plan, filters, i, product); err != nil {
			return err
		}
	}
	return nil
}

// projectParallel runs projectChannel on a pool of workers. Every worker
// owns its scratch buffer and plan; channels write disjoint plane entries.
func projectParallel(plane *Plane, fseries *series.FrequencySeries, psd *series.RealFrequencySeries, plan spectral.ReversePlan, filters []*series.FrequencySeries, workers int) error {
	workers = min(workers, len(filters))

	products := make([][]complex128, workers)
	for w := range products {
		product, err := series.NewComplexSequence(len(fseries.Data))
		if err != nil {
			return fmt.Errorf("%w: product buffer: %w", ErrAllocation, err)
		}
		products[w] = product
	}

	jobs := make(chan int, len(filters))
	for i := range filters {
		jobs <- i
	}
	close(jobs)

	errs := make([]error, len(filters))

	var wg sync.WaitGroup
	for w := range workers {
		workerPlan := plan
		if w > 0 {
			workerPlan = plan.Clone()
		}

		wg.Add(1)
		go func(product []complex128, plan spectral.ReversePlan) {
			defer wg.Done()
			for i := range jobs {
				errs[i] = projectChannel(plane, fseries, psd, plan, filters, i, product)
			}
		}(products[w], workerPlan)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
