package burst

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/tfplane"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/windowing"
	"github.com/RyanBlaney/sonido-tfplane/burst/config"
	"github.com/RyanBlaney/sonido-tfplane/logging"
)

// PlaneGenerator turns time series into time-frequency planes. A generator
// holds one reverse FFT plan and is not safe for concurrent use.
type PlaneGenerator struct {
	config      *config.PlaneConfig
	window      windowing.Window
	correlation series.SpectralCorrelation
	plan        spectral.ReversePlan
	tracer      tfplane.Tracer
	logger      logging.Logger
}

// NewPlaneGenerator creates a plane generator. A nil config uses
// config.Default.
func NewPlaneGenerator(cfg *config.PlaneConfig) (*PlaneGenerator, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.WithFields(logging.Fields{
		"component": "plane_generator",
	})

	window, err := windowing.New(cfg.WindowType, cfg.WindowLength, cfg.TukeyAlpha)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s window: %w", cfg.WindowType, err)
	}

	correlation, err := tfplane.WindowTwoPointSpectralCorrelation(window.GetCoefficients())
	if err != nil {
		return nil, fmt.Errorf("failed to compute window correlation: %w", err)
	}

	plan, err := spectral.NewReversePlan(cfg.FFTEngine, cfg.WindowLength)
	if err != nil {
		return nil, fmt.Errorf("failed to create reverse FFT plan: %w", err)
	}

	logger.Debug("Plane generator ready", logging.Fields{
		"window_type":   cfg.WindowType,
		"window_length": cfg.WindowLength,
		"fft_engine":    cfg.FFTEngine,
		"delta_f":       cfg.DeltaF(),
	})

	return &PlaneGenerator{
		config:      cfg,
		window:      window,
		correlation: correlation,
		plan:        plan,
		logger:      logger,
	}, nil
}

// SetTracer routes intermediate plane data to t on every Generate call.
func (g *PlaneGenerator) SetTracer(t tfplane.Tracer) {
	g.tracer = t
}

// SetLogger replaces the generator's logger.
func (g *PlaneGenerator) SetLogger(l logging.Logger) {
	if l != nil {
		g.logger = l
	}
}

// Config returns the generator's configuration.
func (g *PlaneGenerator) Config() *config.PlaneConfig {
	return g.config
}

// Correlation returns the two-point spectral correlation of the generator's
// window.
func (g *PlaneGenerator) Correlation() series.SpectralCorrelation {
	return g.correlation
}

// Transform windows ts and returns its Fourier transform, scaled by the
// sample spacing so that bins carry units of ts per Hz. The input series is
// not modified.
func (g *PlaneGenerator) Transform(ts *series.TimeSeries) (*series.FrequencySeries, error) {
	if ts == nil {
		return nil, fmt.Errorf("%w: time series cannot be nil", tfplane.ErrInvalidArgument)
	}
	if len(ts.Data) != g.config.WindowLength {
		return nil, fmt.Errorf("%w: time series has %d samples, window has %d", tfplane.ErrLengthMismatch, len(ts.Data), g.config.WindowLength)
	}
	if math.Abs(ts.DeltaT*g.config.SampleRate-1) > 1e-9 {
		return nil, fmt.Errorf("%w: sample spacing %v s does not match sample rate %v Hz", tfplane.ErrInvalidArgument, ts.DeltaT, g.config.SampleRate)
	}

	windowed := make([]float64, len(ts.Data))
	copy(windowed, ts.Data)
	if err := g.window.ApplyInPlace(windowed); err != nil {
		return nil, fmt.Errorf("failed to apply window: %w", err)
	}

	coeffs, err := spectral.ForwardReal(windowed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tfplane.ErrTransform, err)
	}

	deltaF := 1 / (float64(len(ts.Data)) * ts.DeltaT)
	fseries, err := series.NewFrequencySeries(ts.Name, ts.Epoch, 0, deltaF, ts.Units, len(coeffs))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tfplane.ErrAllocation, err)
	}

	scale := complex(ts.DeltaT, 0)
	for i, c := range coeffs {
		fseries.Data[i] = c * scale
	}

	return fseries, nil
}

// EstimatePSD measures the noise PSD of ts with Welch's method, using the
// generator's window on half-overlapping segments. The result is on the bin
// grid of Transform. ts must hold at least one window of samples.
func (g *PlaneGenerator) EstimatePSD(ts *series.TimeSeries) (*series.RealFrequencySeries, error) {
	if ts == nil {
		return nil, fmt.Errorf("%w: time series cannot be nil", tfplane.ErrInvalidArgument)
	}
	if math.Abs(ts.DeltaT*g.config.SampleRate-1) > 1e-9 {
		return nil, fmt.Errorf("%w: sample spacing %v s does not match sample rate %v Hz", tfplane.ErrInvalidArgument, ts.DeltaT, g.config.SampleRate)
	}

	estimator, err := spectral.NewPowerSpectrum(g.window.GetCoefficients(), g.config.WindowLength/2, g.config.PSDMethod)
	if err != nil {
		return nil, fmt.Errorf("failed to create PSD estimator: %w", err)
	}

	data, err := estimator.Estimate(ts.Data, ts.DeltaT)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tfplane.ErrLengthMismatch, err)
	}

	psd, err := series.NewRealFrequencySeries(ts.Name+" PSD", ts.Epoch, 0, g.config.DeltaF(), "", len(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tfplane.ErrAllocation, err)
	}
	copy(psd.Data, data)

	g.logger.Debug("Estimated PSD", logging.Fields{
		"series":   ts.Name,
		"segments": estimator.Segments(len(ts.Data)),
		"method":   g.config.PSDMethod,
	})

	return psd, nil
}

// Generate projects ts onto the configured channel grid. psd describes the
// noise in ts and must share the bin spacing of the transformed data.
func (g *PlaneGenerator) Generate(ts *series.TimeSeries, psd *series.RealFrequencySeries) (*tfplane.Plane, error) {
	if ts == nil {
		return nil, fmt.Errorf("%w: time series cannot be nil", tfplane.ErrInvalidArgument)
	}
	if psd == nil {
		return nil, fmt.Errorf("%w: PSD cannot be nil", tfplane.ErrInvalidArgument)
	}

	logger := g.logger.WithFields(logging.Fields{
		"function": "Generate",
		"series":   ts.Name,
		"samples":  len(ts.Data),
	})

	logger.Debug("Starting plane generation")

	fseries, err := g.Transform(ts)
	if err != nil {
		logger.Error(err, "Failed to transform time series")
		return nil, err
	}

	cfg := g.config
	plane, err := tfplane.NewPlane(ts.Name, cfg.FLow, cfg.ChannelWidth, cfg.Channels, cfg.WindowLength, ts.DeltaT, g.correlation)
	if err != nil {
		logger.Error(err, "Failed to allocate plane")
		return nil, err
	}

	opts := []tfplane.Option{
		tfplane.WithWorkers(cfg.Workers),
		tfplane.WithLogger(logger),
	}
	if g.tracer != nil {
		opts = append(opts, tfplane.WithTracer(g.tracer))
	}

	if err := tfplane.FreqSeriesToTFPlane(plane, fseries, psd, g.plan, cfg.OverWhiten, opts...); err != nil {
		logger.Error(err, "Failed to build time-frequency plane")
		return nil, err
	}

	logger.Debug("Plane generation completed", logging.Fields{
		"channels": plane.Channels,
		"flow":     plane.FLow,
		"fhigh":    plane.FHigh(),
	})

	return plane, nil
}
