package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/series"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/spectral"
	"github.com/RyanBlaney/sonido-tfplane/algorithms/windowing"
	"gopkg.in/yaml.v3"
)

// PlaneConfig configures time-frequency plane generation from a time series
type PlaneConfig struct {
	// Analysis window
	SampleRate   float64 `json:"sample_rate" yaml:"sample_rate"`
	WindowLength int     `json:"window_length" yaml:"window_length"` // samples
	WindowType   string  `json:"window_type" yaml:"window_type"`     // "hann", "tukey", "rectangular"
	TukeyAlpha   float64 `json:"tukey_alpha,omitempty" yaml:"tukey_alpha,omitempty"`

	// Channel grid
	FLow         float64 `json:"flow" yaml:"flow"`                   // Hz
	ChannelWidth float64 `json:"channel_width" yaml:"channel_width"` // Hz
	Channels     int     `json:"channels" yaml:"channels"`

	OverWhiten bool `json:"over_whiten" yaml:"over_whiten"`

	// Noise PSD. Zero segments uses the analytic white noise PSD.
	PSDSegments int    `json:"psd_segments" yaml:"psd_segments"`
	PSDMethod   string `json:"psd_method" yaml:"psd_method"` // "mean", "median"

	// Execution
	Workers   int    `json:"workers" yaml:"workers"` // 0 means one per CPU
	FFTEngine string `json:"fft_engine" yaml:"fft_engine"`
	LogLevel  string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
}

// Default returns a 4 s Hann window at 1024 Hz tiled by 64 channels of
// 4 Hz from 32 Hz.
func Default() *PlaneConfig {
	return &PlaneConfig{
		SampleRate:   1024,
		WindowLength: 4096,
		WindowType:   windowing.TypeHann,
		TukeyAlpha:   0.5,
		FLow:         32,
		ChannelWidth: 4,
		Channels:     64,
		OverWhiten:   true,
		PSDSegments:  0,
		PSDMethod:    spectral.AverageMedian,
		Workers:      1,
		FFTEngine:    spectral.EngineGonum,
		LogLevel:     "info",
	}
}

// DeltaF returns the bin spacing of the windowed data's Fourier transform.
func (cfg *PlaneConfig) DeltaF() float64 {
	return cfg.SampleRate / float64(cfg.WindowLength)
}

// Bins returns the number of non-negative frequency bins of the windowed data.
func (cfg *PlaneConfig) Bins() int {
	return cfg.WindowLength/2 + 1
}

// FHigh returns the upper edge of the last channel.
func (cfg *PlaneConfig) FHigh() float64 {
	return cfg.FLow + float64(cfg.Channels)*cfg.ChannelWidth
}

// PSDLength returns the number of samples that yield PSDSegments
// half-overlapping segments.
func (cfg *PlaneConfig) PSDLength() int {
	return cfg.WindowLength * (cfg.PSDSegments + 1) / 2
}

// Validate checks the configuration, including that the channel grid fits
// the frequency grid the window produces.
func (cfg *PlaneConfig) Validate() error {
	if !(cfg.SampleRate > 0) {
		return fmt.Errorf("sample rate must be positive, got %v", cfg.SampleRate)
	}
	if cfg.WindowLength < 4 {
		return errors.New("window length too small (4+ required)")
	}
	if cfg.WindowLength > series.MaxLength {
		return fmt.Errorf("window length too large (%d max)", series.MaxLength)
	}

	switch cfg.WindowType {
	case windowing.TypeHann, windowing.TypeRectangular:
	case windowing.TypeTukey:
		if cfg.TukeyAlpha < 0 || cfg.TukeyAlpha > 1 {
			return fmt.Errorf("tukey alpha must be in [0, 1], got %v", cfg.TukeyAlpha)
		}
	default:
		return fmt.Errorf("unknown window type %q", cfg.WindowType)
	}

	switch cfg.FFTEngine {
	case spectral.EngineGonum, spectral.EngineGoDSP:
	default:
		return fmt.Errorf("unknown fft engine %q", cfg.FFTEngine)
	}

	switch cfg.PSDMethod {
	case spectral.AverageMean, spectral.AverageMedian:
	default:
		return fmt.Errorf("unknown psd method %q", cfg.PSDMethod)
	}

	switch {
	case cfg.PSDSegments < 0:
		return fmt.Errorf("psd segments must not be negative, got %d", cfg.PSDSegments)

	case cfg.Channels < 1:
		return errors.New("too few channels (1 min)")

	case !(cfg.ChannelWidth > 0):
		return fmt.Errorf("channel width must be positive, got %v", cfg.ChannelWidth)

	case cfg.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}

	deltaF := cfg.DeltaF()
	if !series.IsMultiple(cfg.ChannelWidth, deltaF) {
		return fmt.Errorf("channel width %v Hz is not a multiple of the bin spacing %v Hz", cfg.ChannelWidth, deltaF)
	}
	if !series.IsMultiple(cfg.FLow, deltaF) || !series.IsMultiple(cfg.FLow, cfg.ChannelWidth) {
		return fmt.Errorf("flow %v Hz is not on the channel grid", cfg.FLow)
	}
	if cfg.FLow < 0 || cfg.FHigh() > float64(cfg.Bins())*deltaF {
		return fmt.Errorf("channels span [%v, %v) Hz, data spans [0, %v) Hz", cfg.FLow, cfg.FHigh(), float64(cfg.Bins())*deltaF)
	}

	return nil
}

// Load reads a PlaneConfig from a YAML or JSON file. Fields missing from the
// file keep their Default values.
func Load(path string) (*PlaneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	default:
		// Try YAML first, then JSON
		if err := yaml.Unmarshal(data, cfg); err != nil {
			cfg = Default()
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config (tried YAML and JSON): %w", err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}
