package commands

import (
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-tfplane/burst/config"
	"github.com/RyanBlaney/sonido-tfplane/logging"
)

var (
	// Global flags
	configPath string
	logLevel   string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "tfplane",
	Short: "Time-frequency plane generator for excess power searches",
	Long: `tfplane - project data onto a plane of overlapping frequency channels.

Each channel is a Hann-shaped band-pass filter twice the channel width,
optionally over-whitened by the noise PSD. The output of each channel is a
time series together with its expected RMS for the configured noise and its
overlap with the next channel.

Example config (plane.yaml):
  sample_rate: 1024
  window_length: 4096
  window_type: hann
  flow: 32
  channel_width: 4
  channels: 64
  over_whiten: true
  workers: 0
  fft_engine: gonum`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "plane config file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(correlationCmd)
}

// loadConfig returns the config named by --config, or the defaults.
func loadConfig() (*config.PlaneConfig, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	return cfg, nil
}

// setupLogging installs a stderr logger for one run and returns it with the
// run id attached. Reports go to stdout, so logs never do.
func setupLogging(cfg *config.PlaneConfig) (logging.Logger, string) {
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}

	logger := logging.NewWriterLogger(os.Stderr, os.Stderr, false)
	logger.SetLevel(logging.ParseLevel(level))
	logging.SetGlobalLogger(logger)

	runID := uuid.New().String()
	return logger.WithFields(logging.Fields{"run_id": runID}), runID
}
