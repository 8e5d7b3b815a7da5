package commands

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-tfplane/burst"
)

var correlationMaxLag int

var correlationCmd = &cobra.Command{
	Use:   "correlation",
	Short: "Print the two-point spectral correlation of the configured window",
	Long: `Print the correlation between frequency bins of white noise after it
has been multiplied by the configured analysis window, by bin separation.

Example:
  tfplane correlation -c plane.yaml --max-lag 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg)

		generator, err := burst.NewPlaneGenerator(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to create plane generator")
		}

		correlation := generator.Correlation()
		lags := len(correlation)
		if correlationMaxLag >= 0 {
			lags = min(lags, correlationMaxLag+1)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s window, %d samples\n", cfg.WindowType, cfg.WindowLength)
		for dk := range lags {
			fmt.Fprintf(out, "%d\t%+.12e\n", dk, correlation[dk])
		}
		return nil
	},
}

func init() {
	correlationCmd.Flags().IntVar(&correlationMaxLag, "max-lag", 16, "largest bin separation to print (-1 for all)")
}
