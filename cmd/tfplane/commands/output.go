package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/RyanBlaney/sonido-tfplane/burst"
)

// Output formats for the run command.
const (
	FormatText    = "text"
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

// Report is the output of one run.
type Report struct {
	RunID      string              `json:"run_id" msgpack:"run_id"`
	Seed       uint64              `json:"seed" msgpack:"seed"`
	Sigma      float64             `json:"sigma" msgpack:"sigma"`
	Injections []burst.Injection   `json:"injections,omitempty" msgpack:"injections,omitempty"`
	Summary    *burst.PlaneSummary `json:"summary" msgpack:"summary"`
}

func parseFormat(format string) (string, error) {
	switch format {
	case FormatText, FormatJSON, FormatMsgpack:
		return format, nil
	default:
		return "", fmt.Errorf("unknown output format %q (text, json, msgpack)", format)
	}
}

func writeReport(w io.Writer, report *Report, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(report)
	case FormatText:
		return writeText(w, report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// writeReportFile writes report to a new file at path. The file is closed
// before returning so a failed flush surfaces as an error.
func writeReportFile(path string, report *Report, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if err := writeReport(f, report, format); err != nil {
		f.Close()
		return errors.Wrap(err, "failed to write report")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "failed to close output file")
	}
	return nil
}

func writeText(w io.Writer, report *Report) error {
	s := report.Summary
	fmt.Fprintf(w, "run %s  seed %d  sigma %g\n", report.RunID, report.Seed, report.Sigma)
	for _, inj := range report.Injections {
		fmt.Fprintf(w, "injection %g Hz  amplitude %g\n", inj.Frequency, inj.Amplitude)
	}
	fmt.Fprintf(w, "plane %q  [%g, %g) Hz  %d channels of %g Hz  %d samples\n",
		s.Name, s.FLow, s.FHigh, len(s.Channels), s.DeltaF, s.Samples)
	fmt.Fprintf(w, "loudest channel %d\n\n", s.LoudestChannel)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "channel\tflow\trms\t2*overlap\tmean\tstd\tpeak\t")
	for _, ch := range s.Channels {
		fmt.Fprintf(tw, "%d\t%g\t%.4e\t%.4f\t%.3f\t%.3f\t%.3f\t\n",
			ch.Index, ch.FLow, ch.RMS, ch.TwiceOverlap, ch.Mean, ch.StdDev, ch.Peak)
	}
	return tw.Flush()
}
