package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/diogo/riskchat/internal/artifact"
	"github.com/diogo/riskchat/internal/models"
)

// segmentReport is what the segment command prints
type segmentReport struct {
	artifact.Artifact
	Chart *models.ChartSpec `json:"chart,omitempty"`
	Error string            `json:"error,omitempty"`
}

func newSegmentCmd() *cobra.Command {
	markers := artifact.DefaultMarkers

	cmd := &cobra.Command{
		Use:   "segment [file]",
		Short: "Split a reply into prose and artifact payload",
		Long: `Read an agent reply from a file or stdin and print how it is segmented:
the prose before and after the artifact markers, the raw payload, and the
chart recognized in it. Useful when checking what a backend sends.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) > 0 {
				data, err = os.ReadFile(args[0])
			} else {
				data, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read reply: %w", err)
			}
			return writeSegmentReport(cmd.OutOrStdout(), markers, string(data))
		},
	}

	cmd.Flags().StringVar(&markers.Start, "start", markers.Start, "Start marker")
	cmd.Flags().StringVar(&markers.End, "end", markers.End, "End marker")
	return cmd
}

func writeSegmentReport(w io.Writer, markers artifact.Markers, text string) error {
	if err := markers.Validate(); err != nil {
		return err
	}

	a, err := markers.Segment(text)
	report := segmentReport{Artifact: a}
	switch {
	case err != nil:
		report.Error = err.Error()
	case a.HasArtifact:
		spec, err := artifact.ParseChart(a.Raw)
		if err != nil {
			report.Error = err.Error()
		} else {
			report.Chart = spec
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
