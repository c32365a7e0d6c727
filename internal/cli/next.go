package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jayp120/syncly/internal/series"
)

// NextResult is the JSON payload for the next command.
type NextResult struct {
	SeriesID  string `json:"series_id"`
	Date      string `json:"date,omitempty"`
	Exhausted bool   `json:"exhausted"`
}

// NewNextCommand creates the next command.
func NewNextCommand(rootOpts *RootOptions) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "next <series-id>",
		Short: "Show the next occurrence of a series",
		Long: `Compute the next occurrence of a series on or after the given date.

Cancelled dates are skipped. A series past its end date or occurrence
count reports as exhausted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNext(rootOpts, args[0], asOf, cmd)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "reference time (RFC 3339 or YYYY-MM-DD, default now)")

	return cmd
}

func runNext(opts *RootOptions, seriesID, asOfValue string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}

	s, err := findSeries(cfg, seriesID)
	if err != nil {
		return err
	}

	asOf, err := parseAsOf(asOfValue)
	if err != nil {
		return err
	}

	next, ok := series.NextOccurrence(s, asOf)
	if !ok {
		if formatter.Format == "json" {
			return formatter.Success(NextResult{SeriesID: s.ID, Exhausted: true})
		}
		fmt.Fprintf(formatter.Writer, "series %s has no upcoming occurrence\n", s.ID)
		return nil
	}

	if formatter.Format == "json" {
		return formatter.Success(NextResult{SeriesID: s.ID, Date: series.DateKey(next)})
	}
	fmt.Fprintf(formatter.Writer, "%s\n", series.DateKey(next))
	return nil
}
