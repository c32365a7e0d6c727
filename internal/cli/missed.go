package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jayp120/syncly/internal/series"
	"github.com/jayp120/syncly/internal/store"
)

// MissedResult is the JSON payload for the missed command.
type MissedResult struct {
	SeriesID string `json:"series_id"`
	Date     string `json:"date,omitempty"`
	Missed   bool   `json:"missed"`
}

// NewMissedCommand creates the missed command.
func NewMissedCommand(rootOpts *RootOptions) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "missed <series-id>",
		Short: "Show the most recent missed occurrence of a series",
		Long: `Find the most recent past occurrence that has no finalized session
record. Cancelled dates are not missed. At most one date is reported
per series, the latest gap.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMissed(rootOpts, args[0], asOf, cmd)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "reference time (RFC 3339 or YYYY-MM-DD, default now)")

	return cmd
}

func runMissed(opts *RootOptions, seriesID, asOfValue string, cmd *cobra.Command) error {
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

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("opening database: %v", err))
	}
	defer st.Close()

	existing, err := st.ExistingDateKeys(cmd.Context(), s.ID)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("listing instances: %v", err))
	}
	formatter.VerboseLog("series %s has %d finalized instance(s)", s.ID, len(existing))

	date, ok := series.MostRecentMissed(s, existing, asOf)
	if !ok {
		if formatter.Format == "json" {
			return formatter.Success(MissedResult{SeriesID: s.ID, Missed: false})
		}
		fmt.Fprintf(formatter.Writer, "series %s has no missed occurrence\n", s.ID)
		return nil
	}

	if formatter.Format == "json" {
		return formatter.Success(MissedResult{SeriesID: s.ID, Date: series.DateKey(date), Missed: true})
	}
	fmt.Fprintf(formatter.Writer, "%s\n", series.DateKey(date))
	return nil
}
