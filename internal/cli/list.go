package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jayp120/syncly/internal/series"
)

// ListResult is the JSON payload for the list command.
type ListResult struct {
	SeriesID string   `json:"series_id"`
	Dates    []string `json:"dates"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "list <series-id>",
		Short: "List occurrences of a series in a date range",
		Long: `List every non-cancelled occurrence of a series between --from and
--to inclusive, in ascending order.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, args[0], from, to, cmd)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "range start (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&to, "to", "", "range end (YYYY-MM-DD, required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runList(opts *RootOptions, seriesID, from, to string, cmd *cobra.Command) error {
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

	start, err := series.ParseDateKey(from)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --from: %v", err))
	}
	end, err := series.ParseDateKey(to)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --to: %v", err))
	}

	s, err := findSeries(cfg, seriesID)
	if err != nil {
		return err
	}

	occurrences := series.OccurrencesInRange(s, start, end)
	dates := make([]string, len(occurrences))
	for i, d := range occurrences {
		dates[i] = series.DateKey(d)
	}

	if formatter.Format == "json" {
		return formatter.Success(ListResult{SeriesID: s.ID, Dates: dates})
	}
	if len(dates) == 0 {
		fmt.Fprintln(formatter.Writer, "no occurrences in range")
		return nil
	}
	for _, d := range dates {
		fmt.Fprintln(formatter.Writer, d)
	}
	return nil
}
