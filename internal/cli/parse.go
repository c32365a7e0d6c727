package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jayp120/syncly/internal/notes"
)

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		asOf      string
		seriesID  string
		fallbacks []string
	)

	cmd := &cobra.Command{
		Use:   "parse [notes-file]",
		Short: "Preview tasks extracted from meeting notes",
		Long: `Parse meeting notes and print the tasks that finalize would create.

Reads from the given file, or stdin when the argument is "-" or absent.
Mention candidates come from the configured directory; --series supplies
the fallback assignees from that series' attendee list.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return runParse(rootOpts, path, seriesID, asOf, fallbacks, cmd)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "reference time for due dates (RFC 3339 or YYYY-MM-DD, default now)")
	cmd.Flags().StringVar(&seriesID, "series", "", "series whose attendees are the fallback assignees")
	cmd.Flags().StringSliceVar(&fallbacks, "assignee", nil, "explicit fallback assignee id (repeatable)")

	return cmd
}

func runParse(opts *RootOptions, path, seriesID, asOfValue string, fallbacks []string, cmd *cobra.Command) error {
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

	text, err := readNotes(path, cmd.InOrStdin())
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}

	asOf, err := parseAsOf(asOfValue)
	if err != nil {
		return err
	}

	if seriesID != "" {
		s, err := findSeries(cfg, seriesID)
		if err != nil {
			return err
		}
		fallbacks = append(fallbacks, s.AttendeeIDs...)
	}

	tasks := notes.Parse(text, notes.Options{
		MentionCandidates:   cfg.MentionCandidates(),
		FallbackAssigneeIDs: fallbacks,
		AsOf:                asOf,
	})
	formatter.VerboseLog("parsed %d task(s)", len(tasks))

	if formatter.Format == "json" {
		return formatter.Success(tasks)
	}

	if len(tasks) == 0 {
		fmt.Fprintln(formatter.Writer, "no tasks found")
		return nil
	}
	for _, t := range tasks {
		fmt.Fprintf(formatter.Writer, "%s  due %s  [%s]  %v\n", t.Title, t.DueDate, t.Priority, t.AssigneeIDs)
	}
	return nil
}

// readNotes reads the notes text from a file or stdin.
func readNotes(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading notes file: %w", err)
	}
	return string(data), nil
}
