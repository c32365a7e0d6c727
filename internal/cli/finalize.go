package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jayp120/syncly/internal/calsync"
	"github.com/jayp120/syncly/internal/notes"
	"github.com/jayp120/syncly/internal/series"
	"github.com/jayp120/syncly/internal/session"
	"github.com/jayp120/syncly/internal/store"
)

// FinalizeOutput is the JSON payload for the finalize command.
type FinalizeOutput struct {
	InstanceID     string   `json:"instance_id"`
	SeriesID       string   `json:"series_id"`
	Date           string   `json:"date"`
	TaskIDs        []string `json:"task_ids"`
	IsAsynchronous bool     `json:"is_asynchronous"`
	SyncWarning    string   `json:"sync_warning,omitempty"`
}

// NewFinalizeCommand creates the finalize command.
func NewFinalizeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		date      string
		notesFile string
		catchUp   bool
	)

	cmd := &cobra.Command{
		Use:   "finalize <series-id>",
		Short: "Finalize a session for an occurrence",
		Long: `Persist a session record for one occurrence of a series.

Notes are read from --notes-file, or stdin when absent. Tasks are
extracted from the notes and created alongside the instance. A second
finalize for the same occurrence is rejected; the existing record wins.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFinalize(rootOpts, args[0], date, notesFile, catchUp, cmd)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "occurrence date key (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&notesFile, "notes-file", "-", "notes file path, - for stdin")
	cmd.Flags().BoolVar(&catchUp, "catchup", false, "record as an asynchronous catch-up")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func runFinalize(opts *RootOptions, seriesID, date, notesFile string, catchUp bool, cmd *cobra.Command) error {
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

	if _, err := series.ParseDateKey(date); err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --date: %v", err))
	}

	all, err := loadAllSeries(cfg)
	if err != nil {
		return err
	}
	var s *series.Series
	for i := range all {
		if all[i].ID == seriesID {
			s = &all[i]
		}
	}
	if s == nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("series %q not found in %s", seriesID, cfg.DefinitionsDir))
	}

	text, err := readNotes(notesFile, cmd.InOrStdin())
	if err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return NewExitError(ExitCommandError, fmt.Sprintf("opening database: %v", err))
	}
	defer st.Close()

	var calendar session.CalendarSync
	if cfg.CalendarDir != "" {
		lookup := func(id string) (*series.Series, bool) {
			for i := range all {
				if all[i].ID == id {
					return &all[i], true
				}
			}
			return nil, false
		}
		calendar = calsync.NewFileSync(cfg.CalendarDir, lookup)
		formatter.VerboseLog("calendar export enabled: %s", cfg.CalendarDir)
	}

	pending := notes.Parse(text, notes.Options{
		MentionCandidates:   cfg.MentionCandidates(),
		FallbackAssigneeIDs: s.AttendeeIDs,
		AsOf:                session.SystemClock{}.Now(),
	})

	finalizer := session.NewFinalizer(st, st, calendar, nil)
	result, err := finalizer.Finalize(cmd.Context(), session.FinalizeRequest{
		SeriesID:       s.ID,
		OccurrenceDate: date,
		NotesText:      text,
		PendingTasks:   pending,
		Actor:          cfg.Actor,
		IsAsynchronous: catchUp,
	})
	if err != nil {
		var se *session.SessionError
		if errors.As(err, &se) {
			_ = formatter.Error(string(se.Code), se.Message, nil)
			return NewExitError(ExitFailure, se.Error())
		}
		return NewExitError(ExitCommandError, err.Error())
	}

	output := FinalizeOutput{
		InstanceID:     result.Instance.ID,
		SeriesID:       result.Instance.SeriesID,
		Date:           result.Instance.OccurrenceDate,
		TaskIDs:        result.Instance.TaskIDs,
		IsAsynchronous: result.Instance.IsAsynchronous,
	}
	if result.SyncWarning != nil {
		output.SyncWarning = result.SyncWarning.Error()
		fmt.Fprintf(formatter.ErrWriter, "warning: %v\n", result.SyncWarning)
	}

	if formatter.Format == "json" {
		return formatter.Success(output)
	}
	fmt.Fprintf(formatter.Writer, "finalized %s %s (%d task(s), instance %s)\n",
		output.SeriesID, output.Date, len(output.TaskIDs), output.InstanceID)
	return nil
}
