package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jayp120/syncly/internal/store"
)

// NewTaskCommand creates the task command group.
func NewTaskCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks created by finalized sessions",
	}

	cmd.AddCommand(newTaskDoneCommand(rootOpts, true))
	cmd.AddCommand(newTaskDoneCommand(rootOpts, false))

	return cmd
}

// newTaskDoneCommand builds "task done" and its inverse "task reopen".
func newTaskDoneCommand(rootOpts *RootOptions, done bool) *cobra.Command {
	use, short := "done <task-id>", "Mark a task as done"
	if !done {
		use, short = "reopen <task-id>", "Mark a done task as open again"
	}

	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}

			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return NewExitError(ExitCommandError, fmt.Sprintf("opening database: %v", err))
			}
			defer st.Close()

			if err := st.SetTaskDone(cmd.Context(), args[0], done); err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]any{"task_id": args[0], "done": done})
			}
			fmt.Fprintf(formatter.Writer, "task %s done=%t\n", args[0], done)
			return nil
		},
	}
}
