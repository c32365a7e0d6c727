package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jayp120/syncly/internal/seriesfile"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Series int               `json:"series"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one definition problem.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [definitions-dir]",
		Short: "Validate series definitions",
		Long: `Validate CUE series definitions without touching the database.

Checks syntax, required fields, recurrence rules, and bound consistency.
The directory defaults to the configured definitions directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(rootOpts.Config)
			if err != nil {
				return NewExitError(ExitCommandError, err.Error())
			}
			dir := cfg.DefinitionsDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result, loadErrors := seriesfile.Load(dir, seriesfile.LoadModeCollectAll)

	// A nil result means loading failed before any series were decoded.
	if result == nil && len(loadErrors) > 0 {
		var loadErr *seriesfile.LoadError
		if errors.As(loadErrors[0], &loadErr) {
			_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
			return NewExitError(ExitCommandError, loadErr.Error())
		}
		_ = formatter.Error(seriesfile.ErrCodeGeneric, loadErrors[0].Error(), nil)
		return NewExitError(ExitCommandError, loadErrors[0].Error())
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	if len(loadErrors) > 0 {
		issues := make([]ValidationIssue, 0, len(loadErrors))
		for _, err := range loadErrors {
			var loadErr *seriesfile.LoadError
			if errors.As(err, &loadErr) {
				issues = append(issues, ValidationIssue{Code: loadErr.Code, Message: loadErr.Error()})
			} else {
				issues = append(issues, ValidationIssue{Code: seriesfile.ErrCodeGeneric, Message: err.Error()})
			}
		}
		return outputValidationIssues(formatter, len(result.Series), issues)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Series: len(result.Series)})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d series definition(s) valid\n", len(result.Series))
	return nil
}

// outputValidationIssues reports failures and carries the domain exit code.
func outputValidationIssues(formatter *OutputFormatter, seriesCount int, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Series: seriesCount, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		enc := json.NewEncoder(formatter.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Code, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
