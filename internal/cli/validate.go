package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/dynir/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                       `json:"valid"`
	Dialects int                        `json:"dialects"`
	Errors   []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate declarations without registering them",
		Long: `Check dialect declarations for syntax, naming, constraint and
trait-usage errors without registering them.

Every file is checked and all errors are reported. Trait names are
resolved at registration; use compile to see rejected ops.

Exit codes:
  0 - All declarations valid
  1 - Validation errors found
  2 - Command error (invalid paths, etc.)`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, loadErrs := LoadDecls(paths, LoadModeCollectAll)
	if loaded == nil {
		code, message := errorCode(loadErrs[0])
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}
	formatter.VerboseLog("Found %d declaration file(s)", len(loaded.Files))

	var errs []compiler.ValidationError
	for _, err := range loadErrs {
		code, message := errorCode(err)
		ve := compiler.ValidationError{Field: "load", Message: message, Code: code}
		if le, ok := err.(*LoadError); ok {
			ve.Message = le.Message
			ve.Line = le.Loc.Line
			if le.Loc.File != "" {
				ve.Field = le.Loc.File
			}
		}
		errs = append(errs, ve)
	}
	for _, decl := range loaded.Decls {
		formatter.VerboseLog("Validating dialect: %s", decl.Name)
		errs = append(errs, compiler.Validate(decl)...)
	}

	result := ValidationResult{
		Valid:    len(errs) == 0,
		Dialects: len(loaded.Decls),
		Errors:   errs,
	}
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ All declarations valid (%d dialect(s))\n", result.Dialects)
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	msg := fmt.Sprintf("validation failed with %d error(s)", len(result.Errors))
	if formatter.JSON() {
		first := result.Errors[0]
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, ve := range result.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", ve.Error())
	}
	return NewExitError(ExitFailure, msg)
}
