package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ndcsqlite/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	Tables int                      `json:"tables,omitempty"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [schema]",
		Short: "Validate a catalog",
		Long: `Validate a catalog (CUE directory or YAML file) without opening a
database. Reports every problem with its E2xx code. Without an argument
the configured schema is validated.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				rootOpts.Schema = args[0]
			}
			return runValidate(rootOpts, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := opts.Config()
	if err != nil {
		return reportError(formatter, CodedError(ExitCommandError, ErrCodeBadConfig, "invalid configuration", err))
	}
	if cfg.Schema == "" {
		return outputValidateError(formatter, ErrCodeNoSchema, "no schema given")
	}
	formatter.VerboseLog("Validating %s", cfg.Schema)

	catalog, err := schema.Load(cfg.Schema)
	if err != nil {
		var loadErr *schema.LoadError
		if errors.As(err, &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Error())
		}
		var valErrs schema.ValidationErrors
		if errors.As(err, &valErrs) {
			return outputValidationErrors(formatter, valErrs)
		}
		return outputValidateError(formatter, ErrCodeGeneric, err.Error())
	}

	return outputValidateSuccess(formatter, len(catalog.Tables))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, tables int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Tables: tables})
	}

	fmt.Fprintf(formatter.Writer, "%s Schema valid (%d tables)\n", OKMark(), tables)
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Load errors are command-level errors (exit code 2)
	return CodedError(ExitCommandError, code, message, nil)
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs schema.ValidationErrors) error {
	failure := CodedError(ExitFailure, errs[0].Code, fmt.Sprintf("validation failed with %d error(s)", len(errs)), nil)

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", FailMark())
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s %s: %s\n", err.Code, err.Field, err.Message)
	}
	return failure
}
