package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/longevity/internal/journey"
	"github.com/roach88/longevity/internal/scenario"
)

// ValidationError is one problem found in a scenario file.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                 `json:"valid"`
	File     string               `json:"file"`
	Scenario *scenario.Descriptor `json:"scenario,omitempty"`
	Errors   []ValidationError    `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario-file>",
		Short: "Validate a scenario file without running it",
		Long: `Validate a YAML, TOML or CUE scenario file.

Checks the file against the scenario schema and that its journey is
registered. Nothing is run.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newOutput(rootOpts, cmd)
			return out.report(runValidate(rootOpts, out, args[0]))
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, out *output, path string) error {
	reg, err := opts.registry()
	if err != nil {
		return commandError(ErrCodeUnknownJourney, "failed to build journey registry", err)
	}

	result := validateScenario(path, reg)
	out.debugf("Validated %s: valid=%t", path, result.Valid)

	if err := out.result(result, result.writeText); err != nil {
		return err
	}
	if !result.Valid {
		return outcomeError(fmt.Sprintf("scenario %s is invalid", path))
	}
	return nil
}

func (r ValidationResult) writeText(w io.Writer) {
	if r.Valid {
		fmt.Fprintf(w, "✓ %s is valid (journey %s, %s)\n", r.File, r.Scenario.Journey, r.Scenario.Policy())
		return
	}
	for _, e := range r.Errors {
		fmt.Fprintf(w, "Error [%s]: %s\n", e.Code, e.Message)
	}
}

// validateScenario loads path and resolves its journey.
func validateScenario(path string, reg *journey.Registry) ValidationResult {
	result := ValidationResult{File: path}

	d, err := scenario.LoadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, ValidationError{Code: loadErrorCode(err), Message: err.Error()})
		return result
	}
	result.Scenario = d

	if _, _, err := reg.Resolve(d.Journey); err != nil {
		result.Errors = append(result.Errors, ValidationError{Code: ErrCodeUnknownJourney, Message: err.Error()})
		return result
	}

	result.Valid = true
	return result
}

// loadErrorCode maps a scenario load error to an error code.
func loadErrorCode(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodeNotFound
	case errors.Is(err, scenario.ErrUnknownFormat):
		return ErrCodeUnknownFormat
	case errors.Is(err, scenario.ErrInvalid):
		return ErrCodeSchema
	default:
		return ErrCodeParseFailed
	}
}
