package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Journey passed or was ignored
	ExitFailure      = 1 // Journey failed or timed out, scenario invalid
	ExitCommandError = 2 // The command could not do its job
)

// Error codes reported with command errors and validation problems.
const (
	ErrCodeNotFound       = "E005" // Scenario file not found
	ErrCodeParseFailed    = "E010" // Scenario file could not be parsed
	ErrCodeUnknownFormat  = "E011" // Unsupported scenario file extension
	ErrCodeSchema         = "E012" // Scenario does not satisfy the schema
	ErrCodeUnknownJourney = "E020" // Journey not registered
	ErrCodeUsage          = "E021" // Bad --arg, leeway or window
	ErrCodeJournal        = "E030" // Journal could not be opened, read or written
	ErrCodeMetrics        = "E040" // Metrics textfile could not be written
)

// ExitError ends a command with Code. Command errors also carry ErrCode,
// which is what JSON output reports.
type ExitError struct {
	Code    int
	ErrCode string
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// commandError is an ExitCommandError: nothing useful was printed.
func commandError(errCode, message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, ErrCode: errCode, Message: message, Err: err}
}

// outcomeError is an ExitFailure for a result that has already been printed.
func outcomeError(message string) *ExitError {
	return &ExitError{Code: ExitFailure, Message: message}
}

// GetExitCode maps a command error to the process exit code.
// Errors that are not ExitErrors, such as cobra's flag errors, exit 1.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the envelope every command writes under --format json.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError is the error half of a Response.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// output writes one command's result. Debug lines go to the error stream so
// JSON on stdout stays parseable.
type output struct {
	json    bool
	verbose bool
	w       io.Writer
	errW    io.Writer
}

func newOutput(opts *RootOptions, cmd *cobra.Command) *output {
	return &output{
		json:    opts.Format == "json",
		verbose: opts.Verbose,
		w:       cmd.OutOrStdout(),
		errW:    cmd.ErrOrStderr(),
	}
}

// result writes data in the ok envelope, or hands the writer to text.
func (o *output) result(data any, text func(w io.Writer)) error {
	if o.json {
		return o.encode(Response{Status: "ok", Data: data})
	}
	text(o.w)
	return nil
}

// report passes err through, first writing the error envelope for command
// errors in JSON mode. Text-mode errors are printed by main.
func (o *output) report(err error) error {
	var exitErr *ExitError
	if !o.json || !errors.As(err, &exitErr) || exitErr.Code != ExitCommandError {
		return err
	}
	if encErr := o.encode(Response{
		Status: "error",
		Error:  &ResponseError{Code: exitErr.ErrCode, Message: exitErr.Error()},
	}); encErr != nil {
		return errors.Join(err, encErr)
	}
	return err
}

func (o *output) debugf(format string, args ...any) {
	if o.verbose {
		fmt.Fprintf(o.errW, format+"\n", args...)
	}
}

func (o *output) encode(r Response) error {
	return json.NewEncoder(o.w).Encode(r)
}
