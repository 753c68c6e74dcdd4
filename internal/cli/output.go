package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/relmap/internal/dbcontext"
	"github.com/roach88/relmap/internal/relation"
	"github.com/roach88/relmap/internal/schema"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Records rejected (validation, integrity) or the save failed
	ExitCommandError = 2 // Command error (bad flags, database not found, schema mismatch, etc.)
)

// Error codes - unified across all CLI commands.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeConfig     = "E002" // Config file or flag error
	ErrCodeOpen       = "E003" // Database could not be opened
	ErrCodeSchema     = "E004" // Record types do not match the tables
	ErrCodeIntegrity  = "E005" // Relation integrity violated
	ErrCodeValidation = "E006" // Records failed validation
	ErrCodeStore      = "E007" // Store operation failed
	ErrCodeNotFound   = "E008" // Collection or record not found
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode classifies err for CLIError.Code.
func ErrorCode(err error) string {
	var exitErr *ExitError
	switch {
	case dbcontext.IsValidationError(err):
		return ErrCodeValidation
	case relation.IsIntegrityError(err):
		return ErrCodeIntegrity
	case schema.IsSchemaError(err):
		return ErrCodeSchema
	case dbcontext.IsStoreError(err):
		return ErrCodeStore
	case errors.As(err, &exitErr) && exitErr.Code == ExitCommandError:
		return ErrCodeConfig
	default:
		return ErrCodeGeneric
	}
}

// engineExitError maps an error from loading or saving to an ExitError.
// Rejected records are failures; a schema mismatch is a command error.
func engineExitError(message string, err error) *ExitError {
	if schema.IsSchemaError(err) {
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// textRenderer is implemented by results with a human-readable layout.
type textRenderer interface {
	renderText(w io.Writer)
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	if r, ok := data.(textRenderer); ok {
		r.renderText(f.Writer)
		return nil
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// Report writes err in the given format. Validation failures carry the
// offending records as details.
func Report(w io.Writer, format string, verbose bool, err error) {
	f := &OutputFormatter{Format: format, Writer: w, Verbose: verbose}
	var details interface{}
	var ve *dbcontext.ValidationError
	if errors.As(err, &ve) {
		details = ve.Records
	}
	if werr := f.Error(ErrorCode(err), err.Error(), details); werr != nil {
		slog.Error("failed to write error report", "error", werr, "cause", err)
	}
}
