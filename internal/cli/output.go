package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/application/service"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

// Exit codes for CLI commands.
const (
	ExitSuccess    = 0 // Successful execution
	ExitCallerFix  = 1 // Caller-correctable failure (bad input, illegal transition, missing data)
	ExitUnexpected = 2 // Internal failure (database, filesystem)
	ExitConflict   = 3 // Concurrent modification; retrying may succeed
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code
	Kind    string // Error kind reported in output
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

// usageError marks a malformed command line
func usageError(format string, args ...interface{}) *ExitError {
	return &ExitError{Code: ExitCallerFix, Kind: "USAGE", Message: fmt.Sprintf(format, args...)}
}

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, port.ErrVersionConflict):
		return ExitConflict
	case errors.Is(err, port.ErrNotFound),
		errors.Is(err, service.ErrNotEditable),
		errors.Is(err, service.ErrInvalidInput):
		return ExitCallerFix
	}

	kind := workflow.KindOf(err)
	switch {
	case kind == workflow.KindConflict:
		return ExitConflict
	case kind == workflow.KindUnexpected:
		return ExitUnexpected
	default:
		return ExitCallerFix
	}
}

// errorKind names the failure class shown to the operator
func errorKind(err error) string {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Kind != "" {
		return exitErr.Kind
	}
	switch {
	case errors.Is(err, port.ErrVersionConflict):
		return workflow.KindConflict.String()
	case errors.Is(err, port.ErrNotFound):
		return workflow.KindNotFound.String()
	case errors.Is(err, service.ErrNotEditable):
		return "NOT_EDITABLE"
	case errors.Is(err, service.ErrInvalidInput):
		return "INVALID_INPUT"
	}
	return workflow.KindOf(err).String()
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
}

// CLIResponse is the JSON envelope for CLI output.
type CLIResponse struct {
	Status string      `json:"status"` // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`
	Error  *CLIError   `json:"error,omitempty"`
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Kind               string   `json:"kind"`
	Message            string   `json:"message"`
	Allowed            []string `json:"allowed,omitempty"`
	MissingFields      []string `json:"missing_fields,omitempty"`
	MissingAttachments bool     `json:"missing_attachments,omitempty"`
}

// Success writes data as JSON, or calls text to render it for humans.
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer)) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	text(f.Writer)
	return nil
}

// Failure reports err. JSON goes to Writer so scripts get one document; text goes to ErrWriter.
func (f *OutputFormatter) Failure(err error) {
	cliErr := &CLIError{Kind: errorKind(err), Message: err.Error()}

	var wfErr *workflow.Error
	if errors.As(err, &wfErr) {
		cliErr.Message = wfErr.Error()
		for _, s := range wfErr.Allowed {
			cliErr.Allowed = append(cliErr.Allowed, s.String())
		}
		cliErr.MissingFields = wfErr.MissingFields
		cliErr.MissingAttachments = wfErr.MissingAttachments
	}
	if GetExitCode(err) == ExitUnexpected {
		cliErr.Message = "internal error: " + err.Error()
	}

	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		_ = enc.Encode(CLIResponse{Status: "error", Error: cliErr})
		return
	}

	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", cliErr.Kind, cliErr.Message)
	for _, field := range cliErr.MissingFields {
		fmt.Fprintf(w, "  missing field: %s\n", field)
	}
	if cliErr.MissingAttachments {
		fmt.Fprintln(w, "  missing attachments: upload at least one photo or document")
	}
}
