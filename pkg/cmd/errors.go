package cmd

import (
	"errors"
	"fmt"

	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

// Error codes, stable across minor versions.
const (
	CodeSourceUnavailable = "SOURCE_UNAVAILABLE"
	CodeTableNotFound     = "TABLE_NOT_FOUND"
	CodeInvalidConfig     = "INVALID_CONFIG"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInternal          = "INTERNAL_ERROR"
)

const (
	hintSourceUnavailable = "Could not load Google Sheet. Check credentials, spreadsheet_id, and sharing permissions."
	hintTableNotFound     = "Worksheet not found. Check the worksheet name (`taskboard config set-sheet <id> --worksheet <name>`)."
)

// ExitError is a command failure with a machine-readable code.
type ExitError struct {
	Code    string
	Message string
	Hint    string
	Details map[string]any
	Err     error
}

func (e *ExitError) Error() string { return e.Message }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns 2 for internal errors and 1 for everything else.
func (e *ExitError) ExitCode() int {
	if e.Code == CodeInternal {
		return 2
	}
	return 1
}

func newExitError(code string, err error) *ExitError {
	return &ExitError{Code: code, Message: err.Error(), Err: err}
}

func invalidInput(format string, args ...any) *ExitError {
	return newExitError(CodeInvalidInput, fmt.Errorf(format, args...))
}

// runError turns a failed pipeline run into an ExitError with guidance.
func runError(err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, pipeline.ErrTableNotFound) {
		e := newExitError(CodeTableNotFound, err)
		e.Hint = hintTableNotFound
		return e
	}
	e := newExitError(CodeSourceUnavailable, err)
	e.Hint = hintSourceUnavailable
	return e
}
