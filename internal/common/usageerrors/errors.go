// Package usageerrors contains the generic errors returned by the nodeusage pipeline.
// The command-line entrypoint looks for the error types defined in this file and sets
// the process exit code accordingly.
//
// If several problems are found while reading an input (e.g., multiple unparseable
// cells), they are combined into a multierror.Error from package
// github.com/hashicorp/go-multierror and attached as the Cause of ErrInputMalformed.
package usageerrors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Process exit codes returned by ExitCodeFromError.
const (
	ExitOK               = 0
	ExitUnknown          = 1
	ExitInvalidArgument  = 2
	ExitInputUnavailable = 3
	ExitInputMalformed   = 4
)

// ErrInputUnavailable is returned when the source table cannot be located or read.
type ErrInputUnavailable struct {
	Path    string // Path of the input, e.g., "results.csv"
	Message string // An optional message to include in the error message
}

func (err *ErrInputUnavailable) Error() (s string) {
	s = fmt.Sprintf("input %q is unavailable", err.Path)
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	return
}

// ErrInputMalformed is returned when the table was read but cannot be used: required
// columns are missing, there are no rows, or numeric cells could not be parsed.
// MissingColumns, Message and Cause are optional.
type ErrInputMalformed struct {
	Path           string
	MissingColumns []string
	Message        string
	Cause          error
}

func (err *ErrInputMalformed) Error() string {
	s := fmt.Sprintf("input %q is malformed", err.Path)
	if len(err.MissingColumns) > 0 {
		s = s + fmt.Sprintf("; missing required columns [%s]", strings.Join(err.MissingColumns, ", "))
	}
	if err.Message != "" {
		s = s + fmt.Sprintf("; %s", err.Message)
	}
	if err.Cause != nil {
		s = s + fmt.Sprintf(": %s", err.Cause)
	}
	return s
}

func (err *ErrInputMalformed) Unwrap() error {
	return err.Cause
}

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "kmeans.clusters"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %v is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %v is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ExitCodeFromError maps error types to process exit codes.
// Uses errors.As to look through the chain of errors, as opposed to just considering the topmost error in the chain.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitOK
	}

	// Using {} scopes just to re-use the "e" variable name for each case.
	{
		var e *ErrInputUnavailable
		if errors.As(err, &e) {
			return ExitInputUnavailable
		}
	}
	{
		var e *ErrInputMalformed
		if errors.As(err, &e) {
			return ExitInputMalformed
		}
	}
	{
		var e *ErrInvalidArgument
		if errors.As(err, &e) {
			return ExitInvalidArgument
		}
	}

	return ExitUnknown
}
