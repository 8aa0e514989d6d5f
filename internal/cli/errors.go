// Package cli provides shared configuration and utilities for the sqlprovision CLI.
package cli

import (
	"errors"
	"fmt"
	"os"
)

// Process exit codes. Scripts wrapping a provisioning run branch on these,
// so the values are fixed.
const (
	ExitSuccess = 0
	// ExitGeneral covers template, output and assembly failures.
	ExitGeneral = 1
	// ExitConfig is returned for bad flags, config values or the credential key.
	ExitConfig = 2
	// ExitMetadata means the client's reference data could not be loaded.
	ExitMetadata = 3
	// ExitDBConnect means a reference database could not be opened or pinged.
	ExitDBConnect = 4
)

// ExitError carries the exit code a command failure maps to.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// CodeOf returns the exit code for err: ExitSuccess for nil, the code of the
// outermost ExitError in the chain, or ExitGeneral.
func CodeOf(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitGeneral
}

// ExitWithError reports err on stderr and terminates the process with
// CodeOf(err).
func ExitWithError(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(CodeOf(err))
}

func exitError(code int, msg string, err error) *ExitError {
	return &ExitError{Code: code, Message: msg, Err: err}
}

// ConfigError is a failure in flags or configuration.
func ConfigError(msg string, err error) *ExitError { return exitError(ExitConfig, msg, err) }

// MetadataError is a failure loading client reference data.
func MetadataError(msg string, err error) *ExitError { return exitError(ExitMetadata, msg, err) }

// DBConnectError is a failure reaching a reference database.
func DBConnectError(msg string, err error) *ExitError { return exitError(ExitDBConnect, msg, err) }

// GeneralError is any other failure.
func GeneralError(msg string, err error) *ExitError { return exitError(ExitGeneral, msg, err) }
