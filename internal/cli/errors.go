package cli

import (
	"errors"
	"fmt"
)

// ExitError represents a command failure with a specific exit code.
//
// Cobra RunE functions return it instead of calling os.Exit() directly, so
// tests can assert on exit codes without terminating the process. The error
// propagates up to [RunWithConfig], where [IsExitError] extracts the code for
// [ExecuteResult], and [Execute] performs the actual os.Exit().
//
// Commands print their own failure report before returning it, so the
// message itself carries only the code.
type ExitError struct {
	// Code is the exit code to return to the shell.
	// Convention: 0 = success, 1 = failed or aborted deployment, bad input.
	Code int
}

// Error implements the error interface, returning "exit status N" to match
// the os/exec format.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
//
//	if err != nil {
//	    return NewExitError(1)
//	}
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError checks if an error is an [ExitError] and extracts its exit code.
//
// Returns (code, true) if err is or wraps an *ExitError, and (0, false) for
// nil or any other error.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
