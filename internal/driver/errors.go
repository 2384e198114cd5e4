package driver

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrLibraryNotFound  = errors.New("shared library not found")
	ErrAmbiguousLibrary = errors.New("more than one shared library candidate")
	ErrNotImplemented   = errors.New("routine not implemented by driver")
	ErrInvalidSize      = errors.New("problem size must be a positive integer")
	ErrOffset           = errors.New("matrix index origin not accepted by routine")
	ErrForeignCall      = errors.New("foreign call failed")
)

// ForeignCallError reports a routine that could not be resolved or called,
// or that returned a nonzero status.
type ForeignCallError struct {
	Routine string // Symbol or library involved
	Code    int    // Status reported by the routine, if Err is nil
	Err     error  // Loader or call failure, if any
}

// Error implements the error interface.
func (e *ForeignCallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("foreign call %s: %v", e.Routine, e.Err)
	}
	return fmt.Sprintf("foreign call %s: returned status %d", e.Routine, e.Code)
}

// Unwrap returns the underlying loader or call failure.
func (e *ForeignCallError) Unwrap() error {
	return e.Err
}

// Is matches ErrForeignCall.
func (e *ForeignCallError) Is(target error) bool {
	return target == ErrForeignCall
}
