package assertions

import (
	"errors"
	"fmt"
)

// PreconditionError is a usage error in a test body, such as passing a
// non-error to IsError or a non-function to Throws. It is raised by panic
// and is never recorded as an assertion.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// ErrorName names the error when it is serialized as a test's uncaught
// error.
func (e *PreconditionError) ErrorName() string {
	return "PreconditionError"
}

// IsPreconditionError checks if the error is or wraps a PreconditionError
func IsPreconditionError(err error) bool {
	var pe *PreconditionError
	return err != nil && errors.As(err, &pe)
}

func precondition(op string, err error) {
	panic(&PreconditionError{Op: op, Err: err})
}
